package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohilkohli/shids/internal/domain/content"
	"github.com/rohilkohli/shids/internal/domain/product"
)

type categoryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]categoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = categoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Position: c.Position}
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := content.Category{Name: req.Name, Position: req.Position}
	if err := content.ValidateCategory(&c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.Slug = product.Slugify(c.Name)

	if err := h.categories.Create(r.Context(), &c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, categoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Position: c.Position})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Position *int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := content.Category{ID: chi.URLParam(r, "id")}
	existing, err := h.categories.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	found := false
	for _, e := range existing {
		if e.ID == c.ID {
			c = e
			found = true
			break
		}
	}
	if !found {
		respondDomainError(w, r, content.ErrCategoryNotFound)
		return
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if err := content.ValidateCategory(&c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.Slug = product.Slugify(c.Name)

	if err := h.categories.Update(r.Context(), &c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, categoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Position: c.Position})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": id})
}

type heroSlotDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Headline  string `json:"headline,omitempty"`
	Position  int    `json:"position"`
}

func (h *Handler) listHeroSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.hero.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]heroSlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = heroSlotDTO{ID: s.ID, ProductID: s.ProductID, Headline: s.Headline, Position: s.Position}
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) createHeroSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Headline  string `json:"headline"`
		Position  int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The product must exist; the slot references it by canonical id.
	p, err := h.products.Resolve(r.Context(), req.ProductID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s := content.HeroSlot{ProductID: p.ID, Headline: req.Headline, Position: req.Position}
	if err := h.hero.Create(r.Context(), &s); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, heroSlotDTO{ID: s.ID, ProductID: s.ProductID, Headline: s.Headline, Position: s.Position})
}

func (h *Handler) deleteHeroSlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.hero.Delete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": id})
}
