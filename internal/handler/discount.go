package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rohilkohli/shids/internal/domain/discount"
)

type discountDTO struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	MaxUses   int        `json:"maxUses"`
	UsedCount int        `json:"usedCount"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toDiscountDTO(c *discount.Code) discountDTO {
	return discountDTO{
		ID:        c.ID,
		Code:      c.Code,
		Type:      string(c.Type),
		Value:     c.Value.InexactFloat64(),
		MaxUses:   c.MaxUses,
		UsedCount: c.UsedCount,
		ExpiresAt: c.ExpiresAt,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

type discountReq struct {
	Code      *string          `json:"code"`
	Type      *string          `json:"type"`
	Value     *decimal.Decimal `json:"value"`
	MaxUses   *int             `json:"maxUses"`
	ExpiresAt *time.Time       `json:"expiresAt"`
	Active    *bool            `json:"active"`
}

func (req *discountReq) apply(c *discount.Code) {
	if req.Code != nil {
		c.Code = *req.Code
	}
	if req.Type != nil {
		c.Type = discount.Type(*req.Type)
	}
	if req.Value != nil {
		c.Value = *req.Value
	}
	if req.MaxUses != nil {
		c.MaxUses = *req.MaxUses
	}
	if req.ExpiresAt != nil {
		c.ExpiresAt = req.ExpiresAt
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	codes, err := h.discounts.List(r.Context(), activeOnly)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]discountDTO, len(codes))
	for i := range codes {
		dtos[i] = toDiscountDTO(&codes[i])
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := discount.Code{Active: true}
	req.apply(&c)
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.discounts.Create(r.Context(), &c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toDiscountDTO(&c))
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.discounts.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	req.apply(c)
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.discounts.Update(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toDiscountDTO(c))
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	c, err := h.discounts.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := h.discounts.Delete(r.Context(), c.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": c.ID})
}
