package handler

import (
	"net/http"
	"time"

	"github.com/rohilkohli/shids/internal/domain/content"
)

type reviewDTO struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewDTO(rv *content.Review) reviewDTO {
	return reviewDTO{
		ID:        rv.ID,
		ProductID: rv.ProductID,
		Author:    rv.Author,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "productId is required")
		return
	}

	// Accept slugs too; reviews are stored against the canonical id.
	p, err := h.products.Resolve(r.Context(), productID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	reviews, err := h.reviews.ListByProduct(r.Context(), p.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]reviewDTO, len(reviews))
	for i := range reviews {
		dtos[i] = toReviewDTO(&reviews[i])
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	u := identityFrom(r.Context())
	if u == nil {
		respondError(w, http.StatusUnauthorized, "login required to post a review")
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.Resolve(r.Context(), req.ProductID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	rv := content.Review{
		ProductID: p.ID,
		UserID:    u.ID,
		Author:    u.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := rv.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := h.reviews.Create(r.Context(), &rv); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toReviewDTO(&rv))
}
