package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rohilkohli/shids/internal/domain/product"
)

type productDTO struct {
	ID              string             `json:"id"`
	Slug            string             `json:"slug"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Category        string             `json:"category"`
	Price           float64            `json:"price"`
	OriginalPrice   *float64           `json:"originalPrice,omitempty"`
	DiscountPercent *int               `json:"discountPercent,omitempty"`
	Stock           int                `json:"stock"`
	Rating          *float64           `json:"rating,omitempty"`
	Badge           string             `json:"badge,omitempty"`
	SKU             string             `json:"sku,omitempty"`
	Bestseller      bool               `json:"bestseller"`
	Tags            product.StringList `json:"tags"`
	Colors          product.ColorList  `json:"colors"`
	Sizes           product.StringList `json:"sizes"`
	Highlights      product.StringList `json:"highlights"`
	Images          product.StringList `json:"images"`
	Variants        []product.Variant  `json:"variants"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func toProductDTO(p *product.Product) productDTO {
	dto := productDTO{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Price:           p.Price.InexactFloat64(),
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Badge:           p.Badge,
		SKU:             p.SKU,
		Bestseller:      p.Bestseller,
		Tags:            p.Tags,
		Colors:          p.Colors,
		Sizes:           p.Sizes,
		Highlights:      p.Highlights,
		Images:          p.Images,
		Variants:        p.Variants,
		CreatedAt:       p.CreatedAt,
	}
	if p.OriginalPrice != nil {
		v := p.OriginalPrice.InexactFloat64()
		dto.OriginalPrice = &v
	}
	if p.Rating != nil {
		v := p.Rating.InexactFloat64()
		dto.Rating = &v
	}
	if dto.Variants == nil {
		dto.Variants = []product.Variant{}
	}
	return dto
}

// productReq is the admin create/update payload. Pointer fields distinguish
// "absent" from "zero" on PATCH.
type productReq struct {
	Slug            *string             `json:"slug"`
	Name            *string             `json:"name"`
	Description     *string             `json:"description"`
	Category        *string             `json:"category"`
	Price           *decimal.Decimal    `json:"price"`
	OriginalPrice   *decimal.Decimal    `json:"originalPrice"`
	DiscountPercent *int                `json:"discountPercent"`
	Stock           *int                `json:"stock"`
	Rating          *decimal.Decimal    `json:"rating"`
	Badge           *string             `json:"badge"`
	SKU             *string             `json:"sku"`
	Bestseller      *bool               `json:"bestseller"`
	Tags            *product.StringList `json:"tags"`
	Colors          *product.ColorList  `json:"colors"`
	Sizes           *product.StringList `json:"sizes"`
	Highlights      *product.StringList `json:"highlights"`
	Images          *product.StringList `json:"images"`
	Variants        *[]product.Variant  `json:"variants"`
}

func (req *productReq) apply(p *product.Product) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Slug != nil {
		p.Slug = product.Slugify(*req.Slug)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		p.OriginalPrice = req.OriginalPrice
	}
	if req.DiscountPercent != nil {
		p.DiscountPercent = req.DiscountPercent
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Rating != nil {
		p.Rating = req.Rating
	}
	if req.Badge != nil {
		p.Badge = *req.Badge
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Bestseller != nil {
		p.Bestseller = *req.Bestseller
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Sizes != nil {
		p.Sizes = *req.Sizes
	}
	if req.Highlights != nil {
		p.Highlights = *req.Highlights
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Variants != nil {
		p.Variants = *req.Variants
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	params := product.ListParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	}.Normalize()

	result, err := h.products.List(r.Context(), params)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]productDTO, len(result.Products))
	for i := range result.Products {
		dtos[i] = toProductDTO(&result.Products[i])
	}
	respond(w, http.StatusOK, map[string]any{
		"products": dtos,
		"total":    result.Total,
		"page":     params.Page,
		"limit":    params.Limit,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Price == nil || req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price is required and must not be negative")
		return
	}

	var p product.Product
	req.apply(&p)
	if p.Slug == "" {
		p.Slug = product.Slugify(p.Name)
	}

	if err := h.products.Create(r.Context(), &p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toProductDTO(&p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	req.apply(p)
	if req.Price != nil && req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), p.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": p.ID})
}
