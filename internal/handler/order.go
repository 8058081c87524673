package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/order"
)

type orderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

type orderDTO struct {
	ID              string         `json:"id"`
	Items           []orderItemDTO `json:"items"`
	Subtotal        float64        `json:"subtotal"`
	ShippingFee     float64        `json:"shippingFee"`
	DiscountCode    string         `json:"discountCode,omitempty"`
	DiscountAmount  float64        `json:"discountAmount"`
	Total           float64        `json:"total"`
	Email           string         `json:"email"`
	Address         string         `json:"address"`
	Status          string         `json:"status"`
	PaymentVerified bool           `json:"paymentVerified"`
	Courier         string         `json:"courier,omitempty"`
	AWB             string         `json:"awb,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toOrderDTO(o *order.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Size:      item.Size,
		}
	}
	return orderDTO{
		ID:              o.Code,
		Items:           items,
		Subtotal:        o.Subtotal.InexactFloat64(),
		ShippingFee:     o.ShippingFee.InexactFloat64(),
		DiscountCode:    o.DiscountCode,
		DiscountAmount:  o.DiscountAmount.InexactFloat64(),
		Total:           o.Total.InexactFloat64(),
		Email:           o.Email,
		Address:         o.Address,
		Status:          string(o.Status),
		PaymentVerified: o.PaymentVerified,
		Courier:         o.Courier,
		AWB:             o.AWB,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           string          `json:"id"`
		Email        string          `json:"email"`
		Address      string          `json:"address"`
		Items        []orderItemDTO  `json:"items"`
		ShippingFee  decimal.Decimal `json:"shippingFee"`
		DiscountCode string          `json:"discountCode"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Size:      item.Size,
		}
	}

	o, token, err := h.orders.Create(r.Context(), order.CreateRequest{
		Code:         req.ID,
		Email:        req.Email,
		Address:      req.Address,
		Items:        items,
		ShippingFee:  req.ShippingFee,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		// A bad discount code is the customer's mistake, not a missing
		// resource.
		if isDiscountError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondDomainError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"order":         toOrderDTO(o),
		"trackingToken": token,
	})
}

func isDiscountError(err error) bool {
	return errors.Is(err, discount.ErrNotFound) ||
		errors.Is(err, discount.ErrInactive) ||
		errors.Is(err, discount.ErrExpired) ||
		errors.Is(err, discount.ErrUsageLimitReached)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	var (
		u     = identityFrom(r.Context())
		email string
		admin bool
	)
	if u != nil {
		email = u.Email
		admin = u.IsAdmin()
	}

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "code"), email, admin)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i := range orders {
		dtos[i] = toOrderDTO(&orders[i])
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status          *string `json:"status"`
		PaymentVerified *bool   `json:"paymentVerified"`
		Courier         *string `json:"courier"`
		AWB             *string `json:"awb"`
		Notes           *string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	update := order.UpdateRequest{
		PaymentVerified: req.PaymentVerified,
		Courier:         req.Courier,
		AWB:             req.AWB,
		Notes:           req.Notes,
	}
	if req.Status != nil {
		status := order.Status(*req.Status)
		update.Status = &status
	}

	o, err := h.orders.Update(r.Context(), chi.URLParam(r, "code"), update)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.orders.Delete(r.Context(), code); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": order.NormalizeCode(code)})
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
		Email   string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Track(r.Context(), req.OrderID, req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) trackOrderByToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	o, err := h.orders.TrackByToken(r.Context(), token)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}
