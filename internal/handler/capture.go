package handler

import (
	"net/http"
	"time"

	"github.com/rohilkohli/shids/internal/domain/capture"
)

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	email, err := capture.NormalizeEmail(req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := h.capture.Subscribe(r.Context(), email); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"subscribed": email})
}

func (h *Handler) listSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.capture.ListSubscribers(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	type subscriberDTO struct {
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
	}
	dtos := make([]subscriberDTO, len(subs))
	for i, s := range subs {
		dtos[i] = subscriberDTO{Email: s.Email, CreatedAt: s.CreatedAt}
	}
	respond(w, http.StatusOK, dtos)
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := capture.Message{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := capture.ValidateMessage(&m); err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := h.capture.SaveMessage(r.Context(), &m); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"received": m.ID})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.capture.ListMessages(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	type messageDTO struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"`
	}
	dtos := make([]messageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = messageDTO{ID: m.ID, Name: m.Name, Email: m.Email, Message: m.Message, CreatedAt: m.CreatedAt}
	}
	respond(w, http.StatusOK, dtos)
}
