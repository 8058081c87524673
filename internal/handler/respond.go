package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/rohilkohli/shids/internal/domain/capture"
	"github.com/rohilkohli/shids/internal/domain/content"
	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/order"
	"github.com/rohilkohli/shids/internal/domain/product"
	"github.com/rohilkohli/shids/internal/domain/user"
)

// envelope is the uniform response shape: {ok, data?, error?}.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{OK: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{OK: false, Error: msg})
}

// respondDomainError maps a domain error to the response taxonomy. Unknown
// errors turn into 500 with the error message passed through.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var (
		quantityErr *order.InvalidQuantityError
		productErr  *order.ProductNotFoundError
	)

	switch {
	case errors.Is(err, user.ErrBadCredentials),
		errors.Is(err, user.ErrNoSession):
		return http.StatusUnauthorized

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, discount.ErrNotFound),
		errors.Is(err, content.ErrCategoryNotFound),
		errors.Is(err, content.ErrHeroSlotNotFound):
		return http.StatusNotFound

	case errors.Is(err, user.ErrDuplicateEmail),
		errors.Is(err, discount.ErrDuplicateCode),
		errors.Is(err, product.ErrDuplicateSlug),
		errors.Is(err, content.ErrDuplicateCategory),
		errors.Is(err, capture.ErrAlreadySignedUp),
		errors.Is(err, order.ErrDuplicateCode):
		return http.StatusConflict

	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidEmail),
		errors.Is(err, order.ErrAddressTooShort),
		errors.Is(err, order.ErrNegativeShipping),
		errors.Is(err, order.ErrInvalidCode),
		errors.Is(err, order.ErrInvalidStatus),
		errors.As(err, &quantityErr),
		errors.As(err, &productErr),
		errors.Is(err, discount.ErrInactive),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrUsageLimitReached),
		errors.Is(err, discount.ErrInvalidValue),
		errors.Is(err, discount.ErrInvalidType),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrPasswordTooShort),
		errors.Is(err, content.ErrInvalidRating),
		errors.Is(err, content.ErrCommentTooLong),
		errors.Is(err, content.ErrEmptyName),
		errors.Is(err, capture.ErrInvalidEmail),
		errors.Is(err, capture.ErrEmptyMessage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}
