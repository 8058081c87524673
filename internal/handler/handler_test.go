package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohilkohli/shids/internal/domain/order"
)

type stubOrderRepo struct {
	orders map[string]*order.Order
}

func (s *stubOrderRepo) Create(context.Context, *order.Order, order.TrackingToken) error {
	return nil
}

func (s *stubOrderRepo) Resolve(_ context.Context, code string) (*order.Order, error) {
	if o, ok := s.orders[code]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (s *stubOrderRepo) List(context.Context) ([]order.Order, error) { return nil, nil }
func (s *stubOrderRepo) Update(context.Context, *order.Order) error  { return nil }
func (s *stubOrderRepo) Delete(context.Context, string) error        { return nil }

func (s *stubOrderRepo) FindByTrackingToken(context.Context, string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func newTestHandler(orders order.Repository) *Handler {
	svc := order.NewService(orders, nil, nil, nil)
	return New(Config{}, nil, svc, nil, nil, nil, nil, nil, nil, nil)
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTrackOrder(t *testing.T) {
	repo := &stubOrderRepo{orders: map[string]*order.Order{
		"SHIDS-AB12": {
			Code:     "SHIDS-AB12",
			Email:    "jane@example.com",
			Status:   order.StatusShipped,
			Subtotal: decimal.RequireFromString("50"),
			Total:    decimal.RequireFromString("50"),
		},
	}}
	router := newTestHandler(repo).Routes()

	t.Run("normalizes id and matches email case-insensitively", func(t *testing.T) {
		rec := postJSON(t, router, "/api/orders/track",
			`{"orderId":" shids-ab12 ","email":"JANE@example.com"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, true, body["ok"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "SHIDS-AB12", data["id"])
		assert.Equal(t, "shipped", data["status"])
	})

	t.Run("wrong email reports not found", func(t *testing.T) {
		rec := postJSON(t, router, "/api/orders/track",
			`{"orderId":"SHIDS-AB12","email":"other@example.com"}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["ok"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postJSON(t, router, "/api/orders/track", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router := newTestHandler(&stubOrderRepo{}).Routes()

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/newsletter"},
		{http.MethodGet, "/api/admin/analytics"},
		{http.MethodPost, "/api/products"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	router := newTestHandler(&stubOrderRepo{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["ok"])
}
