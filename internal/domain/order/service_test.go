package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/product"
	"github.com/rohilkohli/shids/internal/notify"
)

type mockOrderRepo struct {
	created      *Order
	createdToken TrackingToken
	createErrs   []error // popped per Create call
	resolved     *Order
	resolveErr   error
	updated      *Order
	deletedCode  string
	tokenOrder   *Order
	tokenErr     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order, t TrackingToken) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	m.created = o
	m.createdToken = t
	return nil
}

func (m *mockOrderRepo) Resolve(_ context.Context, code string) (*Order, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	cp := *m.resolved
	return &cp, nil
}

func (m *mockOrderRepo) List(context.Context) ([]Order, error) { return nil, nil }

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.updated = o
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, code string) error {
	m.deletedCode = code
	return nil
}

func (m *mockOrderRepo) FindByTrackingToken(context.Context, string) (*Order, error) {
	return m.tokenOrder, m.tokenErr
}

type mockProductRepo struct {
	products []product.Product
}

func (m *mockProductRepo) List(context.Context, product.ListParams) (*product.ListResult, error) {
	return &product.ListResult{}, nil
}

func (m *mockProductRepo) Resolve(context.Context, string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(context.Context, []string) ([]product.Product, error) {
	return m.products, nil
}

func (m *mockProductRepo) Create(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Update(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, string) error           { return nil }

type mockValidator struct {
	applied *discount.Applied
	err     error
	gotCode string
}

func (m *mockValidator) Validate(_ context.Context, code string, _ decimal.Decimal) (*discount.Applied, error) {
	m.gotCode = code
	return m.applied, m.err
}

type mockNotifier struct {
	events []notify.Event
	err    error
}

func (m *mockNotifier) OrderStatusChanged(_ context.Context, ev notify.Event) error {
	m.events = append(m.events, ev)
	return m.err
}

func newTestService(
	orders *mockOrderRepo,
	products *mockProductRepo,
	validator *mockValidator,
	notifier *mockNotifier,
) *Service {
	s := NewService(orders, products, validator, notifier)
	s.now = func() time.Time { return time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC) }
	s.newToken = func() string { return "test-token" }
	return s
}

func catalog(prices map[string]int64) *mockProductRepo {
	repo := &mockProductRepo{}
	for id, price := range prices {
		repo.products = append(repo.products, product.Product{
			ID:    id,
			Price: decimal.NewFromInt(price),
		})
	}
	return repo
}

func TestService_Create(t *testing.T) {
	baseItems := []Item{{ProductID: "p1", Quantity: 2}}

	tests := []struct {
		name      string
		req       CreateRequest
		validator *mockValidator
		wantErr   error
		wantTotal string
	}{
		{
			name: "happy path prices cart from catalog",
			req: CreateRequest{
				Email:       "User@Example.com",
				Address:     "42 Long Enough Street, Bombay",
				Items:       baseItems,
				ShippingFee: decimal.NewFromInt(10),
			},
			wantTotal: "210", // 2 x 100 + 10 shipping
		},
		{
			name: "empty items rejected",
			req: CreateRequest{
				Email:   "user@example.com",
				Address: "42 Long Enough Street, Bombay",
				Items:   nil,
			},
			wantErr: ErrEmptyItems,
		},
		{
			name: "invalid email rejected",
			req: CreateRequest{
				Email:   "not-an-email",
				Address: "42 Long Enough Street, Bombay",
				Items:   baseItems,
			},
			wantErr: ErrInvalidEmail,
		},
		{
			name: "short address rejected",
			req: CreateRequest{
				Email:   "user@example.com",
				Address: "short",
				Items:   baseItems,
			},
			wantErr: ErrAddressTooShort,
		},
		{
			name: "negative shipping rejected",
			req: CreateRequest{
				Email:       "user@example.com",
				Address:     "42 Long Enough Street, Bombay",
				Items:       baseItems,
				ShippingFee: decimal.NewFromInt(-1),
			},
			wantErr: ErrNegativeShipping,
		},
		{
			name: "malformed pre-supplied code rejected",
			req: CreateRequest{
				Code:    "SHIDS-TOOLONG",
				Email:   "user@example.com",
				Address: "42 Long Enough Street, Bombay",
				Items:   baseItems,
			},
			wantErr: ErrInvalidCode,
		},
		{
			name: "discount applied to total",
			req: CreateRequest{
				Email:        "user@example.com",
				Address:      "42 Long Enough Street, Bombay",
				Items:        baseItems,
				ShippingFee:  decimal.NewFromInt(10),
				DiscountCode: "SAVE20",
			},
			validator: &mockValidator{applied: &discount.Applied{
				Code:   "SAVE20",
				Amount: decimal.NewFromInt(40),
			}},
			wantTotal: "170", // 200 + 10 - 40
		},
		{
			name: "discount larger than order floors total at zero",
			req: CreateRequest{
				Email:        "user@example.com",
				Address:      "42 Long Enough Street, Bombay",
				Items:        baseItems,
				DiscountCode: "WIPEOUT",
			},
			validator: &mockValidator{applied: &discount.Applied{
				Code:   "WIPEOUT",
				Amount: decimal.NewFromInt(1000),
			}},
			wantTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			validator := tt.validator
			if validator == nil {
				validator = &mockValidator{}
			}
			s := newTestService(orders, catalog(map[string]int64{"p1": 100}), validator, &mockNotifier{})

			o, token, err := s.Create(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, orders.created)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, o)
			assert.True(t, o.Total.Equal(decimal.RequireFromString(tt.wantTotal)),
				"expected total %s, got %s", tt.wantTotal, o.Total)
			assert.Equal(t, "user@example.com", o.Email, "email must be normalized")
			assert.Equal(t, StatusPending, o.Status)
			assert.True(t, ValidCode(o.Code))

			// Total invariant holds after clamping.
			recomputed := o.Subtotal.Add(o.ShippingFee).Sub(o.DiscountAmount)
			if recomputed.IsNegative() {
				recomputed = decimal.Zero
			}
			assert.True(t, o.Total.Equal(recomputed))

			// A guest tracking token is persisted with the order.
			assert.Equal(t, "test-token", token)
			assert.Equal(t, o.Code, orders.createdToken.OrderCode)
			assert.Equal(t,
				s.now().Add(trackingTokenTTL),
				orders.createdToken.ExpiresAt,
			)
		})
	}
}

func TestService_Create_UnknownProduct(t *testing.T) {
	s := newTestService(&mockOrderRepo{}, catalog(nil), &mockValidator{}, &mockNotifier{})

	_, _, err := s.Create(context.Background(), CreateRequest{
		Email:   "user@example.com",
		Address: "42 Long Enough Street, Bombay",
		Items:   []Item{{ProductID: "ghost", Quantity: 1}},
	})

	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "ghost", pnf.ProductID)
}

func TestService_Create_RetriesOnCodeCollision(t *testing.T) {
	orders := &mockOrderRepo{createErrs: []error{ErrDuplicateCode, nil}}
	s := newTestService(orders, catalog(map[string]int64{"p1": 50}), &mockValidator{}, &mockNotifier{})

	o, _, err := s.Create(context.Background(), CreateRequest{
		Email:   "user@example.com",
		Address: "42 Long Enough Street, Bombay",
		Items:   []Item{{ProductID: "p1", Quantity: 1}},
	})

	require.NoError(t, err)
	require.NotNil(t, o)
	assert.True(t, ValidCode(o.Code))
}

func TestService_Get_Authorization(t *testing.T) {
	stored := &Order{Code: "SHIDS-AB12", Email: "owner@example.com"}

	tests := []struct {
		name           string
		requesterEmail string
		admin          bool
		wantErr        error
	}{
		{"owner sees own order", "Owner@Example.COM", false, nil},
		{"admin sees any order", "admin@example.com", true, nil},
		{"stranger gets not-found", "other@example.com", false, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(&mockOrderRepo{resolved: stored}, catalog(nil), &mockValidator{}, &mockNotifier{})

			o, err := s.Get(context.Background(), "shids-ab12", tt.requesterEmail, tt.admin)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "SHIDS-AB12", o.Code)
		})
	}
}

func statusPtr(s Status) *Status { return &s }
func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }

func TestService_Update(t *testing.T) {
	tests := []struct {
		name         string
		stored       Order
		req          UpdateRequest
		wantStatus   Status
		wantVerified bool
		wantNotify   int
	}{
		{
			name:         "shipped transition notifies",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusPaid, PaymentVerified: true},
			req:          UpdateRequest{Status: statusPtr(StatusShipped), Courier: strPtr("BlueDart"), AWB: strPtr("AWB123")},
			wantStatus:   StatusShipped,
			wantVerified: true,
			wantNotify:   1,
		},
		{
			name:         "explicit paid status implies verified payment",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusPending},
			req:          UpdateRequest{Status: statusPtr(StatusPaid)},
			wantStatus:   StatusPaid,
			wantVerified: true,
			wantNotify:   1, // payment flip, not the status itself
		},
		{
			name:         "verified payment promotes pending to paid",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusPending},
			req:          UpdateRequest{PaymentVerified: boolPtr(true)},
			wantStatus:   StatusPaid,
			wantVerified: true,
			wantNotify:   1,
		},
		{
			name:         "verified payment leaves shipped status alone",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusShipped},
			req:          UpdateRequest{PaymentVerified: boolPtr(true)},
			wantStatus:   StatusShipped,
			wantVerified: true,
			wantNotify:   1,
		},
		{
			name:         "cancelled transition stays silent",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusPending},
			req:          UpdateRequest{Status: statusPtr(StatusCancelled)},
			wantStatus:   StatusCancelled,
			wantVerified: false,
			wantNotify:   0,
		},
		{
			name:         "already verified payment does not re-notify",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusPaid, PaymentVerified: true},
			req:          UpdateRequest{Notes: strPtr("call before delivery")},
			wantStatus:   StatusPaid,
			wantVerified: true,
			wantNotify:   0,
		},
		{
			name:         "same notifiable status again stays silent",
			stored:       Order{Code: "SHIDS-AB12", Status: StatusShipped, PaymentVerified: true},
			req:          UpdateRequest{Status: statusPtr(StatusShipped)},
			wantStatus:   StatusShipped,
			wantVerified: true,
			wantNotify:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := tt.stored
			orders := &mockOrderRepo{resolved: &stored}
			notifier := &mockNotifier{}
			s := newTestService(orders, catalog(nil), &mockValidator{}, notifier)

			o, err := s.Update(context.Background(), stored.Code, tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, o.Status)
			assert.Equal(t, tt.wantVerified, o.PaymentVerified)
			require.NotNil(t, orders.updated)
			assert.Len(t, notifier.events, tt.wantNotify)
			if tt.wantNotify > 0 {
				assert.Equal(t, string(tt.wantStatus), notifier.events[0].Status)
			}
		})
	}
}

func TestService_Update_NotifyFailureIsSwallowed(t *testing.T) {
	orders := &mockOrderRepo{resolved: &Order{Code: "SHIDS-AB12", Status: StatusPaid}}
	notifier := &mockNotifier{err: assert.AnError}
	s := newTestService(orders, catalog(nil), &mockValidator{}, notifier)

	o, err := s.Update(context.Background(), "SHIDS-AB12", UpdateRequest{
		Status: statusPtr(StatusShipped),
	})

	require.NoError(t, err, "notification failure must not surface")
	assert.Equal(t, StatusShipped, o.Status)
	assert.Len(t, notifier.events, 1)
}

func TestService_Update_RejectsUnknownStatus(t *testing.T) {
	orders := &mockOrderRepo{resolved: &Order{Code: "SHIDS-AB12", Status: StatusPending}}
	s := newTestService(orders, catalog(nil), &mockValidator{}, &mockNotifier{})

	_, err := s.Update(context.Background(), "SHIDS-AB12", UpdateRequest{
		Status: statusPtr(Status("misplaced")),
	})

	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Nil(t, orders.updated)
}

func TestService_Track(t *testing.T) {
	stored := &Order{Code: "SHIDS-AB12", Email: "owner@example.com"}

	t.Run("exact email matches case-insensitively", func(t *testing.T) {
		s := newTestService(&mockOrderRepo{resolved: stored}, catalog(nil), &mockValidator{}, &mockNotifier{})

		o, err := s.Track(context.Background(), "  shids-ab12 ", " Owner@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, "SHIDS-AB12", o.Code)
	})

	t.Run("wrong email reports not-found", func(t *testing.T) {
		s := newTestService(&mockOrderRepo{resolved: stored}, catalog(nil), &mockValidator{}, &mockNotifier{})

		_, err := s.Track(context.Background(), "SHIDS-AB12", "other@example.com")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
