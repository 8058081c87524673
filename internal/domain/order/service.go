package order

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/product"
	"github.com/rohilkohli/shids/internal/notify"
)

// Sentinel validation errors for order creation.
var (
	ErrEmptyItems       = errors.New("items required")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrAddressTooShort  = errors.New("shipping address too short")
	ErrNegativeShipping = errors.New("shipping fee must not be negative")
	ErrInvalidCode      = errors.New("order code must match " + CodePrefix + "-XXXX")
	ErrInvalidStatus    = errors.New("unknown order status")
)

const minAddressLen = 10

// trackingTokenTTL is how long a guest tracking link stays valid.
const trackingTokenTTL = 90 * 24 * time.Hour

// createAttempts caps retries when a generated order code collides.
const createAttempts = 3

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return "quantity must be greater than 0 for product " + e.ProductID
}

// ProductNotFoundError indicates a line item references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// CreateRequest holds the checkout payload after transport decoding.
type CreateRequest struct {
	// Code optionally pre-supplies the order code; it must match the
	// SHIDS-XXXX pattern.
	Code         string
	Email        string
	Address      string
	Items        []Item
	ShippingFee  decimal.Decimal
	DiscountCode string
}

// UpdateRequest holds the admin-side mutation payload. Nil fields are left
// untouched.
type UpdateRequest struct {
	Status          *Status
	PaymentVerified *bool
	Courier         *string
	AWB             *string
	Notes           *string
}

// Service implements the order lifecycle: creation with pricing and
// discount application, owner-scoped lookup, admin mutation with
// notification side effects, tracking.
type Service struct {
	orders    Repository
	products  product.Repository
	discounts discount.Validator
	notifier  notify.Notifier

	now      func() time.Time
	newCode  func() (string, error)
	newToken func() string
}

// NewService creates an order Service with the required dependencies.
func NewService(
	orders Repository,
	products product.Repository,
	discounts discount.Validator,
	notifier notify.Notifier,
) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		discounts: discounts,
		notifier:  notifier,
		now:       time.Now,
		newCode:   NewCode,
		newToken:  func() string { return uuid.New().String() },
	}
}

// Create validates the checkout payload, prices the cart from the catalog,
// applies the discount code if any, and persists the order together with a
// guest tracking token. It returns the order and the token.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, string, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, "", err
	}
	if len(strings.TrimSpace(req.Address)) < minAddressLen {
		return nil, "", ErrAddressTooShort
	}
	if len(req.Items) == 0 {
		return nil, "", ErrEmptyItems
	}
	if req.ShippingFee.IsNegative() {
		return nil, "", ErrNegativeShipping
	}

	code := ""
	if req.Code != "" {
		code = NormalizeCode(req.Code)
		if !ValidCode(code) {
			return nil, "", ErrInvalidCode
		}
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, "", &InvalidQuantityError{ProductID: item.ProductID}
		}
		if item.ProductID == "" {
			return nil, "", &ProductNotFoundError{ProductID: item.ProductID}
		}
		ids = append(ids, item.ProductID)
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, "", errors.Wrap(err, "get products")
	}
	priceByID := make(map[string]decimal.Decimal, len(fetched))
	for _, p := range fetched {
		priceByID[p.ID] = p.Price
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		price, ok := priceByID[item.ProductID]
		if !ok {
			return nil, "", &ProductNotFoundError{ProductID: item.ProductID}
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discountCode := ""
	discountAmount := decimal.Zero
	if req.DiscountCode != "" {
		applied, err := s.discounts.Validate(ctx, req.DiscountCode, subtotal)
		if err != nil {
			return nil, "", errors.Wrap(err, "apply discount")
		}
		discountCode = applied.Code
		discountAmount = applied.Amount
	}

	total := subtotal.Add(req.ShippingFee).Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)

	o := &Order{
		Code:           code,
		Items:          req.Items,
		Subtotal:       subtotal,
		ShippingFee:    req.ShippingFee.Round(2),
		DiscountCode:   discountCode,
		DiscountAmount: discountAmount,
		Total:          total,
		Email:          email,
		Address:        strings.TrimSpace(req.Address),
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}

	token := TrackingToken{
		Token:     s.newToken(),
		ExpiresAt: s.now().Add(trackingTokenTTL),
	}

	if err := s.persist(ctx, o, token, req.Code == ""); err != nil {
		return nil, "", err
	}
	return o, token.Token, nil
}

// persist writes the order, regenerating the code on collision when it was
// not supplied by the caller.
func (s *Service) persist(ctx context.Context, o *Order, token TrackingToken, generated bool) error {
	for attempt := 0; attempt < createAttempts; attempt++ {
		if o.Code == "" {
			code, err := s.newCode()
			if err != nil {
				return errors.Wrap(err, "generate order code")
			}
			o.Code = code
		}
		token.OrderCode = o.Code

		err := s.orders.Create(ctx, o, token)
		if err == nil {
			return nil
		}
		if generated && errors.Is(err, ErrDuplicateCode) {
			o.Code = ""
			continue
		}
		return errors.Wrap(err, "create order")
	}
	return ErrDuplicateCode
}

// Get resolves an order by code, tolerating partial input. Non-admin
// requesters only see orders whose email matches theirs; everything else
// reports not-found.
func (s *Service) Get(ctx context.Context, rawCode, requesterEmail string, admin bool) (*Order, error) {
	o, err := s.orders.Resolve(ctx, NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}
	if !admin && !strings.EqualFold(o.Email, requesterEmail) {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns all orders, newest first. Admin only; authorization is the
// caller's job.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// Update applies an admin mutation. An explicit "paid" status marks payment
// verified; verifying payment without an explicit status promotes a
// pending or processing order to "paid". Transitions into a notifiable
// status, and payment verification flips, fire a best-effort notification.
func (s *Service) Update(ctx context.Context, rawCode string, req UpdateRequest) (*Order, error) {
	o, err := s.orders.Resolve(ctx, NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}

	prevStatus := o.Status
	prevVerified := o.PaymentVerified

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		o.Status = *req.Status
		if o.Status == StatusPaid {
			o.PaymentVerified = true
		}
	}
	if req.PaymentVerified != nil {
		o.PaymentVerified = *req.PaymentVerified
		if o.PaymentVerified && req.Status == nil &&
			(prevStatus == StatusPending || prevStatus == StatusProcessing) {
			o.Status = StatusPaid
		}
	}
	if req.Courier != nil {
		o.Courier = *req.Courier
	}
	if req.AWB != nil {
		o.AWB = *req.AWB
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	statusChanged := o.Status != prevStatus
	verifiedFlipped := o.PaymentVerified && !prevVerified
	if (statusChanged && o.Status.Notifiable()) || verifiedFlipped {
		ev := notify.Event{
			OrderCode:       o.Code,
			Email:           o.Email,
			Status:          string(o.Status),
			PaymentVerified: o.PaymentVerified,
			Courier:         o.Courier,
			AWB:             o.AWB,
			OccurredAt:      s.now(),
		}
		if err := s.notifier.OrderStatusChanged(ctx, ev); err != nil {
			zctx.From(ctx).Warn("order notification failed",
				zap.String("order", o.Code),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

// Delete removes an order and, in cascade, its line items and tracking
// tokens. Admin only.
func (s *Service) Delete(ctx context.Context, rawCode string) error {
	o, err := s.orders.Resolve(ctx, NormalizeCode(rawCode))
	if err != nil {
		return err
	}
	return s.orders.Delete(ctx, o.Code)
}

// Track looks up an order for a guest: the order code plus an exactly
// matching email (case-insensitive). Mismatches report not-found.
func (s *Service) Track(ctx context.Context, rawCode, email string) (*Order, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	o, err := s.orders.Resolve(ctx, NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.Email, normalized) {
		return nil, ErrNotFound
	}
	return o, nil
}

// TrackByToken looks up an order through an unexpired guest tracking token.
func (s *Service) TrackByToken(ctx context.Context, token string) (*Order, error) {
	return s.orders.FindByTrackingToken(ctx, token)
}

// normalizeEmail trims, lower-cases, and validates an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
