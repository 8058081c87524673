package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrDuplicateSlug is returned when a product slug is already taken.
var ErrDuplicateSlug = errors.New("product slug already exists")

// Product represents a catalog item available for purchase.
type Product struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	Category        string
	Price           decimal.Decimal
	OriginalPrice   *decimal.Decimal
	DiscountPercent *int
	Stock           int
	Rating          *decimal.Decimal
	Badge           string
	SKU             string
	Bestseller      bool
	Tags            StringList
	Colors          ColorList
	Sizes           StringList
	Highlights      StringList
	Images          StringList
	Variants        []Variant
	CreatedAt       time.Time
}

// Variant is a purchasable combination of size and color with its own stock.
type Variant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// ListParams filters and paginates the catalog listing.
type ListParams struct {
	// Search matches name or category, case-insensitive, partial.
	Search   string
	Category string
	Page     int
	Limit    int
}

const (
	defaultLimit = 12
	maxLimit     = 100
)

// Normalize clamps pagination to sane bounds: limit in [1,100] defaulting
// to 12, page at least 1.
func (p ListParams) Normalize() ListParams {
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Offset returns the row offset for the normalized page/limit pair.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ListResult is one page of the catalog plus the total row count.
type ListResult struct {
	Products []Product
	Total    int
}

// Repository defines catalog persistence. Resolve performs the
// exact-then-fuzzy lookup by id or slug.
type Repository interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Resolve(ctx context.Context, token string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
