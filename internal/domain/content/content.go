// Package content covers the storefront's editorial surface: categories,
// hero slots, and product reviews.
package content

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const maxCommentLen = 2000

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrHeroSlotNotFound  = errors.New("hero slot not found")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong    = errors.New("comment exceeds 2000 characters")
)

// Category is a product grouping shown in the storefront navigation.
type Category struct {
	ID       string
	Name     string
	Slug     string
	Position int
}

// HeroSlot pins a product to the storefront hero carousel.
type HeroSlot struct {
	ID        string
	ProductID string
	Headline  string
	Position  int
	CreatedAt time.Time
}

// Review is a customer review attached to a product.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Author    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Validate checks the submittable review fields.
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if len(r.Comment) > maxCommentLen {
		return ErrCommentTooLong
	}
	return nil
}

// ValidateCategory trims the name and rejects empty ones.
func ValidateCategory(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// CategoryRepository persists categories ordered by position.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

// HeroRepository persists hero slots ordered by position.
type HeroRepository interface {
	List(ctx context.Context) ([]HeroSlot, error)
	Create(ctx context.Context, s *HeroSlot) error
	Delete(ctx context.Context, id string) error
}

// ReviewRepository persists reviews, newest first.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Create(ctx context.Context, r *Review) error
}
