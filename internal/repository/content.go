package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/content"
)

const (
	listCategoriesSQL = `SELECT id, name, slug, position FROM categories ORDER BY position, name`
	insertCategorySQL = `INSERT INTO categories (name, slug, position) VALUES ($1, $2, $3) RETURNING id`
	updateCategorySQL = `UPDATE categories SET name = $2, slug = $3, position = $4 WHERE id = $1`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	listHeroSlotsSQL  = `SELECT id, product_id, headline, position, created_at
		FROM hero_slots ORDER BY position, created_at`
	insertHeroSlotSQL = `INSERT INTO hero_slots (product_id, headline, position)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	deleteHeroSlotSQL = `DELETE FROM hero_slots WHERE id = $1`

	listReviewsSQL = `SELECT id, product_id, user_id, author, rating, comment, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`
	insertReviewSQL = `INSERT INTO reviews (product_id, user_id, author, rating, comment)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
)

var (
	_ content.CategoryRepository = (*ContentRepository)(nil)
	_ content.HeroRepository     = (*HeroRepository)(nil)
	_ content.ReviewRepository   = (*ReviewRepository)(nil)
)

// ContentRepository implements the content repositories backed by PostgreSQL.
type ContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository returns a ContentRepository that uses the given pool.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func (r *ContentRepository) List(ctx context.Context) ([]content.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Category, error) {
		var c content.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Position)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

func (r *ContentRepository) Create(ctx context.Context, c *content.Category) error {
	err := r.pool.QueryRow(ctx, insertCategorySQL, c.Name, c.Slug, c.Position).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrDuplicateCategory
		}
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

func (r *ContentRepository) Update(ctx context.Context, c *content.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Slug, c.Position)
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrDuplicateCategory
		}
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrCategoryNotFound
	}
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrCategoryNotFound
	}
	return nil
}

// Hero returns the hero-slot view of the repository. Category and hero
// CRUD share a table-per-method layout, so the same struct serves both
// interfaces through thin adapters.
func (r *ContentRepository) Hero() *HeroRepository { return &HeroRepository{pool: r.pool} }

// HeroRepository implements content.HeroRepository backed by PostgreSQL.
type HeroRepository struct {
	pool *pgxpool.Pool
}

func (r *HeroRepository) List(ctx context.Context) ([]content.HeroSlot, error) {
	rows, err := r.pool.Query(ctx, listHeroSlotsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing hero slots: %w", err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.HeroSlot, error) {
		var s content.HeroSlot
		err := row.Scan(&s.ID, &s.ProductID, &s.Headline, &s.Position, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing hero slots: %w", err)
	}
	return slots, nil
}

func (r *HeroRepository) Create(ctx context.Context, s *content.HeroSlot) error {
	err := r.pool.QueryRow(ctx, insertHeroSlotSQL, s.ProductID, s.Headline, s.Position).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating hero slot: %w", err)
	}
	return nil
}

func (r *HeroRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteHeroSlotSQL, id)
	if err != nil {
		return fmt.Errorf("deleting hero slot %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrHeroSlotNotFound
	}
	return nil
}

// Reviews returns the review view of the repository.
func (r *ContentRepository) Reviews() *ReviewRepository { return &ReviewRepository{pool: r.pool} }

// ReviewRepository implements content.ReviewRepository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]content.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for product %q: %w", productID, err)
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Review, error) {
		var rv content.Review
		err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Author, &rv.Rating, &rv.Comment, &rv.CreatedAt)
		return rv, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing reviews for product %q: %w", productID, err)
	}
	return reviews, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *content.Review) error {
	err := r.pool.QueryRow(ctx, insertReviewSQL,
		rv.ProductID, rv.UserID, rv.Author, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating review for product %q: %w", rv.ProductID, err)
	}
	return nil
}
