package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/product"
)

const (
	productColumns = `id, slug, name, description, category, price, original_price,
		discount_percent, stock, rating, badge, sku, bestseller,
		tags, colors, sizes, highlights, images, created_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	countProductsSQL = `SELECT count(*) FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)`

	getProductExactSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id::text = $1 OR slug = $1`

	getProductFuzzySQL = `SELECT ` + productColumns + ` FROM products
		WHERE id::text ILIKE '%' || $1 || '%' OR slug ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT 1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id::text = ANY($1)`

	listVariantsSQL = `SELECT product_id, size, color, stock FROM product_variants
		WHERE product_id = ANY($1) ORDER BY id`

	insertProductSQL = `INSERT INTO products (slug, name, description, category, price,
		original_price, discount_percent, stock, rating, badge, sku, bestseller,
		tags, colors, sizes, highlights, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	updateProductSQL = `UPDATE products SET slug = $2, name = $3, description = $4,
		category = $5, price = $6, original_price = $7, discount_percent = $8,
		stock = $9, rating = $10, badge = $11, sku = $12, bestseller = $13,
		tags = $14, colors = $15, sizes = $16, highlights = $17, images = $18
		WHERE id = $1`

	deleteVariantsSQL = `DELETE FROM product_variants WHERE product_id = $1`
	insertVariantSQL  = `INSERT INTO product_variants (product_id, size, color, stock)
		VALUES ($1, $2, $3, $4)`
	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of the catalog plus the total matching count.
// Variants for the page are loaded in a second query and grouped in memory.
func (r *ProductRepository) List(ctx context.Context, params product.ListParams) (*product.ListResult, error) {
	params = params.Normalize()

	rows, err := r.pool.Query(ctx, listProductsSQL,
		params.Search, params.Category, params.Limit, params.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countProductsSQL, params.Search, params.Category).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}

	return &product.ListResult{Products: products, Total: total}, nil
}

// Resolve looks up a product by exact id or slug, falling back to a
// substring match on either when nothing matches exactly.
func (r *ProductRepository) Resolve(ctx context.Context, token string) (*product.Product, error) {
	p, err := r.getOne(ctx, getProductExactSQL, token)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, product.ErrNotFound) {
		return nil, err
	}
	return r.getOne(ctx, getProductFuzzySQL, token)
}

func (r *ProductRepository) getOne(ctx context.Context, sql, token string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, token)
	if err != nil {
		return nil, fmt.Errorf("resolving product %q: %w", token, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("resolving product %q: %w", token, err)
	}

	list := []product.Product{p}
	if err := r.attachVariants(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// GetByIDs returns the products with the given ids, without variants.
// Missing ids are silently absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return products, nil
}

// Create inserts the product and its variants in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertProductSQL,
		p.Slug, p.Name, p.Description, p.Category, p.Price,
		p.OriginalPrice, p.DiscountPercent, p.Stock, p.Rating, p.Badge,
		p.SKU, p.Bestseller,
		p.Tags.Encode(), p.Colors.Encode(), p.Sizes.Encode(),
		p.Highlights.Encode(), p.Images.Encode(),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrDuplicateSlug
		}
		return fmt.Errorf("creating product: %w", err)
	}

	if err := insertVariants(ctx, tx, p.ID, p.Variants); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// Update rewrites the product row and replaces its variants.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateProductSQL,
		p.ID, p.Slug, p.Name, p.Description, p.Category, p.Price,
		p.OriginalPrice, p.DiscountPercent, p.Stock, p.Rating, p.Badge,
		p.SKU, p.Bestseller,
		p.Tags.Encode(), p.Colors.Encode(), p.Sizes.Encode(),
		p.Highlights.Encode(), p.Images.Encode(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrDuplicateSlug
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}

	if _, err := tx.Exec(ctx, deleteVariantsSQL, p.ID); err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if err := insertVariants(ctx, tx, p.ID, p.Variants); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	return nil
}

// Delete removes the product. Variants cascade via the schema.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, productID string, variants []product.Variant) error {
	for _, v := range variants {
		if _, err := tx.Exec(ctx, insertVariantSQL, productID, v.Size, v.Color, v.Stock); err != nil {
			return fmt.Errorf("inserting variant for product %q: %w", productID, err)
		}
	}
	return nil
}

func (r *ProductRepository) attachVariants(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
	}

	rows, err := r.pool.Query(ctx, listVariantsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			v         product.Variant
		)
		if err := rows.Scan(&productID, &v.Size, &v.Color, &v.Stock); err != nil {
			return fmt.Errorf("scanning product variant: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p          product.Product
		tags       string
		colors     string
		sizes      string
		highlights string
		images     string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.OriginalPrice, &p.DiscountPercent, &p.Stock, &p.Rating, &p.Badge,
		&p.SKU, &p.Bestseller,
		&tags, &colors, &sizes, &highlights, &images, &p.CreatedAt,
	)
	if err != nil {
		return p, err
	}

	p.Tags = product.ParseStringList(tags)
	p.Colors = product.ParseColorList(colors)
	p.Sizes = product.ParseStringList(sizes)
	p.Highlights = product.ParseStringList(highlights)
	p.Images = product.ParseStringList(images)
	return p, nil
}
