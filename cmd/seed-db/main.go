// Command seed-db applies migrations and loads the initial catalog plus an
// admin account into an empty database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rohilkohli/shids/internal/domain/product"
	"github.com/rohilkohli/shids/internal/domain/user"
	"github.com/rohilkohli/shids/internal/repository"
)

type productJSON struct {
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Price       decimal.Decimal    `json:"price"`
	Stock       int                `json:"stock"`
	Badge       string             `json:"badge"`
	SKU         string             `json:"sku"`
	Bestseller  bool               `json:"bestseller"`
	Tags        product.StringList `json:"tags"`
	Colors      product.ColorList  `json:"colors"`
	Sizes       product.StringList `json:"sizes"`
	Highlights  product.StringList `json:"highlights"`
	Images      product.StringList `json:"images"`
	Variants    []product.Variant  `json:"variants"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or SHIDS_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or SHIDS_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("SHIDS_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("SHIDS_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, repository.NewUserRepository(pool), adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	} else {
		slog.Info("no admin credentials given, skipping admin account")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	created := 0
	for _, p := range products {
		slug := p.Slug
		if slug == "" {
			slug = product.Slugify(p.Name)
		}
		err := repo.Create(ctx, &product.Product{
			Slug:        slug,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price,
			Stock:       p.Stock,
			Badge:       p.Badge,
			SKU:         p.SKU,
			Bestseller:  p.Bestseller,
			Tags:        p.Tags,
			Colors:      p.Colors,
			Sizes:       p.Sizes,
			Highlights:  p.Highlights,
			Images:      p.Images,
			Variants:    p.Variants,
		})
		if errors.Is(err, product.ErrDuplicateSlug) {
			slog.Info("product exists, skipping", slog.String("slug", slug))
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "create product %q", slug)
		}
		created++
	}

	slog.Info("products seeded", slog.Int("created", created), slog.Int("total", len(products)))
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.UserRepository, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	err = repo.Create(ctx, &user.User{
		Email:        email,
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         user.RoleAdmin,
	})
	if errors.Is(err, user.ErrDuplicateEmail) {
		slog.Info("admin account exists, skipping", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin account created", slog.String("email", email))
	return nil
}
