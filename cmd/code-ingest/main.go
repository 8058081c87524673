// Command code-ingest loads promotional discount codes from gzipped code
// lists into the database. Lists from campaign partners overlap heavily, so
// a bloom filter drops duplicates across files before they reach Postgres.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	writeWorkers  = 8
	progressEvery = 100_000
	minCodeLen    = 4
	maxCodeLen    = 16
)

func main() {
	var (
		dataDir      string
		databaseURL  string
		discountType string
		value        string
		maxUses      int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountType, "type", "percentage", "discount type for ingested codes (percentage|fixed)")
	flag.StringVar(&value, "value", "10", "discount value for ingested codes")
	flag.IntVar(&maxUses, "max-uses", 1, "max uses per ingested code (0 = unlimited)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, discountType, value, maxUses); err != nil {
		slog.Error("code ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("code ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, discountType, rawValue string, maxUses int) error {
	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return errors.Wrapf(err, "parse value %q", rawValue)
	}
	template := discount.Code{
		Code:    "PROBE",
		Type:    discount.Type(discountType),
		Value:   value,
		MaxUses: maxUses,
	}
	if err := template.Validate(); err != nil {
		return errors.Wrap(err, "invalid code rule")
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil || len(files) == 0 {
		return errors.Errorf("no *.gz files found in %s", dataDir)
	}
	slog.Info("ingesting code lists", slog.Int("files", len(files)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	repo := repository.NewDiscountRepository(pool)

	// Producer streams every file through the bloom filter; workers upsert.
	// The filter is only touched by the producer goroutine.
	codes := make(chan string, 1024)
	var inserted, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(codes)

		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var total int64
		for _, path := range files {
			if err := streamGzFile(ctx, path, func(line string) error {
				code, ok := normalizeCode(line)
				if !ok {
					return nil
				}
				// A bloom hit may be a false positive; the database
				// upsert is the source of truth, this only cuts traffic.
				if seen.TestAndAddString(code) {
					skipped.Add(1)
					return nil
				}
				total++
				if total%progressEvery == 0 {
					slog.Info("ingest progress", slog.Int64("codes", total))
				}
				select {
				case codes <- code:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}); err != nil {
				return errors.Wrapf(err, "stream %s", path)
			}
			slog.Info("file complete", slog.String("path", path))
		}
		return nil
	})

	for w := 0; w < writeWorkers; w++ {
		g.Go(func() error {
			for code := range codes {
				c := template
				c.Code = code
				created, err := repo.Upsert(ctx, &c)
				if err != nil {
					return err
				}
				if created {
					inserted.Add(1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest summary",
		slog.Int64("inserted", inserted.Load()),
		slog.Int64("duplicates_skipped", skipped.Load()),
	)
	return nil
}

// normalizeCode canonicalizes one input line and reports whether it is a
// plausible code: upper-case alphanumeric, bounded length.
func normalizeCode(line string) (string, bool) {
	code := discount.Normalize(line)
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return "", false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return code, true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
