package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is the subset of pgxpool.Pool used for the database check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck reports unhealthy when the database does not answer a ping.
func DatabaseCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "database ping")
		}
		return nil
	}
}

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// the threshold. Catches goroutine leaks before the process falls over.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}
