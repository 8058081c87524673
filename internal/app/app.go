package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/order"
	"github.com/rohilkohli/shids/internal/domain/user"
	"github.com/rohilkohli/shids/internal/handler"
	"github.com/rohilkohli/shids/internal/notify"
	"github.com/rohilkohli/shids/internal/repository"
	"github.com/rohilkohli/shids/pkg/health"
	"github.com/rohilkohli/shids/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	captureRepo := repository.NewCaptureRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	// Order status notifier: AMQP when configured, logging otherwise.
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPPublisher(cfg.AMQPURL, "order_status")
		if err != nil {
			return errors.Wrap(err, "connect amqp")
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	} else {
		notifier = notify.NewLogNotifier(lg.Named("notify"))
	}

	// Domain services.
	userService := user.NewService(userRepo, sessionRepo, []byte(cfg.SessionPepper))
	discountValidator := discount.NewRepoValidator(discountRepo)
	orderService := order.NewService(orderRepo, productRepo, discountValidator, notifier)

	// HTTP handlers.
	h := handler.New(
		handler.Config{
			AllowedOrigins: cfg.CORS.Origins,
			SecureCookies:  cfg.CORS.Secure,
		},
		userService,
		orderService,
		productRepo,
		discountRepo,
		contentRepo,
		contentRepo.Hero(),
		contentRepo.Reviews(),
		captureRepo,
		analyticsRepo,
	)

	// Rate limit counter: shared Postgres counter by default so limits hold
	// across instances.
	var counter httpmiddleware.Counter
	if cfg.RateLimit.InMemory {
		mem := httpmiddleware.NewMemoryCounter()
		mem.StartCleanup(ctx, cfg.RateLimit.Window)
		counter = mem
	} else {
		counter = repository.NewRateLimitCounter(pool)
	}
	rules := []httpmiddleware.RateRule{
		{Prefix: "/api/orders", Limit: cfg.RateLimit.Orders},
		{Prefix: "/api/newsletter", Limit: cfg.RateLimit.Capture},
		{Prefix: "/api/contact", Limit: cfg.RateLimit.Capture},
		{Prefix: "/api", Limit: cfg.RateLimit.General},
	}

	// Mux: health endpoints outside the rate limit gate, API inside.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimit(rules, cfg.RateLimit.Window, counter),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("shids-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
