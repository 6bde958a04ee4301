package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/database"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/handler"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/routes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const cachePrefix = "klikpos:"

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := newLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := database.SeedDefaultData(db, &cfg.POS, log); err != nil {
		log.Warn("failed to seed default data", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := newCacheStore(ctx, &cfg.Redis, log)
	defer closeStore()

	// Initialize repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	tenderRepo := repository.NewTenderMethodRepository(db)
	taxRepo := repository.NewTaxPolicyRepository(db)
	profileRepo := repository.NewPOSProfileRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	settingsService := service.NewSettingsService(tenderRepo, taxRepo, profileRepo, store, cfg.POS, log)
	productService := service.NewProductService(productRepo, store, log)
	checkoutService := service.NewCheckoutService(invoiceRepo, customerRepo, productService, settingsService, cfg.POS, cfg.Seller, log)
	returnService := service.NewReturnService(invoiceRepo, customerRepo, settingsService, cfg.POS, log)
	customerService := service.NewCustomerService(customerRepo, settingsService)

	// Background jobs
	if cfg.POS.StockRefreshInterval > 0 {
		go productService.Run(ctx, cfg.POS.StockRefreshInterval)
	}
	checkoutService.StartJanitor(ctx, time.Minute)
	returnService.StartJanitor(ctx, time.Minute)
	go purgeIdempotencyKeys(ctx, idempotencyRepo.DeleteExpired, time.Hour, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Return:   handler.NewReturnHandler(returnService),
		Product:  handler.NewProductHandler(productService),
		Customer: handler.NewCustomerHandler(customerService),
		Settings: handler.NewSettingsHandler(settingsService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Log:             log,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server",
			zap.String("name", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newCacheStore prefers redis when configured and falls back to the in-process
// store when it cannot be reached.
func newCacheStore(ctx context.Context, cfg *config.RedisConfig, log *zap.Logger) (cache.Store, func()) {
	if cfg.Addr == "" {
		return cache.NewMemoryStore(), func() {}
	}

	rs := cache.NewRedisStore(cfg.Addr, cfg.Password, cfg.DB, cachePrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = rs.Close()
		return cache.NewMemoryStore(), func() {}
	}

	log.Info("using redis cache", zap.String("addr", cfg.Addr))
	return rs, func() { _ = rs.Close() }
}

func purgeIdempotencyKeys(ctx context.Context, purge func(context.Context, time.Time) (int64, error), every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx, time.Now())
			if err != nil {
				log.Warn("failed to purge expired idempotency keys", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired idempotency keys", zap.Int64("count", n))
			}
		}
	}
}
