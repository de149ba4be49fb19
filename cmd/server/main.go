package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/config"
	"github.com/mamadbah2/medimart-cart/internal/metrics"
	"github.com/mamadbah2/medimart-cart/internal/repository"
	"github.com/mamadbah2/medimart-cart/internal/repository/memory"
	"github.com/mamadbah2/medimart-cart/internal/repository/mongodb"
	"github.com/mamadbah2/medimart-cart/internal/repository/redis"
	"github.com/mamadbah2/medimart-cart/internal/repository/sheets"
	"github.com/mamadbah2/medimart-cart/internal/scheduler"
	"github.com/mamadbah2/medimart-cart/internal/server/handlers"
	"github.com/mamadbah2/medimart-cart/internal/server/router"
	"github.com/mamadbah2/medimart-cart/internal/service/cart"
	"github.com/mamadbah2/medimart-cart/internal/service/checkout"
	"github.com/mamadbah2/medimart-cart/pkg/clients/catalog"
	"github.com/mamadbah2/medimart-cart/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	// Every process is its own execution context on the shared record.
	origin := uuid.NewString()
	baseLogger.Info("cart context starting",
		zap.String("origin", origin),
		zap.String("backend", cfg.Cart.Backend),
		zap.String("key", cfg.Cart.StorageKey))

	slot, closeSlot := openSlot(cfg, origin, baseLogger)
	defer closeSlot()

	m := metrics.New()
	persistence := cart.NewPersistence(slot, baseLogger.Named("svc.cart.persistence"))
	notifier := cart.NewNotifier(m, baseLogger.Named("svc.cart.notifier"))
	store := cart.NewStore(persistence, notifier, m, baseLogger.Named("svc.cart"))

	var watcher repository.Watcher
	if w, ok := slot.(repository.Watcher); ok && cfg.Cart.Backend != config.BackendMemory {
		watcher = w
	}
	poller := scheduler.NewPoller(cfg.Cart.PollInterval, baseLogger.Named("scheduler.poller"))
	synchronizer := cart.NewSynchronizer(store, watcher, poller, m, baseLogger.Named("svc.cart.sync"))
	defer synchronizer.Close()

	var catalogClient catalog.Client
	if cfg.Catalog.BaseURL != "" {
		catalogClient = catalog.NewClient(cfg.Catalog)
		baseLogger.Info("catalog client enabled", zap.String("base_url", cfg.Catalog.BaseURL))
	} else {
		baseLogger.Warn("catalog base url missing, add-by-id disabled")
	}

	var ledger checkout.Ledger
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		ledger = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, checkouts are only logged")
	}
	checkoutSvc := checkout.NewService(store, ledger, cfg.Checkout.SheetRange, baseLogger.Named("svc.checkout"))

	engine := router.New(router.Handlers{
		Cart:     handlers.NewCartHandler(store, catalogClient, baseLogger.Named("handlers.cart")),
		Events:   handlers.NewEventsHandler(synchronizer, baseLogger.Named("handlers.events")),
		Checkout: handlers.NewCheckoutHandler(checkoutSvc, baseLogger.Named("handlers.checkout")),
	}, m, baseLogger.Named("router"))

	// No WriteTimeout: /cart/events responses stay open for as long as the
	// client is connected.
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	// Unmount every stream first so open SSE connections return.
	synchronizer.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openSlot connects the configured backend and returns the cart slot together
// with a function releasing its connection.
func openSlot(cfg *config.Config, origin string, baseLogger *zap.Logger) (repository.Slot, func()) {
	ctx := context.Background()

	switch cfg.Cart.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			baseLogger.Fatal("failed to init redis client", zap.Error(err))
		}
		slot := redis.NewSlot(client, cfg.Cart.StorageKey, origin,
			redis.WithChannel(cfg.Redis.Channel),
			redis.WithLogger(baseLogger.Named("repo.redis")))
		return slot, func() {
			if err := client.Close(); err != nil {
				baseLogger.Error("failed to close redis connection", zap.Error(err))
			}
		}

	case config.BackendMongoDB:
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Collection, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		return mongoRepo.Slot(cfg.Cart.StorageKey, origin), func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}

	default:
		baseLogger.Warn("using in-memory cart backend, the cart does not survive restarts")
		return memory.NewStore().Slot(cfg.Cart.StorageKey, origin), func() {}
	}
}
