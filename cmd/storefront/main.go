package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/float"
	"github.com/onsiteclub/storefront/internal/handlers"
	"github.com/onsiteclub/storefront/internal/platform/config"
	"github.com/onsiteclub/storefront/internal/platform/observability"
	"github.com/onsiteclub/storefront/internal/repositories"
	filerepo "github.com/onsiteclub/storefront/internal/repositories/file"
	"github.com/onsiteclub/storefront/internal/repositories/memory"
	redisrepo "github.com/onsiteclub/storefront/internal/repositories/redis"
	"github.com/onsiteclub/storefront/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)
	events := observability.EventLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	cartRepo, err := filerepo.NewCartRepository(cfg.Cart.StoreDir)
	if err != nil {
		logger.Fatal("failed to open cart store", zap.Error(err), zap.String("dir", cfg.Cart.StoreDir))
	}

	tempCarts, closeTempCarts, err := newTempCartRepository(ctx, logger, cfg.TempCart)
	if err != nil {
		logger.Fatal("failed to initialise temp cart store", zap.Error(err))
	}
	defer closeTempCarts()

	products, err := loadCatalog(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to load product catalog", zap.Error(err), zap.String("file", cfg.Catalog.ProductsFile))
	}
	catalogRepo, err := memory.NewCatalogRepository(products)
	if err != nil {
		logger.Fatal("failed to index product catalog", zap.Error(err))
	}

	cartService, err := services.NewCartService(ctx, services.CartServiceDeps{
		Repository: cartRepo,
		Clock:      time.Now,
		Logger:     events,
		Recorder:   metrics,
	})
	if err != nil {
		logger.Fatal("failed to construct cart service", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:           cartService,
		TempCarts:      tempCarts,
		HubBaseURL:     cfg.Checkout.HubBaseURL,
		ReturnOrigin:   cfg.Checkout.ReturnOrigin,
		Clock:          time.Now,
		Logger:         events,
		Recorder:       metrics,
		PersistTimeout: cfg.Checkout.PersistTimeout,
		TempCartTTL:    cfg.TempCart.TTL,
	})
	if err != nil {
		logger.Fatal("failed to construct checkout service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Repository: catalogRepo,
		Logger:     events,
	})
	if err != nil {
		logger.Fatal("failed to construct catalog service", zap.Error(err))
	}

	selectionService, err := services.NewSelectionService(services.SelectionServiceDeps{
		Catalog: catalogService,
		Cart:    cartService,
		Logger:  events,
	})
	if err != nil {
		logger.Fatal("failed to construct selection service", zap.Error(err))
	}

	engine := float.NewEngine(float.EngineDeps{
		Logger:        events,
		Recorder:      metrics,
		FrameInterval: cfg.Float.FrameInterval,
	})
	initial, err := catalogService.ListProducts(ctx, domain.CategoryMens)
	if err != nil {
		logger.Warn("initial catalog listing failed; deck starts empty", zap.Error(err))
	}
	engine.Reset(initial)

	engineCtx, stopEngine := context.WithCancel(ctx)
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Run(engineCtx)
	}()

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(handlers.BuildInfo{
			Version:     buildValue("SHOP_BUILD_VERSION", "dev"),
			CommitSHA:   buildValue("SHOP_BUILD_COMMIT_SHA", "unknown"),
			Environment: buildValue("SHOP_ENVIRONMENT", "local"),
			StartedAt:   startedAt,
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(catalogService).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService).Routes),
		handlers.WithSelectionRoutes(handlers.NewSelectionHandlers(selectionService).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService, metrics).Routes),
		handlers.WithStreamRoutes(handlers.NewStreamHandlers(handlers.StreamDeps{
			Engine:   engine,
			Catalog:  catalogService,
			Interval: cfg.Float.FrameInterval,
			Logger:   events,
		}).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	stopEngine()
	<-engineDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newTempCartRepository(ctx context.Context, logger *zap.Logger, cfg config.TempCartConfig) (repositories.TempCartRepository, func(), error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		logger.Info("temp cart store: in-process")
		return memory.NewTempCartRepository(), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
		DB:   cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	repo, err := redisrepo.NewTempCartRepository(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logger.Info("temp cart store: redis", zap.String("addr", addr))
	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close error", zap.Error(err))
		}
	}
	return repo, closeClient, nil
}

func loadCatalog(cfg config.CatalogConfig) ([]domain.Product, error) {
	path := strings.TrimSpace(cfg.ProductsFile)
	if path != "" {
		return memory.LoadProductsFile(path)
	}
	return seedProducts(), nil
}

func buildValue(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// seedProducts is the built-in catalog used when no products file is configured.
func seedProducts() []domain.Product {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return []domain.Product{
		{
			ID:          "onsite-classic-tee",
			Name:        "OnSite Classic Tee",
			Price:       price("29.99"),
			Category:    domain.CategoryMens,
			Image:       "/products/onsite-classic-tee.jpg",
			Images:      []string{"/products/onsite-classic-tee.jpg", "/products/onsite-classic-tee-back.jpg"},
			Description: "Heavyweight cotton tee with the OnSite crest.",
			Sizes:       []string{"S", "M", "L", "XL"},
			Colors:      []string{"Black", "White"},
		},
		{
			ID:          "onsite-work-hoodie",
			Name:        "OnSite Work Hoodie",
			Price:       price("79.99"),
			Category:    domain.CategoryMens,
			Image:       "/products/onsite-work-hoodie.jpg",
			Images:      []string{"/products/onsite-work-hoodie.jpg"},
			Description: "Fleece-lined hoodie built for early mornings on site.",
			Sizes:       []string{"M", "L", "XL", "XXL"},
			Colors:      []string{"Black", "Grey"},
		},
		{
			ID:          "onsite-field-cap",
			Name:        "OnSite Field Cap",
			Price:       price("34.99"),
			Category:    domain.CategoryMens,
			Image:       "/products/onsite-field-cap.jpg",
			Images:      []string{"/products/onsite-field-cap.jpg"},
			Description: "Structured six-panel cap with embroidered logo.",
			Sizes:       []string{"Único"},
			Colors:      []string{"Black"},
		},
		{
			ID:          "onsite-crop-tee",
			Name:        "OnSite Crop Tee",
			Price:       price("27.99"),
			Category:    domain.CategoryWomens,
			Image:       "/products/onsite-crop-tee.jpg",
			Images:      []string{"/products/onsite-crop-tee.jpg"},
			Description: "Relaxed crop cut in washed cotton.",
			Sizes:       []string{"XS", "S", "M", "L"},
			Colors:      []string{"White", "Sand"},
		},
		{
			ID:          "onsite-track-jacket",
			Name:        "OnSite Track Jacket",
			Price:       price("89.99"),
			Category:    domain.CategoryWomens,
			Image:       "/products/onsite-track-jacket.jpg",
			Images:      []string{"/products/onsite-track-jacket.jpg", "/products/onsite-track-jacket-detail.jpg"},
			Description: "Lightweight shell with contrast piping.",
			Sizes:       []string{"S", "M", "L"},
			Colors:      []string{"Black", "Navy"},
		},
		{
			ID:          "onsite-members-jersey",
			Name:        "Members Jersey",
			Price:       price("119.99"),
			Category:    domain.CategoryMembers,
			Image:       "/products/onsite-members-jersey.mp4",
			Images:      []string{"/products/onsite-members-jersey.mp4"},
			Description: "Limited members-only jersey. Numbered run.",
			Sizes:       []string{"S", "M", "L", "XL"},
			Colors:      []string{"Club Green"},
			IsVideo:     true,
		},
	}
}
