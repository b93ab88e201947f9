package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartwise/backend/config"
	httpDelivery "github.com/cartwise/backend/internal/delivery/http"
	"github.com/cartwise/backend/internal/domain"
	"github.com/cartwise/backend/internal/infrastructure/cache"
	"github.com/cartwise/backend/internal/infrastructure/catalog"
	"github.com/cartwise/backend/internal/logger"
	"github.com/cartwise/backend/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Server.Environment)
	defer logger.Close()
	sugar := logger.GetLogger()

	sugar.Infow("Starting Cartwise backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"catalog", cfg.Catalog.Driver,
		"cache", cfg.Cache.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openCatalog(ctx, cfg.Catalog, sugar)
	if err != nil {
		sugar.Fatalw("Failed to open catalog", "error", err)
	}
	defer closeStore()

	catalogRepo, closeCache, err := withCache(ctx, store, cfg.Cache, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize cache", "error", err)
	}
	defer closeCache()

	vocabulary := usecase.DefaultVocabulary()
	normalizer := usecase.NewIngredientNormalizer(vocabulary, sugar)
	matcher := usecase.NewMatchingService(vocabulary, usecase.MatchConfig{
		DefaultMaxResults:  cfg.Matching.MaxResults,
		EnableDebugLogging: cfg.Server.Environment == "development",
	}, sugar)
	quantities := usecase.NewQuantityCalculator(vocabulary, cfg.Matching.ReferenceServings)
	resolver := usecase.NewPriceResolver(sugar)

	shopping := usecase.NewShoppingListService(normalizer, matcher, quantities, catalogRepo, vocabulary,
		usecase.ShoppingListConfig{
			MinScore: cfg.Matching.MinScore,
			Workers:  cfg.Matching.Workers,
		}, sugar)
	ingest := usecase.NewCatalogIngestService(resolver, catalogRepo, sugar)

	sugar.Infow("Matching configured",
		"minScore", cfg.Matching.MinScore,
		"maxResults", cfg.Matching.MaxResults,
		"referenceServings", cfg.Matching.ReferenceServings,
		"workers", cfg.Matching.Workers)

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Normalizer: normalizer,
		Matcher:    matcher,
		Resolver:   resolver,
		Shopping:   shopping,
		Ingest:     ingest,
		Catalog:    catalogRepo,
	}, httpDelivery.MatchDefaults{
		MinScore:        cfg.Matching.MinScore,
		MaxResults:      cfg.Matching.MaxResults,
		PreferredBrands: cfg.Matching.PreferredBrands,
	}, sugar)

	router := httpDelivery.SetupRouter(cfg, handler, sugar)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	sugar.Info("Server stopped")
}

func openCatalog(ctx context.Context, cfg config.CatalogConfig, log *zap.SugaredLogger) (domain.CatalogStore, func(), error) {
	switch cfg.Driver {
	case "postgres":
		log.Infow("Connecting to catalog database", "url", logger.MaskConnectionString(cfg.DatabaseURL))
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pg := catalog.NewPostgresCatalog(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool.Close, nil

	default:
		if cfg.SeedFile == "" {
			log.Warn("Memory catalog started empty; ingest products or set catalog.seed_file")
			return catalog.NewMemoryCatalog(), func() {}, nil
		}
		mem, err := catalog.LoadMemoryCatalog(cfg.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("Loaded catalog seed", "file", cfg.SeedFile, "products", mem.Len())
		return mem, func() {}, nil
	}
}

func withCache(ctx context.Context, store domain.CatalogStore, cfg config.CacheConfig, log *zap.SugaredLogger) (domain.CatalogStore, func(), error) {
	switch cfg.Type {
	case "redis":
		redisCache, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL, "cartwise:")
		if err != nil {
			return nil, nil, err
		}
		log.Infow("Catalog cache enabled", "type", "redis", "ttl", cfg.TTL)
		return catalog.NewCachedCatalog(store, redisCache, cfg.TTL, log), func() { redisCache.Close() }, nil

	case "memory":
		memoryCache := cache.NewMemoryCache(cfg.TTL)
		log.Infow("Catalog cache enabled", "type", "memory", "ttl", cfg.TTL)
		return catalog.NewCachedCatalog(store, memoryCache, cfg.TTL, log), memoryCache.Close, nil

	default:
		return store, func() {}, nil
	}
}
