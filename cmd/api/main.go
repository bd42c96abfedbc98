package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/adapter/repo"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/generation"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/geoip"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/http/handlers"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/http/httpapi"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/infra"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/metrics"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/middleware"
	imgprov "github.com/francesca-tabor-ai/commerce-pix-sub001/internal/providers/image"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/ratelimit"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics.MustRegister()

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, per-IP limits run in-process")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	store, local, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	editors, err := buildEditors(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image providers")
	}

	users := repo.NewUserRepository(pool)
	counters := repo.NewUsageCounterRepository(pool)
	assets := repo.NewAssetRepository(pool)
	jobs := repo.NewJobRepository(pool)

	limiter := ratelimit.New(counters, cfg.RateLimitPerMinute, cfg.RateLimitPerDay, logger)
	orch := generation.NewOrchestrator(
		users, assets, jobs, limiter, store,
		editors, cfg.ImageProvider,
		cfg.CostFor, cfg.ProviderTimeout, logger,
	)

	app := &handlers.App{
		Cfg:      cfg,
		Logger:   logger,
		Users:    users,
		Projects: repo.NewProjectRepository(pool),
		Assets:   assets,
		Jobs:     jobs,
		Store:    store,
		Local:    local,
		Orch:     orch,
		Limiter:  limiter,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, rdb, lookup))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (storage.Store, *storage.LocalStore, error) {
	if cfg.StorageBackend == "s3" {
		s3store, err := storage.NewS3Store(ctx, cfg, logger)
		return s3store, nil, err
	}
	local, err := storage.NewLocalStore(cfg.LocalStoragePath, cfg.LocalStorageBaseURL, cfg.JWTSecret)
	return local, local, err
}

func buildEditors(ctx context.Context, cfg *infra.Config) (imgprov.Registry, error) {
	editors := imgprov.Registry{"noop": imgprov.NewNoopEditor()}
	if cfg.GeminiAPIKey != "" {
		gemini, err := imgprov.NewGeminiEditor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		editors["gemini"] = gemini
	}
	if cfg.OpenAIAPIKey != "" {
		openai, err := imgprov.NewOpenAIEditor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		editors["openai"] = openai
	}
	if _, err := editors.Select(cfg.ImageProvider); err != nil {
		return nil, err
	}
	return editors, nil
}
