package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/adapter/repo"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/generation"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/infra"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/metrics"
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
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	editors, err := buildEditors(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image providers")
	}

	users := repo.NewUserRepository(pool)
	assets := repo.NewAssetRepository(pool)
	jobs := repo.NewJobRepository(pool)
	counters := repo.NewUsageCounterRepository(pool)

	limiter := ratelimit.New(counters, cfg.RateLimitPerMinute, cfg.RateLimitPerDay, logger)
	orch := generation.NewOrchestrator(
		users, assets, jobs, limiter, store,
		editors, cfg.ImageProvider,
		cfg.CostFor, cfg.ProviderTimeout, logger,
	)

	go sweepCounters(ctx, counters, cfg.CounterRetention, logger)

	logger.Info().Msg("worker started")
	run(ctx, jobs, orch, cfg.WorkerPollInterval, logger)
	logger.Info().Msg("worker stopped")
}

// run polls the queue until the context is cancelled. An empty queue and a
// claim error both back off for one poll interval.
func run(ctx context.Context, jobs domain.JobRepository, orch *generation.Orchestrator, interval time.Duration, logger infra.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := jobs.ClaimQueued(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("claim failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			continue
		}

		if err := orch.Process(ctx, job); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("process failed")
		}
	}
}

// sweepCounters deletes usage-counter rows older than the retention window.
func sweepCounters(ctx context.Context, counters domain.UsageCounterRepository, retention time.Duration, logger infra.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := counters.DeleteOlderThan(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Error().Err(err).Msg("counter sweep failed")
				continue
			}
			if deleted > 0 {
				logger.Info().Int64("deleted", deleted).Msg("swept stale usage counters")
			}
		}
	}
}

func buildStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (storage.Store, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3Store(ctx, cfg, logger)
	}
	return storage.NewLocalStore(cfg.LocalStoragePath, cfg.LocalStorageBaseURL, cfg.JWTSecret)
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
