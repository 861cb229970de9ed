package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/auth"
	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/internal/infra/accountrepo"
	"github.com/yanqian/nutriforecast/internal/infra/comborepo"
	"github.com/yanqian/nutriforecast/internal/infra/config"
	"github.com/yanqian/nutriforecast/internal/infra/familyrepo"
	"github.com/yanqian/nutriforecast/internal/infra/healthlogrepo"
	"github.com/yanqian/nutriforecast/internal/infra/historyrepo"
	"github.com/yanqian/nutriforecast/internal/infra/jobqueue"
	"github.com/yanqian/nutriforecast/internal/infra/jobstore"
	"github.com/yanqian/nutriforecast/internal/infra/llm"
	"github.com/yanqian/nutriforecast/internal/infra/llm/chatgpt"
	"github.com/yanqian/nutriforecast/internal/infra/reportstore"
	"github.com/yanqian/nutriforecast/internal/infra/resultcache"
	"github.com/yanqian/nutriforecast/internal/infra/tokenizer"
	"github.com/yanqian/nutriforecast/pkg/metrics"
)

func provideEngineConfig(cfg *config.Config) nutrition.Config {
	return nutrition.Config{
		DefaultHorizonDays: cfg.Forecast.DefaultHorizonDays,
		MaxHorizonDays:     cfg.Forecast.MaxHorizonDays,
		BatchMode:          nutrition.BatchMode(cfg.Forecast.BatchMode),
		Allocation:         nutrition.AllocationPolicy(cfg.Forecast.Allocation),
		Workers:            cfg.Forecast.Workers,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideAnalysisConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		CacheTTL:        cfg.Forecast.CacheTTL,
		HistoryLimit:    cfg.Forecast.HistoryLimit,
		Narrative:       cfg.Forecast.Narrative,
		NarrativePrompt: cfg.Forecast.NarrativePrompt,
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
	}
}

// providePostgresPool returns nil when no DSN is configured or the database is
// unreachable; repositories then fall back to memory.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideAuthRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return accountrepo.NewMemoryRepository()
	}
	return accountrepo.NewPostgresRepository(pool)
}

func provideFamilyRepository(pool *pgxpool.Pool) family.Repository {
	if pool == nil {
		return familyrepo.NewMemoryRepository()
	}
	return familyrepo.NewPostgresRepository(pool)
}

func provideHealthlogRepository(pool *pgxpool.Pool) healthlog.Repository {
	if pool == nil {
		return healthlogrepo.NewMemoryRepository()
	}
	return healthlogrepo.NewPostgresRepository(pool)
}

func provideHealthlogService(repo healthlog.Repository, members family.Service, logger *slog.Logger) healthlog.Service {
	return healthlog.NewService(repo, members, logger)
}

// provideMemberSource feeds analyses with members refined by their measurement log.
func provideMemberSource(cfg *config.Config, members family.Service, repo healthlog.Repository, logger *slog.Logger) analysis.MemberSource {
	return healthlog.NewProfileSource(members, repo, cfg.Forecast.IntakeWindowDays, logger)
}

func provideComboRepository(pool *pgxpool.Pool) combo.Repository {
	if pool == nil {
		return comborepo.NewMemoryRepository()
	}
	return comborepo.NewPostgresRepository(pool)
}

func provideHistoryRepository(pool *pgxpool.Pool) analysis.HistoryRepository {
	if pool == nil {
		return historyrepo.NewMemoryRepository()
	}
	return historyrepo.NewPostgresRepository(pool)
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

func provideResultCache(cfg *config.Config, client valkey.Client, logger *slog.Logger) analysis.ResultCache {
	if client != nil {
		return resultcache.NewValkeyCache(client, cfg.Valkey.Prefix)
	}
	cache, err := resultcache.NewMemoryCache(cfg.Forecast.CacheSize)
	if err != nil {
		logger.Error("failed to build result cache, caching disabled", "error", err)
		return nil
	}
	return cache
}

func provideJobStore(cfg *config.Config, client valkey.Client) analysis.JobStore {
	if client != nil {
		return jobstore.NewValkeyStore(client, cfg.Valkey.Prefix)
	}
	return jobstore.NewMemoryStore()
}

func provideJobQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) jobqueue.HandlerQueue {
	if client != nil {
		return jobqueue.NewValkeyQueue(client, cfg.Valkey.Prefix+":jobs", logger)
	}
	return jobqueue.NewImmediateQueue(nil)
}

func provideReportStore(cfg *config.Config, logger *slog.Logger) analysis.ReportStore {
	if !cfg.Storage.Enabled {
		return reportstore.NewMemoryStore()
	}
	store, err := reportstore.NewS3Store(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.UseSSL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize report storage, using memory", "error", err)
		return reportstore.NewMemoryStore()
	}
	logger.Info("s3 report storage enabled", "bucket", cfg.Storage.Bucket)
	return store
}

// provideLLM returns nil when narratives are disabled or no API key is set.
func provideLLM(cfg *config.Config, logger *slog.Logger) analysis.LLM {
	if !cfg.Forecast.Narrative {
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Warn("narratives disabled", "error", err)
		return nil
	}
	return llm.NewChatGPTLLM(client, cfg.LLM.Model, cfg.LLM.Temperature)
}

func provideTokenCounter(cfg *config.Config) analysis.TokenCounter {
	return tokenizer.NewCounter(cfg.LLM.Model)
}

func provideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideAnalysisMetrics(reg *prometheus.Registry) *metrics.Analysis {
	return metrics.MustNewAnalysis(reg)
}

func provideAnalysisService(
	cfg analysis.Config,
	engine *nutrition.Engine,
	members analysis.MemberSource,
	combos combo.Service,
	history analysis.HistoryRepository,
	cache analysis.ResultCache,
	reports analysis.ReportStore,
	jobs analysis.JobStore,
	queue jobqueue.HandlerQueue,
	chat analysis.LLM,
	tokens analysis.TokenCounter,
	stats *metrics.Analysis,
	logger *slog.Logger,
) analysis.Service {
	svc := analysis.NewService(cfg, engine, members, combos, history, cache, reports, jobs, queue, chat, tokens, stats, logger)
	queue.SetHandler(svc.HandleJob)
	return svc
}
