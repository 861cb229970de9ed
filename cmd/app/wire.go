//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/nutriforecast/internal/bootstrap"
	"github.com/yanqian/nutriforecast/internal/domain/auth"
	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/internal/infra/config"
	httpiface "github.com/yanqian/nutriforecast/internal/interface/http"
	"github.com/yanqian/nutriforecast/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideEngineConfig,
		provideAuthConfig,
		provideAnalysisConfig,
		providePostgresPool,
		provideValkeyClient,
		provideAuthRepository,
		provideFamilyRepository,
		provideHealthlogRepository,
		provideHealthlogService,
		provideMemberSource,
		provideComboRepository,
		provideHistoryRepository,
		provideResultCache,
		provideJobStore,
		provideJobQueue,
		provideReportStore,
		provideLLM,
		provideTokenCounter,
		provideMetricsRegistry,
		provideAnalysisMetrics,
		provideAnalysisService,
		nutrition.NewEngine,
		auth.NewService,
		family.NewService,
		combo.NewService,
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
