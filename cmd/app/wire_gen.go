//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/yanqian/nutriforecast/internal/bootstrap"
	"github.com/yanqian/nutriforecast/internal/domain/auth"
	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/internal/infra/config"
	"github.com/yanqian/nutriforecast/internal/interface/http"
	"github.com/yanqian/nutriforecast/pkg/logger"
)

// Injectors from wire.go:

func initializeApp() (*bootstrap.App, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	slogLogger := logger.New()
	authConfig := provideAuthConfig(configConfig)
	pool := providePostgresPool(configConfig, slogLogger)
	repository := provideAuthRepository(pool)
	service := auth.NewService(authConfig, repository, slogLogger)
	familyRepository := provideFamilyRepository(pool)
	familyService := family.NewService(familyRepository, slogLogger)
	healthlogRepository := provideHealthlogRepository(pool)
	healthlogService := provideHealthlogService(healthlogRepository, familyService, slogLogger)
	memberSource := provideMemberSource(configConfig, familyService, healthlogRepository, slogLogger)
	comboRepository := provideComboRepository(pool)
	comboService := combo.NewService(comboRepository, slogLogger)
	analysisConfig := provideAnalysisConfig(configConfig)
	nutritionConfig := provideEngineConfig(configConfig)
	engine := nutrition.NewEngine(nutritionConfig, slogLogger)
	historyRepository := provideHistoryRepository(pool)
	client := provideValkeyClient(configConfig, slogLogger)
	resultCache := provideResultCache(configConfig, client, slogLogger)
	reportStore := provideReportStore(configConfig, slogLogger)
	jobStore := provideJobStore(configConfig, client)
	handlerQueue := provideJobQueue(configConfig, client, slogLogger)
	llm := provideLLM(configConfig, slogLogger)
	tokenCounter := provideTokenCounter(configConfig)
	registry := provideMetricsRegistry()
	analysisMetrics := provideAnalysisMetrics(registry)
	analysisService := provideAnalysisService(analysisConfig, engine, memberSource, comboService, historyRepository, resultCache, reportStore, jobStore, handlerQueue, llm, tokenCounter, analysisMetrics, slogLogger)
	handler := http.NewHandler(service, familyService, healthlogService, comboService, analysisService, engine, slogLogger)
	server := http.NewRouter(configConfig, handler, registry)
	app := bootstrap.NewApp(configConfig, slogLogger, server, handlerQueue)
	return app, nil
}
