package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/nutriforecast/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Healthz)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if cfg.HTTP.RateLimit.Enabled {
		api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	}
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/refresh", handler.Refresh)
		api.POST("/nutrition/classify", handler.Classify)
	}

	secured := api.Group("/")
	secured.Use(authMiddleware(handler.authSvc))
	{
		secured.GET("/auth/me", handler.Me)

		secured.GET("/members", handler.ListMembers)
		secured.POST("/members", handler.CreateMember)
		secured.GET("/members/:id", handler.GetMember)
		secured.PUT("/members/:id", handler.UpdateMember)
		secured.DELETE("/members/:id", handler.DeleteMember)
		secured.GET("/members/:id/meal-targets", handler.MealTargets)
		secured.GET("/members/:id/metrics", handler.ListMetrics)
		secured.POST("/members/:id/metrics", handler.RecordMetric)
		secured.GET("/members/:id/metrics/latest", handler.LatestMetrics)
		secured.GET("/members/:id/intake-summary", handler.IntakeSummary)
		secured.GET("/members/:id/health-status", handler.HealthStatus)
		secured.GET("/metric-types", handler.MetricTypes)

		secured.GET("/combos", handler.ListCombos)
		secured.POST("/combos", handler.CreateCombo)
		secured.GET("/combos/recommend", handler.RecommendCombos)
		secured.GET("/combos/:id", handler.GetCombo)

		secured.POST("/analyses", handler.Analyze)
		secured.POST("/analyses/jobs", handler.SubmitAnalysis)
		secured.GET("/analyses/jobs/:id", handler.AnalysisJob)
		secured.GET("/analyses", handler.ListAnalyses)
		secured.GET("/analyses/:id", handler.GetAnalysis)
		secured.GET("/analyses/:id/report", handler.AnalysisReport)
	}

	var root http.Handler = router
	if cfg.HTTP.Retry.Enabled {
		root = withRetry(root, cfg.HTTP.Retry, handler.logger)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        root,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
