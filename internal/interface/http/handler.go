package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/auth"
	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	authSvc     auth.Service
	familySvc   family.Service
	healthSvc   healthlog.Service
	comboSvc    combo.Service
	analysisSvc analysis.Service
	engine      *nutrition.Engine
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	authSvc auth.Service,
	familySvc family.Service,
	healthSvc healthlog.Service,
	comboSvc combo.Service,
	analysisSvc analysis.Service,
	engine *nutrition.Engine,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authSvc:     authSvc,
		familySvc:   familySvc,
		healthSvc:   healthSvc,
		comboSvc:    comboSvc,
		analysisSvc: analysisSvc,
		engine:      engine,
		logger:      logger.With("component", "http.handler"),
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}

// accountID returns the authenticated account or aborts with 401.
func accountID(c *gin.Context) (int64, bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing credentials", nil))
		return 0, false
	}
	return claims.AccountID, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", key+" must be an integer", err))
		return 0, false
	}
	return v, true
}
