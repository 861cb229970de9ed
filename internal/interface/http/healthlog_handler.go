package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
)

// RecordMetric logs one measurement for a member.
func (h *Handler) RecordMetric(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var in healthlog.RecordInput
	if !bindJSON(c, &in) {
		return
	}
	entry, err := h.healthSvc.Record(c.Request.Context(), id, c.Param("id"), in)
	if err != nil {
		abortWithError(c, fromDomainError(err, "metric_failed"))
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListMetrics returns a member's log, newest first. Supports ?code= and ?limit=.
func (h *Handler) ListMetrics(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	entries, err := h.healthSvc.List(c.Request.Context(), id, c.Param("id"), c.Query("code"), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "metric_failed"))
		return
	}
	if entries == nil {
		entries = []healthlog.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"memberId": c.Param("id"), "count": len(entries), "metrics": entries})
}

// LatestMetrics returns the newest value of each logged metric.
func (h *Handler) LatestMetrics(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	latest, err := h.healthSvc.Latest(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "metric_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": latest})
}

// IntakeSummary averages logged intake over ?days= (default 7).
func (h *Handler) IntakeSummary(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	days, ok := queryInt(c, "days")
	if !ok {
		return
	}
	summary, err := h.healthSvc.IntakeSummary(c.Request.Context(), id, c.Param("id"), days)
	if err != nil {
		abortWithError(c, fromDomainError(err, "metric_failed"))
		return
	}
	if days == 0 {
		days = healthlog.DefaultWindowDays
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "nutrients": summary})
}

// HealthStatus returns the headline body and mineral readings.
func (h *Handler) HealthStatus(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	status, err := h.healthSvc.HealthStatus(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "metric_failed"))
		return
	}
	c.JSON(http.StatusOK, status)
}

// MetricTypes lists the metrics that can be logged.
func (h *Handler) MetricTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": healthlog.Types()})
}
