package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// Analyze runs a family analysis synchronously.
func (h *Handler) Analyze(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var req analysis.Request
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.analysisSvc.Analyze(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "analysis_failed"))
		return
	}
	c.JSON(http.StatusOK, record)
}

// SubmitAnalysis queues an analysis and returns its job.
func (h *Handler) SubmitAnalysis(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var req analysis.Request
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.analysisSvc.Submit(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "submit_failed"))
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// AnalysisJob reports the status of a queued analysis.
func (h *Handler) AnalysisJob(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	job, err := h.analysisSvc.Job(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "job_failed"))
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListAnalyses returns recent analysis summaries.
func (h *Handler) ListAnalyses(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	items, err := h.analysisSvc.History(c.Request.Context(), id, limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "history_failed"))
		return
	}
	if items == nil {
		items = []analysis.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": items})
}

// GetAnalysis returns a stored analysis.
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	record, err := h.analysisSvc.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "analysis_failed"))
		return
	}
	c.JSON(http.StatusOK, record)
}

// AnalysisReport downloads the exported report.
func (h *Handler) AnalysisReport(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	data, mimeType, err := h.analysisSvc.Report(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "report_failed"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="analysis-`+c.Param("id")+`.json"`)
	c.Data(http.StatusOK, mimeType, data)
}

type classifyRequest struct {
	HeightCM float64 `json:"heightCm"`
	WeightKG float64 `json:"weightKg"`
	Gender   string  `json:"gender"`
}

// Classify returns the body image tier for a height and weight.
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if !bindJSON(c, &req) {
		return
	}
	gender, err := nutrition.ParseMeasurements(req.HeightCM, req.WeightKG, req.Gender)
	if err != nil {
		httpErr := NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err)
		if fields, ok := err.(nutrition.ValidationErrors); ok {
			httpErr.Details = fields
		}
		abortWithError(c, httpErr)
		return
	}
	c.JSON(http.StatusOK, h.engine.ClassifyBodyImage(req.HeightCM, req.WeightKG, gender))
}
