package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/nutriforecast/internal/domain/combo"
)

// CreateCombo stores a dish combination.
func (h *Handler) CreateCombo(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var req combo.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.comboSvc.Create(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "combo_failed"))
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListCombos lists combos, optionally filtered by meal type.
func (h *Handler) ListCombos(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	combos, err := h.comboSvc.List(c.Request.Context(), c.Query("mealType"), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "combo_failed"))
		return
	}
	if combos == nil {
		combos = []combo.Combo{}
	}
	c.JSON(http.StatusOK, gin.H{"combos": combos})
}

// GetCombo returns one combo.
func (h *Handler) GetCombo(c *gin.Context) {
	found, err := h.comboSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "combo_failed"))
		return
	}
	c.JSON(http.StatusOK, found)
}

// RecommendCombos returns combos closest to an age group's ideal macro split.
func (h *Handler) RecommendCombos(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	recs, err := h.comboSvc.Recommend(c.Request.Context(), c.Query("ageGroup"), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "recommend_failed"))
		return
	}
	if recs == nil {
		recs = []combo.Recommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}
