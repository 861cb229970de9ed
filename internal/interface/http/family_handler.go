package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/nutriforecast/internal/domain/family"
)

// CreateMember adds a member to the caller's family.
func (h *Handler) CreateMember(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var in family.MemberInput
	if !bindJSON(c, &in) {
		return
	}
	member, err := h.familySvc.Create(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, fromDomainError(err, "member_failed"))
		return
	}
	c.JSON(http.StatusCreated, member)
}

// ListMembers lists the caller's family.
func (h *Handler) ListMembers(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	members, err := h.familySvc.List(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromDomainError(err, "member_failed"))
		return
	}
	if members == nil {
		members = []family.Member{}
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GetMember returns one member.
func (h *Handler) GetMember(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	member, err := h.familySvc.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "member_failed"))
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateMember replaces a member's profile.
func (h *Handler) UpdateMember(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var in family.MemberInput
	if !bindJSON(c, &in) {
		return
	}
	member, err := h.familySvc.Update(c.Request.Context(), id, c.Param("id"), in)
	if err != nil {
		abortWithError(c, fromDomainError(err, "member_failed"))
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember removes a member.
func (h *Handler) DeleteMember(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	if err := h.familySvc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		abortWithError(c, fromDomainError(err, "member_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// MealTargets returns the member's per-meal nutrient targets.
func (h *Handler) MealTargets(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	target, err := h.familySvc.MealTargets(c.Request.Context(), id, c.Param("id"), c.Query("meal"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "meal_targets_failed"))
		return
	}
	c.JSON(http.StatusOK, target)
}
