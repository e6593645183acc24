package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/activities"
)

type statusRequest struct {
	Status string `json:"status"`
}

// ListActivities returns the activities matching the filters.
// GET /api/v1/activities?status=Open&search=migration.
func (h *Handler) ListActivities(c *gin.Context) {
	status, err := activities.ParseStatusFilter(c.Query("status"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.activities.List(c.Request.Context(), activities.Filter{
		Status: status,
		Search: c.Query("search"),
	})
	if err != nil {
		h.fail(c, err, "Failed to list activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": list,
		"total":      len(list),
	})
}

// CreateActivity publishes an activity owned by the caller.
// POST /api/v1/activities.
func (h *Handler) CreateActivity(c *gin.Context) {
	var p models.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.activities.Create(c.Request.Context(), p, currentSession(c).User.EmpID)
	if err != nil {
		h.fail(c, err, "Failed to create activity")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateActivity edits one of the caller's activities.
// PATCH /api/v1/activities/:id.
func (h *Handler) UpdateActivity(c *gin.Context) {
	var p models.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.activities.Update(c.Request.Context(), c.Param("id"), p, currentSession(c).User.EmpID)
	if err != nil {
		h.fail(c, err, "Failed to update activity")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ChangeActivityStatus moves an activity to another status.
// PATCH /api/v1/activities/:id/status.
func (h *Handler) ChangeActivityStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := models.ParseProjectStatus(req.Status)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	id := c.Param("id")
	if err := h.activities.ChangeStatus(c.Request.Context(), id, status, currentSession(c).User.EmpID); err != nil {
		h.fail(c, err, "Failed to change activity status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// DeleteActivity removes one of the caller's activities.
// DELETE /api/v1/activities/:id.
func (h *Handler) DeleteActivity(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), c.Param("id"), currentSession(c).User.EmpID); err != nil {
		h.fail(c, err, "Failed to delete activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
