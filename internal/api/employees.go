package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/internal/service/directory"
	"github.com/aimd54/staff-directory/internal/service/reconcile"
)

// ListEmployees returns the filtered directory.
// GET /api/v1/employees?search=go&availability=Available&range=this_week.
func (h *Handler) ListEmployees(c *gin.Context) {
	status, err := directory.ParseAvailabilityFilter(c.Query("availability"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	rangeKey, err := availability.ParseRangeKey(c.Query("range"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	employees, err := h.directory.Browse(c.Request.Context(), directory.Query{
		Search:       c.Query("search"),
		Availability: status,
		Range:        rangeKey,
	})
	if err != nil {
		h.fail(c, err, "Failed to load employees")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees": employees,
		"total":     len(employees),
		"range":     rangeKey,
	})
}

// GetDashboard returns the manager dashboard metrics.
// GET /api/v1/dashboard?range=Weekly.
func (h *Handler) GetDashboard(c *gin.Context) {
	r, err := directory.ParseDashboardRange(c.Query("range"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.directory.Dashboard(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err, "Failed to load dashboard metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range":        r,
		"metrics":      doc,
		"generated_at": time.Now().UTC(),
	})
}

// SaveDetails saves the caller's availability and skills.
// PUT /api/v1/me/details.
func (h *Handler) SaveDetails(c *gin.Context) {
	var in reconcile.DetailsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.reconcile.SaveDetails(c.Request.Context(), currentSession(c).ID, in)
	if err != nil {
		h.fail(c, err, "Failed to save details")
		return
	}
	c.JSON(http.StatusOK, res)
}

// SaveProfile saves the caller's identity fields.
// PUT /api/v1/me/profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	var in reconcile.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.reconcile.SaveProfile(c.Request.Context(), currentSession(c).ID, in)
	if err != nil {
		h.fail(c, err, "Failed to save profile")
		return
	}
	c.JSON(http.StatusOK, res)
}
