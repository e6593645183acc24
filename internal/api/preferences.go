package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

type preferencesRequest struct {
	InstallPromptDismissed      *bool `json:"install_prompt_dismissed"`
	NotificationPromptDismissed *bool `json:"notification_prompt_dismissed"`
}

type subscribeRequest struct {
	Subscription json.RawMessage `json:"subscription"`
}

// GetPreferences returns the caller's prompt flags.
// GET /api/v1/preferences.
func (h *Handler) GetPreferences(c *gin.Context) {
	pref, err := h.preferences.Get(c.Request.Context(), currentSession(c).User.EmpID)
	if err != nil {
		h.fail(c, err, "Failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences changes the flags present in the body and keeps the others.
// PUT /api/v1/preferences.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	pref, err := h.preferences.Get(ctx, currentSession(c).User.EmpID)
	if err != nil {
		h.fail(c, err, "Failed to load preferences")
		return
	}
	if req.InstallPromptDismissed != nil {
		pref.InstallPromptDismissed = *req.InstallPromptDismissed
	}
	if req.NotificationPromptDismissed != nil {
		pref.NotificationPromptDismissed = *req.NotificationPromptDismissed
	}
	if err := h.preferences.Set(ctx, pref); err != nil {
		h.fail(c, err, "Failed to save preferences")
		return
	}
	c.JSON(http.StatusOK, pref)
}

// GetVAPIDKey returns the web push public key.
// GET /api/v1/notifications/vapid-key.
func (h *Handler) GetVAPIDKey(c *gin.Context) {
	if h.vapidKey == "" {
		h.errorResponse(c, http.StatusNotFound, "push notifications are not configured")
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidKey})
}

// Subscribe forwards the caller's push subscription to the backend.
// POST /api/v1/notifications/subscribe.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Subscription) == 0 || string(req.Subscription) == "null" {
		h.errorResponse(c, http.StatusBadRequest, "subscription is required")
		return
	}

	if err := h.subscriber.Subscribe(c.Request.Context(), req.Subscription, currentSession(c).User.EmpID); err != nil {
		h.fail(c, err, "Failed to register push subscription")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}
