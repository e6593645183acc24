package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/service/account"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login signs an employee in.
// POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC(),
		"landing":    res.Landing,
		"user":       res.Session.User,
	})
}

// Logout ends the caller's session.
// POST /api/v1/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	if err := h.accounts.Logout(c.Request.Context(), sess.ID); err != nil {
		h.fail(c, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdatePassword changes the caller's password. The session ends on success.
// POST /api/v1/auth/password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := currentSession(c)
	if err := h.accounts.UpdatePassword(c.Request.Context(), sess.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		h.fail(c, err, "Password update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated successfully, please sign in again",
	})
}

// GetSession returns the signed-in user, used to restore the client after a reload.
// GET /api/v1/session.
func (h *Handler) GetSession(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"user":       sess.User,
		"landing":    account.LandingScreen(&sess.User),
		"screens":    h.screens.Screens(sess.User.RoleType),
		"created_at": sess.CreatedAt,
	})
}
