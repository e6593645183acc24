package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/authz"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
)

const sessionKey = "session"

// Authenticate verifies the bearer token and loads its session. The session
// user's role_type is stored under authz.RoleKey for RequireScreen.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			h.errorResponse(c, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}

		claims, err := h.tokens.Parse(parts[1])
		if err != nil {
			h.log.Debug().Err(err).Msg("Rejected bearer token")
			h.errorResponse(c, http.StatusUnauthorized, msgSessionExpired)
			return
		}

		sess, err := h.accounts.Session(c.Request.Context(), claims.SessionID)
		if err != nil {
			h.fail(c, err, "Failed to load session")
			return
		}

		c.Set(sessionKey, sess)
		c.Set(authz.RoleKey, sess.User.RoleType)
		c.Next()
	}
}

// currentSession returns the session stored by Authenticate.
func currentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// AccessLog logs one line per request.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
