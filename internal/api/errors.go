package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/service/account"
	"github.com/aimd54/staff-directory/internal/service/activities"
	"github.com/aimd54/staff-directory/internal/service/reconcile"
	"github.com/aimd54/staff-directory/internal/session"
)

const msgSessionExpired = "Session expired, please sign in again"

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

// fail maps a service error to a response. Backend statuses in the 4xx range
// are passed through; anything else from the backend becomes 502.
func (h *Handler) fail(c *gin.Context, err error, logMsg string) {
	var (
		validation *reconcile.ValidationError
		input      *account.InputError
		confirm    *reconcile.ConfirmError
		write      *reconcile.WriteError
		apiErr     *backend.APIError
	)

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Validation failed",
			"fields":    validation.Fields,
			"timestamp": time.Now().UTC(),
		})
		return
	case errors.As(err, &input):
		h.errorResponse(c, http.StatusBadRequest, input.Message)
		return
	case errors.Is(err, activities.ErrNameRequired):
		h.errorResponse(c, http.StatusBadRequest, "Project name is required")
		return
	case errors.Is(err, session.ErrNotFound), errors.Is(err, account.ErrInvalidToken):
		h.errorResponse(c, http.StatusUnauthorized, msgSessionExpired)
		return
	case errors.Is(err, session.ErrConflict):
		h.errorResponse(c, http.StatusConflict, "Your session was updated elsewhere, please retry")
		return
	case errors.As(err, &confirm):
		h.log.Error().Err(err).Str("empid", confirm.EmpID).Msg(logMsg)
		h.errorResponse(c, http.StatusBadGateway, confirm.Error())
		return
	case errors.As(err, &write):
		h.log.Error().Err(err).Msg(logMsg)
		h.errorResponse(c, passThrough(write.Last().StatusCode), write.Error())
		return
	case errors.As(err, &apiErr):
		h.log.Warn().Err(err).Int("status", apiErr.StatusCode).Msg(logMsg)
		h.errorResponse(c, passThrough(apiErr.StatusCode), apiErr.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Error().Err(err).Msg(logMsg)
		h.errorResponse(c, http.StatusGatewayTimeout, "Backend did not answer in time")
		return
	}

	h.log.Error().Err(err).Msg(logMsg)
	h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
}

func passThrough(status int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}
