package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/staff-directory/internal/authz"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
	Health      map[string]HealthCheck
}

// NewRouter wires the handlers, authentication and screen checks.
func NewRouter(h *Handler, az *authz.Authorizer, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), AccessLog(log))

	router.GET("/healthz", healthz(cfg.Health))
	if cfg.MetricsPath != "" {
		router.GET(cfg.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", h.Login)
	v1.GET("/notifications/vapid-key", h.GetVAPIDKey)

	auth := v1.Group("", h.Authenticate())
	auth.POST("/auth/logout", h.Logout)
	auth.GET("/session", h.GetSession)
	auth.POST("/auth/password", az.RequireScreen(authz.ScreenResetPassword), h.UpdatePassword)

	auth.GET("/employees", az.RequireScreen(authz.ScreenHome), h.ListEmployees)
	auth.GET("/dashboard", az.RequireScreen(authz.ScreenDashboard), h.GetDashboard)
	auth.PUT("/me/details", az.RequireScreen(authz.ScreenDetails), h.SaveDetails)
	auth.PUT("/me/profile", az.RequireScreen(authz.ScreenProfile), h.SaveProfile)

	auth.GET("/activities", az.RequireScreen(authz.ScreenInlineActivities), h.ListActivities)
	manage := auth.Group("/activities", az.RequireScreen(authz.ScreenActivities))
	manage.POST("", h.CreateActivity)
	manage.PATCH("/:id", h.UpdateActivity)
	manage.PATCH("/:id/status", h.ChangeActivityStatus)
	manage.DELETE("/:id", h.DeleteActivity)

	auth.GET("/preferences", h.GetPreferences)
	auth.PUT("/preferences", h.UpdatePreferences)
	auth.POST("/notifications/subscribe", h.Subscribe)

	return router
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
