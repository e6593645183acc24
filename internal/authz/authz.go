// Package authz decides which screens a signed-in role may open.
package authz

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"

	"github.com/aimd54/staff-directory/internal/models"
)

//go:embed model.conf
var modelText string

// Screen names.
const (
	ScreenDashboard        = "dashboard"
	ScreenHome             = "home"
	ScreenActivities       = "activities"
	ScreenDetails          = "details"
	ScreenProfile          = "profile"
	ScreenInlineActivities = "inline-activities"
	ScreenResetPassword    = "reset-password"
)

// RoleKey is the gin context key holding the caller's role_type.
const RoleKey = "role_type"

const actionOpen = "open"

const (
	subjectManager  = "role:manager"
	subjectEmployee = "role:employee"
)

// Managers inherit every employee screen.
var policy = [][]string{
	{subjectEmployee, ScreenDetails, actionOpen},
	{subjectEmployee, ScreenProfile, actionOpen},
	{subjectEmployee, ScreenInlineActivities, actionOpen},
	{subjectEmployee, ScreenResetPassword, actionOpen},
	{subjectManager, ScreenDashboard, actionOpen},
	{subjectManager, ScreenHome, actionOpen},
	{subjectManager, ScreenActivities, actionOpen},
}

// Authorizer wraps a casbin enforcer loaded with the screen policy.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New builds the authorizer from the embedded model and policy.
func New() (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authz model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(policy); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicy(subjectManager, subjectEmployee); err != nil {
		return nil, fmt.Errorf("failed to load role hierarchy: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// SubjectFor maps a backend role_type to a policy subject. Anything that is
// not a manager is treated as an employee.
func SubjectFor(roleType string) string {
	if strings.EqualFold(strings.TrimSpace(roleType), models.RoleTypeManager) {
		return subjectManager
	}
	return subjectEmployee
}

// CanOpen reports whether roleType may open screen.
func (a *Authorizer) CanOpen(roleType, screen string) (bool, error) {
	return a.enforcer.Enforce(SubjectFor(roleType), screen, actionOpen)
}

// Screens lists the screens roleType may open, in policy order.
func (a *Authorizer) Screens(roleType string) []string {
	var out []string
	seen := map[string]bool{}
	for _, rule := range policy {
		screen := rule[1]
		if seen[screen] {
			continue
		}
		seen[screen] = true
		if ok, err := a.CanOpen(roleType, screen); err == nil && ok {
			out = append(out, screen)
		}
	}
	return out
}

// RequireScreen aborts with 403 unless the caller's role may open screen.
// It must run after the middleware that sets RoleKey.
func (a *Authorizer) RequireScreen(screen string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := a.CanOpen(c.GetString(RoleKey), screen)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "authorization check failed",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     fmt.Sprintf("access to %s is not allowed", screen),
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}
		c.Next()
	}
}
