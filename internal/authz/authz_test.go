package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanOpen(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tests := []struct {
		role   string
		screen string
		want   bool
	}{
		{"manager", ScreenDashboard, true},
		{"Manager", ScreenHome, true},
		{"manager", ScreenActivities, true},
		{"manager", ScreenDetails, true},
		{"manager", ScreenInlineActivities, true},
		{"manager", ScreenResetPassword, true},
		{"employee", ScreenDetails, true},
		{"employee", ScreenProfile, true},
		{"employee", ScreenInlineActivities, true},
		{"employee", ScreenResetPassword, true},
		{"employee", ScreenDashboard, false},
		{"employee", ScreenHome, false},
		{"employee", ScreenActivities, false},
		{"", ScreenHome, false},
		{"", ScreenProfile, true},
		{"manager", "admin", false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.screen, func(t *testing.T) {
			got, err := a.CanOpen(tt.role, tt.screen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScreens(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	assert.Equal(t, []string{ScreenDetails, ScreenProfile, ScreenInlineActivities, ScreenResetPassword},
		a.Screens("employee"))
	assert.Len(t, a.Screens("manager"), 7)
}

func TestRequireScreen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New()
	require.NoError(t, err)

	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set(RoleKey, role) })
		r.GET("/home", a.RequireScreen(ScreenHome), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	w := httptest.NewRecorder()
	newRouter("manager").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	newRouter("employee").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access to home is not allowed")
}
