// Package api exposes the directory over a JSON REST API.
package api

import (
	"context"
	"encoding/json"

	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/account"
	"github.com/aimd54/staff-directory/internal/service/activities"
	"github.com/aimd54/staff-directory/internal/service/directory"
	"github.com/aimd54/staff-directory/internal/service/reconcile"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// AccountService interface for sign-in and password operations.
type AccountService interface {
	Login(ctx context.Context, email, password string) (*account.LoginResult, error)
	Logout(ctx context.Context, sid string) error
	UpdatePassword(ctx context.Context, sid, current, next, confirm string) error
	Session(ctx context.Context, sid string) (*session.Session, error)
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Parse(token string) (*account.Claims, error)
}

// DirectoryService interface for directory reads.
type DirectoryService interface {
	Browse(ctx context.Context, q directory.Query) ([]models.Employee, error)
	Dashboard(ctx context.Context, r directory.DashboardRange) (json.RawMessage, error)
}

// ReconcileService interface for saving the signed-in employee's own record.
type ReconcileService interface {
	SaveDetails(ctx context.Context, sid string, in reconcile.DetailsInput) (*reconcile.Result, error)
	SaveProfile(ctx context.Context, sid string, in reconcile.ProfileInput) (*reconcile.Result, error)
}

// ActivityService interface for activity operations.
type ActivityService interface {
	List(ctx context.Context, f activities.Filter) ([]models.Project, error)
	Create(ctx context.Context, p models.Project, ownerEmpID string) (*models.Project, error)
	Update(ctx context.Context, id string, p models.Project, userEmpID string) (*models.Project, error)
	ChangeStatus(ctx context.Context, id string, status models.ProjectStatus, userEmpID string) error
	Delete(ctx context.Context, id, userEmpID string) error
}

// PreferenceStore interface for client preference flags.
type PreferenceStore interface {
	Get(ctx context.Context, empid string) (*models.ClientPreference, error)
	Set(ctx context.Context, pref *models.ClientPreference) error
}

// Subscriber forwards push subscriptions to the backend.
type Subscriber interface {
	Subscribe(ctx context.Context, subscription json.RawMessage, empid string) error
}

// ScreenLister lists the screens a role may open.
type ScreenLister interface {
	Screens(roleType string) []string
}

// Deps groups the services behind the handlers.
type Deps struct {
	Accounts       AccountService
	Tokens         TokenVerifier
	Directory      DirectoryService
	Reconcile      ReconcileService
	Activities     ActivityService
	Preferences    PreferenceStore
	Subscriber     Subscriber
	Screens        ScreenLister
	VAPIDPublicKey string
}

// Handler handles API requests.
type Handler struct {
	accounts    AccountService
	tokens      TokenVerifier
	directory   DirectoryService
	reconcile   ReconcileService
	activities  ActivityService
	preferences PreferenceStore
	subscriber  Subscriber
	screens     ScreenLister
	vapidKey    string
	log         *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, log *logger.Logger) *Handler {
	return &Handler{
		accounts:    deps.Accounts,
		tokens:      deps.Tokens,
		directory:   deps.Directory,
		reconcile:   deps.Reconcile,
		activities:  deps.Activities,
		preferences: deps.Preferences,
		subscriber:  deps.Subscriber,
		screens:     deps.Screens,
		vapidKey:    deps.VAPIDPublicKey,
		log:         log,
	}
}
