// Package account signs employees in and out and changes their password.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aimd54/staff-directory/internal/authz"
	"github.com/aimd54/staff-directory/internal/metrics"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 6

// InputError reports a request rejected before reaching the backend.
// Message is shown to the user as is.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func invalid(msg string) error { return &InputError{Message: msg} }

// Backend is the subset of the backend client used for accounts.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.Employee, error)
	UpdatePassword(ctx context.Context, empid, currentPassword, newPassword string) error
}

// LoginResult is a new signed-in session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Session   *session.Session
	// Landing is the first screen to show.
	Landing string
}

// Service implements sign-in, sign-out and password changes.
type Service struct {
	backend  Backend
	sessions session.Store
	tokens   *Tokens
	email    *regexp.Regexp
	log      *logger.Logger
}

// NewService creates an account service accepting addresses on emailDomain.
func NewService(b Backend, sessions session.Store, tokens *Tokens, emailDomain string, log *logger.Logger) *Service {
	return &Service{
		backend:  b,
		sessions: sessions,
		tokens:   tokens,
		email:    regexp.MustCompile(`^[^\s@]+@` + regexp.QuoteMeta(emailDomain) + `$`),
		log:      log,
	}
}

// Tokens returns the token verifier for request authentication.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Login checks the credentials with the backend and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.RecordLogin("invalid")
		return nil, invalid("Please fill in all required fields.")
	}
	if !s.email.MatchString(email) {
		metrics.RecordLogin("invalid")
		return nil, invalid("Please enter a valid email address.")
	}

	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		metrics.RecordLogin("rejected")
		s.log.Info().Err(err).Str("email", email).Msg("Login rejected")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	sess, err := s.sessions.Create(ctx, *user)
	if err != nil {
		metrics.RecordLogin("error")
		return nil, err
	}
	token, exp, err := s.tokens.Issue(sess)
	if err != nil {
		metrics.RecordLogin("error")
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}

	metrics.RecordLogin("success")
	s.log.Info().Str("empid", user.EmpID).Str("session", sess.ID).Msg("Employee signed in")
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		Session:   sess,
		Landing:   LandingScreen(user),
	}, nil
}

// LandingScreen is the dashboard for managers and the details screen otherwise.
func LandingScreen(user *models.Employee) string {
	if user.IsManager() {
		return authz.ScreenDashboard
	}
	return authz.ScreenDetails
}

// Session restores the signed-in user of sid.
func (s *Service) Session(ctx context.Context, sid string) (*session.Session, error) {
	return s.sessions.Get(ctx, sid)
}

// Logout ends the session. Ending an unknown session is not an error.
func (s *Service) Logout(ctx context.Context, sid string) error {
	if err := s.sessions.Delete(ctx, sid); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

// UpdatePassword changes the session user's password and ends the session.
func (s *Service) UpdatePassword(ctx context.Context, sid, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return invalid("Please fill in all fields.")
	}
	if next != confirm {
		return invalid("New passwords do not match.")
	}
	if current == next {
		return invalid("New Password cannot be the same as Current Password.")
	}
	if len(next) < MinPasswordLength {
		return invalid(fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}

	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return err
	}
	if err := s.backend.UpdatePassword(ctx, sess.User.EmpID, current, next); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info().Str("empid", sess.User.EmpID).Msg("Password updated, ending session")
	return s.Logout(ctx, sid)
}
