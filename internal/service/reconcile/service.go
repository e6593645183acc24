// Package reconcile saves screen-owned employee fields and reconciles the session copy
// with the backend's canonical record.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/catalog"
	"github.com/aimd54/staff-directory/internal/metrics"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// SaveState is the progress of one save operation.
type SaveState string

// Save states, in order.
const (
	StateIdle       SaveState = "idle"
	StateValidating SaveState = "validating"
	StateSaving     SaveState = "saving"
	StateConfirming SaveState = "confirming"
	StateSuccess    SaveState = "success"
	StateFailed     SaveState = "failed"
)

// Screen names used for logs and metrics.
const (
	ScreenDetails = "details"
	ScreenProfile = "profile"
)

// Backend is the subset of the backend client used for saves.
type Backend interface {
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, verb, id string, fields map[string]any) error
}

// Result describes a successful save.
type Result struct {
	State SaveState `json:"state"`
	// Verb is the update verb that was accepted.
	Verb string `json:"verb"`
	// Record holds only the fields owned by the saving screen, as the backend stored them.
	Record models.Employee `json:"record"`
	// User is the session user after the merge.
	User models.Employee `json:"user"`
}

// Config holds save policy.
type Config struct {
	Verbs       []string
	EmailDomain string
}

// Service performs saves.
type Service struct {
	backend   Backend
	sessions  session.Store
	validator *availability.Validator
	catalog   *catalog.Catalog
	verbs     []string
	emailRe   emailMatcher
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a reconcile service.
func NewService(b Backend, sessions session.Store, validator *availability.Validator, cat *catalog.Catalog, cfg Config, log *logger.Logger) *Service {
	verbs := cfg.Verbs
	if len(verbs) == 0 {
		verbs = []string{"PUT", "PATCH", "POST"}
	}
	return &Service{
		backend:   b,
		sessions:  sessions,
		validator: validator,
		catalog:   cat,
		verbs:     verbs,
		emailRe:   newEmailMatcher(cfg.EmailDomain),
		log:       log,
		now:       time.Now,
	}
}

// operation tracks one save through its states.
type operation struct {
	screen string
	empid  string
	state  SaveState
	log    *logger.Logger
}

func (s *Service) begin(screen, empid string) *operation {
	return &operation{screen: screen, empid: empid, state: StateIdle, log: s.log}
}

func (op *operation) enter(state SaveState) {
	op.log.Debug().
		Str("screen", op.screen).
		Str("empid", op.empid).
		Str("from", string(op.state)).
		Str("to", string(state)).
		Msg("Save state")
	op.state = state
}

func (op *operation) fail(err error) error {
	op.enter(StateFailed)
	metrics.RecordSaveOutcome(op.screen, string(StateFailed))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		op.log.Error().Err(err).Str("screen", op.screen).Str("empid", op.empid).Msg("Save failed")
	}
	return err
}

// save runs the write, confirm and merge phases shared by both screens.
// readIDs are tried in order for the read-back.
func (s *Service) save(ctx context.Context, op *operation, sessionID, writeID string, readIDs []string, fields models.FieldSet, payload map[string]any) (*Result, error) {
	op.enter(StateSaving)
	verb, err := s.write(ctx, op.screen, writeID, payload)
	if err != nil {
		return nil, op.fail(err)
	}

	op.enter(StateConfirming)
	canonical, err := s.confirm(ctx, readIDs)
	if err != nil {
		return nil, op.fail(err)
	}
	if canonical.UpdatedAt == "" {
		if sent, ok := payload[string(models.FieldUpdatedAt)].(string); ok {
			canonical.UpdatedAt = sent
		}
	}

	merged, err := s.sessions.Merge(ctx, sessionID, fields, *canonical)
	if err != nil {
		return nil, op.fail(fmt.Errorf("failed to update session: %w", err))
	}

	op.enter(StateSuccess)
	metrics.RecordSaveOutcome(op.screen, string(StateSuccess))
	s.log.Info().Str("screen", op.screen).Str("empid", op.empid).Str("verb", verb).Msg("Record saved and confirmed")

	return &Result{
		State:  StateSuccess,
		Verb:   verb,
		Record: fields.Subset(*canonical),
		User:   *merged,
	}, nil
}

// write walks the verb chain and returns the first verb the backend accepted.
func (s *Service) write(ctx context.Context, screen, id string, payload map[string]any) (string, error) {
	werr := &WriteError{}
	for i, verb := range s.verbs {
		err := s.backend.UpdateEmployee(ctx, verb, id, payload)
		if err == nil {
			metrics.RecordSaveAttempt(screen, verb, "success")
			return verb, nil
		}
		metrics.RecordSaveAttempt(screen, verb, "error")

		attempt := Attempt{Verb: verb, Err: err}
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			attempt.StatusCode = apiErr.StatusCode
			attempt.Body = apiErr.Body
		}
		werr.Attempts = append(werr.Attempts, attempt)

		if ctx.Err() != nil {
			break
		}
		if i < len(s.verbs)-1 {
			s.log.Warn().Err(err).Str("screen", screen).Str("verb", verb).Str("next", s.verbs[i+1]).Msg("Update rejected, trying next verb")
		}
	}
	return "", werr
}

// confirm reads the canonical record back, by id first and from the full list after that.
func (s *Service) confirm(ctx context.Context, ids []string) (*models.Employee, error) {
	var lastErr error
	for _, id := range ids {
		emp, err := s.backend.GetEmployee(ctx, id)
		if err == nil && emp != nil {
			return emp, nil
		}
		if err != nil {
			lastErr = err
		}
	}

	list, err := s.backend.ListEmployees(ctx)
	if err != nil {
		return nil, &ConfirmError{EmpID: ids[0], Err: err}
	}
	for _, id := range ids {
		for i := range list {
			if strings.TrimSpace(list[i].EmpID) == strings.TrimSpace(id) {
				return &list[i], nil
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("record not found")
	}
	return nil, &ConfirmError{EmpID: ids[0], Err: lastErr}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
