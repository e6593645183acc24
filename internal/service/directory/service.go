// Package directory loads the employee directory, demotes expired availability windows,
// and filters the result for browsing.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aimd54/staff-directory/internal/metrics"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// Backend is the subset of the backend client used by the directory.
type Backend interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, verb, id string, fields map[string]any) error
	DashboardMetrics(ctx context.Context, rangeName string) (json.RawMessage, error)
}

// Config tunes the best-effort expiry sync.
type Config struct {
	SyncConcurrency int
	SyncTimeout     time.Duration
}

// Service serves directory reads.
type Service struct {
	backend Backend
	today   func() models.Date
	now     func() time.Time
	cfg     Config
	log     *logger.Logger

	// mu orders syncs.Add before Wait; Add holds the read lock, Wait the write lock.
	mu    sync.RWMutex
	syncs sync.WaitGroup
}

// NewService creates a directory service. today supplies the calendar day used for expiry.
func NewService(b Backend, today func() models.Date, cfg Config, log *logger.Logger) *Service {
	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = 8
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 15 * time.Second
	}
	return &Service{
		backend: b,
		today:   today,
		now:     time.Now,
		cfg:     cfg,
		log:     log,
	}
}

// Load returns every non-manager employee. Partially Available records whose window
// has ended are returned as Occupied, and one PATCH per such record is sent in the
// background to persist the change. Those writes are not retried and their errors
// are only counted.
func (s *Service) Load(ctx context.Context) ([]models.Employee, error) {
	list, _, err := s.load(ctx)
	return list, err
}

// Sweep loads the directory and blocks until the demotion writes of this load have
// finished. It returns the number of employees loaded.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	list, done, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	<-done
	return len(list), nil
}

func (s *Service) load(ctx context.Context) ([]models.Employee, <-chan struct{}, error) {
	list, err := s.backend.ListEmployees(ctx)
	if err != nil {
		metrics.RecordDirectoryLoad("error", 0)
		return nil, nil, fmt.Errorf("failed to load employees: %w", err)
	}

	today := s.today()
	out := make([]models.Employee, 0, len(list))
	var expired []string
	for _, emp := range list {
		if emp.IsManager() {
			continue
		}
		if emp.Expired(today) {
			emp.Availability = models.AvailabilityOccupied
			expired = append(expired, emp.EmpID)
		}
		out = append(out, emp)
	}

	metrics.RecordDirectoryLoad("success", len(out))
	if len(expired) == 0 {
		done := make(chan struct{})
		close(done)
		return out, done, nil
	}
	metrics.RecordExpiryDemotions(len(expired))
	s.log.Info().Int("count", len(expired)).Msg("Demoting expired availability windows")
	return out, s.syncDemotions(ctx, expired), nil
}

// syncDemotions fires the demotion writes without waiting for them. They run on a
// context detached from the caller so an aborted request does not cancel them.
// The returned channel is closed once this batch is done.
func (s *Service) syncDemotions(parent context.Context, ids []string) <-chan struct{} {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.SyncTimeout)
	fields := map[string]any{
		"availability": string(models.AvailabilityOccupied),
		"updated_at":   s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.SyncConcurrency)
	done := make(chan struct{})

	s.mu.RLock()
	s.syncs.Add(1)
	s.mu.RUnlock()
	go func() {
		defer s.syncs.Done()
		defer close(done)
		defer cancel()
		for _, id := range ids {
			g.Go(func() error {
				if err := s.backend.UpdateEmployee(ctx, http.MethodPatch, id, fields); err != nil {
					metrics.RecordExpirySync("error")
					s.log.Debug().Err(err).Str("empid", id).Msg("Expiry sync failed")
					return nil
				}
				metrics.RecordExpirySync("success")
				return nil
			})
		}
		_ = g.Wait()
	}()
	return done
}

// Wait blocks until every background expiry sync started so far has finished.
// Loads that need to start a sync meanwhile block until Wait returns.
func (s *Service) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs.Wait()
}

// Query filters the directory.
type Query struct {
	// Search matches the start of the name, of any skill, or of the role.
	Search string
	// Availability keeps only this status; AvailabilityUnknown keeps everyone.
	Availability models.Availability
	// Range keeps employees available within the window. Ignored when filtering on Occupied.
	Range availability.RangeKey
}

// ParseAvailabilityFilter accepts "All" (or empty) and the availability values.
func ParseAvailabilityFilter(s string) (models.Availability, error) {
	if s = strings.TrimSpace(s); s == "" || strings.EqualFold(s, "all") {
		return models.AvailabilityUnknown, nil
	}
	a, ok := models.ParseAvailability(s)
	if !ok {
		return "", fmt.Errorf("invalid availability filter: %s (valid: All, Available, Occupied, Partially Available)", s)
	}
	return a, nil
}

// Browse loads the directory and applies q, sorted by empid.
func (s *Service) Browse(ctx context.Context, q Query) ([]models.Employee, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(list, q, s.today()), nil
}

// Filter applies q to list relative to today. The input slice is not modified.
func Filter(list []models.Employee, q Query, today models.Date) []models.Employee {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	applyRange := q.Availability != models.AvailabilityOccupied && q.Range != "" && q.Range != availability.RangeAny

	out := make([]models.Employee, 0, len(list))
	for i := range list {
		emp := &list[i]
		if search != "" && !matchesSearch(emp, search) {
			continue
		}
		if q.Availability != models.AvailabilityUnknown && emp.Availability != q.Availability {
			continue
		}
		if applyRange && !availability.IsAvailable(emp, q.Range, today) {
			continue
		}
		out = append(out, *emp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessEmpID(out[i].EmpID, out[j].EmpID)
	})
	return out
}

func matchesSearch(emp *models.Employee, search string) bool {
	if strings.HasPrefix(strings.ToLower(emp.Name), search) {
		return true
	}
	for _, skill := range emp.CurrentSkills {
		if strings.HasPrefix(strings.ToLower(skill), search) {
			return true
		}
	}
	return strings.HasPrefix(strings.ToLower(emp.Role), search)
}

// lessEmpID orders ids numerically when both are numbers and as strings otherwise.
func lessEmpID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// DashboardRange is the aggregation window of the manager dashboard.
type DashboardRange string

// Dashboard ranges.
const (
	DashboardAll     DashboardRange = "All"
	DashboardDaily   DashboardRange = "Daily"
	DashboardWeekly  DashboardRange = "Weekly"
	DashboardMonthly DashboardRange = "Monthly"
)

// ParseDashboardRange accepts the range names case-insensitively; empty means All.
func ParseDashboardRange(s string) (DashboardRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return DashboardAll, nil
	case "daily":
		return DashboardDaily, nil
	case "weekly":
		return DashboardWeekly, nil
	case "monthly":
		return DashboardMonthly, nil
	default:
		return "", fmt.Errorf("invalid range: %s (valid: All, Daily, Weekly, Monthly)", s)
	}
}

// Dashboard returns the backend's aggregate metrics document for r.
func (s *Service) Dashboard(ctx context.Context, r DashboardRange) (json.RawMessage, error) {
	doc, err := s.backend.DashboardMetrics(ctx, string(r))
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard metrics: %w", err)
	}
	return doc, nil
}
