// Package activities manages the projects managers publish for employees to browse.
package activities

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/pkg/logger"
)

// ErrNameRequired is returned when an activity has no project name.
var ErrNameRequired = errors.New("project name is required")

// Backend is the subset of the backend client used for activities.
type Backend interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, p models.Project, empid string) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, p models.Project, userEmpID string) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, userEmpID string) error
	DeleteProject(ctx context.Context, id, userEmpID string) error
}

// Filter narrows the activity list. An empty Status keeps every status.
type Filter struct {
	Status models.ProjectStatus
	Search string
}

// ParseStatusFilter accepts "All" (or empty) and the project statuses.
func ParseStatusFilter(s string) (models.ProjectStatus, error) {
	if s = strings.TrimSpace(s); s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	return models.ParseProjectStatus(s)
}

// Service handles activity reads and writes.
type Service struct {
	backend Backend
	log     *logger.Logger
}

// NewService creates an activities service.
func NewService(b Backend, log *logger.Logger) *Service {
	return &Service{backend: b, log: log}
}

// List returns the activities matching f, ordered by name.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Project, error) {
	all, err := s.backend.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Project, 0, len(all))
	for _, p := range all {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Create publishes a new activity owned by ownerEmpID.
func (s *Service) Create(ctx context.Context, p models.Project, ownerEmpID string) (*models.Project, error) {
	if err := normalize(&p); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusOpen
	}
	p.ID = ""
	p.OwnerEmpID = ownerEmpID

	created, err := s.backend.CreateProject(ctx, p, ownerEmpID)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	s.log.Info().Str("id", created.ID).Str("owner", ownerEmpID).Msg("Activity created")
	return created, nil
}

// Update edits an activity. The backend rejects edits by anyone but the owner.
func (s *Service) Update(ctx context.Context, id string, p models.Project, userEmpID string) (*models.Project, error) {
	if err := normalize(&p); err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateProject(ctx, id, p, userEmpID)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity %s: %w", id, err)
	}
	return updated, nil
}

// ChangeStatus moves an activity to status. The backend rejects changes by anyone but the owner.
func (s *Service) ChangeStatus(ctx context.Context, id string, status models.ProjectStatus, userEmpID string) error {
	if err := s.backend.UpdateProjectStatus(ctx, id, status, userEmpID); err != nil {
		return fmt.Errorf("failed to change status of activity %s: %w", id, err)
	}
	return nil
}

// Delete removes an activity. The backend rejects deletes by anyone but the owner.
func (s *Service) Delete(ctx context.Context, id, userEmpID string) error {
	if err := s.backend.DeleteProject(ctx, id, userEmpID); err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	s.log.Info().Str("id", id).Str("user", userEmpID).Msg("Activity deleted")
	return nil
}

func normalize(p *models.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrNameRequired
	}
	p.LeaderName = strings.TrimSpace(p.LeaderName)
	p.RequiredSkills = models.UniqueList(p.RequiredSkills)
	p.Contacts = p.Contacts.Normalize()
	return nil
}
