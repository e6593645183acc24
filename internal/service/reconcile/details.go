package reconcile

import (
	"context"
	"errors"
	"strings"

	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/availability"
)

const msgAvailableWithProject = "You cannot be 'Available' if you have a current project. Please select 'Occupied' or 'Partially Available'."

// DetailsInput is what the details screen submits.
type DetailsInput struct {
	NoCurrentProject bool     `json:"no_current_project"`
	CurrentProject   string   `json:"current_project"`
	Availability     string   `json:"availability"`
	HoursAvailable   *float64 `json:"hours_available"`
	FromDate         string   `json:"from_date"`
	ToDate           string   `json:"to_date"`
	CurrentSkills    []string `json:"current_skills"`
	Interests        []string `json:"interests"`
	PreviousProjects []string `json:"previous_projects"`
}

// SaveDetails validates and saves the availability and skills of the session user.
func (s *Service) SaveDetails(ctx context.Context, sessionID string, in DetailsInput) (*Result, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	empid := strings.TrimSpace(sess.User.EmpID)

	op := s.begin(ScreenDetails, empid)
	op.enter(StateValidating)
	if empid == "" {
		verr := newValidationError()
		verr.Add("empid", "Missing empid, cannot save to server.")
		return nil, op.fail(verr)
	}

	payload, err := s.detailsPayload(sess.User, in)
	if err != nil {
		return nil, op.fail(err)
	}

	return s.save(ctx, op, sessionID, empid, []string{empid}, models.DetailFields, payload)
}

// detailsPayload applies the details rules and builds the update body.
// Dates the user did not touch only get the structural window checks, so an
// ongoing window that started in the past can still be saved.
func (s *Service) detailsPayload(cached models.Employee, in DetailsInput) (map[string]any, error) {
	verr := newValidationError()

	status := models.AvailabilityAvailable
	project := ""
	if !in.NoCurrentProject {
		project = strings.TrimSpace(in.CurrentProject)
		parsed, ok := models.ParseAvailability(in.Availability)
		if !ok {
			verr.Add("availability", "Select an availability")
		}
		status = parsed
		if status == models.AvailabilityAvailable {
			verr.Add("availability", msgAvailableWithProject)
		}
	}

	var hours, from, to any
	if status == models.AvailabilityPartial {
		switch {
		case in.HoursAvailable == nil:
			verr.Add("hours_available", "Specify hours")
		case *in.HoursAvailable <= 0:
			verr.Add("hours_available", "Hours must be a positive number")
		default:
			hours = *in.HoursAvailable
		}

		fromStr, toStr := strings.TrimSpace(in.FromDate), strings.TrimSpace(in.ToDate)
		if fromStr == "" {
			verr.Add("from_date", "From date required")
		}
		if toStr == "" {
			verr.Add("to_date", "To date required")
		}
		if fromStr != "" && toStr != "" {
			if f, t, ok := s.checkWindow(verr, cached, fromStr, toStr); ok {
				from, to = f.String(), t.String()
			}
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return map[string]any{
		"current_project":   project,
		"availability":      string(status),
		"hours_available":   hours,
		"from_date":         from,
		"to_date":           to,
		"current_skills":    models.UniqueList(in.CurrentSkills),
		"interests":         models.UniqueList(in.Interests),
		"previous_projects": models.UniqueList(in.PreviousProjects),
		"updated_at":        s.timestamp(),
	}, nil
}

func (s *Service) checkWindow(verr *ValidationError, cached models.Employee, fromStr, toStr string) (models.Date, models.Date, bool) {
	if changed(fromStr, cached.FromDate) {
		addDateError(verr, s.validator.ValidateFrom(fromStr, toStr))
	}
	if changed(toStr, cached.ToDate) {
		addDateError(verr, s.validator.ValidateTo(fromStr, toStr))
	}
	if len(verr.Fields) > 0 {
		return models.Date{}, models.Date{}, false
	}

	f, errF := models.ParseDate(fromStr)
	t, errT := models.ParseDate(toStr)
	if errF != nil || errT != nil {
		return models.Date{}, models.Date{}, false
	}
	if err := availability.ValidateWindow(f, t); err != nil {
		addDateError(verr, err)
		return models.Date{}, models.Date{}, false
	}
	return f, t, true
}

func changed(input string, cached models.Date) bool {
	d, err := models.ParseDate(input)
	return err != nil || !d.Equal(cached)
}

func addDateError(verr *ValidationError, err error) {
	if err == nil {
		return
	}
	var de *availability.DateError
	if errors.As(err, &de) {
		verr.Add(string(de.Field), de.Message)
		return
	}
	verr.Add("date", err.Error())
}
