// Package models defines the records exchanged with the directory backend.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RoleTypeManager marks a manager account.
const RoleTypeManager = "manager"

// Employee is the backend's employee record, as cached for a session.
type Employee struct {
	EmpID            string       `json:"empid"`
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	Role             string       `json:"role"`
	OtherRole        string       `json:"other_role"`
	Cluster          string       `json:"cluster"`
	Cluster2         string       `json:"cluster2"`
	RoleType         string       `json:"role_type"`
	Availability     Availability `json:"availability"`
	HoursAvailable   *float64     `json:"hours_available"`
	FromDate         Date         `json:"from_date"`
	ToDate           Date         `json:"to_date"`
	CurrentProject   string       `json:"current_project"`
	CurrentSkills    []string     `json:"current_skills"`
	Interests        []string     `json:"interests"`
	PreviousProjects []string     `json:"previous_projects"`
	UpdatedAt        string       `json:"updated_at"` // kept verbatim; the backend's timestamp format varies
}

// UnmarshalJSON decodes a backend record tolerantly: numeric or string ids,
// camelCase aliases, and list fields in any of the shapes ParseList accepts.
func (e *Employee) UnmarshalJSON(data []byte) error {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("employee record must be an object: %w", err)
	}

	availability, _ := ParseAvailability(raw.str("availability"))

	*e = Employee{
		EmpID:            raw.str("empid", "id"),
		Name:             raw.str("name"),
		Email:            raw.str("email"),
		Role:             raw.str("role"),
		OtherRole:        raw.str("other_role", "otherRole"),
		Cluster:          raw.str("cluster"),
		Cluster2:         raw.str("cluster2"),
		RoleType:         raw.str("role_type", "roleType"),
		Availability:     availability,
		HoursAvailable:   raw.number("hours_available", "hoursAvailable"),
		FromDate:         raw.date("from_date", "fromDate"),
		ToDate:           raw.date("to_date", "toDate"),
		CurrentProject:   raw.str("current_project", "currentProject"),
		CurrentSkills:    raw.list("current_skills", "currentSkills"),
		Interests:        raw.list("interests"),
		PreviousProjects: raw.list("previous_projects", "previousProjects"),
		UpdatedAt:        raw.str("updated_at", "updatedAt"),
	}
	return nil
}

// IsManager reports whether the record belongs to a manager account.
func (e *Employee) IsManager() bool {
	return strings.EqualFold(strings.TrimSpace(e.RoleType), RoleTypeManager)
}

// Expired reports whether a Partially Available window ended before today.
func (e *Employee) Expired(today Date) bool {
	return e.Availability == AvailabilityPartial && !e.ToDate.IsZero() && e.ToDate.Before(today)
}

// Clone returns a deep copy.
func (e Employee) Clone() Employee {
	out := e
	if e.HoursAvailable != nil {
		h := *e.HoursAvailable
		out.HoursAvailable = &h
	}
	out.CurrentSkills = cloneList(e.CurrentSkills)
	out.Interests = cloneList(e.Interests)
	out.PreviousProjects = cloneList(e.PreviousProjects)
	return out
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
