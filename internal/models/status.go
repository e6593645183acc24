package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Availability is the capacity state an employee reports for themselves.
type Availability string

// Availability values as the backend spells them.
const (
	AvailabilityUnknown   Availability = ""
	AvailabilityAvailable Availability = "Available"
	AvailabilityOccupied  Availability = "Occupied"
	AvailabilityPartial   Availability = "Partially Available"
)

// ParseAvailability normalizes a backend string. Comparison is case-insensitive and any
// value mentioning "partial" is treated as Partially Available.
func ParseAvailability(s string) (Availability, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return AvailabilityUnknown, false
	case strings.Contains(v, "partial"):
		return AvailabilityPartial, true
	case v == "available":
		return AvailabilityAvailable, true
	case v == "occupied":
		return AvailabilityOccupied, true
	default:
		return AvailabilityUnknown, false
	}
}

// Valid reports whether a is one of the known values.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityOccupied, AvailabilityPartial:
		return true
	}
	return false
}

// UnmarshalJSON normalizes at ingestion. Unrecognized strings decode to AvailabilityUnknown.
func (a *Availability) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = AvailabilityUnknown
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("availability must be a string: %w", err)
	}
	*a, _ = ParseAvailability(s)
	return nil
}

// ProjectStatus is the lifecycle state of an activity.
type ProjectStatus string

// ProjectStatus values.
const (
	ProjectStatusOpen    ProjectStatus = "Open"
	ProjectStatusOngoing ProjectStatus = "Ongoing"
	ProjectStatusClosed  ProjectStatus = "Closed"
)

// ParseProjectStatus normalizes a status string, case-insensitively.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return ProjectStatusOpen, nil
	case "ongoing":
		return ProjectStatusOngoing, nil
	case "closed":
		return ProjectStatusClosed, nil
	default:
		return "", fmt.Errorf("invalid project status: %q (valid: Open, Ongoing, Closed)", s)
	}
}

// UnmarshalJSON accepts any casing. Unknown values decode to the empty status.
func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseProjectStatus(raw)
	if err != nil {
		*s = ""
		return nil
	}
	*s = parsed
	return nil
}
