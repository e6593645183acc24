// Package availability implements the availability window rules: validation of a
// proposed from/to date pair and matching an employee against a query range.
package availability

import (
	"strings"
	"time"

	"github.com/aimd54/staff-directory/internal/models"
)

// MaxSpanDays is the longest allowed distance between from and to.
const MaxSpanDays = 365

// DateField identifies which side of the window a rejection refers to.
type DateField string

// Window sides.
const (
	FieldFrom DateField = "from_date"
	FieldTo   DateField = "to_date"
)

// DateError is a rejected date with a message meant for the user.
type DateError struct {
	Field   DateField
	Message string
}

// Error implements the error interface.
func (e *DateError) Error() string {
	return e.Message
}

func reject(field DateField, msg string) *DateError {
	return &DateError{Field: field, Message: msg}
}

// Validator checks availability windows against the calendar day of its clock.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

// NewValidator creates a validator. A nil now uses time.Now and a nil loc uses time.Local.
func NewValidator(now func() time.Time, loc *time.Location) *Validator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Validator{now: now, loc: loc}
}

// Today returns the current calendar day in the validator's location.
func (v *Validator) Today() models.Date {
	return models.DateOf(v.now().In(v.loc))
}

// ValidateFrom checks a new from date against the current to date.
func (v *Validator) ValidateFrom(from, to string) error {
	if strings.TrimSpace(from) == "" {
		return nil
	}
	f, err := models.ParseDate(from)
	if err != nil {
		return reject(FieldFrom, "From date must be a valid date (YYYY-MM-DD).")
	}
	if f.Before(v.Today()) {
		return reject(FieldFrom, "From date cannot be earlier than today.")
	}
	if f.IsWeekend() {
		return reject(FieldFrom, "From date cannot be a Saturday or Sunday.")
	}
	t, ok := optionalDate(to)
	if !ok {
		return nil
	}
	if f.After(t) {
		return reject(FieldFrom, "From date cannot be after To date.")
	}
	if models.DaysBetween(f, t) > MaxSpanDays {
		return reject(FieldFrom, "Separation between From and To cannot exceed 1 year.")
	}
	return nil
}

// ValidateTo checks a new to date against the current from date.
func (v *Validator) ValidateTo(from, to string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	t, err := models.ParseDate(to)
	if err != nil {
		return reject(FieldTo, "To date must be a valid date (YYYY-MM-DD).")
	}
	if t.IsWeekend() {
		return reject(FieldTo, "To date cannot be a Saturday or Sunday.")
	}
	f, ok := optionalDate(from)
	if !ok {
		if t.Before(v.Today()) {
			return reject(FieldTo, "To date cannot be earlier than today.")
		}
		return nil
	}
	if t.Before(f) {
		return reject(FieldTo, "To date cannot be earlier than From date.")
	}
	if models.DaysBetween(f, t) > MaxSpanDays {
		return reject(FieldTo, "Separation between From and To cannot exceed 1 year.")
	}
	return nil
}

// ValidateWindow applies the structural rules (weekday, ordering, span) to a
// window that was not edited, so an ongoing window is not rejected for having
// started in the past.
func ValidateWindow(from, to models.Date) error {
	if !from.IsZero() && from.IsWeekend() {
		return reject(FieldFrom, "From date cannot be a Saturday or Sunday.")
	}
	if !to.IsZero() && to.IsWeekend() {
		return reject(FieldTo, "To date cannot be a Saturday or Sunday.")
	}
	if from.IsZero() || to.IsZero() {
		return nil
	}
	if to.Before(from) {
		return reject(FieldTo, "To date cannot be earlier than From date.")
	}
	if models.DaysBetween(from, to) > MaxSpanDays {
		return reject(FieldTo, "Separation between From and To cannot exceed 1 year.")
	}
	return nil
}

// optionalDate parses a counterpart value; blank or malformed counterparts count as absent.
func optionalDate(s string) (models.Date, bool) {
	if strings.TrimSpace(s) == "" {
		return models.Date{}, false
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, false
	}
	return d, true
}
