package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/staff-directory/internal/models"
)

// Wednesday 2025-06-04, late evening so a UTC conversion would roll the day over.
func fixedValidator(t *testing.T) *Validator {
	t.Helper()
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, time.June, 4, 23, 30, 0, 0, loc)
	return NewValidator(func() time.Time { return now }, loc)
}

func requireDateError(t *testing.T, err error, field DateField, msg string) {
	t.Helper()
	require.Error(t, err)
	var de *DateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, field, de.Field)
	assert.Contains(t, de.Message, msg)
}

func TestValidator_Today(t *testing.T) {
	v := fixedValidator(t)
	assert.Equal(t, "2025-06-04", v.Today().String())
}

func TestValidateFrom(t *testing.T) {
	v := fixedValidator(t)

	tests := []struct {
		name    string
		from    string
		to      string
		wantMsg string
	}{
		{name: "empty clears field", from: "", to: "2025-06-06"},
		{name: "today is accepted", from: "2025-06-04", to: ""},
		{name: "weekday window", from: "2025-06-05", to: "2025-06-10"},
		{name: "same day window", from: "2025-06-05", to: "2025-06-05"},
		{name: "past date", from: "2025-06-03", wantMsg: "From date cannot be earlier than today."},
		{name: "past beats weekend", from: "2025-06-01", wantMsg: "earlier than today"},
		{name: "saturday", from: "2025-06-07", wantMsg: "From date cannot be a Saturday or Sunday."},
		{name: "sunday", from: "2025-06-08", wantMsg: "Saturday or Sunday"},
		{name: "after to", from: "2025-06-10", to: "2025-06-09", wantMsg: "From date cannot be after To date."},
		{name: "span over a year", from: "2025-06-05", to: "2026-06-08", wantMsg: "cannot exceed 1 year"},
		{name: "span exactly a year", from: "2025-06-05", to: "2026-06-05"},
		{name: "malformed", from: "06/05/2025", wantMsg: "valid date"},
		{name: "trailing text after date", from: "2025-06-09 nonsense", wantMsg: "valid date"},
		{name: "malformed counterpart ignored", from: "2025-06-05", to: "soon"},
		{name: "timestamp input", from: "2025-06-05T00:00:00.000Z", to: "2025-06-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFrom(tt.from, tt.to)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			requireDateError(t, err, FieldFrom, tt.wantMsg)
		})
	}
}

func TestValidateTo(t *testing.T) {
	v := fixedValidator(t)

	tests := []struct {
		name    string
		from    string
		to      string
		wantMsg string
	}{
		{name: "empty clears field", from: "2025-06-05", to: ""},
		{name: "weekday window", from: "2025-06-05", to: "2025-06-13"},
		{name: "saturday", from: "2025-06-05", to: "2025-06-14", wantMsg: "To date cannot be a Saturday or Sunday."},
		{name: "before from", from: "2025-06-10", to: "2025-06-09", wantMsg: "To date cannot be earlier than From date."},
		{name: "span over a year", from: "2025-06-05", to: "2026-06-08", wantMsg: "Separation between From and To cannot exceed 1 year."},
		{name: "only to in the past", to: "2025-06-03", wantMsg: "To date cannot be earlier than today."},
		{name: "only to in the future", to: "2025-06-06"},
		{name: "past to with past from is ordering only", from: "2025-06-02", to: "2025-06-03"},
		{name: "malformed", to: "tomorrow", wantMsg: "valid date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTo(tt.from, tt.to)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			requireDateError(t, err, FieldTo, tt.wantMsg)
		})
	}
}

func TestValidator_SpanRule(t *testing.T) {
	// Clock before the window so only the span rule can fire.
	v := NewValidator(func() time.Time {
		return time.Date(2024, time.December, 2, 9, 0, 0, 0, time.UTC)
	}, time.UTC)

	// 2026-01-03 is a Saturday, rejected before the span is considered.
	requireDateError(t, v.ValidateTo("2025-01-01", "2026-01-03"), FieldTo, "Saturday or Sunday")

	requireDateError(t, v.ValidateTo("2025-01-01", "2026-01-05"), FieldTo, "exceed 1 year")
	requireDateError(t, v.ValidateFrom("2025-01-01", "2026-01-05"), FieldFrom, "exceed 1 year")
	requireDateError(t, v.ValidateTo("2025-01-01", "2026-01-02"), FieldTo, "exceed 1 year")

	assert.NoError(t, v.ValidateTo("2025-01-01", "2026-01-01"))
	assert.NoError(t, v.ValidateFrom("2025-01-01", "2026-01-01"))
}

func TestValidator_AcceptsAllWeekdayPairs(t *testing.T) {
	v := fixedValidator(t)
	start := models.MustParseDate("2025-06-04")

	for i := 0; i < 60; i++ {
		from := start.AddDays(i)
		if from.IsWeekend() {
			continue
		}
		for _, span := range []int{0, 1, 4, 30, 200, 365} {
			to := from.AddDays(span)
			if to.IsWeekend() {
				continue
			}
			assert.NoError(t, v.ValidateFrom(from.String(), to.String()), "%s..%s", from, to)
			assert.NoError(t, v.ValidateTo(from.String(), to.String()), "%s..%s", from, to)
		}
	}
}

func TestValidator_RejectsEveryWeekend(t *testing.T) {
	v := fixedValidator(t)
	d := models.MustParseDate("2025-06-07")

	for i := 0; i < 20; i++ {
		sat := d.AddDays(7 * i)
		sun := sat.AddDays(1)
		for _, day := range []models.Date{sat, sun} {
			requireDateError(t, v.ValidateFrom(day.String(), ""), FieldFrom, "Saturday or Sunday")
			requireDateError(t, v.ValidateTo("", day.String()), FieldTo, "Saturday or Sunday")
		}
	}
}

func TestValidateWindow(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		to        string
		wantField DateField
		wantMsg   string
	}{
		{name: "past window is structurally fine", from: "2024-03-04", to: "2024-03-08"},
		{name: "open ended", from: "2024-03-04"},
		{name: "both empty"},
		{name: "weekend from", from: "2024-03-02", to: "2024-03-08", wantField: FieldFrom, wantMsg: "Saturday"},
		{name: "weekend to", from: "2024-03-04", to: "2024-03-09", wantField: FieldTo, wantMsg: "Saturday"},
		{name: "reversed", from: "2024-03-08", to: "2024-03-04", wantField: FieldTo, wantMsg: "earlier than From"},
		{name: "too long", from: "2024-03-04", to: "2025-03-10", wantField: FieldTo, wantMsg: "1 year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var from, to models.Date
			if tt.from != "" {
				from = models.MustParseDate(tt.from)
			}
			if tt.to != "" {
				to = models.MustParseDate(tt.to)
			}
			err := ValidateWindow(from, to)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			requireDateError(t, err, tt.wantField, tt.wantMsg)
		})
	}
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	// Parsed dates are midnight UTC, so local DST shifts do not skew the count.
	a := models.MustParseDate("2025-03-07")
	b := models.MustParseDate("2025-03-10")
	assert.Equal(t, 3, models.DaysBetween(a, b))
	assert.Equal(t, 3, models.DaysBetween(b, a))
}
