package availability

import (
	"fmt"
	"strings"

	"github.com/aimd54/staff-directory/internal/models"
)

// RangeKey selects the query window used when browsing the directory.
type RangeKey string

// Supported ranges.
const (
	RangeAny       RangeKey = "Any"
	RangeToday     RangeKey = "Today"
	RangeThisWeek  RangeKey = "This Week"
	RangeThisMonth RangeKey = "This Month"
)

// ParseRangeKey accepts the display names case-insensitively, plus snake_case forms.
// An empty string means RangeAny.
func ParseRangeKey(s string) (RangeKey, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " "))) {
	case "", "any":
		return RangeAny, nil
	case "today":
		return RangeToday, nil
	case "this week", "week":
		return RangeThisWeek, nil
	case "this month", "month":
		return RangeThisMonth, nil
	default:
		return "", fmt.Errorf("invalid range: %s (valid: Any, Today, This Week, This Month)", s)
	}
}

// QueryWindow returns the closed date interval for key relative to today.
// Weeks run Monday to Sunday. ok is false for RangeAny.
func QueryWindow(key RangeKey, today models.Date) (start, end models.Date, ok bool) {
	switch key {
	case RangeToday:
		return today, today, true
	case RangeThisWeek:
		offset := (int(today.Weekday()) + 6) % 7 // days since Monday
		start = today.AddDays(-offset)
		return start, start.AddDays(6), true
	case RangeThisMonth:
		t := today.Time()
		start = models.NewDate(t.Year(), t.Month(), 1)
		end = models.NewDate(t.Year(), t.Month()+1, 1).AddDays(-1)
		return start, end, true
	default:
		return models.Date{}, models.Date{}, false
	}
}

// Overlaps reports whether the closed intervals [a0,a1] and [b0,b1] intersect.
func Overlaps(a0, a1, b0, b1 models.Date) bool {
	return !a0.After(b1) && !b0.After(a1)
}

// IsAvailable reports whether emp counts as available within the query range.
func IsAvailable(emp *models.Employee, key RangeKey, today models.Date) bool {
	if emp == nil {
		return false
	}
	if emp.Availability == models.AvailabilityOccupied {
		return false
	}
	if key == RangeAny {
		return true
	}

	start, end, ok := QueryWindow(key, today)
	hasWindow := !emp.FromDate.IsZero() && !emp.ToDate.IsZero()

	switch emp.Availability {
	case models.AvailabilityAvailable:
		// open-ended availability
		if !hasWindow || !ok {
			return true
		}
		return Overlaps(emp.FromDate, emp.ToDate, start, end)
	case models.AvailabilityPartial:
		if !hasWindow || !ok {
			return false
		}
		return Overlaps(emp.FromDate, emp.ToDate, start, end)
	default:
		return false
	}
}
