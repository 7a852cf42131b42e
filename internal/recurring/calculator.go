package recurring

import (
	"time"

	"github.com/rezkam/pomotodo/internal/domain"
)

// Calculator calculates the next occurrence of a reminder rule.
type Calculator interface {
	// NextOccurrence returns the smallest occurrence at or after the given instant,
	// with calendar arithmetic performed in loc.
	// Returns nil if there is no next occurrence.
	NextOccurrence(r domain.Reminder, after time.Time, loc *time.Location) *time.Time
}

// CalculatorFor returns the calculator for the given repeat type.
// Unknown repeat types are treated as one-shot reminders.
func CalculatorFor(repeat domain.RepeatType) Calculator {
	switch repeat {
	case domain.RepeatDaily:
		return &DailyCalculator{}
	case domain.RepeatWeekly:
		return &WeeklyCalculator{}
	case domain.RepeatMonthly:
		return &MonthlyCalculator{}
	default:
		return &OnceCalculator{}
	}
}

// IsRepeating reports whether the repeat type produces more than one occurrence.
func IsRepeating(repeat domain.RepeatType) bool {
	switch repeat {
	case domain.RepeatDaily, domain.RepeatWeekly, domain.RepeatMonthly:
		return true
	default:
		return false
	}
}
