/*
accounting.go - Per-day expected vs. actual hours

PURPOSE:
  Combines the day classification with the working-hour template and the
  recorded entries into a DailyResult: what was expected, what actually
  happened, and how the two compare.

EXPECTED HOURS:
  WEEKEND, PUBLIC_HOLIDAY, RECURRING_OFF_DAY  -> 0
  SICK, PERSONAL, VACATION                    -> time-off HoursPerDay
                                                 override if present, else
                                                 the template's target
  WORK, NO_ENTRY                              -> the template's target

STATUS:
  Actual hours are compared against expected hours with a symmetric
  tolerance of 0.01h. Off-day categories with zero actual hours are
  MATCHED, never flagged as shortfalls. A date with neither data nor
  classification beyond the fallback stays NO_ENTRY.

SEE ALSO:
  - classify.go: Category resolution
  - summary.go: Range aggregation over DailyResults
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAILY RESULT - Computed view, never persisted
// =============================================================================

type DayStatus string

const (
	StatusNoEntry       DayStatus = "NO_ENTRY"
	StatusBelowExpected DayStatus = "BELOW_EXPECTED"
	StatusMatched       DayStatus = "MATCHED"
	StatusAboveExpected DayStatus = "ABOVE_EXPECTED"
)

// statusTolerance is the symmetric matching tolerance in hours.
var statusTolerance = decimal.RequireFromString("0.01")

// DailyResult is the computed answer for one date. It is a pure view,
// recomputed on every query.
type DailyResult struct {
	Date          Date
	Category      DayType
	ExpectedHours decimal.Decimal
	ActualHours   decimal.Decimal
	Status        DayStatus

	// Entries holds the date's time entries in clock-in order, including
	// active ones (they contribute 0 to ActualHours but callers render
	// them as "in progress").
	Entries []TimeEntry
}

// =============================================================================
// COMPUTATION
// =============================================================================

// ComputeDay produces the DailyResult for one date. Idempotent: identical
// inputs always yield identical output. The schedule must be validated by
// the caller; ComputeDay re-checks and fails fast on a missing weekday row
// rather than inventing hours.
func ComputeDay(date Date, in DayInput) (DailyResult, error) {
	category := Classify(date, in)

	day, ok := in.Schedule.Day(date.Weekday())
	if !ok {
		return DailyResult{}, &ScheduleError{Weekday: date.Weekday(), Reason: "missing weekday row"}
	}

	entries := in.entriesOn(date)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ClockIn.Before(entries[j].ClockIn)
	})

	expected := expectedHours(date, category, day, in)
	actual := actualHours(entries)

	return DailyResult{
		Date:          date,
		Category:      category,
		ExpectedHours: expected,
		ActualHours:   actual,
		Status:        resolveStatus(category, actual, expected),
		Entries:       entries,
	}, nil
}

func expectedHours(date Date, category DayType, day WorkingDay, in DayInput) decimal.Decimal {
	switch category {
	case DayWeekend, DayPublicHoliday, DayRecurringOff:
		return decimal.Zero
	case DaySick, DayPersonal, DayVacation:
		typ := map[DayType]TimeOffType{
			DaySick:     TimeOffSick,
			DayPersonal: TimeOffPersonal,
			DayVacation: TimeOffVacation,
		}[category]
		if to, ok := in.timeOffFor(date, typ); ok && to.HoursPerDay != nil {
			return *to.HoursPerDay
		}
		return day.ExpectedHours()
	default: // WORK, NO_ENTRY
		return day.ExpectedHours()
	}
}

// actualHours sums completed entries. Active entries contribute nothing.
func actualHours(entries []TimeEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if hours, done := e.HoursWorked(); done {
			total = total.Add(hours)
		}
	}
	return total
}

func resolveStatus(category DayType, actual, expected decimal.Decimal) DayStatus {
	if actual.IsZero() {
		if category == DayNoEntry {
			return StatusNoEntry
		}
		if category.IsOffDay() {
			// Nobody worked and nobody was supposed to; an hours-per-day
			// override on the time-off record is not a shortfall either.
			return StatusMatched
		}
	}

	diff := actual.Sub(expected)
	switch {
	case diff.Abs().LessThanOrEqual(statusTolerance):
		return StatusMatched
	case diff.IsNegative():
		return StatusBelowExpected
	default:
		return StatusAboveExpected
	}
}
