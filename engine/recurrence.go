/*
recurrence.go - Recurring off-day rules

PURPOSE:
  Concrete repeating off-day patterns (e.g., every 2nd Monday, or the 4th
  Friday of each month). The classifier only sees an opaque func(Date) bool
  predicate; RuleSet.Matches is the stock implementation of that predicate.

PATTERNS:
  EVERY_NTH_WEEK        weekday + week interval counted from a reference date
  NTH_WEEKDAY_OF_MONTH  weekday + occurrence number (5 = last of the month)

Both patterns respect the rule's validity window, its active flag, and
per-date exemptions (an exempted date is a regular working day again).
*/
package engine

// =============================================================================
// RECURRING RULE
// =============================================================================

type RecurrencePattern string

const (
	EveryNthWeek      RecurrencePattern = "EVERY_NTH_WEEK"
	NthWeekdayOfMonth RecurrencePattern = "NTH_WEEKDAY_OF_MONTH"
)

type RecurringRule struct {
	ID      int64
	UserID  int64
	Pattern RecurrencePattern
	Weekday int // 1=Monday .. 7=Sunday

	// EVERY_NTH_WEEK fields.
	WeekInterval  int
	ReferenceDate Date

	// NTH_WEEKDAY_OF_MONTH field: 1-4 = that occurrence, 5 = last.
	WeekOfMonth int

	// Validity window. EndDate nil means open-ended.
	StartDate Date
	EndDate   *Date

	Active      bool
	Description string

	// Exemptions are dates the rule explicitly does not apply to.
	Exemptions []Date
}

// Validate checks the rule's structural fields.
func (r RecurringRule) Validate() error {
	if r.Weekday < 1 || r.Weekday > 7 {
		return &RuleError{Field: "weekday", Reason: "must be 1 (Monday) through 7 (Sunday)"}
	}
	if r.StartDate.IsZero() {
		return &RuleError{Field: "start_date", Reason: "required"}
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return &RuleError{Field: "end_date", Reason: "before start_date"}
	}
	switch r.Pattern {
	case EveryNthWeek:
		if r.WeekInterval < 1 {
			return &RuleError{Field: "week_interval", Reason: "must be at least 1"}
		}
		if r.ReferenceDate.IsZero() {
			return &RuleError{Field: "reference_date", Reason: "required"}
		}
	case NthWeekdayOfMonth:
		if r.WeekOfMonth < 1 || r.WeekOfMonth > 5 {
			return &RuleError{Field: "week_of_month", Reason: "must be 1 through 5"}
		}
	default:
		return &RuleError{Field: "pattern", Reason: "unknown pattern"}
	}
	return nil
}

// Matches reports whether the rule makes the date an off-day. Exempted
// dates never match.
func (r RecurringRule) Matches(date Date) bool {
	if !r.Active {
		return false
	}
	if date.Before(r.StartDate) {
		return false
	}
	if r.EndDate != nil && date.After(*r.EndDate) {
		return false
	}
	if date.Weekday() != r.Weekday {
		return false
	}
	for _, ex := range r.Exemptions {
		if ex.Equal(date) {
			return false
		}
	}

	switch r.Pattern {
	case EveryNthWeek:
		return r.matchesEveryNthWeek(date)
	case NthWeekdayOfMonth:
		return r.matchesNthWeekdayOfMonth(date)
	default:
		return false
	}
}

func (r RecurringRule) matchesEveryNthWeek(date Date) bool {
	if r.WeekInterval < 1 || r.ReferenceDate.IsZero() {
		return false
	}
	// Reference and date share a weekday at this point, so the distance is
	// a whole number of weeks.
	weeks := WeeksBetween(r.ReferenceDate, date)
	return weeks >= 0 && weeks%r.WeekInterval == 0
}

func (r RecurringRule) matchesNthWeekdayOfMonth(date Date) bool {
	if r.WeekOfMonth < 1 || r.WeekOfMonth > 5 {
		return false
	}
	// 5 means "last occurrence of this weekday in the month".
	if r.WeekOfMonth == 5 {
		return date.AddDays(7).Month() != date.Month()
	}
	occurrence := (date.Day()-1)/7 + 1
	return occurrence == r.WeekOfMonth
}

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet bundles a user's recurring rules into one predicate.
type RuleSet []RecurringRule

// Matches reports whether any rule makes the date an off-day.
func (rs RuleSet) Matches(date Date) bool {
	for _, r := range rs {
		if r.Matches(date) {
			return true
		}
	}
	return false
}

// Predicate returns the opaque form the classifier consumes.
func (rs RuleSet) Predicate() func(Date) bool {
	if len(rs) == 0 {
		return nil
	}
	return rs.Matches
}
