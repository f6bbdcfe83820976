/*
classify.go - The day-classification precedence resolver

PURPOSE:
  Reconciles five possibly-overlapping inputs into exactly one DayType per
  date. Categories are evaluated in strict precedence order (see the table
  in types.go); the first match short-circuits, so ties are impossible and
  input order never matters.

EVALUATION ORDER:
  1. WEEKEND           template marks the weekday non-working
  2. PUBLIC_HOLIDAY    holiday calendar contains the date
  3. SICK              a SICK time-off range covers the date
  4. PERSONAL          a PERSONAL time-off range covers the date
  5. RECURRING_OFF_DAY the recurring off-day predicate matches
  6. VACATION          a VACATION time-off range covers the date
  7. WORK              at least one time entry exists for the date
  8. NO_ENTRY          fallback

OVERLAP NOTE:
  Overlapping time-off records of conflicting types for the same date are
  a data-integrity violation prevented upstream. When they occur anyway,
  the precedence order decides (SICK before PERSONAL before VACATION) and
  the result is deterministic but implementation-defined.

SEE ALSO:
  - accounting.go: Turns the classification into hours and status
*/
package engine

// =============================================================================
// CLASSIFIER INPUTS
// =============================================================================

// HolidayChecker answers public-holiday membership for a single
// jurisdiction. The calendar package provides the stock implementation.
type HolidayChecker interface {
	IsHoliday(date Date) bool
}

// HolidayFunc adapts a plain function to HolidayChecker.
type HolidayFunc func(Date) bool

func (f HolidayFunc) IsHoliday(date Date) bool { return f(date) }

// DayInput carries everything the classifier and the accounting need for
// one user. All fields are already-validated in-memory records; the core
// performs no I/O to obtain them.
type DayInput struct {
	Schedule Schedule
	Holidays HolidayChecker

	// TimeOff holds records whose ranges intersect the dates under
	// consideration. Records for other dates are ignored.
	TimeOff []TimeOff

	// RecurringOff is an opaque repeating off-day predicate (nil = never).
	// RuleSet.Matches is the stock implementation.
	RecurringOff func(Date) bool

	// Entries holds the time entries for the dates under consideration.
	Entries []TimeEntry
}

func (in DayInput) isHoliday(d Date) bool {
	return in.Holidays != nil && in.Holidays.IsHoliday(d)
}

func (in DayInput) hasTimeOff(d Date, typ TimeOffType) bool {
	for _, to := range in.TimeOff {
		if to.Type == typ && to.Covers(d) {
			return true
		}
	}
	return false
}

// timeOffFor returns the first record of the given type covering the date.
func (in DayInput) timeOffFor(d Date, typ TimeOffType) (TimeOff, bool) {
	for _, to := range in.TimeOff {
		if to.Type == typ && to.Covers(d) {
			return to, true
		}
	}
	return TimeOff{}, false
}

func (in DayInput) entriesOn(d Date) []TimeEntry {
	var out []TimeEntry
	for _, e := range in.Entries {
		if e.EntryDate.Equal(d) {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// PRECEDENCE RESOLUTION
// =============================================================================

// classifierStep pairs a category with its detection predicate. The slice
// below is ordered by precedence; Classify walks it front to back and the
// first match wins.
type classifierStep struct {
	Type    DayType
	Matches func(d Date, in DayInput) bool
}

var classifierOrder = []classifierStep{
	{DayWeekend, func(d Date, in DayInput) bool {
		day, ok := in.Schedule.Day(d.Weekday())
		return ok && !day.IsWorkingDay
	}},
	{DayPublicHoliday, func(d Date, in DayInput) bool {
		return in.isHoliday(d)
	}},
	{DaySick, func(d Date, in DayInput) bool {
		return in.hasTimeOff(d, TimeOffSick)
	}},
	{DayPersonal, func(d Date, in DayInput) bool {
		return in.hasTimeOff(d, TimeOffPersonal)
	}},
	{DayRecurringOff, func(d Date, in DayInput) bool {
		return in.RecurringOff != nil && in.RecurringOff(d)
	}},
	{DayVacation, func(d Date, in DayInput) bool {
		return in.hasTimeOff(d, TimeOffVacation)
	}},
	{DayWork, func(d Date, in DayInput) bool {
		return len(in.entriesOn(d)) > 0
	}},
}

// Classify returns the single winning category for a date. It never fails:
// absence of data resolves to NO_ENTRY. The schedule is assumed validated;
// a missing weekday row simply cannot match WEEKEND.
func Classify(date Date, in DayInput) DayType {
	for _, step := range classifierOrder {
		if step.Matches(date, in) {
			return step.Type
		}
	}
	return DayNoEntry
}
