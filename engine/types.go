/*
Package engine implements the day-classification and time-accounting core.

PURPOSE:
  Answers, for any user and any calendar date, "what kind of day was this,
  and how many hours were expected versus actually worked?" Five independent
  inputs (working-hour templates, public holidays, time-off records,
  recurring off-day rules, recorded work entries) are reconciled into a
  single unambiguous day category per date, and a vacation balance is
  derived from the same time-off records.

KEY CONCEPTS IN THIS FILE (types.go):
  - DayType: The eight-category classification with its precedence table
  - WorkingDay/Schedule: Per-weekday working-hour template
  - TimeEntry: A recorded clock-in/clock-out span
  - TimeOff: An inclusive date range of vacation/sick/personal leave
  - VacationBalance: Per-year allowance arithmetic (days, not hours)

DESIGN PRINCIPLES:
  1. Purity: Every computation is a pure function of injected inputs.
     No I/O, no clocks, no global state anywhere in this package.
  2. Precision: All day/hour quantities use decimal.Decimal so a year of
     accumulation never drifts.
  3. Precedence as data: The category order lives in one ordered table,
     testable in isolation from the predicates that detect each category.

SEE ALSO:
  - classify.go: The precedence resolver
  - accounting.go: Expected vs. actual hours per day
  - summary.go: Range aggregation
  - balance.go: Vacation balance calculation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY TYPE - The single winning classification for a date
// =============================================================================

type DayType string

const (
	DayWeekend         DayType = "WEEKEND"
	DayPublicHoliday   DayType = "PUBLIC_HOLIDAY"
	DaySick            DayType = "SICK"
	DayPersonal        DayType = "PERSONAL"
	DayRecurringOff    DayType = "RECURRING_OFF_DAY"
	DayVacation        DayType = "VACATION"
	DayWork            DayType = "WORK"
	DayNoEntry         DayType = "NO_ENTRY"
)

// dayTypePriority is the authoritative precedence table. Lower number wins.
//
// Rationale for the exact order: statutory holidays and contractual
// non-working days must never be overridden by personal choices (vacation
// cannot "use up" a holiday); sick and personal leave override a recurring
// off-day because illness is not a scheduling choice; vacation is checked
// after recurring off-days so a pre-scheduled off day does not also consume
// vacation balance.
var dayTypePriority = map[DayType]int{
	DayWeekend:       1,
	DayPublicHoliday: 2,
	DaySick:          3,
	DayPersonal:      4,
	DayRecurringOff:  5,
	DayVacation:      6,
	DayWork:          7,
	DayNoEntry:       8,
}

// Priority returns the precedence rank (1 = highest). Unknown types rank last.
func (t DayType) Priority() int {
	if p, ok := dayTypePriority[t]; ok {
		return p
	}
	return 99
}

// TakesPrecedenceOver reports whether t wins against other when both match.
func (t DayType) TakesPrecedenceOver(other DayType) bool {
	return t.Priority() < other.Priority()
}

// IsOffDay reports whether the category expects no work to happen
// (everything above WORK in the precedence order).
func (t DayType) IsOffDay() bool {
	return t.Priority() < dayTypePriority[DayWork]
}

// =============================================================================
// WORKING-HOUR TEMPLATE - One row per weekday
// =============================================================================

// WorkingDay is the working-hour template for a single weekday.
// Exactly one row exists per (user, weekday).
type WorkingDay struct {
	Weekday      int // 1=Monday .. 7=Sunday
	IsWorkingDay bool
	TargetHours  decimal.Decimal

	// Optional start/end times. When both are set, TargetHours is derived
	// as (EndTime - StartTime) - BreakMinutes; otherwise TargetHours is
	// authoritative.
	StartTime    *ClockTime
	EndTime      *ClockTime
	BreakMinutes int
}

// ExpectedHours returns the target hours for this weekday, deriving from
// start/end times when both are configured.
func (w WorkingDay) ExpectedHours() decimal.Decimal {
	if !w.IsWorkingDay {
		return decimal.Zero
	}
	if w.StartTime != nil && w.EndTime != nil {
		minutes := w.EndTime.MinutesOfDay() - w.StartTime.MinutesOfDay() - w.BreakMinutes
		if minutes < 0 {
			minutes = 0
		}
		return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
	}
	return w.TargetHours
}

// Schedule is a user's full weekly template: one WorkingDay per weekday.
type Schedule struct {
	Days []WorkingDay
}

// Day returns the template row for an ISO weekday (1-7).
func (s Schedule) Day(weekday int) (WorkingDay, bool) {
	for _, d := range s.Days {
		if d.Weekday == weekday {
			return d, true
		}
	}
	return WorkingDay{}, false
}

// Validate checks that every weekday 1-7 is covered exactly once.
// Callers gather schedules from storage pre-validated; this is the
// fail-fast guard for anything that slipped through.
func (s Schedule) Validate() error {
	seen := make(map[int]bool, 7)
	for _, d := range s.Days {
		if d.Weekday < 1 || d.Weekday > 7 {
			return &ScheduleError{Weekday: d.Weekday, Reason: "weekday out of range"}
		}
		if seen[d.Weekday] {
			return &ScheduleError{Weekday: d.Weekday, Reason: "duplicate weekday row"}
		}
		seen[d.Weekday] = true
	}
	for wd := 1; wd <= 7; wd++ {
		if !seen[wd] {
			return &ScheduleError{Weekday: wd, Reason: "missing weekday row"}
		}
	}
	return nil
}

// DefaultSchedule returns a Mon-Fri schedule with the given daily hours.
func DefaultSchedule(dailyHours decimal.Decimal) Schedule {
	days := make([]WorkingDay, 0, 7)
	for wd := 1; wd <= 7; wd++ {
		working := wd <= 5
		hours := decimal.Zero
		if working {
			hours = dailyHours
		}
		days = append(days, WorkingDay{Weekday: wd, IsWorkingDay: working, TargetHours: hours})
	}
	return Schedule{Days: days}
}

// =============================================================================
// TIME ENTRY - A recorded clock-in/clock-out span
// =============================================================================

// EntryType is the kind of a time entry. Only WORK is part of the canonical
// set; absences are modeled as TimeOff records, never as entries.
type EntryType string

const (
	EntryWork EntryType = "WORK"
)

type TimeEntry struct {
	ID           int64
	UserID       int64
	EntryDate    Date
	ClockIn      time.Time
	ClockOut     *time.Time // nil while the entry is still running
	BreakMinutes int
	EntryType    EntryType
	Notes        string
}

// IsActive reports whether the entry has not been clocked out yet.
func (e TimeEntry) IsActive() bool { return e.ClockOut == nil }

// HoursWorked returns the net worked hours (clock span minus break).
// The second return value is false for active entries, which have no
// duration yet. ClockOut >= ClockIn is an upstream validation invariant.
func (e TimeEntry) HoursWorked() (decimal.Decimal, bool) {
	if e.ClockOut == nil {
		return decimal.Zero, false
	}
	seconds := int64(e.ClockOut.Sub(e.ClockIn).Seconds())
	seconds -= int64(e.BreakMinutes) * 60
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)), true
}

// =============================================================================
// TIME OFF - Inclusive absence range
// =============================================================================

type TimeOffType string

const (
	TimeOffVacation      TimeOffType = "VACATION"
	TimeOffSick          TimeOffType = "SICK"
	TimeOffPersonal      TimeOffType = "PERSONAL"
	TimeOffPublicHoliday TimeOffType = "PUBLIC_HOLIDAY"
)

type TimeOff struct {
	ID        int64
	UserID    int64
	StartDate Date
	EndDate   Date // inclusive
	Type      TimeOffType

	// Optional per-day hours override. When set, it replaces the template's
	// target hours for every day in the range.
	HoursPerDay *decimal.Decimal

	Notes string
}

// Covers reports whether the date falls inside [StartDate, EndDate].
func (t TimeOff) Covers(d Date) bool {
	return d.AfterOrEqual(t.StartDate) && d.BeforeOrEqual(t.EndDate)
}

// Range returns the inclusive date range of the record.
func (t TimeOff) Range() DateRange { return DateRange{Start: t.StartDate, End: t.EndDate} }

// =============================================================================
// VACATION BALANCE - Per (user, year), tracked in days
// =============================================================================

type VacationBalance struct {
	UserID int64
	Year   int

	AnnualAllowanceDays decimal.Decimal
	CarriedOverDays     decimal.Decimal
	AdjustmentDays      decimal.Decimal
	UsedDays            decimal.Decimal

	// RemainingDays is derived, never stored independently of UsedDays:
	// allowance + carryover + adjustment - used.
	RemainingDays decimal.Decimal
}

// Recalculate recomputes RemainingDays from the other components.
// UsedDays and RemainingDays always move together so the two numbers
// cannot drift apart.
func (b *VacationBalance) Recalculate() {
	b.RemainingDays = b.AnnualAllowanceDays.
		Add(b.CarriedOverDays).
		Add(b.AdjustmentDays).
		Sub(b.UsedDays)
}

// =============================================================================
// USER - Ownership anchor for all records
// =============================================================================

type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Jurisdiction string // validated against calendar.Jurisdictions by the caller

	// HalfDayHolidays enables counting Dec 24 and Dec 31 as half vacation
	// days in the working-days balance mode.
	HalfDayHolidays bool
}

func (u User) FullName() string { return u.FirstName + " " + u.LastName }
