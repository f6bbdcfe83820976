/*
balance.go - Vacation balance calculation

PURPOSE:
  Computes the per-year vacation balance:

    remaining = allowance + carryover + adjustment - used

  UsedDays is always recomputed from the VACATION time-off records, never
  read from a stale stored value, so used and remaining cannot drift apart.

COUNTING MODES:
  CountCalendarDays  every calendar day in the overlap of a vacation range
                     with the year counts (the data model's inclusive
                     default).
  CountWorkingDays   only days that would otherwise be worked count:
                     weekends, public holidays, recurring off-days and
                     overriding time off are skipped, and Dec 24 / Dec 31
                     count as half days when the user enables that option.

SEE ALSO:
  - classify.go: The same precedence order drives the working-day check
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// BALANCE INPUT
// =============================================================================

// UsedDaysMode selects how vacation ranges are converted into used days.
type UsedDaysMode int

const (
	// CountCalendarDays counts every calendar day in range, inclusively.
	CountCalendarDays UsedDaysMode = iota

	// CountWorkingDays counts only days the user would otherwise work.
	CountWorkingDays
)

// BalanceInput carries everything needed to compute one (user, year)
// balance. TimeOff may contain records of any type; only VACATION records
// overlapping the year contribute to UsedDays.
type BalanceInput struct {
	UserID int64
	Year   int

	AnnualAllowanceDays decimal.Decimal
	CarriedOverDays     decimal.Decimal
	AdjustmentDays      decimal.Decimal

	TimeOff []TimeOff

	Mode UsedDaysMode

	// Working-day mode inputs. Ignored for CountCalendarDays.
	Schedule     Schedule
	Holidays     HolidayChecker
	RecurringOff func(Date) bool

	// HalfDay marks dates that consume only half a vacation day
	// (calendar.IsHalfDayHoliday for users with the option enabled).
	HalfDay func(Date) bool
}

// =============================================================================
// BALANCE CALCULATION
// =============================================================================

// CalculateBalance computes the balance for one user and year. Pure:
// identical inputs always produce identical output.
func CalculateBalance(in BalanceInput) VacationBalance {
	balance := VacationBalance{
		UserID:              in.UserID,
		Year:                in.Year,
		AnnualAllowanceDays: in.AnnualAllowanceDays,
		CarriedOverDays:     in.CarriedOverDays,
		AdjustmentDays:      in.AdjustmentDays,
		UsedDays:            UsedVacationDays(in),
	}
	balance.Recalculate()
	return balance
}

// UsedVacationDays sums the vacation days consumed within the year.
func UsedVacationDays(in BalanceInput) decimal.Decimal {
	year := YearRange(in.Year)
	used := decimal.Zero

	for _, to := range in.TimeOff {
		if to.Type != TimeOffVacation {
			continue
		}
		overlap, ok := to.Range().Intersect(year)
		if !ok {
			continue
		}
		switch in.Mode {
		case CountWorkingDays:
			used = used.Add(in.countWorkingDays(overlap))
		default:
			used = used.Add(decimal.NewFromInt(int64(overlap.Len())))
		}
	}
	return used
}

var halfDay = decimal.RequireFromString("0.5")

// countWorkingDays counts the days in the range that would otherwise be
// worked. The skip conditions mirror the classifier's precedence: a day
// that classifies as weekend, holiday, sick, personal or recurring-off
// would never have been a vacation day, so it does not consume balance.
func (in BalanceInput) countWorkingDays(r DateRange) decimal.Decimal {
	days := decimal.Zero
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		if !in.isWorkingDay(d) {
			continue
		}
		if in.HalfDay != nil && in.HalfDay(d) {
			days = days.Add(halfDay)
		} else {
			days = days.Add(decimal.NewFromInt(1))
		}
	}
	return days
}

func (in BalanceInput) isWorkingDay(d Date) bool {
	if day, ok := in.Schedule.Day(d.Weekday()); !ok || !day.IsWorkingDay {
		return false
	}
	if in.Holidays != nil && in.Holidays.IsHoliday(d) {
		return false
	}
	// Sick/personal leave covering the same date takes precedence over
	// vacation, so the day cannot also consume vacation balance.
	for _, to := range in.TimeOff {
		if to.Type != TimeOffVacation && to.Covers(d) {
			return false
		}
	}
	if in.RecurringOff != nil && in.RecurringOff(d) {
		return false
	}
	return true
}
