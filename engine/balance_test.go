package engine_test

import (
	"testing"
	"time"

	"github.com/fathom/timekeep/engine"
)

// =============================================================================
// BALANCE ARITHMETIC TESTS
// =============================================================================

func TestCalculateBalance_FiveDayVacation(t *testing.T) {
	// GIVEN: 30 allowance, 0 carryover/adjustment, one Mon-Fri vacation
	// WHEN: Calculating the balance in calendar-day mode
	// THEN: 5 used, 25 remaining

	in := engine.BalanceInput{
		UserID:              1,
		Year:                2024,
		AnnualAllowanceDays: mustDecimal("30"),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.June, 3), date(2024, time.June, 7)),
		},
	}

	balance := engine.CalculateBalance(in)
	if !balance.UsedDays.Equal(mustDecimal("5")) {
		t.Errorf("used = %s, want 5", balance.UsedDays)
	}
	if !balance.RemainingDays.Equal(mustDecimal("25")) {
		t.Errorf("remaining = %s, want 25", balance.RemainingDays)
	}
}

func TestCalculateBalance_ComponentsSum(t *testing.T) {
	// remaining = allowance + carryover + adjustment - used
	in := engine.BalanceInput{
		UserID:              1,
		Year:                2024,
		AnnualAllowanceDays: mustDecimal("28"),
		CarriedOverDays:     mustDecimal("3"),
		AdjustmentDays:      mustDecimal("-1"),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.July, 1), date(2024, time.July, 4)),
		},
	}
	balance := engine.CalculateBalance(in)
	if !balance.UsedDays.Equal(mustDecimal("4")) {
		t.Errorf("used = %s, want 4", balance.UsedDays)
	}
	if !balance.RemainingDays.Equal(mustDecimal("26")) {
		t.Errorf("remaining = %s, want 26", balance.RemainingDays)
	}
}

func TestCalculateBalance_NegativeRemainingAllowed(t *testing.T) {
	in := engine.BalanceInput{
		UserID:              1,
		Year:                2024,
		AnnualAllowanceDays: mustDecimal("2"),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.June, 3), date(2024, time.June, 7)),
		},
	}
	balance := engine.CalculateBalance(in)
	if !balance.RemainingDays.Equal(mustDecimal("-3")) {
		t.Errorf("remaining = %s, want -3 (overdraw is representable)", balance.RemainingDays)
	}
}

func TestUsedVacationDays_ClampsToYear(t *testing.T) {
	// GIVEN: A vacation spanning Dec 30 2024 through Jan 2 2025
	// WHEN: Calculating 2024's used days
	// THEN: Only the two December days count

	in := engine.BalanceInput{
		Year: 2024,
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.December, 30), date(2025, time.January, 2)),
		},
	}
	if used := engine.UsedVacationDays(in); !used.Equal(mustDecimal("2")) {
		t.Errorf("used = %s, want 2", used)
	}
}

func TestUsedVacationDays_IgnoresOtherTypes(t *testing.T) {
	in := engine.BalanceInput{
		Year: 2024,
		TimeOff: []engine.TimeOff{
			timeOff(engine.TimeOffSick, date(2024, time.June, 3), date(2024, time.June, 7)),
			timeOff(engine.TimeOffPersonal, date(2024, time.July, 1), date(2024, time.July, 1)),
		},
	}
	if used := engine.UsedVacationDays(in); !used.IsZero() {
		t.Errorf("used = %s, want 0", used)
	}
}

// =============================================================================
// WORKING-DAY MODE TESTS
// =============================================================================

func TestUsedVacationDays_WorkingDayModeSkipsWeekendsAndHolidays(t *testing.T) {
	// GIVEN: Vacation Wed May 1 (holiday) through Tue May 7 2024
	// WHEN: Counting in working-day mode
	// THEN: Thu 2, Fri 3, Mon 6, Tue 7 count; the holiday and
	//       the weekend do not

	in := engine.BalanceInput{
		Year:     2024,
		Mode:     engine.CountWorkingDays,
		Schedule: weekdaySchedule(),
		Holidays: holidayOn(date(2024, time.May, 1)),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.May, 1), date(2024, time.May, 7)),
		},
	}
	if used := engine.UsedVacationDays(in); !used.Equal(mustDecimal("4")) {
		t.Errorf("used = %s, want 4", used)
	}
}

func TestUsedVacationDays_WorkingDayModeHalfDays(t *testing.T) {
	// GIVEN: Vacation Mon Dec 23 through Tue Dec 24 2024, with Dec 24
	//        marked as a half day
	// WHEN: Counting in working-day mode
	// THEN: 1.5 days consumed

	in := engine.BalanceInput{
		Year:     2024,
		Mode:     engine.CountWorkingDays,
		Schedule: weekdaySchedule(),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.December, 23), date(2024, time.December, 24)),
		},
		HalfDay: func(d engine.Date) bool {
			return d.Month() == time.December && (d.Day() == 24 || d.Day() == 31)
		},
	}
	if used := engine.UsedVacationDays(in); !used.Equal(mustDecimal("1.5")) {
		t.Errorf("used = %s, want 1.5", used)
	}
}

func TestUsedVacationDays_WorkingDayModeSkipsOverlappingSickLeave(t *testing.T) {
	// A sick day inside a vacation range does not consume vacation.
	in := engine.BalanceInput{
		Year:     2024,
		Mode:     engine.CountWorkingDays,
		Schedule: weekdaySchedule(),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.June, 3), date(2024, time.June, 7)),
			timeOff(engine.TimeOffSick, date(2024, time.June, 5), date(2024, time.June, 5)),
		},
	}
	if used := engine.UsedVacationDays(in); !used.Equal(mustDecimal("4")) {
		t.Errorf("used = %s, want 4", used)
	}
}

func TestCalculateBalance_Pure(t *testing.T) {
	in := engine.BalanceInput{
		UserID:              7,
		Year:                2024,
		AnnualAllowanceDays: mustDecimal("30"),
		TimeOff: []engine.TimeOff{
			vacation(date(2024, time.August, 5), date(2024, time.August, 16)),
		},
	}
	first := engine.CalculateBalance(in)
	second := engine.CalculateBalance(in)
	if !first.UsedDays.Equal(second.UsedDays) || !first.RemainingDays.Equal(second.RemainingDays) {
		t.Error("identical inputs must produce identical balances")
	}
}
