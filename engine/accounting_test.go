package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fathom/timekeep/engine"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// END-TO-END DAY COMPUTATION
// =============================================================================

func TestComputeDay_RegularWorkDayMatches(t *testing.T) {
	// GIVEN: A Wednesday with an 8h target and a 09:00-17:30 entry with a
	//        30 minute break
	// WHEN: Computing the day
	// THEN: WORK, expected 8, actual 8, MATCHED

	wednesday := date(2024, time.June, 5)
	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		Entries:  []engine.TimeEntry{completedEntry(wednesday)},
	}

	result, err := engine.ComputeDay(wednesday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if result.Category != engine.DayWork {
		t.Errorf("category = %s, want WORK", result.Category)
	}
	if !result.ExpectedHours.Equal(mustDecimal("8")) {
		t.Errorf("expected hours = %s, want 8", result.ExpectedHours)
	}
	if !result.ActualHours.Equal(mustDecimal("8")) {
		t.Errorf("actual hours = %s, want 8", result.ActualHours)
	}
	if result.Status != engine.StatusMatched {
		t.Errorf("status = %s, want MATCHED", result.Status)
	}
}

func TestComputeDay_ActiveEntryContributesNothing(t *testing.T) {
	// An entry without a clock-out makes the day WORK but adds 0 hours.
	monday := date(2024, time.June, 3)
	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		Entries:  []engine.TimeEntry{activeEntry(monday)},
	}

	result, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if result.Category != engine.DayWork {
		t.Errorf("category = %s, want WORK", result.Category)
	}
	if !result.ActualHours.IsZero() {
		t.Errorf("actual hours = %s, want 0", result.ActualHours)
	}
	if result.Status != engine.StatusBelowExpected {
		t.Errorf("status = %s, want BELOW_EXPECTED", result.Status)
	}
	if len(result.Entries) != 1 {
		t.Errorf("entries = %d, want the active entry included", len(result.Entries))
	}
}

func TestComputeDay_MultipleEntriesSumAndSort(t *testing.T) {
	// GIVEN: A morning and an afternoon entry, supplied out of order
	// WHEN: Computing the day
	// THEN: Hours are summed and entries come back in clock-in order

	monday := date(2024, time.June, 3)
	morningIn := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	morningOut := morningIn.Add(4 * time.Hour)
	afternoonIn := time.Date(2024, time.June, 3, 14, 0, 0, 0, time.UTC)
	afternoonOut := afternoonIn.Add(3 * time.Hour)

	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		Entries: []engine.TimeEntry{
			{EntryDate: monday, ClockIn: afternoonIn, ClockOut: &afternoonOut, EntryType: engine.EntryWork},
			{EntryDate: monday, ClockIn: morningIn, ClockOut: &morningOut, EntryType: engine.EntryWork},
		},
	}

	result, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if !result.ActualHours.Equal(mustDecimal("7")) {
		t.Errorf("actual hours = %s, want 7", result.ActualHours)
	}
	if result.Status != engine.StatusBelowExpected {
		t.Errorf("status = %s, want BELOW_EXPECTED", result.Status)
	}
	if !result.Entries[0].ClockIn.Equal(morningIn) {
		t.Error("entries should be sorted by clock-in time")
	}
}

func TestComputeDay_WeekendAndHolidayExpectZero(t *testing.T) {
	saturday := date(2024, time.June, 1)
	mayDay := date(2024, time.May, 1)

	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		Holidays: holidayOn(mayDay),
	}

	for _, tc := range []struct {
		date engine.Date
		want engine.DayType
	}{
		{saturday, engine.DayWeekend},
		{mayDay, engine.DayPublicHoliday},
	} {
		result, err := engine.ComputeDay(tc.date, in)
		if err != nil {
			t.Fatalf("ComputeDay(%s): %v", tc.date, err)
		}
		if result.Category != tc.want {
			t.Errorf("category(%s) = %s, want %s", tc.date, result.Category, tc.want)
		}
		if !result.ExpectedHours.IsZero() {
			t.Errorf("expected hours(%s) = %s, want 0", tc.date, result.ExpectedHours)
		}
		if result.Status != engine.StatusMatched {
			t.Errorf("status(%s) = %s, want MATCHED", tc.date, result.Status)
		}
	}
}

func TestComputeDay_TimeOffUsesHoursOverride(t *testing.T) {
	// GIVEN: Sick leave with a 4h per-day override on an 8h weekday
	// WHEN: Computing the day
	// THEN: Expected hours come from the override, status stays MATCHED

	monday := date(2024, time.June, 3)
	override := mustDecimal("4")
	sick := engine.TimeOff{
		StartDate:   monday,
		EndDate:     monday,
		Type:        engine.TimeOffSick,
		HoursPerDay: &override,
	}
	in := engine.DayInput{Schedule: weekdaySchedule(), TimeOff: []engine.TimeOff{sick}}

	result, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if !result.ExpectedHours.Equal(override) {
		t.Errorf("expected hours = %s, want 4", result.ExpectedHours)
	}
	if result.Status != engine.StatusMatched {
		t.Errorf("status = %s, want MATCHED", result.Status)
	}
}

func TestComputeDay_VacationWithoutOverrideUsesTemplate(t *testing.T) {
	monday := date(2024, time.June, 3)
	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		TimeOff:  []engine.TimeOff{vacation(monday, monday)},
	}
	result, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if !result.ExpectedHours.Equal(mustDecimal("8")) {
		t.Errorf("expected hours = %s, want the template's 8", result.ExpectedHours)
	}
	if result.Status != engine.StatusMatched {
		t.Errorf("status = %s, want MATCHED", result.Status)
	}
}

func TestComputeDay_NoEntryStatus(t *testing.T) {
	monday := date(2024, time.June, 3)
	result, err := engine.ComputeDay(monday, engine.DayInput{Schedule: weekdaySchedule()})
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if result.Category != engine.DayNoEntry {
		t.Errorf("category = %s, want NO_ENTRY", result.Category)
	}
	if result.Status != engine.StatusNoEntry {
		t.Errorf("status = %s, want NO_ENTRY", result.Status)
	}
	if !result.ExpectedHours.Equal(mustDecimal("8")) {
		t.Errorf("expected hours = %s, want 8", result.ExpectedHours)
	}
}

func TestComputeDay_ToleranceBoundaries(t *testing.T) {
	// 8h target with a symmetric 0.01h tolerance.
	monday := date(2024, time.June, 3)
	cases := []struct {
		minutes int // worked minutes without break
		want    engine.DayStatus
	}{
		{480, engine.StatusMatched},       // exactly 8.00
		{479, engine.StatusBelowExpected}, // 7.9833, diff 0.0167 > tolerance
		{474, engine.StatusBelowExpected}, // 7.90
		{487, engine.StatusAboveExpected}, // 8.1167
	}

	for _, tc := range cases {
		clockIn := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
		clockOut := clockIn.Add(time.Duration(tc.minutes) * time.Minute)
		in := engine.DayInput{
			Schedule: weekdaySchedule(),
			Entries: []engine.TimeEntry{{
				EntryDate: monday, ClockIn: clockIn, ClockOut: &clockOut,
				EntryType: engine.EntryWork,
			}},
		}
		result, err := engine.ComputeDay(monday, in)
		if err != nil {
			t.Fatalf("ComputeDay: %v", err)
		}
		if result.Status != tc.want {
			t.Errorf("%d minutes: status = %s, want %s", tc.minutes, result.Status, tc.want)
		}
	}
}

func TestComputeDay_MissingWeekdayRowFails(t *testing.T) {
	// GIVEN: A schedule lacking the Sunday row
	// WHEN: Computing a Sunday
	// THEN: A schedule error, not invented hours

	incomplete := engine.Schedule{Days: weekdaySchedule().Days[:6]}
	sunday := date(2024, time.June, 2)

	_, err := engine.ComputeDay(sunday, engine.DayInput{Schedule: incomplete})
	if err == nil {
		t.Fatal("expected an error for the missing weekday row")
	}
	if !engine.IsClientError(err) {
		t.Errorf("expected a client error, got %v", err)
	}
}

func TestComputeDay_Idempotent(t *testing.T) {
	monday := date(2024, time.June, 3)
	in := engine.DayInput{
		Schedule: weekdaySchedule(),
		Entries:  []engine.TimeEntry{completedEntry(monday)},
	}
	first, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	second, err := engine.ComputeDay(monday, in)
	if err != nil {
		t.Fatalf("ComputeDay: %v", err)
	}
	if first.Category != second.Category ||
		!first.ExpectedHours.Equal(second.ExpectedHours) ||
		!first.ActualHours.Equal(second.ActualHours) ||
		first.Status != second.Status {
		t.Error("identical inputs must produce identical results")
	}
}

// =============================================================================
// ENTRY HOURS
// =============================================================================

func TestHoursWorked_SubtractsBreak(t *testing.T) {
	monday := date(2024, time.June, 3)
	entry := completedEntry(monday) // 8.5h span, 30 min break

	hours, done := entry.HoursWorked()
	if !done {
		t.Fatal("completed entry should report hours")
	}
	if !hours.Equal(mustDecimal("8")) {
		t.Errorf("hours = %s, want 8", hours)
	}
}

func TestHoursWorked_ActiveEntryHasNone(t *testing.T) {
	if _, done := activeEntry(date(2024, time.June, 3)).HoursWorked(); done {
		t.Error("active entry should not report hours")
	}
}
