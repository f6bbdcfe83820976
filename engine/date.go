package engine

import (
	"time"
)

// =============================================================================
// DATE - Calendar date with day precision
// =============================================================================

// Date is a calendar date. Time-of-day and zone are deliberately absent:
// every computation in this package operates on whole calendar days, so a
// Date normalizes to midnight UTC internally.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date (in the timestamp's location).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a date in ISO format (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.t.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

// Weekday returns the ISO weekday: 1=Monday .. 7=Sunday.
// Working-hour templates are keyed by this value.
func (d Date) Weekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7 // Sunday
	}
	return wd
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Time returns the underlying midnight-UTC timestamp, for formatting.
func (d Date) Time() time.Time { return d.t }

// DaysBetween returns the number of whole days from a to b (negative if b < a).
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// WeeksBetween returns the number of whole weeks from a to b.
func WeeksBetween(a, b Date) int {
	days := DaysBetween(a, b)
	if days < 0 {
		// Round toward negative infinity so partial weeks before the
		// reference date never count as week zero.
		return -((-days + 6) / 7)
	}
	return days / 7
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start Date
	End   Date
}

func NewDateRange(start, end Date) DateRange { return DateRange{Start: start, End: end} }

func YearRange(year int) DateRange {
	return DateRange{Start: StartOfYear(year), End: EndOfYear(year)}
}

func MonthRange(year int, month time.Month) DateRange {
	return DateRange{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// IsValid reports whether Start <= End.
func (r DateRange) IsValid() bool { return r.Start.BeforeOrEqual(r.End) }

// Contains reports whether the date falls within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Intersect clips the range to another range. The second return value is
// false when the two ranges do not overlap.
func (r DateRange) Intersect(other DateRange) (DateRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if start.After(end) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

// Days returns every date in the range in ascending order.
func (r DateRange) Days() []Date {
	var days []Date
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of calendar days in the range.
func (r DateRange) Len() int {
	if !r.IsValid() {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// CLOCK TIME - Time of day for template start/end times
// =============================================================================

// ClockTime is a time of day with minute precision (no date, no zone).
type ClockTime struct {
	Hour   int
	Minute int
}

func NewClockTime(hour, minute int) ClockTime { return ClockTime{Hour: hour, Minute: minute} }

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, err
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MinutesOfDay returns minutes since midnight.
func (c ClockTime) MinutesOfDay() int { return c.Hour*60 + c.Minute }

func (c ClockTime) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format("15:04")
}
