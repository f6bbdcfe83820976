/*
Package calendar computes public holidays for a jurisdiction.

PURPOSE:
  Pure, deterministic holiday calculation with no I/O: the union of fixed
  national holidays, jurisdiction-specific fixed holidays, and movable
  holidays derived from Easter Sunday. Results are identical for any year
  >= 1583 (Gregorian calendar validity).

MOVABLE HOLIDAYS:
  Easter Sunday is computed with the Meeus/Jones/Butcher algorithm over
  the proleptic Gregorian calendar. The holidays derived from it:
    Good Friday    Easter - 2
    Easter Monday  Easter + 1
    Ascension      Easter + 39
    Whit Monday    Easter + 50
  Easter Sunday itself is never a public holiday entry.

SEE ALSO:
  - engine.HolidayChecker: The interface this package implements
*/
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fathom/timekeep/engine"
)

// =============================================================================
// JURISDICTION - Closed enumeration
// =============================================================================

type Jurisdiction string

const (
	Berlin      Jurisdiction = "BERLIN"
	Brandenburg Jurisdiction = "BRANDENBURG"
)

// Jurisdictions lists every supported jurisdiction.
var Jurisdictions = []Jurisdiction{Berlin, Brandenburg}

// ParseJurisdiction validates a jurisdiction identifier. Matching is
// case-insensitive.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	for _, j := range Jurisdictions {
		if strings.EqualFold(string(j), s) {
			return j, nil
		}
	}
	return "", fmt.Errorf("unknown jurisdiction %q", s)
}

func (j Jurisdiction) DisplayName() string {
	switch j {
	case Berlin:
		return "Berlin"
	case Brandenburg:
		return "Brandenburg"
	default:
		return string(j)
	}
}

// =============================================================================
// EASTER COMPUTATION - Meeus/Jones/Butcher
// =============================================================================

// EasterSunday returns Easter Sunday for the given year.
func EasterSunday(year int) engine.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return engine.NewDate(year, time.Month(month), day)
}

// =============================================================================
// HOLIDAY TABLE
// =============================================================================

// Holiday is a named public holiday date.
type Holiday struct {
	Date engine.Date
	Name string
}

// Holidays returns all public holidays for a year and jurisdiction,
// sorted by date.
func Holidays(year int, jurisdiction Jurisdiction) []Holiday {
	easter := EasterSunday(year)

	holidays := []Holiday{
		{engine.NewDate(year, time.January, 1), "New Year's Day"},
		{engine.NewDate(year, time.May, 1), "Labour Day"},
		{engine.NewDate(year, time.October, 3), "German Unity Day"},
		{engine.NewDate(year, time.December, 25), "Christmas Day"},
		{engine.NewDate(year, time.December, 26), "Boxing Day"},
		{easter.AddDays(-2), "Good Friday"},
		{easter.AddDays(1), "Easter Monday"},
		{easter.AddDays(39), "Ascension Day"},
		{easter.AddDays(50), "Whit Monday"},
	}

	switch jurisdiction {
	case Berlin:
		holidays = append(holidays, Holiday{engine.NewDate(year, time.March, 8), "International Women's Day"})
	case Brandenburg:
		holidays = append(holidays, Holiday{engine.NewDate(year, time.October, 31), "Reformation Day"})
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// IsHoliday is a membership check against the computed set for the
// date's year.
func IsHoliday(date engine.Date, jurisdiction Jurisdiction) bool {
	for _, h := range Holidays(date.Year(), jurisdiction) {
		if h.Date.Equal(date) {
			return true
		}
	}
	return false
}

// IsHalfDayHoliday reports whether the date is Dec 24 or Dec 31, which
// count as half vacation days for users with the option enabled.
func IsHalfDayHoliday(date engine.Date) bool {
	return date.Month() == time.December && (date.Day() == 24 || date.Day() == 31)
}

// =============================================================================
// ENGINE ADAPTER
// =============================================================================

// Checker binds a jurisdiction and implements engine.HolidayChecker.
type Checker struct {
	Jurisdiction Jurisdiction
}

func (c Checker) IsHoliday(date engine.Date) bool {
	return IsHoliday(date, c.Jurisdiction)
}

// Compile-time check
var _ engine.HolidayChecker = Checker{}

// For returns a checker for the jurisdiction.
func For(j Jurisdiction) Checker { return Checker{Jurisdiction: j} }
