/*
report.go - Monthly timesheet CSV export

PURPOSE:
  Renders one month of daily results as a semicolon-separated CSV that
  German Excel opens cleanly: UTF-8 with BOM, comma decimal separator,
  German day and month names.

LAYOUT:
  Stundenzettel <Monat Jahr>
  Mitarbeiter;<name>

  Datum;Anfang;Pause (min);Ende;Gesamt;Überstunden
  <one row per calendar day>

  Zusammenfassung
  Gesamtstunden;<sum>
  Sollstunden;<sum>
  Gesamtüberstunden;<signed sum>

SEE ALSO:
  - handlers.go: Route wiring and input parsing
  - engine/summary.go: The daily results behind the rows
*/
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fathom/timekeep/engine"
)

var germanWeekdays = [8]string{"", "Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

var germanMonths = [13]string{"",
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthlyReport renders a month's timesheet as CSV.
// GET /api/users/{id}/reports/monthly.csv?year=&month=
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	year, ok := yearFromQuery(w, r)
	if !ok {
		return
	}
	month, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	monthRange := engine.MonthRange(year, month)
	input, err := h.gatherDayInput(r, user, monthRange)
	if err != nil {
		writeEngineError(w, "Failed to gather records", err)
		return
	}
	summary, err := engine.Summarize(monthRange, input)
	if err != nil {
		writeEngineError(w, "Failed to compute summary", err)
		return
	}

	csv := renderMonthlyCSV(user, year, month, summary)
	filename := fmt.Sprintf("stundenzettel-%04d-%02d.csv", year, int(month))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(csv))
}

func monthFromQuery(r *http.Request) (time.Month, error) {
	raw := r.URL.Query().Get("month")
	var m int
	if _, err := fmt.Sscanf(raw, "%d", &m); err != nil {
		return 0, err
	}
	if m < 1 || m > 12 {
		return 0, fmt.Errorf("month %d out of range", m)
	}
	return time.Month(m), nil
}

// renderMonthlyCSV builds the semicolon-separated timesheet. The leading
// BOM makes Excel detect UTF-8.
func renderMonthlyCSV(user engine.User, year int, month time.Month, summary engine.Summary) string {
	var b strings.Builder
	b.WriteString("\ufeff")

	fmt.Fprintf(&b, "Stundenzettel %s %d\n", germanMonths[int(month)], year)
	fmt.Fprintf(&b, "Mitarbeiter;%s %s\n\n", user.FirstName, user.LastName)

	b.WriteString("Datum;Anfang;Pause (min);Ende;Gesamt;Überstunden\n")

	for _, day := range summary.Days {
		start, pause, end := entrySpan(day.Entries)
		overtime := ""
		if day.ActualHours.IsPositive() || day.ExpectedHours.IsPositive() {
			overtime = formatGermanHours(day.ActualHours.Sub(day.ExpectedHours))
		}
		total := ""
		if day.ActualHours.IsPositive() {
			total = formatGermanHours(day.ActualHours)
		}
		fmt.Fprintf(&b, "%s, %s;%s;%s;%s;%s;%s\n",
			germanWeekdays[day.Date.Weekday()],
			day.Date.Time().Format("02.01.2006"),
			start, pause, end, total, overtime)
	}

	overtime := summary.TotalActual.Sub(summary.TotalExpected)
	b.WriteString("\nZusammenfassung\n")
	fmt.Fprintf(&b, "Gesamtstunden;%s\n", formatGermanHours(summary.TotalActual))
	fmt.Fprintf(&b, "Sollstunden;%s\n", formatGermanHours(summary.TotalExpected))
	fmt.Fprintf(&b, "Gesamtüberstunden;%s\n", formatGermanHoursSigned(overtime))
	return b.String()
}

// entrySpan condenses a day's entries into first clock-in, total break
// and last clock-out. Empty strings for days without completed entries.
func entrySpan(entries []engine.TimeEntry) (start, pause, end string) {
	breakMinutes := 0
	var first, last *time.Time
	for i := range entries {
		e := entries[i]
		if e.IsActive() {
			continue
		}
		breakMinutes += e.BreakMinutes
		if first == nil || e.ClockIn.Before(*first) {
			t := e.ClockIn
			first = &t
		}
		if last == nil || e.ClockOut.After(*last) {
			last = e.ClockOut
		}
	}
	if first == nil {
		return "", "", ""
	}
	return first.Format("15:04"), fmt.Sprintf("%d", breakMinutes), last.Format("15:04")
}

// formatGermanHours renders two decimal places with a comma separator.
func formatGermanHours(d decimal.Decimal) string {
	return strings.ReplaceAll(d.StringFixed(2), ".", ",")
}

func formatGermanHoursSigned(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + formatGermanHours(d)
	}
	return formatGermanHours(d)
}
