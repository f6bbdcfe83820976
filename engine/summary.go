/*
summary.go - Range aggregation over daily results

PURPOSE:
  Orchestrates the per-day computation across a requested range (typically
  a month) and rolls per-day actual/expected totals into a range summary.
  The sequence is finite and gap-free: one DailyResult per calendar date,
  ascending, even when no data exists for a date.
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the ordered per-day breakdown for a range plus its totals.
type Summary struct {
	Range         DateRange
	Days          []DailyResult
	TotalExpected decimal.Decimal
	TotalActual   decimal.Decimal
}

// Summarize computes one DailyResult per calendar date in the inclusive
// range. The input carries all records for the whole range; each date
// picks out its own entries and time off.
func Summarize(r DateRange, in DayInput) (Summary, error) {
	if !r.IsValid() {
		return Summary{}, &RangeError{Range: r}
	}
	if err := in.Schedule.Validate(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Range:         r,
		Days:          make([]DailyResult, 0, r.Len()),
		TotalExpected: decimal.Zero,
		TotalActual:   decimal.Zero,
	}

	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		result, err := ComputeDay(d, in)
		if err != nil {
			return Summary{}, err
		}
		summary.Days = append(summary.Days, result)
		summary.TotalExpected = summary.TotalExpected.Add(result.ExpectedHours)
		summary.TotalActual = summary.TotalActual.Add(result.ActualHours)
	}

	return summary, nil
}
