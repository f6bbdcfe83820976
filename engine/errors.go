/*
errors.go - Centralized error types for the accounting core

PURPOSE:
  All error types in one place. The core assumes pre-validated input and
  has no error path for "no data" (absence resolves to NO_ENTRY or zero
  hours), but it fails fast with a descriptive error on malformed input
  rather than producing a silently wrong result.

ERROR CATEGORIES:
  1. Schedule errors - Incomplete or duplicate weekday templates
  2. Range errors - End before start
  3. Entry errors - Clock-out before clock-in
  4. Store errors - Missing records, surfaced by implementations
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIncompleteSchedule is returned when a weekly template does not
	// cover every weekday exactly once.
	ErrIncompleteSchedule = errors.New("incomplete working-hours schedule")

	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInvalidEntry is returned when a time entry is malformed
	// (clock-out before clock-in).
	ErrInvalidEntry = errors.New("invalid time entry")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by stores on uniqueness violations
	// (e.g., a second balance row for the same user and year).
	ErrDuplicate = errors.New("duplicate record")

	// ErrActiveEntry is returned when clocking in while an entry is
	// already running.
	ErrActiveEntry = errors.New("an active time entry already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ScheduleError reports a malformed weekly template.
type ScheduleError struct {
	Weekday int
	Reason  string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule invalid at weekday %d: %s", e.Weekday, e.Reason)
}

func (e *ScheduleError) Unwrap() error { return ErrIncompleteSchedule }

// RangeError reports an inverted date range.
type RangeError struct {
	Range DateRange
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s", e.Range)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// EntryError reports a malformed time entry.
type EntryError struct {
	EntryID int64
	Reason  string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("time entry %d: %s", e.EntryID, e.Reason)
}

func (e *EntryError) Unwrap() error { return ErrInvalidEntry }

// RuleError reports a malformed recurring off-day rule.
type RuleError struct {
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("recurring rule field %s: %s", e.Field, e.Reason)
}

func (e *RuleError) Unwrap() error { return ErrInvalidEntry }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIncompleteSchedule) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrActiveEntry)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
