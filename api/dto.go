/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

ENCODING:
  Dates travel as ISO strings (2006-01-02), clock times as HH:MM, hour
  and day quantities as decimal strings so clients never see binary
  float artifacts.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain records behind the DTOs
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fathom/timekeep/calendar"
	"github.com/fathom/timekeep/engine"
)

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// USERS
// =============================================================================

// UserDTO represents a user in API responses. The password hash never
// leaves the server.
type UserDTO struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Jurisdiction    string `json:"jurisdiction"`
	HalfDayHolidays bool   `json:"half_day_holidays"`
}

// CreateUserRequest is the request to register a user.
type CreateUserRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	Jurisdiction    string `json:"jurisdiction"`
	HalfDayHolidays bool   `json:"half_day_holidays"`
}

func toUserDTO(u engine.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Jurisdiction:    u.Jurisdiction,
		HalfDayHolidays: u.HalfDayHolidays,
	}
}

// =============================================================================
// WORKING HOURS
// =============================================================================

// WorkingDayDTO is one weekday row of a user's template.
type WorkingDayDTO struct {
	Weekday      int    `json:"weekday"` // 1=Monday .. 7=Sunday
	IsWorkingDay bool   `json:"is_working_day"`
	TargetHours  string `json:"target_hours"`
	StartTime    string `json:"start_time,omitempty"` // HH:MM
	EndTime      string `json:"end_time,omitempty"`
	BreakMinutes int    `json:"break_minutes"`
}

// ScheduleDTO is the full 7-row weekly template.
type ScheduleDTO struct {
	Days []WorkingDayDTO `json:"days"`
}

func toScheduleDTO(s engine.Schedule) ScheduleDTO {
	dto := ScheduleDTO{Days: make([]WorkingDayDTO, 0, len(s.Days))}
	for _, d := range s.Days {
		row := WorkingDayDTO{
			Weekday:      d.Weekday,
			IsWorkingDay: d.IsWorkingDay,
			TargetHours:  d.TargetHours.String(),
			BreakMinutes: d.BreakMinutes,
		}
		if d.StartTime != nil {
			row.StartTime = d.StartTime.String()
		}
		if d.EndTime != nil {
			row.EndTime = d.EndTime.String()
		}
		dto.Days = append(dto.Days, row)
	}
	return dto
}

func (dto ScheduleDTO) toSchedule() (engine.Schedule, error) {
	var schedule engine.Schedule
	for _, row := range dto.Days {
		hours, err := decimal.NewFromString(row.TargetHours)
		if err != nil {
			return engine.Schedule{}, err
		}
		day := engine.WorkingDay{
			Weekday:      row.Weekday,
			IsWorkingDay: row.IsWorkingDay,
			TargetHours:  hours,
			BreakMinutes: row.BreakMinutes,
		}
		if row.StartTime != "" {
			ct, err := engine.ParseClockTime(row.StartTime)
			if err != nil {
				return engine.Schedule{}, err
			}
			day.StartTime = &ct
		}
		if row.EndTime != "" {
			ct, err := engine.ParseClockTime(row.EndTime)
			if err != nil {
				return engine.Schedule{}, err
			}
			day.EndTime = &ct
		}
		schedule.Days = append(schedule.Days, day)
	}
	return schedule, nil
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

// TimeEntryDTO represents a time entry in API responses.
type TimeEntryDTO struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	EntryDate    string `json:"entry_date"`
	ClockIn      string `json:"clock_in"` // RFC 3339
	ClockOut     string `json:"clock_out,omitempty"`
	BreakMinutes int    `json:"break_minutes"`
	EntryType    string `json:"entry_type"`
	Notes        string `json:"notes,omitempty"`
	HoursWorked  string `json:"hours_worked,omitempty"` // empty while active
}

// CreateEntryRequest is the request to record a completed time entry.
type CreateEntryRequest struct {
	EntryDate    string `json:"entry_date"`
	ClockIn      string `json:"clock_in"`
	ClockOut     string `json:"clock_out,omitempty"`
	BreakMinutes int    `json:"break_minutes"`
	Notes        string `json:"notes,omitempty"`
}

// ClockOutRequest closes the running entry.
type ClockOutRequest struct {
	BreakMinutes int    `json:"break_minutes"`
	Notes        string `json:"notes,omitempty"`
}

func toTimeEntryDTO(e engine.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:           e.ID,
		UserID:       e.UserID,
		EntryDate:    e.EntryDate.String(),
		ClockIn:      e.ClockIn.UTC().Format(time.RFC3339),
		BreakMinutes: e.BreakMinutes,
		EntryType:    string(e.EntryType),
		Notes:        e.Notes,
	}
	if e.ClockOut != nil {
		dto.ClockOut = e.ClockOut.UTC().Format(time.RFC3339)
	}
	if hours, ok := e.HoursWorked(); ok {
		dto.HoursWorked = hours.String()
	}
	return dto
}

// =============================================================================
// TIME OFF
// =============================================================================

// TimeOffDTO represents a time-off record in API responses.
type TimeOffDTO struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Type        string `json:"type"`
	HoursPerDay string `json:"hours_per_day,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// TimeOffRequest is the request body for creating or updating time off.
type TimeOffRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Type        string `json:"type"`
	HoursPerDay string `json:"hours_per_day,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func toTimeOffDTO(t engine.TimeOff) TimeOffDTO {
	dto := TimeOffDTO{
		ID:        t.ID,
		UserID:    t.UserID,
		StartDate: t.StartDate.String(),
		EndDate:   t.EndDate.String(),
		Type:      string(t.Type),
		Notes:     t.Notes,
	}
	if t.HoursPerDay != nil {
		dto.HoursPerDay = t.HoursPerDay.String()
	}
	return dto
}

// =============================================================================
// RECURRING OFF-DAYS
// =============================================================================

// RecurringRuleDTO represents a recurring off-day rule.
type RecurringRuleDTO struct {
	ID            int64    `json:"id"`
	UserID        int64    `json:"user_id"`
	Pattern       string   `json:"pattern"`
	Weekday       int      `json:"weekday"`
	WeekInterval  int      `json:"week_interval,omitempty"`
	ReferenceDate string   `json:"reference_date,omitempty"`
	WeekOfMonth   int      `json:"week_of_month,omitempty"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	Active        bool     `json:"active"`
	Description   string   `json:"description,omitempty"`
	Exemptions    []string `json:"exemptions,omitempty"`
}

// RecurringRuleRequest is the request body for creating or updating a rule.
type RecurringRuleRequest struct {
	Pattern       string `json:"pattern"`
	Weekday       int    `json:"weekday"`
	WeekInterval  int    `json:"week_interval,omitempty"`
	ReferenceDate string `json:"reference_date,omitempty"`
	WeekOfMonth   int    `json:"week_of_month,omitempty"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	Active        bool   `json:"active"`
	Description   string `json:"description,omitempty"`
}

// ExemptionRequest adds or removes a single rule exemption date.
type ExemptionRequest struct {
	Date string `json:"date"`
}

func toRecurringRuleDTO(r engine.RecurringRule) RecurringRuleDTO {
	dto := RecurringRuleDTO{
		ID:           r.ID,
		UserID:       r.UserID,
		Pattern:      string(r.Pattern),
		Weekday:      r.Weekday,
		WeekInterval: r.WeekInterval,
		WeekOfMonth:  r.WeekOfMonth,
		StartDate:    r.StartDate.String(),
		Active:       r.Active,
		Description:  r.Description,
	}
	if !r.ReferenceDate.IsZero() {
		dto.ReferenceDate = r.ReferenceDate.String()
	}
	if r.EndDate != nil {
		dto.EndDate = r.EndDate.String()
	}
	for _, d := range r.Exemptions {
		dto.Exemptions = append(dto.Exemptions, d.String())
	}
	return dto
}

// =============================================================================
// SUMMARY AND BALANCE
// =============================================================================

// DailyResultDTO is one classified day with its hour accounting.
type DailyResultDTO struct {
	Date          string         `json:"date"`
	DayType       string         `json:"day_type"`
	ExpectedHours string         `json:"expected_hours"`
	ActualHours   string         `json:"actual_hours"`
	Status        string         `json:"status"`
	Entries       []TimeEntryDTO `json:"entries,omitempty"`
}

// SummaryDTO aggregates a date range.
type SummaryDTO struct {
	From          string           `json:"from"`
	To            string           `json:"to"`
	Days          []DailyResultDTO `json:"days"`
	TotalExpected string           `json:"total_expected"`
	TotalActual   string           `json:"total_actual"`
	Overtime      string           `json:"overtime"`
}

func toSummaryDTO(s engine.Summary) SummaryDTO {
	dto := SummaryDTO{
		From:          s.Range.Start.String(),
		To:            s.Range.End.String(),
		Days:          make([]DailyResultDTO, 0, len(s.Days)),
		TotalExpected: s.TotalExpected.String(),
		TotalActual:   s.TotalActual.String(),
		Overtime:      s.TotalActual.Sub(s.TotalExpected).String(),
	}
	for _, day := range s.Days {
		row := DailyResultDTO{
			Date:          day.Date.String(),
			DayType:       string(day.Category),
			ExpectedHours: day.ExpectedHours.String(),
			ActualHours:   day.ActualHours.String(),
			Status:        string(day.Status),
		}
		for _, e := range day.Entries {
			row.Entries = append(row.Entries, toTimeEntryDTO(e))
		}
		dto.Days = append(dto.Days, row)
	}
	return dto
}

// VacationBalanceDTO is the yearly vacation arithmetic.
type VacationBalanceDTO struct {
	UserID              int64  `json:"user_id"`
	Year                int    `json:"year"`
	AnnualAllowanceDays string `json:"annual_allowance_days"`
	CarriedOverDays     string `json:"carried_over_days"`
	AdjustmentDays      string `json:"adjustment_days"`
	UsedDays            string `json:"used_days"`
	RemainingDays       string `json:"remaining_days"`
}

// BalanceRequest updates the stored components of a yearly balance.
type BalanceRequest struct {
	AnnualAllowanceDays string `json:"annual_allowance_days"`
	CarriedOverDays     string `json:"carried_over_days"`
	AdjustmentDays      string `json:"adjustment_days"`
}

func toVacationBalanceDTO(b engine.VacationBalance) VacationBalanceDTO {
	return VacationBalanceDTO{
		UserID:              b.UserID,
		Year:                b.Year,
		AnnualAllowanceDays: b.AnnualAllowanceDays.String(),
		CarriedOverDays:     b.CarriedOverDays.String(),
		AdjustmentDays:      b.AdjustmentDays.String(),
		UsedDays:            b.UsedDays.String(),
		RemainingDays:       b.RemainingDays.String(),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO is a single public holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func toHolidayDTOs(holidays []calendar.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, h := range holidays {
		dtos = append(dtos, HolidayDTO{Date: h.Date.String(), Name: h.Name})
	}
	return dtos
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
