/*
handlers.go - HTTP API handlers for the time tracking system

PURPOSE:
  Exposes the day-classification and accounting core via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the pure functions in engine and calendar.

ENDPOINTS:
  Auth:
    POST   /api/auth/login                    Issue a token
    POST   /api/auth/logout                   Discard a token

  Users:
    GET    /api/users                         List users
    POST   /api/users                         Register user
    GET    /api/users/{id}                    Get user
    GET    /api/users/{id}/working-hours      Weekly template
    PUT    /api/users/{id}/working-hours      Replace weekly template

  Entries:
    GET    /api/users/{id}/entries?from=&to=  Entries in range
    POST   /api/users/{id}/entries            Record an entry
    DELETE /api/entries/{id}                  Delete an entry
    POST   /api/users/{id}/clock-in           Start an entry
    POST   /api/users/{id}/clock-out          Close the running entry

  Time off:
    GET    /api/users/{id}/time-off?from=&to= Records intersecting range
    POST   /api/users/{id}/time-off           Create record
    PUT    /api/time-off/{id}                 Update record
    DELETE /api/time-off/{id}                 Delete record

  Recurring off-days:
    GET    /api/users/{id}/recurring-off-days
    POST   /api/users/{id}/recurring-off-days
    PUT    /api/recurring-off-days/{id}
    DELETE /api/recurring-off-days/{id}
    POST   /api/recurring-off-days/{id}/exemptions
    DELETE /api/recurring-off-days/{id}/exemptions

  Reporting:
    GET    /api/users/{id}/summary?from=&to=          Daily results + totals
    GET    /api/users/{id}/vacation-balance?year=     Yearly balance
    PUT    /api/users/{id}/vacation-balance?year=     Set balance components
    GET    /api/holidays?year=&jurisdiction=          Public holidays
    GET    /api/users/{id}/reports/monthly.csv?year=&month=  CSV timesheet

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Gather records through the Store
  4. Call pure domain logic (Classify, Summarize, CalculateBalance)
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid token
  - 404: Resource not found
  - 409: Conflict (duplicate email, running entry)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token issuing and middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fathom/timekeep/calendar"
	"github.com/fathom/timekeep/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store engine.Store
	Auth  *Authenticator

	// DefaultAllowanceDays seeds vacation balances that have no stored
	// components yet.
	DefaultAllowanceDays decimal.Decimal

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store, auth *Authenticator, defaultAllowance decimal.Decimal) *Handler {
	return &Handler{
		Store:                store,
		Auth:                 auth,
		DefaultAllowanceDays: defaultAllowance,
		Now:                  time.Now,
	}
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login authenticates a user and returns a signed token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil || !CheckPassword(req.Password, user.PasswordHash) {
		// Same response for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserDTO(user)})
}

// Logout acknowledges the client discarding its token. Tokens are
// stateless, so there is nothing to revoke server-side before expiry.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns all users.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser registers a new user with a default weekly template.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required", nil)
		return
	}
	jurisdiction, err := calendar.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown jurisdiction", err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user, err := h.Store.CreateUser(r.Context(), engine.User{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PasswordHash:    hash,
		Jurisdiction:    string(jurisdiction),
		HalfDayHolidays: req.HalfDayHolidays,
	})
	if err != nil {
		writeEngineError(w, "Failed to create user", err)
		return
	}

	if err := h.Store.SaveSchedule(r.Context(), user.ID, engine.DefaultSchedule(decimal.NewFromInt(8))); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save default schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser returns a single user.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// WORKING HOURS ENDPOINTS
// =============================================================================

// GetWorkingHours returns the user's weekly template.
// GET /api/users/{id}/working-hours
func (h *Handler) GetWorkingHours(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	schedule, err := h.Store.GetSchedule(r.Context(), userID)
	if err != nil {
		writeEngineError(w, "Failed to get working hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// PutWorkingHours replaces the user's weekly template.
// PUT /api/users/{id}/working-hours
func (h *Handler) PutWorkingHours(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	var dto ScheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	schedule, err := dto.toSchedule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}
	if err := h.Store.SaveSchedule(r.Context(), userID, schedule); err != nil {
		writeEngineError(w, "Failed to save working hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// =============================================================================
// TIME ENTRY ENDPOINTS
// =============================================================================

// ListEntries returns the user's entries in a date range.
// GET /api/users/{id}/entries?from=&to=
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	dateRange, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	entries, err := h.Store.EntriesInRange(r.Context(), userID, dateRange)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	dtos := make([]TimeEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toTimeEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEntry records a time entry.
// POST /api/users/{id}/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entryDate, err := engine.ParseDate(req.EntryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry_date", err)
		return
	}
	clockIn, err := time.Parse(time.RFC3339, req.ClockIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_in", err)
		return
	}
	entry := engine.TimeEntry{
		UserID:       userID,
		EntryDate:    entryDate,
		ClockIn:      clockIn,
		BreakMinutes: req.BreakMinutes,
		EntryType:    engine.EntryWork,
		Notes:        req.Notes,
	}
	if req.ClockOut != "" {
		clockOut, err := time.Parse(time.RFC3339, req.ClockOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid clock_out", err)
			return
		}
		if !clockOut.After(clockIn) {
			writeError(w, http.StatusBadRequest, "clock_out must be after clock_in", nil)
			return
		}
		entry.ClockOut = &clockOut
	}

	created, err := h.Store.CreateEntry(r.Context(), entry)
	if err != nil {
		writeEngineError(w, "Failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeEntryDTO(created))
}

// DeleteEntry removes a time entry.
// DELETE /api/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.Store.GetEntry(r.Context(), entryID)
	if err != nil {
		writeEngineError(w, "Failed to get entry", err)
		return
	}
	if !authorizeOwner(w, r, entry.UserID) {
		return
	}
	if err := h.Store.DeleteEntry(r.Context(), entryID); err != nil {
		writeEngineError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClockIn starts a new running entry for the user.
// POST /api/users/{id}/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}

	if _, running, err := h.Store.ActiveEntry(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check running entry", err)
		return
	} else if running {
		writeError(w, http.StatusConflict, "An entry is already running", engine.ErrActiveEntry)
		return
	}

	now := h.Now().UTC()
	entry, err := h.Store.CreateEntry(r.Context(), engine.TimeEntry{
		UserID:    userID,
		EntryDate: engine.DateOf(now),
		ClockIn:   now,
		EntryType: engine.EntryWork,
	})
	if err != nil {
		writeEngineError(w, "Failed to clock in", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeEntryDTO(entry))
}

// ClockOut closes the user's running entry.
// POST /api/users/{id}/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	var req ClockOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	entry, running, err := h.Store.ActiveEntry(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check running entry", err)
		return
	}
	if !running {
		writeError(w, http.StatusNotFound, "No running entry", engine.ErrNotFound)
		return
	}

	now := h.Now().UTC()
	entry.ClockOut = &now
	entry.BreakMinutes = req.BreakMinutes
	if req.Notes != "" {
		entry.Notes = req.Notes
	}
	if err := h.Store.UpdateEntry(r.Context(), entry); err != nil {
		writeEngineError(w, "Failed to clock out", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// =============================================================================
// TIME OFF ENDPOINTS
// =============================================================================

// ListTimeOff returns time-off records intersecting a date range.
// GET /api/users/{id}/time-off?from=&to=
func (h *Handler) ListTimeOff(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	dateRange, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	records, err := h.Store.TimeOffInRange(r.Context(), userID, dateRange)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list time off", err)
		return
	}
	dtos := make([]TimeOffDTO, 0, len(records))
	for _, t := range records {
		dtos = append(dtos, toTimeOffDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTimeOff records a time-off range.
// POST /api/users/{id}/time-off
func (h *Handler) CreateTimeOff(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	timeOff, ok := h.decodeTimeOff(w, r, userID)
	if !ok {
		return
	}
	created, err := h.Store.CreateTimeOff(r.Context(), timeOff)
	if err != nil {
		writeEngineError(w, "Failed to create time off", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeOffDTO(created))
}

// UpdateTimeOff updates a time-off record.
// PUT /api/time-off/{id}
func (h *Handler) UpdateTimeOff(w http.ResponseWriter, r *http.Request) {
	recordID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	existing, err := h.Store.GetTimeOff(r.Context(), recordID)
	if err != nil {
		writeEngineError(w, "Failed to get time off", err)
		return
	}
	if !authorizeOwner(w, r, existing.UserID) {
		return
	}
	timeOff, ok := h.decodeTimeOff(w, r, existing.UserID)
	if !ok {
		return
	}
	timeOff.ID = recordID
	if err := h.Store.UpdateTimeOff(r.Context(), timeOff); err != nil {
		writeEngineError(w, "Failed to update time off", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeOffDTO(timeOff))
}

// DeleteTimeOff removes a time-off record.
// DELETE /api/time-off/{id}
func (h *Handler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	recordID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	existing, err := h.Store.GetTimeOff(r.Context(), recordID)
	if err != nil {
		writeEngineError(w, "Failed to get time off", err)
		return
	}
	if !authorizeOwner(w, r, existing.UserID) {
		return
	}
	if err := h.Store.DeleteTimeOff(r.Context(), recordID); err != nil {
		writeEngineError(w, "Failed to delete time off", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeTimeOff(w http.ResponseWriter, r *http.Request, userID int64) (engine.TimeOff, bool) {
	var req TimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return engine.TimeOff{}, false
	}
	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return engine.TimeOff{}, false
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return engine.TimeOff{}, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date before start_date", engine.ErrInvalidRange)
		return engine.TimeOff{}, false
	}
	timeOffType := engine.TimeOffType(req.Type)
	switch timeOffType {
	case engine.TimeOffVacation, engine.TimeOffSick, engine.TimeOffPersonal, engine.TimeOffPublicHoliday:
	default:
		writeError(w, http.StatusBadRequest, "Unknown time-off type", nil)
		return engine.TimeOff{}, false
	}
	timeOff := engine.TimeOff{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Type:      timeOffType,
		Notes:     req.Notes,
	}
	if req.HoursPerDay != "" {
		hours, err := decimal.NewFromString(req.HoursPerDay)
		if err != nil || hours.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid hours_per_day", err)
			return engine.TimeOff{}, false
		}
		timeOff.HoursPerDay = &hours
	}
	return timeOff, true
}

// =============================================================================
// RECURRING OFF-DAY ENDPOINTS
// =============================================================================

// ListRecurringOffDays returns the user's rules.
// GET /api/users/{id}/recurring-off-days
func (h *Handler) ListRecurringOffDays(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	rules, err := h.Store.RulesForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}
	dtos := make([]RecurringRuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, toRecurringRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecurringOffDay creates a rule.
// POST /api/users/{id}/recurring-off-days
func (h *Handler) CreateRecurringOffDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	rule, ok := h.decodeRecurringRule(w, r, userID)
	if !ok {
		return
	}

	created, err := h.Store.CreateRule(r.Context(), rule)
	if err != nil {
		writeEngineError(w, "Failed to create rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringRuleDTO(created))
}

// UpdateRecurringOffDay replaces a rule's fields. Exemptions are managed
// through the exemption endpoints and survive the update.
// PUT /api/recurring-off-days/{id}
func (h *Handler) UpdateRecurringOffDay(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	existing, ok := h.ownedRule(w, r, ruleID)
	if !ok {
		return
	}
	rule, ok := h.decodeRecurringRule(w, r, existing.UserID)
	if !ok {
		return
	}
	rule.ID = ruleID
	rule.Exemptions = existing.Exemptions
	if err := h.Store.UpdateRule(r.Context(), rule); err != nil {
		writeEngineError(w, "Failed to update rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringRuleDTO(rule))
}

func (h *Handler) decodeRecurringRule(w http.ResponseWriter, r *http.Request, userID int64) (engine.RecurringRule, bool) {
	var req RecurringRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return engine.RecurringRule{}, false
	}

	rule := engine.RecurringRule{
		UserID:       userID,
		Pattern:      engine.RecurrencePattern(req.Pattern),
		Weekday:      req.Weekday,
		WeekInterval: req.WeekInterval,
		WeekOfMonth:  req.WeekOfMonth,
		Active:       req.Active,
		Description:  req.Description,
	}
	var err error
	if rule.StartDate, err = engine.ParseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return engine.RecurringRule{}, false
	}
	if req.ReferenceDate != "" {
		if rule.ReferenceDate, err = engine.ParseDate(req.ReferenceDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid reference_date", err)
			return engine.RecurringRule{}, false
		}
	}
	if req.EndDate != "" {
		end, err := engine.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return engine.RecurringRule{}, false
		}
		rule.EndDate = &end
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return engine.RecurringRule{}, false
	}
	return rule, true
}

// ownedRule loads a rule and rejects tokens that do not belong to its
// owner.
func (h *Handler) ownedRule(w http.ResponseWriter, r *http.Request, ruleID int64) (engine.RecurringRule, bool) {
	rule, err := h.Store.GetRule(r.Context(), ruleID)
	if err != nil {
		writeEngineError(w, "Failed to get rule", err)
		return engine.RecurringRule{}, false
	}
	if !authorizeOwner(w, r, rule.UserID) {
		return engine.RecurringRule{}, false
	}
	return rule, true
}

// DeleteRecurringOffDay removes a rule.
// DELETE /api/recurring-off-days/{id}
func (h *Handler) DeleteRecurringOffDay(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := idFromPath(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedRule(w, r, ruleID); !ok {
		return
	}
	if err := h.Store.DeleteRule(r.Context(), ruleID); err != nil {
		writeEngineError(w, "Failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddExemption marks a date the rule does not apply to.
// POST /api/recurring-off-days/{id}/exemptions
func (h *Handler) AddExemption(w http.ResponseWriter, r *http.Request) {
	ruleID, date, ok := h.exemptionParams(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedRule(w, r, ruleID); !ok {
		return
	}
	if err := h.Store.AddRuleExemption(r.Context(), ruleID, date); err != nil {
		writeEngineError(w, "Failed to add exemption", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveExemption removes an exemption date.
// DELETE /api/recurring-off-days/{id}/exemptions
func (h *Handler) RemoveExemption(w http.ResponseWriter, r *http.Request) {
	ruleID, date, ok := h.exemptionParams(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedRule(w, r, ruleID); !ok {
		return
	}
	if err := h.Store.RemoveRuleExemption(r.Context(), ruleID, date); err != nil {
		writeEngineError(w, "Failed to remove exemption", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exemptionParams(w http.ResponseWriter, r *http.Request) (int64, engine.Date, bool) {
	ruleID, ok := idFromPath(w, r, "id")
	if !ok {
		return 0, engine.Date{}, false
	}
	var req ExemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return 0, engine.Date{}, false
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return 0, engine.Date{}, false
	}
	return ruleID, date, true
}

// =============================================================================
// SUMMARY AND BALANCE ENDPOINTS
// =============================================================================

// GetSummary computes daily results and totals for a date range.
// GET /api/users/{id}/summary?from=&to=
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	dateRange, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	input, err := h.gatherDayInput(r, user, dateRange)
	if err != nil {
		writeEngineError(w, "Failed to gather records", err)
		return
	}
	summary, err := engine.Summarize(dateRange, input)
	if err != nil {
		writeEngineError(w, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetVacationBalance computes the user's yearly vacation balance.
// GET /api/users/{id}/vacation-balance?year=
func (h *Handler) GetVacationBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	year, ok := yearFromQuery(w, r)
	if !ok {
		return
	}

	balance, err := h.computeBalance(r, user, year)
	if err != nil {
		writeEngineError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationBalanceDTO(balance))
}

// PutVacationBalance sets the stored balance components and returns the
// recomputed balance.
// PUT /api/users/{id}/vacation-balance?year=
func (h *Handler) PutVacationBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	year, ok := yearFromQuery(w, r)
	if !ok {
		return
	}
	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	components := [3]decimal.Decimal{}
	for i, raw := range []string{req.AnnualAllowanceDays, req.CarriedOverDays, req.AdjustmentDays} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid balance component", err)
			return
		}
		components[i] = value
	}

	balance := engine.VacationBalance{
		UserID:              user.ID,
		Year:                year,
		AnnualAllowanceDays: components[0],
		CarriedOverDays:     components[1],
		AdjustmentDays:      components[2],
	}
	if err := h.Store.SaveBalance(r.Context(), balance); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save balance", err)
		return
	}

	computed, err := h.computeBalance(r, user, year)
	if err != nil {
		writeEngineError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationBalanceDTO(computed))
}

// ListHolidays returns the public holidays of a year.
// GET /api/holidays?year=&jurisdiction=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := yearFromQuery(w, r)
	if !ok {
		return
	}
	jurisdiction, err := calendar.ParseJurisdiction(r.URL.Query().Get("jurisdiction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown jurisdiction", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(calendar.Holidays(year, jurisdiction)))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// gatherDayInput collects everything the pure core needs for a range.
func (h *Handler) gatherDayInput(r *http.Request, user engine.User, dateRange engine.DateRange) (engine.DayInput, error) {
	ctx := r.Context()

	schedule, err := h.Store.GetSchedule(ctx, user.ID)
	if err != nil {
		return engine.DayInput{}, err
	}
	timeOff, err := h.Store.TimeOffInRange(ctx, user.ID, dateRange)
	if err != nil {
		return engine.DayInput{}, err
	}
	entries, err := h.Store.EntriesInRange(ctx, user.ID, dateRange)
	if err != nil {
		return engine.DayInput{}, err
	}
	rules, err := h.Store.RulesForUser(ctx, user.ID)
	if err != nil {
		return engine.DayInput{}, err
	}

	jurisdiction, err := calendar.ParseJurisdiction(user.Jurisdiction)
	if err != nil {
		return engine.DayInput{}, err
	}
	return engine.DayInput{
		Schedule:     schedule,
		Holidays:     calendar.For(jurisdiction),
		TimeOff:      timeOff,
		RecurringOff: engine.RuleSet(rules).Predicate(),
		Entries:      entries,
	}, nil
}

// computeBalance merges stored components with defaults and recomputes
// used/remaining days from the year's vacation records.
func (h *Handler) computeBalance(r *http.Request, user engine.User, year int) (engine.VacationBalance, error) {
	ctx := r.Context()

	stored, found, err := h.Store.GetBalance(ctx, user.ID, year)
	if err != nil {
		return engine.VacationBalance{}, err
	}
	if !found {
		stored = engine.VacationBalance{
			UserID:              user.ID,
			Year:                year,
			AnnualAllowanceDays: h.DefaultAllowanceDays,
		}
	}

	timeOff, err := h.Store.TimeOffInRange(ctx, user.ID, engine.YearRange(year))
	if err != nil {
		return engine.VacationBalance{}, err
	}
	schedule, err := h.Store.GetSchedule(ctx, user.ID)
	if err != nil {
		return engine.VacationBalance{}, err
	}
	rules, err := h.Store.RulesForUser(ctx, user.ID)
	if err != nil {
		return engine.VacationBalance{}, err
	}
	jurisdiction, err := calendar.ParseJurisdiction(user.Jurisdiction)
	if err != nil {
		return engine.VacationBalance{}, err
	}

	input := engine.BalanceInput{
		UserID:              user.ID,
		Year:                year,
		AnnualAllowanceDays: stored.AnnualAllowanceDays,
		CarriedOverDays:     stored.CarriedOverDays,
		AdjustmentDays:      stored.AdjustmentDays,
		TimeOff:             timeOff,
		Mode:                engine.CountWorkingDays,
		Schedule:            schedule,
		Holidays:            calendar.For(jurisdiction),
		RecurringOff:        engine.RuleSet(rules).Predicate(),
	}
	if user.HalfDayHolidays {
		input.HalfDay = calendar.IsHalfDayHoliday
	}
	return engine.CalculateBalance(input), nil
}

func (h *Handler) userFromPath(w http.ResponseWriter, r *http.Request) (engine.User, bool) {
	userID, ok := idFromPath(w, r, "id")
	if !ok {
		return engine.User{}, false
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		writeEngineError(w, "Failed to get user", err)
		return engine.User{}, false
	}
	return user, true
}

// authorizeOwner rejects requests whose token does not belong to the
// record's owner.
func authorizeOwner(w http.ResponseWriter, r *http.Request, ownerID int64) bool {
	authID, ok := AuthenticatedUserID(r.Context())
	if !ok || authID != ownerID {
		writeError(w, http.StatusForbidden, "Access denied", nil)
		return false
	}
	return true
}

func idFromPath(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func rangeFromQuery(w http.ResponseWriter, r *http.Request) (engine.DateRange, bool) {
	from, err := engine.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return engine.DateRange{}, false
	}
	to, err := engine.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return engine.DateRange{}, false
	}
	dateRange := engine.NewDateRange(from, to)
	if !dateRange.IsValid() {
		writeError(w, http.StatusBadRequest, "from must not be after to", engine.ErrInvalidRange)
		return engine.DateRange{}, false
	}
	return dateRange, true
}

func yearFromQuery(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps domain errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
