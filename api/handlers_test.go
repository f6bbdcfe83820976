package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fathom/timekeep/api"
	"github.com/fathom/timekeep/engine/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type testEnv struct {
	router  http.Handler
	handler *api.Handler
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	auth := api.NewAuthenticator("test-secret", time.Hour)
	handler := api.NewHandler(store.NewMemory(), auth, decimal.NewFromInt(30))
	return &testEnv{
		router:  api.NewRouter(handler, []string{"*"}),
		handler: handler,
	}
}

// do sends a JSON request through the full router, middleware included.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (e *testEnv) createUser(t *testing.T, email, password string) api.UserDTO {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/users", "", api.CreateUserRequest{
		Email:        email,
		FirstName:    "Max",
		LastName:     "Mustermann",
		Password:     password,
		Jurisdiction: "BERLIN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.UserDTO](t, rec)
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.LoginResponse](t, rec).Token
}

func userURL(user api.UserDTO, suffix string) string {
	return "/api/users/" + strconv.FormatInt(user.ID, 10) + suffix
}

func ruleURL(ruleID int64, suffix string) string {
	return "/api/recurring-off-days/" + strconv.FormatInt(ruleID, 10) + suffix
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin_Success(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "max@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[api.LoginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "max@example.com", resp.User.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "max@example.com", "hunter22")

	// Wrong password and unknown email must be indistinguishable.
	wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "max@example.com",
		Password: "wrong",
	})
	unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestAuth_TokenRequired(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "max@example.com", "hunter22")

	noToken := env.do(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, noToken.Code)

	badToken := env.do(t, http.MethodGet, "/api/users", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, badToken.Code)

	token := env.login(t, "max@example.com", "hunter22")
	withToken := env.do(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, withToken.Code)
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	noToken := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, noToken.Code)
}

// =============================================================================
// USERS
// =============================================================================

func TestCreateUser_SeedsDefaultSchedule(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodGet, userURL(user, "/working-hours"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	schedule := decode[api.ScheduleDTO](t, rec)
	require.Len(t, schedule.Days, 7)
	require.True(t, schedule.Days[0].IsWorkingDay)
	require.Equal(t, "8", schedule.Days[0].TargetHours)
	require.False(t, schedule.Days[6].IsWorkingDay)
}

func TestCreateUser_Validation(t *testing.T) {
	env := newEnv(t)

	noPassword := env.do(t, http.MethodPost, "/api/users", "", api.CreateUserRequest{
		Email:        "max@example.com",
		Jurisdiction: "BERLIN",
	})
	require.Equal(t, http.StatusBadRequest, noPassword.Code)

	badJurisdiction := env.do(t, http.MethodPost, "/api/users", "", api.CreateUserRequest{
		Email:        "max@example.com",
		Password:     "x",
		Jurisdiction: "BAVARIA",
	})
	require.Equal(t, http.StatusBadRequest, badJurisdiction.Code)

	env.createUser(t, "max@example.com", "hunter22")
	duplicate := env.do(t, http.MethodPost, "/api/users", "", api.CreateUserRequest{
		Email:        "MAX@example.com",
		Password:     "x",
		Jurisdiction: "BERLIN",
	})
	require.Equal(t, http.StatusConflict, duplicate.Code)
}

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

func TestClockInClockOut_Flow(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	clockIn := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	env.handler.Now = func() time.Time { return clockIn }

	started := env.do(t, http.MethodPost, userURL(user, "/clock-in"), token, nil)
	require.Equal(t, http.StatusCreated, started.Code, started.Body.String())
	entry := decode[api.TimeEntryDTO](t, started)
	require.Equal(t, "2024-06-03", entry.EntryDate)
	require.Empty(t, entry.ClockOut)

	// A second clock-in while one is running is a conflict.
	again := env.do(t, http.MethodPost, userURL(user, "/clock-in"), token, nil)
	require.Equal(t, http.StatusConflict, again.Code)

	env.handler.Now = func() time.Time { return clockIn.Add(8*time.Hour + 30*time.Minute) }
	stopped := env.do(t, http.MethodPost, userURL(user, "/clock-out"), token, api.ClockOutRequest{BreakMinutes: 30})
	require.Equal(t, http.StatusOK, stopped.Code, stopped.Body.String())
	entry = decode[api.TimeEntryDTO](t, stopped)
	require.Equal(t, "2024-06-03T17:30:00Z", entry.ClockOut)
	require.Equal(t, "8", entry.HoursWorked)

	// Nothing left running.
	empty := env.do(t, http.MethodPost, userURL(user, "/clock-out"), token, nil)
	require.Equal(t, http.StatusNotFound, empty.Code)
}

func TestCreateEntry_RejectsInvertedSpan(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, userURL(user, "/entries"), token, api.CreateEntryRequest{
		EntryDate: "2024-06-03",
		ClockIn:   "2024-06-03T17:00:00Z",
		ClockOut:  "2024-06-03T09:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// TIME OFF
// =============================================================================

func TestTimeOff_CreateAndList(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	created := env.do(t, http.MethodPost, userURL(user, "/time-off"), token, api.TimeOffRequest{
		StartDate: "2024-06-10",
		EndDate:   "2024-06-14",
		Type:      "VACATION",
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	listed := env.do(t, http.MethodGet, userURL(user, "/time-off?from=2024-06-01&to=2024-06-30"), token, nil)
	require.Equal(t, http.StatusOK, listed.Code)
	records := decode[[]api.TimeOffDTO](t, listed)
	require.Len(t, records, 1)
	require.Equal(t, "VACATION", records[0].Type)

	unknownType := env.do(t, http.MethodPost, userURL(user, "/time-off"), token, api.TimeOffRequest{
		StartDate: "2024-06-10",
		EndDate:   "2024-06-14",
		Type:      "SABBATICAL",
	})
	require.Equal(t, http.StatusBadRequest, unknownType.Code)

	inverted := env.do(t, http.MethodPost, userURL(user, "/time-off"), token, api.TimeOffRequest{
		StartDate: "2024-06-14",
		EndDate:   "2024-06-10",
		Type:      "VACATION",
	})
	require.Equal(t, http.StatusBadRequest, inverted.Code)
}

// =============================================================================
// RECURRING OFF-DAYS
// =============================================================================

func TestRecurringOffDay_CreateValidates(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	created := env.do(t, http.MethodPost, userURL(user, "/recurring-off-days"), token, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       5,
		WeekInterval:  2,
		ReferenceDate: "2024-01-05",
		StartDate:     "2024-01-01",
		Active:        true,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	rule := decode[api.RecurringRuleDTO](t, created)
	require.Equal(t, "EVERY_NTH_WEEK", rule.Pattern)
	require.NotZero(t, rule.ID)

	badWeekday := env.do(t, http.MethodPost, userURL(user, "/recurring-off-days"), token, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       0,
		WeekInterval:  2,
		ReferenceDate: "2024-01-05",
		StartDate:     "2024-01-01",
		Active:        true,
	})
	require.Equal(t, http.StatusBadRequest, badWeekday.Code)
}

func TestRecurringOffDay_Update(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	created := env.do(t, http.MethodPost, userURL(user, "/recurring-off-days"), token, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       5,
		WeekInterval:  2,
		ReferenceDate: "2024-01-05",
		StartDate:     "2024-01-01",
		Active:        true,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	rule := decode[api.RecurringRuleDTO](t, created)

	exempted := env.do(t, http.MethodPost, ruleURL(rule.ID, "/exemptions"), token, api.ExemptionRequest{Date: "2024-01-19"})
	require.Equal(t, http.StatusNoContent, exempted.Code, exempted.Body.String())

	updated := env.do(t, http.MethodPut, ruleURL(rule.ID, ""), token, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       3,
		WeekInterval:  1,
		ReferenceDate: "2024-01-03",
		StartDate:     "2024-01-01",
		Active:        true,
		Description:   "midweek off",
	})
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())

	got := decode[api.RecurringRuleDTO](t, updated)
	require.Equal(t, rule.ID, got.ID)
	require.Equal(t, 3, got.Weekday)
	require.Equal(t, 1, got.WeekInterval)
	require.Equal(t, "midweek off", got.Description)
	// Exemptions are managed through their own endpoints and survive a PUT.
	require.Equal(t, []string{"2024-01-19"}, got.Exemptions)

	listed := env.do(t, http.MethodGet, userURL(user, "/recurring-off-days"), token, nil)
	require.Equal(t, http.StatusOK, listed.Code)
	rules := decode[[]api.RecurringRuleDTO](t, listed)
	require.Len(t, rules, 1)
	require.Equal(t, 3, rules[0].Weekday)
	require.Equal(t, []string{"2024-01-19"}, rules[0].Exemptions)

	missing := env.do(t, http.MethodPut, ruleURL(9999, ""), token, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       3,
		WeekInterval:  1,
		ReferenceDate: "2024-01-03",
		StartDate:     "2024-01-01",
		Active:        true,
	})
	require.Equal(t, http.StatusNotFound, missing.Code)
}

// =============================================================================
// OWNERSHIP
// =============================================================================

func TestOwnership_TokenMustMatchAccount(t *testing.T) {
	env := newEnv(t)
	owner := env.createUser(t, "max@example.com", "hunter22")
	env.createUser(t, "erika@example.com", "hunter22")
	ownerToken := env.login(t, "max@example.com", "hunter22")
	otherToken := env.login(t, "erika@example.com", "hunter22")

	// User-scoped routes only answer to the account's own token.
	entries := env.do(t, http.MethodGet, userURL(owner, "/entries?from=2024-06-01&to=2024-06-30"), otherToken, nil)
	require.Equal(t, http.StatusForbidden, entries.Code)

	summary := env.do(t, http.MethodGet, userURL(owner, "/summary?from=2024-06-01&to=2024-06-30"), otherToken, nil)
	require.Equal(t, http.StatusForbidden, summary.Code)

	// Record-scoped routes check the record's owner.
	created := env.do(t, http.MethodPost, userURL(owner, "/recurring-off-days"), ownerToken, api.RecurringRuleRequest{
		Pattern:       "EVERY_NTH_WEEK",
		Weekday:       1,
		WeekInterval:  1,
		ReferenceDate: "2024-01-01",
		StartDate:     "2024-01-01",
		Active:        true,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	rule := decode[api.RecurringRuleDTO](t, created)

	deleted := env.do(t, http.MethodDelete, ruleURL(rule.ID, ""), otherToken, nil)
	require.Equal(t, http.StatusForbidden, deleted.Code)

	timeOff := env.do(t, http.MethodPost, userURL(owner, "/time-off"), ownerToken, api.TimeOffRequest{
		Type:      "VACATION",
		StartDate: "2024-07-01",
		EndDate:   "2024-07-05",
	})
	require.Equal(t, http.StatusCreated, timeOff.Code, timeOff.Body.String())
	record := decode[api.TimeOffDTO](t, timeOff)

	stolen := env.do(t, http.MethodDelete, "/api/time-off/"+strconv.FormatInt(record.ID, 10), otherToken, nil)
	require.Equal(t, http.StatusForbidden, stolen.Code)

	// The owner still gets through.
	ok := env.do(t, http.MethodDelete, ruleURL(rule.ID, ""), ownerToken, nil)
	require.Equal(t, http.StatusNoContent, ok.Code)
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummary_SingleWorkDay(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	created := env.do(t, http.MethodPost, userURL(user, "/entries"), token, api.CreateEntryRequest{
		EntryDate:    "2024-06-03",
		ClockIn:      "2024-06-03T09:00:00Z",
		ClockOut:     "2024-06-03T17:30:00Z",
		BreakMinutes: 30,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	rec := env.do(t, http.MethodGet, userURL(user, "/summary?from=2024-06-03&to=2024-06-03"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[api.SummaryDTO](t, rec)
	require.Len(t, summary.Days, 1)
	day := summary.Days[0]
	require.Equal(t, "WORK", day.DayType)
	require.Equal(t, "8", day.ExpectedHours)
	require.Equal(t, "8", day.ActualHours)
	require.Equal(t, "MATCHED", day.Status)
	require.Equal(t, "0", summary.Overtime)
}

func TestSummary_HolidayTrumpsEntry(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	// Labour Day 2024 falls on a Wednesday.
	created := env.do(t, http.MethodPost, userURL(user, "/entries"), token, api.CreateEntryRequest{
		EntryDate: "2024-05-01",
		ClockIn:   "2024-05-01T09:00:00Z",
		ClockOut:  "2024-05-01T13:00:00Z",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	rec := env.do(t, http.MethodGet, userURL(user, "/summary?from=2024-05-01&to=2024-05-01"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[api.SummaryDTO](t, rec)
	require.Equal(t, "PUBLIC_HOLIDAY", summary.Days[0].DayType)
	require.Equal(t, "0", summary.Days[0].ExpectedHours)
	require.Equal(t, "4", summary.Days[0].ActualHours)
	require.Equal(t, "ABOVE_EXPECTED", summary.Days[0].Status)
}

func TestSummary_RejectsInvertedRange(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodGet, userURL(user, "/summary?from=2024-06-30&to=2024-06-01"), token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// VACATION BALANCE
// =============================================================================

func TestVacationBalance_DefaultAllowance(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	// No stored components yet, so the configured default applies.
	rec := env.do(t, http.MethodGet, userURL(user, "/vacation-balance?year=2024"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	balance := decode[api.VacationBalanceDTO](t, rec)
	require.Equal(t, "30", balance.AnnualAllowanceDays)
	require.Equal(t, "0", balance.UsedDays)
	require.Equal(t, "30", balance.RemainingDays)
}

func TestVacationBalance_CountsVacationWorkingDays(t *testing.T) {
	env := newEnv(t)
	user := env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	saved := env.do(t, http.MethodPut, userURL(user, "/vacation-balance?year=2024"), token, api.BalanceRequest{
		AnnualAllowanceDays: "28",
		CarriedOverDays:     "3",
		AdjustmentDays:      "-1",
	})
	require.Equal(t, http.StatusOK, saved.Code, saved.Body.String())

	// Saturday through the following Sunday: only the 5 weekdays count.
	created := env.do(t, http.MethodPost, userURL(user, "/time-off"), token, api.TimeOffRequest{
		StartDate: "2024-06-08",
		EndDate:   "2024-06-16",
		Type:      "VACATION",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	rec := env.do(t, http.MethodGet, userURL(user, "/vacation-balance?year=2024"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	balance := decode[api.VacationBalanceDTO](t, rec)
	require.Equal(t, "28", balance.AnnualAllowanceDays)
	require.Equal(t, "5", balance.UsedDays)
	require.Equal(t, "25", balance.RemainingDays)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_Endpoint(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "max@example.com", "hunter22")
	token := env.login(t, "max@example.com", "hunter22")

	rec := env.do(t, http.MethodGet, "/api/holidays?year=2024&jurisdiction=BERLIN", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	holidays := decode[[]api.HolidayDTO](t, rec)
	byDate := make(map[string]string, len(holidays))
	for _, h := range holidays {
		byDate[h.Date] = h.Name
	}
	require.Equal(t, "International Women's Day", byDate["2024-03-08"])
	require.Equal(t, "Good Friday", byDate["2024-03-29"])

	unknown := env.do(t, http.MethodGet, "/api/holidays?year=2024&jurisdiction=BAVARIA", token, nil)
	require.Equal(t, http.StatusBadRequest, unknown.Code)
}
