// Package store provides an in-memory Store implementation for
// testing and development.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fathom/timekeep/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	users     map[int64]engine.User
	schedules map[int64]engine.Schedule
	entries   map[int64]engine.TimeEntry
	timeOff   map[int64]engine.TimeOff
	rules     map[int64]engine.RecurringRule
	balances  map[balanceKey]engine.VacationBalance

	nextID int64
}

type balanceKey struct {
	UserID int64
	Year   int
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[int64]engine.User),
		schedules: make(map[int64]engine.Schedule),
		entries:   make(map[int64]engine.TimeEntry),
		timeOff:   make(map[int64]engine.TimeOff),
		rules:     make(map[int64]engine.RecurringRule),
		balances:  make(map[balanceKey]engine.VacationBalance),
	}
}

var _ engine.Store = (*Memory)(nil)

func (m *Memory) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

// copyDates keeps the store and its callers off a shared backing array.
// Exemption slices cross the boundary in both directions.
func copyDates(in []engine.Date) []engine.Date {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.Date, len(in))
	copy(out, in)
	return out
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, user engine.User) (engine.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return engine.User{}, engine.ErrDuplicate
		}
	}
	user.ID = m.nextIDLocked()
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return engine.User{}, engine.ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return engine.User{}, engine.ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]engine.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Memory) UpdateUser(_ context.Context, user engine.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return engine.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

// -----------------------------------------------------------------------------
// Schedules
// -----------------------------------------------------------------------------

func (m *Memory) GetSchedule(_ context.Context, userID int64) (engine.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schedule, ok := m.schedules[userID]
	if !ok {
		return engine.Schedule{}, engine.ErrNotFound
	}
	return schedule, nil
}

func (m *Memory) SaveSchedule(_ context.Context, userID int64, schedule engine.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[userID] = schedule
	return nil
}

// -----------------------------------------------------------------------------
// Time entries
// -----------------------------------------------------------------------------

func (m *Memory) CreateEntry(_ context.Context, entry engine.TimeEntry) (engine.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextIDLocked()
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *Memory) UpdateEntry(_ context.Context, entry engine.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return engine.ErrNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id int64) (engine.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return engine.TimeEntry{}, engine.ErrNotFound
	}
	return entry, nil
}

func (m *Memory) EntriesInRange(_ context.Context, userID int64, r engine.DateRange) ([]engine.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.TimeEntry
	for _, e := range m.entries {
		if e.UserID == userID && r.Contains(e.EntryDate) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (m *Memory) ActiveEntry(_ context.Context, userID int64) (engine.TimeEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.IsActive() {
			return e, true, nil
		}
	}
	return engine.TimeEntry{}, false, nil
}

// -----------------------------------------------------------------------------
// Time off
// -----------------------------------------------------------------------------

func (m *Memory) CreateTimeOff(_ context.Context, timeOff engine.TimeOff) (engine.TimeOff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	timeOff.ID = m.nextIDLocked()
	m.timeOff[timeOff.ID] = timeOff
	return timeOff, nil
}

func (m *Memory) UpdateTimeOff(_ context.Context, timeOff engine.TimeOff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timeOff[timeOff.ID]; !ok {
		return engine.ErrNotFound
	}
	m.timeOff[timeOff.ID] = timeOff
	return nil
}

func (m *Memory) DeleteTimeOff(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timeOff[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.timeOff, id)
	return nil
}

func (m *Memory) GetTimeOff(_ context.Context, id int64) (engine.TimeOff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	timeOff, ok := m.timeOff[id]
	if !ok {
		return engine.TimeOff{}, engine.ErrNotFound
	}
	return timeOff, nil
}

func (m *Memory) TimeOffInRange(_ context.Context, userID int64, r engine.DateRange) ([]engine.TimeOff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.TimeOff
	for _, to := range m.timeOff {
		if to.UserID != userID {
			continue
		}
		if _, ok := to.Range().Intersect(r); ok {
			out = append(out, to)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Recurring rules
// -----------------------------------------------------------------------------

func (m *Memory) CreateRule(_ context.Context, rule engine.RecurringRule) (engine.RecurringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule.ID = m.nextIDLocked()
	stored := rule
	stored.Exemptions = copyDates(rule.Exemptions)
	m.rules[rule.ID] = stored
	return rule, nil
}

func (m *Memory) UpdateRule(_ context.Context, rule engine.RecurringRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return engine.ErrNotFound
	}
	rule.Exemptions = copyDates(rule.Exemptions)
	m.rules[rule.ID] = rule
	return nil
}

func (m *Memory) GetRule(_ context.Context, id int64) (engine.RecurringRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[id]
	if !ok {
		return engine.RecurringRule{}, engine.ErrNotFound
	}
	rule.Exemptions = copyDates(rule.Exemptions)
	return rule, nil
}

func (m *Memory) DeleteRule(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *Memory) RulesForUser(_ context.Context, userID int64) ([]engine.RecurringRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.RecurringRule
	for _, r := range m.rules {
		if r.UserID == userID {
			r.Exemptions = copyDates(r.Exemptions)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AddRuleExemption(_ context.Context, ruleID int64, date engine.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[ruleID]
	if !ok {
		return engine.ErrNotFound
	}
	for _, ex := range rule.Exemptions {
		if ex.Equal(date) {
			return engine.ErrDuplicate
		}
	}
	rule.Exemptions = append(copyDates(rule.Exemptions), date)
	m.rules[ruleID] = rule
	return nil
}

func (m *Memory) RemoveRuleExemption(_ context.Context, ruleID int64, date engine.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[ruleID]
	if !ok {
		return engine.ErrNotFound
	}
	kept := make([]engine.Date, 0, len(rule.Exemptions))
	found := false
	for _, ex := range rule.Exemptions {
		if ex.Equal(date) {
			found = true
			continue
		}
		kept = append(kept, ex)
	}
	if !found {
		return engine.ErrNotFound
	}
	rule.Exemptions = kept
	m.rules[ruleID] = rule
	return nil
}

// -----------------------------------------------------------------------------
// Vacation balances
// -----------------------------------------------------------------------------

func (m *Memory) GetBalance(_ context.Context, userID int64, year int) (engine.VacationBalance, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, ok := m.balances[balanceKey{UserID: userID, Year: year}]
	return balance, ok, nil
}

func (m *Memory) SaveBalance(_ context.Context, balance engine.VacationBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey{UserID: balance.UserID, Year: balance.Year}] = balance
	return nil
}
