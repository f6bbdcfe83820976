/*
store.go - Persistence interface for the tracked records

PURPOSE:
  Defines the interface between the computation core and the database.
  The core itself never touches storage; callers gather records through a
  Store implementation and hand them to the pure functions as in-memory
  values.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - engine/store: In-memory for testing/dev
*/
package engine

import "context"

// =============================================================================
// STORE - Persistence of users, templates, entries, time off, balances
// =============================================================================

type Store interface {
	// Users
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) error

	// Working-hour templates. SaveSchedule replaces the user's 7 rows
	// atomically; GetSchedule returns them validated.
	GetSchedule(ctx context.Context, userID int64) (Schedule, error)
	SaveSchedule(ctx context.Context, userID int64, schedule Schedule) error

	// Time entries
	CreateEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	UpdateEntry(ctx context.Context, entry TimeEntry) error
	DeleteEntry(ctx context.Context, id int64) error
	GetEntry(ctx context.Context, id int64) (TimeEntry, error)
	EntriesInRange(ctx context.Context, userID int64, r DateRange) ([]TimeEntry, error)

	// ActiveEntry returns the user's running entry, if any.
	ActiveEntry(ctx context.Context, userID int64) (TimeEntry, bool, error)

	// Time off. TimeOffInRange returns records whose ranges intersect r.
	CreateTimeOff(ctx context.Context, timeOff TimeOff) (TimeOff, error)
	UpdateTimeOff(ctx context.Context, timeOff TimeOff) error
	DeleteTimeOff(ctx context.Context, id int64) error
	GetTimeOff(ctx context.Context, id int64) (TimeOff, error)
	TimeOffInRange(ctx context.Context, userID int64, r DateRange) ([]TimeOff, error)

	// Recurring off-day rules, exemptions included.
	CreateRule(ctx context.Context, rule RecurringRule) (RecurringRule, error)
	UpdateRule(ctx context.Context, rule RecurringRule) error
	DeleteRule(ctx context.Context, id int64) error
	GetRule(ctx context.Context, id int64) (RecurringRule, error)
	RulesForUser(ctx context.Context, userID int64) ([]RecurringRule, error)
	AddRuleExemption(ctx context.Context, ruleID int64, date Date) error
	RemoveRuleExemption(ctx context.Context, ruleID int64, date Date) error

	// Vacation balances, one row per (user, year).
	GetBalance(ctx context.Context, userID int64, year int) (VacationBalance, bool, error)
	SaveBalance(ctx context.Context, balance VacationBalance) error
}
