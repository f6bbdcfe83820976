/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists users, weekly working-hour templates, time entries, time off,
  recurring off-day rules and vacation balances. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:                       Account records, bcrypt password hashes
  working_hours:               7 rows per user, keyed on (user_id, weekday)
  time_entries:                Clock-in/clock-out spans
  time_off:                    Inclusive absence ranges
  recurring_off_days:          Repeating off-day rules
  recurring_off_day_exemptions: Per-date opt-outs of a rule
  vacation_balances:           One row per (user_id, year)

ENCODING:
  Dates are TEXT in ISO form (2006-01-02), timestamps TEXT in RFC 3339,
  decimal quantities TEXT so no precision is lost in transit.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/timekeep.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fathom/timekeep/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		jurisdiction TEXT NOT NULL,
		half_day_holidays INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS working_hours (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 7),
		is_working_day INTEGER NOT NULL,
		target_hours TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, weekday)
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		entry_date TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		entry_type TEXT NOT NULL DEFAULT 'WORK',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_user_date
		ON time_entries(user_id, entry_date);

	CREATE TABLE IF NOT EXISTS time_off (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		time_off_type TEXT NOT NULL,
		hours_per_day TEXT,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_time_off_user_range
		ON time_off(user_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS recurring_off_days (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		pattern TEXT NOT NULL,
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 7),
		week_interval INTEGER,
		reference_date TEXT,
		week_of_month INTEGER,
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS recurring_off_day_exemptions (
		rule_id INTEGER NOT NULL REFERENCES recurring_off_days(id) ON DELETE CASCADE,
		exemption_date TEXT NOT NULL,
		PRIMARY KEY (rule_id, exemption_date)
	);

	CREATE TABLE IF NOT EXISTS vacation_balances (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		annual_allowance_days TEXT NOT NULL,
		carried_over_days TEXT NOT NULL,
		adjustment_days TEXT NOT NULL,
		used_days TEXT NOT NULL,
		remaining_days TEXT NOT NULL,
		PRIMARY KEY (user_id, year)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func encodeDate(d engine.Date) string { return d.String() }

func decodeDate(s string) (engine.Date, error) { return engine.ParseDate(s) }

func encodeDatePtr(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func encodeClockTime(c *engine.ClockTime) any {
	if c == nil {
		return nil
	}
	return c.String()
}

func encodeDecimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, user engine.User) (engine.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, first_name, last_name, password_hash, jurisdiction, half_day_holidays, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.Jurisdiction, user.HalfDayHolidays, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return engine.User{}, engine.ErrDuplicate
		}
		return engine.User{}, err
	}
	user.ID, err = res.LastInsertId()
	return user, err
}

func (s *Store) GetUser(ctx context.Context, id int64) (engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, jurisdiction, half_day_holidays
		FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, jurisdiction, half_day_holidays
		FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (engine.User, error) {
	var user engine.User
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.Jurisdiction, &user.HalfDayHolidays)
	if err == sql.ErrNoRows {
		return engine.User{}, engine.ErrNotFound
	}
	return user, err
}

func (s *Store) ListUsers(ctx context.Context) ([]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, jurisdiction, half_day_holidays
		FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []engine.User
	for rows.Next() {
		var user engine.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName,
			&user.PasswordHash, &user.Jurisdiction, &user.HalfDayHolidays); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user engine.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?, password_hash = ?,
			jurisdiction = ?, half_day_holidays = ?
		WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.Jurisdiction, user.HalfDayHolidays, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return engine.ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// =============================================================================
// WORKING HOURS
// =============================================================================

func (s *Store) GetSchedule(ctx context.Context, userID int64) (engine.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT weekday, is_working_day, target_hours, start_time, end_time, break_minutes
		FROM working_hours WHERE user_id = ? ORDER BY weekday`, userID)
	if err != nil {
		return engine.Schedule{}, err
	}
	defer rows.Close()

	var schedule engine.Schedule
	for rows.Next() {
		var (
			day        engine.WorkingDay
			hours      string
			start, end sql.NullString
		)
		if err := rows.Scan(&day.Weekday, &day.IsWorkingDay, &hours, &start, &end, &day.BreakMinutes); err != nil {
			return engine.Schedule{}, err
		}
		if day.TargetHours, err = decimal.NewFromString(hours); err != nil {
			return engine.Schedule{}, err
		}
		if start.Valid {
			ct, err := engine.ParseClockTime(start.String)
			if err != nil {
				return engine.Schedule{}, err
			}
			day.StartTime = &ct
		}
		if end.Valid {
			ct, err := engine.ParseClockTime(end.String)
			if err != nil {
				return engine.Schedule{}, err
			}
			day.EndTime = &ct
		}
		schedule.Days = append(schedule.Days, day)
	}
	if err := rows.Err(); err != nil {
		return engine.Schedule{}, err
	}
	if len(schedule.Days) == 0 {
		return engine.Schedule{}, engine.ErrNotFound
	}
	if err := schedule.Validate(); err != nil {
		return engine.Schedule{}, err
	}
	return schedule, nil
}

func (s *Store) SaveSchedule(ctx context.Context, userID int64, schedule engine.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM working_hours WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for _, day := range schedule.Days {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO working_hours (user_id, weekday, is_working_day, target_hours, start_time, end_time, break_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, day.Weekday, day.IsWorkingDay, day.TargetHours.String(),
			encodeClockTime(day.StartTime), encodeClockTime(day.EndTime), day.BreakMinutes)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func (s *Store) CreateEntry(ctx context.Context, entry engine.TimeEntry) (engine.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (user_id, entry_date, clock_in, clock_out, break_minutes, entry_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, encodeDate(entry.EntryDate), entry.ClockIn.UTC().Format(time.RFC3339),
		encodeTimePtr(entry.ClockOut), entry.BreakMinutes, string(entry.EntryType), entry.Notes)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	entry.ID, err = res.LastInsertId()
	return entry, err
}

func (s *Store) UpdateEntry(ctx context.Context, entry engine.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE time_entries SET entry_date = ?, clock_in = ?, clock_out = ?, break_minutes = ?, entry_type = ?, notes = ?
		WHERE id = ?`,
		encodeDate(entry.EntryDate), entry.ClockIn.UTC().Format(time.RFC3339),
		encodeTimePtr(entry.ClockOut), entry.BreakMinutes, string(entry.EntryType), entry.Notes, entry.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) GetEntry(ctx context.Context, id int64) (engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, entry_date, clock_in, clock_out, break_minutes, entry_type, notes
		FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	if len(entries) == 0 {
		return engine.TimeEntry{}, engine.ErrNotFound
	}
	return entries[0], nil
}

func (s *Store) EntriesInRange(ctx context.Context, userID int64, r engine.DateRange) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, entry_date, clock_in, clock_out, break_minutes, entry_type, notes
		FROM time_entries
		WHERE user_id = ? AND entry_date >= ? AND entry_date <= ?
		ORDER BY clock_in`,
		userID, encodeDate(r.Start), encodeDate(r.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ActiveEntry(ctx context.Context, userID int64) (engine.TimeEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, entry_date, clock_in, clock_out, break_minutes, entry_type, notes
		FROM time_entries
		WHERE user_id = ? AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1`, userID)
	if err != nil {
		return engine.TimeEntry{}, false, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return engine.TimeEntry{}, false, err
	}
	if len(entries) == 0 {
		return engine.TimeEntry{}, false, nil
	}
	return entries[0], true, nil
}

func scanEntries(rows *sql.Rows) ([]engine.TimeEntry, error) {
	var entries []engine.TimeEntry
	for rows.Next() {
		var (
			entry     engine.TimeEntry
			date      string
			clockIn   string
			clockOut  sql.NullString
			entryType string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &date, &clockIn, &clockOut,
			&entry.BreakMinutes, &entryType, &entry.Notes); err != nil {
			return nil, err
		}
		var err error
		if entry.EntryDate, err = decodeDate(date); err != nil {
			return nil, err
		}
		if entry.ClockIn, err = time.Parse(time.RFC3339, clockIn); err != nil {
			return nil, err
		}
		if clockOut.Valid {
			t, err := time.Parse(time.RFC3339, clockOut.String)
			if err != nil {
				return nil, err
			}
			entry.ClockOut = &t
		}
		entry.EntryType = engine.EntryType(entryType)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// TIME OFF
// =============================================================================

func (s *Store) CreateTimeOff(ctx context.Context, timeOff engine.TimeOff) (engine.TimeOff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO time_off (user_id, start_date, end_date, time_off_type, hours_per_day, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		timeOff.UserID, encodeDate(timeOff.StartDate), encodeDate(timeOff.EndDate),
		string(timeOff.Type), encodeDecimalPtr(timeOff.HoursPerDay), timeOff.Notes)
	if err != nil {
		return engine.TimeOff{}, err
	}
	timeOff.ID, err = res.LastInsertId()
	return timeOff, err
}

func (s *Store) UpdateTimeOff(ctx context.Context, timeOff engine.TimeOff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE time_off SET start_date = ?, end_date = ?, time_off_type = ?, hours_per_day = ?, notes = ?
		WHERE id = ?`,
		encodeDate(timeOff.StartDate), encodeDate(timeOff.EndDate), string(timeOff.Type),
		encodeDecimalPtr(timeOff.HoursPerDay), timeOff.Notes, timeOff.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteTimeOff(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM time_off WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) GetTimeOff(ctx context.Context, id int64) (engine.TimeOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, time_off_type, hours_per_day, notes
		FROM time_off WHERE id = ?`, id)
	if err != nil {
		return engine.TimeOff{}, err
	}
	defer rows.Close()

	records, err := scanTimeOff(rows)
	if err != nil {
		return engine.TimeOff{}, err
	}
	if len(records) == 0 {
		return engine.TimeOff{}, engine.ErrNotFound
	}
	return records[0], nil
}

func (s *Store) TimeOffInRange(ctx context.Context, userID int64, r engine.DateRange) ([]engine.TimeOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Intersection: record starts on or before the range end and ends on
	// or after the range start.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, time_off_type, hours_per_day, notes
		FROM time_off
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		userID, encodeDate(r.End), encodeDate(r.Start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeOff(rows)
}

func scanTimeOff(rows *sql.Rows) ([]engine.TimeOff, error) {
	var records []engine.TimeOff
	for rows.Next() {
		var (
			timeOff     engine.TimeOff
			start, end  string
			timeOffType string
			hours       sql.NullString
		)
		if err := rows.Scan(&timeOff.ID, &timeOff.UserID, &start, &end,
			&timeOffType, &hours, &timeOff.Notes); err != nil {
			return nil, err
		}
		var err error
		if timeOff.StartDate, err = decodeDate(start); err != nil {
			return nil, err
		}
		if timeOff.EndDate, err = decodeDate(end); err != nil {
			return nil, err
		}
		timeOff.Type = engine.TimeOffType(timeOffType)
		if hours.Valid {
			d, err := decimal.NewFromString(hours.String)
			if err != nil {
				return nil, err
			}
			timeOff.HoursPerDay = &d
		}
		records = append(records, timeOff)
	}
	return records, rows.Err()
}

// =============================================================================
// RECURRING OFF-DAYS
// =============================================================================

func (s *Store) CreateRule(ctx context.Context, rule engine.RecurringRule) (engine.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reference any
	if !rule.ReferenceDate.IsZero() {
		reference = encodeDate(rule.ReferenceDate)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_off_days (user_id, pattern, weekday, week_interval, reference_date, week_of_month, start_date, end_date, is_active, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, string(rule.Pattern), rule.Weekday, rule.WeekInterval, reference,
		rule.WeekOfMonth, encodeDate(rule.StartDate), encodeDatePtr(rule.EndDate),
		rule.Active, rule.Description)
	if err != nil {
		return engine.RecurringRule{}, err
	}
	rule.ID, err = res.LastInsertId()
	return rule, err
}

func (s *Store) UpdateRule(ctx context.Context, rule engine.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reference any
	if !rule.ReferenceDate.IsZero() {
		reference = encodeDate(rule.ReferenceDate)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurring_off_days SET pattern = ?, weekday = ?, week_interval = ?, reference_date = ?,
			week_of_month = ?, start_date = ?, end_date = ?, is_active = ?, description = ?
		WHERE id = ?`,
		string(rule.Pattern), rule.Weekday, rule.WeekInterval, reference, rule.WeekOfMonth,
		encodeDate(rule.StartDate), encodeDatePtr(rule.EndDate), rule.Active, rule.Description, rule.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_off_days WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) GetRule(ctx context.Context, id int64) (engine.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, pattern, weekday, week_interval, reference_date, week_of_month, start_date, end_date, is_active, description
		FROM recurring_off_days WHERE id = ?`, id)

	var (
		rule      engine.RecurringRule
		pattern   string
		interval  sql.NullInt64
		reference sql.NullString
		weekOf    sql.NullInt64
		start     string
		end       sql.NullString
	)
	err := row.Scan(&rule.ID, &rule.UserID, &pattern, &rule.Weekday, &interval,
		&reference, &weekOf, &start, &end, &rule.Active, &rule.Description)
	if err == sql.ErrNoRows {
		return engine.RecurringRule{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.RecurringRule{}, err
	}
	rule.Pattern = engine.RecurrencePattern(pattern)
	rule.WeekInterval = int(interval.Int64)
	rule.WeekOfMonth = int(weekOf.Int64)
	if reference.Valid {
		if rule.ReferenceDate, err = decodeDate(reference.String); err != nil {
			return engine.RecurringRule{}, err
		}
	}
	if rule.StartDate, err = decodeDate(start); err != nil {
		return engine.RecurringRule{}, err
	}
	if end.Valid {
		d, err := decodeDate(end.String)
		if err != nil {
			return engine.RecurringRule{}, err
		}
		rule.EndDate = &d
	}
	if rule.Exemptions, err = s.ruleExemptions(ctx, rule.ID); err != nil {
		return engine.RecurringRule{}, err
	}
	return rule, nil
}

func (s *Store) RulesForUser(ctx context.Context, userID int64) ([]engine.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, pattern, weekday, week_interval, reference_date, week_of_month, start_date, end_date, is_active, description
		FROM recurring_off_days WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []engine.RecurringRule
	for rows.Next() {
		var (
			rule      engine.RecurringRule
			pattern   string
			interval  sql.NullInt64
			reference sql.NullString
			weekOf    sql.NullInt64
			start     string
			end       sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.UserID, &pattern, &rule.Weekday, &interval,
			&reference, &weekOf, &start, &end, &rule.Active, &rule.Description); err != nil {
			return nil, err
		}
		rule.Pattern = engine.RecurrencePattern(pattern)
		rule.WeekInterval = int(interval.Int64)
		rule.WeekOfMonth = int(weekOf.Int64)
		if reference.Valid {
			if rule.ReferenceDate, err = decodeDate(reference.String); err != nil {
				return nil, err
			}
		}
		if rule.StartDate, err = decodeDate(start); err != nil {
			return nil, err
		}
		if end.Valid {
			d, err := decodeDate(end.String)
			if err != nil {
				return nil, err
			}
			rule.EndDate = &d
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rules {
		if rules[i].Exemptions, err = s.ruleExemptions(ctx, rules[i].ID); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func (s *Store) ruleExemptions(ctx context.Context, ruleID int64) ([]engine.Date, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exemption_date FROM recurring_off_day_exemptions
		WHERE rule_id = ? ORDER BY exemption_date`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []engine.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		date, err := decodeDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func (s *Store) AddRuleExemption(ctx context.Context, ruleID int64, date engine.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_off_day_exemptions (rule_id, exemption_date) VALUES (?, ?)`,
		ruleID, encodeDate(date))
	if isUniqueViolation(err) {
		return engine.ErrDuplicate
	}
	return err
}

func (s *Store) RemoveRuleExemption(ctx context.Context, ruleID int64, date engine.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM recurring_off_day_exemptions WHERE rule_id = ? AND exemption_date = ?`,
		ruleID, encodeDate(date))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// =============================================================================
// VACATION BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, userID int64, year int) (engine.VacationBalance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, year, annual_allowance_days, carried_over_days, adjustment_days, used_days, remaining_days
		FROM vacation_balances WHERE user_id = ? AND year = ?`, userID, year)

	var (
		balance engine.VacationBalance
		raw     [5]string
	)
	err := row.Scan(&balance.UserID, &balance.Year, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4])
	if err == sql.ErrNoRows {
		return engine.VacationBalance{}, false, nil
	}
	if err != nil {
		return engine.VacationBalance{}, false, err
	}
	fields := []*decimal.Decimal{
		&balance.AnnualAllowanceDays, &balance.CarriedOverDays,
		&balance.AdjustmentDays, &balance.UsedDays, &balance.RemainingDays,
	}
	for i, field := range fields {
		if *field, err = decimal.NewFromString(raw[i]); err != nil {
			return engine.VacationBalance{}, false, err
		}
	}
	return balance, true, nil
}

func (s *Store) SaveBalance(ctx context.Context, balance engine.VacationBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacation_balances (user_id, year, annual_allowance_days, carried_over_days, adjustment_days, used_days, remaining_days)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, year) DO UPDATE SET
			annual_allowance_days = excluded.annual_allowance_days,
			carried_over_days = excluded.carried_over_days,
			adjustment_days = excluded.adjustment_days,
			used_days = excluded.used_days,
			remaining_days = excluded.remaining_days`,
		balance.UserID, balance.Year,
		balance.AnnualAllowanceDays.String(), balance.CarriedOverDays.String(),
		balance.AdjustmentDays.String(), balance.UsedDays.String(), balance.RemainingDays.String())
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches go-sqlite3 constraint errors by message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
