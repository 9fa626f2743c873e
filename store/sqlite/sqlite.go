/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists accounts, profile targets, job types, completed jobs, absences
  and about page content, and answers the aggregation queries of
  tracker.RecordStore.

INTERFACES IMPLEMENTED:
  tracker.RecordStore: ProfileTarget lookup plus credit/absence sums

KEY TABLES:
  users:           Accounts (username, bcrypt hash)
  profile_targets: One row per user, created in the same transaction
  job_types:       Reference data, unique by name
  completed_jobs:  One row per completion (user, job type, day)
  absences:        Hours away on a day
  about_entries:   Static about page text

STORAGE FORMATS:
  - Days are TEXT "YYYY-MM-DD"
  - Credits and hours are TEXT decimals, summed in Go to keep precision
  - Rostered days off are TEXT "Sat,Sun"

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is pinned
  to one connection since every new connection would see an empty one.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/tracker.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  weekly := tracker.NewWeeklyAggregator(store)

MIGRATION:
  Versioned migrations live in migrations/ and are embedded in the
  binary. New() migrates to the latest version; the migrate command
  can move to any version.

SEE ALSO:
  - tracker/store.go: Interface definition
  - tracker/store/memory.go: In-memory implementation for testing
  - migrate.go: golang-migrate wiring
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
	"github.com/warp/job-tracker/tracker"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const dateLayout = "2006-01-02"

// Store implements tracker.RecordStore and the CRUD used by the API using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path and
// migrates it to the latest schema. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := Migrate(db, LatestVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Open opens the database without touching the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to a private in-memory database sees its own copy.
	if IsMemory(dbPath) {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

const connectionParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// dsn appends the connection parameters to a plain path or a "file:" URI
// that may already carry its own query string.
func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + connectionParams
	}
	return dbPath + "?" + connectionParams
}

// IsMemory reports whether dbPath names an in-memory database.
func IsMemory(dbPath string) bool {
	return strings.Contains(dbPath, MemoryPath) || strings.Contains(dbPath, "mode=memory")
}

// FilePath strips a "file:" scheme and query string, leaving the path on disk.
func FilePath(dbPath string) string {
	path := strings.TrimPrefix(dbPath, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection, used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser adds an account together with its default ProfileTarget.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*tracker.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	createdAt := time.Now().UTC()
	res, err := sqlTx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, tracker.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	if err := saveProfileTarget(ctx, sqlTx, tracker.DefaultProfileTarget(tracker.UserID(id))); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}

	return &tracker.User{
		ID:           tracker.UserID(id),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}

// GetUserByUsername returns nil if no such account exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

// GetUser returns nil if no such account exists.
func (s *Store) GetUser(ctx context.Context, id tracker.UserID) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*tracker.User, error) {
	var u tracker.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
	}
	return &u, nil
}

// =============================================================================
// PROFILE TARGETS
// =============================================================================

// GetProfileTarget returns the user's settings, or nil if none exist.
func (s *Store) GetProfileTarget(ctx context.Context, userID tracker.UserID) (*tracker.ProfileTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dailyTarget, dailyHours, daysOff string
	err := s.db.QueryRowContext(ctx,
		`SELECT daily_target, daily_hours, days_off FROM profile_targets WHERE user_id = ?`,
		userID,
	).Scan(&dailyTarget, &dailyHours, &daysOff)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile target: %w", err)
	}

	p := tracker.ProfileTarget{UserID: userID}
	if p.DailyTarget, err = decimal.NewFromString(dailyTarget); err != nil {
		return nil, fmt.Errorf("corrupt daily_target %q: %w", dailyTarget, err)
	}
	if p.DailyHours, err = decimal.NewFromString(dailyHours); err != nil {
		return nil, fmt.Errorf("corrupt daily_hours %q: %w", dailyHours, err)
	}
	if p.DaysOff, err = tracker.ParseDaySet(daysOff); err != nil {
		return nil, fmt.Errorf("corrupt days_off %q: %w", daysOff, err)
	}
	return &p, nil
}

// SaveProfileTarget validates and replaces the user's settings.
func (s *Store) SaveProfileTarget(ctx context.Context, p tracker.ProfileTarget) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return saveProfileTarget(ctx, s.db, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveProfileTarget(ctx context.Context, db execer, p tracker.ProfileTarget) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO profile_targets (user_id, daily_target, daily_hours, days_off)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			daily_target = excluded.daily_target,
			daily_hours = excluded.daily_hours,
			days_off = excluded.days_off
	`,
		p.UserID,
		p.DailyTarget.StringFixed(2),
		p.DailyHours.StringFixed(2),
		p.DaysOff.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile target: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatDate(d tracker.Date) string {
	return d.String()
}

func parseDate(s string) (tracker.Date, error) {
	// Columns written by older tools may carry a time part.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return tracker.ParseDate(s)
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt %s %q: %w", field, s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return tracker.ErrNotFound
	}
	return nil
}

var _ tracker.RecordStore = (*Store)(nil)
