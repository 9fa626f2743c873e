package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// LatestVersion selects the newest migration in Migrate.
const LatestVersion = -1

// MigrationResult reports what Migrate did.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// Migrate moves the schema of db to targetVersion.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to the specified version.
//
// The migrate instance is not closed: doing so would close db.
func Migrate(db *sql.DB, targetVersion int) (MigrationResult, error) {
	var result MigrationResult

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return result, fmt.Errorf("failed to create SQLite migrate driver: %w", err)
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "tracker", driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d, fix manually or force version", current)
	}
	result.From = current

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.To = current
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}

	result.Changed = true
	result.To, _, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		// Rolled all the way back.
		return result, nil
	}
	return result, err
}
