package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Create groups, requests, headers and params",
		Up: `
			CREATE TABLE IF NOT EXISTS groups (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE
			);

			CREATE TABLE IF NOT EXISTS requests (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				group_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				request_type TEXT NOT NULL,
				url TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '',
				auth_type TEXT NOT NULL DEFAULT 'None',
				auth_username TEXT,
				auth_password TEXT,
				FOREIGN KEY (group_id) REFERENCES groups(id),
				UNIQUE (group_id, name)
			);

			CREATE TABLE IF NOT EXISTS headers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				FOREIGN KEY (request_id) REFERENCES requests(id)
			);

			CREATE TABLE IF NOT EXISTS params (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				FOREIGN KEY (request_id) REFERENCES requests(id)
			);
		`,
		Down: `
			DROP TABLE IF EXISTS params;
			DROP TABLE IF EXISTS headers;
			DROP TABLE IF EXISTS requests;
			DROP TABLE IF EXISTS groups;
		`,
	},
	{
		Version: 2,
		Name:    "Add foreign key indices for child lookups",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_requests_group ON requests(group_id);
			CREATE INDEX IF NOT EXISTS idx_headers_request ON headers(request_id);
			CREATE INDEX IF NOT EXISTS idx_params_request ON params(request_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_requests_group;
			DROP INDEX IF EXISTS idx_headers_request;
			DROP INDEX IF EXISTS idx_params_request;
		`,
	},
	{
		Version: 3,
		Name:    "Create response history",
		Up: `
			CREATE TABLE IF NOT EXISTS history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL,
				timestamp DATETIME NOT NULL,
				method TEXT NOT NULL,
				url TEXT NOT NULL,
				response_status INTEGER NOT NULL,
				response_status_text TEXT NOT NULL,
				response_headers TEXT NOT NULL,
				response_body TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				request_size INTEGER NOT NULL DEFAULT 0,
				response_size INTEGER NOT NULL DEFAULT 0,
				error TEXT NOT NULL DEFAULT '',
				FOREIGN KEY (request_id) REFERENCES requests(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_history_request ON history(request_id, id DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_history_request;
			DROP TABLE IF EXISTS history;
		`,
	},
}

// Run executes all pending migrations on the database. Each migration and
// its bookkeeping row commit together.
func Run(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := apply(db, migration); err != nil {
			return err
		}
	}

	return nil
}

func apply(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
	}

	_, err = tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version,
		migration.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// Rollback reverts migrations newer than target, newest first
func Rollback(db *sql.DB, target int) error {
	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return err
	}

	for i := len(AllMigrations) - 1; i >= 0; i-- {
		migration := AllMigrations[i]
		if migration.Version <= target || migration.Version > currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin rollback %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.Down); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to roll back migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to unrecord migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit rollback %d: %w", migration.Version, err)
		}
	}
	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}

// Latest is the version Run brings a database to
func Latest() int {
	if len(AllMigrations) == 0 {
		return 0
	}
	return AllMigrations[len(AllMigrations)-1].Version
}
