package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout every timestamp column uses, so
// that string comparison in SQL orders instants correctly.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DateLayout is the layout of calendar date columns.
const DateLayout = "2006-01-02"

// FormatTime renders t for storage. The zero time is stored as NULL.
func FormatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp; NULL and garbage become the zero time.
func ParseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsUniqueViolation reports whether err is a sqlite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed")
}

// DSN builds the modernc sqlite connection string for a database file. The
// pragmas are applied to every pooled connection.
func DSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// migration upgrades the schema by one version inside a transaction.
type migration func(ctx context.Context, tx *sql.Tx) error

// migrations is the ordered chain; index i upgrades version i to i+1.
var migrations = []migration{
	migrateBaseline,
	migrateCourtSurcharges,
}

// LatestSchemaVersion returns the version a fully migrated database reports.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the current schema version, 0 for an empty database.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// MigrateDB brings the schema up to LatestSchemaVersion. Each step runs in
// its own transaction together with the version bump.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, path string) error {
	ctx := context.Background()
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > LatestSchemaVersion() {
		return fmt.Errorf("database %s is at schema version %d, newer than this binary (%d)", path, current, LatestSchemaVersion())
	}

	for v := current; v < LatestSchemaVersion(); v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := migrations[v](ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		slog.Info("db_event", "event", "migration_applied", "db", path, "version", v+1)
	}
	return nil
}

func migrateBaseline(ctx context.Context, tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'member',
		member_category TEXT NOT NULL DEFAULT 'palyaberlo',
		is_active INTEGER NOT NULL DEFAULT 1,
		membership_requested INTEGER NOT NULL DEFAULT 0,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS court_closures (
		id TEXT PRIMARY KEY,
		court_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_hour INTEGER,
		end_hour INTEGER,
		reason TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (court_id) REFERENCES courts(id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_court_closures_unique
		ON court_closures (court_id, start_date, end_date, IFNULL(start_hour, -1), IFNULL(end_hour, -1));

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		court_id TEXT NOT NULL,
		booker_user_id TEXT NOT NULL,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		game_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		is_peak INTEGER NOT NULL DEFAULT 0,
		is_coaching INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		cancelled_at TEXT,
		FOREIGN KEY (court_id) REFERENCES courts(id),
		FOREIGN KEY (booker_user_id) REFERENCES users(id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
		ON bookings (court_id, starts_at) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_bookings_booker_starts ON bookings (booker_user_id, starts_at);

	CREATE TABLE IF NOT EXISTS booking_players (
		booking_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		is_booker INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (booking_id, user_id),
		FOREIGN KEY (booking_id) REFERENCES bookings(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		UNIQUE (user_id, account_type),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		booking_id TEXT,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'HUF',
		status_code TEXT NOT NULL,
		note TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id, created_at);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		resource_type TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := tx.ExecContext(ctx, schema)
	return err
}

// migrateCourtSurcharges adds the court flags that drive the lighting and
// artificial-turf surcharges.
func migrateCourtSurcharges(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE courts ADD COLUMN has_lighting INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE courts ADD COLUMN is_mufuves INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event (timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
