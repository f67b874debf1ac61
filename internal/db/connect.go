package db

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sqlx.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:mindcheck.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mindcheck?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sqlx.ConnectContext(ctx, drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; avoids SQLITE_BUSY and keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  definition_json TEXT NOT NULL,
  question_count INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  answers_json TEXT NOT NULL,
  result TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  submitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_user_idx ON results(user_id, submitted_at);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,       -- e.g. ResultSubmitted
  key TEXT NOT NULL,       -- natural key: result id
  data TEXT NOT NULL,      -- JSON payload
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS forward_cursor (
  name TEXT PRIMARY KEY,
  seq INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  definition_json TEXT NOT NULL,
  question_count INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  answers_json TEXT NOT NULL,
  result TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  submitted_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS results_user_idx ON results(user_id, submitted_at);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS forward_cursor (
  name TEXT PRIMARY KEY,
  seq BIGINT NOT NULL
);
`
