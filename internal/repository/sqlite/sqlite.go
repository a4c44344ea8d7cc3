// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database. It lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for
// a small API like this one and for tests (use ":memory:" for an in-memory DB).
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so no C compiler needed, works everywhere Go works.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements SnippetRepository, UserRepository and GroupRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/snippets.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// PRAGMAS IN THE DSN:
// PRAGMA statements are per-connection, and sql.DB is a pool of connections.
// Running "PRAGMA foreign_keys=ON" once would only configure whichever
// connection happened to run it. Passing them as _pragma DSN parameters makes
// the driver apply them to every connection it opens.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	// Pin the pool to one connection so all queries see the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping verifies the connection actually works.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn builds the driver connection string.
//
// _time_format=sqlite stores times as "2006-01-02 15:04:05.999999999-07:00".
// All times are written in UTC, so that text sorts chronologically and
// ORDER BY on a DATETIME column does what you'd expect.
func dsn(dbPath string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if dbPath == ":memory:" {
		return "file::memory:?" + params
	}
	return "file:" + dbPath + "?" + params + "&_pragma=journal_mode(WAL)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start; it won't error if
// the table exists. Columns added after the first release go through
// addColumnIfNotExists so existing database files pick them up.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			created  DATETIME NOT NULL,
			title    TEXT NOT NULL DEFAULT '',
			code     TEXT NOT NULL,
			linenos  INTEGER NOT NULL DEFAULT 0,
			language TEXT NOT NULL DEFAULT 'python',
			style    TEXT NOT NULL DEFAULT 'friendly'
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_created ON snippets(created);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// github_id is NULL for password-only accounts; UNIQUE ignores NULLs,
	// so any number of such users can coexist.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			date_joined   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_date_joined ON users(date_joined);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	if err := db.addColumnIfNotExists("users", "is_staff",
		"INTEGER NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("adding is_staff to users: %w", err)
	}

	// "groups" is an SQL keyword (window frames), hence the prefix.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS auth_groups (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS auth_group_members (
			user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			group_id INTEGER NOT NULL REFERENCES auth_groups(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, group_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_members_group ON auth_group_members(group_id);
	`)
	if err != nil {
		return fmt.Errorf("creating group tables: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent: safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The service layer checks uniqueness first; this catches the race where two
// requests claim the same name at once.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// placeholders returns "?, ?, ?" for n values, plus the values as []any.
func placeholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

// clampList fills in a default page size when the caller gave none.
// The maximum belongs to the handler's Paginator, so none is applied here.
func clampList(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // Default page size
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
