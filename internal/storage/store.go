package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensedesk/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is the stored form of creation timestamps. It sorts
// lexicographically in chronological order, which ORDER BY relies on.
const timeLayout = "2006-01-02 15:04:05"

var (
	// ErrUsernameTaken is returned by CreateUser when the username exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrNoMatch is the single signal for unknown user or wrong password.
	ErrNoMatch = errors.New("no matching user")
	// ErrNotFound is returned when a row lookup finds nothing.
	ErrNotFound = errors.New("not found")
)

// Store owns all persisted state. It wraps one shared *sql.DB with a bounded
// pool; callers never open their own connections.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the single-file SQLite database at path
// and runs migrations. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every pooled connection gets its own private in-memory
		// database, so the schema only exists on the connection that ran
		// the migrations. A single connection keeps all statements on it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// Bounded pool; SQLite serializes writers anyway, so keep it small.
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SeedAdmin inserts the bootstrap administrator if that username is absent.
// Safe to call on every process start.
func (s *Store) SeedAdmin(ctx context.Context, admin core.User) error {
	if err := admin.Validate(); err != nil {
		return fmt.Errorf("validate seed admin: %w", err)
	}

	err := s.CreateUser(ctx, admin)
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Seeded bootstrap administrator", "username", admin.Username)
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
