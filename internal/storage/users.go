package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"expensedesk/internal/core"
)

// CreateUser registers a new account. The existence pre-check and the insert
// run in one transaction so two concurrent registrations of the same
// username cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("validate user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", u.Username).Scan(&count); err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("create user %q: %w", u.Username, ErrUsernameTaken)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		u.Username, u.PasswordHash, string(u.Role)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	slog.InfoContext(ctx, "User created", "username", u.Username, "role", string(u.Role))
	return nil
}

// GetUserRole looks up the role for the username whose stored hash equals
// passwordHash. Unknown username and wrong password both return ErrNoMatch;
// the caller cannot tell them apart, which keeps usernames unenumerable.
func (s *Store) GetUserRole(ctx context.Context, username, passwordHash string) (core.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM users WHERE username = ? AND password_hash = ?",
		username, passwordHash).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMatch
	}
	if err != nil {
		return "", fmt.Errorf("query user role: %w", err)
	}
	return core.Role(role), nil
}

// GetUser returns the stored account for username.
func (s *Store) GetUser(ctx context.Context, username string) (core.User, error) {
	var u core.User
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT username, password_hash, role FROM users WHERE username = ?",
		username).Scan(&u.Username, &u.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("query user: %w", err)
	}
	u.Role = core.Role(role)
	return u, nil
}

// UserCount returns the number of registered accounts.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
