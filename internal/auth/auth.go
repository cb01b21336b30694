// Package auth implements the credential check, the central authorization
// decision, and server-side session state.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expensedesk/internal/core"
	"expensedesk/internal/storage"
)

// ErrInvalidCredentials is the single failure signal for login. Unknown
// username and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// HashPassword returns the SHA-256 hex digest of password. There is no
// per-user salt: the stored hash must be reproducible from the password
// alone so the lookup can be a plain equality match.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Service answers login attempts against the user store.
type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Authenticate hashes the submitted password and matches it against the
// stored hash for username. It returns the account's role on success and
// ErrInvalidCredentials otherwise. Read-only; nothing is recorded about
// failed attempts.
func (s *Service) Authenticate(ctx context.Context, username, password string) (core.Role, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	role, err := s.store.GetUserRole(ctx, username, HashPassword(password))
	if errors.Is(err, storage.ErrNoMatch) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("authenticate %q: %w", username, err)
	}

	slog.InfoContext(ctx, "Login succeeded", "username", username, "role", string(role))
	return role, nil
}

// Register creates a self-service account. Only the Employee and Developer
// roles may be created this way; admins come from the seed or the adduser
// CLI.
func (s *Service) Register(ctx context.Context, username, password string, role core.Role) error {
	if role != core.RoleEmployee && role != core.RoleDeveloper {
		return fmt.Errorf("register %q: role %q not allowed", username, role)
	}
	if password == "" {
		return core.ErrEmptyPassword
	}

	return s.store.CreateUser(ctx, core.User{
		Username:     strings.TrimSpace(username),
		PasswordHash: HashPassword(password),
		Role:         role,
	})
}
