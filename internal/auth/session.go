package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"expensedesk/internal/core"
)

// Session is the explicit per-login context: created at login, destroyed at
// logout or expiry. The client only ever holds the opaque token; identity
// and role live server-side.
type Session struct {
	Token     string
	Username  string
	Role      core.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager keeps sessions in process memory with TTL expiry. A
// background sweep removes expired entries so abandoned sessions do not
// accumulate.
type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session

	stopSweep    chan struct{}
	shutdownOnce sync.Once
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	m := &SessionManager{
		ttl:       ttl,
		sessions:  make(map[string]*Session),
		stopSweep: make(chan struct{}),
	}
	go m.startSweep()
	return m
}

func (m *SessionManager) startSweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.stopSweep:
			return
		}
	}
}

func (m *SessionManager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}

// Start creates a session for an authenticated user and returns it.
func (m *SessionManager) Start(username string, role core.Role) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	s := &Session{
		Token:     token,
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	return *s, nil
}

// Get returns the live session for token. Expired sessions are destroyed on
// access and reported as absent.
func (m *SessionManager) Get(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return Session{}, false
	}
	return *s, true
}

// Destroy ends the session for token. Destroying an unknown token is a
// no-op.
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Close stops the background sweep. Existing sessions stay readable until
// their TTL passes.
func (m *SessionManager) Close() {
	m.shutdownOnce.Do(func() {
		close(m.stopSweep)
	})
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
