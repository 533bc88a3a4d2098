// Package session holds the explicit per-login context: which portfolio is
// open, with what role, over which broker connection.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"traderpro/internal/broker"
	"traderpro/internal/config"
)

// Role decides which operations a session may perform.
type Role string

const (
	// RoleAdmin may trade and cancel.
	RoleAdmin Role = "admin"
	// RoleGuest is read-only: portfolio, summary and history.
	RoleGuest Role = "guest"
)

var (
	ErrUnknownPortfolio = errors.New("unknown portfolio")
	ErrInvalidPassword  = errors.New("invalid password")

	// ErrUnknownSession is returned for tokens never issued or already
	// logged out. Sessions live until logout or server restart.
	ErrUnknownSession = errors.New("unknown session")
)

// PasswordNotConfiguredError reports that the environment variable holding a
// portfolio's admin password is not set.
type PasswordNotConfiguredError struct {
	Portfolio string
	EnvVar    string
}

func (e *PasswordNotConfiguredError) Error() string {
	return fmt.Sprintf("portfolio %q: password variable %s is not set", e.Portfolio, e.EnvVar)
}

// Session is one logged-in view of a portfolio.
type Session struct {
	Token     string
	Portfolio string
	Role      Role
	Broker    broker.Broker
	CreatedAt time.Time
}

// IsAdmin reports whether the session may place and cancel orders.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// BrokerFactory opens a broker connection for a portfolio.
type BrokerFactory func(ctx context.Context, p config.Portfolio) (broker.Broker, error)

// Manager authenticates logins and tracks live sessions by token.
type Manager struct {
	mu       sync.RWMutex
	cfg      *config.Config
	factory  BrokerFactory
	sessions map[string]*Session
	now      func() time.Time
	log      *slog.Logger
}

// NewManager creates a Manager over the portfolios of cfg.
func NewManager(cfg *config.Config, factory BrokerFactory) *Manager {
	return &Manager{
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*Session),
		now:      time.Now,
		log:      slog.Default().With("component", "session"),
	}
}

// Portfolios returns the names offered at login.
func (m *Manager) Portfolios() []string {
	return m.cfg.PortfolioNames()
}

// Login opens a session on the named portfolio. A guest login needs no
// password. An admin login compares password against the portfolio's
// password variable; if that variable is unset the login fails with a
// *PasswordNotConfiguredError naming it.
func (m *Manager) Login(ctx context.Context, portfolio, password string, guest bool) (*Session, error) {
	p, ok := m.cfg.Portfolio(portfolio)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPortfolio, portfolio)
	}

	role := RoleGuest
	if !guest {
		want, set := p.Password()
		if !set {
			return nil, &PasswordNotConfiguredError{Portfolio: p.Name, EnvVar: p.PasswordEnv}
		}
		if subtle.ConstantTimeCompare([]byte(password), []byte(want)) != 1 {
			m.log.Warn("admin login refused", "portfolio", p.Name)
			return nil, ErrInvalidPassword
		}
		role = RoleAdmin
	}

	b, err := m.factory(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("opening broker for %q: %w", p.Name, err)
	}

	s := &Session{
		Token:     uuid.NewString(),
		Portfolio: p.Name,
		Role:      role,
		Broker:    b,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	m.log.Info("login", "portfolio", p.Name, "role", role, "broker", b.Name(), "active_sessions", m.Len())
	return s, nil
}

// Get resolves a token to its session.
func (m *Manager) Get(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Logout forgets a session. Unknown tokens are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		m.log.Info("logout", "portfolio", s.Portfolio, "role", s.Role, "active_sessions", m.Len())
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
