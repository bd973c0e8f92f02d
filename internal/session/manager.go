// Package session tracks which connections are authenticated to which
// accounts. At most one session exists per account; mutating commands
// are only permitted on a connection holding the account's session.
package session

import (
	"log/slog"
	"sync"
	"time"

	domain "github.com/remote-account-ledger/internal/domain/session"
)

// Manager owns the session table. All access is serialized by a single
// mutex; session churn is light compared to ledger traffic, so per-slot
// locking is not worth the complexity.
type Manager struct {
	mu        sync.Mutex
	byAccount map[string]*domain.Session
	byConn    map[string]map[string]struct{} // connID -> account numbers
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a session manager. A zero ttl disables expiry.
func NewManager(logger *slog.Logger, ttl time.Duration) *Manager {
	return &Manager{
		byAccount: make(map[string]*domain.Session),
		byConn:    make(map[string]map[string]struct{}),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Login establishes a session binding the account to the connection.
// A prior session for the same account, on any connection, is replaced.
// Credential checks belong to the ledger engine; callers must verify the
// pin before calling Login.
func (m *Manager) Login(accountNumber, connID string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.byAccount[accountNumber]; ok {
		m.unlinkLocked(prior)
		m.logger.Info("session replaced",
			"account_number", accountNumber,
			"prior_conn_id", prior.ConnID,
			"conn_id", connID,
		)
	}

	now := m.now()
	s := &domain.Session{
		AccountNumber: accountNumber,
		ConnID:        connID,
		CreatedAt:     now,
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}

	m.byAccount[accountNumber] = s
	accounts, ok := m.byConn[connID]
	if !ok {
		accounts = make(map[string]struct{})
		m.byConn[connID] = accounts
	}
	accounts[accountNumber] = struct{}{}

	return s
}

// End removes the account's session. Ending a session that does not
// exist is not an error.
func (m *Manager) End(accountNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byAccount[accountNumber]; ok {
		m.unlinkLocked(s)
	}
}

// EndConn tears down every session owned by a connection; called by the
// transport when the connection closes
func (m *Manager) EndConn(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for accountNumber := range m.byConn[connID] {
		if s, ok := m.byAccount[accountNumber]; ok && s.ConnID == connID {
			delete(m.byAccount, accountNumber)
		}
	}
	delete(m.byConn, connID)
}

// Authenticated reports whether connID holds a live session for the
// account. Expired sessions are removed lazily here.
func (m *Manager) Authenticated(connID, accountNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byAccount[accountNumber]
	if !ok {
		return false
	}
	if s.Expired(m.now()) {
		m.unlinkLocked(s)
		return false
	}
	return s.ConnID == connID
}

// IsAuthenticated reports whether any connection holds a live session
// for the account
func (m *Manager) IsAuthenticated(accountNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byAccount[accountNumber]
	if !ok {
		return false
	}
	if s.Expired(m.now()) {
		m.unlinkLocked(s)
		return false
	}
	return true
}

// unlinkLocked removes a session from both indexes; caller holds mu
func (m *Manager) unlinkLocked(s *domain.Session) {
	delete(m.byAccount, s.AccountNumber)
	if accounts, ok := m.byConn[s.ConnID]; ok {
		delete(accounts, s.AccountNumber)
		if len(accounts) == 0 {
			delete(m.byConn, s.ConnID)
		}
	}
}
