// Package session defines the server-side record that a connection has
// successfully authenticated as a given account.
package session

import "time"

// Session binds an authenticated account to the connection that logged
// it in. At most one session exists per account; a later login replaces
// the earlier one. A zero ExpiresAt means the session never expires.
type Session struct {
	AccountNumber string
	ConnID        string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the session has passed its expiry, if any
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
