package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)), ttl)
}

func TestManager_Login(t *testing.T) {
	t.Run("SuccessfulLogin", func(t *testing.T) {
		m := newTestManager(0)

		s := m.Login("1001", "conn-a")

		require.NotNil(t, s)
		assert.Equal(t, "1001", s.AccountNumber)
		assert.Equal(t, "conn-a", s.ConnID)
		assert.True(t, s.ExpiresAt.IsZero(), "Zero ttl should not set an expiry")
		assert.True(t, m.Authenticated("conn-a", "1001"))
	})

	t.Run("LoginSetsExpiryWithTTL", func(t *testing.T) {
		m := newTestManager(15 * time.Minute)

		s := m.Login("1001", "conn-a")

		assert.False(t, s.ExpiresAt.IsZero())
		assert.WithinDuration(t, s.CreatedAt.Add(15*time.Minute), s.ExpiresAt, time.Millisecond)
	})

	t.Run("ReloginReplacesPriorSession", func(t *testing.T) {
		m := newTestManager(0)
		m.Login("1001", "conn-a")

		m.Login("1001", "conn-b")

		assert.False(t, m.Authenticated("conn-a", "1001"), "Old connection loses the session")
		assert.True(t, m.Authenticated("conn-b", "1001"))
	})

	t.Run("OneConnectionMayHoldMultipleAccounts", func(t *testing.T) {
		m := newTestManager(0)

		m.Login("1001", "conn-a")
		m.Login("1002", "conn-a")

		assert.True(t, m.Authenticated("conn-a", "1001"))
		assert.True(t, m.Authenticated("conn-a", "1002"))
	})
}

func TestManager_End(t *testing.T) {
	t.Run("EndRemovesSession", func(t *testing.T) {
		m := newTestManager(0)
		m.Login("1001", "conn-a")

		m.End("1001")

		assert.False(t, m.Authenticated("conn-a", "1001"))
		assert.False(t, m.IsAuthenticated("1001"))
	})

	t.Run("EndWithoutSessionIsNoop", func(t *testing.T) {
		m := newTestManager(0)

		m.End("missing")
	})
}

func TestManager_EndConn(t *testing.T) {
	t.Run("TearsDownAllSessionsOnConnection", func(t *testing.T) {
		m := newTestManager(0)
		m.Login("1001", "conn-a")
		m.Login("1002", "conn-a")
		m.Login("2001", "conn-b")

		m.EndConn("conn-a")

		assert.False(t, m.IsAuthenticated("1001"))
		assert.False(t, m.IsAuthenticated("1002"))
		assert.True(t, m.Authenticated("conn-b", "2001"), "Other connections are unaffected")
	})

	t.Run("DoesNotRemoveSessionReplacedByAnotherConnection", func(t *testing.T) {
		m := newTestManager(0)
		m.Login("1001", "conn-a")
		m.Login("1001", "conn-b") // conn-a's session replaced

		m.EndConn("conn-a")

		assert.True(t, m.Authenticated("conn-b", "1001"))
	})
}

func TestManager_Authenticated(t *testing.T) {
	t.Run("WrongConnection", func(t *testing.T) {
		m := newTestManager(0)
		m.Login("1001", "conn-a")

		assert.False(t, m.Authenticated("conn-b", "1001"))
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		m := newTestManager(0)

		assert.False(t, m.Authenticated("conn-a", "1001"))
	})

	t.Run("ExpiredSessionIsRemovedLazily", func(t *testing.T) {
		m := newTestManager(time.Minute)
		m.Login("1001", "conn-a")

		// Move the clock past the expiry
		m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

		assert.False(t, m.Authenticated("conn-a", "1001"))
		assert.False(t, m.IsAuthenticated("1001"))

		// A fresh login after expiry works
		m.Login("1001", "conn-a")
		assert.True(t, m.Authenticated("conn-a", "1001"))
	})
}
