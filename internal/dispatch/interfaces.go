package dispatch

import (
	"context"

	"github.com/remote-account-ledger/internal/domain/session"
)

// Ledger defines the engine operations the dispatcher routes to
type Ledger interface {
	// CreateAccount creates an account with a zero balance
	// Returns ErrAccountExists or ErrInvalidPinFormat on invalid input
	CreateAccount(ctx context.Context, number, pin, correlationID string) error

	// Deposit adds amount to the account balance
	Deposit(ctx context.Context, number string, amount int64, correlationID string) error

	// Withdraw subtracts amount from the account balance
	Withdraw(ctx context.Context, number string, amount int64, correlationID string) error

	// Transfer atomically moves amount between two accounts
	Transfer(ctx context.Context, from, to string, amount int64, correlationID string) error

	// GetBalance returns the current balance
	GetBalance(ctx context.Context, number string) (int64, error)

	// ChangePin replaces the account credential
	ChangePin(ctx context.Context, number, oldPin, newPin string) error

	// VerifyPin checks the credential for an account
	VerifyPin(ctx context.Context, number, pin string) error
}

// Sessions defines the session operations the dispatcher depends on
type Sessions interface {
	// Login binds the account to the connection, replacing any prior session
	Login(accountNumber, connID string) *session.Session

	// End removes the account's session; idempotent
	End(accountNumber string)

	// Authenticated reports whether connID holds a live session for the account
	Authenticated(connID, accountNumber string) bool
}
