package account

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations.
// The store provides no cross-call atomicity; callers that need a
// read-modify-write to be atomic must run it through WithTx and hold
// the row lock taken by LockForUpdate.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByNumber(ctx context.Context, number string) (*Account, error)
	Exists(ctx context.Context, number string) (bool, error)
	Update(ctx context.Context, account *Account) error

	// UpdateBalance applies a signed delta under optimistic locking
	UpdateBalance(ctx context.Context, number string, delta int64, version int) error

	// LockForUpdate acquires a pessimistic row lock for the account
	LockForUpdate(ctx context.Context, number string) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	Number string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.Number
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	Number string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.Number
}

// Is implements the errors.Is interface; a target with an empty Number
// matches any ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.Number == "" {
		return true
	}
	return e.Number == t.Number
}

// ErrAccountExists indicates account number uniqueness violation
type ErrAccountExists struct {
	Number string
}

func (e ErrAccountExists) Error() string {
	return "account already exists: " + e.Number
}

// Is implements the errors.Is interface; a target with an empty Number
// matches any ErrAccountExists
func (e ErrAccountExists) Is(target error) bool {
	t, ok := target.(ErrAccountExists)
	if !ok {
		return false
	}
	if t.Number == "" {
		return true
	}
	return e.Number == t.Number
}
