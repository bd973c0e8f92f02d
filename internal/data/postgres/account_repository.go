// Package postgres provides PostgreSQL implementations of the domain
// repositories. Account rows are the authoritative balance state; all
// mutations run through single UPDATE statements or row locks held by an
// enclosing transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/remote-account-ledger/internal/domain/account"
	"github.com/remote-account-ledger/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db persistence.DB) account.Repository {
	return &AccountRepository{
		querier: db,
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so that multiple
// repository calls become atomic. The returned repository uses the
// transaction for all database operations.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account row. Returns ErrAccountExists when the
// account number is already taken.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (account_number, pin, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.Number,
		acc.PIN,
		acc.Balance,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return account.ErrAccountExists{Number: acc.Number}
		}
		r.logger.Error("Failed to create account", "account_number", acc.Number, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByNumber retrieves an account by its number
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	query := `
		SELECT account_number, pin, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, number).Scan(
		&acc.Number,
		&acc.PIN,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Number: number}
		}
		r.logger.Error("Failed to get account", "account_number", number, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Exists reports whether an account row with the given number exists
func (r *AccountRepository) Exists(ctx context.Context, number string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account existence", "account_number", number, "error", err)
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}

// Update updates an existing account row under optimistic locking
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET pin = $1, balance = $2, version = $3, updated_at = $4
		WHERE account_number = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		acc.PIN,
		acc.Balance,
		acc.Version,
		acc.UpdatedAt,
		acc.Number,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "account_number", acc.Number, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{Number: acc.Number}
	}

	return nil
}

// UpdateBalance atomically applies a signed delta to the balance using
// optimistic locking. Returns ErrConcurrentModification if the account
// was modified between read and update.
func (r *AccountRepository) UpdateBalance(ctx context.Context, number string, delta int64, version int) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE account_number = $2 AND version = $3
	`

	result, err := r.querier.Exec(ctx, query, delta, number, version)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_number", number, "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{Number: number}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account row and
// returns its current state. Must be used within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, number string) (*account.Account, error) {
	query := `
		SELECT account_number, pin, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, number).Scan(
		&acc.Number,
		&acc.PIN,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Number: number}
		}
		r.logger.Error("Failed to lock account for update", "account_number", number, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return &acc, nil
}
