// Package engine implements the ledger core: the operations that mutate
// account balances and append to the transaction log. Every mutation
// runs inside a single database transaction holding row locks on the
// accounts it touches, so concurrent operations on the same account are
// serialized and a transfer is either fully applied or not applied at
// all.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/remote-account-ledger/internal/domain/account"
	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/remote-account-ledger/internal/domain/outbox"
	"github.com/remote-account-ledger/internal/platform/persistence"
)

// Common errors
var (
	// ErrBusy reports that a row lock could not be acquired within the
	// configured bound; the caller may retry.
	ErrBusy = errors.New("ledger busy, try again")

	// ErrSameAccount rejects transfers where source and destination match
	ErrSameAccount = errors.New("source and destination accounts must differ")
)

// Engine is the ledger state machine. All mutating operations are
// linearizable per account; Transfer locks both rows in account-number
// sort order to avoid deadlock between opposing transfers.
type Engine struct {
	db          persistence.DB
	accounts    account.Repository
	log         ledger.Log
	outbox      outbox.Repository
	logger      *slog.Logger
	lockTimeout time.Duration
}

// NewEngine creates a ledger engine over the given repositories. The
// lock timeout bounds how long one operation may wait on another's row
// locks before failing with ErrBusy.
func NewEngine(
	logger *slog.Logger,
	db persistence.DB,
	accounts account.Repository,
	log ledger.Log,
	outboxRepo outbox.Repository,
	lockTimeout time.Duration,
) *Engine {
	return &Engine{
		db:          db,
		accounts:    accounts,
		log:         log,
		outbox:      outboxRepo,
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// CreateAccount creates an account with a zero balance and appends the
// ACCOUNT_CREATED record. Fails with ErrAccountExists when the number is
// taken and ErrInvalidPinFormat when the pin is not 4 digits.
func (e *Engine) CreateAccount(ctx context.Context, number, pin, correlationID string) error {
	return e.mutate(ctx, func(ctx context.Context, tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		exists, err := accounts.Exists(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			return account.ErrAccountExists{Number: number}
		}

		acc, err := account.NewAccount(number, pin)
		if err != nil {
			return err
		}

		if err := accounts.Create(ctx, acc); err != nil {
			return err
		}

		record := ledger.NewRecord(number, ledger.KindAccountCreated, 0, correlationID)
		return e.appendRecord(ctx, tx, record)
	})
}

// Deposit adds amount to the account balance and appends a DEPOSIT
// record
func (e *Engine) Deposit(ctx context.Context, number string, amount int64, correlationID string) error {
	return e.mutate(ctx, func(ctx context.Context, tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, number)
		if err != nil {
			return err
		}

		version := acc.Version
		if err := acc.Deposit(amount); err != nil {
			return err
		}

		if err := accounts.UpdateBalance(ctx, number, amount, version); err != nil {
			return err
		}

		record := ledger.NewRecord(number, ledger.KindDeposit, amount, correlationID)
		return e.appendRecord(ctx, tx, record)
	})
}

// Withdraw subtracts amount from the account balance and appends a
// WITHDRAWAL record. The row lock guarantees that two concurrent
// withdrawals can never both succeed against insufficient combined
// funds.
func (e *Engine) Withdraw(ctx context.Context, number string, amount int64, correlationID string) error {
	return e.mutate(ctx, func(ctx context.Context, tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, number)
		if err != nil {
			return err
		}

		version := acc.Version
		if err := acc.Withdraw(amount); err != nil {
			return err
		}

		if err := accounts.UpdateBalance(ctx, number, -amount, version); err != nil {
			return err
		}

		record := ledger.NewRecord(number, ledger.KindWithdrawal, amount, correlationID)
		return e.appendRecord(ctx, tx, record)
	})
}

// Transfer atomically moves amount between two accounts and appends a
// TRANSFER_OUT/TRANSFER_IN record pair carrying the true amount. Source
// existence is checked before destination; rows are locked in
// account-number sort order.
func (e *Engine) Transfer(ctx context.Context, from, to string, amount int64, correlationID string) error {
	if from == to {
		return ErrSameAccount
	}

	return e.mutate(ctx, func(ctx context.Context, tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		// Existence checks in source-first order. Accounts are never
		// deleted, so these cannot go stale before the locks below.
		exists, err := accounts.Exists(ctx, from)
		if err != nil {
			return err
		}
		if !exists {
			return account.ErrAccountNotFound{Number: from}
		}
		exists, err = accounts.Exists(ctx, to)
		if err != nil {
			return err
		}
		if !exists {
			return account.ErrAccountNotFound{Number: to}
		}

		if amount <= 0 {
			return account.ErrInvalidAmount
		}

		first, second := from, to
		if second < first {
			first, second = second, first
		}

		locked := make(map[string]*account.Account, 2)
		for _, number := range []string{first, second} {
			acc, err := accounts.LockForUpdate(ctx, number)
			if err != nil {
				return err
			}
			locked[number] = acc
		}

		src, dst := locked[from], locked[to]
		srcVersion, dstVersion := src.Version, dst.Version

		if err := src.Withdraw(amount); err != nil {
			return err
		}
		if err := dst.Deposit(amount); err != nil {
			return err
		}

		if err := accounts.UpdateBalance(ctx, from, -amount, srcVersion); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, to, amount, dstVersion); err != nil {
			return err
		}

		outRecord := ledger.NewRecord(from, ledger.KindTransferOut, amount, correlationID)
		if err := e.appendRecord(ctx, tx, outRecord); err != nil {
			return err
		}
		inRecord := ledger.NewRecord(to, ledger.KindTransferIn, amount, correlationID)
		return e.appendRecord(ctx, tx, inRecord)
	})
}

// GetBalance returns the current durable balance. The read is lock-free;
// it can never observe a partially applied transfer because balance
// changes commit atomically.
func (e *Engine) GetBalance(ctx context.Context, number string) (int64, error) {
	acc, err := e.accounts.GetByNumber(ctx, number)
	if err != nil {
		return 0, e.classify(ctx, err)
	}
	return acc.Balance, nil
}

// ChangePin replaces the account credential. Validation order: account
// existence, old pin match, new pin format. No ledger record is
// appended.
func (e *Engine) ChangePin(ctx context.Context, number, oldPin, newPin string) error {
	return e.mutate(ctx, func(ctx context.Context, tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, number)
		if err != nil {
			return err
		}

		if err := acc.ChangePin(oldPin, newPin); err != nil {
			return err
		}

		return accounts.Update(ctx, acc)
	})
}

// VerifyPin checks the credential for an account, backing login
func (e *Engine) VerifyPin(ctx context.Context, number, pin string) error {
	acc, err := e.accounts.GetByNumber(ctx, number)
	if err != nil {
		return e.classify(ctx, err)
	}
	return acc.VerifyPin(pin)
}

// mutate runs fn inside a transaction bounded by the lock timeout
func (e *Engine) mutate(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	opCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	err := persistence.ExecuteTx(opCtx, e.db, func(tx pgx.Tx) error {
		return fn(opCtx, tx)
	})
	return e.classify(ctx, err)
}

// appendRecord appends a log record and its outbox message within tx, so
// the audit trail commits atomically with the balance change
func (e *Engine) appendRecord(ctx context.Context, tx pgx.Tx, record *ledger.Record) error {
	if err := e.log.WithTx(tx).Append(ctx, record); err != nil {
		return err
	}

	message, err := outbox.NewMessage(record)
	if err != nil {
		return err
	}
	return e.outbox.WithTx(tx).Create(ctx, message)
}

// classify maps bounded-wait expiry onto ErrBusy; callers distinguish a
// busy ledger from their own canceled context
func (e *Engine) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrBusy
		}
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" { // lock_not_available
			return ErrBusy
		}
	}
	return err
}
