// Package dispatch maps decoded client requests onto ledger engine and
// session manager calls. It performs input-shape validation and session
// enforcement but no business logic; every engine error is recovered
// here and turned into an error response, so no request can tear down
// its connection.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/remote-account-ledger/internal/domain/account"
	"github.com/remote-account-ledger/internal/engine"
	"github.com/remote-account-ledger/internal/protocol"
)

// Dispatcher routes requests for a single ledger instance. Safe for
// concurrent use by multiple connection goroutines.
type Dispatcher struct {
	ledger       Ledger
	sessions     Sessions
	logger       *slog.Logger
	retryBackoff time.Duration
}

// NewDispatcher creates a dispatcher. retryBackoff is the pause before
// the single retry granted to busy/storage failures.
func NewDispatcher(logger *slog.Logger, ledger Ledger, sessions Sessions, retryBackoff time.Duration) *Dispatcher {
	return &Dispatcher{
		ledger:       ledger,
		sessions:     sessions,
		logger:       logger,
		retryBackoff: retryBackoff,
	}
}

// Dispatch handles one request on behalf of the identified connection
// and always returns a response
func (d *Dispatcher) Dispatch(ctx context.Context, connID string, req *protocol.Request) *protocol.Response {
	if req == nil {
		return protocol.Error(protocol.CodeMalformedRequest, "Empty request")
	}

	correlationID := uuid.New().String()
	logger := d.logger.With("correlation_id", correlationID, "command", req.Command)

	resp := d.route(ctx, logger, connID, correlationID, req)
	if resp.Status == protocol.StatusError {
		logger.Warn("request failed", "code", resp.Code)
	} else {
		logger.Info("request handled")
	}
	return resp
}

func (d *Dispatcher) route(ctx context.Context, logger *slog.Logger, connID, correlationID string, req *protocol.Request) *protocol.Response {
	switch req.Command {
	case protocol.CmdWithdraw:
		if req.AccountNumber == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number is required")
		}
		if !d.sessions.Authenticated(connID, req.AccountNumber) {
			return protocol.Error(protocol.CodeNotAuthenticated, "Login required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.Withdraw(ctx, req.AccountNumber, req.Amount, correlationID)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OK(fmt.Sprintf("Withdrew %d units", req.Amount))

	case protocol.CmdDeposit:
		if req.AccountNumber == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number is required")
		}
		if !d.sessions.Authenticated(connID, req.AccountNumber) {
			return protocol.Error(protocol.CodeNotAuthenticated, "Login required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.Deposit(ctx, req.AccountNumber, req.Amount, correlationID)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OK(fmt.Sprintf("Deposited %d units", req.Amount))

	case protocol.CmdBalance:
		// Balance inquiries are deliberately unauthenticated, matching
		// the original protocol.
		if req.AccountNumber == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number is required")
		}
		var balance int64
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			var err error
			balance, err = d.ledger.GetBalance(ctx, req.AccountNumber)
			return err
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OKWithData(fmt.Sprintf("Balance: %d", balance), map[string]interface{}{
			"account_number": req.AccountNumber,
			"balance":        balance,
		})

	case protocol.CmdChangePin:
		if req.AccountNumber == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number is required")
		}
		if req.OldPIN == "" || req.NewPIN == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "old_pin and new_pin are required")
		}
		if !d.sessions.Authenticated(connID, req.AccountNumber) {
			return protocol.Error(protocol.CodeNotAuthenticated, "Login required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.ChangePin(ctx, req.AccountNumber, req.OldPIN, req.NewPIN)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OK("PIN changed")

	case protocol.CmdLogin:
		if req.AccountNumber == "" || req.PIN == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number and pin are required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.VerifyPin(ctx, req.AccountNumber, req.PIN)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		d.sessions.Login(req.AccountNumber, connID)
		return protocol.OK("Logged in")

	case protocol.CmdCreateAccount:
		if req.AccountNumber == "" || req.PIN == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number and pin are required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.CreateAccount(ctx, req.AccountNumber, req.PIN, correlationID)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OK("Account created")

	case protocol.CmdTransfer:
		if req.FromAccount == "" || req.ToAccount == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "from_account and to_account are required")
		}
		if !d.sessions.Authenticated(connID, req.FromAccount) {
			return protocol.Error(protocol.CodeNotAuthenticated, "Login required")
		}
		err := d.withRetry(ctx, logger, func(ctx context.Context) error {
			return d.ledger.Transfer(ctx, req.FromAccount, req.ToAccount, req.Amount, correlationID)
		})
		if err != nil {
			return d.errorResponse(err)
		}
		return protocol.OK(fmt.Sprintf("Transferred %d units from %s to %s", req.Amount, req.FromAccount, req.ToAccount))

	case protocol.CmdEndSession:
		if req.AccountNumber == "" {
			return protocol.Error(protocol.CodeMalformedRequest, "account_number is required")
		}
		// Idempotent: ending an absent session is not an error
		d.sessions.End(req.AccountNumber)
		return protocol.OK("Session ended")

	default:
		return protocol.Error(protocol.CodeMalformedRequest, "Unknown command")
	}
}

// withRetry grants busy/storage failures a single retry after a short
// backoff; all other errors are terminal for the request
func (d *Dispatcher) withRetry(ctx context.Context, logger *slog.Logger, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !retryable(err) {
		return err
	}

	logger.Warn("retrying after transient failure", "error", err)
	select {
	case <-time.After(d.retryBackoff):
	case <-ctx.Done():
		return err
	}
	return op(ctx)
}

// errorResponse maps a ledger error to its wire code and message
func (d *Dispatcher) errorResponse(err error) *protocol.Response {
	switch {
	case errors.Is(err, account.ErrAccountNotFound{}):
		var notFound account.ErrAccountNotFound
		errors.As(err, &notFound)
		return protocol.Error(protocol.CodeNotFound, fmt.Sprintf("Account %s does not exist", notFound.Number))
	case errors.Is(err, account.ErrAccountExists{}):
		return protocol.Error(protocol.CodeAlreadyExists, "Account already exists")
	case errors.Is(err, account.ErrInvalidAmount):
		return protocol.Error(protocol.CodeInvalidAmount, "Invalid amount")
	case errors.Is(err, account.ErrInsufficientFunds):
		return protocol.Error(protocol.CodeInsufficientFunds, "Insufficient funds")
	case errors.Is(err, account.ErrInvalidCredential):
		return protocol.Error(protocol.CodeInvalidCredential, "Invalid PIN")
	case errors.Is(err, account.ErrInvalidPinFormat), errors.Is(err, account.ErrEmptyNumber):
		return protocol.Error(protocol.CodeInvalidPinFormat, "Invalid PIN format")
	case errors.Is(err, engine.ErrSameAccount):
		return protocol.Error(protocol.CodeMalformedRequest, "Source and destination accounts must differ")
	case errors.Is(err, engine.ErrBusy):
		return protocol.Error(protocol.CodeResourceBusy, "Ledger busy, try again")
	default:
		d.logger.Error("storage failure", "error", err)
		return protocol.Error(protocol.CodeIOFailure, "Temporary storage failure")
	}
}

// retryable reports whether err warrants the dispatcher's single retry
func retryable(err error) bool {
	if errors.Is(err, engine.ErrBusy) {
		return true
	}
	// Any error outside the domain taxonomy is a storage failure
	switch {
	case errors.Is(err, account.ErrAccountNotFound{}),
		errors.Is(err, account.ErrAccountExists{}),
		errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, account.ErrInvalidCredential),
		errors.Is(err, account.ErrInvalidPinFormat),
		errors.Is(err, account.ErrEmptyNumber),
		errors.Is(err, engine.ErrSameAccount):
		return false
	}
	return true
}
