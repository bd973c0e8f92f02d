package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Log is the durable, append-only transaction log. Records are durable
// once Append's enclosing transaction commits; they are never reordered
// or removed. The log itself exposes no read API to the ledger core --
// querying is the archive's concern.
type Log interface {
	Append(ctx context.Context, record *Record) error
	WithTx(tx pgx.Tx) Log
}

// Archive is the queryable transaction-history store that serves the
// reporting API. It is fed asynchronously from the log and is not part
// of any ledger operation's atomic scope.
type Archive interface {
	Insert(ctx context.Context, record *Record) error
	GetByRecordID(ctx context.Context, recordID uuid.UUID) (*Record, error)
	GetByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]*Record, error)
	CountByAccountNumber(ctx context.Context, accountNumber string) (int64, error)
}

// ErrRecordNotFound indicates missing transaction record
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transaction record not found: " + e.RecordID.String()
}

// Is implements the errors.Is interface; a target with a nil RecordID
// matches any ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.RecordID == uuid.Nil {
		return true
	}
	return e.RecordID == t.RecordID
}

// ErrDuplicateRecord indicates record ID uniqueness violation
type ErrDuplicateRecord struct {
	RecordID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate transaction record: " + e.RecordID.String()
}

// Is implements the errors.Is interface; a target with a nil RecordID
// matches any ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.RecordID == uuid.Nil {
		return true
	}
	return e.RecordID == t.RecordID
}
