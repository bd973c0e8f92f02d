package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a transaction record
type Kind string

const (
	KindDeposit        Kind = "DEPOSIT"
	KindWithdrawal     Kind = "WITHDRAWAL"
	KindTransferOut    Kind = "TRANSFER_OUT"
	KindTransferIn     Kind = "TRANSFER_IN"
	KindAccountCreated Kind = "ACCOUNT_CREATED"
)

// Valid reports whether k is one of the known record kinds
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn, KindAccountCreated:
		return true
	}
	return false
}

// Record is a single immutable entry in the transaction log.
// The amount carries the true magnitude of the movement on each transfer
// leg; it is zero only for ACCOUNT_CREATED. Records are never updated or
// removed once appended.
type Record struct {
	RecordID      uuid.UUID `json:"record_id" bson:"record_id"`
	AccountNumber string    `json:"account_number" bson:"account_number"`
	Kind          Kind      `json:"kind" bson:"kind"`
	Amount        int64     `json:"amount" bson:"amount"` // Smallest currency unit
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// NewRecord builds a log record for the given account movement
func NewRecord(accountNumber string, kind Kind, amount int64, correlationID string) *Record {
	return &Record{
		RecordID:      uuid.New(),
		AccountNumber: accountNumber,
		Kind:          kind,
		Amount:        amount,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}
