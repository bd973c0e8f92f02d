package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/remote-account-ledger/internal/domain/ledger"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a committed transaction record for reliable publishing
// to the audit stream. It is written in the same database transaction as
// the balance change it describes, so a committed mutation can never be
// missing from the stream.
type Message struct {
	ID            int64           `json:"id"`
	RecordID      uuid.UUID       `json:"record_id"`
	AccountNumber string          `json:"account_number"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(record *ledger.Record) (*Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		RecordID:      record.RecordID,
		AccountNumber: record.AccountNumber,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = StatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = StatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Record extracts the transaction record from the payload
func (m *Message) Record() (*ledger.Record, error) {
	var record ledger.Record
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
