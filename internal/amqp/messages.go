package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried on the transaction events queue.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage notifies downstream consumers that a transaction
// changed. It carries the full record so the export worker does not need
// database access.
type TransactionEventMessage struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Action        string    `json:"action"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	AmountCents   int64     `json:"amount_cents"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
