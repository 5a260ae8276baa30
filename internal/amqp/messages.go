package amqp

import (
	"encoding/json"
	"time"
)

// Transaction lifecycle actions published on the events exchange.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent carries the minimum a downstream consumer needs to
// react to a ledger change. Amounts are cents, dates YYYY-MM-DD.
type TransactionEvent struct {
	Action      string    `json:"action"`
	ID          int64     `json:"id,omitempty"`
	RowRef      string    `json:"row_ref,omitempty"`
	Date        string    `json:"date,omitempty"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Type        string    `json:"type,omitempty"`
	Usage       string    `json:"usage,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionEvent(action string) *TransactionEvent {
	return &TransactionEvent{
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
