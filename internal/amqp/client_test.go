package amqp

import (
	"context"
	"testing"
	"time"
)

func TestNewTransactionEvent(t *testing.T) {
	evt := NewTransactionEvent(ActionCreated)

	if evt.Action != ActionCreated {
		t.Errorf("Action = %v, want %v", evt.Action, ActionCreated)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(evt.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionEvent_JSON(t *testing.T) {
	timestamp := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	evt := &TransactionEvent{
		Action:      ActionUpdated,
		ID:          12345,
		RowRef:      "7",
		Date:        "2026-02-10",
		Category:    "🏠 Tagihan",
		AmountCents: 35000000,
		Type:        "out",
		Usage:       "business",
		Actor:       "Sisil",
		Timestamp:   timestamp,
	}

	jsonBytes, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}

	if parsed.Action != evt.Action {
		t.Errorf("Parsed Action = %v, want %v", parsed.Action, evt.Action)
	}
	if parsed.ID != evt.ID || parsed.RowRef != evt.RowRef {
		t.Errorf("Parsed identity = (%v, %v), want (%v, %v)", parsed.ID, parsed.RowRef, evt.ID, evt.RowRef)
	}
	if parsed.AmountCents != evt.AmountCents {
		t.Errorf("Parsed AmountCents = %v, want %v", parsed.AmountCents, evt.AmountCents)
	}
	if !parsed.Timestamp.Equal(evt.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, evt.Timestamp)
	}
}

func TestTransactionEvent_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not_a_number", "action": "created"}`)

	if _, err := TransactionEventFromJSON(invalidJSON); err == nil {
		t.Error("TransactionEventFromJSON() should fail with invalid JSON")
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client

	if err := c.PublishTransactionEvent(context.Background(), NewTransactionEvent(ActionDeleted)); err != nil {
		t.Errorf("nil client publish should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("nil client close should be a no-op, got %v", err)
	}
}
