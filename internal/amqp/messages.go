package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// EventType says what happened to a transaction.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// TransactionEvent is published after every successful ledger write. Deleted
// events carry no snapshot.
type TransactionEvent struct {
	Type        EventType         `json:"type"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionEvent builds an event for tx. A deleted event only keeps the id.
func NewTransactionEvent(typ EventType, tx core.Transaction, at time.Time) *TransactionEvent {
	ev := &TransactionEvent{Type: typ, ID: tx.ID, Timestamp: at}
	if typ != EventDeleted {
		snapshot := tx
		ev.Transaction = &snapshot
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case EventCreated, EventUpdated:
		if ev.Transaction == nil {
			return nil, fmt.Errorf("%s event %q without transaction", ev.Type, ev.ID)
		}
	case EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	return &ev, nil
}
