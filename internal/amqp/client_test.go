package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := ExponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("ExponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		assert.False(t, client.isCircuitOpen())
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		assert.True(t, client.isCircuitOpen())
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)
		assert.False(t, client.isCircuitOpen())
		assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		client.recordFailure()
		assert.True(t, client.isCircuitOpen())
	})

	t.Run("record success resets state", func(t *testing.T) {
		client.recordSuccess()
		assert.False(t, client.isCircuitOpen())
		assert.Zero(t, atomic.LoadInt64(&client.failureCount))
	})
}

func TestPublishFailsFastWhenCircuitOpen(t *testing.T) {
	client := &Client{url: "bogus://nowhere", exchangeName: "x", queueName: "q"}
	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()

	err := client.PublishTransactionEvent(context.Background(), &TransactionEvent{Type: EventDeleted, ID: "tx-1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestPublishWithoutBrokerRecordsFailure(t *testing.T) {
	client := &Client{url: "bogus://nowhere", exchangeName: "x", queueName: "q"}

	err := client.PublishTransactionEvent(context.Background(), &TransactionEvent{Type: EventDeleted, ID: "tx-1"})
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&client.failureCount))
}

func TestTransactionEventJSON(t *testing.T) {
	tx := core.Transaction{
		ID:          "tx-1",
		Amount:      decimal.RequireFromString("-50"),
		Date:        core.NewDate(2024, 3, 5),
		Description: "Groceries",
	}
	at := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	body, err := NewTransactionEvent(EventCreated, tx, at).ToJSON()
	require.NoError(t, err)
	ev, err := TransactionEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, EventCreated, ev.Type)
	require.NotNil(t, ev.Transaction)
	assert.Equal(t, "Groceries", ev.Transaction.Description)
	assert.True(t, ev.Transaction.Amount.Equal(tx.Amount))

	deleted := NewTransactionEvent(EventDeleted, tx, at)
	assert.Nil(t, deleted.Transaction)

	for _, bad := range []string{
		`not json`,
		`{"type":"created","id":"tx-1"}`,
		`{"type":"archived","id":"tx-1"}`,
		`{"type":"deleted"}`,
	} {
		_, err := TransactionEventFromJSON([]byte(bad))
		assert.Error(t, err, bad)
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	good := []byte(`{"type":"deleted","id":"tx-1","timestamp":"2024-03-05T12:00:00Z"}`)

	t.Run("handled events are acked", func(t *testing.T) {
		ack := &fakeAck{}
		var seen string
		settle(ctx, ack, good, func(_ context.Context, ev *TransactionEvent) error {
			seen = ev.ID
			return nil
		})
		assert.True(t, ack.acked)
		assert.Equal(t, "tx-1", seen)
	})

	t.Run("handler errors requeue", func(t *testing.T) {
		ack := &fakeAck{}
		settle(ctx, ack, good, func(context.Context, *TransactionEvent) error { return errors.New("sheets down") })
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeued)
	})

	t.Run("garbage is dropped", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		settle(ctx, ack, []byte("{"), func(context.Context, *TransactionEvent) error { called = true; return nil })
		assert.False(t, called)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})
}
