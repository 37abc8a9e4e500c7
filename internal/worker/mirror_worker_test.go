package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
)

func sampleTransaction(id, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      decimal.RequireFromString("-12.50"),
		Date:        core.NewDate(2024, 3, 10),
		Description: desc,
		OwnerID:     "default-user",
	}
}

type failingMirror struct{ err error }

func (f failingMirror) UpsertTransaction(context.Context, core.Transaction) error { return f.err }
func (f failingMirror) DeleteTransaction(context.Context, string) error           { return f.err }

type staticSource struct {
	txs []core.Transaction
	err error
}

func (s staticSource) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return s.txs, s.err
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, "default-user", nil)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	tx := sampleTransaction("tx-1", "Groceries")
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventCreated, tx, at)))

	tx.Description = "Groceries and wine"
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventUpdated, tx, at)))

	rows := mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Groceries and wine", rows[0].Description)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, tx, at)))
	assert.Empty(t, mirror.Rows())
}

func TestHandleEventRejectsMalformed(t *testing.T) {
	w := NewMirrorWorker(memory.New(), nil, "default-user", nil)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{Type: amqp.EventCreated, ID: "tx-1"})
	assert.Error(t, err)

	err = w.HandleEvent(context.Background(), &amqp.TransactionEvent{Type: "archived", ID: "tx-1"})
	assert.Error(t, err)
}

func TestHandleEventPropagatesMirrorFailure(t *testing.T) {
	boom := errors.New("sheets unavailable")
	w := NewMirrorWorker(failingMirror{err: boom}, nil, "default-user", nil)

	ev := amqp.NewTransactionEvent(amqp.EventCreated, sampleTransaction("tx-1", "Rent"), time.Now())
	err := w.HandleEvent(context.Background(), ev)
	assert.ErrorIs(t, err, boom)
}

func TestReconcile(t *testing.T) {
	mirror := memory.New()
	source := staticSource{txs: []core.Transaction{
		sampleTransaction("tx-1", "Rent"),
		sampleTransaction("tx-2", "Coffee"),
	}}
	w := NewMirrorWorker(mirror, source, "default-user", nil)

	n, err := w.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, mirror.Rows(), 2)

	w = NewMirrorWorker(mirror, staticSource{err: errors.New("db down")}, "default-user", nil)
	_, err = w.Reconcile(context.Background())
	assert.Error(t, err)
}

// flakyConsumer fails its first subscriptions, then delivers one event and
// blocks until cancelled.
type flakyConsumer struct {
	mu         sync.Mutex
	failures   int
	reconnects int
	event      *amqp.TransactionEvent
}

func (c *flakyConsumer) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error {
	c.mu.Lock()
	if c.failures > 0 {
		c.failures--
		c.mu.Unlock()
		return errors.New("channel closed")
	}
	c.mu.Unlock()

	if err := handler(ctx, c.event); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *flakyConsumer) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	return nil
}

func (c *flakyConsumer) reconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnects
}

func TestRunReconnectsAfterChannelLoss(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, "default-user", nil)
	w.backoff = func(int) time.Duration { return time.Millisecond }

	consumer := &flakyConsumer{
		failures: 2,
		event:    amqp.NewTransactionEvent(amqp.EventCreated, sampleTransaction("tx-1", "Salary"), time.Now()),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	assert.Eventually(t, func() bool { return len(mirror.Rows()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, consumer.reconnectCount())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
