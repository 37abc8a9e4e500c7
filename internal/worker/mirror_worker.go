// Package worker applies transaction change events to the ledger mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// EventConsumer is the subscribing half of the event bus.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
	Reconnect() error
}

// LedgerSource lists the owner's full ledger for reconciliation.
type LedgerSource interface {
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
}

// MirrorWorker keeps a LedgerMirror in step with the ledger.
type MirrorWorker struct {
	mirror  sheets.LedgerMirror
	source  LedgerSource
	ownerID string
	logger  *log.Logger

	// backoff is swapped in tests.
	backoff func(attempt int) time.Duration
}

func NewMirrorWorker(mirror sheets.LedgerMirror, source LedgerSource, ownerID string, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		mirror:  mirror,
		source:  source,
		ownerID: ownerID,
		logger:  logger.WithComponent(log.ComponentMirror),
		backoff: amqp.ExponentialBackoff,
	}
}

// HandleEvent applies one event. A returned error makes the broker redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	fields := log.NewFields().WithEvent(string(ev.Type), ev.ID)

	var err error
	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if ev.Transaction == nil {
			return fmt.Errorf("%s event %q without transaction", ev.Type, ev.ID)
		}
		err = w.mirror.UpsertTransaction(ctx, *ev.Transaction)
	case amqp.EventDeleted:
		err = w.mirror.DeleteTransaction(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err != nil {
		w.logger.LogError(ctx, "Failed to mirror transaction", err, log.OpMirror, fields)
		return fmt.Errorf("mirror %s %s: %w", ev.Type, ev.ID, err)
	}

	w.logger.InfoContext(ctx, "Mirrored transaction", fields.ToSlice()...)
	return nil
}

// Reconcile upserts every stored transaction. It repairs rows whose events
// were lost while the broker was unreachable.
func (w *MirrorWorker) Reconcile(ctx context.Context) (int, error) {
	if w.source == nil {
		return 0, nil
	}
	txs, err := w.source.ListTransactions(ctx, w.ownerID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	synced := 0
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirror.UpsertTransaction(ctx, tx); err != nil {
			return synced, fmt.Errorf("upsert %s: %w", tx.ID, err)
		}
		synced++
	}
	w.logger.InfoContext(ctx, "Reconciled mirror", "count", synced)
	return synced, nil
}

// RunReconciler calls Reconcile every interval until ctx is done.
func (w *MirrorWorker) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Reconcile(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.LogError(ctx, "Periodic reconcile failed", err, log.OpMirror, nil)
			}
		}
	}
}

// Run consumes events until ctx is done, reconnecting with exponential
// backoff whenever the subscription drops.
func (w *MirrorWorker) Run(ctx context.Context, consumer EventConsumer) error {
	attempt := 0
	for {
		err := consumer.ConsumeTransactionEvents(ctx, w.HandleEvent)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := w.backoff(attempt)
		attempt++
		w.logger.WarnContext(ctx, "Event consumption stopped, reconnecting",
			"error", err, "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := consumer.Reconnect(); err != nil {
			w.logger.WarnContext(ctx, "Reconnect failed", "error", err, "attempt", attempt)
			continue
		}
		attempt = 0
	}
}
