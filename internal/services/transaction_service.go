// Package services orchestrates the record store, the view cache and event
// publishing behind the operations exposed over HTTP.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/reports"
)

// InvalidationKeys lists every cached view a write makes stale.
var InvalidationKeys = []string{cache.KeyAllTransactions, cache.KeyMonthlyChart}

// TransactionStore is the persistence the transaction service needs.
type TransactionStore interface {
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
	GetCategory(ctx context.Context, ownerID, id string) (core.Category, error)
}

// EventPublisher receives a notification after each successful write.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionOptions tunes a TransactionService. Zero values get defaults.
type TransactionOptions struct {
	OwnerID   string
	TTL       time.Duration
	Publisher EventPublisher
	Logger    *log.Logger
	Now       func() time.Time
	NewID     func() string
}

// TransactionService serves the ledger with read-through caching of the
// full list and the monthly chart.
type TransactionService struct {
	store     TransactionStore
	cache     cache.Store
	publisher EventPublisher
	ownerID   string
	ttl       time.Duration
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

func NewTransactionService(store TransactionStore, c cache.Store, opts TransactionOptions) *TransactionService {
	s := &TransactionService{
		store:     store,
		cache:     c,
		publisher: opts.Publisher,
		ownerID:   opts.OwnerID,
		ttl:       opts.TTL,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.ownerID == "" {
		s.ownerID = DefaultOwnerID
	}
	if s.ttl <= 0 {
		s.ttl = cache.DefaultTTL
	}
	if s.logger == nil {
		s.logger = log.FromSlog(nil, log.ComponentTransactions)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// DefaultOwnerID is the seeded single user.
const DefaultOwnerID = "default-user"

// List returns every transaction, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return readThrough(ctx, s, cache.KeyAllTransactions, func(ctx context.Context) ([]core.Transaction, error) {
		return s.store.ListTransactions(ctx, s.ownerID)
	})
}

// MonthlyChart returns the signed monthly sums over all transactions.
func (s *TransactionService) MonthlyChart(ctx context.Context) ([]reports.ChartPoint, error) {
	return readThrough(ctx, s, cache.KeyMonthlyChart, func(ctx context.Context) ([]reports.ChartPoint, error) {
		txs, err := s.store.ListTransactions(ctx, s.ownerID)
		if err != nil {
			return nil, err
		}
		return reports.MonthlyChart(txs), nil
	})
}

// Get returns one transaction or core.ErrNotFound.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, s.ownerID, id)
	if err != nil {
		return core.Transaction{}, core.Upstream("get transaction", err)
	}
	return tx, nil
}

// Categories lists the owner's categories.
func (s *TransactionService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, s.ownerID)
	if err != nil {
		return nil, core.Upstream("list categories", err)
	}
	return cats, nil
}

// Create validates and stores a new transaction.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(s.now()); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	now := s.now().UTC()
	tx, err := s.store.CreateTransaction(ctx, core.Transaction{
		ID:          s.newID(),
		Amount:      in.Amount.Round(core.AmountPlaces),
		Date:        in.Date,
		Description: in.Description,
		OwnerID:     s.ownerID,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return core.Transaction{}, core.Upstream("create transaction", err)
	}

	s.afterWrite(ctx, log.OpCreate, amqp.EventCreated, tx)
	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithTransaction(tx.ID, core.FormatAmount(tx.Amount), tx.Date.String(), tx.CategoryID).
			WithOperation(log.OpCreate).ToSlice()...)
	return tx, nil
}

// Update applies a partial change. The merged result is validated as a
// whole.
func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, core.NewValidationError(core.FieldErrors{core.FieldForm: core.MsgPatchEmpty})
	}

	current, err := s.store.GetTransaction(ctx, s.ownerID, id)
	if err != nil {
		return core.Transaction{}, core.Upstream("get transaction", err)
	}

	in := patch.Apply(current)
	if err := in.Validate(s.now()); err != nil {
		return core.Transaction{}, err
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	current.Amount = in.Amount.Round(core.AmountPlaces)
	current.Description = in.Description
	current.Date = in.Date
	current.CategoryID = in.CategoryID
	current.UpdatedAt = s.now().UTC()

	tx, err := s.store.UpdateTransaction(ctx, current)
	if err != nil {
		return core.Transaction{}, core.Upstream("update transaction", err)
	}

	s.afterWrite(ctx, log.OpUpdate, amqp.EventUpdated, tx)
	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldTransactionID, tx.ID, log.FieldOperation, log.OpUpdate)
	return tx, nil
}

// Delete removes a transaction permanently.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, s.ownerID, id); err != nil {
		return core.Upstream("delete transaction", err)
	}

	s.afterWrite(ctx, log.OpDelete, amqp.EventDeleted, core.Transaction{ID: id, OwnerID: s.ownerID})
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// checkCategory rejects a category that is unknown or owned by someone else.
func (s *TransactionService) checkCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, s.ownerID, id); err != nil {
		return core.Upstream("get category", err)
	}
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, op string, typ amqp.EventType, tx core.Transaction) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.LogError(ctx, "Failed to invalidate cached views", err, op,
			log.NewFields().WithTransaction(tx.ID, "", "", ""))
	}
	s.publish(ctx, typ, tx)
}

// Invalidate drops every cached view. It attempts all keys and joins the
// failures.
func (s *TransactionService) Invalidate(ctx context.Context) error {
	var errs []error
	for _, key := range InvalidationKeys {
		if err := s.cache.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewTransactionEvent(typ, tx, s.now().UTC())
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.OpPublish,
			log.NewFields().WithTransaction(tx.ID, "", "", ""))
	}
}

// readThrough serves key from the cache, loading and storing it on a miss.
// A payload that no longer decodes counts as a miss.
func readThrough[T any](ctx context.Context, s *TransactionService, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return zero, core.Upstream("cache get "+key, err)
	}
	if ok {
		var v T
		decodeErr := json.Unmarshal(raw, &v)
		if decodeErr == nil {
			return v, nil
		}
		s.logger.WarnContext(ctx, "Discarding undecodable cache entry",
			log.FieldCacheKey, key, log.FieldError, decodeErr)
	}

	v, err := load(ctx)
	if err != nil {
		return zero, core.Upstream("load "+key, err)
	}

	raw, err = json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		return zero, core.Upstream("cache set "+key, err)
	}
	return v, nil
}
