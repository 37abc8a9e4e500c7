package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// memStore is an in-memory TransactionStore and ReportStore that counts
// list queries.
type memStore struct {
	mu        sync.Mutex
	txs       map[string]core.Transaction
	cats      map[string]core.Category
	listCalls int
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		txs: map[string]core.Transaction{},
		cats: map[string]core.Category{
			"cat-food":   {ID: "cat-food", Name: "Food", Color: "#10B981", Kind: core.KindExpense, OwnerID: DefaultOwnerID},
			"cat-salary": {ID: "cat-salary", Name: "Salary", Color: "#10B981", Kind: core.KindIncome, OwnerID: DefaultOwnerID},
			"cat-other":  {ID: "cat-other", Name: "Rent", OwnerID: "someone-else"},
		},
	}
}

func (m *memStore) withCategory(tx core.Transaction) core.Transaction {
	if c, ok := m.cats[tx.CategoryID]; ok {
		tx.Category = &c
	} else {
		tx.Category = nil
	}
	return tx
}

func (m *memStore) sorted(keep func(core.Transaction) bool) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range m.txs {
		if keep(tx) {
			out = append(out, m.withCategory(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memStore) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(tx core.Transaction) bool { return tx.OwnerID == ownerID }), nil
}

func (m *memStore) ListTransactionsBetween(_ context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(tx core.Transaction) bool {
		return tx.OwnerID == ownerID && !tx.Date.Before(start) && !tx.Date.After(end)
	}), nil
}

func (m *memStore) RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	all, err := m.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.Transaction{}, m.err
	}
	tx, ok := m.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return m.withCategory(tx), nil
}

func (m *memStore) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.Transaction{}, m.err
	}
	m.txs[tx.ID] = tx
	return m.withCategory(tx), nil
}

func (m *memStore) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[tx.ID]; !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	m.txs[tx.ID] = tx
	return m.withCategory(tx), nil
}

func (m *memStore) DeleteTransaction(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) ListCategories(_ context.Context, ownerID string) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []core.Category{}
	for _, c := range m.cats {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCategory(_ context.Context, ownerID, id string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[id]
	if !ok || c.OwnerID != ownerID {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *memStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

type recordingPublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.events = append(p.events, ev)
	return p.err
}
