// Package memory is an in-process LedgerMirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.Transaction
}

var _ ports.LedgerMirror = (*Store)(nil)

func New() *Store {
	return &Store{rows: map[string]core.Transaction{}}
}

// UpsertTransaction stores or replaces the row for tx.ID.
func (s *Store) UpsertTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tx.ID]; !ok {
		s.order = append(s.order, tx.ID)
	}
	s.rows[tx.ID] = tx
	return nil
}

// DeleteTransaction drops the row; missing ids are ignored.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return nil
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns the mirrored transactions in first-seen order.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out
}
