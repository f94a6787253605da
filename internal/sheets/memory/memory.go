// Package memory is an in-memory backup target for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items map[int64]core.ExpenseRecord
	fail  error
}

func New() *Store {
	return &Store{items: map[int64]core.ExpenseRecord{}}
}

// FailWith makes every subsequent call return err. Pass nil to heal.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) AppendExpense(_ context.Context, e core.ExpenseRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.items[e.ID] = e
	return fmt.Sprintf("mem:%d", e.ID), nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.items, id)
	return nil
}

// Has reports whether an expense is present in the backup.
func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

// Len reports the number of backed-up expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
