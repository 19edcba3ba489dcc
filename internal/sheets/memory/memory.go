// Package memory is an in-memory ExpenseWriter for tests and runs
// without a configured spreadsheet.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetshop/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.ExpenseWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r sheets.Row) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
