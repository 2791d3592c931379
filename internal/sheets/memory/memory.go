// Package memory is an in-process ExpenseAppender used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"centavo/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.BackupRow
}

var _ sheets.ExpenseAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append records the row.
func (s *Store) Append(_ context.Context, row sheets.BackupRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.BackupRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.BackupRow(nil), s.rows...)
}
