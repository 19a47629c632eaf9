// Package memory is an in-process ShiftWriter used when no spreadsheet is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"payflow/internal/core"
	"payflow/internal/sheets"
)

var _ sheets.ShiftWriter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
	fail error
}

func New() *Store {
	return &Store{}
}

// AppendShift records the row and returns a synthetic reference.
func (s *Store) AppendShift(_ context.Context, sh core.Shift) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	if sh.ID <= 0 {
		return "", fmt.Errorf("shift has no id")
	}
	s.rows = append(s.rows, sheets.ShiftRow(sh))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// FailWith makes subsequent appends return err; nil restores normal mode.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
