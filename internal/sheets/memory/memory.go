package memory

import (
	"context"
	"fmt"
	"sync"

	"finsheet/internal/core"
	ports "finsheet/internal/sheets"
)

// Store keeps one in-process table per target. A table is created with the
// header row on first use.
type Store struct {
	mu     sync.Mutex
	tables map[string][][]any
}

var _ ports.RowStore = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string][][]any{}}
}

func key(t ports.Target) string {
	return t.SpreadsheetID + "\x00" + t.SheetName
}

// Seed replaces the data rows of a target, keeping the header.
func (s *Store) Seed(t ports.Target, records ...core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := [][]any{header()}
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	s.tables[key(t)] = rows
}

func header() []any {
	out := make([]any, len(core.Header))
	for i, h := range core.Header {
		out[i] = h
	}
	return out
}

// table returns the rows of t, creating them. Caller holds s.mu.
func (s *Store) table(t ports.Target) [][]any {
	k := key(t)
	rows, ok := s.tables[k]
	if !ok {
		rows = [][]any{header()}
		s.tables[k] = rows
	}
	return rows
}

func (s *Store) ReadAll(_ context.Context, t ports.Target) ([][]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.table(t)
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out, nil
}

// Append stores the record and returns its synthetic A1 reference.
func (s *Store) Append(_ context.Context, t ports.Target, r core.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(t, r.Values()), nil
}

func (s *Store) appendLocked(t ports.Target, row []any) string {
	rows := append(s.table(t), row)
	s.tables[key(t)] = rows
	n := len(rows)
	return fmt.Sprintf("%s!A%d:H%d", ports.QuoteSheet(t.SheetName), n, n)
}

func (s *Store) CloneRow(_ context.Context, t ports.Target, index int) (string, error) {
	if err := core.ValidateRowIndex(index); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.table(t)
	if index > len(rows) {
		return "", fmt.Errorf("row %d: %w", index, core.ErrRowNotFound)
	}
	return s.appendLocked(t, append([]any(nil), rows[index-1]...)), nil
}

func (s *Store) DeleteRow(ctx context.Context, t ports.Target, index int) error {
	return s.DeleteRows(ctx, t, []int{index})
}

// DeleteRows applies deletions one after another in the order given, as the
// Sheets API does for a batch. Nothing is removed if any index is invalid.
func (s *Store) DeleteRows(_ context.Context, t ports.Target, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([][]any(nil), s.table(t)...)
	for _, idx := range indices {
		if err := core.ValidateRowIndex(idx); err != nil {
			return fmt.Errorf("row %d: %w", idx, err)
		}
		if idx > len(rows) {
			return fmt.Errorf("row %d: %w", idx, core.ErrRowNotFound)
		}
		rows = append(rows[:idx-1], rows[idx:]...)
	}
	s.tables[key(t)] = rows
	return nil
}
