package sheetconfig

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps configs in process. Spreadsheet ids are unique.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]SheetConfig
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: map[string]SheetConfig{}}
}

func (m *MemoryStore) Save(_ context.Context, c SheetConfig) (SheetConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.configs {
		if existing.SpreadsheetID == c.SpreadsheetID && existing.ID != c.ID {
			return SheetConfig{}, ErrDuplicateSpreadsheet
		}
	}
	m.configs[c.ID] = c
	return c, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (SheetConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.configs[id]
	if !ok {
		return SheetConfig{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) FindBySpreadsheetID(_ context.Context, spreadsheetID string) (SheetConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.configs {
		if c.SpreadsheetID == spreadsheetID {
			return c, nil
		}
	}
	return SheetConfig{}, ErrNotFound
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]SheetConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []SheetConfig{}
	for _, c := range m.configs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b SheetConfig) int {
		if n := comparePeriod(a, b); n != 0 {
			return n
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
