package prefs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Useful for tests and for running
// without a local database.
type MemoryStore struct {
	mu      sync.Mutex
	tables  map[TableKey]TablePrefs
	recents map[int64]RecentBudget
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  map[TableKey]TablePrefs{},
		recents: map[int64]RecentBudget{},
	}
}

func (s *MemoryStore) LoadTablePrefs(_ context.Context, key TableKey) (*TablePrefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.tables[key]
	if !ok {
		return nil, fmt.Errorf("table prefs %d/%s: %w", key.BudgetID, key.Grid, ErrNotFound)
	}
	out := p
	return &out, nil
}

func (s *MemoryStore) SaveTablePrefs(_ context.Context, key TableKey, p TablePrefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[key] = p
	return nil
}

func (s *MemoryStore) TouchRecentBudget(_ context.Context, b RecentBudget) error {
	if b.OpenedAt.IsZero() {
		b.OpenedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recents[b.ID] = b
	return nil
}

func (s *MemoryStore) RecentBudgets(_ context.Context, limit int) ([]RecentBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecentBudget, 0, len(s.recents))
	for _, b := range s.recents {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ForgetBudget(_ context.Context, budgetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.tables {
		if key.BudgetID == budgetID {
			delete(s.tables, key)
		}
	}
	delete(s.recents, budgetID)
	return nil
}
