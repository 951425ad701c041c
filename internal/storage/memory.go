// Package storage provides read-only item store implementations for the
// pantry, the shopping list, and the meal catalog.
package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.ItemStore = (*MemoryStore)(nil)

// MemoryStore holds a household snapshot in memory. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	pantry   []string
	shopping []string
	meals    []SeedMeal
	log      *logger.Logger
}

// NewMemoryStore creates a store filled from seed. A nil seed gives an
// empty store.
func NewMemoryStore(seed *Seed, log *logger.Logger) *MemoryStore {
	s := &MemoryStore{log: log}
	if seed != nil {
		s.Replace(seed)
	}
	return s
}

// Replace swaps the whole snapshot.
func (s *MemoryStore) Replace(seed *Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pantry = itemNames(seed.Storage)
	s.shopping = itemNames(seed.Shopping)
	s.meals = append([]SeedMeal(nil), seed.Meals...)
	s.log.Debug("memory store: %d storage, %d shopping, %d meals", len(s.pantry), len(s.shopping), len(s.meals))
}

// PantryNames returns up to limit normalized storage item names.
func (s *MemoryStore) PantryNames(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return head(s.pantry, limit), nil
}

// ShoppingNames returns up to limit normalized shopping list names.
func (s *MemoryStore) ShoppingNames(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return head(s.shopping, limit), nil
}

// ExplorableRecipes returns up to limit catalog recipes with no planned date.
func (s *MemoryStore) ExplorableRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Recipe
	for _, m := range s.meals {
		if limit > 0 && len(out) == limit {
			break
		}
		if m.PlannedDate != "" {
			continue
		}
		out = append(out, m.Recipe)
	}
	s.log.Debug("memory store: %d explorable recipes (limit=%d)", len(out), limit)
	return out, nil
}

func itemNames(items []SeedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if n := normalizeName(it.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// head copies at most limit elements. limit <= 0 means all.
func head(src []string, limit int) []string {
	n := len(src)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]string(nil), src[:n]...)
}
