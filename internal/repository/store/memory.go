package store

import (
	"context"
	"sync"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
)

// MemoryStore is an in-memory Store used by tests and as a degraded fallback
// when no database is reachable. It honors the same whole-record replace
// semantics as the Mongo implementation but grants no durability.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]models.HarvestEntry
	settings *models.HarvestSettings
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]models.HarvestEntry{}}
}

// Put inserts or replaces one entry by id.
func (s *MemoryStore) Put(ctx context.Context, entry models.HarvestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

// PutMany inserts or replaces a batch of entries.
func (s *MemoryStore) PutMany(ctx context.Context, entries []models.HarvestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
	return nil
}

// Delete removes one entry by id. Missing ids are not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// DeleteMany removes a set of entries by id.
func (s *MemoryStore) DeleteMany(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// All returns every entry in unspecified order.
func (s *MemoryStore) All(ctx context.Context) ([]models.HarvestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HarvestEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.entries)), nil
}

// Settings returns the settings document, or ErrNotFound before the first save.
func (s *MemoryStore) Settings(ctx context.Context) (models.HarvestSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return models.HarvestSettings{}, ErrNotFound
	}
	return *s.settings, nil
}

// SaveSettings replaces the settings document.
func (s *MemoryStore) SaveSettings(ctx context.Context, settings models.HarvestSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

// Reset empties both tables.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]models.HarvestEntry{}
	s.settings = nil
	return nil
}

// RequestDurability always refuses: memory is not durable.
func (s *MemoryStore) RequestDurability(ctx context.Context) (bool, error) {
	return false, nil
}

// Durable reports false; nothing survives a restart.
func (s *MemoryStore) Durable() bool {
	return false
}
