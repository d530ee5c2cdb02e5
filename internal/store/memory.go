package store

import (
	"context"
	"sync"

	"paystack-checkout/internal/models"
)

// MemoryStore lives for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]models.TransactionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]models.TransactionRecord)}
}

func (s *MemoryStore) Get(_ context.Context, reference string) (models.TransactionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[reference]
	return rec, ok, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Reference] = rec
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.TransactionRecord, error) {
	s.mu.RLock()
	out := make([]models.TransactionRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sortByRecordedAt(out)
	return out, nil
}
