package store

import (
	"context"
	"sync"

	"github.com/hweber/particletrack/internal/domain"
)

// MemoryStore is an in-process Gateway. It backs tests and the zero-
// dependency development setup; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.PredictionRecord
}

// NewMemoryStore returns an empty in-memory gateway.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, rec *domain.PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]domain.PredictionRecord{*rec}, s.records...)
	return nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.PredictionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PredictionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.records))
	s.records = nil
	return n, nil
}
