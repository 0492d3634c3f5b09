package memory

import (
	"context"
	"sync"

	"netexam/internal/domain"
)

// StateStore keeps the state record in process memory.
type StateStore struct {
	mu  sync.RWMutex
	rec *domain.StateRecord
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) SaveState(_ context.Context, rec domain.StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *StateStore) LoadState(_ context.Context) (domain.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil {
		return domain.StateRecord{}, domain.ErrStateNotFound
	}
	return *s.rec, nil
}
