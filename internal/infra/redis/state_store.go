package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"netexam/internal/domain"
)

// StateStore mirrors the shared exam state into a single Redis key so
// operator tooling in other processes can read it. Each save is one SET, so
// the record is never observed half-written. Writers are not coordinated:
// the last SET wins.
type StateStore struct {
	client *redis.Client
	examID string
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, examID string, ttl time.Duration) *StateStore {
	return &StateStore{client: client, examID: examID, ttl: ttl}
}

func (s *StateStore) SaveState(ctx context.Context, rec domain.StateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *StateStore) LoadState(ctx context.Context) (domain.StateRecord, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.StateRecord{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.StateRecord{}, fmt.Errorf("load state: %w", err)
	}
	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.StateRecord{}, fmt.Errorf("%w: %v", domain.ErrStateNotFound, err)
	}
	return rec, nil
}

func (s *StateStore) key() string {
	return "exam:" + s.examID + ":state"
}
