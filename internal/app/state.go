package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"netexam/internal/domain"
)

// SharedState exposes exam phase, connected count and start time to in-process
// and out-of-process readers. Every mutation persists the full record; every
// read reloads the latest persisted record.
//
// Writers in different processes are not mutually excluded: the mutex below
// only orders writers inside this process, so cross-process reads are
// last-write-visible but not linearizable.
type SharedState struct {
	store    StateRecordStore
	duration time.Duration
	now      func() time.Time

	mu sync.Mutex
	sf singleflight.Group
}

const stateKey = "state"

func NewSharedState(store StateRecordStore, duration time.Duration) *SharedState {
	return NewSharedStateWithClock(store, duration, time.Now)
}

// NewSharedStateWithClock allows deterministic timestamps in tests.
func NewSharedStateWithClock(store StateRecordStore, duration time.Duration, now func() time.Time) *SharedState {
	return &SharedState{store: store, duration: duration, now: now}
}

// Reset writes a fresh WAITING record. Called once when a run starts.
func (s *SharedState) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveState(ctx, domain.DefaultStateRecord())
}

// SetPhase moves the phase forward. RUNNING is sticky and the start timestamp
// is recorded only on the WAITING -> RUNNING edge.
func (s *SharedState) SetPhase(ctx context.Context, phase domain.Phase) error {
	return s.mutate(ctx, func(rec *domain.StateRecord) bool {
		if rec.Phase == domain.PhaseRunning || phase != domain.PhaseRunning {
			return false
		}
		rec.Phase = domain.PhaseRunning
		rec.StartedAt = s.now().UnixMilli()
		return true
	})
}

func (s *SharedState) IncrementConnected(ctx context.Context) error {
	return s.mutate(ctx, func(rec *domain.StateRecord) bool {
		rec.Connected++
		return true
	})
}

// DecrementConnected never takes the count below zero.
func (s *SharedState) DecrementConnected(ctx context.Context) error {
	return s.mutate(ctx, func(rec *domain.StateRecord) bool {
		if rec.Connected > 0 {
			rec.Connected--
		}
		return true
	})
}

func (s *SharedState) Phase(ctx context.Context) domain.Phase {
	return s.load(ctx).Phase
}

func (s *SharedState) ConnectedCount(ctx context.Context) int {
	return s.load(ctx).Connected
}

// StartedAt returns the zero time until the exam has started.
func (s *SharedState) StartedAt(ctx context.Context) time.Time {
	return startedAt(s.load(ctx))
}

func (s *SharedState) Duration() time.Duration {
	return s.duration
}

// Snapshot reads phase, count, timestamp and duration from one record.
func (s *SharedState) Snapshot(ctx context.Context) domain.StateSnapshot {
	rec := s.load(ctx)
	return domain.StateSnapshot{
		Phase:     rec.Phase,
		Connected: rec.Connected,
		StartedAt: startedAt(rec),
		Duration:  s.duration,
	}
}

func (s *SharedState) mutate(ctx context.Context, apply func(rec *domain.StateRecord) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(ctx)
	if err != nil {
		// Never save over a record that could not be read.
		log.Error().Err(err).Msg("load exam state failed, mutation skipped")
		return err
	}
	if !apply(&rec) {
		return nil
	}
	if err := s.store.SaveState(ctx, rec); err != nil {
		log.Error().Err(err).Str("phase", string(rec.Phase)).Int("connected", rec.Connected).Msg("persist exam state failed")
		return err
	}
	// Readers arriving after this write must not join a load started before it.
	s.sf.Forget(stateKey)
	return nil
}

// load collapses concurrent reloads into one store read. The shared load is
// detached from the first caller's cancellation because every joiner gets its result.
func (s *SharedState) load(ctx context.Context) domain.StateRecord {
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.sf.Do(stateKey, func() (interface{}, error) {
		rec, err := s.loadRecord(shared)
		if err != nil {
			log.Warn().Err(err).Msg("load exam state failed, using defaults")
			return domain.DefaultStateRecord(), nil
		}
		return rec, nil
	})
	return v.(domain.StateRecord)
}

// loadRecord returns defaults for a missing or corrupt record and the store
// error for anything else.
func (s *SharedState) loadRecord(ctx context.Context) (domain.StateRecord, error) {
	rec, err := s.store.LoadState(ctx)
	if errors.Is(err, domain.ErrStateNotFound) {
		return domain.DefaultStateRecord(), nil
	}
	if err != nil {
		return domain.StateRecord{}, err
	}
	if rec.Phase != domain.PhaseRunning {
		rec.Phase = domain.PhaseWaiting
	}
	if rec.Connected < 0 {
		rec.Connected = 0
	}
	return rec, nil
}

func startedAt(rec domain.StateRecord) time.Time {
	if rec.StartedAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(rec.StartedAt)
}
