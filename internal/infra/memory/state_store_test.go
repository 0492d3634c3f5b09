package memory

import (
	"context"
	"errors"
	"testing"

	"netexam/internal/domain"
)

func TestStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	if _, err := store.LoadState(ctx); !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}

	want := domain.StateRecord{Phase: domain.PhaseRunning, Connected: 3, StartedAt: 42}
	if err := store.SaveState(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
