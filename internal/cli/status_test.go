package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"netexam/internal/app"
	"netexam/internal/config"
	"netexam/internal/domain"
	"netexam/internal/infra/file"
)

func loadDefaults(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func decodeStatus(t *testing.T, out *bytes.Buffer) statusView {
	t.Helper()
	var view statusView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decode status: %v (%s)", err, out.String())
	}
	return view
}

func TestStatusReadsPersistedRecord(t *testing.T) {
	ctx := context.Background()
	cfg := loadDefaults(t)
	cfg.Exam.StateFile = filepath.Join(t.TempDir(), "exam_state.json")
	cfg.Exam.Duration = "60s"

	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	writer := app.NewSharedStateWithClock(file.NewStateStore(cfg.Exam.StateFile), time.Minute, func() time.Time { return started })
	if err := writer.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := writer.IncrementConnected(ctx); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := writer.SetPhase(ctx, domain.PhaseRunning); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	var out bytes.Buffer
	if err := runStatus(ctx, cfg, &out, started.Add(20*time.Second)); err != nil {
		t.Fatalf("status: %v", err)
	}
	view := decodeStatus(t, &out)
	if view.Phase != "RUNNING" || view.Connected != 1 || view.StartedAt != "2026-10-17T09:00:00Z" {
		t.Fatalf("unexpected status %+v", view)
	}
	if view.RemainingSecs == nil || *view.RemainingSecs != 40 {
		t.Fatalf("expected 40 seconds remaining, got %v", view.RemainingSecs)
	}
}

func TestStatusWithoutRecordShowsDefaults(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Exam.StateFile = filepath.Join(t.TempDir(), "missing.json")

	var out bytes.Buffer
	if err := runStatus(context.Background(), cfg, &out, time.Now()); err != nil {
		t.Fatalf("status: %v", err)
	}
	view := decodeStatus(t, &out)
	if view.Phase != "WAITING" || view.Connected != 0 || view.StartedAt != "" || view.RemainingSecs != nil {
		t.Fatalf("expected default status, got %+v", view)
	}
}

func TestSetupLoggingRejectsUnknownLevel(t *testing.T) {
	if err := setupLogging("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if err := setupLogging("debug"); err != nil {
		t.Fatalf("setup debug logging: %v", err)
	}
}
