package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"netexam/internal/app"
	"netexam/internal/config"
	"netexam/internal/infra/file"
	redisstore "netexam/internal/infra/redis"
)

type statusView struct {
	ExamID          string `json:"examId"`
	Phase           string `json:"phase"`
	Connected       int    `json:"connected"`
	StartedAt       string `json:"startedAt,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	RemainingSecs   *int   `json:"remainingSeconds,omitempty"`
}

// NewStatusCmd reads the persisted exam state record from outside the serving process.
func NewStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the persisted exam state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), cfg, cmd.OutOrStdout(), time.Now())
		},
	}
}

func runStatus(ctx context.Context, cfg config.Config, out io.Writer, now time.Time) error {
	var store app.StateRecordStore = file.NewStateStore(cfg.Exam.StateFile)
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		store = redisstore.NewStateStore(client, cfg.Exam.ID, config.Duration(cfg.Redis.TTL, defaultRedisTTL))
	}

	snap := app.NewSharedState(store, cfg.ExamDuration()).Snapshot(ctx)
	view := statusView{
		ExamID:          cfg.Exam.ID,
		Phase:           string(snap.Phase),
		Connected:       snap.Connected,
		DurationSeconds: int(snap.Duration / time.Second),
	}
	if !snap.StartedAt.IsZero() {
		view.StartedAt = snap.StartedAt.UTC().Format(time.RFC3339)
		remaining := int((snap.Duration - now.Sub(snap.StartedAt)) / time.Second)
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSecs = &remaining
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
