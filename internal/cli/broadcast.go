package cli

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"netexam/internal/config"
)

// NewBroadcastCmd runs the countdown broadcaster as its own process. Pair it
// with serve and broadcast.embedded=false.
func NewBroadcastCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast",
		Short: "Wait for START_EXAM on the control address and broadcast the countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runBroadcast(cmd.Context(), cfg)
		},
	}
}

func runBroadcast(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newBroadcastService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	control, err := net.ListenPacket("udp", cfg.Broadcast.ControlAddr)
	if err != nil {
		return fmt.Errorf("listen control address: %w", err)
	}
	defer control.Close()

	log.Info().
		Str("control", cfg.Broadcast.ControlAddr).
		Str("fanout", cfg.Broadcast.FanoutAddr).
		Dur("duration", cfg.ExamDuration()).
		Msg("broadcaster ready")
	return svc.Serve(ctx, control)
}
