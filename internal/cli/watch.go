package cli

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"netexam/internal/broadcast"
)

// NewWatchCmd prints the countdown as a participant display would see it.
func NewWatchCmd() *cobra.Command {
	var (
		listen string
		grace  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Listen on the fan-out channel and print the countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, listen, grace)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":9876", "fan-out address to listen on")
	cmd.Flags().DurationVar(&grace, "grace", 3*time.Second, "silence after the last tick before finish is assumed")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, listen string, grace time.Duration) error {
	conn, err := net.ListenPacket("udp", listen)
	if err != nil {
		return fmt.Errorf("listen fan-out address: %w", err)
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	outcome, err := broadcast.Watch(ctx, conn, grace, func(remaining int) {
		fmt.Fprintln(out, broadcast.FormatRemaining(remaining))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exam finished (%s)\n", outcome)
	return nil
}
