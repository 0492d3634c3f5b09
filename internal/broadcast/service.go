package broadcast

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Sender delivers one fan-out payload. Delivery is best-effort.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Config configures a Service.
type Config struct {
	// Duration is truncated to whole seconds.
	Duration time.Duration
	// Clock defaults to the real clock; tests pass a clockwork.FakeClock.
	Clock clockwork.Clock
}

// Service runs the control listener and the countdown loop. The only state
// the two share is the armed flag.
type Service struct {
	seconds int
	clock   clockwork.Clock
	senders []Sender

	armed   atomic.Bool
	running atomic.Bool
	armCh   chan struct{}
	done    chan struct{}
}

func NewService(cfg Config, senders ...Sender) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	seconds := int(cfg.Duration / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return &Service{
		seconds: seconds,
		clock:   clock,
		senders: senders,
		armCh:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Arm starts the countdown. Only the first call has an effect; it reports
// whether this call armed the service.
func (s *Service) Arm() bool {
	if !s.armed.CompareAndSwap(false, true) {
		return false
	}
	close(s.armCh)
	return true
}

// Trigger arms the service in-process.
func (s *Service) Trigger(_ context.Context) error {
	if s.Arm() {
		log.Info().Int("seconds", s.seconds).Msg("countdown armed")
	}
	return nil
}

func (s *Service) Armed() bool {
	return s.armed.Load()
}

// Done is closed after the finished sentinel has been emitted.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Serve runs the control listener and the countdown until the countdown
// completes or ctx is canceled.
func (s *Service) Serve(ctx context.Context, control net.PacketConn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if control != nil {
		g.Go(func() error {
			return s.ListenControl(gctx, control)
		})
	}
	g.Go(func() error {
		defer cancel()
		return s.RunCountdown(gctx)
	})
	return g.Wait()
}

// ListenControl reads datagrams until ctx ends and arms the service on the
// first START_EXAM. Anything else, including later triggers, is ignored.
func (s *Service) ListenControl(ctx context.Context, conn net.PacketConn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	log.Info().Str("addr", conn.LocalAddr().String()).Msg("listening for start signal")
	buf := make([]byte, 1024)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read control datagram: %w", err)
		}
		msg := strings.TrimSpace(string(buf[:n]))
		if msg != StartSentinel {
			log.Debug().Str("from", from.String()).Str("payload", msg).Msg("ignoring control datagram")
			continue
		}
		if s.Arm() {
			log.Info().Str("from", from.String()).Int("seconds", s.seconds).Msg("countdown armed")
		} else {
			log.Debug().Str("from", from.String()).Msg("countdown already armed")
		}
	}
}

// RunCountdown waits for the service to be armed, then emits one tick per
// second from the duration down to zero and a single finished sentinel.
// Only one countdown ever runs; extra calls return immediately.
func (s *Service) RunCountdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	select {
	case <-s.armCh:
	case <-ctx.Done():
		return nil
	}
	defer close(s.done)

	for remaining := s.seconds; remaining >= 0; remaining-- {
		s.emit(ctx, FormatRemaining(remaining))
		select {
		case <-ctx.Done():
			log.Info().Int("remaining", remaining).Msg("countdown canceled")
			return nil
		case <-s.clock.After(time.Second):
		}
	}
	s.emit(ctx, FinishedSentinel)
	log.Info().Msg("countdown finished")
	return nil
}

func (s *Service) emit(ctx context.Context, msg string) {
	payload := []byte(msg)
	for _, sender := range s.senders {
		if err := sender.Send(ctx, payload); err != nil {
			log.Warn().Err(err).Str("payload", msg).Msg("broadcast send failed")
		}
	}
}
