package broadcast

import (
	"context"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newUDPPair(t *testing.T) (net.PacketConn, *UDPSender) {
	t.Helper()
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	t.Cleanup(func() { sender.Close() })
	return listener, sender
}

func TestWatchReceivesCountdownOverUDP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, sender := newUDPPair(t)
	fc := clockwork.NewFakeClock()
	svc := NewService(Config{Duration: 2 * time.Second, Clock: fc}, sender)

	var mu sync.Mutex
	var ticks []int
	type result struct {
		outcome Outcome
		err     error
	}
	watched := make(chan result, 1)
	go func() {
		outcome, err := Watch(ctx, listener, time.Second, func(remaining int) {
			mu.Lock()
			ticks = append(ticks, remaining)
			mu.Unlock()
		})
		watched <- result{outcome, err}
	}()

	go func() { _ = svc.RunCountdown(ctx) }()
	svc.Arm()
	driveCountdown(t, ctx, fc, svc, 2)

	res := <-watched
	if res.err != nil {
		t.Fatalf("watch: %v", res.err)
	}
	if res.outcome != FinishedReceived {
		t.Fatalf("expected finished received, got %s", res.outcome)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(ticks, []int{2, 1, 0}) {
		t.Fatalf("unexpected ticks %v", ticks)
	}
}

func TestWatchInfersMissedFinish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, sender := newUDPPair(t)
	// The finished sentinel is never sent.
	_ = sender.Send(ctx, []byte(FormatRemaining(1)))
	_ = sender.Send(ctx, []byte(FormatRemaining(0)))

	outcome, err := Watch(ctx, listener, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if outcome != FinishedInferred {
		t.Fatalf("expected inferred finish, got %s", outcome)
	}
}

func TestWatchInfersFinishWhenTrailingTicksAreLost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, sender := newUDPPair(t)
	// Tick 0 and the finished sentinel are both lost.
	_ = sender.Send(ctx, []byte(FormatRemaining(2)))
	_ = sender.Send(ctx, []byte(FormatRemaining(1)))

	start := time.Now()
	outcome, err := Watch(ctx, listener, 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if outcome != FinishedInferred {
		t.Fatalf("expected inferred finish, got %s", outcome)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("finish inferred before the last tick's remaining second elapsed (%v)", elapsed)
	}
}
