package broadcast

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"
)

// Outcome says how a Watch ended.
type Outcome int

const (
	// FinishedReceived means the EXAM_FINISHED sentinel arrived.
	FinishedReceived Outcome = iota
	// FinishedInferred means the sentinel never arrived and the channel stayed
	// silent past the point the countdown must have ended.
	FinishedInferred
)

func (o Outcome) String() string {
	if o == FinishedInferred {
		return "inferred"
	}
	return "received"
}

const pollInterval = 250 * time.Millisecond

// Watch consumes the fan-out channel, calling onTick for each countdown tick,
// until the finished sentinel arrives or ctx ends. A missed sentinel is
// reported as FinishedInferred once the channel has been silent for the last
// seen tick's remaining seconds plus grace, so lost trailing ticks are
// covered too.
func Watch(ctx context.Context, conn net.PacketConn, grace time.Duration, onTick func(remaining int)) (Outcome, error) {
	buf := make([]byte, 1024)
	lastTick := -1
	var lastAt time.Time

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		wait := pollInterval
		if grace > 0 && grace < wait {
			wait = grace
		}
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return 0, err
		}

		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				return 0, err
			}
			if lastTick >= 0 && time.Since(lastAt) >= time.Duration(lastTick)*time.Second+grace {
				return FinishedInferred, nil
			}
			continue
		}

		msg := strings.TrimSpace(string(buf[:n]))
		if msg == FinishedSentinel {
			return FinishedReceived, nil
		}
		remaining, ok := ParseRemaining(msg)
		if !ok {
			continue
		}
		if onTick != nil {
			onTick(remaining)
		}
		lastTick, lastAt = remaining, time.Now()
	}
}
