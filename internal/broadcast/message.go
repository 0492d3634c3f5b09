package broadcast

import (
	"fmt"
	"strings"
)

const (
	// StartSentinel is the control datagram that arms the countdown.
	StartSentinel = "START_EXAM"
	// FinishedSentinel is emitted once after the last tick.
	FinishedSentinel = "EXAM_FINISHED"

	// DefaultNATSSubject is used when a NATS sender is built without a subject.
	DefaultNATSSubject = "exam.countdown"
)

// FormatRemaining renders one countdown tick.
func FormatRemaining(seconds int) string {
	return fmt.Sprintf("Time left: %d sec", seconds)
}

// ParseRemaining extracts the seconds value from a tick payload.
func ParseRemaining(msg string) (int, bool) {
	var seconds int
	if _, err := fmt.Sscanf(strings.TrimSpace(msg), "Time left: %d sec", &seconds); err != nil {
		return 0, false
	}
	return seconds, true
}
