// Package broadcast distributes the authoritative exam countdown.
//
// A Service waits for a one-shot start trigger (either in-process via
// Trigger or as a START_EXAM datagram on the control address), then emits
// "Time left: N sec" once per second from the configured duration down to
// zero, followed by a single EXAM_FINISHED sentinel. Fan-out is best-effort:
// a failed send is logged and the countdown carries on. The finished
// sentinel is not retried; consumers use Watch to notice when it was missed.
package broadcast
