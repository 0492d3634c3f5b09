package app_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"netexam/internal/app"
	"netexam/internal/domain"
	"netexam/internal/infra/memory"
)

// fakePeer is a scripted in-memory connection.
type fakePeer struct {
	in   chan domain.Inbound
	out  chan domain.Outbound
	gone chan struct{}

	goneOnce  sync.Once
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakePeer() *fakePeer {
	return &fakePeer{
		in:     make(chan domain.Inbound, 8),
		out:    make(chan domain.Outbound, 64),
		gone:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (p *fakePeer) Send(msg domain.Outbound) error {
	select {
	case <-p.gone:
		return domain.ErrDisconnected
	default:
	}
	p.out <- msg
	return nil
}

func (p *fakePeer) Receive(ctx context.Context) (domain.Inbound, error) {
	select {
	case in := <-p.in:
		return in, nil
	case <-p.gone:
		return domain.Inbound{}, domain.ErrDisconnected
	case <-ctx.Done():
		return domain.Inbound{}, ctx.Err()
	}
}

func (p *fakePeer) Done() <-chan struct{} { return p.gone }

func (p *fakePeer) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// disconnect simulates the remote side going away.
func (p *fakePeer) disconnect() {
	p.goneOnce.Do(func() { close(p.gone) })
}

func (p *fakePeer) credential(v string) { p.in <- domain.Inbound{Type: domain.MsgCredential, Value: v} }
func (p *fakePeer) answer(option int)   { p.in <- domain.Inbound{Type: domain.MsgAnswer, Option: option} }

func (p *fakePeer) expect(t *testing.T, typ string) domain.Outbound {
	t.Helper()
	select {
	case msg := <-p.out:
		if msg.Type != typ {
			t.Fatalf("expected %s, got %s (%+v)", typ, msg.Type, msg.Payload)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", typ)
	}
	return domain.Outbound{}
}

func (p *fakePeer) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-p.out:
		t.Fatalf("expected no message, got %s", msg.Type)
	case <-time.After(d):
	}
}

// login drives the credential exchange and the lobby notice.
func (p *fakePeer) login(t *testing.T, id, secret string) {
	t.Helper()
	p.expect(t, domain.MsgPrompt)
	p.credential(id)
	p.expect(t, domain.MsgPrompt)
	p.credential(secret)
	res := p.expect(t, domain.MsgAuthResult)
	if !res.Payload.(domain.AuthResultPayload).OK {
		t.Fatalf("expected %s to authenticate", id)
	}
	p.expect(t, domain.MsgWaiting)
}

type countingTrigger struct {
	calls atomic.Int32
}

func (c *countingTrigger) Trigger(context.Context) error {
	c.calls.Add(1)
	return nil
}

type fixture struct {
	coord   *app.Coordinator
	scores  *memory.ScoreStore
	state   *app.SharedState
	trigger *countingTrigger
}

func newFixture(workers int) *fixture {
	scores := memory.NewScoreStore()
	state := app.NewSharedState(memory.NewStateStore(), time.Minute)
	trigger := &countingTrigger{}
	roster := []domain.Credential{{ID: "alice", Secret: "s1"}}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		roster = append(roster, domain.Credential{ID: id, Secret: "pw"})
	}
	coord := app.NewCoordinator(memory.NewDirectory(roster), scores, state, trigger, sampleExam(), app.Options{Workers: workers})
	return &fixture{coord: coord, scores: scores, state: state, trigger: trigger}
}

func (f *fixture) handle(p *fakePeer) <-chan error {
	done := make(chan error, 1)
	go func() { done <- f.coord.Handle(context.Background(), p) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("handle returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not finish")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func sampleExam() domain.Exam {
	return domain.Exam{
		ID: "exam-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, Correct: 2},
			{ID: "q2", Prompt: "First letter?", Options: []string{"a", "b", "c", "d"}, Correct: 1},
			{ID: "q3", Prompt: "Last letter?", Options: []string{"w", "x", "y", "z"}, Correct: 4},
		},
	}
}
