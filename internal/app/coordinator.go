package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"netexam/internal/domain"
)

// DefaultWorkers matches the size of the session worker pool when none is configured.
const DefaultWorkers = 10

// Coordinator owns one exam run: the lobby, the start gate, the question set
// and the session worker pool. Construct one per run and share it by pointer.
type Coordinator struct {
	directory Authenticator
	scores    ScoreStore
	state     *SharedState
	trigger   StartTrigger
	pool      *semaphore.Weighted
	now       func() time.Time

	mu        sync.Mutex
	phase     domain.Phase
	opened    chan struct{}
	lobby     map[string]*LobbyEntry
	active    map[string]int
	admitted  int
	questions []domain.Question
}

// LobbyEntry is an authenticated connection waiting for the gate.
type LobbyEntry struct {
	ID          string
	Participant string

	released bool
	wake     chan struct{}
}

// Options configures a Coordinator.
type Options struct {
	Workers int
	Now     func() time.Time
}

func NewCoordinator(directory Authenticator, scores ScoreStore, state *SharedState, trigger StartTrigger, exam domain.Exam, opts Options) *Coordinator {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	questions := make([]domain.Question, 0, len(exam.Questions))
	for i, q := range exam.Questions {
		questions = append(questions, withID(q, i))
	}
	return &Coordinator{
		directory: directory,
		scores:    scores,
		state:     state,
		trigger:   trigger,
		pool:      semaphore.NewWeighted(int64(workers)),
		now:       now,
		phase:     domain.PhaseWaiting,
		opened:    make(chan struct{}),
		lobby:     make(map[string]*LobbyEntry),
		active:    make(map[string]int),
		questions: questions,
	}
}

// TriggerStart opens the gate. It reports whether this call performed the
// WAITING -> RUNNING transition; later calls are no-ops. Once the gate has
// flipped, persisting the phase and arming the broadcaster are not bound to
// the caller's cancellation, since no later call can retry them.
func (c *Coordinator) TriggerStart(ctx context.Context) bool {
	c.mu.Lock()
	if c.phase == domain.PhaseRunning {
		c.mu.Unlock()
		return false
	}
	c.phase = domain.PhaseRunning
	released := len(c.lobby)
	for id, entry := range c.lobby {
		entry.release()
		delete(c.lobby, id)
	}
	close(c.opened)
	c.mu.Unlock()

	log.Info().Int("released", released).Msg("exam started")

	ctx = context.WithoutCancel(ctx)
	if err := c.state.SetPhase(ctx, domain.PhaseRunning); err != nil {
		log.Warn().Err(err).Msg("shared state phase not persisted")
	}
	if c.trigger != nil {
		if err := c.trigger.Trigger(ctx); err != nil {
			log.Warn().Err(err).Msg("could not send start signal to broadcaster")
		}
	}
	return true
}

// IsRunning reports whether the gate has opened.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == domain.PhaseRunning
}

// ConnectedCount is the shared connected-participant count.
func (c *Coordinator) ConnectedCount(ctx context.Context) int {
	return c.state.ConnectedCount(ctx)
}

// ActiveParticipants returns the ids of authenticated participants still connected.
func (c *Coordinator) ActiveParticipants() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Questions returns a copy of the current question set.
func (c *Coordinator) Questions() []domain.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// AddQuestion appends a question while the exam is still WAITING.
func (c *Coordinator) AddQuestion(q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == domain.PhaseRunning {
		return domain.Question{}, domain.ErrExamStarted
	}
	q = withID(q, len(c.questions))
	for _, existing := range c.questions {
		if existing.ID == q.ID {
			return domain.Question{}, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidQuestion, q.ID)
		}
	}
	c.questions = append(c.questions, q)
	return q, nil
}

// Status combines the shared state snapshot with lobby and roster counters.
func (c *Coordinator) Status(ctx context.Context) domain.ExamStatus {
	snap := c.state.Snapshot(ctx)
	c.mu.Lock()
	admitted, waiting := c.admitted, len(c.lobby)
	c.mu.Unlock()
	return domain.ExamStatus{
		StateSnapshot:   snap,
		DurationSeconds: int(snap.Duration / time.Second),
		TotalRegistered: c.directory.Size(),
		Admitted:        admitted,
		Waiting:         waiting,
	}
}

// ScoresReport builds every participant's percentage and answer detail from
// one read of the score store.
func (c *Coordinator) ScoresReport(ctx context.Context) (domain.ScoresReport, error) {
	answers, err := c.scores.Answers(ctx)
	if err != nil {
		return domain.ScoresReport{}, err
	}
	results := make([]domain.ParticipantReport, 0, len(answers))
	for participant, records := range answers {
		byQuestion := make(map[string]domain.AnswerRecord, len(records))
		details := make([]domain.AnswerDetail, 0, len(records))
		for _, rec := range records {
			byQuestion[rec.QuestionID] = rec
			details = append(details, domain.AnswerDetail{
				QuestionID: rec.QuestionID,
				Prompt:     rec.Prompt,
				Option:     rec.Option,
				Correct:    rec.IsCorrect(),
			})
		}
		sort.Slice(details, func(i, j int) bool { return details[i].QuestionID < details[j].QuestionID })
		results = append(results, domain.ParticipantReport{
			Participant: participant,
			Percent:     domain.ScoreRecorded(byQuestion),
			Answers:     details,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Participant < results[j].Participant })
	return domain.ScoresReport{Results: results, UpdatedAt: c.now()}, nil
}

// admit places an authenticated participant in the lobby. After the gate has
// opened the entry is released immediately and never enters the lobby set.
func (c *Coordinator) admit(ctx context.Context, participant string) *LobbyEntry {
	entry := &LobbyEntry{
		ID:          uuid.NewString(),
		Participant: participant,
		wake:        make(chan struct{}),
	}

	c.mu.Lock()
	if c.phase == domain.PhaseRunning {
		entry.release()
	} else {
		c.lobby[entry.ID] = entry
	}
	c.active[participant]++
	c.admitted++
	c.mu.Unlock()

	if err := c.state.IncrementConnected(ctx); err != nil {
		log.Warn().Err(err).Str("participant", participant).Msg("connected count not persisted")
	}
	return entry
}

// leave undoes admit. It must run exactly once per admitted entry.
func (c *Coordinator) leave(ctx context.Context, entry *LobbyEntry) {
	c.mu.Lock()
	delete(c.lobby, entry.ID)
	if n := c.active[entry.Participant]; n <= 1 {
		delete(c.active, entry.Participant)
	} else {
		c.active[entry.Participant] = n - 1
	}
	c.mu.Unlock()

	if err := c.state.DecrementConnected(ctx); err != nil {
		log.Warn().Err(err).Str("participant", entry.Participant).Msg("connected count not persisted")
	}
}

// awaitGate blocks until the entry is released or the exam is running. The
// predicate is re-checked after every wake-up.
func (c *Coordinator) awaitGate(ctx context.Context, entry *LobbyEntry, gone <-chan struct{}) error {
	for {
		c.mu.Lock()
		ready := entry.released || c.phase == domain.PhaseRunning
		opened := c.opened
		c.mu.Unlock()
		if ready {
			return nil
		}

		select {
		case <-entry.wake:
		case <-opened:
		case <-gone:
			return domain.ErrDisconnected
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// release must be called with the coordinator lock held.
func (e *LobbyEntry) release() {
	if e.released {
		return
	}
	e.released = true
	close(e.wake)
}

func withID(q domain.Question, index int) domain.Question {
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", index+1)
	}
	return q
}
