package app

import (
	"context"

	"netexam/internal/domain"
)

// Authenticator verifies participant credentials against the roster.
type Authenticator interface {
	Authenticate(id, secret string) bool
	Size() int
}

// ScoreStore records answers and computes percentage scores. Implementations
// serialize all operations through one lock so no partial view is observable.
type ScoreStore interface {
	RecordAnswer(ctx context.Context, participant string, question domain.Question, option int) error
	Score(ctx context.Context, participant string, questions []domain.Question) (int, error)
	AllScores(ctx context.Context) (map[string]int, error)
	Answers(ctx context.Context) (map[string][]domain.AnswerRecord, error)
}

// StateRecordStore persists the shared exam state record as one unit.
// LoadState returns domain.ErrStateNotFound when the record is missing or unreadable.
type StateRecordStore interface {
	SaveState(ctx context.Context, rec domain.StateRecord) error
	LoadState(ctx context.Context) (domain.StateRecord, error)
}

// ExamLoader fetches exam content from a backing store.
type ExamLoader interface {
	LoadExam(ctx context.Context, examID string) (domain.Exam, error)
}

// StartTrigger arms the countdown broadcaster. It is invoked once per run.
type StartTrigger interface {
	Trigger(ctx context.Context) error
}

// Peer is one participant connection. Receive blocks until a message arrives,
// the peer disconnects (domain.ErrDisconnected) or ctx ends. Done is closed
// once the remote side is gone.
type Peer interface {
	Send(msg domain.Outbound) error
	Receive(ctx context.Context) (domain.Inbound, error)
	Done() <-chan struct{}
	Close() error
}
