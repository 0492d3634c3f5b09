package domain

import (
	"fmt"
	"time"
)

// Phase is the exam lifecycle phase. It only ever moves WAITING -> RUNNING.
type Phase string

const (
	PhaseWaiting Phase = "WAITING"
	PhaseRunning Phase = "RUNNING"
)

// Question models an MCQ question. Correct is 1-based, matching answer encoding.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Credential is one roster entry.
type Credential struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

// DefaultRoster registers student1..student20 with a shared demo secret.
func DefaultRoster() []Credential {
	roster := make([]Credential, 0, 20)
	for i := 1; i <= 20; i++ {
		roster = append(roster, Credential{ID: fmt.Sprintf("student%d", i), Secret: "pass123"})
	}
	return roster
}

// Exam is the ordered question set delivered to every participant.
type Exam struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerRecord is the latest answer a participant gave for one question.
type AnswerRecord struct {
	QuestionID string    `json:"questionId"`
	Prompt     string    `json:"prompt"`
	Option     int       `json:"option"`
	Correct    int       `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// IsCorrect reports whether the recorded option matches the question's correct option.
func (r AnswerRecord) IsCorrect() bool {
	return r.Option == r.Correct
}

// StateRecord is the persisted cross-process exam state. StartedAt is unix millis, 0 when unset.
type StateRecord struct {
	Phase     Phase `json:"phase"`
	Connected int   `json:"connected"`
	StartedAt int64 `json:"startedAt"`
}

// DefaultStateRecord is the record used when nothing (or nothing readable) was persisted.
func DefaultStateRecord() StateRecord {
	return StateRecord{Phase: PhaseWaiting}
}

// StateSnapshot is a single consistent read of the shared exam state.
type StateSnapshot struct {
	Phase     Phase         `json:"phase"`
	Connected int           `json:"connected"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
}

// AnswerDetail is one row of a participant's report.
type AnswerDetail struct {
	QuestionID string `json:"questionId"`
	Prompt     string `json:"prompt"`
	Option     int    `json:"option"`
	Correct    bool   `json:"correct"`
}

// ParticipantReport is a participant's percentage with per-question detail.
type ParticipantReport struct {
	Participant string         `json:"participant"`
	Percent     int            `json:"percent"`
	Answers     []AnswerDetail `json:"answers"`
}

// ScoresReport captures all participant results at one point in time.
type ScoresReport struct {
	Results   []ParticipantReport `json:"results"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// ExamStatus is what the operator surface shows about a run.
type ExamStatus struct {
	StateSnapshot
	DurationSeconds int `json:"durationSeconds"`
	TotalRegistered int `json:"totalRegistered"`
	Admitted        int `json:"admitted"`
	Waiting         int `json:"waiting"`
}
