package memory

import (
	"context"
	"sync"
	"time"

	"netexam/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore.
type ScoreStore struct {
	now func() time.Time

	mu      sync.Mutex
	answers map[string]map[string]domain.AnswerRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		now:     time.Now,
		answers: make(map[string]map[string]domain.AnswerRecord),
	}
}

// RecordAnswer upserts the answer; a resubmission replaces the earlier one.
func (s *ScoreStore) RecordAnswer(_ context.Context, participant string, q domain.Question, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byQuestion, ok := s.answers[participant]
	if !ok {
		byQuestion = make(map[string]domain.AnswerRecord)
		s.answers[participant] = byQuestion
	}
	byQuestion[q.ID] = domain.AnswerRecord{
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Option:     option,
		Correct:    q.Correct,
		AnsweredAt: s.now(),
	}
	return nil
}

func (s *ScoreStore) Score(_ context.Context, participant string, questions []domain.Question) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ScoreAgainst(s.answers[participant], questions), nil
}

func (s *ScoreStore) AllScores(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make(map[string]int, len(s.answers))
	for participant, byQuestion := range s.answers {
		scores[participant] = domain.ScoreRecorded(byQuestion)
	}
	return scores, nil
}

func (s *ScoreStore) Answers(_ context.Context) (map[string][]domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]domain.AnswerRecord, len(s.answers))
	for participant, byQuestion := range s.answers {
		records := make([]domain.AnswerRecord, 0, len(byQuestion))
		for _, rec := range byQuestion {
			records = append(records, rec)
		}
		out[participant] = records
	}
	return out, nil
}
