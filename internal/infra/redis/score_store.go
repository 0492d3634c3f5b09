package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"netexam/internal/domain"
)

// ScoreStore keeps answer records in Redis so results survive a coordinator restart.
// Answers are stored as: HSET exam:{examID}:answers:{participant} {questionID} {record JSON}
// Participants are tracked in: SADD exam:{examID}:participants {participant}
type ScoreStore struct {
	client *redis.Client
	examID string
	ttl    time.Duration
	now    func() time.Time

	// mu serializes reads and writes from this process.
	mu sync.Mutex
}

func NewScoreStore(client *redis.Client, examID string, ttl time.Duration) *ScoreStore {
	return &ScoreStore{client: client, examID: examID, ttl: ttl, now: time.Now}
}

// RecordAnswer upserts the answer; a resubmission replaces the earlier one.
func (s *ScoreStore) RecordAnswer(ctx context.Context, participant string, q domain.Question, option int) error {
	data, err := json.Marshal(domain.AnswerRecord{
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Option:     option,
		Correct:    q.Correct,
		AnsweredAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answersKey := s.answersKey(participant)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, answersKey, q.ID, data)
		pipe.SAdd(ctx, s.participantsKey(), participant)
		if s.ttl > 0 {
			pipe.Expire(ctx, answersKey, s.ttl)
			pipe.Expire(ctx, s.participantsKey(), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

func (s *ScoreStore) Score(ctx context.Context, participant string, questions []domain.Question) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers, err := s.loadParticipant(ctx, participant)
	if err != nil {
		return 0, err
	}
	return domain.ScoreAgainst(answers, questions), nil
}

func (s *ScoreStore) AllScores(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]int, len(all))
	for participant, answers := range all {
		scores[participant] = domain.ScoreRecorded(answers)
	}
	return scores, nil
}

func (s *ScoreStore) Answers(ctx context.Context) (map[string][]domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.AnswerRecord, len(all))
	for participant, answers := range all {
		records := make([]domain.AnswerRecord, 0, len(answers))
		for _, rec := range answers {
			records = append(records, rec)
		}
		out[participant] = records
	}
	return out, nil
}

func (s *ScoreStore) loadParticipant(ctx context.Context, participant string) (map[string]domain.AnswerRecord, error) {
	raw, err := s.client.HGetAll(ctx, s.answersKey(participant)).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return decodeAnswers(raw)
}

// loadAll reads every participant's hash inside one MULTI block.
func (s *ScoreStore) loadAll(ctx context.Context) (map[string]map[string]domain.AnswerRecord, error) {
	participants, err := s.client.SMembers(ctx, s.participantsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	all := make(map[string]map[string]domain.AnswerRecord, len(participants))
	if len(participants) == 0 {
		return all, nil
	}

	cmds := make(map[string]*redis.MapStringStringCmd, len(participants))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range participants {
			cmds[p] = pipe.HGetAll(ctx, s.answersKey(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	for p, cmd := range cmds {
		answers, err := decodeAnswers(cmd.Val())
		if err != nil {
			return nil, err
		}
		if len(answers) > 0 {
			all[p] = answers
		}
	}
	return all, nil
}

func decodeAnswers(raw map[string]string) (map[string]domain.AnswerRecord, error) {
	answers := make(map[string]domain.AnswerRecord, len(raw))
	for questionID, data := range raw {
		var rec domain.AnswerRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode answer %s: %w", questionID, err)
		}
		answers[questionID] = rec
	}
	return answers, nil
}

func (s *ScoreStore) answersKey(participant string) string {
	return "exam:" + s.examID + ":answers:" + participant
}

func (s *ScoreStore) participantsKey() string {
	return "exam:" + s.examID + ":participants"
}
