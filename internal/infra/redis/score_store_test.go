package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"netexam/internal/domain"
)

func TestScoreStoreRecordsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewScoreStore(newClient(mr), "exam-1", time.Minute)
	questions := sampleQuestions()

	for i, option := range []int{2, 1, 1} {
		if err := store.RecordAnswer(ctx, "alice", questions[i], option); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if !mr.Exists("exam:exam-1:answers:alice") {
		t.Fatalf("expected answers hash to be written")
	}

	score, err := store.Score(ctx, "alice", questions)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 67 {
		t.Fatalf("expected 67, got %d", score)
	}

	// Resubmission overwrites the earlier answer.
	if err := store.RecordAnswer(ctx, "alice", questions[2], 4); err != nil {
		t.Fatalf("record: %v", err)
	}
	score, _ = store.Score(ctx, "alice", questions)
	if score != 100 {
		t.Fatalf("expected 100 after overwrite, got %d", score)
	}

	all, err := store.AllScores(ctx)
	if err != nil {
		t.Fatalf("all scores: %v", err)
	}
	if len(all) != 1 || all["alice"] != 100 {
		t.Fatalf("unexpected scores %v", all)
	}

	answers, err := store.Answers(ctx)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers["alice"]) != 3 {
		t.Fatalf("expected 3 answer records, got %d", len(answers["alice"]))
	}
}

func TestScoreStoreEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewScoreStore(newClient(mr), "exam-1", time.Minute)
	all, err := store.AllScores(context.Background())
	if err != nil {
		t.Fatalf("all scores: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty scores, got %v", all)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, Correct: 2},
		{ID: "q2", Prompt: "First letter?", Options: []string{"a", "b", "c", "d"}, Correct: 1},
		{ID: "q3", Prompt: "Last letter?", Options: []string{"w", "x", "y", "z"}, Correct: 4},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
