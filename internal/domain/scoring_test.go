package domain

import (
	"errors"
	"testing"
)

func TestPercentRounds(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{2, 3, 67},
		{1, 3, 33},
		{1, 2, 50},
		{3, 3, 100},
	}
	for _, tc := range cases {
		if got := Percent(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Percent(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestScoreAgainstCountsMissingAsIncorrect(t *testing.T) {
	questions := []Question{
		{ID: "q1", Correct: 2},
		{ID: "q2", Correct: 1},
		{ID: "q3", Correct: 4},
	}
	answers := map[string]AnswerRecord{
		"q1": {QuestionID: "q1", Option: 2, Correct: 2},
		"q2": {QuestionID: "q2", Option: 1, Correct: 1},
	}
	if got := ScoreAgainst(answers, questions); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := ScoreRecorded(answers); got != 100 {
		t.Fatalf("expected 100 over answered questions, got %d", got)
	}
	if got := ScoreAgainst(answers, nil); got != 0 {
		t.Fatalf("expected 0 for empty question list, got %d", got)
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{Prompt: "2+2?", Options: []string{"3", "4"}, Correct: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}
	bad := []Question{
		{Prompt: "", Options: []string{"a", "b"}, Correct: 1},
		{Prompt: "one option", Options: []string{"a"}, Correct: 1},
		{Prompt: "out of range", Options: []string{"a", "b"}, Correct: 3},
		{Prompt: "zero", Options: []string{"a", "b"}, Correct: 0},
	}
	for _, q := range bad {
		if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("expected ErrInvalidQuestion for %q, got %v", q.Prompt, err)
		}
	}
}
