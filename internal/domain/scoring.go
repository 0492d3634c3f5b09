package domain

import (
	"fmt"
	"math"
)

// Percent returns round(100 * correct / total), or 0 when total is 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// ScoreAgainst scores recorded answers against an explicit question list.
// Questions without an answer count as incorrect.
func ScoreAgainst(answers map[string]AnswerRecord, questions []Question) int {
	if len(questions) == 0 || len(answers) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		if rec, ok := answers[q.ID]; ok && rec.Option == q.Correct {
			correct++
		}
	}
	return Percent(correct, len(questions))
}

// ScoreRecorded scores a participant against the questions they actually answered.
func ScoreRecorded(answers map[string]AnswerRecord) int {
	correct := 0
	for _, rec := range answers {
		if rec.IsCorrect() {
			correct++
		}
	}
	return Percent(correct, len(answers))
}

// Validate checks option count and the correct index.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	if !q.ValidOption(q.Correct) {
		return fmt.Errorf("%w: correct option %d out of range", ErrInvalidQuestion, q.Correct)
	}
	return nil
}

// ValidOption reports whether option is a 1-based index into Options.
func (q Question) ValidOption(option int) bool {
	return option >= 1 && option <= len(q.Options)
}
