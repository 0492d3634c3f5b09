package memory

import (
	"context"

	"netexam/internal/domain"
)

// StaticExamLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticExamLoader struct {
	exams map[string]domain.Exam
}

func NewStaticExamLoader(exams map[string]domain.Exam) *StaticExamLoader {
	return &StaticExamLoader{exams: exams}
}

func (l *StaticExamLoader) LoadExam(_ context.Context, examID string) (domain.Exam, error) {
	if exam, ok := l.exams[examID]; ok {
		return exam, nil
	}
	return domain.Exam{}, domain.ErrExamNotFound
}

// SampleExams is the built-in demo exam used when no database is configured.
func SampleExams() map[string]domain.Exam {
	return map[string]domain.Exam{
		"exam-1": {
			ID:    "exam-1",
			Title: "General knowledge",
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, Correct: 2},
				{ID: "q2", Prompt: "Largest city in Sri Lanka?", Options: []string{"Colombo", "Kandy", "Galle", "Jaffna"}, Correct: 1},
				{ID: "q3", Prompt: "Go is ___", Options: []string{"Programming language", "Board game only", "OS", "Browser"}, Correct: 1},
			},
		},
	}
}
