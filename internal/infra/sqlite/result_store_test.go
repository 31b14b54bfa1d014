package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"practice-quiz-service/internal/domain"
)

func TestResultStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	id, err := store.SaveResult(ctx, domain.ResultSubmission{
		QuizID:     "quiz-1",
		Answers:    domain.Answers{1: domain.OptionAnswer(1), 2: domain.BoolAnswer(false), 3: domain.TextAnswer(" 42 ")},
		Score:      15,
		Percentage: 75,
		TimeTaken:  40,
		Category:   "programming",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.SaveResult(ctx, domain.ResultSubmission{QuizID: "quiz-1", Answers: domain.Answers{}, Percentage: 25}); err != nil {
		t.Fatalf("save second: %v", err)
	}

	answers, err := store.Answers(ctx, id)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 3 || answers[1] != "1" || answers[2] != "false" || answers[3] != " 42 " {
		t.Fatalf("unexpected answers: %v", answers)
	}

	stats, err := store.Stats(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.QuizID != "quiz-1" || stats.Attempts != 2 || stats.AveragePercent != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
