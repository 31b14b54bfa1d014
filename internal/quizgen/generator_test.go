package quizgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"practice-quiz-service/internal/codecheck"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/infra/memory"
)

type stubProvider struct {
	text  string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(context.Context, string, string) (string, error) {
	p.calls++
	return p.text, p.err
}

const generated = "```json\n" + `{
  "title": "Arrays Warm-up",
  "description": "Indexing and slicing",
  "time_limit": 15,
  "questions": [
    {"type": "mcq", "question": "First index?", "options": ["0", "1"], "correct_answer": "0", "difficulty": "easy", "points": 1},
    {"type": "true_false", "question": "Arrays are resizable.", "correct_answer": "False", "difficulty": "medium"},
    {"type": "logical_thinking", "question": "Pick the O(1) access", "options": ["list", "array"], "correct_answer": "B", "difficulty": "hard"},
    {"type": "fill_blanks", "question": "len([1,2,3]) is __", "correct_answer": ["3"], "difficulty": "easy", "points": 1},
    {"type": "essay", "question": "Discuss arrays", "correct_answer": "anything"}
  ]
}` + "\n```"

func TestGenerateStoresQuizAtSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStaticQuizLoader(nil)
	cache := memory.NewQuizRepository(store, time.Hour)
	provider := &stubProvider{text: generated}
	gen := NewGenerator(provider, store, store, cache)

	order := 2
	quiz, err := gen.Generate(ctx, Request{Category: "DSA", Topic: "Arrays", Subtopic: "Basics", SortOrder: &order})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if quiz.ID != "dsa-arrays-basics-2" || !quiz.AIGenerated || quiz.SortOrder != 2 {
		t.Fatalf("unexpected quiz identity: %+v", quiz)
	}
	if len(quiz.Questions) != 4 {
		t.Fatalf("expected the essay question dropped, got %d questions", len(quiz.Questions))
	}
	if quiz.TotalPoints != 1+2+3+1 || *quiz.TimeLimitMinutes != 15 {
		t.Fatalf("unexpected totals: points %d limit %d", quiz.TotalPoints, *quiz.TimeLimitMinutes)
	}
	if q := quiz.Questions[2]; q.CorrectAnswer != domain.OptionAnswer(1) || q.ID != 3 {
		t.Fatalf("expected letter answer resolved to option 1, got %+v", q)
	}
	if q := quiz.Questions[1]; q.CorrectAnswer != domain.BoolAnswer(false) {
		t.Fatalf("expected boolean answer, got %+v", q.CorrectAnswer)
	}
	if q := quiz.Questions[3]; q.Type != domain.QuestionFillBlank || q.CorrectAnswer != domain.TextAnswer("3") {
		t.Fatalf("expected fill blank answer 3, got %+v", q)
	}

	stored, err := cache.GetQuiz(ctx, quiz.ID)
	if err != nil || stored.Title != "Arrays Warm-up" {
		t.Fatalf("expected stored quiz, got %+v (%v)", stored, err)
	}

	_, err = gen.Generate(ctx, Request{Category: "DSA", Topic: "Arrays", Subtopic: "Basics", SortOrder: &order})
	if !errors.Is(err, domain.ErrQuizExists) {
		t.Fatalf("expected quiz exists, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("occupied slot should not reach the provider, got %d calls", provider.calls)
	}
}

func TestGenerateFallsBackOnUnusableOutput(t *testing.T) {
	store := memory.NewStaticQuizLoader(nil)
	gen := NewGenerator(&stubProvider{text: "Sorry, I cannot help with that."}, store, store)

	order := 1
	quiz, err := gen.Generate(context.Background(), Request{Category: "web", Topic: "http", Subtopic: "verbs", SortOrder: &order})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.TotalPoints != 2 || quiz.Title != "verbs Quiz" {
		t.Fatalf("expected placeholder quiz, got %+v", quiz)
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	store := memory.NewStaticQuizLoader(nil)
	order := 1

	_, err := NewGenerator(&stubProvider{}, store, store).Generate(context.Background(), Request{Category: "web", Topic: "http"})
	if !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("expected missing location, got %v", err)
	}

	_, err = NewGenerator(nil, store, store).Generate(context.Background(), Request{Category: "web", Topic: "http", Subtopic: "verbs", SortOrder: &order})
	if !errors.Is(err, codecheck.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	failing := &stubProvider{err: errors.New("quota exceeded")}
	_, err = NewGenerator(failing, store, store).Generate(context.Background(), Request{Category: "web", Topic: "http", Subtopic: "verbs", SortOrder: &order})
	if err == nil {
		t.Fatalf("expected provider error")
	}
	if _, err := store.LoadQuiz(context.Background(), QuizID("web", "http", "verbs", 1)); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("failed generation must not store a quiz, got %v", err)
	}
}
