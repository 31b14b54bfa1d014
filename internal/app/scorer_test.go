package app

import (
	"reflect"
	"testing"

	"practice-quiz-service/internal/domain"
)

func TestScoreExampleQuiz(t *testing.T) {
	quiz := threeQuestionQuiz(nil)
	answers := domain.Answers{
		1: domain.OptionAnswer(1),
		2: domain.BoolAnswer(false),
		3: domain.TextAnswer(" 42 "),
	}

	card := Score(quiz, answers)
	if card.CorrectAnswers != 2 || card.Score != 15 || card.TotalPoints != 20 || card.Percentage != 75 {
		t.Fatalf("unexpected scorecard: %+v", card)
	}
	if len(card.Review) != 3 || card.Review[1].Correct || !card.Review[1].Answered {
		t.Fatalf("unexpected review: %+v", card.Review)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	quiz := threeQuestionQuiz(nil)
	answers := domain.Answers{1: domain.OptionAnswer(2), 3: domain.TextAnswer("42")}

	first := Score(quiz, answers)
	second := Score(quiz, answers)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scores differ:\n%+v\n%+v", first, second)
	}
}

func TestScoreUnansweredIsIncorrect(t *testing.T) {
	card := Score(threeQuestionQuiz(nil), domain.Answers{})
	if card.CorrectAnswers != 0 || card.Score != 0 || card.Percentage != 0 {
		t.Fatalf("expected zero score, got %+v", card)
	}
	for _, r := range card.Review {
		if r.Answered {
			t.Fatalf("question %d should be unanswered", r.QuestionID)
		}
	}
}

func TestScoreAllCorrect(t *testing.T) {
	quiz := threeQuestionQuiz(nil)
	answers := domain.Answers{}
	for _, q := range quiz.Questions {
		answers[q.ID] = q.CorrectAnswer
	}
	card := Score(quiz, answers)
	if card.CorrectAnswers != len(quiz.Questions) || card.Score != quiz.TotalPoints || card.Percentage != 100 {
		t.Fatalf("expected perfect score, got %+v", card)
	}
}

func TestScoreBounds(t *testing.T) {
	quiz := threeQuestionQuiz(nil)
	inputs := []domain.Answers{
		{},
		{1: domain.OptionAnswer(1)},
		{1: domain.TextAnswer("1"), 2: domain.TextAnswer("true"), 3: domain.OptionAnswer(42)},
		{1: domain.OptionAnswer(-1), 2: domain.BoolAnswer(true), 3: domain.TextAnswer("")},
		{99: domain.OptionAnswer(1)},
	}
	for _, answers := range inputs {
		card := Score(quiz, answers)
		if card.Score < 0 || card.Score > card.TotalPoints {
			t.Fatalf("score out of bounds: %+v", card)
		}
		if card.Percentage < 0 || card.Percentage > 100 {
			t.Fatalf("percentage out of bounds: %+v", card)
		}
	}
}

func TestIsCorrect(t *testing.T) {
	mcq := domain.Question{ID: 1, Type: domain.QuestionMCQ, Options: []string{"A", "B"}, CorrectAnswer: domain.OptionAnswer(1), Points: 1}
	logic := domain.Question{ID: 2, Type: domain.QuestionLogicalThinking, Options: []string{"x", "y", "z"}, CorrectAnswer: domain.OptionAnswer(0), Points: 1}
	tf := domain.Question{ID: 3, Type: domain.QuestionTrueFalse, CorrectAnswer: domain.BoolAnswer(true), Points: 1}
	blank := domain.Question{ID: 4, Type: domain.QuestionFillBlank, CorrectAnswer: domain.TextAnswer("Paris"), Points: 1}
	emptyBlank := domain.Question{ID: 5, Type: domain.QuestionFillBlank, CorrectAnswer: domain.TextAnswer("  "), Points: 1}

	tests := []struct {
		name     string
		question domain.Question
		given    domain.Answer
		want     bool
	}{
		{"mcq match", mcq, domain.OptionAnswer(1), true},
		{"mcq wrong index", mcq, domain.OptionAnswer(0), false},
		{"mcq text is not an index", mcq, domain.TextAnswer("1"), false},
		{"mcq unanswered", mcq, domain.Answer{}, false},
		{"logical match", logic, domain.OptionAnswer(0), true},
		{"true_false match", tf, domain.BoolAnswer(true), true},
		{"true_false mismatch", tf, domain.BoolAnswer(false), false},
		{"true_false string", tf, domain.TextAnswer("true"), false},
		{"fill_blank exact", blank, domain.TextAnswer("Paris"), true},
		{"fill_blank padded", blank, domain.TextAnswer(" paris "), true},
		{"fill_blank upper", blank, domain.TextAnswer("PARIS"), true},
		{"fill_blank wrong", blank, domain.TextAnswer("Lyon"), false},
		{"fill_blank unanswered", blank, domain.Answer{}, false},
		{"fill_blank empty expected unanswered", emptyBlank, domain.Answer{}, true},
		{"unknown type", domain.Question{Type: "essay"}, domain.TextAnswer("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCorrect(tt.question, tt.given); got != tt.want {
				t.Errorf("IsCorrect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{15, 20, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{20, 20, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}

// threeQuestionQuiz builds the mcq / true_false / fill_blank quiz worth 20 points.
func threeQuestionQuiz(limitMinutes *int) domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Mixed",
		Questions: []domain.Question{
			{ID: 1, Type: domain.QuestionMCQ, Prompt: "Pick B", Options: []string{"A", "B", "C"}, CorrectAnswer: domain.OptionAnswer(1), Points: 10},
			{ID: 2, Type: domain.QuestionTrueFalse, Prompt: "Go has goroutines", CorrectAnswer: domain.BoolAnswer(true), Points: 5},
			{ID: 3, Type: domain.QuestionFillBlank, Prompt: "The answer is __", CorrectAnswer: domain.TextAnswer("42"), Points: 5},
		},
		TimeLimitMinutes: limitMinutes,
		TotalPoints:      20,
		Category:         "programming",
		Topic:            "go",
		Subtopic:         "basics",
	}
}
