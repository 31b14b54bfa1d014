package app

import (
	"math"
	"strings"

	"practice-quiz-service/internal/domain"
)

// Scorecard is the output of Score.
type Scorecard struct {
	Score          int
	TotalPoints    int
	Percentage     int
	CorrectAnswers int
	TotalQuestions int
	Review         []domain.QuestionReview
}

// Score grades answers against quiz content. It has no side effects: the same
// quiz and answers always produce the same scorecard. Unanswered questions are incorrect.
func Score(quiz domain.Quiz, answers domain.Answers) Scorecard {
	card := Scorecard{
		TotalPoints:    quiz.TotalPoints,
		TotalQuestions: len(quiz.Questions),
		Review:         make([]domain.QuestionReview, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		given, answered := answers[question.ID]
		correct := IsCorrect(question, given)
		if correct {
			card.Score += question.Points
			card.CorrectAnswers++
		}
		card.Review = append(card.Review, domain.QuestionReview{
			QuestionID:  question.ID,
			Answered:    answered && given.IsSet(),
			Correct:     correct,
			Given:       given,
			Expected:    question.CorrectAnswer,
			Explanation: question.Explanation,
			Points:      question.Points,
		})
	}
	card.Percentage = Percentage(card.Score, card.TotalPoints)
	return card
}

// IsCorrect applies the per-type correctness rule to a single answer.
func IsCorrect(question domain.Question, given domain.Answer) bool {
	expected := question.CorrectAnswer
	switch question.Type {
	case domain.QuestionMCQ, domain.QuestionLogicalThinking:
		return given.Kind == domain.AnswerOption && given.Equal(expected)
	case domain.QuestionTrueFalse:
		return given.Kind == domain.AnswerBool && given.Equal(expected)
	case domain.QuestionFillBlank:
		return normalizeBlank(given.String()) == normalizeBlank(expected.String())
	}
	return false
}

func normalizeBlank(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Percentage rounds 100*score/total half away from zero; a zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
