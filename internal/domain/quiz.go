package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// QuestionType selects how an answer is checked.
type QuestionType string

const (
	QuestionMCQ             QuestionType = "mcq"
	QuestionTrueFalse       QuestionType = "true_false"
	QuestionLogicalThinking QuestionType = "logical_thinking"
	QuestionFillBlank       QuestionType = "fill_blank"
)

// Difficulty is display-only metadata.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// HasOptions reports whether answers to this type are option indexes.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMCQ || t == QuestionLogicalThinking
}

// Question is a single quiz item. CorrectAnswer is an option index for mcq and
// logical_thinking, a boolean for true_false and a string for fill_blank.
type Question struct {
	ID            int          `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	Difficulty    Difficulty   `json:"difficulty"`
	Points        int          `json:"points"`
}

// Quiz is an ordered, read-only set of questions. TimeLimitMinutes is nil for untimed quizzes.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Difficulty       Difficulty `json:"difficulty"`
	Questions        []Question `json:"questions"`
	TimeLimitMinutes *int       `json:"timeLimit,omitempty"`
	TotalPoints      int        `json:"totalPoints"`
	Category         string     `json:"category,omitempty"`
	Topic            string     `json:"topic,omitempty"`
	Subtopic         string     `json:"subtopic,omitempty"`
	SortOrder        int        `json:"sortOrder,omitempty"`
	AIGenerated      bool       `json:"isAiGenerated,omitempty"`
}

// Timed reports whether the quiz has a positive time limit.
func (q Quiz) Timed() bool {
	return q.TimeLimitMinutes != nil && *q.TimeLimitMinutes > 0
}

// TimeLimitSeconds is zero for untimed quizzes.
func (q Quiz) TimeLimitSeconds() int {
	if !q.Timed() {
		return 0
	}
	return *q.TimeLimitMinutes * 60
}

// Question looks up a question by ID.
func (q Quiz) Question(id int) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Normalize fills a missing total and coerces correct answers that arrived as strings
// ("1" for an option index, "true" for a boolean) into the kind the question type expects.
func (q Quiz) Normalize() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	sum := 0
	for i, question := range q.Questions {
		ca := question.CorrectAnswer
		if ca.Kind == AnswerText {
			text := strings.TrimSpace(ca.Text)
			switch {
			case question.Type.HasOptions():
				if idx, err := strconv.Atoi(text); err == nil {
					question.CorrectAnswer = OptionAnswer(idx)
				}
			case question.Type == QuestionTrueFalse:
				if b, err := strconv.ParseBool(text); err == nil {
					question.CorrectAnswer = BoolAnswer(b)
				}
			}
		}
		sum += question.Points
		out.Questions[i] = question
	}
	if out.TotalPoints == 0 {
		out.TotalPoints = sum
	}
	return out
}

// Validate checks the load-time invariants of a quiz.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	seen := make(map[int]struct{}, len(q.Questions))
	sum := 0
	for _, question := range q.Questions {
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidQuiz, question.ID)
		}
		seen[question.ID] = struct{}{}
		if question.Points <= 0 {
			return fmt.Errorf("%w: question %d has non-positive points", ErrInvalidQuiz, question.ID)
		}
		switch question.Type {
		case QuestionMCQ, QuestionLogicalThinking:
			if len(question.Options) == 0 {
				return fmt.Errorf("%w: question %d has no options", ErrInvalidQuiz, question.ID)
			}
			ca := question.CorrectAnswer
			if ca.Kind != AnswerOption || ca.Option < 0 || ca.Option >= len(question.Options) {
				return fmt.Errorf("%w: question %d correct answer is not a valid option index", ErrInvalidQuiz, question.ID)
			}
		case QuestionTrueFalse:
			if question.CorrectAnswer.Kind != AnswerBool {
				return fmt.Errorf("%w: question %d correct answer is not a boolean", ErrInvalidQuiz, question.ID)
			}
		case QuestionFillBlank:
		default:
			return fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidQuiz, question.ID, question.Type)
		}
		sum += question.Points
	}
	if q.TotalPoints != sum {
		return fmt.Errorf("%w: total points %d does not match question points %d", ErrInvalidQuiz, q.TotalPoints, sum)
	}
	return nil
}

// QuizFilter selects quizzes by their location in the catalog. Empty fields and a nil
// SortOrder match anything.
type QuizFilter struct {
	Category  string
	Topic     string
	Subtopic  string
	SortOrder *int
}

// Matches reports whether the quiz sits at the filtered location.
func (f QuizFilter) Matches(q Quiz) bool {
	return (f.Category == "" || f.Category == q.Category) &&
		(f.Topic == "" || f.Topic == q.Topic) &&
		(f.Subtopic == "" || f.Subtopic == q.Subtopic) &&
		(f.SortOrder == nil || *f.SortOrder == q.SortOrder)
}

// QuizSummary is the catalog view of a quiz, without its questions.
type QuizSummary struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	Topic            string     `json:"topic"`
	Subtopic         string     `json:"subtopic"`
	SortOrder        int        `json:"sortOrder"`
	QuestionCount    int        `json:"questionCount"`
	TotalPoints      int        `json:"totalPoints"`
	TimeLimitMinutes *int       `json:"timeLimit,omitempty"`
}

func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Difficulty:       q.Difficulty,
		Category:         q.Category,
		Topic:            q.Topic,
		Subtopic:         q.Subtopic,
		SortOrder:        q.SortOrder,
		QuestionCount:    len(q.Questions),
		TotalPoints:      q.TotalPoints,
		TimeLimitMinutes: q.TimeLimitMinutes,
	}
}

// PointsFor is the default weight of a question of the given difficulty.
func PointsFor(d Difficulty) int {
	switch Difficulty(strings.ToLower(string(d))) {
	case "easy":
		return 1
	case "hard":
		return 3
	}
	return 2
}

// QuizStats aggregates the stored results of a quiz.
type QuizStats struct {
	QuizID         string  `json:"quizId"`
	Attempts       int     `json:"attempts"`
	AveragePercent float64 `json:"averageScore"`
}
