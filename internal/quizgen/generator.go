package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/codecheck"
	"practice-quiz-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrMissingLocation is returned when a request does not name a full catalog location.
var ErrMissingLocation = errors.New("category, topic, subtopic and sortOrder are required")

const defaultTimeLimit = 30

const authorRole = "You are an experienced instructor writing practice quizzes. Respond with ONLY a JSON object."

// QuizWriter persists a generated quiz.
type QuizWriter interface {
	UpsertQuiz(ctx context.Context, quiz domain.Quiz) error
}

// Invalidator drops a cached copy of a quiz.
type Invalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// Request names the catalog slot a quiz is generated for.
type Request struct {
	Category  string `json:"category"`
	Topic     string `json:"topic"`
	Subtopic  string `json:"subtopic"`
	SortOrder *int   `json:"sortOrder"`
}

func (r Request) filter() domain.QuizFilter {
	return domain.QuizFilter{Category: r.Category, Topic: r.Topic, Subtopic: r.Subtopic, SortOrder: r.SortOrder}
}

// Generator asks an AI provider for a quiz and stores it at an empty catalog slot.
type Generator struct {
	provider codecheck.Provider
	finder   app.QuizFinder
	writer   QuizWriter
	caches   []Invalidator
}

// NewGenerator accepts a nil provider; Generate then fails with codecheck.ErrUnavailable.
func NewGenerator(provider codecheck.Provider, finder app.QuizFinder, writer QuizWriter, caches ...Invalidator) *Generator {
	return &Generator{provider: provider, finder: finder, writer: writer, caches: caches}
}

// Generate creates, validates and stores a quiz for the requested slot. A slot that already
// holds a quiz yields domain.ErrQuizExists. Unusable provider output falls back to a
// single-question placeholder quiz.
func (g *Generator) Generate(ctx context.Context, req Request) (domain.Quiz, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.Topic = strings.TrimSpace(req.Topic)
	req.Subtopic = strings.TrimSpace(req.Subtopic)
	if req.Category == "" || req.Topic == "" || req.Subtopic == "" || req.SortOrder == nil {
		return domain.Quiz{}, ErrMissingLocation
	}
	existing, err := g.finder.FindQuizzes(ctx, req.filter())
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(existing) > 0 {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizExists, existing[0].ID)
	}
	if g.provider == nil {
		return domain.Quiz{}, codecheck.ErrUnavailable
	}

	text, err := g.provider.Complete(ctx, authorRole, generationPrompt(req))
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("generate quiz: %w", err)
	}
	quiz, ok := parseQuiz(text, req)
	if !ok {
		log.Warn().Str("provider", g.provider.Name()).Str("topic", req.Topic).Msg("generated quiz unusable, storing placeholder")
		quiz = placeholderQuiz(req)
	}

	quiz = quiz.Normalize()
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if err := g.writer.UpsertQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	for _, cache := range g.caches {
		if err := cache.Invalidate(ctx, quiz.ID); err != nil {
			log.Warn().Err(err).Str("quiz_id", quiz.ID).Msg("quiz cache invalidation failed")
		}
	}
	log.Info().Str("quiz_id", quiz.ID).Int("questions", len(quiz.Questions)).Msg("quiz generated")
	return quiz, nil
}

// QuizID is the stable id of the quiz at a catalog slot.
func QuizID(category, topic, subtopic string, sortOrder int) string {
	slug := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return '-'
		}, strings.TrimSpace(s))
	}
	return fmt.Sprintf("%s-%s-%s-%d", slug(category), slug(topic), slug(subtopic), sortOrder)
}

func generationPrompt(req Request) string {
	return fmt.Sprintf(`Generate a quiz for the topic %q in the %q category, focusing on %q.

Create 10-15 questions:
- 5-7 multiple choice questions (type "mcq")
- 2-3 true/false questions (type "true_false")
- 2-3 logical thinking questions with options (type "logical_thinking")
- 1-2 fill in the blank questions (type "fill_blank")

Give every question a difficulty of easy, medium or hard and points of 1, 2 or 3 to match.
Questions should be practical and progressively harder.

Respond with JSON shaped like:
{
  "title": "Quiz title",
  "description": "Quiz description",
  "time_limit": 30,
  "questions": [
    {
      "type": "mcq",
      "question": "Question text?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": "Option A",
      "explanation": "Why the answer is right",
      "difficulty": "easy",
      "points": 1
    }
  ]
}`, req.Topic, req.Category, req.Subtopic)
}

type rawQuiz struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	TimeLimit   int           `json:"time_limit"`
	Questions   []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Type          string          `json:"type"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	Difficulty    string          `json:"difficulty"`
	Points        int             `json:"points"`
}

// parseQuiz maps provider output onto a quiz at the requested slot. Questions whose type or
// answer cannot be understood are dropped; no usable question means no quiz.
func parseQuiz(text string, req Request) (domain.Quiz, bool) {
	var raw rawQuiz
	if err := json.Unmarshal([]byte(codecheck.ExtractJSON(text)), &raw); err != nil {
		return domain.Quiz{}, false
	}
	quiz := baseQuiz(req, raw.Title, raw.Description, raw.TimeLimit)
	for _, rq := range raw.Questions {
		question, ok := convertQuestion(rq)
		if !ok {
			log.Debug().Str("type", rq.Type).Str("question", rq.Question).Msg("dropping generated question")
			continue
		}
		question.ID = len(quiz.Questions) + 1
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, len(quiz.Questions) > 0
}

func convertQuestion(rq rawQuestion) (domain.Question, bool) {
	question := domain.Question{
		Type:        questionType(rq.Type),
		Prompt:      strings.TrimSpace(rq.Question),
		Explanation: rq.Explanation,
		Difficulty:  difficulty(rq.Difficulty),
		Points:      rq.Points,
	}
	if question.Prompt == "" {
		return domain.Question{}, false
	}
	if question.Points <= 0 {
		question.Points = domain.PointsFor(question.Difficulty)
	}

	var value interface{}
	if err := json.Unmarshal(rq.CorrectAnswer, &value); err != nil {
		return domain.Question{}, false
	}
	switch question.Type {
	case domain.QuestionMCQ, domain.QuestionLogicalThinking:
		if len(rq.Options) == 0 {
			return domain.Question{}, false
		}
		idx, ok := optionIndex(rq.Options, value)
		if !ok {
			return domain.Question{}, false
		}
		question.Options = rq.Options
		question.CorrectAnswer = domain.OptionAnswer(idx)
	case domain.QuestionTrueFalse:
		switch v := value.(type) {
		case bool:
			question.CorrectAnswer = domain.BoolAnswer(v)
		case string:
			b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
			if err != nil {
				return domain.Question{}, false
			}
			question.CorrectAnswer = domain.BoolAnswer(b)
		default:
			return domain.Question{}, false
		}
	case domain.QuestionFillBlank:
		switch v := value.(type) {
		case string:
			question.CorrectAnswer = domain.TextAnswer(v)
		case []interface{}:
			if len(v) == 0 {
				return domain.Question{}, false
			}
			question.CorrectAnswer = domain.TextAnswer(fmt.Sprint(v[0]))
		case float64:
			question.CorrectAnswer = domain.TextAnswer(strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return domain.Question{}, false
		}
	default:
		return domain.Question{}, false
	}
	return question, true
}

// optionIndex resolves an answer given as an index, the option text or an option letter.
func optionIndex(options []string, value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		idx := int(v)
		return idx, float64(idx) == v && idx >= 0 && idx < len(options)
	case string:
		want := strings.TrimSpace(v)
		for i, option := range options {
			if strings.EqualFold(strings.TrimSpace(option), want) {
				return i, true
			}
		}
		if len(want) == 1 {
			idx := int(unicode.ToUpper(rune(want[0])) - 'A')
			if idx >= 0 && idx < len(options) {
				return idx, true
			}
		}
		if idx, err := strconv.Atoi(want); err == nil && idx >= 0 && idx < len(options) {
			return idx, true
		}
	}
	return 0, false
}

func questionType(raw string) domain.QuestionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mcq", "multiple_choice":
		return domain.QuestionMCQ
	case "true_false", "truefalse":
		return domain.QuestionTrueFalse
	case "logical_thinking", "logical":
		return domain.QuestionLogicalThinking
	case "fill_blank", "fill_blanks":
		return domain.QuestionFillBlank
	}
	return domain.QuestionType(raw)
}

func difficulty(raw string) domain.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return domain.DifficultyEasy
	case "hard":
		return domain.DifficultyHard
	}
	return domain.DifficultyMedium
}

func baseQuiz(req Request, title, description string, limit int) domain.Quiz {
	if title == "" {
		title = req.Subtopic + " Quiz"
	}
	if description == "" {
		description = fmt.Sprintf("A quiz on %s in %s", req.Subtopic, req.Topic)
	}
	if limit <= 0 {
		limit = defaultTimeLimit
	}
	return domain.Quiz{
		ID:               QuizID(req.Category, req.Topic, req.Subtopic, *req.SortOrder),
		Title:            title,
		Description:      description,
		TimeLimitMinutes: &limit,
		Category:         req.Category,
		Topic:            req.Topic,
		Subtopic:         req.Subtopic,
		SortOrder:        *req.SortOrder,
		AIGenerated:      true,
	}
}

func placeholderQuiz(req Request) domain.Quiz {
	quiz := baseQuiz(req, "", fmt.Sprintf("A comprehensive quiz on %s in %s", req.Subtopic, req.Topic), defaultTimeLimit)
	quiz.Questions = []domain.Question{{
		ID:            1,
		Type:          domain.QuestionMCQ,
		Prompt:        fmt.Sprintf("What is a key concept in %s?", req.Subtopic),
		Options:       []string{"Option A", "Option B", "Option C", "Option D"},
		CorrectAnswer: domain.OptionAnswer(0),
		Explanation:   "This is a basic explanation.",
		Difficulty:    domain.DifficultyMedium,
		Points:        2,
	}}
	return quiz
}
