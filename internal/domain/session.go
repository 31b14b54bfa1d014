package domain

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle state of one quiz attempt.
type SessionState string

const (
	StateNotStarted SessionState = "not_started"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
)

// QuestionReview is the per-question outcome shown after completion.
type QuestionReview struct {
	QuestionID  int    `json:"questionId"`
	Answered    bool   `json:"answered"`
	Correct     bool   `json:"correct"`
	Given       Answer `json:"given"`
	Expected    Answer `json:"expected"`
	Explanation string `json:"explanation"`
	Points      int    `json:"points"`
}

// QuizResult is the immutable scored outcome of a completed attempt.
type QuizResult struct {
	QuizID           string           `json:"quizId"`
	SessionID        string           `json:"sessionId"`
	Score            int              `json:"score"`
	TotalPoints      int              `json:"totalPoints"`
	Percentage       int              `json:"percentage"`
	CorrectAnswers   int              `json:"correctAnswers"`
	TotalQuestions   int              `json:"totalQuestions"`
	TimeTakenSeconds int              `json:"timeTaken"`
	TimedOut         bool             `json:"timedOut"`
	Answers          Answers          `json:"answers"`
	Review           []QuestionReview `json:"review"`
	CompletedAt      time.Time        `json:"completedAt"`
}

// SessionSnapshot is a read-only view of an attempt for clients.
type SessionSnapshot struct {
	SessionID            string       `json:"sessionId"`
	QuizID               string       `json:"quizId"`
	UserID               string       `json:"userId,omitempty"`
	State                SessionState `json:"state"`
	CurrentQuestionIndex int          `json:"currentQuestionIndex"`
	TotalQuestions       int          `json:"totalQuestions"`
	Answers              Answers      `json:"answers"`
	Timed                bool         `json:"timed"`
	TimeRemainingSeconds int          `json:"timeRemainingSeconds"`
	TimeRemaining        string       `json:"timeRemaining,omitempty"`
	StartedAt            *time.Time   `json:"startedAt,omitempty"`
	Result               *QuizResult  `json:"result,omitempty"`
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ResultSubmission is the body posted to the result submission endpoint.
type ResultSubmission struct {
	QuizID         string  `json:"quizId"`
	UserID         string  `json:"userId,omitempty"`
	Answers        Answers `json:"answers"`
	Score          int     `json:"score"`
	Percentage     int     `json:"percentage"`
	TimeTaken      int     `json:"timeTaken"`
	CorrectAnswers int     `json:"correctAnswers,omitempty"`
	TotalQuestions int     `json:"totalQuestions,omitempty"`
	Category       string  `json:"category"`
	Topic          string  `json:"topic"`
	Subtopic       string  `json:"subtopic"`
}

// Validate checks the fields the persistence layer requires.
func (s ResultSubmission) Validate() error {
	if s.QuizID == "" {
		return fmt.Errorf("%w: quizId is required", ErrInvalidSubmission)
	}
	if s.Answers == nil {
		return fmt.Errorf("%w: answers are required", ErrInvalidSubmission)
	}
	if s.Percentage < 0 || s.Percentage > 100 {
		return fmt.Errorf("%w: percentage out of range", ErrInvalidSubmission)
	}
	return nil
}

// NewResultSubmission builds the submission body for a completed attempt.
func NewResultSubmission(quiz Quiz, userID string, result QuizResult) ResultSubmission {
	return ResultSubmission{
		QuizID:         quiz.ID,
		UserID:         userID,
		Answers:        result.Answers.Clone(),
		Score:          result.Score,
		Percentage:     result.Percentage,
		TimeTaken:      result.TimeTakenSeconds,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		Category:       quiz.Category,
		Topic:          quiz.Topic,
		Subtopic:       quiz.Subtopic,
	}
}
