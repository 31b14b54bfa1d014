package app

import (
	"context"
	"sync"
	"time"

	"practice-quiz-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// ResultSink receives finished results (HTTP endpoint, database, ...).
type ResultSink interface {
	SubmitResult(ctx context.Context, submission domain.ResultSubmission) error
}

// Reporter hands results to a sink without blocking the caller. Failures are logged and
// never retried; the locally computed result stays authoritative either way.
type Reporter struct {
	sink    ResultSink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewReporter(sink ResultSink, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reporter{sink: sink, timeout: timeout}
}

// Report submits the result in the background.
func (r *Reporter) Report(quiz domain.Quiz, userID string, result domain.QuizResult) {
	if r == nil || r.sink == nil {
		return
	}
	submission := domain.NewResultSubmission(quiz, userID, result)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.SubmitResult(ctx, submission); err != nil {
			log.Warn().Err(err).
				Str("quiz_id", quiz.ID).
				Str("session_id", result.SessionID).
				Msg("result submission failed")
			return
		}
		log.Debug().Str("quiz_id", quiz.ID).Str("session_id", result.SessionID).Msg("result submitted")
	}()
}

// Wait blocks until in-flight submissions return.
func (r *Reporter) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// assembleResult packages a scorecard into the immutable result. Time taken is capped at
// the limit when the timer forced the submission.
func assembleResult(sessionID, quizID string, card Scorecard, answers domain.Answers, startedAt, completedAt time.Time, limitSeconds int, timedOut bool) domain.QuizResult {
	taken := int(completedAt.Sub(startedAt) / time.Second)
	if taken < 0 {
		taken = 0
	}
	if timedOut && limitSeconds > 0 && taken > limitSeconds {
		taken = limitSeconds
	}
	return domain.QuizResult{
		QuizID:           quizID,
		SessionID:        sessionID,
		Score:            card.Score,
		TotalPoints:      card.TotalPoints,
		Percentage:       card.Percentage,
		CorrectAnswers:   card.CorrectAnswers,
		TotalQuestions:   card.TotalQuestions,
		TimeTakenSeconds: taken,
		TimedOut:         timedOut,
		Answers:          answers.Clone(),
		Review:           card.Review,
		CompletedAt:      completedAt,
	}
}

func cloneResult(r domain.QuizResult) domain.QuizResult {
	out := r
	out.Answers = r.Answers.Clone()
	out.Review = append([]domain.QuestionReview(nil), r.Review...)
	return out
}
