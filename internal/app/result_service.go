package app

import (
	"context"

	"practice-quiz-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// ResultStore persists submitted results and returns the stored row id.
type ResultStore interface {
	SaveResult(ctx context.Context, submission domain.ResultSubmission) (int64, error)
	Stats(ctx context.Context, quizID string) (domain.QuizStats, error)
}

// ResultService backs the result submission endpoint.
type ResultService struct {
	store ResultStore
}

func NewResultService(store ResultStore) *ResultService {
	return &ResultService{store: store}
}

// Record validates and stores a submission.
func (s *ResultService) Record(ctx context.Context, submission domain.ResultSubmission) (int64, error) {
	if err := submission.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.SaveResult(ctx, submission)
	if err != nil {
		return 0, err
	}
	log.Info().Str("quiz_id", submission.QuizID).Int64("result_id", id).Int("score", submission.Score).Msg("quiz result saved")
	return id, nil
}

// SubmitResult lets the service act as the Reporter's sink when results are stored in-process.
func (s *ResultService) SubmitResult(ctx context.Context, submission domain.ResultSubmission) error {
	_, err := s.Record(ctx, submission)
	return err
}

func (s *ResultService) Stats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	return s.store.Stats(ctx, quizID)
}
