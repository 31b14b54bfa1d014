package memory

import (
	"context"
	"sync"

	"practice-quiz-service/internal/domain"
)

// ResultStore keeps submitted results in memory.
type ResultStore struct {
	mu      sync.Mutex
	nextID  int64
	results map[int64]domain.ResultSubmission
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[int64]domain.ResultSubmission)}
}

func (s *ResultStore) SaveResult(_ context.Context, submission domain.ResultSubmission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	submission.Answers = submission.Answers.Clone()
	s.results[s.nextID] = submission
	return s.nextID, nil
}

// Results returns stored submissions for a quiz in insertion order.
func (s *ResultStore) Results(quizID string) []domain.ResultSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ResultSubmission, 0)
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.results[id]; ok && r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out
}

// Stats averages the stored percentages of a quiz.
func (s *ResultStore) Stats(_ context.Context, quizID string) (domain.QuizStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.QuizStats{QuizID: quizID}
	total := 0
	for _, r := range s.results {
		if r.QuizID == quizID {
			stats.Attempts++
			total += r.Percentage
		}
	}
	if stats.Attempts > 0 {
		stats.AveragePercent = float64(total) / float64(stats.Attempts)
	}
	return stats, nil
}
