package app

import (
	"context"
	"fmt"
	"time"

	"practice-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionRepository abstracts how live attempts are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizFinder lists quizzes at a catalog location.
type QuizFinder interface {
	FindQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizSummary, error)
}

// QuizService contains the quiz attempt use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	finder   QuizFinder
	reporter *Reporter
	ticker   Ticker
	now      func() time.Time
	newID    func() string
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

// WithServiceTicker sets the ticker handed to every new attempt.
func WithServiceTicker(t Ticker) ServiceOption {
	return func(s *QuizService) { s.ticker = t }
}

// WithServiceClock sets the clock handed to every new attempt.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

// WithQuizFinder enables catalog lookups.
func WithQuizFinder(f QuizFinder) ServiceOption {
	return func(s *QuizService) { s.finder = f }
}

// WithIDGenerator replaces the UUID attempt id generator.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *QuizService) { s.newID = gen }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, reporter *Reporter, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		reporter: reporter,
		ticker:   WallTicker{},
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadQuiz fetches a quiz and checks its load-time invariants.
func (s *QuizService) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz = quiz.Normalize()
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// FindQuizzes lists the catalog. Without a finder the catalog is empty.
func (s *QuizService) FindQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizSummary, error) {
	if s.finder == nil {
		return []domain.QuizSummary{}, nil
	}
	return s.finder.FindQuizzes(ctx, filter)
}

// QuizAt loads the quiz stored at a catalog slot. The first match in catalog order wins.
func (s *QuizService) QuizAt(ctx context.Context, filter domain.QuizFilter) (domain.Quiz, error) {
	found, err := s.FindQuizzes(ctx, filter)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(found) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.LoadQuiz(ctx, found[0].ID)
}

// Begin creates a new attempt in the not_started state. A quiz that cannot be loaded
// yields no attempt.
func (s *QuizService) Begin(ctx context.Context, quizID, userID string) (domain.SessionSnapshot, error) {
	quiz, err := s.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	session := s.newSession(quiz, userID)
	s.sessions.Save(session)
	log.Info().Str("quiz_id", quizID).Str("session_id", session.ID()).Msg("quiz attempt created")
	return session.Snapshot(), nil
}

// Retake abandons an attempt and replaces it with a fresh one for the same quiz and user.
// The old attempt's timer callbacks cannot reach the new one.
func (s *QuizService) Retake(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	old, err := s.Session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	old.Abandon()
	s.sessions.Delete(sessionID)

	session := s.newSession(old.Quiz(), old.UserID())
	s.sessions.Save(session)
	log.Info().Str("quiz_id", old.QuizID()).Str("session_id", session.ID()).Str("previous_session_id", sessionID).Msg("quiz attempt retaken")
	return session.Snapshot(), nil
}

// Session returns a live attempt.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *QuizService) Snapshot(sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *QuizService) Start(sessionID string) (domain.SessionSnapshot, error) {
	return s.apply(sessionID, func(session *Session) { session.Start() })
}

// SelectAnswer records an answer. Unknown question IDs are rejected before they reach the session.
func (s *QuizService) SelectAnswer(sessionID string, questionID int, answer domain.Answer) (domain.SessionSnapshot, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if _, ok := session.Quiz().Question(questionID); !ok {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: %d", domain.ErrQuestionNotFound, questionID)
	}
	session.SelectAnswer(questionID, answer)
	return session.Snapshot(), nil
}

func (s *QuizService) Next(sessionID string) (domain.SessionSnapshot, error) {
	return s.apply(sessionID, func(session *Session) { session.Next() })
}

func (s *QuizService) Previous(sessionID string) (domain.SessionSnapshot, error) {
	return s.apply(sessionID, func(session *Session) { session.Previous() })
}

func (s *QuizService) Submit(sessionID string) (domain.SessionSnapshot, error) {
	return s.apply(sessionID, func(session *Session) {
		if result, ok := session.Submit(); ok {
			log.Info().
				Str("quiz_id", session.QuizID()).
				Str("session_id", sessionID).
				Int("score", result.Score).
				Int("percentage", result.Percentage).
				Msg("quiz attempt submitted")
		}
	})
}

// Result returns the outcome of a completed attempt.
func (s *QuizService) Result(sessionID string) (domain.QuizResult, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	result, ok := session.Result()
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotReady
	}
	return result, nil
}

// Abandon stops the attempt's timer and forgets it.
func (s *QuizService) Abandon(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Abandon()
	s.sessions.Delete(sessionID)
}

// Subscribe returns a channel that receives snapshots of an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

func (s *QuizService) apply(sessionID string, op func(*Session)) (domain.SessionSnapshot, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	op(session)
	return session.Snapshot(), nil
}

func (s *QuizService) newSession(quiz domain.Quiz, userID string) *Session {
	return NewSession(s.newID(), quiz, userID,
		WithClock(s.now),
		WithTicker(s.ticker),
		WithReporter(s.reporter),
	)
}
