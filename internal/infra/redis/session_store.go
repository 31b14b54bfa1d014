package redis

import (
	"context"
	"sync"
	"time"

	"practice-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Attempts (with their timers) live in this process; Redis holds a liveness marker per attempt
// and a per-quiz set of live attempt ids so other instances can see what is running.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	// best-effort liveness marker
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(session.ID()), session.QuizID(), s.ttl)
	pipe.SAdd(ctx, s.quizKey(session.QuizID()), session.ID())
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID()).Msg("session marker write failed")
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	if ok {
		pipe.SRem(ctx, s.quizKey(session.QuizID()), sessionID)
	}
	_, _ = pipe.Exec(ctx)
}

// Sweep abandons attempts that went stale before cutoff and clears their markers.
func (s *SessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	stale := app.StaleSessions(s.sessions, cutoff)
	for _, session := range stale {
		delete(s.sessions, session.ID())
	}
	s.mu.Unlock()
	if len(stale) == 0 {
		return 0
	}

	ctx := context.Background()
	pipe := s.client.TxPipeline()
	for _, session := range stale {
		session.Abandon()
		pipe.Del(ctx, s.key(session.ID()))
		pipe.SRem(ctx, s.quizKey(session.QuizID()), session.ID())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Int("evicted", len(stale)).Msg("session marker cleanup failed")
	}
	return len(stale)
}

// Len reports how many attempts this instance holds.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// LiveAttempts lists attempt ids recorded for a quiz across instances.
func (s *SessionStore) LiveAttempts(ctx context.Context, quizID string) ([]string, error) {
	return s.client.SMembers(ctx, s.quizKey(quizID)).Result()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}

func (s *SessionStore) quizKey(quizID string) string {
	return "quiz:" + quizID + ":sessions"
}
