package memory

import (
	"sync"
	"time"

	"practice-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository keyed by attempt id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Sweep abandons and drops attempts that went stale before cutoff.
func (s *SessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	stale := app.StaleSessions(s.sessions, cutoff)
	for _, session := range stale {
		delete(s.sessions, session.ID())
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.Abandon()
	}
	return len(stale)
}

// Len reports how many attempts are live.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
