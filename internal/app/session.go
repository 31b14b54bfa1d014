package app

import (
	"sync"
	"time"

	"practice-quiz-service/internal/domain"
)

// Session is one user's attempt at a quiz. Every mutating operation checks the state and
// mutates under the same lock, so a manual submit racing a timer expiry transitions once.
// Calls made in the wrong state are silent no-ops and report false.
type Session struct {
	id       string
	userID   string
	quiz     domain.Quiz
	now      func() time.Time
	ticker   Ticker
	reporter *Reporter

	mu          sync.Mutex
	state       domain.SessionState
	closed      bool
	index       int
	answers     domain.Answers
	startedAt   time.Time
	touched     time.Time
	remaining   int
	stopTimer   func()
	timerGen    uint64
	result      *domain.QuizResult
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now, mainly for deterministic timestamps in tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithTicker replaces the wall-clock ticker driving the countdown.
func WithTicker(t Ticker) SessionOption {
	return func(s *Session) { s.ticker = t }
}

// WithReporter sets where completed results are submitted.
func WithReporter(r *Reporter) SessionOption {
	return func(s *Session) { s.reporter = r }
}

// NewSession creates an attempt in the not_started state. The quiz is treated as
// read-only and is expected to have passed Validate.
func NewSession(id string, quiz domain.Quiz, userID string, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		now:         time.Now,
		ticker:      WallTicker{},
		state:       domain.StateNotStarted,
		answers:     make(domain.Answers),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.touched = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) QuizID() string { return s.quiz.ID }

func (s *Session) UserID() string { return s.userID }

// Quiz returns the quiz definition the attempt runs against.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves not_started to in_progress and arms the countdown for timed quizzes.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.StateNotStarted {
		return false
	}
	s.state = domain.StateInProgress
	s.startedAt = s.now()
	s.index = 0
	if s.quiz.Timed() {
		s.remaining = s.quiz.TimeLimitSeconds()
		s.timerGen++
		gen := s.timerGen
		s.stopTimer = s.ticker.Start(time.Second, func() { s.tick(gen) })
	}
	s.broadcastLocked()
	return true
}

// SelectAnswer stores or overwrites the answer for a question. The value is not checked
// against the question type here; scoring resolves it.
func (s *Session) SelectAnswer(questionID int, value domain.Answer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.StateInProgress {
		return false
	}
	if prev, ok := s.answers[questionID]; ok && prev.Equal(value) {
		return true
	}
	s.answers[questionID] = value
	s.broadcastLocked()
	return true
}

func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.StateInProgress || s.index >= len(s.quiz.Questions)-1 {
		return false
	}
	s.index++
	s.broadcastLocked()
	return true
}

func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.StateInProgress || s.index <= 0 {
		return false
	}
	s.index--
	s.broadcastLocked()
	return true
}

// Submit completes the attempt, scores it and hands the result to the reporter. Only the
// first call made while in_progress does this; later calls return the stored result and false.
func (s *Session) Submit() (domain.QuizResult, bool) {
	s.mu.Lock()
	result := s.submitLocked(false)
	if result == nil {
		var existing domain.QuizResult
		if s.result != nil {
			existing = cloneResult(*s.result)
		}
		s.mu.Unlock()
		return existing, false
	}
	s.broadcastLocked()
	out := cloneResult(*result)
	s.mu.Unlock()

	s.reporter.Report(s.quiz, s.userID, out)
	return out, true
}

// Abandon tears the attempt down: the countdown stops and subscribers are released.
// Any callback still in flight for this attempt is ignored afterwards.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Result returns the scored outcome once the attempt is completed.
func (s *Session) Result() (domain.QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.QuizResult{}, false
	}
	return cloneResult(*s.result), true
}

// Snapshot returns a copy of the current attempt state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change, starting with the
// current one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// buffer is empty, so this cannot block; broadcasts queue behind it
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Stale reports whether the attempt can be evicted: it was abandoned, or it has seen no
// change since cutoff and no countdown is going to finish it. Timed attempts in progress
// are never stale.
func (s *Session) Stale(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	if s.state == domain.StateInProgress && s.quiz.Timed() {
		return false
	}
	return s.touched.Before(cutoff)
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen || s.state != domain.StateInProgress {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	var result *domain.QuizResult
	if s.remaining == 0 {
		result = s.submitLocked(true)
	}
	s.broadcastLocked()
	var out domain.QuizResult
	if result != nil {
		out = cloneResult(*result)
	}
	s.mu.Unlock()

	if result != nil {
		s.reporter.Report(s.quiz, s.userID, out)
	}
}

func (s *Session) submitLocked(timedOut bool) *domain.QuizResult {
	if s.closed || s.state != domain.StateInProgress {
		return nil
	}
	s.state = domain.StateCompleted
	s.cancelTimerLocked()

	card := Score(s.quiz, s.answers)
	result := assembleResult(s.id, s.quiz.ID, card, s.answers, s.startedAt, s.now(), s.quiz.TimeLimitSeconds(), timedOut)
	s.result = &result
	return s.result
}

func (s *Session) cancelTimerLocked() {
	s.timerGen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Session) broadcastLocked() {
	s.touched = s.now()
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its oldest pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:            s.id,
		QuizID:               s.quiz.ID,
		UserID:               s.userID,
		State:                s.state,
		CurrentQuestionIndex: s.index,
		TotalQuestions:       len(s.quiz.Questions),
		Answers:              s.answers.Clone(),
		Timed:                s.quiz.Timed(),
	}
	if snap.Timed {
		snap.TimeRemainingSeconds = s.remaining
		if s.state == domain.StateNotStarted {
			snap.TimeRemainingSeconds = s.quiz.TimeLimitSeconds()
		}
		snap.TimeRemaining = domain.FormatClock(snap.TimeRemainingSeconds)
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		snap.StartedAt = &started
	}
	if s.result != nil {
		result := cloneResult(*s.result)
		snap.Result = &result
	}
	return snap
}
