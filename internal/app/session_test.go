package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"practice-quiz-service/internal/domain"
)

func TestSessionStartOnlyOnce(t *testing.T) {
	clock := newFakeClock()
	session := NewSession("s1", threeQuestionQuiz(nil), "u1", WithClock(clock.Now))

	if !session.Start() {
		t.Fatalf("expected first start to succeed")
	}
	first := session.Snapshot().StartedAt
	clock.Advance(5 * time.Second)
	if session.Start() {
		t.Fatalf("expected second start to be a no-op")
	}
	if second := session.Snapshot().StartedAt; !first.Equal(*second) {
		t.Fatalf("start timestamp changed: %v -> %v", first, second)
	}
}

func TestSessionRejectsOperationsBeforeStart(t *testing.T) {
	session := NewSession("s1", threeQuestionQuiz(nil), "u1")

	if session.SelectAnswer(1, domain.OptionAnswer(1)) {
		t.Fatalf("answer accepted before start")
	}
	if session.Next() || session.Previous() {
		t.Fatalf("navigation accepted before start")
	}
	if _, ok := session.Submit(); ok {
		t.Fatalf("submit accepted before start")
	}
	if session.State() != domain.StateNotStarted {
		t.Fatalf("expected not_started, got %s", session.State())
	}
}

func TestSessionNavigationBoundaries(t *testing.T) {
	session := NewSession("s1", threeQuestionQuiz(nil), "u1")
	session.Start()

	if session.Previous() {
		t.Fatalf("previous at index 0 should be a no-op")
	}
	if !session.Next() || !session.Next() {
		t.Fatalf("expected to advance to the last question")
	}
	if session.Next() {
		t.Fatalf("next at last question should be a no-op")
	}
	if got := session.Snapshot().CurrentQuestionIndex; got != 2 {
		t.Fatalf("expected index 2, got %d", got)
	}
	if !session.Previous() {
		t.Fatalf("expected to go back")
	}
	if got := session.Snapshot().CurrentQuestionIndex; got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
}

func TestSessionAnswersOverwriteUntilCompleted(t *testing.T) {
	sink := &recordingSink{}
	reporter := NewReporter(sink, time.Second)
	session := NewSession("s1", threeQuestionQuiz(nil), "u1", WithReporter(reporter))
	session.Start()

	session.SelectAnswer(1, domain.OptionAnswer(0))
	session.SelectAnswer(1, domain.OptionAnswer(1))
	session.SelectAnswer(1, domain.OptionAnswer(1))
	session.SelectAnswer(2, domain.BoolAnswer(false))
	session.SelectAnswer(3, domain.TextAnswer(" 42 "))

	result, ok := session.Submit()
	if !ok {
		t.Fatalf("expected submit to complete the attempt")
	}
	if result.Score != 15 || result.Percentage != 75 || result.CorrectAnswers != 2 || result.TotalQuestions != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if session.SelectAnswer(2, domain.BoolAnswer(true)) {
		t.Fatalf("answer accepted after completion")
	}
	if session.Next() || session.Previous() || session.Start() {
		t.Fatalf("mutation accepted after completion")
	}
	stored, _ := session.Result()
	if stored.Answers[2].Bool {
		t.Fatalf("answers changed after completion")
	}

	reporter.Wait()
	if got := sink.count(); got != 1 {
		t.Fatalf("expected one submission, got %d", got)
	}
	sub := sink.last()
	if sub.QuizID != "quiz-1" || sub.Score != 15 || sub.Category != "programming" || sub.Subtopic != "basics" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestSessionSubmitTwiceProducesOneResult(t *testing.T) {
	sink := &recordingSink{}
	reporter := NewReporter(sink, time.Second)
	session := NewSession("s1", threeQuestionQuiz(nil), "u1", WithReporter(reporter))
	session.Start()
	session.SelectAnswer(1, domain.OptionAnswer(1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := session.Submit(); ok {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	reporter.Wait()

	if transitions != 1 {
		t.Fatalf("expected exactly one transition, got %d", transitions)
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly one reported result, got %d", sink.count())
	}
	again, ok := session.Submit()
	if ok || again.Score != 10 {
		t.Fatalf("second submit should return the stored result without transitioning, got %+v ok=%v", again, ok)
	}
}

func TestSessionTimerForcesSubmission(t *testing.T) {
	ticker := NewManualTicker()
	clock := newFakeClock()
	limit := 1
	session := NewSession("s1", threeQuestionQuiz(&limit), "u1", WithTicker(ticker), WithClock(clock.Now))

	session.Start()
	if snap := session.Snapshot(); snap.TimeRemainingSeconds != 60 || snap.TimeRemaining != "1:00" {
		t.Fatalf("unexpected countdown: %+v", snap)
	}
	session.SelectAnswer(1, domain.OptionAnswer(1))

	for i := 0; i < 59; i++ {
		clock.Advance(time.Second)
		ticker.Advance(1)
	}
	if session.State() != domain.StateInProgress {
		t.Fatalf("expected attempt still running after 59s")
	}
	if snap := session.Snapshot(); snap.TimeRemaining != "0:01" {
		t.Fatalf("expected 0:01 remaining, got %s", snap.TimeRemaining)
	}

	clock.Advance(2 * time.Second)
	ticker.Advance(1)
	if session.State() != domain.StateCompleted {
		t.Fatalf("expected timer to complete the attempt")
	}
	result, _ := session.Result()
	if !result.TimedOut || result.TimeTakenSeconds != 60 || result.Score != 10 {
		t.Fatalf("unexpected forced result: %+v", result)
	}
	if ticker.Active() != 0 {
		t.Fatalf("expected timer stopped, %d still active", ticker.Active())
	}
}

func TestSessionManualSubmitStopsTimer(t *testing.T) {
	ticker := NewManualTicker()
	limit := 2
	session := NewSession("s1", threeQuestionQuiz(&limit), "u1", WithTicker(ticker))
	session.Start()
	ticker.Advance(10)

	if _, ok := session.Submit(); !ok {
		t.Fatalf("expected manual submit")
	}
	if ticker.Active() != 0 {
		t.Fatalf("expected timer cancelled on submit")
	}
	remaining := session.Snapshot().TimeRemainingSeconds
	ticker.Advance(200)
	if got := session.Snapshot().TimeRemainingSeconds; got != remaining {
		t.Fatalf("countdown moved after completion: %d -> %d", remaining, got)
	}
	if result, _ := session.Result(); result.TimedOut {
		t.Fatalf("manual submit must not be flagged as timed out")
	}
}

func TestSessionIgnoresStaleTicks(t *testing.T) {
	limit := 1
	var captured func()
	ticker := tickerFunc(func(_ time.Duration, tick func()) func() {
		captured = tick
		return func() {}
	})
	session := NewSession("s1", threeQuestionQuiz(&limit), "u1", WithTicker(ticker))
	session.Start()
	session.Abandon()

	for i := 0; i < 120; i++ {
		captured()
	}
	if session.State() != domain.StateInProgress {
		t.Fatalf("stale ticks must not complete an abandoned attempt, got %s", session.State())
	}
	if _, ok := session.Result(); ok {
		t.Fatalf("abandoned attempt should have no result")
	}
	if session.SelectAnswer(1, domain.OptionAnswer(1)) {
		t.Fatalf("abandoned attempt accepted an answer")
	}
}

func TestSessionUntimedHasNoTimer(t *testing.T) {
	ticker := NewManualTicker()
	session := NewSession("s1", threeQuestionQuiz(nil), "u1", WithTicker(ticker))
	session.Start()
	if ticker.Active() != 0 {
		t.Fatalf("untimed quiz should not arm a timer")
	}
	if snap := session.Snapshot(); snap.Timed || snap.TimeRemaining != "" {
		t.Fatalf("unexpected countdown for untimed quiz: %+v", snap)
	}
}

func TestSessionSubmissionFailureKeepsResult(t *testing.T) {
	sink := &recordingSink{err: errors.New("backend down")}
	reporter := NewReporter(sink, time.Second)
	session := NewSession("s1", threeQuestionQuiz(nil), "u1", WithReporter(reporter))
	session.Start()
	session.SelectAnswer(3, domain.TextAnswer("42"))

	result, ok := session.Submit()
	reporter.Wait()
	if !ok || result.Score != 5 {
		t.Fatalf("expected local result despite sink failure, got %+v", result)
	}
	if stored, ok := session.Result(); !ok || stored.Score != 5 {
		t.Fatalf("expected stored result, got %+v", stored)
	}
	if sink.count() != 1 {
		t.Fatalf("expected a single attempt without retry, got %d", sink.count())
	}
}

func TestSessionSubscribeReceivesUpdates(t *testing.T) {
	session := NewSession("s1", threeQuestionQuiz(nil), "u1")
	ch, cancel := session.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.State != domain.StateNotStarted {
		t.Fatalf("expected initial not_started snapshot, got %s", initial.State)
	}
	session.Start()
	update := <-ch
	if update.State != domain.StateInProgress {
		t.Fatalf("expected in_progress update, got %s", update.State)
	}
}

func TestSessionResultIsImmutable(t *testing.T) {
	session := NewSession("s1", threeQuestionQuiz(nil), "u1")
	session.Start()
	session.SelectAnswer(1, domain.OptionAnswer(1))
	result, _ := session.Submit()

	result.Answers[1] = domain.OptionAnswer(0)
	result.Review[0].Correct = false

	stored, _ := session.Result()
	if stored.Answers[1].Option != 1 || !stored.Review[0].Correct {
		t.Fatalf("stored result was mutated through a returned copy: %+v", stored)
	}
}

func TestSessionSubscribeSnapshotsStayOrdered(t *testing.T) {
	limit := 10
	for i := 0; i < 50; i++ {
		ticker := NewManualTicker()
		session := NewSession("s1", threeQuestionQuiz(&limit), "u1", WithTicker(ticker))
		session.Start()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker.Advance(20)
		}()
		ch, cancel := session.Subscribe()
		wg.Wait()

		last := limit*60 + 1
		for drained := false; !drained; {
			select {
			case snap := <-ch:
				if snap.TimeRemainingSeconds > last {
					t.Fatalf("snapshot went back in time: %d after %d", snap.TimeRemainingSeconds, last)
				}
				last = snap.TimeRemainingSeconds
			default:
				drained = true
			}
		}
		if last != limit*60-20 {
			t.Fatalf("expected latest snapshot at %d, got %d", limit*60-20, last)
		}
		cancel()
	}
}

func TestSessionStale(t *testing.T) {
	clock := newFakeClock()
	limit := 1
	untimed := NewSession("s1", threeQuestionQuiz(nil), "u1", WithClock(clock.Now))
	timed := NewSession("s2", threeQuestionQuiz(&limit), "u1", WithClock(clock.Now), WithTicker(NewManualTicker()))
	timed.Start()
	untimed.Start()

	clock.Advance(time.Hour)
	cutoff := clock.Now().Add(-30 * time.Minute)
	if !untimed.Stale(cutoff) {
		t.Fatalf("expected idle untimed attempt to be stale")
	}
	if timed.Stale(cutoff) {
		t.Fatalf("running timed attempt must not be stale")
	}
	untimed.Next()
	if untimed.Stale(cutoff) {
		t.Fatalf("activity should refresh the attempt")
	}
	timed.Abandon()
	if !timed.Stale(clock.Now()) {
		t.Fatalf("abandoned attempt should always be stale")
	}
}

type tickerFunc func(time.Duration, func()) func()

func (f tickerFunc) Start(interval time.Duration, tick func()) func() { return f(interval, tick) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSink struct {
	mu          sync.Mutex
	err         error
	submissions []domain.ResultSubmission
}

func (s *recordingSink) SubmitResult(_ context.Context, submission domain.ResultSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, submission)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

func (s *recordingSink) last() domain.ResultSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions[len(s.submissions)-1]
}
