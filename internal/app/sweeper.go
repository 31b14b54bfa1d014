package app

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper evicts attempts that went stale before cutoff and reports how many it dropped.
type Sweeper interface {
	Sweep(cutoff time.Time) int
}

// StartSweeper runs store.Sweep once per interval, evicting attempts idle for longer than
// retention. The returned function stops the schedule.
func StartSweeper(t Ticker, store Sweeper, interval, retention time.Duration, now func() time.Time) (stop func()) {
	if now == nil {
		now = time.Now
	}
	return t.Start(interval, func() {
		if n := store.Sweep(now().Add(-retention)); n > 0 {
			log.Debug().Int("evicted", n).Msg("stale quiz attempts swept")
		}
	})
}

// StaleSessions picks the attempts in sessions that should be evicted.
func StaleSessions(sessions map[string]*Session, cutoff time.Time) []*Session {
	var stale []*Session
	for _, session := range sessions {
		if session.Stale(cutoff) {
			stale = append(stale, session)
		}
	}
	return stale
}
