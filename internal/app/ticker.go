package app

import (
	"sync"
	"time"
)

// Ticker schedules a callback once per interval until the returned stop function is called.
// Stop is idempotent and must not block on an in-flight callback.
type Ticker interface {
	Start(interval time.Duration, tick func()) (stop func())
}

// WallTicker drives callbacks from time.Ticker.
type WallTicker struct{}

func (WallTicker) Start(interval time.Duration, tick func()) func() {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				tick()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// ManualTicker fires callbacks only when Advance is called. Useful for tests and simulations.
type ManualTicker struct {
	mu     sync.Mutex
	nextID int
	active map[int]func()
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{active: make(map[int]func())}
}

func (m *ManualTicker) Start(_ time.Duration, tick func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.active[id] = tick
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.active, id)
		m.mu.Unlock()
	}
}

// Advance fires every active callback n times, one round per simulated interval.
func (m *ManualTicker) Advance(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		ticks := make([]func(), 0, len(m.active))
		for _, tick := range m.active {
			ticks = append(ticks, tick)
		}
		m.mu.Unlock()
		for _, tick := range ticks {
			tick()
		}
	}
}

// Active reports how many schedules are still running.
func (m *ManualTicker) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
