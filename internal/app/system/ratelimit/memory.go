// internal/app/system/ratelimit/memory.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window limiter held in process memory. It is used when no
// Redis is configured, so limits are per instance.
type Memory struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// NewMemory allows limit requests per key per duration.
func NewMemory(limit int, duration time.Duration) *Memory {
	m := &Memory{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go m.cleanupLoop(duration * 2)
	return m
}

// Allow counts one request against key.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &window{expiresAt: now.Add(m.duration)}
		m.windows[key] = w
	}

	if w.count >= m.limit {
		return Decision{
			Allowed:    false,
			Limit:      m.limit,
			Remaining:  0,
			RetryAfter: w.expiresAt.Sub(now),
		}, nil
	}

	w.count++
	return Decision{Allowed: true, Limit: m.limit, Remaining: m.limit - w.count}, nil
}

// Close stops the cleanup goroutine.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for key, w := range m.windows {
				if now.After(w.expiresAt) {
					delete(m.windows, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
