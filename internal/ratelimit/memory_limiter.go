package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type window struct {
	attempts []time.Time
}

// MemoryLimiter is the in-memory Limiter used when no Redis is configured,
// which is the common single-process deployment of the session service.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[string]*window),
		log:     log,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, windowSize time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-windowSize)

	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.windows[key]
	if win == nil {
		win = &window{}
		m.windows[key] = win
	}

	win.attempts = keepRecent(win.attempts, windowStart)
	count := len(win.attempts)

	allowed := count < limit
	if allowed {
		win.attempts = append(win.attempts, now)
		count++
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(windowSize),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Cleanup removes windows that have been inactive for more than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, win := range m.windows {
		if len(win.attempts) == 0 {
			delete(m.windows, key)
			continue
		}

		if win.attempts[len(win.attempts)-1].Before(cutoff) {
			delete(m.windows, key)
		}
	}
}

// RunCleaner periodically evicts idle windows until ctx is cancelled.
func (m *MemoryLimiter) RunCleaner(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup(maxAge)
		}
	}
}

func keepRecent(attempts []time.Time, cutoff time.Time) []time.Time {
	kept := attempts[:0]
	for _, at := range attempts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	return kept
}
