package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter using an in-memory sliding window per key.
//
// Each key keeps the timestamps of its admitted requests. An admission check
// prunes timestamps older than the window, rejects if the survivors already
// reach the limit, and records the new timestamp otherwise. Rejected requests
// are not recorded, so hammering a closed window does not extend it. The
// prune-check-record sequence runs under a single mutex hold; concurrent
// bursts from the same key cannot interleave between check and record.
type MemoryLimiter struct {
	limit  int           // maximum admitted requests per window per key
	window time.Duration // sliding window length

	mu      sync.Mutex
	windows map[string][]time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter creates a sliding-window limiter that admits at most limit
// requests per window for each key.
//
// A background goroutine evicts keys with no admissions in the last 10 minutes
// to bound memory. Call Close to stop it.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string][]time.Time),
		done:    make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// Allow reports whether a request for key should proceed now.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return m.allowAt(key, time.Now()), nil
}

// allowAt is the admission decision at an explicit instant. Split out from
// Allow so tests can drive the window with a synthetic clock.
func (m *MemoryLimiter) allowAt(key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop timestamps that have slid out of the window. A timestamp exactly
	// window old no longer counts, so a retry made one full window after the
	// first admission succeeds.
	cutoff := now.Add(-m.window)
	kept := m.windows[key][:0]
	for _, ts := range m.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= m.limit {
		m.windows[key] = kept
		return false
	}

	m.windows[key] = append(kept, now)
	return true
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (m *MemoryLimiter) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

const staleThreshold = 10 * time.Minute

// cleanup periodically evicts keys that haven't been admitted recently.
func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

func (m *MemoryLimiter) evictStale() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-staleThreshold)
	for key, window := range m.windows {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(m.windows, key)
		}
	}
}
