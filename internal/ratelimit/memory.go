package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps in process memory.
// State is lost on restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	now     func() time.Time
}

type window struct {
	hits     []time.Time
	duration time.Duration
}

// NewMemoryLimiter creates an in-memory sliding window limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, duration time.Duration) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok {
		w = &window{}
		l.entries[key] = w
	}
	w.duration = duration
	w.prune(now)

	if len(w.hits) >= limit {
		resetAt := now.Add(duration)
		if len(w.hits) > 0 {
			resetAt = w.hits[0].Add(duration)
		}
		return Decision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	w.hits = append(w.hits, now)
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.hits),
		ResetAt:   w.hits[0].Add(duration),
	}, nil
}

// Purge drops keys without hits in their window and returns how many keys remain
func (l *MemoryLimiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.entries {
		w.prune(now)
		if len(w.hits) == 0 {
			delete(l.entries, key)
		}
	}
	return len(l.entries)
}

// Size returns the number of tracked keys
func (l *MemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.duration)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}
