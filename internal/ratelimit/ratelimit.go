// Package ratelimit counts requests per key over a sliding time window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single check-and-increment
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a blocked caller should wait
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed || !d.ResetAt.After(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// Limiter checks whether key may perform another request in window and,
// if so, records it. Callers treat errors as "allowed".
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Rule is a named request budget
type Rule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// Key builds the limiter key for a scope and client
func (r Rule) Key(client string) string {
	return "ratelimit:" + r.Scope + ":" + client
}
