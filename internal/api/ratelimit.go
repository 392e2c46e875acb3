package api

import (
	"sync"
	"time"
)

// rateLimiter is a per-IP sliding-window request limiter. Timestamps are
// pruned lazily on each check, so idle IPs cost nothing after one window.
type rateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time // overridable for tests
}

func newRateLimiter(window time.Duration, max int) *rateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 1000
	}
	return &rateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// allow records a request for the given IP and reports whether it is within
// the window budget.
func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// Idle IPs never re-enter allow, so their entries are swept out once
	// per window to keep the map bounded.
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	recent := l.hits[ip][:0]
	for _, t := range l.hits[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.hits[ip] = recent
		return false
	}

	l.hits[ip] = append(recent, now)
	return true
}

// sweep drops IPs whose hits have all aged past the cutoff.
func (l *rateLimiter) sweep(cutoff time.Time) {
	for ip, times := range l.hits {
		idle := true
		for _, t := range times {
			if t.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(l.hits, ip)
		}
	}
}
