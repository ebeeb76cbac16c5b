// Package ratelimit enforces a minimum inter-request delay per host,
// grounded on original_source/webcrawler/src/rate_limiter.rs.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// DefaultMinDelay is the default minimum gap between dispatches to the same
// host, per spec.md §4.5.
const DefaultMinDelay = time.Second

// Limiter tracks the last dispatch instant per host.
type Limiter struct {
	minDelay time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// New returns a Limiter enforcing minDelay between dispatches to the same
// host. A zero minDelay uses DefaultMinDelay.
func New(minDelay time.Duration) *Limiter {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &Limiter{
		minDelay: minDelay,
		last:     make(map[string]time.Time),
	}
}

// WaitIfNeeded blocks, if necessary, until at least minDelay has elapsed
// since the last dispatch to rawURL's host. If rawURL has no host, it
// returns immediately. The lock-release-sleep-reacquire pattern means two
// concurrent callers for the same host may both observe elapsed >= minDelay
// and proceed in close succession — acceptable per spec.md §4.5: the
// contract is "approximately one per second per host," not a hard barrier.
func (l *Limiter) WaitIfNeeded(ctx context.Context, rawURL string) error {
	host := extractHost(rawURL)
	if host == "" {
		return nil
	}

	l.mu.Lock()
	last, ok := l.last[host]
	now := time.Now()
	if !ok {
		l.last[host] = now
		l.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= l.minDelay {
		l.last[host] = now
		l.mu.Unlock()
		return nil
	}

	sleep := l.minDelay - elapsed
	l.mu.Unlock()

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	l.last[host] = time.Now()
	l.mu.Unlock()
	return nil
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
