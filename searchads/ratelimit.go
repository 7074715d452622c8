package searchads

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRequestsPerWindow is the client-side request ceiling
	DefaultRequestsPerWindow = 10
	// DefaultRateWindow is the trailing window the ceiling applies to
	DefaultRateWindow = time.Second
)

// RateLimiter is a sliding-window limiter: at most limit requests are admitted
// in any trailing window. It applies to every request of one client regardless
// of endpoint.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	stamps []time.Time
}

// NewRateLimiter creates a limiter admitting limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerWindow
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
		stamps: make([]time.Time, 0, limit),
	}
}

// Wait blocks until a request may be sent and records it. It returns the total
// time spent waiting.
func (l *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return waited, nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return waited, err
		}
		waited += wait
	}
}

// InFlight returns how many requests were admitted in the current window
func (l *RateLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops timestamps that have left the window. Caller holds mu.
func (l *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
