package fetch

import (
	"context"
	"time"
)

// Limiter spaces successive requests of one kind by a fixed interval. The
// scraper is strictly sequential, so a since-last-call pacer is all the
// throttling the portal ever sees; swap the interval per call class (page,
// detail, comment) rather than computing a backoff.
type Limiter struct {
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter allowing one call per interval. A zero or
// negative interval disables pacing.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the interval has elapsed since the previous Wait
// returned. The first call never blocks. Returns early with the context's
// error when ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return nil
	}
	if !l.last.IsZero() {
		remaining := l.interval - time.Since(l.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	l.last = time.Now()
	return nil
}
