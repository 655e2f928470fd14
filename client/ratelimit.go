package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SlidingWindowLimiter bounds outbound calls to at most limit calls within the
// trailing window, re-evaluated continuously rather than on fixed ticks. It is
// a scheduling gate only: Admit blocks, RecordCall timestamps a completed call,
// and neither can fail except through context cancellation.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	logger *zap.Logger
}

// NewSlidingWindowLimiter creates a limiter allowing limit calls per window.
func NewSlidingWindowLimiter(limit int, window time.Duration, logger *zap.Logger) *SlidingWindowLimiter {
	if limit < 1 {
		limit = 1
	}
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Admit blocks until issuing one more call would not exceed the limit within
// the trailing window. It may suspend the caller for up to one full window.
func (l *SlidingWindowLimiter) Admit(ctx context.Context) error {
	for {
		now := time.Now()

		l.mu.Lock()
		l.prune(now)
		if len(l.calls) < l.limit {
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		l.logger.Info("rate limit reached, waiting", zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RecordCall timestamps a completed call. The budget is consumed whether the
// call succeeded or failed.
func (l *SlidingWindowLimiter) RecordCall() {
	now := time.Now()
	l.mu.Lock()
	l.prune(now)
	l.calls = append(l.calls, now)
	l.mu.Unlock()
}

// prune drops timestamps older than the window. Caller holds l.mu.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}
