package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mandic19/Shop-Backup/client"
)

func TestAdmit_UnderLimitReturnsImmediately(t *testing.T) {
	limiter := client.NewSlidingWindowLimiter(3, time.Minute, zap.NewNop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		err := limiter.Admit(context.Background())
		assert.NoError(t, err)
		limiter.RecordCall()
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAdmit_SlidingWindowSpacing(t *testing.T) {
	const (
		limit  = 3
		window = 300 * time.Millisecond
	)
	limiter := client.NewSlidingWindowLimiter(limit, window, zap.NewNop())

	var stamps []time.Time
	for i := 0; i < 7; i++ {
		err := limiter.Admit(context.Background())
		assert.NoError(t, err)
		stamps = append(stamps, time.Now())
		limiter.RecordCall()
	}

	// In any trailing window there are never more than limit calls: call i+limit
	// must start at least one full window after call i.
	for i := 0; i+limit < len(stamps); i++ {
		gap := stamps[i+limit].Sub(stamps[i])
		assert.GreaterOrEqual(t, gap, window,
			"calls %d and %d are only %v apart", i, i+limit, gap)
	}
}

func TestAdmit_ContextCancelledWhileWaiting(t *testing.T) {
	limiter := client.NewSlidingWindowLimiter(1, time.Minute, zap.NewNop())
	limiter.RecordCall()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Admit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecordCall_PrunesExpiredTimestamps(t *testing.T) {
	limiter := client.NewSlidingWindowLimiter(2, 100*time.Millisecond, zap.NewNop())
	limiter.RecordCall()
	limiter.RecordCall()

	time.Sleep(150 * time.Millisecond)

	// Both timestamps fell out of the window, so admission is immediate.
	start := time.Now()
	err := limiter.Admit(context.Background())
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
