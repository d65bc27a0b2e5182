package poll_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/prunact/internal/poll"
)

func TestWaitFor(t *testing.T) {
	t.Parallel()

	t.Run("immediately true", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		ok := poll.WaitFor(context.Background(), func(context.Context) bool {
			calls.Add(1)
			return true
		}, time.Second, 10*time.Millisecond)
		assert.True(t, ok)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("becomes true", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		ok := poll.WaitFor(context.Background(), func(context.Context) bool {
			return calls.Add(1) >= 3
		}, time.Second, 5*time.Millisecond)
		assert.True(t, ok)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()
		start := time.Now()
		ok := poll.WaitFor(context.Background(), func(context.Context) bool { return false },
			50*time.Millisecond, 10*time.Millisecond)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ok := poll.WaitFor(ctx, func(context.Context) bool { return true }, time.Second, 0)
		assert.False(t, ok)
	})
}

func TestSleep(t *testing.T) {
	t.Parallel()
	assert.NoError(t, poll.Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, poll.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, poll.Sleep(ctx, time.Hour), context.Canceled)
}
