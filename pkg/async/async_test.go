package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.True(t, f.IsComplete())
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(context.Context, int) (string, error) {
			return "", boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsComplete())
}

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("preserves order", func(t *testing.T) {
		t.Parallel()
		items := []int{5, 1, 4, 2, 3}
		out := async.Map(context.Background(), 2, items, func(_ context.Context, n int) int {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10
		})
		assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()
		var inFlight, peak atomic.Int32
		items := make([]int, 20)
		async.Map(context.Background(), 3, items, func(context.Context, int) struct{} {
			cur := inFlight.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}
		})
		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.Positive(t, peak.Load())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		out := async.Map(context.Background(), 4, []string(nil), func(context.Context, string) int { return 1 })
		assert.Empty(t, out)
	})
}
