package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/utils/async"
)

func TestForEach(t *testing.T) {
	t.Run("visits every item", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string]bool{}

		err := async.ForEach(context.Background(), []string{"a", "b", "c"}, 2, func(ctx context.Context, s string) error {
			mu.Lock()
			defer mu.Unlock()
			seen[s] = true
			return nil
		})
		gt.NoError(t, err)
		gt.Equal(t, len(seen), 3)
	})

	t.Run("respects the limit", func(t *testing.T) {
		var running, peak atomic.Int32
		items := make([]int, 20)

		err := async.ForEach(context.Background(), items, 3, func(ctx context.Context, _ int) error {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return nil
		})
		gt.NoError(t, err)
		gt.True(t, peak.Load() <= 3)
	})

	t.Run("returns the first error", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := async.ForEach(context.Background(), []int{1, 2, 3}, 1, func(ctx context.Context, i int) error {
			if i == 2 {
				return errBoom
			}
			return nil
		})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, errBoom))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		err := async.ForEach(context.Background(), []int{1}, 1, func(ctx context.Context, i int) error {
			panic("worker exploded")
		})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, async.ErrPanic))
	})

	t.Run("empty input", func(t *testing.T) {
		called := false
		err := async.ForEach(context.Background(), []int(nil), 0, func(ctx context.Context, i int) error {
			called = true
			return nil
		})
		gt.NoError(t, err)
		gt.False(t, called)
	})
}
