package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker count used when ForEach is given a non-positive limit
const DefaultConcurrency = 4

// ErrPanic wraps a panic recovered from a ForEach worker
var ErrPanic = goerr.New("panic in worker")

// ForEach calls fn for every item with at most limit calls in flight. The first error cancels
// the context passed to the remaining calls and is returned after all workers have stopped.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) error {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, item := range items {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctxlog.From(egCtx).Error("panic in worker",
						"recover", r,
						"index", i,
						"stack", string(debug.Stack()))
					err = goerr.Wrap(ErrPanic, "worker panicked", goerr.V("recover", r), goerr.V("index", i))
				}
			}()

			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(egCtx, item)
		})
	}

	return eg.Wait()
}
