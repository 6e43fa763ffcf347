package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/dorameter/pkg/utils/errutil"
)

// DispatchTimeout bounds a background task started by Dispatch
const DispatchTimeout = 30 * time.Second

// Dispatch runs a fire-and-forget task such as posting a calculation summary to Slack after the
// API has already responded. The task gets a context detached from the caller's cancellation
// that keeps its logger and expires after DispatchTimeout. Errors go to errutil.Handle tagged
// with the task name; panics are logged with their stack.
func Dispatch(ctx context.Context, task string, handler func(ctx context.Context) error) {
	bgCtx, cancel := context.WithTimeout(detach(ctx), DispatchTimeout)
	logger := ctxlog.From(bgCtx).With("task", task)

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in background task",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		start := time.Now()
		if err := handler(bgCtx); err != nil {
			errutil.Handle(ctxlog.With(bgCtx, logger), "background task failed",
				goerr.Wrap(err, "background task failed", goerr.V("task", task)))
			return
		}
		logger.Debug("background task done", "elapsed", time.Since(start))
	}()
}

func detach(ctx context.Context) context.Context {
	return ctxlog.With(context.Background(), ctxlog.From(ctx))
}
