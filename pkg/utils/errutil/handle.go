// Package errutil reports unexpected errors to the log and, when configured, to Sentry.
package errutil

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and sends it to Sentry. It is a no-op for nil.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	ctxlog.From(ctx).Error(msg, "error", err)

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if values := errorValues(err); len(values) > 0 {
			scope.SetContext("goerr", values)
		}
	})
	hub.CaptureException(err)
}

// errorValues collects goerr.V values of the error chain as printable strings
func errorValues(err error) sentry.Context {
	gErr := goerr.Unwrap(err)
	if gErr == nil {
		return nil
	}

	values := sentry.Context{}
	for k, v := range gErr.Values() {
		values[k] = fmt.Sprint(v)
	}
	return values
}
