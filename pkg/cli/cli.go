package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
	"github.com/m-mizutani/dorameter/pkg/domain/types"
	"github.com/m-mizutani/dorameter/pkg/utils/errutil"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
	)

	app := &cli.Command{
		Name:    "dorameter",
		Usage:   "Measure DORA metrics from releases, pull requests and incidents",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			slog.SetDefault(logger)

			if err := sentryCfg.Configure(); err != nil {
				return nil, err
			}
			return ctxlog.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			cmdCalc(),
			cmdCollect(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		errutil.Handle(ctx, "CLI execution failed", err)
		return err
	}

	return nil
}
