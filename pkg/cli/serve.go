package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
	controller "github.com/m-mizutani/dorameter/pkg/controller/http"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		doraCfg   config.DORA
		slackCfg  config.Slack
	)

	flags := append(serverCfg.Flags(), doraCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server exposing the calculation API",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := doraCfg.Load(c); err != nil {
				return err
			}
			doraUC, err := doraCfg.UseCase()
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			opts := []controller.Option{
				controller.WithAddr(serverCfg.Addr),
				controller.WithRegistry(registry),
			}
			if n := slackCfg.Notifier(); n != nil {
				opts = append(opts, controller.WithNotifier(n))
			}

			server, err := controller.NewServer(ctx, doraUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting dorameter server", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverCfg.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
