package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/infra/snapshot"
	"github.com/m-mizutani/dorameter/pkg/usecase"
	"github.com/m-mizutani/dorameter/pkg/utils/async"
)

func cmdCollect() *cli.Command {
	var (
		githubCfg   config.GitHub
		repos       []string
		since       string
		dateRange   string
		output      string
		concurrency int
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "repo",
			Aliases:     []string{"R"},
			Usage:       "Repository to collect (owner/name), repeatable",
			Required:    true,
			Destination: &repos,
			Sources:     cli.EnvVars("DORAMETER_REPOS"),
		},
		&cli.StringFlag{
			Name:        "since",
			Usage:       "Collect records from this date (2006-01-02 or RFC3339)",
			Destination: &since,
		},
		&cli.StringFlag{
			Name:        "range",
			Aliases:     []string{"r"},
			Usage:       "Collection window: 30d, Q1-2025, 2024 or 2024-01-01:2024-03-31",
			Value:       "90d",
			Destination: &dateRange,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Snapshot destination: file, gs://bucket/object, or - for stdout",
			Value:       snapshot.Stdio,
			Destination: &output,
			Sources:     cli.EnvVars("DORAMETER_OUTPUT"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Repositories fetched in parallel",
			Value:       async.DefaultConcurrency,
			Destination: &concurrency,
		},
	}
	flags = append(flags, githubCfg.Flags()...)

	return &cli.Command{
		Name:  "collect",
		Usage: "Collect releases and merged pull requests from GitHub into a snapshot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			start, err := collectSince(since, dateRange, time.Now())
			if err != nil {
				return err
			}

			client, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			collector := usecase.NewCollector(client, usecase.WithConcurrency(concurrency))
			snap, err := collector.Collect(ctx, repos, start)
			if err != nil {
				return err
			}

			w, err := snapshot.Create(ctx, output)
			if err != nil {
				return err
			}
			if err := snapshot.Encode(w, snap); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return goerr.Wrap(err, "failed to close snapshot", goerr.V("output", output))
			}

			return nil
		},
	}
}

// collectSince prefers --since over --range
func collectSince(since, dateRange string, now time.Time) (time.Time, error) {
	if since != "" {
		t, err := parseFlagTime(since)
		if err != nil {
			return time.Time{}, goerr.Wrap(err, "invalid --since", goerr.V("since", since))
		}
		return t, nil
	}

	dr, err := model.ParseDateRange(dateRange, now)
	if err != nil {
		return time.Time{}, err
	}
	return dr.Start, nil
}
