package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/infra/snapshot"
	"github.com/m-mizutani/dorameter/pkg/utils/errutil"
)

type calcOptions struct {
	input     string
	incidents string
	issueMap  string
	dateRange string
	start     string
	end       string
	format    string
	output    string
}

func cmdCalc() *cli.Command {
	var (
		opts     calcOptions
		doraCfg  config.DORA
		slackCfg config.Slack
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Snapshot file (JSON/YAML), gs://bucket/object, or - for stdin",
			Value:       snapshot.Stdio,
			Destination: &opts.input,
			Sources:     cli.EnvVars("DORAMETER_INPUT"),
		},
		&cli.StringFlag{
			Name:        "incidents",
			Usage:       "Incident list file, replaces incidents in the snapshot",
			Destination: &opts.incidents,
		},
		&cli.StringFlag{
			Name:        "issue-map",
			Usage:       "Issue key to release tag map file, replaces the one in the snapshot",
			Destination: &opts.issueMap,
		},
		&cli.StringFlag{
			Name:        "range",
			Aliases:     []string{"r"},
			Usage:       "Measurement window: 30d, Q1-2025, 2024 or 2024-01-01:2024-03-31",
			Destination: &opts.dateRange,
		},
		&cli.StringFlag{
			Name:        "start",
			Usage:       "Measurement window start (2006-01-02 or RFC3339)",
			Destination: &opts.start,
		},
		&cli.StringFlag{
			Name:        "end",
			Usage:       "Measurement window end (2006-01-02 or RFC3339)",
			Destination: &opts.end,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (json, text)",
			Value:       "json",
			Destination: &opts.format,
			Sources:     cli.EnvVars("DORAMETER_FORMAT"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file, - for stdout",
			Value:       snapshot.Stdio,
			Destination: &opts.output,
		},
	}
	flags = append(flags, doraCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "calc",
		Aliases: []string{"c"},
		Usage:   "Calculate DORA metrics from a snapshot",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := doraCfg.Load(c); err != nil {
				return err
			}
			if opts.format != "json" && opts.format != "text" {
				return goerr.New("invalid output format", goerr.V("format", opts.format))
			}

			result, err := runCalc(ctx, &opts, &doraCfg, time.Now())
			if err != nil {
				return err
			}

			w, err := snapshot.Create(ctx, opts.output)
			if err != nil {
				return err
			}
			if err := writeResult(w, opts.format, result); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return goerr.Wrap(err, "failed to close output", goerr.V("output", opts.output))
			}

			if n := slackCfg.Notifier(); n != nil {
				if err := n.NotifyResult(ctx, slackCfg.Label, result); err != nil {
					errutil.Handle(ctx, "failed to notify Slack", err)
				}
			}
			return nil
		},
	}
}

func runCalc(ctx context.Context, opts *calcOptions, doraCfg *config.DORA, now time.Time) (*model.DORAResult, error) {
	logger := ctxlog.From(ctx)

	uc, err := doraCfg.UseCase()
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, opts.input, now)
	if err != nil {
		return nil, err
	}

	if opts.incidents != "" {
		incidents, skipped, err := loadIncidents(opts.incidents)
		if err != nil {
			return nil, err
		}
		snap.Incidents = incidents
		for k, v := range skipped {
			if snap.Skipped == nil {
				snap.Skipped = map[string]int{}
			}
			snap.Skipped[k] += v
		}
	}

	if opts.issueMap != "" {
		m, err := loadIssueMap(opts.issueMap)
		if err != nil {
			return nil, err
		}
		snap.IssueVersionMap = m
	}

	if err := applyWindow(snap, opts, now); err != nil {
		return nil, err
	}

	logger.Debug("Loaded snapshot",
		"id", snap.ID,
		"releases", len(snap.Releases),
		"pull_requests", len(snap.PullRequests),
		"incidents", len(snap.Incidents),
	)

	result, err := uc.Calculate(ctx, snap.Input())
	if err != nil {
		return nil, err
	}
	result.AddSkipped(snap.Skipped)

	if len(result.Skipped) > 0 {
		logger.Warn("Some records were skipped", "skipped", result.Skipped)
	}
	return result, nil
}

func loadSnapshot(ctx context.Context, location string, now time.Time) (*model.Snapshot, error) {
	r, format, err := snapshot.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	snap, err := snapshot.Decode(r, format, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load snapshot", goerr.V("input", location))
	}
	return snap, nil
}

func loadIncidents(path string) ([]*model.Incident, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open incidents file", goerr.V("path", path))
	}
	defer f.Close()
	return snapshot.DecodeIncidents(f, snapshot.FormatFromName(path))
}

func loadIssueMap(path string) (model.IssueVersionMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open issue map file", goerr.V("path", path))
	}
	defer f.Close()
	return snapshot.DecodeIssueMap(f, snapshot.FormatFromName(path))
}

// applyWindow overrides the snapshot window with --range, or with --start/--end
func applyWindow(snap *model.Snapshot, opts *calcOptions, now time.Time) error {
	if opts.dateRange != "" {
		if opts.start != "" || opts.end != "" {
			return goerr.New("--range cannot be combined with --start/--end")
		}
		dr, err := model.ParseDateRange(opts.dateRange, now)
		if err != nil {
			return err
		}
		snap.StartDate, snap.EndDate = &dr.Start, &dr.End
		return nil
	}

	if opts.start != "" {
		t, err := parseFlagTime(opts.start)
		if err != nil {
			return goerr.Wrap(err, "invalid --start", goerr.V("start", opts.start))
		}
		snap.StartDate = &t
	}
	if opts.end != "" {
		t, err := parseFlagTime(opts.end)
		if err != nil {
			return goerr.Wrap(err, "invalid --end", goerr.V("end", opts.end))
		}
		snap.EndDate = &t
	}
	return nil
}

func parseFlagTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func writeResult(w io.Writer, format string, result *model.DORAResult) error {
	if format == "text" {
		if err := renderText(w, result); err != nil {
			return goerr.Wrap(err, "failed to render result")
		}
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return goerr.Wrap(err, "failed to encode result")
	}
	return nil
}
