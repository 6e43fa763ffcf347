package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

const (
	DefaultCorrelationWindow = 24 * time.Hour
	DefaultMaxLeadTimeDays   = 0 // no cap
	defaultPeriodDays        = 90
)

// ErrInvalidConfig is returned when the engine is configured or called with values it cannot
// interpret, such as a negative correlation window or an inverted measurement period.
var ErrInvalidConfig = errors.New("invalid DORA configuration")

type doraConfig struct {
	correlationWindow time.Duration
	maxLeadTimeDays   float64
	now               func() time.Time
}

// DORAOption configures the DORA use case
type DORAOption func(*doraConfig)

// WithCorrelationWindow sets how long after a deployment an incident is attributed to it
func WithCorrelationWindow(d time.Duration) DORAOption {
	return func(c *doraConfig) {
		c.correlationWindow = d
	}
}

// WithMaxLeadTimeDays drops lead times longer than days. 0 disables the cap.
func WithMaxLeadTimeDays(days float64) DORAOption {
	return func(c *doraConfig) {
		c.maxLeadTimeDays = days
	}
}

// WithClock replaces time.Now for the default measurement period
func WithClock(now func() time.Time) DORAOption {
	return func(c *doraConfig) {
		c.now = now
	}
}

type doraUseCase struct {
	cfg doraConfig
}

// NewDORA creates the DORA metrics use case. Invalid settings fail here, never mid-computation.
func NewDORA(opts ...DORAOption) (interfaces.DORAUseCase, error) {
	cfg := doraConfig{
		correlationWindow: DefaultCorrelationWindow,
		maxLeadTimeDays:   DefaultMaxLeadTimeDays,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.correlationWindow < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "correlation window must not be negative",
			goerr.V("window", cfg.correlationWindow.String()))
	}
	if math.IsNaN(cfg.maxLeadTimeDays) || math.IsInf(cfg.maxLeadTimeDays, 0) || cfg.maxLeadTimeDays < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "max lead time days must be a non-negative number",
			goerr.V("max_lead_time_days", cfg.maxLeadTimeDays))
	}
	if cfg.now == nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "clock must not be nil")
	}

	return &doraUseCase{cfg: cfg}, nil
}

// Calculate runs deployment frequency, lead time, change failure rate and MTTR over one input
// snapshot and classifies the result. A nil input is treated as empty.
func (uc *doraUseCase) Calculate(ctx context.Context, in *model.DORAInput) (*model.DORAResult, error) {
	logger := ctxlog.From(ctx)

	if in == nil {
		in = &model.DORAInput{}
	}

	period, err := uc.measurementPeriod(in)
	if err != nil {
		return nil, err
	}

	skipped := countMalformed(in)
	maxLeadTime := time.Duration(uc.cfg.maxLeadTimeDays * float64(24*time.Hour))

	df := CalculateDeploymentFrequency(in.Releases, period.Days)
	lt := CalculateLeadTime(in.Releases, in.Changes, in.IssueVersionMap, maxLeadTime)
	cfr := CalculateChangeFailureRate(in.Releases, in.Incidents, uc.cfg.correlationWindow)
	mttr := CalculateMTTR(in.Incidents)
	level := CalculateDORALevel(df.Level, lt.Level, cfr.Level, mttr.Level)

	if lt.ExcludedOverMax > 0 {
		skipped["lead_time_over_max"] = lt.ExcludedOverMax
	}

	result := &model.DORAResult{
		DeploymentFrequency: df,
		LeadTime:            lt,
		ChangeFailureRate:   cfr,
		MTTR:                mttr,
		DORALevel:           level,
		MeasurementPeriod:   period,
	}
	if len(skipped) > 0 {
		result.Skipped = skipped
	}

	logger.Debug("Calculated DORA metrics",
		"releases", len(in.Releases),
		"changes", len(in.Changes),
		"incidents", len(in.Incidents),
		"period_days", period.Days,
		"overall", level.Level,
		"skipped", skipped,
	)

	return result, nil
}

// measurementPeriod uses explicit bounds when given and fills missing ones from release publish
// times, then merge times, then a trailing 90-day window.
func (uc *doraUseCase) measurementPeriod(in *model.DORAInput) (model.MeasurementPeriod, error) {
	var start, end time.Time
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil {
		end = *in.EndDate
	}

	if start.IsZero() || end.IsZero() {
		dataStart, dataEnd, ok := releaseSpan(in.Releases)
		if !ok {
			dataStart, dataEnd, ok = mergeSpan(in.Changes)
		}
		if !ok {
			dataEnd = uc.cfg.now()
			dataStart = dataEnd.AddDate(0, 0, -defaultPeriodDays)
		}

		if start.IsZero() {
			start = dataStart
		}
		if end.IsZero() {
			end = dataEnd
		}
	}

	if end.Before(start) {
		return model.MeasurementPeriod{}, goerr.Wrap(ErrInvalidConfig, "measurement period ends before it starts",
			goerr.V("start", start), goerr.V("end", end))
	}

	return model.MeasurementPeriod{
		StartDate: start,
		EndDate:   end,
		Days:      max(1, int(end.Sub(start).Hours()/24)),
	}, nil
}

func releaseSpan(releases []*model.Release) (time.Time, time.Time, bool) {
	var times []time.Time
	for _, r := range releases {
		if r != nil && r.PublishedAt != nil && !r.PublishedAt.IsZero() {
			times = append(times, *r.PublishedAt)
		}
	}
	return span(times)
}

func mergeSpan(changes []*model.MergedChange) (time.Time, time.Time, bool) {
	var times []time.Time
	for _, c := range changes {
		if c != nil && c.MergedAt != nil && !c.MergedAt.IsZero() {
			times = append(times, *c.MergedAt)
		}
	}
	return span(times)
}

func span(times []time.Time) (time.Time, time.Time, bool) {
	if len(times) == 0 {
		return time.Time{}, time.Time{}, false
	}
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	return lo, hi, true
}

// countMalformed counts records that cannot take part in any correlation.
// They are skipped by the calculators, never rejected.
func countMalformed(in *model.DORAInput) map[string]int {
	skipped := make(map[string]int)

	for _, r := range in.Releases {
		if r == nil {
			skipped["release_nil"]++
			continue
		}
		if _, ok := r.DeployedAt(); !ok {
			skipped["release_without_timestamp"]++
		}
	}
	for _, c := range in.Changes {
		if c == nil {
			skipped["change_nil"]++
			continue
		}
		if c.Merged && (c.MergedAt == nil || c.MergedAt.IsZero()) {
			skipped["change_without_merged_at"]++
		}
	}
	for _, inc := range in.Incidents {
		if inc == nil {
			skipped["incident_nil"]++
			continue
		}
		if inc.Created.IsZero() {
			skipped["incident_without_created"]++
		}
	}

	return skipped
}
