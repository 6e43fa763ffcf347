package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/usecase"
)

func fixedClock() time.Time {
	return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
}

func newDORA(t *testing.T, opts ...usecase.DORAOption) interfaces.DORAUseCase {
	t.Helper()
	uc, err := usecase.NewDORA(append([]usecase.DORAOption{usecase.WithClock(fixedClock)}, opts...)...)
	gt.NoError(t, err)
	return uc
}

func sampleInput() *model.DORAInput {
	releases := []*model.Release{
		prodRelease("v1.0.0", "2025-01-06T10:00:00Z"),
		prodRelease("v1.1.0", "2025-01-13T10:00:00Z"),
		stagingRelease("v1.2.0-rc1", "2025-01-15T10:00:00Z"),
		prodRelease("v1.2.0", "2025-01-20T10:00:00Z"),
	}
	changes := []*model.MergedChange{
		mergedChange("1", "PROJ-1: login", "2025-01-06T04:00:00Z"),
		mergedChange("2", "refactor", "2025-01-10T10:00:00Z"),
		mergedChange("3", "PROJ-3: search", "2025-01-19T10:00:00Z"),
	}
	inc := incidentAt("INC-1", "2025-01-13T12:00:00Z")
	inc.Resolved = ptr(at("2025-01-13T14:00:00Z"))

	return &model.DORAInput{
		Releases:        releases,
		Changes:         changes,
		Incidents:       []*model.Incident{inc},
		IssueVersionMap: model.IssueVersionMap{"PROJ-1": "v1.0.0", "PROJ-3": "v1.2.0"},
	}
}

func TestNewDORA_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  usecase.DORAOption
	}{
		{name: "negative window", opt: usecase.WithCorrelationWindow(-time.Hour)},
		{name: "negative max lead time", opt: usecase.WithMaxLeadTimeDays(-1)},
		{name: "NaN max lead time", opt: usecase.WithMaxLeadTimeDays(math.NaN())},
		{name: "infinite max lead time", opt: usecase.WithMaxLeadTimeDays(math.Inf(1))},
		{name: "nil clock", opt: usecase.WithClock(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := usecase.NewDORA(tt.opt)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, usecase.ErrInvalidConfig))
		})
	}

	t.Run("zero values are valid", func(t *testing.T) {
		_, err := usecase.NewDORA(usecase.WithCorrelationWindow(0), usecase.WithMaxLeadTimeDays(0))
		gt.NoError(t, err)
	})
}

func TestDORA_Calculate(t *testing.T) {
	uc := newDORA(t)
	result, err := uc.Calculate(context.Background(), sampleInput())
	gt.NoError(t, err)

	// period spans first to last production publish
	gt.Equal(t, result.MeasurementPeriod.StartDate, at("2025-01-06T10:00:00Z"))
	gt.Equal(t, result.MeasurementPeriod.EndDate, at("2025-01-20T10:00:00Z"))
	gt.Equal(t, result.MeasurementPeriod.Days, 14)

	gt.Equal(t, result.DeploymentFrequency.TotalDeployments, 3)
	gt.Equal(t, result.DeploymentFrequency.Level, model.LevelHigh)

	// 6h mapped, 72h fallback, 24h mapped
	gt.Equal(t, result.LeadTime.SampleSize, 3)
	gt.Equal(t, result.LeadTime.MappedCount, 2)
	gt.Equal(t, result.LeadTime.FallbackCount, 1)
	gt.Equal(t, *result.LeadTime.MedianHours, 24.0)
	gt.Equal(t, result.LeadTime.Level, model.LevelHigh)

	gt.Equal(t, *result.ChangeFailureRate.FailedDeployments, 1)
	gt.Equal(t, *result.ChangeFailureRate.RatePercent, 33.3)
	gt.Equal(t, result.ChangeFailureRate.Level, model.LevelLow)

	gt.Equal(t, *result.MTTR.MedianHours, 2.0)
	gt.Equal(t, result.MTTR.Level, model.LevelHigh)

	gt.Equal(t, result.DORALevel.Level, "High")
	gt.Equal(t, result.DORALevel.Breakdown[model.LevelHigh], 3)
	gt.Equal(t, len(result.Skipped), 0)
}

func TestDORA_Calculate_NoIncidents(t *testing.T) {
	in := sampleInput()
	in.Incidents = nil

	result, err := newDORA(t).Calculate(context.Background(), in)
	gt.NoError(t, err)

	gt.Value(t, result.ChangeFailureRate.RatePercent).Nil()
	gt.Value(t, result.ChangeFailureRate.FailedDeployments).Nil()
	gt.True(t, result.ChangeFailureRate.Note != "")
	gt.Value(t, result.MTTR.MedianHours).Nil()
	gt.Value(t, result.MTTR.AverageHours).Nil()
	gt.True(t, result.MTTR.Note != "")
	gt.Equal(t, result.MTTR.Level, model.LevelUnknown)
	gt.Equal(t, result.DORALevel.Breakdown[model.LevelUnknown], 2)
}

func TestDORA_Calculate_Idempotent(t *testing.T) {
	uc := newDORA(t)

	first, err := uc.Calculate(context.Background(), sampleInput())
	gt.NoError(t, err)
	second, err := uc.Calculate(context.Background(), sampleInput())
	gt.NoError(t, err)

	a, err := json.Marshal(first)
	gt.NoError(t, err)
	b, err := json.Marshal(second)
	gt.NoError(t, err)
	gt.Equal(t, string(a), string(b))
}

func TestDORA_Calculate_DoesNotModifyInput(t *testing.T) {
	in := sampleInput()
	before, err := json.Marshal(in)
	gt.NoError(t, err)

	_, err = newDORA(t).Calculate(context.Background(), in)
	gt.NoError(t, err)

	after, err := json.Marshal(in)
	gt.NoError(t, err)
	gt.Equal(t, string(before), string(after))
}

func TestDORA_Calculate_MeasurementPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit bounds", func(t *testing.T) {
		in := sampleInput()
		in.StartDate = ptr(at("2025-01-01T00:00:00Z"))
		in.EndDate = ptr(at("2025-03-31T00:00:00Z"))

		result, err := newDORA(t).Calculate(ctx, in)
		gt.NoError(t, err)
		gt.Equal(t, result.MeasurementPeriod.Days, 89)
		gt.Equal(t, result.DeploymentFrequency.Level, model.LevelMedium)
	})

	t.Run("only start given", func(t *testing.T) {
		in := sampleInput()
		in.StartDate = ptr(at("2025-01-01T10:00:00Z"))

		result, err := newDORA(t).Calculate(ctx, in)
		gt.NoError(t, err)
		gt.Equal(t, result.MeasurementPeriod.StartDate, at("2025-01-01T10:00:00Z"))
		gt.Equal(t, result.MeasurementPeriod.Days, 19)
	})

	t.Run("from merge times", func(t *testing.T) {
		in := &model.DORAInput{
			Changes: []*model.MergedChange{
				mergedChange("1", "a", "2025-02-01T00:00:00Z"),
				mergedChange("2", "b", "2025-02-11T00:00:00Z"),
			},
		}
		result, err := newDORA(t).Calculate(ctx, in)
		gt.NoError(t, err)
		gt.Equal(t, result.MeasurementPeriod.Days, 10)
	})

	t.Run("trailing window without data", func(t *testing.T) {
		result, err := newDORA(t).Calculate(ctx, nil)
		gt.NoError(t, err)
		gt.Equal(t, result.MeasurementPeriod.EndDate, fixedClock())
		gt.Equal(t, result.MeasurementPeriod.Days, 90)
		gt.Equal(t, result.DeploymentFrequency.TotalDeployments, 0)
		gt.Equal(t, result.LeadTime.SampleSize, 0)
	})

	t.Run("single release collapses to one day", func(t *testing.T) {
		in := &model.DORAInput{Releases: []*model.Release{prodRelease("v1.0.0", "2025-01-06T10:00:00Z")}}
		result, err := newDORA(t).Calculate(ctx, in)
		gt.NoError(t, err)
		gt.Equal(t, result.MeasurementPeriod.Days, 1)
		gt.Equal(t, result.DeploymentFrequency.Level, model.LevelElite)
	})

	t.Run("inverted bounds", func(t *testing.T) {
		in := sampleInput()
		in.StartDate = ptr(at("2025-03-01T00:00:00Z"))
		in.EndDate = ptr(at("2025-01-01T00:00:00Z"))

		_, err := newDORA(t).Calculate(ctx, in)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, usecase.ErrInvalidConfig))
	})
}

func TestDORA_Calculate_SkipsMalformedRecords(t *testing.T) {
	in := sampleInput()
	in.Releases = append(in.Releases, &model.Release{TagName: "v2.0.0"}, nil)
	in.Changes = append(in.Changes,
		&model.MergedChange{ID: "9", Merged: true},
		mergedChange("10", "ancient", "2024-01-01T00:00:00Z"),
	)
	in.Incidents = append(in.Incidents, &model.Incident{Key: "INC-9"})

	result, err := newDORA(t, usecase.WithMaxLeadTimeDays(180)).Calculate(context.Background(), in)
	gt.NoError(t, err)

	gt.Equal(t, result.Skipped["release_without_timestamp"], 1)
	gt.Equal(t, result.Skipped["release_nil"], 1)
	gt.Equal(t, result.Skipped["change_without_merged_at"], 1)
	gt.Equal(t, result.Skipped["incident_without_created"], 1)
	gt.Equal(t, result.Skipped["lead_time_over_max"], 1)
	gt.Equal(t, result.LeadTime.SampleSize, 3)
}

func TestDORA_Calculate_LongLeadTimeKeptByDefault(t *testing.T) {
	in := &model.DORAInput{
		Releases: []*model.Release{prodRelease("v1.0.0", "2025-08-01T00:00:00Z")},
		Changes:  []*model.MergedChange{mergedChange("1", "slow burn", "2025-01-01T00:00:00Z")},
	}

	result, err := newDORA(t).Calculate(context.Background(), in)
	gt.NoError(t, err)
	gt.Equal(t, result.LeadTime.SampleSize, 1)
	gt.Equal(t, *result.LeadTime.MedianHours, 5088.0)
	gt.Equal(t, result.LeadTime.ExcludedOverMax, 0)
	gt.Equal(t, result.LeadTime.Level, model.LevelLow)
	_, capped := result.Skipped["lead_time_over_max"]
	gt.False(t, capped)

	result, err = newDORA(t, usecase.WithMaxLeadTimeDays(180)).Calculate(context.Background(), in)
	gt.NoError(t, err)
	gt.Equal(t, result.LeadTime.SampleSize, 0)
	gt.Equal(t, result.LeadTime.ExcludedOverMax, 1)
	gt.Equal(t, result.Skipped["lead_time_over_max"], 1)
}

func TestDORA_Calculate_CorrelationWindow(t *testing.T) {
	in := sampleInput()

	result, err := newDORA(t, usecase.WithCorrelationWindow(time.Hour)).Calculate(context.Background(), in)
	gt.NoError(t, err)
	gt.Equal(t, *result.ChangeFailureRate.FailedDeployments, 0)
	gt.Equal(t, result.ChangeFailureRate.CorrelationWindowHours, 1.0)
	gt.Equal(t, result.ChangeFailureRate.Level, model.LevelElite)
}
