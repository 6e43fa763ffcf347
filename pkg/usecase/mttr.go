package usecase

import (
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/utils/stats"
)

const (
	mttrEliteHours  = 1
	mttrHighHours   = 24
	mttrMediumHours = 24 * 7
)

type resolutionSample struct {
	resolved *time.Time
	hours    float64
}

// CalculateMTTR summarizes incident resolution times. Level is unknown, not low, when no
// incident could be measured.
func CalculateMTTR(incidents []*model.Incident) model.MTTR {
	result := model.MTTR{
		Level: model.LevelUnknown,
		Trend: model.Trend{},
	}

	if len(incidents) == 0 {
		result.Note = noteNoIncidentData
		return result
	}

	var samples []resolutionSample
	for _, inc := range incidents {
		if inc == nil {
			continue
		}
		if h, ok := inc.ResolutionHours(); ok {
			samples = append(samples, resolutionSample{resolved: inc.Resolved, hours: h})
		}
	}

	if len(samples) == 0 {
		result.Note = noteNoResolvedIncidents
		return result
	}

	hours := make([]float64, 0, len(samples))
	var resolved []resolutionSample
	for _, s := range samples {
		hours = append(hours, s.hours)
		if s.resolved != nil && !s.resolved.IsZero() {
			resolved = append(resolved, s)
		}
	}

	median := stats.Median(hours)
	p95 := stats.Percentile(hours, 0.95)
	mean := stats.Mean(hours)

	result.MedianHours = roundedPtr(median, 1)
	result.MedianDays = roundedPtr(median/24, 1)
	result.P95Hours = roundedPtr(p95, 1)
	result.P95Days = roundedPtr(p95/24, 1)
	result.AverageHours = roundedPtr(mean, 1)
	result.AverageDays = roundedPtr(mean/24, 1)
	result.SampleSize = len(samples)
	result.Level = mttrLevel(median)

	weekly := stats.GroupBy(resolved, func(s resolutionSample) string {
		return stats.WeekLabel(*s.resolved)
	})
	for week, group := range weekly {
		values := make([]float64, 0, len(group))
		for _, s := range group {
			values = append(values, s.hours)
		}
		result.Trend[week] = stats.Round(stats.Median(values), 1)
	}

	return result
}

func mttrLevel(medianHours float64) model.Level {
	switch {
	case medianHours < mttrEliteHours:
		return model.LevelElite
	case medianHours < mttrHighHours:
		return model.LevelHigh
	case medianHours < mttrMediumHours:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}
