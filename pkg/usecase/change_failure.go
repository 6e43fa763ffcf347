package usecase

import (
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/utils/stats"
)

// CFR tiers. The high band is only [15%, 16%), kept as-is for parity with the
// published dashboards that were built on these numbers.
const (
	cfrElitePercent  = 15
	cfrHighPercent   = 16
	cfrMediumPercent = 30
)

const (
	noteNoProductionDeployments = "No production deployments in period"
	noteNoIncidentData          = "Incident data not available"
	noteNoResolvedIncidents     = "No resolved incidents in period"
)

// CalculateChangeFailureRate marks a production deployment as failed when an incident names its
// tag, or when an incident was created within window after it was deployed. Without incident
// data the rate is reported as not computable rather than zero.
func CalculateChangeFailureRate(releases []*model.Release, incidents []*model.Incident, window time.Duration) model.ChangeFailureRate {
	prod := productionReleases(releases)

	result := model.ChangeFailureRate{
		TotalDeployments:       len(prod),
		CorrelationWindowHours: window.Hours(),
		Level:                  model.LevelLow,
		Trend:                  model.Trend{},
	}

	if len(prod) == 0 {
		zero := 0
		result.FailedDeployments = &zero
		result.Note = noteNoProductionDeployments
		return result
	}

	if len(incidents) == 0 {
		result.Level = model.LevelUnknown
		result.Note = noteNoIncidentData
		return result
	}

	result.IncidentsCount = len(incidents)

	tags := make(map[string]struct{}, len(prod))
	for _, r := range prod {
		tags[r.TagName] = struct{}{}
	}
	deployments := timedDeployments(prod)

	failed := make(map[string]struct{})
	for _, inc := range incidents {
		if inc == nil || inc.Created.IsZero() {
			continue
		}

		if inc.RelatedDeploymentTag != "" {
			if _, ok := tags[inc.RelatedDeploymentTag]; ok {
				failed[inc.RelatedDeploymentTag] = struct{}{}
			}
		}

		for _, d := range deployments {
			diff := inc.Created.Sub(d.at)
			if diff >= 0 && diff <= window {
				failed[d.release.TagName] = struct{}{}
			}
		}
	}

	failedCount := len(failed)
	rate := float64(failedCount) / float64(len(prod)) * 100

	result.FailedDeployments = &failedCount
	result.RatePercent = roundedPtr(rate, 1)
	result.Level = changeFailureLevel(rate)

	weekly := stats.GroupBy(deployments, func(d deployment) string {
		return stats.WeekLabel(d.at)
	})
	for week, group := range weekly {
		n := 0
		for _, d := range group {
			if _, ok := failed[d.release.TagName]; ok {
				n++
			}
		}
		result.Trend[week] = stats.Round(float64(n)/float64(len(group))*100, 1)
	}

	return result
}

func changeFailureLevel(ratePercent float64) model.Level {
	switch {
	case ratePercent < cfrElitePercent:
		return model.LevelElite
	case ratePercent < cfrHighPercent:
		return model.LevelHigh
	case ratePercent < cfrMediumPercent:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}
