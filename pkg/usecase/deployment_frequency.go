package usecase

import (
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/utils/stats"
)

// CalculateDeploymentFrequency counts production deployments over a period of daysInPeriod days.
// daysInPeriod below 1 is treated as 1.
func CalculateDeploymentFrequency(releases []*model.Release, daysInPeriod int) model.DeploymentFrequency {
	days := float64(max(1, daysInPeriod))
	prod := productionReleases(releases)

	result := model.DeploymentFrequency{
		TotalDeployments: len(prod),
		Level:            model.LevelLow,
		Trend:            model.Trend{},
	}
	if len(prod) == 0 {
		return result
	}

	total := float64(len(prod))
	perDay := total / days
	perWeek := total / (days / 7)
	perMonth := total / (days / 30)

	result.PerDay = stats.Round(perDay, 2)
	result.PerWeek = stats.Round(perWeek, 2)
	result.PerMonth = stats.Round(perMonth, 2)
	result.Level = deploymentFrequencyLevel(perDay, perWeek, perMonth)

	for _, d := range timedDeployments(prod) {
		result.Trend[stats.WeekLabel(d.at)]++
	}

	return result
}

func deploymentFrequencyLevel(perDay, perWeek, perMonth float64) model.Level {
	switch {
	case perDay >= 1:
		return model.LevelElite
	case perWeek >= 1:
		return model.LevelHigh
	case perMonth >= 1:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// deployment is a production release with a resolved deployment time
type deployment struct {
	release *model.Release
	at      time.Time
}

func productionReleases(releases []*model.Release) []*model.Release {
	var prod []*model.Release
	for _, r := range releases {
		if r != nil && r.IsProduction() {
			prod = append(prod, r)
		}
	}
	return prod
}

// timedDeployments keeps releases with a resolvable deployment time, in input order
func timedDeployments(releases []*model.Release) []deployment {
	var deployments []deployment
	for _, r := range releases {
		if at, ok := r.DeployedAt(); ok {
			deployments = append(deployments, deployment{release: r, at: at})
		}
	}
	return deployments
}
