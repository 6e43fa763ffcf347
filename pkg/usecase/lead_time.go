package usecase

import (
	"slices"
	"sort"
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/utils/stats"
)

const (
	leadTimeEliteHours  = 24
	leadTimeHighHours   = 24 * 7
	leadTimeMediumHours = 24 * 30
)

type leadTimeSample struct {
	mergedAt time.Time
	hours    float64
	mapped   bool
}

// CalculateLeadTime correlates each merged change with the production deployment that shipped it.
//
// When issueMap is given, a change whose issue key maps to a known production tag is measured
// against that release and never falls back, even if the result is not positive. Every other
// change is measured against the earliest production deployment strictly after its merge.
// Changes that have not shipped yet are excluded. maxLeadTime > 0 drops longer samples.
func CalculateLeadTime(releases []*model.Release, changes []*model.MergedChange, issueMap model.IssueVersionMap, maxLeadTime time.Duration) model.LeadTime {
	deployments := timedDeployments(productionReleases(releases))

	byTag := make(map[string]deployment, len(deployments))
	for _, d := range deployments {
		if _, ok := byTag[d.release.TagName]; !ok {
			byTag[d.release.TagName] = d
		}
	}

	sorted := slices.Clone(deployments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].at.Before(sorted[j].at)
	})

	var samples []leadTimeSample
	excluded := 0

	for _, c := range changes {
		if c == nil {
			continue
		}
		s, ok := correlateChange(c, byTag, sorted, issueMap)
		if !ok {
			continue
		}
		if maxLeadTime > 0 && s.hours > maxLeadTime.Hours() {
			excluded++
			continue
		}
		samples = append(samples, s)
	}

	return summarizeLeadTime(samples, excluded)
}

func correlateChange(c *model.MergedChange, byTag map[string]deployment, sorted []deployment, issueMap model.IssueVersionMap) (leadTimeSample, bool) {
	mergedAt, ok := c.MergeTime()
	if !ok {
		return leadTimeSample{}, false
	}

	if issueMap != nil {
		if key, ok := c.IssueKey(); ok {
			if tag, ok := issueMap[key]; ok {
				if d, ok := byTag[tag]; ok {
					hours := d.at.Sub(mergedAt).Hours()
					if hours <= 0 {
						return leadTimeSample{}, false
					}
					return leadTimeSample{mergedAt: mergedAt, hours: hours, mapped: true}, true
				}
			}
		}
	}

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].at.After(mergedAt)
	})
	if idx == len(sorted) {
		return leadTimeSample{}, false
	}

	return leadTimeSample{mergedAt: mergedAt, hours: sorted[idx].at.Sub(mergedAt).Hours()}, true
}

func summarizeLeadTime(samples []leadTimeSample, excluded int) model.LeadTime {
	result := model.LeadTime{
		Level:           model.LevelLow,
		Trend:           model.Trend{},
		ExcludedOverMax: excluded,
	}
	if len(samples) == 0 {
		return result
	}

	hours := make([]float64, 0, len(samples))
	for _, s := range samples {
		hours = append(hours, s.hours)
		if s.mapped {
			result.MappedCount++
		} else {
			result.FallbackCount++
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
	result.Level = leadTimeLevel(median)

	weekly := stats.GroupBy(samples, func(s leadTimeSample) string {
		return stats.WeekLabel(s.mergedAt)
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

func leadTimeLevel(medianHours float64) model.Level {
	switch {
	case medianHours < leadTimeEliteHours:
		return model.LevelElite
	case medianHours < leadTimeHighHours:
		return model.LevelHigh
	case medianHours < leadTimeMediumHours:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

func roundedPtr(v float64, places int) *float64 {
	r := stats.Round(v, places)
	return &r
}
