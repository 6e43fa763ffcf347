package model

import "time"

// Level is a DORA maturity tier for one metric
type Level string

const (
	LevelElite   Level = "elite"
	LevelHigh    Level = "high"
	LevelMedium  Level = "medium"
	LevelLow     Level = "low"
	LevelUnknown Level = "unknown"
)

// Levels lists every tier in breakdown order
var Levels = []Level{LevelElite, LevelHigh, LevelMedium, LevelLow, LevelUnknown}

// IssueVersionMap maps an issue key (PROJ-123) to the release tag believed to ship it
type IssueVersionMap map[string]string

// Trend is a series keyed by ISO week label (2025-W01). encoding/json sorts map keys,
// so the encoded series is always in chronological order.
type Trend map[string]float64

// DORAInput is one independent snapshot for a single calculation.
// A nil Incidents slice or IssueVersionMap means the data was not supplied.
type DORAInput struct {
	Releases        []*Release
	Changes         []*MergedChange
	Incidents       []*Incident
	IssueVersionMap IssueVersionMap
	StartDate       *time.Time
	EndDate         *time.Time
}

type DeploymentFrequency struct {
	TotalDeployments int     `json:"total_deployments"`
	PerDay           float64 `json:"per_day"`
	PerWeek          float64 `json:"per_week"`
	PerMonth         float64 `json:"per_month"`
	Level            Level   `json:"level"`
	Trend            Trend   `json:"trend"`
}

type LeadTime struct {
	MedianHours   *float64 `json:"median_hours"`
	MedianDays    *float64 `json:"median_days"`
	P95Hours      *float64 `json:"p95_hours"`
	P95Days       *float64 `json:"p95_days"`
	AverageHours  *float64 `json:"average_hours"`
	AverageDays   *float64 `json:"average_days"`
	SampleSize    int      `json:"sample_size"`
	MappedCount   int      `json:"mapped_count"`
	FallbackCount int      `json:"fallback_count"`
	// ExcludedOverMax counts correlated changes dropped for exceeding the max lead time
	ExcludedOverMax int   `json:"excluded_over_max"`
	Level           Level `json:"level"`
	Trend           Trend `json:"trend"`
}

type ChangeFailureRate struct {
	RatePercent            *float64 `json:"rate_percent"`
	FailedDeployments      *int     `json:"failed_deployments"`
	TotalDeployments       int      `json:"total_deployments"`
	IncidentsCount         int      `json:"incidents_count"`
	CorrelationWindowHours float64  `json:"correlation_window_hours"`
	Level                  Level    `json:"level"`
	Note                   string   `json:"note,omitempty"`
	Trend                  Trend    `json:"trend"`
}

type MTTR struct {
	MedianHours  *float64 `json:"median_hours"`
	MedianDays   *float64 `json:"median_days"`
	P95Hours     *float64 `json:"p95_hours"`
	P95Days      *float64 `json:"p95_days"`
	AverageHours *float64 `json:"average_hours"`
	AverageDays  *float64 `json:"average_days"`
	SampleSize   int      `json:"sample_size"`
	Level        Level    `json:"level"`
	Note         string   `json:"note,omitempty"`
	Trend        Trend    `json:"trend"`
}

// OverallLevel is the composite classification across the four metrics
type OverallLevel struct {
	Level       string        `json:"level"`
	Description string        `json:"description"`
	Breakdown   map[Level]int `json:"breakdown"`
}

type MeasurementPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`
}

// DORAResult is the complete output of one calculation
type DORAResult struct {
	DeploymentFrequency DeploymentFrequency `json:"deployment_frequency"`
	LeadTime            LeadTime            `json:"lead_time"`
	ChangeFailureRate   ChangeFailureRate   `json:"change_failure_rate"`
	MTTR                MTTR                `json:"mttr"`
	DORALevel           OverallLevel        `json:"dora_level"`
	MeasurementPeriod   MeasurementPeriod   `json:"measurement_period"`
	Skipped             map[string]int      `json:"skipped,omitempty"`
}

// AddSkipped adds skip counts gathered outside the engine, e.g. while decoding input
func (r *DORAResult) AddSkipped(skipped map[string]int) {
	for reason, n := range skipped {
		if n == 0 {
			continue
		}
		if r.Skipped == nil {
			r.Skipped = make(map[string]int)
		}
		r.Skipped[reason] += n
	}
}
