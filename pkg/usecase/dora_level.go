package usecase

import "github.com/m-mizutani/dorameter/pkg/domain/model"

const (
	overallElite  = "Elite"
	overallHigh   = "High"
	overallMedium = "Medium"
	overallLow    = "Low"
)

var overallDescriptions = map[string]string{
	overallElite:  "Top performers! Fastest delivery with highest stability.",
	overallHigh:   "Strong performance across all DORA metrics.",
	overallMedium: "Good foundation, opportunities to improve velocity.",
	overallLow:    "Focus on automation and reducing cycle times.",
}

// CalculateDORALevel combines per-metric levels into one overall tier.
// Unknown levels appear in the breakdown but never count toward a tier.
func CalculateDORALevel(levels ...model.Level) model.OverallLevel {
	breakdown := make(map[model.Level]int, len(model.Levels))
	for _, l := range model.Levels {
		breakdown[l] = 0
	}
	for _, l := range levels {
		if _, ok := breakdown[l]; ok {
			breakdown[l]++
		}
	}

	elite := breakdown[model.LevelElite]
	high := breakdown[model.LevelHigh]
	low := breakdown[model.LevelLow]

	var overall string
	switch {
	case elite >= 3:
		overall = overallElite
	case elite >= 2 || elite+high >= 3:
		overall = overallHigh
	case low <= 1:
		overall = overallMedium
	default:
		overall = overallLow
	}

	return model.OverallLevel{
		Level:       overall,
		Description: overallDescriptions[overall],
		Breakdown:   breakdown,
	}
}
