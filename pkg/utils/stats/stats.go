// Package stats provides the small set of order statistics used by the DORA calculators.
package stats

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Median returns the middle value, averaging the two middle values for even lengths.
// It returns 0 for an empty input.
func Median(values []float64) float64 {
	return Percentile(values, 0.5)
}

// Mean returns the arithmetic mean, 0 for an empty input
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile returns the q-quantile (0 <= q <= 1) using linear interpolation between
// closest ranks, the same rule as numpy/pandas' default. The input is not modified.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Round rounds v to the given number of decimal places, half away from zero
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// WeekLabel returns the ISO-8601 week of t in UTC, formatted as 2025-W01.
// Labels sort lexically in chronological order.
func WeekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// GroupBy buckets items by key, preserving input order inside each bucket
func GroupBy[T any](items []T, key func(T) string) map[string][]T {
	groups := make(map[string][]T)
	for _, item := range items {
		k := key(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}
