// Package metrics derives reports from in-memory issue, pull request and
// milestone collections. Every calculator is pure: the current time is an
// argument and missing data degrades to zero values or nil, never an error.
package metrics

import (
	"slices"
	"time"
)

// Median sorts a copy of values and returns the middle value, averaging the
// two middle values for even sizes. ok is false for an empty input.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

// Average returns the arithmetic mean. ok is false for an empty input.
func Average(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func hours(d time.Duration) float64 {
	return d.Hours()
}

const day = 24 * time.Hour

func days(d time.Duration) float64 {
	return float64(d) / float64(day)
}

// startOfDay truncates t to midnight UTC
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
