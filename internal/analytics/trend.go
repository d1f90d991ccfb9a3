package analytics

import "math"

// Trend statuses.
const (
	TrendImproving    = "improving"
	TrendStable       = "stable"
	TrendWorsening    = "worsening"
	TrendInsufficient = "insufficient_data"
)

// stableBandDays is the half-width within which two half-means are considered
// equal.
const stableBandDays = 3.0

// TrendResult compares the older half of a time-ordered delay sample against
// the newer half.
type TrendResult struct {
	Status         string  `json:"status"`
	SampleSize     int     `json:"sampleSize"`
	FirstHalfMean  float64 `json:"firstHalfMean"`
	SecondHalfMean float64 `json:"secondHalfMean"`
	DeltaDays      float64 `json:"deltaDays"`
}

// DetectTrend splits a sample ordered by anchor date into halves (the head
// half takes the extra element on odd sizes) and compares their means.
// Payments arriving later over time report "worsening". Fewer than three
// observations report "insufficient_data" rather than guessing.
func DetectTrend(ordered []float64) TrendResult {
	n := len(ordered)
	if n < 3 {
		return TrendResult{Status: TrendInsufficient, SampleSize: n}
	}

	mid := (n + 1) / 2
	first := Mean(ordered[:mid])
	second := Mean(ordered[mid:])
	delta := second - first

	status := TrendImproving
	if math.Abs(delta) < stableBandDays {
		status = TrendStable
	} else if delta > 0 {
		status = TrendWorsening
	}

	return TrendResult{
		Status:         status,
		SampleSize:     n,
		FirstHalfMean:  math.Round(first*100) / 100,
		SecondHalfMean: math.Round(second*100) / 100,
		DeltaDays:      math.Round(delta*100) / 100,
	}
}
