package analytics

import (
	"math"
	"slices"
)

// The four primitives below are the complete statistical vocabulary of the
// engine. Every component calls into them; no other formulas (in particular no
// Bessel-corrected stddev) exist anywhere, to keep parity with historical
// reports.

// Mean returns the arithmetic mean of the sample, or 0 for an empty sample.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median finds the median value of the sample. Even-sized samples average the
// two middle elements.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	// Work on a copy to avoid mutating the original
	temp := make([]float64, len(xs))
	copy(temp, xs)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// StdDevPopulation returns the population standard deviation (divisor n).
func StdDevPopulation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// Percentile returns the p-th percentile of the sample using linear
// interpolation between closest ranks: index = (p/100)*(n-1).
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	temp := make([]float64, len(xs))
	copy(temp, xs)
	slices.Sort(temp)

	if p <= 0 {
		return temp[0]
	}
	if p >= 100 {
		return temp[len(temp)-1]
	}

	idx := (p / 100.0) * float64(len(temp)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return temp[lower]
	}

	frac := idx - float64(lower)
	return temp[lower] + frac*(temp[upper]-temp[lower])
}

// Summary bundles the standard aggregate view of one interval sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
}

// Summarize computes the aggregate view of a sample. Values are rounded to two
// decimals for report output.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	return Summary{
		Count:  len(xs),
		Mean:   round2(Mean(xs)),
		Median: round2(Median(xs)),
		StdDev: round2(StdDevPopulation(xs)),
		P25:    round2(Percentile(xs, 25)),
		P75:    round2(Percentile(xs, 75)),
		P90:    round2(Percentile(xs, 90)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
