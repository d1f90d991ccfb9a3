package analytics

import (
	"math"
	"time"
)

// Prediction scenarios, from best case to worst case.
const (
	ScenarioOptimistic   = "optimistic"
	ScenarioProbable     = "probable"
	ScenarioConservative = "conservative"
	ScenarioPessimistic  = "pessimistic"
)

// Confidence levels for a prediction set.
const (
	ConfidenceHigh    = "high"
	ConfidenceMedium  = "medium"
	ConfidenceLow     = "low"
	ConfidenceVeryLow = "very_low"
)

// scenarioPercentiles fixes the percentile behind each scenario; the nominal
// probability attached to a scenario equals its percentile.
var scenarioPercentiles = []struct {
	Label      string
	Percentile float64
}{
	{ScenarioOptimistic, 25},
	{ScenarioProbable, 50},
	{ScenarioConservative, 75},
	{ScenarioPessimistic, 90},
}

// Scenario is one projected payment date with its nominal probability.
type Scenario struct {
	Label         string    `json:"label"`
	Probability   int       `json:"probability"`
	DelayDays     int       `json:"delayDays"`
	ProjectedDate time.Time `json:"projectedDate"`
}

// Confidence is the quality assessment of a prediction, computed from the
// history independently of the scenario dates.
type Confidence struct {
	Score int    `json:"score"`
	Level string `json:"level"`
}

// Prediction projects payment dates for one pending invoice. When the client's
// history is too short the engine reports that explicitly instead of guessing.
type Prediction struct {
	InvoiceID  string     `json:"invoiceId"`
	AnchorDate time.Time  `json:"anchorDate"`
	Available  bool       `json:"available"`
	Reason     string     `json:"reason,omitempty"`
	Scenarios  []Scenario `json:"scenarios,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// PredictPayment combines an invoice's anchor date with the client's historical
// paid-delay sample to produce the four scenario dates. History must contain at
// least two observations.
func PredictPayment(invoiceID string, anchor time.Time, history []float64) Prediction {
	if len(history) < 2 {
		return Prediction{
			InvoiceID:  invoiceID,
			AnchorDate: anchor,
			Available:  false,
			Reason:     "insufficient history",
			Confidence: Confidence{Score: 0, Level: ConfidenceVeryLow},
		}
	}

	scenarios := make([]Scenario, 0, len(scenarioPercentiles))
	for _, sp := range scenarioPercentiles {
		days := int(math.Round(Percentile(history, sp.Percentile)))
		scenarios = append(scenarios, Scenario{
			Label:         sp.Label,
			Probability:   int(sp.Percentile),
			DelayDays:     days,
			ProjectedDate: anchor.AddDate(0, 0, days),
		})
	}

	return Prediction{
		InvoiceID:  invoiceID,
		AnchorDate: anchor,
		Available:  true,
		Scenarios:  scenarios,
		Confidence: AssessConfidence(history),
	}
}

// AssessConfidence scores prediction quality 0-100 from three signals: sample
// size (more observations score higher), coefficient of variation (tighter
// distributions score higher), and whether the mean delay sits in a plausible
// commercial range (15-90 days scores highest).
func AssessConfidence(history []float64) Confidence {
	n := len(history)
	mean := Mean(history)
	stddev := StdDevPopulation(history)

	score := 0

	switch {
	case n >= 20:
		score += 40
	case n >= 10:
		score += 30
	case n >= 5:
		score += 20
	default:
		score += 10
	}

	if mean != 0 {
		cv := math.Abs(stddev / mean)
		switch {
		case cv <= 0.3:
			score += 30
		case cv <= 0.6:
			score += 20
		case cv <= 1.0:
			score += 10
		}
	}

	switch {
	case mean >= 15 && mean <= 90:
		score += 30
	case mean >= 8 && mean <= 180:
		score += 15
	}

	return Confidence{Score: score, Level: confidenceLevel(score)}
}

func confidenceLevel(score int) string {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	case score >= 40:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}
