package analytics

import "math"

// Reliability tiers, ordered from best to worst.
const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierRegular   = "regular"
	TierRisk      = "risk"
	TierHighRisk  = "high_risk"
)

// ClassificationConfig holds the fixed thresholds of the reliability
// classifier. One explicit value is passed in; no package-level mutable state.
type ClassificationConfig struct {
	// CriticalAgeDays is the age beyond which a pending invoice counts as
	// critically overdue.
	CriticalAgeDays int
}

// DefaultClassificationConfig returns the thresholds used by historical reports.
func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{CriticalAgeDays: 60}
}

// ReliabilityInput is the per-client feature vector feeding the classifier.
type ReliabilityInput struct {
	ClientID        string
	TotalInvoices   int
	PaidInvoices    int
	DelaySample     []float64
	CriticalOverdue int
}

// ReliabilityProfile is the classified view of one client's payment behavior.
type ReliabilityProfile struct {
	ClientID             string   `json:"clientId"`
	TotalInvoices        int      `json:"totalInvoices"`
	PaidInvoices         int      `json:"paidInvoices"`
	PercentPaid          float64  `json:"percentPaid"`
	MeanDelayDays        float64  `json:"meanDelayDays"`
	CriticalOverdueCount int      `json:"criticalOverdueCount"`
	Score                int      `json:"score"`
	Tier                 string   `json:"tier"`
	Actions              []string `json:"actions"`
}

// Classify scores a client across three independent bands and maps the sum to
// an ordered tier. Each band is nondecreasing in its input's favorable
// direction, so improving any single component can never lower the tier.
func Classify(in ReliabilityInput, cfg ClassificationConfig) ReliabilityProfile {
	percentPaid := 0.0
	if in.TotalInvoices > 0 {
		percentPaid = float64(in.PaidInvoices) / float64(in.TotalInvoices) * 100
	}
	meanDelay := Mean(in.DelaySample)

	score := scorePercentPaid(percentPaid) + scoreMeanDelay(meanDelay) + scoreOverdue(in.CriticalOverdue)
	tier := tierForScore(score)

	return ReliabilityProfile{
		ClientID:             in.ClientID,
		TotalInvoices:        in.TotalInvoices,
		PaidInvoices:         in.PaidInvoices,
		PercentPaid:          math.Round(percentPaid*100) / 100,
		MeanDelayDays:        math.Round(meanDelay*100) / 100,
		CriticalOverdueCount: in.CriticalOverdue,
		Score:                score,
		Tier:                 tier,
		Actions:              ActionsForTier(tier),
	}
}

// scorePercentPaid contributes up to 40 points.
func scorePercentPaid(p float64) int {
	switch {
	case p >= 95:
		return 40
	case p >= 85:
		return 32
	case p >= 70:
		return 24
	case p >= 50:
		return 14
	default:
		return 5
	}
}

// scoreMeanDelay contributes up to 35 points. Lower delays score higher.
func scoreMeanDelay(days float64) int {
	switch {
	case days <= 30:
		return 35
	case days <= 45:
		return 27
	case days <= 60:
		return 18
	case days <= 90:
		return 9
	default:
		return 0
	}
}

// scoreOverdue contributes up to 25 points. More overdue items score lower.
func scoreOverdue(count int) int {
	switch {
	case count == 0:
		return 25
	case count <= 2:
		return 12
	default:
		return 0
	}
}

func tierForScore(score int) string {
	switch {
	case score >= 85:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierRegular
	case score >= 30:
		return TierRisk
	default:
		return TierHighRisk
	}
}

// tierActions is the fixed lookup of recommended commercial actions per tier.
// Actions are a pure function of tier, never re-derived from raw inputs.
var tierActions = map[string][]string{
	TierExcellent: {
		"maintain current credit terms",
		"candidate for preferential conditions",
	},
	TierGood: {
		"maintain current credit terms",
		"standard follow-up cadence",
	},
	TierRegular: {
		"tighten follow-up cadence",
		"review open invoices monthly",
	},
	TierRisk: {
		"require partial advance payment",
		"weekly review of open invoices",
	},
	TierHighRisk: {
		"suspend credit terms",
		"escalate to collections",
	},
}

// ActionsForTier returns the recommended commercial actions for a tier.
func ActionsForTier(tier string) []string {
	return tierActions[tier]
}
