// Package evaluate scores shadow-run metric series and gates candidate
// metrics against promotion thresholds. Scoring is a pure function of its
// inputs; identical inputs always yield identical scores and blockers,
// which is what makes promotion decisions auditable.
package evaluate

import "math"

// Sample is one shadow-run observation. Value and Confidence are in [0,1].
// Series order is irrelevant to scoring but retained for audit.
type Sample struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Scores are the four quality scores, each in [0,1].
type Scores struct {
	Stability float64 `json:"stability"`
	Utility   float64 `json:"utility"`
	Failure   float64 `json:"failure"`
	Promotion float64 `json:"promotion"`
}

// Options carries the optional association signals fed into the utility
// score. AlertAssoc is roughly [-1,1]; StrainReduction roughly [-1,1] and is
// rescaled to [0,1] internally.
type Options struct {
	AlertAssoc      float64 `json:"alert_assoc"`
	StrainReduction float64 `json:"strain_reduction"`
}

// Promotion gate thresholds.
const (
	MinShadowRuns      = 50
	MinStability       = 0.60
	MinUtility         = 0.55
	MaxFailure         = 0.20
	MinPromotionScore  = 0.65
	varianceNormalizer = 0.05
)

// Blocker codes. All that apply accumulate; gating never short-circuits.
const (
	BlockerInsufficientRuns = "insufficient_shadow_runs"
	BlockerStability        = "stability_below_threshold"
	BlockerUtility          = "utility_below_threshold"
	BlockerFailure          = "failure_above_threshold"
	BlockerPromotionScore   = "promotion_score_below_threshold"
)

// Compute derives quality scores and promotion blockers from a shadow-run
// series plus false-positive/false-negative rates against a golden set.
func Compute(series []Sample, goldenFP, goldenFN float64, opts Options) (Scores, []string) {
	variance := sampleVariance(series)
	saturation := fraction(series, func(v float64) bool { return v <= 0.05 || v >= 0.95 })
	confMean := confidenceMean(series)

	normVar := clamp(variance / varianceNormalizer)
	stability := clamp(0.55*(1-normVar) + 0.25*(1-saturation) + 0.20*confMean)

	coverage := fraction(series, func(v float64) bool { return v > 0.1 })
	alertAssoc := clamp(opts.AlertAssoc)
	strainRed := clamp((opts.StrainReduction + 1) / 2)
	utility := clamp(0.45*coverage + 0.35*alertAssoc + 0.20*strainRed)

	failure := clamp(0.6*clamp(goldenFP) + 0.4*clamp(goldenFN))

	promotion := clamp(0.5*stability + 0.4*utility - 0.6*failure)

	scores := Scores{
		Stability: stability,
		Utility:   utility,
		Failure:   failure,
		Promotion: promotion,
	}

	blockers := []string{}
	if len(series) < MinShadowRuns {
		blockers = append(blockers, BlockerInsufficientRuns)
	}
	if stability < MinStability {
		blockers = append(blockers, BlockerStability)
	}
	if utility < MinUtility {
		blockers = append(blockers, BlockerUtility)
	}
	if failure > MaxFailure {
		blockers = append(blockers, BlockerFailure)
	}
	if promotion < MinPromotionScore {
		blockers = append(blockers, BlockerPromotionScore)
	}

	return scores, blockers
}

// sampleVariance returns the n-1 sample variance of values, 0 for fewer
// than two samples.
func sampleVariance(series []Sample) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, s := range series {
		sum += s.Value
	}
	mean := sum / float64(n)

	var ss float64
	for _, s := range series {
		d := s.Value - mean
		ss += d * d
	}
	return ss / float64(n-1)
}

func confidenceMean(series []Sample) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, s := range series {
		sum += s.Confidence
	}
	return sum / float64(len(series))
}

func fraction(series []Sample, pred func(float64) bool) float64 {
	if len(series) == 0 {
		return 0
	}
	count := 0
	for _, s := range series {
		if pred(s.Value) {
			count++
		}
	}
	return float64(count) / float64(len(series))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
