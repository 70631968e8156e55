package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// noisySeries alternates 0 and 1: maximal variance and saturation.
func noisySeries(n int) []Sample {
	series := make([]Sample, n)
	for i := range series {
		v := 0.0
		if i%2 == 1 {
			v = 1.0
		}
		series[i] = Sample{Value: v, Confidence: 0.5}
	}
	return series
}

// steadySeries holds mid-range values with high confidence.
func steadySeries(n int) []Sample {
	series := make([]Sample, n)
	for i := range series {
		series[i] = Sample{Value: 0.5, Confidence: 0.9}
	}
	return series
}

func TestCompute_Deterministic(t *testing.T) {
	series := noisySeries(37)
	opts := Options{AlertAssoc: 0.3, StrainReduction: -0.2}

	s1, b1 := Compute(series, 0.1, 0.2, opts)
	s2, b2 := Compute(series, 0.1, 0.2, opts)

	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
}

func TestCompute_FailingCandidateAccumulatesAllBlockers(t *testing.T) {
	scores, blockers := Compute(noisySeries(10), 0.3, 0.3, Options{AlertAssoc: 0.5})

	assert.Less(t, scores.Stability, MinStability)
	assert.Greater(t, scores.Failure, MaxFailure)
	assert.Less(t, scores.Promotion, MinPromotionScore)

	assert.Contains(t, blockers, BlockerInsufficientRuns)
	assert.Contains(t, blockers, BlockerStability)
	assert.Contains(t, blockers, BlockerFailure)
	assert.Contains(t, blockers, BlockerPromotionScore)
}

func TestCompute_HealthyCandidatePasses(t *testing.T) {
	scores, blockers := Compute(steadySeries(60), 0.05, 0.05, Options{
		AlertAssoc:      0.8,
		StrainReduction: 0.5,
	})

	assert.Empty(t, blockers)
	assert.GreaterOrEqual(t, scores.Promotion, MinPromotionScore)
	assert.GreaterOrEqual(t, scores.Stability, 0.8)
	assert.GreaterOrEqual(t, scores.Utility, MinUtility)
	assert.InDelta(t, 0.05, scores.Failure, 1e-9)
}

func TestCompute_ScoreFormulas(t *testing.T) {
	// 60 steady samples: variance ~0, saturation 0, confMean 0.9.
	scores, _ := Compute(steadySeries(60), 0.1, 0.2, Options{
		AlertAssoc:      0.8,
		StrainReduction: 0.5,
	})

	// stability = 0.55*1 + 0.25*1 + 0.20*0.9
	assert.InDelta(t, 0.98, scores.Stability, 1e-9)
	// utility = 0.45*1 + 0.35*0.8 + 0.20*0.75
	assert.InDelta(t, 0.88, scores.Utility, 1e-9)
	// failure = 0.6*0.1 + 0.4*0.2
	assert.InDelta(t, 0.14, scores.Failure, 1e-9)
	// promotion = 0.5*0.98 + 0.4*0.88 - 0.6*0.14
	assert.InDelta(t, 0.758, scores.Promotion, 1e-9)
}

func TestCompute_EmptySeries(t *testing.T) {
	scores, blockers := Compute(nil, 0, 0, Options{})

	// variance, saturation and confMean all default to 0.
	assert.InDelta(t, 0.8, scores.Stability, 1e-9)
	assert.InDelta(t, 0.1, scores.Utility, 1e-9) // strainRed rescales to 0.5
	assert.Contains(t, blockers, BlockerInsufficientRuns)
	assert.Contains(t, blockers, BlockerUtility)
}

func TestCompute_ClampsInputs(t *testing.T) {
	scores, _ := Compute(steadySeries(60), 3.0, -1.0, Options{
		AlertAssoc:      5.0,
		StrainReduction: 9.0,
	})

	assert.LessOrEqual(t, scores.Failure, 1.0)
	assert.GreaterOrEqual(t, scores.Failure, 0.0)
	assert.LessOrEqual(t, scores.Utility, 1.0)
	// fp clamps to 1, fn to 0: failure = 0.6.
	assert.InDelta(t, 0.6, scores.Failure, 1e-9)
}

func TestCompute_NegativePromotionClampsToZero(t *testing.T) {
	scores, blockers := Compute(noisySeries(4), 1.0, 1.0, Options{})
	assert.Equal(t, 0.0, scores.Promotion)
	assert.Contains(t, blockers, BlockerPromotionScore)
}
