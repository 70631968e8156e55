package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
)

func signature(values map[string]float64) *analysis.Result {
	var metrics []analysis.Metric
	for id, v := range values {
		metrics = append(metrics, analysis.Metric{ID: id, Value: v})
	}
	return &analysis.Result{
		Cognitive: analysis.Group{Name: "cognitive", Metrics: metrics},
	}
}

func codes(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Code
	}
	return out
}

func TestDerive_SelfReinforcingLoop(t *testing.T) {
	alerts := Derive(signature(map[string]float64{
		"ncr": 0.75, "rcf": 0.72, "rfc": 0.2,
	}))

	require.NotEmpty(t, alerts)
	assert.Equal(t, CodeSelfReinforcingLoop, alerts[0].Code)
	assert.Equal(t, SeverityCritical, alerts[0].Severity)
	assert.NotEmpty(t, alerts[0].Actions)
}

func TestDerive_CreativeIgnition(t *testing.T) {
	alerts := Derive(signature(map[string]float64{
		"ncr": 0.66, "gi": 0.7,
	}))

	assert.Contains(t, codes(alerts), CodeCreativeIgnition)
}

func TestDerive_BurnoutRisk(t *testing.T) {
	alerts := Derive(signature(map[string]float64{
		"lfc": 0.75, "gi": 0.3,
	}))

	require.Len(t, alerts, 1)
	assert.Equal(t, CodeBurnoutRisk, alerts[0].Code)
	assert.Equal(t, SeverityNotice, alerts[0].Severity)
}

func TestDerive_ResilientLearning(t *testing.T) {
	alerts := Derive(signature(map[string]float64{
		"rfc": 0.65, "gi": 0.62,
	}))

	require.Len(t, alerts, 1)
	assert.Equal(t, CodeResilientLearning, alerts[0].Code)
}

func TestDerive_RulesFireIndependently(t *testing.T) {
	// High novelty, fixation and generativity with strong reframing:
	// ignition and resilient-learning both fire, in declaration order.
	alerts := Derive(signature(map[string]float64{
		"ncr": 0.8, "rcf": 0.8, "rfc": 0.65, "gi": 0.7,
	}))

	assert.Equal(t, []string{CodeCreativeIgnition, CodeResilientLearning}, codes(alerts))
}

func TestDerive_ThresholdBoundaries(t *testing.T) {
	// Exactly at thresholds: >= and <= are inclusive.
	alerts := Derive(signature(map[string]float64{
		"ncr": 0.70, "rcf": 0.70, "rfc": 0.30,
	}))
	assert.Contains(t, codes(alerts), CodeSelfReinforcingLoop)

	// Just off threshold: nothing fires.
	alerts = Derive(signature(map[string]float64{
		"ncr": 0.69, "rcf": 0.70, "rfc": 0.30,
	}))
	assert.NotContains(t, codes(alerts), CodeSelfReinforcingLoop)
}

func TestDerive_AbsentMetricsReadAsZero(t *testing.T) {
	alerts := Derive(&analysis.Result{})
	assert.Empty(t, alerts)
}
