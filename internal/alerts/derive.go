// Package alerts derives advisory alerts from a computed behavioral
// signature. Derivation is a pure rule set: no state, no I/O.
package alerts

import (
	"fmt"
	"time"

	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
)

// Severity orders alerts for presentation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityNotice   Severity = "notice"
)

// Alert is one advisory produced by a rule.
type Alert struct {
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Actions  []string  `json:"actions,omitempty"`
	At       time.Time `json:"at"`
}

// Alert codes, one per rule.
const (
	CodeSelfReinforcingLoop = "self_reinforcing_loop"
	CodeCreativeIgnition    = "creative_ignition"
	CodeBurnoutRisk         = "burnout_risk"
	CodeResilientLearning   = "resilient_learning"
)

// Derive evaluates all rules against the signature. Rules are independent
// and not mutually exclusive; output order is rule-declaration order.
// Metrics absent from the signature read as 0.
func Derive(result *analysis.Result) []Alert {
	ncr := result.Lookup("ncr")
	rcf := result.Lookup("rcf")
	rfc := result.Lookup("rfc")
	gi := result.Lookup("gi")
	lfc := result.Lookup("lfc")

	now := time.Now().UTC()
	var alerts []Alert

	if ncr >= 0.70 && rcf >= 0.70 && rfc <= 0.30 {
		alerts = append(alerts, Alert{
			Code:     CodeSelfReinforcingLoop,
			Severity: SeverityCritical,
			Message: fmt.Sprintf(
				"High novelty compulsion (%.2f) and recursive fixation (%.2f) with low reframing capacity (%.2f) indicate a self-reinforcing loop",
				ncr, rcf, rfc),
			Actions: []string{
				"introduce external feedback sources",
				"schedule a reframing review",
			},
			At: now,
		})
	}

	if ncr >= 0.65 && gi >= 0.65 {
		alerts = append(alerts, Alert{
			Code:     CodeCreativeIgnition,
			Severity: SeverityWarning,
			Message: fmt.Sprintf(
				"Novelty compulsion (%.2f) and generativity (%.2f) are both elevated: creative ignition phase",
				ncr, gi),
			Actions: []string{
				"capture output while the phase lasts",
				"watch for fixation onset",
			},
			At: now,
		})
	}

	if lfc >= 0.70 && gi <= 0.35 {
		alerts = append(alerts, Alert{
			Code:     CodeBurnoutRisk,
			Severity: SeverityNotice,
			Message: fmt.Sprintf(
				"Load fatigue (%.2f) is high while generativity (%.2f) is low: burnout risk",
				lfc, gi),
			Actions: []string{
				"reduce load",
				"re-evaluate after a recovery window",
			},
			At: now,
		})
	}

	if rfc >= 0.60 && gi >= 0.60 {
		alerts = append(alerts, Alert{
			Code:     CodeResilientLearning,
			Severity: SeverityNotice,
			Message: fmt.Sprintf(
				"Reframing capacity (%.2f) and generativity (%.2f) are both strong: resilient learning pattern",
				rfc, gi),
			Actions: []string{
				"no intervention needed",
			},
			At: now,
		})
	}

	return alerts
}
