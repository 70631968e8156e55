// Package proposal owns candidate-metric records and the lifecycle rules
// governing their status transitions.
package proposal

import "time"

// Status is the review state of a candidate metric.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusInShadow       Status = "in_shadow"
	StatusNeedsMoreData  Status = "needs_more_data"
	StatusReadyToPromote Status = "ready_to_promote"
	StatusPromoted       Status = "promoted"
	StatusDeprecated     Status = "deprecated"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusApproved, StatusRejected, StatusInShadow,
		StatusNeedsMoreData, StatusReadyToPromote, StatusPromoted, StatusDeprecated:
		return true
	}
	return false
}

// Payload is the candidate metric definition under review.
type Payload struct {
	WorkingName    string   `json:"working_name"`
	MetricID       string   `json:"metric_id"`
	Axis           string   `json:"axis"`
	RequiredInputs []string `json:"required_inputs,omitempty"`
	ValidationPlan string   `json:"validation_plan,omitempty"`
}

// Provenance kinds attached to a record during governance operations.
const (
	ProvenanceRegistryState  = "registry_state"
	ProvenanceProposalHash   = "proposal_payload"
	ProvenancePromotionPatch = "promotion_patch"
)

// Provenance is one typed audit entry. The list on a record is append-only,
// so a decision can later be checked against the exact catalog snapshot it
// was made under.
type Provenance struct {
	Kind string    `json:"kind"`
	Hash string    `json:"hash,omitempty"`
	Ref  string    `json:"ref,omitempty"`
	At   time.Time `json:"at"`
}

// EvalSnapshot is the most recent shadow-run evaluation attached to a record.
// ShadowRuns must match the series length the scores were computed from.
type EvalSnapshot struct {
	EvaluatedAt time.Time `json:"evaluated_at"`
	ShadowRuns  int       `json:"shadow_runs"`
	Stability   float64   `json:"stability"`
	Utility     float64   `json:"utility"`
	Failure     float64   `json:"failure"`
	Promotion   float64   `json:"promotion"`
	Blockers    []string  `json:"blockers"`
}

// Record is a candidate metric under review. ID is immutable once created
// and Notes/Provenance never shrink.
type Record struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Status     Status        `json:"status"`
	Payload    Payload       `json:"payload"`
	Owner      string        `json:"owner,omitempty"`
	Notes      []string      `json:"notes,omitempty"`
	Provenance []Provenance  `json:"provenance,omitempty"`
	Eval       *EvalSnapshot `json:"eval,omitempty"`
}

// AppendNote adds a free-text note. Notes are append-only.
func (r *Record) AppendNote(note string) {
	r.Notes = append(r.Notes, note)
}

// AppendProvenance adds a typed provenance entry.
func (r *Record) AppendProvenance(p Provenance) {
	r.Provenance = append(r.Provenance, p)
}
