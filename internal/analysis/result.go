// Package analysis defines the computed behavioral signature consumed by
// signed export and alert derivation. Results are produced upstream; this
// package only models and reads them.
package analysis

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Metric is one named value inside a signature group.
type Metric struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
	Version    string  `json:"version,omitempty"`
}

// Group is a named collection of metrics.
type Group struct {
	Name    string   `json:"name"`
	Metrics []Metric `json:"metrics"`
}

// DecayContext carries per-source provenance weights describing how heavily
// each input source contributed to the result.
type DecayContext struct {
	Weights      map[string]float64 `json:"weights,omitempty"`
	HalfLifeDays float64            `json:"half_life_days,omitempty"`
}

// Result is a computed behavioral signature: three metric groups plus the
// decay context of its sources.
type Result struct {
	SubjectID   string       `json:"subject_id"`
	RunID       string       `json:"run_id,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Cognitive   Group        `json:"cognitive"`
	Affective   Group        `json:"affective"`
	Behavioral  Group        `json:"behavioral"`
	Decay       DecayContext `json:"decay,omitempty"`
}

// Groups returns the three metric groups in declaration order.
func (r *Result) Groups() []Group {
	return []Group{r.Cognitive, r.Affective, r.Behavioral}
}

// Lookup returns the value of the metric with the given identifier,
// searching all three groups. Absent metrics read as 0.
func (r *Result) Lookup(metricID string) float64 {
	for _, g := range r.Groups() {
		for _, m := range g.Metrics {
			if m.ID == metricID {
				return m.Value
			}
		}
	}
	return 0
}

// MetricVersions flattens per-metric version tags across all groups.
func (r *Result) MetricVersions() map[string]string {
	versions := make(map[string]string)
	for _, g := range r.Groups() {
		for _, m := range g.Metrics {
			if m.Version != "" {
				versions[m.ID] = m.Version
			}
		}
	}
	return versions
}

// Load reads a result from a JSON file.
func Load(path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: read result %s", path)
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, eris.Wrapf(err, "analysis: parse result %s", path)
	}
	return &r, nil
}
