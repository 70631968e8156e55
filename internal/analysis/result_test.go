package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *Result {
	return &Result{
		SubjectID: "subj-1",
		Cognitive: Group{Name: "cognitive", Metrics: []Metric{
			{ID: "ncr", Value: 0.7, Version: "1.2.0"},
			{ID: "rfc", Value: 0.25, Version: "1.0.0"},
		}},
		Affective: Group{Name: "affective", Metrics: []Metric{
			{ID: "lfc", Value: 0.4},
		}},
		Behavioral: Group{Name: "behavioral", Metrics: []Metric{
			{ID: "gi", Value: 0.8, Version: "2.0.0"},
		}},
	}
}

func TestResult_Lookup(t *testing.T) {
	r := testResult()

	assert.InDelta(t, 0.7, r.Lookup("ncr"), 1e-9)
	assert.InDelta(t, 0.4, r.Lookup("lfc"), 1e-9)
	assert.InDelta(t, 0.8, r.Lookup("gi"), 1e-9)
	assert.Equal(t, 0.0, r.Lookup("absent"))
}

func TestResult_MetricVersions(t *testing.T) {
	versions := testResult().MetricVersions()

	assert.Equal(t, map[string]string{
		"ncr": "1.2.0",
		"rfc": "1.0.0",
		"gi":  "2.0.0",
	}, versions)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	doc := `{
		"subject_id": "subj-1",
		"generated_at": "2026-03-01T12:00:00Z",
		"cognitive": {"name": "cognitive", "metrics": [{"id": "ncr", "value": 0.5}]},
		"affective": {"name": "affective", "metrics": []},
		"behavioral": {"name": "behavioral", "metrics": []}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "subj-1", r.SubjectID)
	assert.InDelta(t, 0.5, r.Lookup("ncr"), 1e-9)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
