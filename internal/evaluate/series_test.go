package evaluate

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		series  []Sample
		wantErr bool
	}{
		{"empty", nil, false},
		{"in range", []Sample{{Value: 0.5, Confidence: 0.9}}, false},
		{"boundaries", []Sample{{Value: 0, Confidence: 1}}, false},
		{"value too high", []Sample{{Value: 1.1, Confidence: 0.5}}, true},
		{"value negative", []Sample{{Value: -0.1, Confidence: 0.5}}, true},
		{"confidence too high", []Sample{{Value: 0.5, Confidence: 2}}, true},
		{"NaN value", []Sample{{Value: math.NaN(), Confidence: 0.5}}, true},
		{"Inf confidence", []Sample{{Value: 0.5, Confidence: math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.series)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"value":0.4,"confidence":0.8},{"value":0.6,"confidence":0.7}]`), 0o644))

	series, err := LoadSeries(path)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.InDelta(t, 0.4, series[0].Value, 1e-9)
}

func TestLoadSeries_RejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"value":7,"confidence":0.8}]`), 0o644))

	_, err := LoadSeries(path)
	assert.ErrorContains(t, err, "outside [0,1]")
}

func TestLoadSeries_RejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))

	_, err := LoadSeries(path)
	assert.Error(t, err)
}
