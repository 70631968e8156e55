package evaluate

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// ValidateSeries rejects malformed samples at the boundary so the scoring
// formulas stay total over their input.
func ValidateSeries(series []Sample) error {
	for i, s := range series {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) || s.Value < 0 || s.Value > 1 {
			return eris.Errorf("evaluate: sample %d: value %v outside [0,1]", i, s.Value)
		}
		if math.IsNaN(s.Confidence) || math.IsInf(s.Confidence, 0) || s.Confidence < 0 || s.Confidence > 1 {
			return eris.Errorf("evaluate: sample %d: confidence %v outside [0,1]", i, s.Confidence)
		}
	}
	return nil
}

// LoadSeries reads a shadow-run series from a JSON file holding an array of
// samples, validating every sample.
func LoadSeries(path string) ([]Sample, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evaluate: read series %s", path)
	}

	var series []Sample
	if err := json.Unmarshal(b, &series); err != nil {
		return nil, eris.Wrapf(err, "evaluate: parse series %s", path)
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	return series, nil
}
