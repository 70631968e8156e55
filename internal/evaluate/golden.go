package evaluate

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// GoldenCase is one hand-labeled example: the expected behavior of the
// candidate metric and the value it actually produced.
type GoldenCase struct {
	ID       string  `yaml:"id"`
	Expected string  `yaml:"expected"` // high, low or ambiguous
	Observed float64 `yaml:"observed"`
}

// GoldenSet is the YAML document format for labeled test outcomes.
type GoldenSet struct {
	// FireThreshold is the observed value at or above which the metric is
	// considered to have fired. Defaults to 0.5.
	FireThreshold float64      `yaml:"fire_threshold"`
	Cases         []GoldenCase `yaml:"cases"`
}

// Rates computes false-positive and false-negative rates over the labeled
// cases. A false positive is an expected-low case that fired; a false
// negative is an expected-high case that did not. Ambiguous cases are
// excluded from both denominators.
func (g *GoldenSet) Rates() (fp, fn float64) {
	threshold := g.FireThreshold
	if threshold == 0 {
		threshold = 0.5
	}

	var lows, lowFired, highs, highQuiet int
	for _, c := range g.Cases {
		fired := c.Observed >= threshold
		switch c.Expected {
		case "low":
			lows++
			if fired {
				lowFired++
			}
		case "high":
			highs++
			if !fired {
				highQuiet++
			}
		}
	}

	if lows > 0 {
		fp = float64(lowFired) / float64(lows)
	}
	if highs > 0 {
		fn = float64(highQuiet) / float64(highs)
	}
	return fp, fn
}

// LoadGolden reads a golden-case file and returns its fp/fn rates.
func LoadGolden(path string) (fp, fn float64, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "evaluate: read golden %s", path)
	}

	var set GoldenSet
	if err := yaml.Unmarshal(b, &set); err != nil {
		return 0, 0, eris.Wrapf(err, "evaluate: parse golden %s", path)
	}
	for _, c := range set.Cases {
		switch c.Expected {
		case "high", "low", "ambiguous":
		default:
			return 0, 0, eris.Errorf("evaluate: golden case %s: unknown label %q", c.ID, c.Expected)
		}
	}

	fp, fn = set.Rates()
	return fp, fn, nil
}
