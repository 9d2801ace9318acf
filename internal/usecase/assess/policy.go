package assess

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the scoring constants: the per-provider weight table, the
// score-to-level thresholds and the notable-finding cutoff. The values were
// tuned by hand, which is exactly why they live in data rather than code; a
// deployment can override any of them from a YAML file.
type Policy struct {
	Weights       map[string]float64 `yaml:"weights"`
	DefaultWeight float64            `yaml:"default_weight"`
	NotableScore  int                `yaml:"notable_score"`
	Levels        LevelThresholds    `yaml:"levels"`

	// SevereScore marks a single contribution as a confirmed detection
	// even when the provider set no categorical flag.
	SevereScore int `yaml:"severe_score"`
	// SevereFloor is the minimum consensus score once any weighted
	// provider confirms a phishing, malware or credential finding. One
	// trusted detection must not be averaged into obscurity by a crowd
	// of clean answers. Zero disables the floor.
	SevereFloor int `yaml:"severe_floor"`
}

// LevelThresholds maps scores to discrete risk levels. A score at or above
// a bound classifies at that level.
type LevelThresholds struct {
	VeryHigh int `yaml:"very_high"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
	Low      int `yaml:"low"`
}

// DefaultPolicy returns the built-in scoring policy. Weights sum to 1.0
// across all providers; the highest-trust sources carry the most weight.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			"safebrowsing": 0.20,
			"urlscore":     0.18,
			"phishtank":    0.15,
			"urlhaus":      0.12,
			"webrep":       0.10,
			"otx":          0.08,
			"iprep":        0.07,
			"regional":     0.05,
			"breachwatch":  0.05,
		},
		DefaultWeight: 0.05,
		NotableScore:  60,
		SevereScore:   85,
		SevereFloor:   40,
		Levels: LevelThresholds{
			VeryHigh: 80,
			High:     60,
			Medium:   40,
			Low:      20,
		},
	}
}

// LoadPolicy reads a YAML policy file over the defaults. Missing keys keep
// their default values; an empty path returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}

	// Negative weights would invert the consensus; refuse them.
	for id, w := range policy.Weights {
		if w < 0 {
			return policy, fmt.Errorf("policy weight for %s is negative", id)
		}
	}
	if policy.DefaultWeight <= 0 {
		policy.DefaultWeight = DefaultPolicy().DefaultWeight
	}

	return policy, nil
}

// weightFor resolves a provider's scoring weight, falling back to the
// default only for providers absent from the table. An explicit zero is a
// legitimate way to silence a provider and is honored as-is.
func (p Policy) weightFor(providerID string) float64 {
	if w, ok := p.Weights[providerID]; ok {
		return w
	}
	return p.DefaultWeight
}
