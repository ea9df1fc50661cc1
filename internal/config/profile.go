package config

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/talentops/pricing-engine/internal/model"
)

// WeightProfile assigns a trust weight to every configured source. Profiles
// are injected into the orchestrator at construction time so multiple
// profiles (e.g. per-market) can coexist.
type WeightProfile struct {
	Name    string                       `yaml:"name"`
	Weights map[model.SourceName]float64 `yaml:"weights"`
}

// weightSumTolerance absorbs float noise when asserting the sum-to-one
// invariant on load.
const weightSumTolerance = 1e-9

// DefaultWeightProfile returns the built-in source weighting.
func DefaultWeightProfile() WeightProfile {
	return WeightProfile{
		Name: "default",
		Weights: map[model.SourceName]float64{
			model.SourceBenchmarkSurvey:   0.40,
			model.SourceListingsPrimary:   0.25,
			model.SourceListingsSecondary: 0.15,
			model.SourceInternalRecords:   0.15,
			model.SourceApplicantRecords:  0.05,
		},
	}
}

// Validate asserts the load-time invariants: the profile names exactly the
// configured source set and its weights sum to 1.0.
func (p WeightProfile) Validate() error {
	if p.Name == "" {
		return eris.New("weights: profile name is required")
	}

	expected := model.AllSources()
	if len(p.Weights) != len(expected) {
		return eris.Errorf("weights: profile %q has %d sources, want %d", p.Name, len(p.Weights), len(expected))
	}

	var sum float64
	for _, src := range expected {
		w, ok := p.Weights[src]
		if !ok {
			return eris.Errorf("weights: profile %q is missing source %q", p.Name, src)
		}
		if w <= 0 || w > 1 {
			return eris.Errorf("weights: profile %q source %q weight %v out of (0,1]", p.Name, src, w)
		}
		sum += w
	}

	if math.Abs(sum-1.0) > weightSumTolerance {
		return eris.Errorf("weights: profile %q weights sum to %v, want 1.0", p.Name, sum)
	}

	return nil
}

// Weight returns the configured weight for a source. Contributions look
// their weight up by name; it is never computed at runtime.
func (p WeightProfile) Weight(src model.SourceName) float64 {
	return p.Weights[src]
}

// LoadWeightProfiles reads named weight profiles from a YAML file.
// Every profile is validated on load.
func LoadWeightProfiles(path string) (map[string]WeightProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "weights: read profile file %s", path)
	}

	var wrapper struct {
		Profiles []WeightProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "weights: parse profile file")
	}

	profiles := make(map[string]WeightProfile, len(wrapper.Profiles))
	for _, p := range wrapper.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles[p.Name] = p
	}

	return profiles, nil
}

// ResolveWeightProfile returns the active profile for the given weights
// config: the built-in default, or a named profile from the profile file.
func ResolveWeightProfile(cfg WeightsConfig) (WeightProfile, error) {
	if cfg.Profile == "" || cfg.Profile == "default" {
		return DefaultWeightProfile(), nil
	}
	if cfg.ProfilePath == "" {
		return WeightProfile{}, eris.Errorf("weights: profile %q requested but no profile_path configured", cfg.Profile)
	}

	profiles, err := LoadWeightProfiles(cfg.ProfilePath)
	if err != nil {
		return WeightProfile{}, err
	}
	p, ok := profiles[cfg.Profile]
	if !ok {
		return WeightProfile{}, eris.Errorf("weights: profile %q not found in %s", cfg.Profile, cfg.ProfilePath)
	}
	return p, nil
}
