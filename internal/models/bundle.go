package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigBundle is the complete engine configuration loaded from a single
// YAML file: dimensions, red flags, scoring rules, and decision rules.
// Bundles are read-only for the lifetime of the process; a reload is a new
// bundle compiled into a new snapshot, never an in-place mutation.
type ConfigBundle struct {
	Version       string                `yaml:"version,omitempty" json:"version,omitempty"`
	Dimensions    []CompetencyDimension `yaml:"dimensions" json:"dimensions"`
	RedFlags      []RedFlag             `yaml:"red_flags" json:"red_flags"`
	ScoringRules  []ScoringRule         `yaml:"scoring_rules" json:"scoring_rules"`
	DecisionRules []DecisionRule        `yaml:"decision_rules" json:"decision_rules"`
}

// LoadBundle loads a configuration bundle from a YAML file.
func LoadBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBundle(data)
}

// ParseBundle unmarshals and structurally validates raw bundle YAML.
func ParseBundle(data []byte) (*ConfigBundle, error) {
	var bundle ConfigBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing config bundle: %w", err)
	}

	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	return &bundle, nil
}

// Validate checks structural invariants that don't require compilation:
// non-empty entity sets, unique codes, known enum values. Semantic
// invariants (weight sums, formula references, catch-all rules) are
// enforced when the bundle is compiled into a snapshot.
func (b *ConfigBundle) Validate() error {
	if len(b.Dimensions) == 0 {
		return fmt.Errorf("config bundle has no dimensions")
	}
	if len(b.ScoringRules) == 0 {
		return fmt.Errorf("config bundle has no scoring rules")
	}
	if len(b.DecisionRules) == 0 {
		return fmt.Errorf("config bundle has no decision rules")
	}

	seenDims := map[string]bool{}
	for _, d := range b.Dimensions {
		if d.Code == "" {
			return fmt.Errorf("dimension with empty code")
		}
		if seenDims[d.Code] {
			return fmt.Errorf("duplicate dimension code %q", d.Code)
		}
		seenDims[d.Code] = true
	}

	seenFlags := map[string]bool{}
	for _, f := range b.RedFlags {
		if f.Code == "" {
			return fmt.Errorf("red flag with empty code")
		}
		if seenFlags[f.Code] {
			return fmt.Errorf("duplicate red flag code %q", f.Code)
		}
		seenFlags[f.Code] = true

		if !f.Severity.Valid() {
			return fmt.Errorf("red flag %s: invalid severity %q", f.Code, f.Severity)
		}
		switch f.DetectionMethod {
		case DetectionPhraseMatch, DetectionPatternAnalysis, DetectionCrossReference:
		default:
			return fmt.Errorf("red flag %s: invalid detection_method %q", f.Code, f.DetectionMethod)
		}
	}

	seenRules := map[string]bool{}
	for _, r := range b.ScoringRules {
		if r.Code == "" {
			return fmt.Errorf("scoring rule with empty code")
		}
		if seenRules[r.Code] {
			return fmt.Errorf("duplicate scoring rule code %q", r.Code)
		}
		seenRules[r.Code] = true

		switch r.ScoreType {
		case ScoreTypePrimary, ScoreTypeRisk:
		default:
			return fmt.Errorf("scoring rule %s: invalid score_type %q", r.Code, r.ScoreType)
		}
		if r.Formula == "" {
			return fmt.Errorf("scoring rule %s: empty formula", r.Code)
		}
		minValue, maxValue := r.Bounds()
		if minValue > maxValue {
			return fmt.Errorf("scoring rule %s: min_value %d exceeds max_value %d", r.Code, minValue, maxValue)
		}
		if r.ScoreType == ScoreTypePrimary && (r.WarningThreshold != nil || r.CriticalThreshold != nil) {
			return fmt.Errorf("scoring rule %s: thresholds are only valid on risk rules", r.Code)
		}
	}

	seenDecisions := map[string]bool{}
	seenPriorities := map[int]string{}
	for _, d := range b.DecisionRules {
		if d.Decision == "" {
			return fmt.Errorf("decision rule with empty decision label")
		}
		if seenDecisions[d.Decision] {
			return fmt.Errorf("duplicate decision label %q", d.Decision)
		}
		seenDecisions[d.Decision] = true

		if other, taken := seenPriorities[d.Priority]; taken {
			return fmt.Errorf("decision rules %q and %q share priority %d", other, d.Decision, d.Priority)
		}
		seenPriorities[d.Priority] = d.Decision
	}

	return nil
}

// Dimension returns the dimension with the given code, if present.
func (b *ConfigBundle) Dimension(code string) (CompetencyDimension, bool) {
	for _, d := range b.Dimensions {
		if d.Code == code {
			return d, true
		}
	}
	return CompetencyDimension{}, false
}

// RedFlag returns the red flag with the given code, if present.
func (b *ConfigBundle) RedFlag(code string) (RedFlag, bool) {
	for _, f := range b.RedFlags {
		if f.Code == code {
			return f, true
		}
	}
	return RedFlag{}, false
}

// ScoreNames returns every score name the bundle's scoring rules produce,
// plus the reserved overall score name.
func (b *ConfigBundle) ScoreNames() map[string]ScoreType {
	names := make(map[string]ScoreType, len(b.ScoringRules)+1)
	for _, r := range b.ScoringRules {
		names[r.Code] = r.ScoreType
	}
	names[OverallScoreName] = ScoreTypePrimary
	return names
}
