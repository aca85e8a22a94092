// Package models defines the configuration entities and runtime types for
// interview evaluation: competency dimensions, red flags, scoring rules,
// decision rules, and the per-evaluation inputs and outputs they produce.
package models

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Severity represents a red flag's risk severity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

func (s Severity) String() string {
	return string(s)
}

// Valid reports whether s is one of the four known severity levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast returns true if s is at or above the target severity.
func (s Severity) AtLeast(target Severity) bool {
	return severityRank[s] >= severityRank[target]
}

// ParseSeverity converts a string value to a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return SeverityLow, fmt.Errorf("invalid severity %q: must be low, medium, high, or critical", s)
	}
	return sev, nil
}

// DetectionMethod identifies how a red flag is detected.
type DetectionMethod string

const (
	// DetectionPhraseMatch matches literal trigger phrases against answer
	// text, case-insensitively.
	DetectionPhraseMatch DetectionMethod = "phrase_match"
	// DetectionPatternAnalysis delegates to an external classifier. The
	// deterministic core never matches these flags on its own.
	DetectionPatternAnalysis DetectionMethod = "pattern_analysis"
	// DetectionCrossReference compares the same extracted fact across
	// answers and matches on disagreement.
	DetectionCrossReference DetectionMethod = "cross_reference"
)

// ScoreType distinguishes competency-derived scores from risk scores.
type ScoreType string

const (
	ScoreTypePrimary ScoreType = "primary"
	ScoreTypeRisk    ScoreType = "risk"
)

// CompetencyDimension is a named evaluable trait, e.g. "communication".
// Dimensions are reference data: loaded once, never mutated at evaluation time.
type CompetencyDimension struct {
	Code          string            `yaml:"code" json:"code"`
	WeightDefault float64           `yaml:"weight_default,omitempty" json:"weight_default,omitempty"`
	Descriptions  map[string]string `yaml:"descriptions,omitempty" json:"descriptions,omitempty"`
}

// Description returns the dimension description best matching the requested
// BCP 47 locale, falling back to English and then to any available locale.
func (d CompetencyDimension) Description(locale string) string {
	if len(d.Descriptions) == 0 {
		return ""
	}

	tags := make([]language.Tag, 0, len(d.Descriptions)+1)
	keys := make([]string, 0, len(d.Descriptions))
	tags = append(tags, language.English)
	keys = append(keys, "en")
	for _, k := range sortedKeys(d.Descriptions) {
		if k == "en" {
			continue
		}
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		keys = append(keys, k)
	}

	matcher := language.NewMatcher(tags)
	_, idx, _ := matcher.Match(language.Make(locale))
	if desc, ok := d.Descriptions[keys[idx]]; ok && desc != "" {
		return desc
	}
	if desc, ok := d.Descriptions["en"]; ok {
		return desc
	}
	for _, k := range sortedKeys(d.Descriptions) {
		return d.Descriptions[k]
	}
	return ""
}

// ScoreImpact is one signed delta a triggered red flag applies to a named score.
type ScoreImpact struct {
	Target string `json:"target"`
	Delta  int    `json:"delta"`
}

// RedFlag is a named risk pattern detected from transcript text.
type RedFlag struct {
	Code               string          `yaml:"code" json:"code"`
	Severity           Severity        `yaml:"severity" json:"severity"`
	DetectionMethod    DetectionMethod `yaml:"detection_method" json:"detection_method"`
	TriggerPhrases     []string        `yaml:"trigger_phrases,omitempty" json:"trigger_phrases,omitempty"`
	BehavioralPatterns []string        `yaml:"behavioral_patterns,omitempty" json:"behavioral_patterns,omitempty"`

	// Params carries detection-method-specific settings (e.g. the fact keys
	// a cross_reference flag compares). Decoded by the detector.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// Impact maps score names to signed deltas applied when this flag triggers.
	Impact map[string]int `yaml:"impact,omitempty" json:"impact,omitempty"`

	CausesAutoReject bool `yaml:"causes_auto_reject,omitempty" json:"causes_auto_reject,omitempty"`

	// MaxScoreOverride caps overall_score when this flag triggers. Nil means
	// no cap.
	MaxScoreOverride *int `yaml:"max_score_override,omitempty" json:"max_score_override,omitempty"`
}

// Impacts returns the flag's impact map as a deterministic, target-sorted
// list of typed deltas.
func (f RedFlag) Impacts() []ScoreImpact {
	impacts := make([]ScoreImpact, 0, len(f.Impact))
	for _, target := range sortedKeys(f.Impact) {
		impacts = append(impacts, ScoreImpact{Target: target, Delta: f.Impact[target]})
	}
	return impacts
}

// ScoringRule defines how one named score is computed.
type ScoringRule struct {
	Code               string    `yaml:"code" json:"code"`
	ScoreType          ScoreType `yaml:"score_type" json:"score_type"`
	SourceCompetencies []string  `yaml:"source_competencies,omitempty" json:"source_competencies,omitempty"`
	Formula            string    `yaml:"formula" json:"formula"`

	// WeightPercent is this rule's share of overall_score. Only meaningful
	// for primary rules; the shares must sum to exactly 100.
	WeightPercent int `yaml:"weight_percent,omitempty" json:"weight_percent,omitempty"`

	MinValue *int `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue *int `yaml:"max_value,omitempty" json:"max_value,omitempty"`

	// Thresholds apply to risk rules only.
	WarningThreshold  *int `yaml:"warning_threshold,omitempty" json:"warning_threshold,omitempty"`
	CriticalThreshold *int `yaml:"critical_threshold,omitempty" json:"critical_threshold,omitempty"`
}

// Bounds returns the clamp range for this rule, defaulting to [0, 100].
func (r ScoringRule) Bounds() (minValue, maxValue int) {
	minValue, maxValue = 0, 100
	if r.MinValue != nil {
		minValue = *r.MinValue
	}
	if r.MaxValue != nil {
		maxValue = *r.MaxValue
	}
	return minValue, maxValue
}

// DecisionRule maps the score space to a terminal decision. Rules are
// evaluated in ascending Priority order; all conditions must hold.
type DecisionRule struct {
	Decision   string   `yaml:"decision" json:"decision"`
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Priority   int      `yaml:"priority" json:"priority"`
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
