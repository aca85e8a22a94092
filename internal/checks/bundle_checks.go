package checks

import (
	"fmt"
	"strings"

	"github.com/hiregate/hiregate/internal/decision"
	"github.com/hiregate/hiregate/internal/formula"
	"github.com/hiregate/hiregate/internal/models"
	"github.com/hiregate/hiregate/internal/validation"
)

// SchemaChecker validates the raw bundle YAML against the embedded JSON
// Schema.
type SchemaChecker struct{}

var _ Checker = (*SchemaChecker)(nil)

func (c *SchemaChecker) Name() string { return "schema" }

func (c *SchemaChecker) Check(input *Input) *CheckResult {
	errs := validation.ValidateBundleBytes(input.Raw)
	if len(errs) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: fmt.Sprintf("Schema: %d violation(s)", len(errs)),
			Details: errs,
		}
	}
	return &CheckResult{Name: c.Name(), Passed: true, Summary: "Schema: OK"}
}

// WeightSumChecker verifies that primary scoring rule weights sum to exactly
// 100. Anything else corrupts overall_score normalization and must block
// deployment.
type WeightSumChecker struct{}

var _ Checker = (*WeightSumChecker)(nil)

func (c *WeightSumChecker) Name() string { return "weight-sum" }

func (c *WeightSumChecker) Check(input *Input) *CheckResult {
	if input.Bundle == nil {
		return skipped(c.Name())
	}

	sum := 0
	var details []string
	for _, rule := range input.Bundle.ScoringRules {
		if rule.ScoreType != models.ScoreTypePrimary {
			continue
		}
		sum += rule.WeightPercent
		details = append(details, fmt.Sprintf("%s: %d%%", rule.Code, rule.WeightPercent))
	}

	if sum != 100 {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: fmt.Sprintf("Weights: primary rules sum to %d, expected 100", sum),
			Details: details,
		}
	}
	return &CheckResult{Name: c.Name(), Passed: true, Summary: "Weights: sum to 100"}
}

// FormulaChecker parses every formula and verifies its references: each
// competency must appear in the rule's source_competencies and exist as a
// dimension, each red flag code must exist, and from_red_flags is reserved
// for risk rules.
type FormulaChecker struct{}

var _ Checker = (*FormulaChecker)(nil)

func (c *FormulaChecker) Name() string { return "formulas" }

func (c *FormulaChecker) Check(input *Input) *CheckResult {
	if input.Bundle == nil {
		return skipped(c.Name())
	}

	dims := map[string]bool{}
	for _, d := range input.Bundle.Dimensions {
		dims[d.Code] = true
	}
	flags := map[string]bool{}
	for _, f := range input.Bundle.RedFlags {
		flags[f.Code] = true
	}

	var problems []string
	for _, rule := range input.Bundle.ScoringRules {
		expr, err := formula.Parse(rule.Formula)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", rule.Code, err))
			continue
		}

		sources := map[string]bool{}
		for _, code := range rule.SourceCompetencies {
			sources[code] = true
			if !dims[code] {
				problems = append(problems, fmt.Sprintf("%s: source competency %q is not a configured dimension", rule.Code, code))
			}
		}
		for _, code := range expr.CompetencyRefs() {
			if !sources[code] {
				problems = append(problems, fmt.Sprintf("%s: formula references %q outside source_competencies", rule.Code, code))
			}
		}
		for _, code := range expr.FlagRefs() {
			if !flags[code] {
				problems = append(problems, fmt.Sprintf("%s: formula references unknown red flag %q", rule.Code, code))
			}
		}
		if rule.ScoreType == models.ScoreTypePrimary && len(expr.FlagRefs()) > 0 {
			problems = append(problems, fmt.Sprintf("%s: from_red_flags is not allowed in primary formulas", rule.Code))
		}
	}

	if len(problems) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: fmt.Sprintf("Formulas: %d problem(s)", len(problems)),
			Details: problems,
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Passed:  true,
		Summary: fmt.Sprintf("Formulas: %d rule(s) parse and resolve", len(input.Bundle.ScoringRules)),
	}
}

// ImpactTargetChecker verifies that every red flag impact delta targets a
// score name some scoring rule produces. A typo here would silently no-op at
// runtime, which is exactly what this check exists to catch.
type ImpactTargetChecker struct{}

var _ Checker = (*ImpactTargetChecker)(nil)

func (c *ImpactTargetChecker) Name() string { return "impact-targets" }

func (c *ImpactTargetChecker) Check(input *Input) *CheckResult {
	if input.Bundle == nil {
		return skipped(c.Name())
	}

	scoreNames := input.Bundle.ScoreNames()
	// Deltas never target overall_score; only max_score_override touches it.
	delete(scoreNames, models.OverallScoreName)

	var problems []string
	for _, flag := range input.Bundle.RedFlags {
		for _, impact := range flag.Impacts() {
			if _, ok := scoreNames[impact.Target]; !ok {
				problems = append(problems, fmt.Sprintf("%s: impact targets unknown score %q", flag.Code, impact.Target))
			}
		}
	}

	if len(problems) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: fmt.Sprintf("Impact targets: %d unknown score name(s)", len(problems)),
			Details: problems,
		}
	}
	return &CheckResult{Name: c.Name(), Passed: true, Summary: "Impact targets: all resolve"}
}

// DecisionRuleChecker compiles the decision rules: every condition must
// parse, and a catch-all rule must exist so evaluation never falls through.
type DecisionRuleChecker struct{}

var _ Checker = (*DecisionRuleChecker)(nil)

func (c *DecisionRuleChecker) Name() string { return "decision-rules" }

func (c *DecisionRuleChecker) Check(input *Input) *CheckResult {
	if input.Bundle == nil {
		return skipped(c.Name())
	}

	_, err := decision.New(input.Bundle.DecisionRules, input.Bundle.ScoreNames())
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: "Decision rules: invalid",
			Details: []string{err.Error()},
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Passed:  true,
		Summary: fmt.Sprintf("Decision rules: %d rule(s), catch-all present", len(input.Bundle.DecisionRules)),
	}
}

// PhraseHygieneChecker flags sloppy trigger phrase configuration: empty or
// duplicate phrases within a flag. It also surfaces pattern_analysis flags,
// which depend on an external classifier and are inert without one.
type PhraseHygieneChecker struct{}

var _ Checker = (*PhraseHygieneChecker)(nil)

func (c *PhraseHygieneChecker) Name() string { return "phrase-hygiene" }

func (c *PhraseHygieneChecker) Check(input *Input) *CheckResult {
	if input.Bundle == nil {
		return skipped(c.Name())
	}

	var problems, notes []string
	for _, flag := range input.Bundle.RedFlags {
		seen := map[string]bool{}
		for _, phrase := range flag.TriggerPhrases {
			normalized := strings.ToLower(strings.TrimSpace(phrase))
			if normalized == "" {
				problems = append(problems, fmt.Sprintf("%s: empty trigger phrase", flag.Code))
				continue
			}
			if seen[normalized] {
				problems = append(problems, fmt.Sprintf("%s: duplicate trigger phrase %q", flag.Code, phrase))
			}
			seen[normalized] = true
		}
		if flag.DetectionMethod == models.DetectionPatternAnalysis {
			notes = append(notes, fmt.Sprintf("%s: pattern_analysis requires an external classifier", flag.Code))
		}
	}

	if len(problems) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Passed:  false,
			Summary: fmt.Sprintf("Trigger phrases: %d problem(s)", len(problems)),
			Details: append(problems, notes...),
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Passed:  true,
		Summary: "Trigger phrases: OK",
		Details: notes,
	}
}
