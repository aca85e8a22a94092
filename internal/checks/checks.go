// Package checks provides named configuration checks run by `hiregate
// check` before a bundle is deployed. Each check inspects one invariant and
// reports a pass/fail summary with supporting detail lines.
package checks

import (
	"github.com/hiregate/hiregate/internal/models"
)

// CheckResult holds the outcome of a single configuration check.
type CheckResult struct {
	// Name is a stable check identifier used in output and downstream processing.
	Name string
	// Passed indicates whether the check met its acceptance criteria.
	Passed bool
	// Summary is a human-readable one-line result intended for concise display.
	Summary string
	// Details provides optional supporting lines for diagnostics or remediation.
	Details []string
}

// Input is the material a check inspects. Bundle is nil when the raw YAML
// did not parse; checks that need it should report that and pass through.
type Input struct {
	Raw    []byte
	Bundle *models.ConfigBundle
}

// Checker runs a single configuration check.
type Checker interface {
	Name() string
	Check(input *Input) *CheckResult
}

// All returns the standard check suite in execution order.
func All() []Checker {
	return []Checker{
		&SchemaChecker{},
		&WeightSumChecker{},
		&FormulaChecker{},
		&ImpactTargetChecker{},
		&DecisionRuleChecker{},
		&PhraseHygieneChecker{},
	}
}

// Run executes every checker against the raw bundle bytes and returns all
// results. A bundle that fails to parse still gets schema results; checks
// that need the parsed bundle are skipped with a failure.
func Run(raw []byte, checkers []Checker) []*CheckResult {
	input := &Input{Raw: raw}
	if bundle, err := models.ParseBundle(raw); err == nil {
		input.Bundle = bundle
	}

	results := make([]*CheckResult, 0, len(checkers))
	for _, c := range checkers {
		results = append(results, c.Check(input))
	}
	return results
}

// AllPassed reports whether every check passed.
func AllPassed(results []*CheckResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func skipped(name string) *CheckResult {
	return &CheckResult{
		Name:    name,
		Passed:  false,
		Summary: "Skipped: bundle did not parse",
	}
}
