package reporting

import (
	"fmt"

	"github.com/hiregate/hiregate/internal/models"
)

// InterpretOverall returns a plain-language label for an overall score.
func InterpretOverall(score int) string {
	switch {
	case score >= 85:
		return "Strong candidate"
	case score >= 75:
		return "Above the hire bar"
	case score >= 60:
		return "Borderline"
	default:
		return "Below the bar"
	}
}

// Interpret produces plain-language rationale lines for a result: why the
// decision came out the way it did, which flags fired, and which overrides
// applied.
func Interpret(result *models.EvaluationResult, bundle *models.ConfigBundle) []string {
	var lines []string

	overall := result.Scores[models.OverallScoreName]
	lines = append(lines, fmt.Sprintf("Overall score %d: %s.", overall, InterpretOverall(overall)))

	if result.HasAutoRejectTrigger {
		lines = append(lines, "An auto-reject red flag triggered; the decision is REJECT regardless of scores.")
	} else if result.MatchedRulePriority >= 0 {
		lines = append(lines, fmt.Sprintf("Decision %s came from the rule at priority %d; earlier rules did not match.",
			result.Decision, result.MatchedRulePriority))
	}

	if result.HasCriticalMatch() {
		lines = append(lines, "At least one critical-severity red flag matched.")
	}

	for _, m := range result.RedFlagMatches {
		if bundle == nil {
			continue
		}
		flag, ok := bundle.RedFlag(m.Code)
		if !ok {
			continue
		}
		for _, impact := range flag.Impacts() {
			lines = append(lines, fmt.Sprintf("%s shifted %s by %+d.", m.Code, impact.Target, impact.Delta))
		}
		if flag.MaxScoreOverride != nil {
			lines = append(lines, fmt.Sprintf("%s caps overall_score at %d.", m.Code, *flag.MaxScoreOverride))
		}
	}

	for _, a := range result.RiskAnnotations {
		lines = append(lines, fmt.Sprintf("%s is at %d, past its %s threshold of %d.",
			a.Score, a.Value, a.Level, a.Threshold))
	}

	return lines
}
