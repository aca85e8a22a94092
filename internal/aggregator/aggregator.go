// Package aggregator combines per-dimension competency ratings and red flag
// matches into the final 0-100 score map: base primary scores via the formula
// evaluator, risk scores from active matches, additive flag impacts, the
// weight-normalized overall score, and any max-score overrides.
package aggregator

import (
	"fmt"
	"math"
	"sort"

	"github.com/hiregate/hiregate/internal/detector"
	"github.com/hiregate/hiregate/internal/formula"
	"github.com/hiregate/hiregate/internal/models"
)

// WeightConfigurationError reports primary rule weights that do not sum to
// 100. This is a deploy-time configuration error, never a runtime one.
type WeightConfigurationError struct {
	Sum int
}

func (e *WeightConfigurationError) Error() string {
	return fmt.Sprintf("primary scoring rule weights sum to %d, must sum to exactly 100", e.Sum)
}

// InvalidRatingError reports a competency rating outside the 1-5 range.
type InvalidRatingError struct {
	Dimension string
	Value     int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("rating for %s is %d, must be between %d and %d",
		e.Dimension, e.Value, models.RatingMin, models.RatingMax)
}

// MissingRatingError reports a dimension a primary formula needs but the
// evaluation input did not rate.
type MissingRatingError struct {
	Dimension string
}

func (e *MissingRatingError) Error() string {
	return fmt.Sprintf("no rating provided for dimension %s", e.Dimension)
}

// DuplicateRatingError reports two ratings for the same dimension in one
// interview.
type DuplicateRatingError struct {
	Dimension string
}

func (e *DuplicateRatingError) Error() string {
	return fmt.Sprintf("duplicate rating for dimension %s", e.Dimension)
}

type compiledRule struct {
	rule models.ScoringRule
	expr formula.Expr
}

// Aggregator holds compiled scoring rules. It is immutable after
// construction and safe for concurrent use.
type Aggregator struct {
	primary []compiledRule
	risk    []compiledRule
	flags   map[string]models.RedFlag

	// requiredDims are the dimensions referenced by any primary formula; a
	// rating for each is mandatory per evaluation.
	requiredDims []string
}

// Output is the aggregated result for one evaluation.
type Output struct {
	// Scores maps every configured score name, plus overall_score, to its
	// final clamped integer value.
	Scores map[string]int

	// Annotations lists risk scores that crossed their configured
	// warning or critical thresholds.
	Annotations []models.RiskAnnotation

	HasAutoRejectTrigger bool
}

// New compiles the scoring rules and validates every load-time invariant:
// formulas parse, formula references resolve against source competencies,
// dimensions and red flags, impact targets name known scores, and primary
// weights sum to exactly 100.
func New(rules []models.ScoringRule, flags []models.RedFlag, dims []models.CompetencyDimension) (*Aggregator, error) {
	dimSet := map[string]bool{}
	for _, d := range dims {
		dimSet[d.Code] = true
	}
	flagSet := map[string]models.RedFlag{}
	for _, f := range flags {
		flagSet[f.Code] = f
	}

	// Valid impact targets are the scores rules produce. overall_score is
	// excluded: deltas never apply to it directly (max_score_override is the
	// only overall-level lever), so a delta targeting it would silently no-op.
	scoreNames := map[string]models.ScoreType{}
	for _, r := range rules {
		scoreNames[r.Code] = r.ScoreType
	}

	a := &Aggregator{flags: flagSet}
	required := map[string]bool{}
	weightSum := 0

	for _, rule := range rules {
		expr, err := formula.Parse(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("scoring rule %s: %w", rule.Code, err)
		}

		sources := map[string]bool{}
		for _, code := range rule.SourceCompetencies {
			if !dimSet[code] {
				return nil, fmt.Errorf("scoring rule %s: source competency %q is not a configured dimension", rule.Code, code)
			}
			sources[code] = true
		}
		for _, code := range expr.CompetencyRefs() {
			if !sources[code] {
				return nil, fmt.Errorf("scoring rule %s: formula references %q which is not in source_competencies", rule.Code, code)
			}
		}
		for _, code := range expr.FlagRefs() {
			if _, ok := flagSet[code]; !ok {
				return nil, fmt.Errorf("scoring rule %s: formula references unknown red flag %q", rule.Code, code)
			}
		}

		compiled := compiledRule{rule: rule, expr: expr}
		switch rule.ScoreType {
		case models.ScoreTypePrimary:
			if len(expr.FlagRefs()) > 0 {
				return nil, fmt.Errorf("scoring rule %s: from_red_flags is not allowed in primary formulas", rule.Code)
			}
			for _, code := range expr.CompetencyRefs() {
				required[code] = true
			}
			weightSum += rule.WeightPercent
			a.primary = append(a.primary, compiled)
		case models.ScoreTypeRisk:
			a.risk = append(a.risk, compiled)
		default:
			return nil, fmt.Errorf("scoring rule %s: invalid score_type %q", rule.Code, rule.ScoreType)
		}
	}

	for _, f := range flags {
		for _, impact := range f.Impacts() {
			if _, ok := scoreNames[impact.Target]; !ok {
				return nil, fmt.Errorf("red flag %s: impact targets unknown score %q", f.Code, impact.Target)
			}
		}
	}

	if weightSum != 100 {
		return nil, &WeightConfigurationError{Sum: weightSum}
	}

	for code := range required {
		a.requiredDims = append(a.requiredDims, code)
	}
	sort.Strings(a.requiredDims)

	return a, nil
}

// Aggregate computes the final score map from ratings and detection output.
// It never substitutes defaults on error: a failed evaluation must stay
// distinguishable from a low-scoring one.
func (a *Aggregator) Aggregate(ratings []models.CompetencyRating, det *detector.Result) (*Output, error) {
	ratingMap, err := a.validateRatings(ratings)
	if err != nil {
		return nil, err
	}

	active := det.ActiveCodes()
	scores := map[string]int{}

	// Base primary scores from ratings alone.
	baseCtx := &formula.Context{Ratings: ratingMap}
	for _, c := range a.primary {
		value, err := c.expr.Eval(baseCtx)
		if err != nil {
			return nil, fmt.Errorf("scoring rule %s: %w", c.rule.Code, err)
		}
		minValue, maxValue := c.rule.Bounds()
		scores[c.rule.Code] = clamp(value, minValue, maxValue)
	}

	// Risk scores from active matches.
	var annotations []models.RiskAnnotation
	for _, c := range a.risk {
		rule := c.rule
		riskCtx := &formula.Context{
			Ratings: ratingMap,
			RiskImpact: func(flagCode string) (int, bool) {
				if !active[flagCode] {
					return 0, false
				}
				return a.flags[flagCode].Impact[rule.Code], true
			},
		}
		value, err := c.expr.Eval(riskCtx)
		if err != nil {
			return nil, fmt.Errorf("scoring rule %s: %w", rule.Code, err)
		}
		minValue, maxValue := rule.Bounds()
		final := clamp(value, minValue, maxValue)
		scores[rule.Code] = final

		if rule.CriticalThreshold != nil && final >= *rule.CriticalThreshold {
			annotations = append(annotations, models.RiskAnnotation{
				Score: rule.Code, Level: models.RiskLevelCritical, Value: final, Threshold: *rule.CriticalThreshold,
			})
		} else if rule.WarningThreshold != nil && final >= *rule.WarningThreshold {
			annotations = append(annotations, models.RiskAnnotation{
				Score: rule.Code, Level: models.RiskLevelWarning, Value: final, Threshold: *rule.WarningThreshold,
			})
		}
	}

	// Impact deltas onto primary scores, in deterministic match order.
	a.applyImpacts(scores, det.Matches)

	// Weight-normalized overall score over final primary values.
	overall := 0.0
	for _, c := range a.primary {
		overall += float64(scores[c.rule.Code]) * float64(c.rule.WeightPercent) / 100.0
	}
	overallScore := clamp(overall, 0, 100)

	// Strictest max_score_override wins.
	for code := range active {
		if ceiling := a.flags[code].MaxScoreOverride; ceiling != nil && overallScore > *ceiling {
			overallScore = *ceiling
		}
	}
	scores[models.OverallScoreName] = overallScore

	return &Output{
		Scores:               scores,
		Annotations:          annotations,
		HasAutoRejectTrigger: det.HasAutoRejectTrigger,
	}, nil
}

func (a *Aggregator) validateRatings(ratings []models.CompetencyRating) (map[string]int, error) {
	ratingMap := make(map[string]int, len(ratings))
	for _, r := range ratings {
		if r.Value < models.RatingMin || r.Value > models.RatingMax {
			return nil, &InvalidRatingError{Dimension: r.DimensionCode, Value: r.Value}
		}
		if _, dup := ratingMap[r.DimensionCode]; dup {
			return nil, &DuplicateRatingError{Dimension: r.DimensionCode}
		}
		ratingMap[r.DimensionCode] = r.Value
	}
	for _, dim := range a.requiredDims {
		if _, ok := ratingMap[dim]; !ok {
			return nil, &MissingRatingError{Dimension: dim}
		}
	}
	return ratingMap, nil
}

// applyImpacts folds each match's primary-score deltas into the score map.
// Matches arrive sorted by (flag code, answer id), so identical inputs
// always yield identical final scores. Risk targets are skipped here; they
// are consumed by from_red_flags.
func (a *Aggregator) applyImpacts(scores map[string]int, matches []models.RedFlagMatch) {
	bounds := map[string]models.ScoringRule{}
	for _, c := range a.primary {
		bounds[c.rule.Code] = c.rule
	}

	for _, match := range matches {
		flag, ok := a.flags[match.Code]
		if !ok {
			continue
		}
		for _, impact := range flag.Impacts() {
			rule, isPrimary := bounds[impact.Target]
			if !isPrimary {
				continue
			}
			minValue, maxValue := rule.Bounds()
			scores[impact.Target] = clamp(float64(scores[impact.Target]+impact.Delta), minValue, maxValue)
		}
	}
}

// clamp bounds v to [minValue, maxValue], rounding half to even to avoid
// bias in the score distribution.
func clamp(v float64, minValue, maxValue int) int {
	rounded := int(math.RoundToEven(v))
	if rounded < minValue {
		return minValue
	}
	if rounded > maxValue {
		return maxValue
	}
	return rounded
}
