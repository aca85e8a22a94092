package decision

import (
	"fmt"
	"sort"

	"github.com/hiregate/hiregate/internal/models"
)

// RejectDecision is the terminal decision forced by an auto-reject trigger.
const RejectDecision = "REJECT"

// NoMatchingDecisionError indicates that no decision rule matched. With a
// catch-all rule enforced at load time this can never occur; seeing it means
// the configuration is defective, so callers must treat it as fatal rather
// than substituting a default decision.
type NoMatchingDecisionError struct{}

func (e *NoMatchingDecisionError) Error() string {
	return "no decision rule matched and no catch-all rule exists"
}

type compiledRule struct {
	rule       models.DecisionRule
	conditions []condition
}

// Selection is the chosen decision together with its provenance.
type Selection struct {
	Decision string

	// Priority is the matched rule's priority, or the reject rule's priority
	// (falling back to -1) when an auto-reject trigger forced the outcome.
	Priority int

	// AutoReject reports that the selection was forced by an auto-reject
	// trigger rather than rule evaluation.
	AutoReject bool

	// MatchedConditions are the source strings of the conditions that held.
	MatchedConditions []string
}

// Selector evaluates decision rules in ascending priority order. It is
// immutable after construction and safe for concurrent use.
type Selector struct {
	rules []compiledRule

	// rejectPriority is the priority reported when auto-reject short-circuits
	// selection: the configured REJECT rule's priority, or -1.
	rejectPriority int
}

// New compiles and orders the decision rules. The rule set must contain a
// catch-all (a rule with no conditions) so evaluation never falls through;
// its absence is a configuration error.
func New(rules []models.DecisionRule, scoreNames map[string]models.ScoreType) (*Selector, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no decision rules configured")
	}

	ordered := make([]models.DecisionRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	s := &Selector{rejectPriority: -1}
	hasCatchAll := false
	for _, rule := range ordered {
		compiled := compiledRule{rule: rule}
		for _, source := range rule.Conditions {
			cond, err := parseCondition(source, scoreNames)
			if err != nil {
				return nil, fmt.Errorf("decision rule %s: %w", rule.Decision, err)
			}
			compiled.conditions = append(compiled.conditions, cond)
		}
		if len(compiled.conditions) == 0 {
			hasCatchAll = true
		}
		if rule.Decision == RejectDecision && s.rejectPriority == -1 {
			s.rejectPriority = rule.Priority
		}
		s.rules = append(s.rules, compiled)
	}

	if !hasCatchAll {
		return nil, fmt.Errorf("decision rules must include a catch-all rule with no conditions")
	}

	return s, nil
}

// Select returns the first rule (lowest priority number) whose conditions
// all hold. An auto-reject trigger is a hard override checked before rule
// iteration: it forces REJECT regardless of the score map.
func (s *Selector) Select(env Env, hasAutoRejectTrigger bool) (*Selection, error) {
	if hasAutoRejectTrigger {
		return &Selection{
			Decision:   RejectDecision,
			Priority:   s.rejectPriority,
			AutoReject: true,
		}, nil
	}

	for _, compiled := range s.rules {
		matched := make([]string, 0, len(compiled.conditions))
		allHold := true
		for _, cond := range compiled.conditions {
			if !cond.eval(env) {
				allHold = false
				break
			}
			matched = append(matched, cond.source)
		}
		if allHold {
			return &Selection{
				Decision:          compiled.rule.Decision,
				Priority:          compiled.rule.Priority,
				MatchedConditions: matched,
			}, nil
		}
	}

	return nil, &NoMatchingDecisionError{}
}
