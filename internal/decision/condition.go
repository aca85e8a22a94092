// Package decision compiles ordered decision rules and selects exactly one
// terminal decision from an aggregated score map and the active red flag set.
package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hiregate/hiregate/internal/models"
)

// Env is the environment a condition evaluates against.
type Env struct {
	Scores         map[string]int
	SeverityCounts map[models.Severity]int
}

// op is a comparison operator in a score condition.
type op string

const (
	opGE op = ">="
	opGT op = ">"
	opLE op = "<="
	opLT op = "<"
	opEQ op = "=="
	opNE op = "!="
)

var knownOps = map[string]op{
	">=": opGE, ">": opGT, "<=": opLE, "<": opLT, "==": opEQ, "!=": opNE,
}

// condition is one compiled boolean predicate. Two forms exist:
//
//	<score_name> <op> <number>   e.g. "overall_score >= 75"
//	no <severity>_red_flags      e.g. "no critical_red_flags"
type condition struct {
	source string

	// score comparison form
	score     string
	op        op
	threshold int

	// severity guard form
	noSeverity models.Severity
	isGuard    bool
}

// parseCondition compiles a condition string. scoreNames is the set of score
// names the configuration produces; referencing anything else is a
// configuration error caught at load time.
func parseCondition(source string, scoreNames map[string]models.ScoreType) (condition, error) {
	fields := strings.Fields(source)

	if len(fields) == 2 && fields[0] == "no" {
		sevName, ok := strings.CutSuffix(fields[1], "_red_flags")
		if !ok {
			return condition{}, fmt.Errorf("condition %q: expected form \"no <severity>_red_flags\"", source)
		}
		sev, err := models.ParseSeverity(sevName)
		if err != nil {
			return condition{}, fmt.Errorf("condition %q: %w", source, err)
		}
		return condition{source: source, noSeverity: sev, isGuard: true}, nil
	}

	if len(fields) != 3 {
		return condition{}, fmt.Errorf("condition %q: expected form \"<score> <op> <number>\"", source)
	}

	operator, ok := knownOps[fields[1]]
	if !ok {
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", source, fields[1])
	}

	threshold, err := strconv.Atoi(fields[2])
	if err != nil {
		return condition{}, fmt.Errorf("condition %q: invalid threshold %q", source, fields[2])
	}

	if _, ok := scoreNames[fields[0]]; !ok {
		return condition{}, fmt.Errorf("condition %q: unknown score name %q", source, fields[0])
	}

	return condition{source: source, score: fields[0], op: operator, threshold: threshold}, nil
}

func (c condition) eval(env Env) bool {
	if c.isGuard {
		return env.SeverityCounts[c.noSeverity] == 0
	}

	value := env.Scores[c.score]
	switch c.op {
	case opGE:
		return value >= c.threshold
	case opGT:
		return value > c.threshold
	case opLE:
		return value <= c.threshold
	case opLT:
		return value < c.threshold
	case opEQ:
		return value == c.threshold
	case opNE:
		return value != c.threshold
	}
	return false
}
