// Package formula parses and evaluates the scoring mini-DSL used by scoring
// rules. The grammar is intentionally non-Turing-complete so formulas stay
// auditable as data:
//
//	expr    := term [ '*' number ]
//	term    := ident
//	         | 'average' '(' ident { ',' ident } ')'
//	         | 'from_red_flags' '(' ident { ',' ident } ')'
//
// Formulas are parsed once at configuration load; evaluation is pure and
// allocation-free in the hot path.
package formula

import (
	"fmt"
	"math"
)

// RiskContributionCap bounds the aggregate contribution of from_red_flags.
// The cap is total-only: individual flag impacts are not capped.
const RiskContributionCap = 100

// SyntaxError reports a formula that does not match the grammar.
type SyntaxError struct {
	Formula string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula %q: syntax error at offset %d: %s", e.Formula, e.Pos, e.Msg)
}

// UnknownIdentifierError reports a referenced competency or red flag code
// missing from the evaluation context.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %q", e.Name)
}

// Context supplies the values a formula evaluates against.
type Context struct {
	// Ratings maps competency dimension codes to ratings (1-5).
	Ratings map[string]int

	// RiskImpact returns the absolute impact an active red flag contributes
	// toward the score being computed. The second return is false when the
	// flag has no active match in the current evaluation.
	RiskImpact func(flagCode string) (int, bool)
}

// Expr is a parsed formula node.
type Expr interface {
	// Eval computes the expression value against ctx. Evaluation is pure:
	// identical inputs always produce identical outputs.
	Eval(ctx *Context) (float64, error)

	// CompetencyRefs returns the competency dimension codes the expression
	// reads, in source order.
	CompetencyRefs() []string

	// FlagRefs returns the red flag codes the expression reads, in source
	// order.
	FlagRefs() []string
}

// Ident looks up a single competency rating.
type Ident struct {
	Name string
}

func (e *Ident) Eval(ctx *Context) (float64, error) {
	v, ok := ctx.Ratings[e.Name]
	if !ok {
		return 0, &UnknownIdentifierError{Name: e.Name}
	}
	return float64(v), nil
}

func (e *Ident) CompetencyRefs() []string { return []string{e.Name} }
func (e *Ident) FlagRefs() []string       { return nil }

// Scale multiplies an operand by a numeric literal, canonically used to
// project a 1-5 rating onto the 0-100 scale with a factor of 20.
type Scale struct {
	Operand Expr
	Factor  float64
}

func (e *Scale) Eval(ctx *Context) (float64, error) {
	v, err := e.Operand.Eval(ctx)
	if err != nil {
		return 0, err
	}
	return v * e.Factor, nil
}

func (e *Scale) CompetencyRefs() []string { return e.Operand.CompetencyRefs() }
func (e *Scale) FlagRefs() []string       { return e.Operand.FlagRefs() }

// Average is the arithmetic mean of named competency ratings.
type Average struct {
	Names []string
}

func (e *Average) Eval(ctx *Context) (float64, error) {
	sum := 0.0
	for _, name := range e.Names {
		v, ok := ctx.Ratings[name]
		if !ok {
			return 0, &UnknownIdentifierError{Name: name}
		}
		sum += float64(v)
	}
	return sum / float64(len(e.Names)), nil
}

func (e *Average) CompetencyRefs() []string { return e.Names }
func (e *Average) FlagRefs() []string       { return nil }

// FromRedFlags sums the absolute risk impacts of the listed red flags that
// have an active match, capped at RiskContributionCap in total.
type FromRedFlags struct {
	Codes []string
}

func (e *FromRedFlags) Eval(ctx *Context) (float64, error) {
	if ctx.RiskImpact == nil {
		return 0, nil
	}
	total := 0
	for _, code := range e.Codes {
		impact, active := ctx.RiskImpact(code)
		if !active {
			continue
		}
		total += int(math.Abs(float64(impact)))
	}
	if total > RiskContributionCap {
		total = RiskContributionCap
	}
	return float64(total), nil
}

func (e *FromRedFlags) CompetencyRefs() []string { return nil }
func (e *FromRedFlags) FlagRefs() []string       { return e.Codes }
