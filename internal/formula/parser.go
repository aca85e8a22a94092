package formula

import (
	"fmt"
	"strconv"
	"unicode"
)

// Parse compiles a formula string into an expression tree. It returns a
// *SyntaxError when the input does not match the grammar.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf(p.pos, "unexpected trailing input %q", p.input[p.pos:])
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Formula: p.input,
		Pos:     pos,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func (p *parser) parseExpr() (Expr, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.consume('*') {
		return term, nil
	}

	p.skipSpace()
	start := p.pos
	factor, err := p.parseNumber()
	if err != nil {
		return nil, p.errorf(start, "expected number after '*'")
	}
	return &Scale{Operand: term, Factor: factor}, nil
}

func (p *parser) parseTerm() (Expr, error) {
	p.skipSpace()
	start := p.pos
	name := p.parseIdent()
	if name == "" {
		return nil, p.errorf(start, "expected identifier")
	}

	p.skipSpace()
	if !p.consume('(') {
		return &Ident{Name: name}, nil
	}

	names, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}

	switch name {
	case "average":
		return &Average{Names: names}, nil
	case "from_red_flags":
		return &FromRedFlags{Codes: names}, nil
	default:
		return nil, p.errorf(start, "unknown function %q", name)
	}
}

func (p *parser) parseIdentList() ([]string, error) {
	var names []string
	for {
		p.skipSpace()
		start := p.pos
		name := p.parseIdent()
		if name == "" {
			return nil, p.errorf(start, "expected identifier in argument list")
		}
		names = append(names, name)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			return names, nil
		}
		return nil, p.errorf(p.pos, "expected ',' or ')' in argument list")
	}
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || c == '_' || (p.pos > start && unicode.IsDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, p.errorf(start, "expected number")
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf(start, "invalid number %q", p.input[start:p.pos])
	}
	return f, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}
