package rulespec

import (
	"fmt"
	"strings"

	"chrond/internal/condition"
)

// tokenize splits a rule into operator tokens and atom texts. Operators bind
// tighter than whitespace; atom text is everything between them, trimmed.
func tokenize(rule string) ([]string, error) {
	var toks []string
	var atom strings.Builder
	flush := func() {
		if s := strings.TrimSpace(atom.String()); s != "" {
			toks = append(toks, s)
		}
		atom.Reset()
	}
	for _, r := range rule {
		switch r {
		case '(', ')', '&', '|', '!':
			flush()
			toks = append(toks, string(r))
		default:
			atom.WriteRune(r)
		}
	}
	flush()
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty rule: %w", ErrSyntax)
	}
	return toks, nil
}

// exprParser is a recursive descent parser over the token stream:
//
//	or    := and ('|' and)*
//	and   := unary ('&' unary)*
//	unary := '!' unary | '(' or ')' | atom
type exprParser struct {
	parser *Parser
	task   string
	toks   []string
	pos    int
}

func (e *exprParser) peek() (string, bool) {
	if e.pos >= len(e.toks) {
		return "", false
	}
	return e.toks[e.pos], true
}

func (e *exprParser) parseOr() (condition.Condition, error) {
	left, err := e.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []condition.Condition{left}
	for {
		tok, ok := e.peek()
		if !ok || tok != "|" {
			break
		}
		e.pos++
		next, err := e.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return condition.Any(children...)
}

func (e *exprParser) parseAnd() (condition.Condition, error) {
	left, err := e.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []condition.Condition{left}
	for {
		tok, ok := e.peek()
		if !ok || tok != "&" {
			break
		}
		e.pos++
		next, err := e.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return condition.All(children...)
}

func (e *exprParser) parseUnary() (condition.Condition, error) {
	tok, ok := e.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of rule: %w", ErrSyntax)
	}
	switch tok {
	case "!":
		e.pos++
		inner, err := e.parseUnary()
		if err != nil {
			return nil, err
		}
		return condition.Not(inner)
	case "(":
		e.pos++
		inner, err := e.parseOr()
		if err != nil {
			return nil, err
		}
		tok, ok := e.peek()
		if !ok || tok != ")" {
			return nil, fmt.Errorf("missing closing parenthesis: %w", ErrSyntax)
		}
		e.pos++
		return inner, nil
	case ")", "&", "|":
		return nil, fmt.Errorf("unexpected %q: %w", tok, ErrSyntax)
	default:
		e.pos++
		return e.parser.atom(e.task, tok)
	}
}
