package tools

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Evaluate computes the value of an arithmetic expression. The grammar is
// deliberately tiny: numbers, + - * / **, unary minus, and parentheses.
// Operator precedence and associativity match Python's (-2**2 == -4,
// 2**3**2 == 512).
func Evaluate(expression string) (float64, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return 0, err
	}

	p := &exprParser{tokens: tokens}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokenEOF {
		return 0, errors.Errorf("unexpected token %q", p.peek().text)
	}
	return value, nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPower
	tokenLParen
	tokenRParen
	tokenEOF
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

func tokenize(expression string) ([]token, error) {
	var tokens []token
	runes := []rune(expression)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			tokens = append(tokens, token{kind: tokenPlus, text: "+"})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokenMinus, text: "-"})
			i++
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, token{kind: tokenPower, text: "**"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenStar, text: "*"})
				i++
			}
		case r == '/':
			tokens = append(tokens, token{kind: tokenSlash, text: "/"})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")"})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			// optional exponent part
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			text := string(runes[start:i])
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.Errorf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, value: value})
		default:
			return nil, errors.Errorf("unsupported expression: unexpected character %q", string(r))
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, text: "end of expression"})
	return tokens, nil
}

type exprParser struct {
	tokens []token
	pos    int
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

// expr := term { (+|-) term }
func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokenPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case tokenMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// term := unary { (*|/) unary }
func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokenStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokenSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errors.New("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

// unary := "-" unary | power
func (p *exprParser) parseUnary() (float64, error) {
	if p.peek().kind == tokenMinus {
		p.next()
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePower()
}

// power := primary [ "**" unary ]  (right-associative, binds tighter than
// unary minus on the left, like Python)
func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind == tokenPower {
		p.next()
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		result := math.Pow(base, exponent)
		if math.IsNaN(result) || math.IsInf(result, 0) {
			return 0, errors.Errorf("result of %s is not a finite number", strings.TrimSpace(p.describe()))
		}
		return result, nil
	}
	return base, nil
}

// primary := NUMBER | "(" expr ")"
func (p *exprParser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokenNumber:
		return t.value, nil
	case tokenLParen:
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return 0, errors.Errorf("expected ')', got %q", closing.text)
		}
		return value, nil
	default:
		return 0, errors.Errorf("unsupported expression: unexpected %q", t.text)
	}
}

func (p *exprParser) describe() string {
	parts := make([]string, 0, len(p.tokens))
	for _, t := range p.tokens {
		if t.kind == tokenEOF {
			break
		}
		parts = append(parts, t.text)
	}
	return strings.Join(parts, " ")
}
