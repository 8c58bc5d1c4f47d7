package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/refcodec"
)

// ParseError is a syntax error produced while parsing a formula body,
// modeled on the teacher's parser.ParseError (karl/parser/parse_error.go).
type ParseError struct {
	Message string
	Pos     int
}

func (e ParseError) Error() string { return e.Message }

// precedence levels, lowest to highest binding, matching spec.md §4.3's
// "lowest to highest" table. Unary minus (6) deliberately outranks
// exponentiation (5) so that "-2^2" parses as "(-2)^2" == 4, the documented
// Excel-compatible quirk.
const (
	lowest = iota
	precCompare
	precConcat
	precAdd
	precMul
	precPow
	precUnary
)

var infixPrecedence = map[TokenType]int{
	EQ: precCompare, NE1: precCompare, NE2: precCompare,
	LT: precCompare, LE: precCompare, GT: precCompare, GE: precCompare,
	AMP:   precConcat,
	PLUS:  precAdd, MINUS: precAdd,
	MUL: precMul, DIV: precMul,
	CARET: precPow,
}

// Parser is a Pratt parser over the formula token stream, structured after
// the teacher's parser.Parser (prefix/infix function tables keyed by token
// type, a one-token lookahead).
type Parser struct {
	l         *Lexer
	cur, peek Token
	errors    []ParseError
}

func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, ParseError{Message: fmt.Sprintf(format, args...), Pos: p.cur.Pos})
}

// ParseFormula parses the full body of a formula (everything after the
// leading '='). It returns the root Node and any parse errors; on error the
// caller treats the formula as #VALUE! (see SPEC_FULL.md §10).
func ParseFormula(body string) (Node, []ParseError) {
	p := NewParser(NewLexer(body))
	expr := p.parseExpression(lowest)
	if p.cur.Type != EOF {
		p.errorf("unexpected token %q", p.cur.Literal)
	}
	return expr, p.errors
}

func (p *Parser) parseExpression(prec int) Node {
	left := p.parsePrefix()
	for p.cur.Type != EOF && prec < infixPrecedence[p.cur.Type] {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() Node {
	switch p.cur.Type {
	case NUMBER:
		return p.parseNumber()
	case STRING:
		n := &StringLit{base: base{p.cur.Pos}, Value: p.cur.Literal}
		p.next()
		return n
	case ERRLIT:
		n := &ErrorLit{base: base{p.cur.Pos}, Kind: glyphToErrorKind(p.cur.Literal)}
		p.next()
		return n
	case REF:
		return p.parseRefOrRange()
	case IDENT:
		return p.parseIdentOrCall()
	case MINUS:
		pos := p.cur.Pos
		p.next()
		x := p.parseExpression(precUnary)
		return &UnaryExpr{base: base{pos}, Op: MINUS, X: x}
	case LPAREN:
		p.next()
		inner := p.parseExpression(lowest)
		if p.cur.Type != RPAREN {
			p.errorf("expected ')', got %q", p.cur.Literal)
		} else {
			p.next()
		}
		return inner
	default:
		pos := p.cur.Pos
		p.errorf("unexpected token %q", p.cur.Literal)
		p.next()
		return &ErrorLit{base: base{pos}, Kind: cellmodel.ErrValue}
	}
}

func (p *Parser) parseNumber() Node {
	lit := p.cur.Literal
	pos := p.cur.Pos
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.errorf("invalid number %q", lit)
	}
	p.next()
	return &NumberLit{base: base{pos}, Value: v}
}

func (p *Parser) parseRefOrRange() Node {
	pos := p.cur.Pos
	from, err := refcodec.Parse(p.cur.Literal)
	if err != nil {
		p.errorf("invalid reference %q", p.cur.Literal)
	}
	p.next()
	if p.cur.Type == COLON {
		p.next()
		if p.cur.Type != REF {
			p.errorf("expected reference after ':', got %q", p.cur.Literal)
			return &RangeExpr{base: base{pos}, From: from, To: from}
		}
		to, err := refcodec.Parse(p.cur.Literal)
		if err != nil {
			p.errorf("invalid reference %q", p.cur.Literal)
		}
		p.next()
		return &RangeExpr{base: base{pos}, From: from, To: to}
	}
	return &RefExpr{base: base{pos}, Ref: from}
}

func (p *Parser) parseIdentOrCall() Node {
	pos := p.cur.Pos
	name := p.cur.Literal
	if strings.EqualFold(name, "TRUE") {
		p.next()
		return &BoolLit{base: base{pos}, Value: true}
	}
	if strings.EqualFold(name, "FALSE") {
		p.next()
		return &BoolLit{base: base{pos}, Value: false}
	}
	p.next()
	if p.cur.Type != LPAREN {
		p.errorf("unrecognized name %q", name)
		return &ErrorLit{base: base{pos}, Kind: cellmodel.ErrName}
	}
	p.next() // consume '('
	var args []Node
	if p.cur.Type != RPAREN {
		args = append(args, p.parseExpression(lowest))
		for p.cur.Type == COMMA {
			p.next()
			args = append(args, p.parseExpression(lowest))
		}
	}
	if p.cur.Type != RPAREN {
		p.errorf("expected ')' to close call to %s, got %q", name, p.cur.Literal)
	} else {
		p.next()
	}
	return &CallExpr{base: base{pos}, Name: strings.ToUpper(name), Args: args}
}

func (p *Parser) parseInfix(left Node) Node {
	op := p.cur.Type
	pos := p.cur.Pos
	prec := infixPrecedence[op]
	p.next()
	var right Node
	if op == CARET {
		right = p.parseExpression(prec - 1) // right-associative
	} else {
		right = p.parseExpression(prec)
	}
	return &BinaryExpr{base: base{pos}, Op: op, X: left, Y: right}
}
