package calc

import (
	"io"
	"strconv"
	"strings"
)

// Line = Def | Expr
// Def = name { name } '=>' Expr
// Expr = num | name | Assign | Call | Neg | Plus | Add | Sub | Mul | Div | Mod | '(' Expr ')'
// Assign = name '=' Expr
// Call = name Atom { Atom }
// Atom = num | name | '(' Expr ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr
// Div = Expr '/' Expr
// Mod = Expr '%' Expr
//
// An assignment is recognized only where a bare name begins an operand. It
// takes everything up to the end of the enclosing group as its value, but it
// never takes an already parsed operand as its target: "2 + a = 1 + 2" is
// 2 + (a = (1 + 2)), and "2 + 3 = 4" is an error.

// Expr is a parsed line that can be evaluated in an environment.
type Expr struct {
	// n is the root node of the line.
	n *node
	// names is the list of variable names used in the line.
	names []string
}

type parser struct {
	toks []lexToken
	pos  int
	// names is the set of variable names that have been seen this parse.
	names map[string]bool
	// params maps parameter names to their positions while parsing the body
	// of a function definition. It is nil otherwise.
	params map[string]int
}

// Parse parses one line so it can be evaluated in an environment.
func Parse(src io.RuneScanner) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokenEOF {
		return nil, &EmptyExpressionError{Col: toks[0].pos}
	}
	p := parser{
		toks:  toks,
		names: make(map[string]bool),
	}
	var n *node
	if p.isdef() {
		n, err = p.parsedef()
	} else {
		n, err = p.parseterm(exprprec)
	}
	if err != nil {
		return nil, err
	}
	if end := p.next(); end.kind != tokenEOF {
		lhs := n
		if n.kind == nodeDef {
			lhs = n.left
		}
		return nil, p.unexpected(end, lhs, "end of input")
	}
	ex := Expr{
		n:     n,
		names: make([]string, 0, len(p.names)),
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	sortstrs(ex.names)
	return &ex, nil
}

// ParseString is a shortcut to parse a string.
func ParseString(src string) (*Expr, error) {
	return Parse(strings.NewReader(src))
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

func (p *parser) peek() lexToken {
	return p.toks[p.pos]
}

func (p *parser) peekn(k int) lexToken {
	if p.pos+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+k]
}

// next scans a token. The EOF token is never consumed.
func (p *parser) next() lexToken {
	tok := p.toks[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

// isdef checks whether the line is a function definition, i.e. whether it
// starts with one or more names followed by an arrow.
func (p *parser) isdef() bool {
	k := 0
	for p.peekn(k).kind == tokenIdent {
		k++
	}
	return k > 0 && p.peekn(k).kind == tokenArrow
}

// parsedef parses a function definition. The caller checks that the line is
// one using isdef.
func (p *parser) parsedef() (*node, error) {
	name := p.next()
	var params []string
	p.params = make(map[string]int)
	for p.peek().kind == tokenIdent {
		tok := p.next()
		if _, ok := p.params[tok.text]; ok {
			return nil, &SyntaxError{Col: tok.pos, Expected: "distinct parameter names", Found: tok.quote()}
		}
		p.params[tok.text] = len(params)
		params = append(params, tok.text)
	}
	p.next() // =>
	body, err := p.parseterm(exprprec)
	p.params = nil
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeDef, name: name.text, params: params, left: body}, nil
}

// parseterm parses operands joined by operators that bind more tightly than
// until. It leaves the first token it doesn't use unscanned.
func (p *parser) parseterm(until operator) (*node, error) {
	n, err := p.parselhs(until)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOp {
			return n, nil
		}
		prec := binop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
		}
		if !prec.moreBinding(until) {
			return n, nil
		}
		p.next()
		rhs, err := p.parseterm(prec)
		if err != nil {
			return nil, err
		}
		n = &node{kind: prec.op, left: n, right: rhs}
	}
}

// parselhs parses the first operand of a term. Operators here are unary.
func (p *parser) parselhs(until operator) (*node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text}, nil
	case tokenIdent:
		if p.peek().kind == tokenAssign {
			p.next()
			return p.parseassign(tok)
		}
		if !atomstart(p.peek()) {
			return p.name(tok)
		}
		if _, ok := p.params[tok.text]; ok {
			nt := p.peek()
			return nil, &SyntaxError{Col: nt.pos, Expected: "operator after parameter " + strconv.Quote(tok.text), Found: nt.quote()}
		}
		return p.parsecall(tok)
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		rhs, err := p.parseterm(prec)
		if err != nil {
			return nil, err
		}
		return &node{kind: prec.op, left: rhs}, nil
	case tokenOpen:
		return p.parsegroup(tok)
	default:
		return nil, &SyntaxError{Col: tok.pos, Expected: "expression", Found: tok.quote()}
	}
}

// parseassign parses the value of an assignment to the name in tok. The =
// has already been scanned.
func (p *parser) parseassign(tok lexToken) (*node, error) {
	if _, ok := p.params[tok.text]; ok {
		return nil, &SyntaxError{Col: tok.pos, Expected: "variable name before \"=\"", Found: "parameter " + strconv.Quote(tok.text)}
	}
	rhs, err := p.parseterm(exprprec)
	if err != nil {
		return nil, err
	}
	p.names[tok.text] = true
	return &node{kind: nodeAssign, name: tok.text, left: rhs}, nil
}

// parsecall parses the arguments of a call to the function named in tok.
// There is at least one argument.
func (p *parser) parsecall(tok lexToken) (*node, error) {
	n := &node{kind: nodeCall, name: tok.text}
	for atomstart(p.peek()) {
		a, err := p.parseatom()
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, a)
	}
	return n, nil
}

// parseatom parses a single call argument.
func (p *parser) parseatom() (*node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text}, nil
	case tokenIdent:
		return p.name(tok)
	case tokenOpen:
		return p.parsegroup(tok)
	default:
		panic("calc: parseatom on " + tok.String())
	}
}

// parsegroup parses a parenthesized expression. The open bracket has already
// been scanned.
func (p *parser) parsegroup(open lexToken) (*node, error) {
	if p.peek().kind == tokenClose {
		end := p.next()
		return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
	}
	n, err := p.parseterm(exprprec)
	if err != nil {
		return nil, err
	}
	end := p.next()
	if end.kind != tokenClose {
		if end.kind == tokenEOF {
			return nil, &BracketError{Col: open.pos, Left: open.text}
		}
		return nil, p.unexpected(end, n, `")"`)
	}
	return n, nil
}

// name creates a name or parameter node.
func (p *parser) name(tok lexToken) (*node, error) {
	if k, ok := p.params[tok.text]; ok {
		return &node{kind: nodeParam, name: tok.text, idx: k}, nil
	}
	p.names[tok.text] = true
	return &node{kind: nodeName, name: tok.text}, nil
}

// unexpected creates the error for a token that cannot follow the parsed
// expression lhs.
func (p *parser) unexpected(tok lexToken, lhs *node, want string) error {
	switch tok.kind {
	case tokenAssign:
		return &SyntaxError{Col: tok.pos, Expected: "name before \"=\"", Found: lhs.String()}
	case tokenClose:
		return &BracketError{Col: tok.pos, Right: tok.text}
	}
	return &SyntaxError{Col: tok.pos, Expected: want, Found: tok.quote()}
}

// atomstart reports whether tok can begin a call argument.
func atomstart(tok lexToken) bool {
	switch tok.kind {
	case tokenNum, tokenIdent, tokenOpen:
		return true
	}
	return false
}

// Vars returns the variable names used when evaluating the expression. A name
// appearing alone may also evaluate as a call to a function with no
// parameters.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// IsDef reports whether the line is a function definition.
func (e *Expr) IsDef() bool {
	return e.n.kind == nodeDef
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, false)
	return b.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	case "%":
		return operator{5, false, nodeMod}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
