package calc

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of a line.
type node struct {
	kind nodeKind

	// name is the number text, variable or function name, or parameter name.
	name string
	// idx is the position of a parameter in its function's parameter list.
	idx int
	// params are the parameter names of a definition.
	params []string
	// args are the argument expressions of a call.
	args []*node

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum   // push num
	nodeName  // push lookup(name)
	nodeParam // push argument idx of the current call

	nodeAssign // evaluate left, store to name
	nodeCall   // name is function to call, args are its arguments
	nodeDef    // define name with params; left is the body

	nodeNeg // evaluate left, then negate
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodeMod // evaluate left, integer remainder by right
	nodeNop // evaluate left
)

var nodeKindNames = [...]string{
	nodeNone:   "None",
	nodeNum:    "Num",
	nodeName:   "Name",
	nodeParam:  "Param",
	nodeAssign: "Assign",
	nodeCall:   "Call",
	nodeDef:    "Def",
	nodeNeg:    "Neg",
	nodeAdd:    "Add",
	nodeSub:    "Sub",
	nodeMul:    "Mul",
	nodeDiv:    "Div",
	nodeMod:    "Mod",
	nodeNop:    "Nop",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

// binsym maps binary node kinds to their operator text.
var binsym = map[nodeKind]string{
	nodeAdd: " + ",
	nodeSub: " - ",
	nodeMul: " * ",
	nodeDiv: " / ",
	nodeMod: " % ",
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, square)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, square)
		}
		b.WriteByte('$')
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeParam:
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n.idx))
		if n.name != "" {
			b.WriteByte(':')
			b.WriteString(n.name)
		}
	case nodeAssign:
		b.WriteString(n.name)
		b.WriteString(" = ")
		n.left.fmt(b, !square)
	case nodeCall:
		b.WriteString(n.name)
		for _, a := range n.args {
			b.WriteByte(' ')
			a.fmt(b, !square)
		}
	case nodeDef:
		b.WriteString(n.name)
		for _, p := range n.params {
			b.WriteByte(' ')
			b.WriteString(p)
		}
		b.WriteString(" => ")
		n.left.fmt(b, !square)
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, !square)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, !square)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod:
		n.left.fmt(b, !square)
		b.WriteString(binsym[n.kind])
		n.right.fmt(b, !square)
	default:
		panic("calc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// clone returns a deep copy of the tree rooted at n, replacing each parameter
// reference with a copy of the corresponding element of args. If args is nil,
// parameters are copied as they are.
func (n *node) clone(args []*node) *node {
	if n == nil {
		return nil
	}
	if n.kind == nodeParam && args != nil {
		return args[n.idx].clone(nil)
	}
	m := *n
	if n.params != nil {
		m.params = append([]string(nil), n.params...)
	}
	if n.args != nil {
		m.args = make([]*node, len(n.args))
		for i, a := range n.args {
			m.args[i] = a.clone(args)
		}
	}
	m.left = n.left.clone(args)
	m.right = n.right.clone(args)
	return &m
}

// names calls f with the name of each variable the tree reads or assigns.
func (n *node) names(f func(string)) {
	if n == nil {
		return
	}
	switch n.kind {
	case nodeName, nodeAssign:
		f(n.name)
	}
	for _, a := range n.args {
		a.names(f)
	}
	n.left.names(f)
	n.right.names(f)
}
