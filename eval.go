package calc

import (
	"io"
	"math/big"
	"strconv"
	"strings"
)

// Result is the outcome of evaluating a line. Num is nil if the line defined
// a function.
type Result struct {
	Num *big.Float
}

// IsDef reports whether the result is from a function definition.
func (r Result) IsDef() bool {
	return r.Num == nil
}

// String formats the result the way an interactive session shows it: "= "
// followed by the value, or "()" for a function definition.
func (r Result) String() string {
	if r.Num == nil {
		return "()"
	}
	return "= " + r.Num.Text('g', -1)
}

// evaluation holds the state of a single call to Eval.
type evaluation struct {
	env *Env
	// writes holds assignments made so far. They are copied to the
	// environment only if the whole line evaluates successfully.
	writes map[string]*big.Float
	// frame holds the arguments of the function call being evaluated.
	frame []*big.Float
	// depth is the number of function calls being evaluated.
	depth int
}

// Eval evaluates a parsed line. Function definitions inline the functions
// they call and store the result; other lines produce a number. If an error
// occurs, the environment is left as it was.
func (env *Env) Eval(e *Expr) (Result, error) {
	if len(env.stack) != 0 {
		panic("calc: Eval during Eval")
	}
	if e.IsDef() {
		f, err := env.define(e.n)
		if err != nil {
			return Result{}, err
		}
		if env.funcs == nil {
			env.funcs = make(map[string]*Func)
		}
		env.funcs[f.name] = f
		return Result{}, nil
	}
	ev := evaluation{env: env}
	err := e.n.eval(&ev)
	if err != nil {
		env.stack = env.stack[:0]
		return Result{}, err
	}
	switch len(env.stack) {
	case 1: // do nothing
	default:
		panic("calc: inconsistent stack: " + strconv.Itoa(len(env.stack)) + " items (bad AST?)")
	}
	r := new(big.Float).Copy(env.pop())
	if env.vars == nil && len(ev.writes) > 0 {
		env.vars = make(map[string]*big.Float, len(ev.writes))
	}
	for name, v := range ev.writes {
		env.vars[name] = v
	}
	return Result{Num: r}, nil
}

// Exec is a shortcut to parse and evaluate a line.
func (env *Env) Exec(line string) (Result, error) {
	e, err := ParseString(line)
	if err != nil {
		return Result{}, err
	}
	return env.Eval(e)
}

// lookup finds the value of a variable, preferring pending assignments.
func (ev *evaluation) lookup(name string) *big.Float {
	if v := ev.writes[name]; v != nil {
		return v
	}
	return ev.env.vars[name]
}

// assign records a pending assignment.
func (ev *evaluation) assign(name string, v *big.Float) {
	if ev.writes == nil {
		ev.writes = make(map[string]*big.Float)
	}
	ev.writes[name] = new(big.Float).SetPrec(ev.env.prec).Set(v)
}

// call pushes the result of calling f with the given arguments.
func (ev *evaluation) call(f *Func, args []*node) error {
	if len(args) != len(f.params) {
		return &CallError{Func: f.name, Want: len(f.params), Len: len(args)}
	}
	env := ev.env
	r := env.push()
	k := len(env.stack)
	for _, a := range args {
		if err := a.eval(ev); err != nil {
			return err
		}
	}
	frame, depth := ev.frame, ev.depth
	ev.frame = env.stack[k:len(env.stack):len(env.stack)]
	ev.depth++
	err := f.body.eval(ev)
	ev.frame, ev.depth = frame, depth
	if err != nil {
		return err
	}
	r.Set(env.top())
	env.stack = env.stack[:k]
	return nil
}

// eval pushes the node's value to the environment's stack.
func (n *node) eval(ev *evaluation) error {
	env := ev.env
	switch n.kind {
	case nodeNum:
		env.push().Set(env.num(n.name))
	case nodeName:
		if v := ev.lookup(n.name); v != nil {
			env.push().Set(v)
			return nil
		}
		// Outside function bodies, a lone name can call a function. Inside
		// them, every call has already been inlined.
		if ev.depth == 0 {
			if f := env.funcs[n.name]; f != nil {
				return ev.call(f, nil)
			}
		}
		return &NameError{Name: n.name}
	case nodeParam:
		env.push().Set(ev.frame[n.idx])
	case nodeAssign:
		if err := n.left.eval(ev); err != nil {
			return err
		}
		ev.assign(n.name, env.top())
	case nodeCall:
		f := env.funcs[n.name]
		if f == nil {
			return &FuncError{Name: n.name}
		}
		return ev.call(f, n.args)
	case nodeDef:
		panic("calc: eval on nodeDef")
	case nodeNeg:
		if err := n.left.eval(ev); err != nil {
			return err
		}
		v := env.top()
		v.Neg(v)
	case nodeNop:
		if err := n.left.eval(ev); err != nil {
			return err
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod:
		if err := n.left.eval(ev); err != nil {
			return err
		}
		if err := n.right.eval(ev); err != nil {
			return err
		}
		r := env.pop()
		l := env.top()
		return arith(n.kind, l, r)
	default:
		panic("calc: invalid AST node " + n.kind.String())
	}
	return nil
}

// arith sets l to the result of a binary operation on l and r.
func arith(op nodeKind, l, r *big.Float) (err error) {
	// An operation that panics with ErrNaN has already cleared l, so the error
	// reports a copy. Only infinite operands can produce NaN.
	x := l
	if l.IsInf() || r.IsInf() {
		x = new(big.Float).Copy(l)
	}
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if _, ok := v.(big.ErrNaN); !ok {
			panic(v)
		}
		err = domain(strings.TrimSpace(binsym[op]), x, r)
	}()
	switch op {
	case nodeAdd:
		l.Add(l, r)
	case nodeSub:
		l.Sub(l, r)
	case nodeMul:
		l.Mul(l, r)
	case nodeDiv:
		if r.Sign() == 0 {
			return &ZeroDivisionError{Op: "/"}
		}
		if l.IsInf() && r.IsInf() {
			return domain("/", l, r)
		}
		l.Quo(l, r)
	case nodeMod:
		if l.IsInf() || r.IsInf() {
			if r.Sign() == 0 {
				return &ZeroDivisionError{Op: "%"}
			}
			return domain("%", l, r)
		}
		// Both operands are truncated to integers.
		a, _ := l.Int(nil)
		b, _ := r.Int(nil)
		if b.Sign() == 0 {
			return &ZeroDivisionError{Op: "%"}
		}
		l.SetInt(a.Rem(a, b))
	default:
		panic("calc: arith on " + op.String())
	}
	return nil
}

// Eval is a shortcut to parse a line and return its result in a new
// environment created with the given options.
func Eval(src io.RuneScanner, opts ...EnvOption) (*big.Float, error) {
	env := NewEnv(opts...)
	a, err := Parse(src)
	if err != nil {
		return nil, err
	}
	r, err := env.Eval(a)
	return r.Num, err
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...EnvOption) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// NameError is an error from a lookup for a variable that is missing from the
// environment.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// FuncError is an error from a call to a function that has not been defined,
// either when evaluating a call or when inlining one into a new definition.
type FuncError struct {
	// Name is the function name that was called.
	Name string
}

func (err *FuncError) Error() string {
	return "undefined function: " + strconv.Quote(err.Name)
}

// CallError is an error indicating a function call with the wrong number of
// arguments.
type CallError struct {
	// Func is the function name that was called.
	Func string
	// Want is the number of parameters the function has.
	Want int
	// Len is the number of arguments the call supplied.
	Len int
}

func (err *CallError) Error() string {
	return "cannot call " + err.Func + " with " + strconv.Itoa(err.Len) + " arguments (it takes " + strconv.Itoa(err.Want) + ")"
}

// ZeroDivisionError is an error indicating division or remainder by zero.
type ZeroDivisionError struct {
	// Op is the operator, either "/" or "%".
	Op string
}

func (err *ZeroDivisionError) Error() string {
	if err.Op == "%" {
		return "remainder by zero"
	}
	return "division by zero"
}

// DomainError is an error returned when an operator is applied to operands
// outside its domain, e.g. subtracting infinity from itself.
type DomainError struct {
	// Op is the operator.
	Op string
	// X and Y are the left and right operands.
	X, Y *big.Float
}

func (err *DomainError) Error() string {
	return fmtop(err.X) + " " + err.Op + " " + fmtop(err.Y) + " outside domain of " + err.Op
}

// domain creates a DomainError with copies of the operands, which may be
// reused by later evaluations.
func domain(op string, x, y *big.Float) *DomainError {
	return &DomainError{Op: op, X: new(big.Float).Copy(x), Y: new(big.Float).Copy(y)}
}

func fmtop(x *big.Float) string {
	if x == nil {
		return "?"
	}
	return "(" + x.Text('g', 10) + ")"
}
