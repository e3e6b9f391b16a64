package calc

import (
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// Env is the state of an evaluation session: variable bindings, function
// definitions, and the precision of calculations. Variables and functions are
// separate namespaces; binding a name in one never affects the other. It is
// not safe to use an Env concurrently.
type Env struct {
	stack []*big.Float
	nums  map[string]*big.Float
	vars  map[string]*big.Float
	funcs map[string]*Func
	prec  uint
}

// EnvOption is an option used when creating an environment.
type EnvOption interface {
	envOption()
}

type (
	varopt struct {
		name string
		val  *big.Float
	}
	varsopt     map[string]*big.Float
	precopt     uint
	noconstsopt struct{}
)

func (varopt) envOption()      {}
func (varsopt) envOption()     {}
func (precopt) envOption()     {}
func (noconstsopt) envOption() {}

// SetVar sets the value of a variable in the environment.
func SetVar(name string, val *big.Float) EnvOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the environment.
func SetVars(vars map[string]*big.Float) EnvOption {
	return varsopt(vars)
}

// Prec sets the precision of calculations.
func Prec(prec uint) EnvOption {
	return precopt(prec)
}

// NoConstants prevents NewEnv from binding pi and e.
func NoConstants() EnvOption {
	return noconstsopt{}
}

// NewEnv creates a new environment. If no precision is given, the default is
// 64. Unless NoConstants is given, the variables pi and e are bound to those
// constants; they can be reassigned like any other variable.
func NewEnv(opts ...EnvOption) *Env {
	env := Env{nums: make(map[string]*big.Float), prec: 64}
	consts := true
	for _, opt := range opts {
		switch opt := opt.(type) {
		case precopt:
			env.prec = uint(opt)
		case noconstsopt:
			consts = false
		}
	}
	if consts {
		env.vars = constants(env.prec)
	}
	return env.Clone(opts...)
}

// constants computes the predefined variables to the given precision.
func constants(prec uint) map[string]*big.Float {
	pi := bigfloat.Pi(new(big.Float).SetPrec(prec))
	var one big.Float
	one.SetFloat64(1)
	e := bigfloat.Exp(new(big.Float).SetPrec(prec), &one)
	return map[string]*big.Float{"pi": pi, "e": e}
}

// Set sets the value of a variable. Returns env for chaining. Calling Set
// while the environment is being used to evaluate an expression panics.
func (env *Env) Set(name string, value *big.Float) *Env {
	if len(env.stack) > 0 {
		panic("calc: Set on in-use environment")
	}
	if env.vars == nil {
		env.vars = make(map[string]*big.Float)
	}
	env.vars[name] = new(big.Float).SetPrec(env.prec).Set(value)
	return env
}

// Lookup returns a copy of the value of a variable. If there is no such
// variable in the environment, then the result is nil.
func (env *Env) Lookup(name string) *big.Float {
	v := env.vars[name]
	if v == nil {
		return nil
	}
	return new(big.Float).Copy(v)
}

// Func returns the function defined with the given name, or nil if there is
// none.
func (env *Env) Func(name string) *Func {
	return env.funcs[name]
}

// Prec returns the precision to which values are computed in the environment.
func (env *Env) Prec() uint {
	return env.prec
}

// Clone creates a copy of an environment and applies options to it. Functions
// are shared between the two, since they never change once defined.
func (env *Env) Clone(opts ...EnvOption) *Env {
	n := Env{
		stack: make([]*big.Float, 0, cap(env.stack)),
		nums:  make(map[string]*big.Float, len(env.nums)),
		vars:  make(map[string]*big.Float, len(env.vars)),
		funcs: make(map[string]*Func, len(env.funcs)),
		prec:  env.prec,
	}
	// First, check for a precision setting. Loop backward so we apply the last
	// precision.
	for i := len(opts) - 1; i >= 0; i-- {
		if p, ok := opts[i].(precopt); ok {
			n.prec = uint(p)
			break
		}
	}
	// Copy numbers only if the new precision is no higher than the old, so
	// that we always use the precision we need.
	if n.prec <= env.prec {
		for k, v := range env.nums {
			n.nums[k] = new(big.Float).SetPrec(n.prec).Set(v)
		}
	}
	// Copy variables. (We always need a copy in case of Set.) If we have the
	// same precision, we can just copy pointers, because assignments replace
	// values rather than modifying them.
	if n.prec == env.prec {
		for name, val := range env.vars {
			n.vars[name] = val
		}
	} else {
		for name, val := range env.vars {
			n.vars[name] = new(big.Float).SetPrec(n.prec).Set(val)
		}
	}
	for name, f := range env.funcs {
		n.funcs[name] = f
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.vars[opt.name] = new(big.Float).SetPrec(n.prec).Set(opt.val)
		case varsopt:
			for k, v := range opt {
				n.vars[k] = new(big.Float).SetPrec(n.prec).Set(v)
			}
		case precopt, noconstsopt:
			// Already done. Do nothing.
		default:
			panic("calc: unknown option type")
		}
	}
	return &n
}

// push ensures a settable value on the stack.
func (env *Env) push() *big.Float {
	if len(env.stack) < cap(env.stack) {
		env.stack = env.stack[:len(env.stack)+1]
		if env.stack[len(env.stack)-1] == nil {
			env.stack[len(env.stack)-1] = new(big.Float).SetPrec(env.prec)
		}
	} else {
		env.stack = append(env.stack, new(big.Float).SetPrec(env.prec))
	}
	return env.stack[len(env.stack)-1]
}

// pop removes the top from the stack and returns it. The returned value may be
// modified by future node evaluations.
func (env *Env) pop() *big.Float {
	r := env.stack[len(env.stack)-1]
	env.stack = env.stack[:len(env.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (env *Env) top() *big.Float {
	return env.stack[len(env.stack)-1]
}

// num gets a possibly cached number from its text.
func (env *Env) num(s string) *big.Float {
	if r := env.nums[s]; r != nil {
		return r
	}
	r, _, err := new(big.Float).SetPrec(env.prec).Parse(s, 10)
	if err != nil {
		panic("calc: invalid number: " + s + " (" + err.Error() + ")")
	}
	env.nums[s] = r
	return r
}
