package calc

import "strings"

// Func is a function defined in an environment. Its body never refers to other
// functions: every call in a definition is replaced by the body of the called
// function when the definition is evaluated, so redefining a function later
// has no effect on functions already defined in terms of it.
type Func struct {
	name   string
	params []string
	// body refers to parameters by position.
	body *node
}

// Name returns the name of the function.
func (f *Func) Name() string {
	return f.name
}

// Params returns the names of the function's parameters.
func (f *Func) Params() []string {
	return append([]string(nil), f.params...)
}

// Vars returns the names of the variables the function reads or assigns when
// it is called, in sorted order.
func (f *Func) Vars() []string {
	seen := make(map[string]bool)
	var r []string
	f.body.names(func(name string) {
		if !seen[name] {
			seen[name] = true
			r = append(r, name)
		}
	})
	sortstrs(r)
	return r
}

// String formats the function as a definition with its body fully inlined.
func (f *Func) String() string {
	var b strings.Builder
	b.WriteString(f.name)
	for _, p := range f.params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	b.WriteString(" => ")
	f.body.fmt(&b, false)
	return b.String()
}

// define creates a function from a definition node, inlining the functions it
// calls. It does not store the function.
func (env *Env) define(n *node) (*Func, error) {
	body, err := env.inline(n.left)
	if err != nil {
		return nil, err
	}
	f := Func{
		name:   n.name,
		params: append([]string(nil), n.params...),
		body:   body,
	}
	return &f, nil
}

// inline returns a copy of the tree rooted at n in which each call to a
// defined function is replaced by that function's body, with the function's
// parameters replaced by the call's arguments. A lone name which is not a
// variable but is a function becomes a call without arguments.
//
// Since the bodies of defined functions are already inlined, one pass over
// the new tree flattens calls of calls completely.
func (env *Env) inline(n *node) (*node, error) {
	if n == nil {
		return nil, nil
	}
	switch n.kind {
	case nodeName:
		if _, ok := env.vars[n.name]; ok {
			return n.clone(nil), nil
		}
		f := env.funcs[n.name]
		if f == nil {
			// Free variable, looked up when the function is called.
			return n.clone(nil), nil
		}
		if len(f.params) != 0 {
			return nil, &CallError{Func: n.name, Want: len(f.params), Len: 0}
		}
		return f.body.clone(nil), nil
	case nodeCall:
		f := env.funcs[n.name]
		if f == nil {
			return nil, &FuncError{Name: n.name}
		}
		if len(n.args) != len(f.params) {
			return nil, &CallError{Func: n.name, Want: len(f.params), Len: len(n.args)}
		}
		args := make([]*node, len(n.args))
		for i, a := range n.args {
			r, err := env.inline(a)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return f.body.clone(args), nil
	case nodeDef:
		panic("calc: inline on nodeDef")
	}
	m := *n
	var err error
	if m.left, err = env.inline(n.left); err != nil {
		return nil, err
	}
	if m.right, err = env.inline(n.right); err != nil {
		return nil, err
	}
	return &m, nil
}
