package interpreter

import (
	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// frame is one scope of visible identifiers (spec.md section 4.8): input,
// parameters, args, outcome, response-handler body locals, user-defined
// variables. Mutated in place; one perform call is single-threaded
// end-to-end (spec.md section 5), so no synchronization is needed.
type frame struct {
	vars      map[string]*value.Variable
	immutable map[string]struct{}
}

func newFrame(vars map[string]*value.Variable, immutable map[string]struct{}) *frame {
	if vars == nil {
		vars = map[string]*value.Variable{}
	}
	return &frame{vars: vars, immutable: immutable}
}

// get returns a variable by identifier, value.None() if unset.
func (f *frame) get(name string) *value.Variable {
	if v, ok := f.vars[name]; ok {
		return v
	}
	return value.None()
}

// scope snapshots the frame for the host evaluator. The map is handed to
// the evaluator by reference: the evaluator contract (internal/expr)
// forbids mutating it, so no copy is made on every expression evaluation.
func (f *frame) scope() expr.Scope {
	return expr.Scope(f.vars)
}

// assign writes x at path, per spec.md section 4.8's scoping rules:
// assignments to input/parameters are silently dropped, and a
// single-segment path replaces the identifier wholesale while a longer
// path indexes into it (creating intermediate objects as needed).
func (f *frame) assign(path []string, x *value.Variable) error {
	if len(path) == 0 {
		return nil
	}
	head := path[0]
	if _, ro := f.immutable[head]; ro {
		return nil
	}
	if len(path) == 1 {
		f.vars[head] = x
		return nil
	}
	base, ok := f.vars[head]
	if !ok {
		base = value.EmptyObject()
	}
	updated, err := value.SetByPath(base, path[1:], x)
	if err != nil {
		return err
	}
	f.vars[head] = updated
	return nil
}

// withTemp sets name to x, runs fn, then restores whatever name held
// before (or removes it if it was previously unset). Used for loop
// variables and per-call "outcome" bindings that must not outlive their
// statement (spec.md section 4.8: "per-iteration binding of the loop
// variable").
func (f *frame) withTemp(name string, x *value.Variable, fn func() error) error {
	prev, had := f.vars[name]
	f.vars[name] = x
	err := fn()
	if had {
		f.vars[name] = prev
	} else {
		delete(f.vars, name)
	}
	return err
}
