// Package expr defines the narrow host-expression evaluator interface
// the map interpreter depends on (spec.md sections 4.8 and 9): "a narrow
// evaluator interface (ast, scopeView) -> value ... implementation may
// embed a sandbox or, preferably, compile expressions to an AST
// interpreter". internal/interpreter never parses expression source
// itself; it only ever calls Evaluator.Evaluate.
package expr

import (
	"context"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Scope is the read-only view of interpreter state an expression may
// reference: a flat snapshot of every visible identifier (input,
// parameters, args, outcome, user-defined variables, ...) at the point
// the expression appears. Snapshots are cheap: the interpreter shares
// Variable pointers (which are themselves immutable after construction)
// rather than deep-copying on every evaluation.
type Scope map[string]*value.Variable

// Evaluator compiles and runs one expression source string against a
// Scope. Implementations must be restartable and side-effect-free over
// the given scope (spec.md section 4.8): calling Evaluate twice with the
// same (scope, source) must return equal results and must not mutate
// scope's values.
type Evaluator interface {
	Evaluate(ctx context.Context, scope Scope, source string) (*value.Variable, error)
}

// Error is returned by an Evaluator on a compile or evaluation failure.
// The interpreter wraps it as map.interpreter.jessie-error together with
// the ast.Location of the expression (spec.md section 7).
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }
