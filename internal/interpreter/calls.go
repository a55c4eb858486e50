package interpreter

import (
	"context"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// execCallStatement runs a `call Op(args) { ... }` block: the operation
// always produces an outcome (success or failure), bound as "outcome" in
// the caller's frame for the block body to inspect; the block shares the
// caller's frame and execState (spec.md section 4.8: "assignments made
// inside the call block are visible to subsequent statements in the
// caller").
func (i *Interpreter) execCallStatement(ctx context.Context, fr *frame, s *ast.CallStatement, state *execState) (bool, *PerformError) {
	args, err := i.eval(ctx, fr, s.Args)
	if err != nil {
		return false, err
	}
	outcome, err := i.callOperation(ctx, s.Operation, args)
	if err != nil {
		return false, err
	}

	var aborted bool
	var bodyErr *PerformError
	wrapErr := fr.withTemp("outcome", outcome.asVariable(), func() error {
		aborted, bodyErr = i.execBody(ctx, fr, s.Body, state)
		return nil
	})
	if wrapErr != nil {
		return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", wrapErr)
	}
	return aborted, bodyErr
}

// execInlineCall runs `x = call Op(args)`: on success, outcome.data is
// assigned to ResultPath; on failure, the failure propagates by becoming
// this body's map error and aborting further evaluation (spec.md section
// 4.8: "evaluates to outcome.data if success or propagates failure").
func (i *Interpreter) execInlineCall(ctx context.Context, fr *frame, s *ast.InlineCall, state *execState) (bool, *PerformError) {
	args, err := i.eval(ctx, fr, s.Args)
	if err != nil {
		return false, err
	}
	outcome, err := i.callOperation(ctx, s.Operation, args)
	if err != nil {
		return false, err
	}
	if !outcome.Err.IsNone() {
		state.mapErr = outcome.Err
		return true, nil
	}
	if assignErr := fr.assign(s.ResultPath, orNone(outcome.Result)); assignErr != nil {
		return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", assignErr)
	}
	return false, nil
}

// execCallForeach runs `foreach (x in iterable) call Op(args) { ... }`.
// A `return` inside Body breaks only this loop (spec.md section 4.8:
// "return map result E inside the block breaks the iteration") rather
// than propagating past the foreach statement, which is the one place
// an aborted body signal is deliberately swallowed instead of bubbling
// up — everywhere else "return" aborts the enclosing use-case/operation.
func (i *Interpreter) execCallForeach(ctx context.Context, fr *frame, s *ast.CallForeach, state *execState) (bool, *PerformError) {
	iterable, err := i.eval(ctx, fr, s.IterableExpr)
	if err != nil {
		return false, err
	}
	items, _ := iterable.Array()

	for _, item := range items {
		var skip bool
		var perr *PerformError
		loopErr := fr.withTemp(s.LoopVariable, item, func() error {
			if s.Condition != nil {
				cond, err := i.eval(ctx, fr, s.Condition)
				if err != nil {
					perr = err
					return nil
				}
				ok, _ := cond.Bool()
				if !ok {
					skip = true
				}
			}
			return nil
		})
		if loopErr != nil {
			return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", loopErr)
		}
		if perr != nil {
			return false, perr
		}
		if skip {
			continue
		}

		var broke bool
		iterErr := fr.withTemp(s.LoopVariable, item, func() error {
			args, err := i.eval(ctx, fr, s.Args)
			if err != nil {
				perr = err
				return nil
			}
			outcome, err := i.callOperation(ctx, s.Operation, args)
			if err != nil {
				perr = err
				return nil
			}
			return fr.withTemp("outcome", outcome.asVariable(), func() error {
				aborted, bodyErr := i.execBody(ctx, fr, s.Body, state)
				if bodyErr != nil {
					perr = bodyErr
					return nil
				}
				broke = aborted
				return nil
			})
		})
		if iterErr != nil {
			return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", iterErr)
		}
		if perr != nil {
			return false, perr
		}
		if broke {
			break
		}
	}
	return false, nil
}

// execInlineCallForeach runs `x = foreach (x in iterable) call Op(args)`:
// yields an array of per-iteration outcome.data values, skipping
// iterations whose Condition evaluates false (spec.md section 4.8).
func (i *Interpreter) execInlineCallForeach(ctx context.Context, fr *frame, s *ast.InlineCallForeach, state *execState) (bool, *PerformError) {
	iterable, err := i.eval(ctx, fr, s.IterableExpr)
	if err != nil {
		return false, err
	}
	items, _ := iterable.Array()

	results := make([]*value.Variable, 0, len(items))
	for _, item := range items {
		var perr *PerformError
		var collected *value.Variable
		loopErr := fr.withTemp(s.LoopVariable, item, func() error {
			if s.Condition != nil {
				cond, err := i.eval(ctx, fr, s.Condition)
				if err != nil {
					perr = err
					return nil
				}
				ok, _ := cond.Bool()
				if !ok {
					return nil
				}
			}
			args, err := i.eval(ctx, fr, s.Args)
			if err != nil {
				perr = err
				return nil
			}
			outcome, err := i.callOperation(ctx, s.Operation, args)
			if err != nil {
				perr = err
				return nil
			}
			if !outcome.Err.IsNone() {
				perr = newLocatedError("map.interpreter.call-foreach-failed", s.Loc, "operation %q failed: %v", s.Operation, outcome.Err)
				return nil
			}
			collected = orNone(outcome.Result)
			return nil
		})
		if loopErr != nil {
			return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", loopErr)
		}
		if perr != nil {
			return false, perr
		}
		if collected != nil {
			results = append(results, collected)
		}
	}

	if assignErr := fr.assign(s.ResultPath, value.Array(results...)); assignErr != nil {
		return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", assignErr)
	}
	return false, nil
}
