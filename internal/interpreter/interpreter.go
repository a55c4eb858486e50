// Package interpreter implements the map interpreter (C8, spec.md section
// 4.8): a tree-walking evaluator over internal/ast nodes with scoped
// frames, use-case/operation bodies, call constructs, and http blocks
// built on internal/transport + internal/security. Expression nodes are
// never interpreted here; every one is delegated verbatim to the injected
// internal/expr.Evaluator.
package interpreter

import (
	"context"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/security"
	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Interpreter holds the collaborators one map execution needs: the
// host-expression evaluator, the HTTP pipeline, the security registry
// (resolving requirement ids to handlers) and the provider's declared
// services (serviceId -> base URL, "" is the default service).
type Interpreter struct {
	Evaluator expr.Evaluator
	Pipeline  *transport.Pipeline
	Security  *security.Registry
	Services  map[string]string

	doc        *ast.MapDocument
	operations map[string]*ast.OperationDefinition
}

// New constructs an Interpreter bound to one map document (spec.md
// section 4.9's "bound profile-provider": the AST is fixed once a
// profile is bound to a provider).
func New(doc *ast.MapDocument, evaluator expr.Evaluator, pipeline *transport.Pipeline, securityRegistry *security.Registry, services map[string]string) *Interpreter {
	ops := make(map[string]*ast.OperationDefinition, len(doc.Operations))
	for _, op := range doc.Operations {
		ops[op.Name] = op
	}
	return &Interpreter{
		Evaluator:  evaluator,
		Pipeline:   pipeline,
		Security:   securityRegistry,
		Services:   services,
		doc:        doc,
		operations: ops,
	}
}

// Perform runs one use-case to completion (spec.md section 4.9 step 4).
// input and parameters are deep-cloned at entry so the caller's copies
// can never be observed as mutated (spec.md section 4.8: "Input/parameter
// immutability is enforced by taking a deep clone at interpreter entry").
func (i *Interpreter) Perform(ctx context.Context, useCase string, input *value.Variable, parameters *value.Variable) (*Outcome, *PerformError) {
	def := i.findUseCase(useCase)
	if def == nil {
		return nil, newError("map.interpreter.unknown-usecase", "usecase %q is not defined in this map", useCase)
	}

	fr := newFrame(map[string]*value.Variable{
		"input":      input.Clone(),
		"parameters": parameters.Clone(),
	}, map[string]struct{}{"input": {}, "parameters": {}})

	state := &execState{}
	if _, err := i.execBody(ctx, fr, def.Body, state); err != nil {
		return nil, err
	}
	return state.outcome(), nil
}

func (i *Interpreter) findUseCase(name string) *ast.UseCaseDefinition {
	for _, uc := range i.doc.UseCases {
		if uc.Name == name {
			return uc
		}
	}
	return nil
}

// execBody runs stmts in source order against fr, sharing state across
// the whole call. It returns aborted=true the moment a statement (or a
// nested body sharing this flow) triggers "return" (spec.md section 4.8).
func (i *Interpreter) execBody(ctx context.Context, fr *frame, stmts []ast.Statement, state *execState) (aborted bool, perr *PerformError) {
	for _, stmt := range stmts {
		aborted, perr = i.execStatement(ctx, fr, stmt, state)
		if perr != nil {
			return false, perr
		}
		if aborted {
			return true, nil
		}
	}
	return false, nil
}

func (i *Interpreter) execStatement(ctx context.Context, fr *frame, stmt ast.Statement, state *execState) (bool, *PerformError) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		v, err := i.eval(ctx, fr, s.Value)
		if err != nil {
			return false, err
		}
		if assignErr := fr.assign(s.Path, v); assignErr != nil {
			return false, newLocatedError("map.interpreter.assignment", s.Loc, "%v", assignErr)
		}
		return false, nil

	case *ast.SetResult:
		v, err := i.eval(ctx, fr, s.Value)
		if err != nil {
			return false, err
		}
		state.result = v
		return s.Return, nil

	case *ast.SetError:
		v, err := i.eval(ctx, fr, s.Value)
		if err != nil {
			return false, err
		}
		state.mapErr = v
		return s.Return, nil

	case *ast.Return:
		return true, nil

	case *ast.Conditional:
		cond, err := i.eval(ctx, fr, s.Condition)
		if err != nil {
			return false, err
		}
		ok, _ := cond.Bool()
		branch := s.Else
		if ok {
			branch = s.Then
		}
		return i.execBody(ctx, fr, branch, state)

	case *ast.CallStatement:
		return i.execCallStatement(ctx, fr, s, state)

	case *ast.InlineCall:
		return i.execInlineCall(ctx, fr, s, state)

	case *ast.CallForeach:
		return i.execCallForeach(ctx, fr, s, state)

	case *ast.InlineCallForeach:
		return i.execInlineCallForeach(ctx, fr, s, state)

	case *ast.HTTPStatement:
		return i.execHTTPStatement(ctx, fr, s, state)

	default:
		return false, newError("map.interpreter.unknown-statement", "unhandled statement type %T", stmt)
	}
}

// eval delegates to the host evaluator, translating its error into the
// map.interpreter.jessie-error PerformError spec.md section 7 names.
func (i *Interpreter) eval(ctx context.Context, fr *frame, e *ast.Expression) (*value.Variable, *PerformError) {
	if e == nil {
		return value.None(), nil
	}
	v, err := i.Evaluator.Evaluate(ctx, fr.scope(), e.Source)
	if err != nil {
		return nil, newLocatedError("map.interpreter.jessie-error", e.Location, "%v", err)
	}
	if v == nil {
		v = value.None()
	}
	return v, nil
}

func (i *Interpreter) callOperation(ctx context.Context, name string, args *value.Variable) (*Outcome, *PerformError) {
	op, ok := i.operations[name]
	if !ok {
		return nil, newError("map.interpreter.unknown-operation", "operation %q is not defined in this map", name)
	}
	// A fresh frame containing only args: the operation body cannot read
	// the caller's locals (spec.md section 4.8).
	opFrame := newFrame(map[string]*value.Variable{"args": args}, nil)
	state := &execState{}
	if _, err := i.execBody(ctx, opFrame, op.Body, state); err != nil {
		return nil, err
	}
	return state.outcome(), nil
}

func orNone(v *value.Variable) *value.Variable {
	if v == nil {
		return value.None()
	}
	return v
}
