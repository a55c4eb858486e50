// Package cel implements expr.Evaluator on top of github.com/google/cel-go,
// grounded on Mindburn-Labs-helm/core/pkg/governance/policy_evaluator_cel.go's
// CELPolicyEvaluator: a shared cel.Env plus a compiled-program cache behind
// a mutex. This is the default evaluator a host wires in; map.interpreter.*
// error translation happens at the interpreter boundary, not here.
package cel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// cachedProgram is one compiled expression; the scope variable names it
// was compiled against live in its cache key: CEL requires every referenced identifier to be
// declared before Compile, but a map-DSL scope's identifier set varies by
// call site (input/parameters/args/outcome plus arbitrary user
// variables), so the declared-variable set is part of the cache key
// rather than fixed once at env construction, unlike CELPolicyEvaluator's
// two always-present declarations ("module", "timestamp").
type cachedProgram struct {
	program cel.Program
}

// Evaluator is the cel-go-backed expr.Evaluator.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]cachedProgram
}

// New constructs an Evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]cachedProgram)}
}

var _ expr.Evaluator = (*Evaluator)(nil)

// Evaluate compiles (or reuses a cached compile of) source against the
// identifiers present in scope and evaluates it, converting the CEL
// result back into a *value.Variable (spec.md section 4.8).
func (e *Evaluator) Evaluate(ctx context.Context, scope expr.Scope, source string) (*value.Variable, error) {
	names := scopeNames(scope)
	cacheKey := cacheKeyFor(source, names)

	e.mu.RLock()
	cached, hit := e.programs[cacheKey]
	e.mu.RUnlock()

	if !hit {
		var err error
		cached, err = e.compile(cacheKey, source, names)
		if err != nil {
			return nil, err
		}
	}

	activation, err := activationFor(scope)
	if err != nil {
		return nil, &expr.Error{Code: "expr.activation", Message: err.Error()}
	}

	out, _, err := cached.program.ContextEval(ctx, activation)
	if err != nil {
		return nil, &expr.Error{Code: "expr.eval", Message: err.Error()}
	}

	return fromCELValue(out)
}

func (e *Evaluator) compile(cacheKey, source string, names []string) (cachedProgram, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, hit := e.programs[cacheKey]; hit {
		return cached, nil
	}

	decls := make([]cel.EnvOption, 0, len(names))
	for _, n := range names {
		decls = append(decls, cel.Variable(n, cel.DynType))
	}
	env, err := cel.NewEnv(decls...)
	if err != nil {
		return cachedProgram{}, &expr.Error{Code: "expr.env", Message: err.Error()}
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return cachedProgram{}, &expr.Error{Code: "expr.compile", Message: issues.Err().Error()}
	}

	program, err := env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return cachedProgram{}, &expr.Error{Code: "expr.program", Message: err.Error()}
	}

	cached := cachedProgram{program: program}
	e.programs[cacheKey] = cached
	return cached, nil
}

func scopeNames(scope expr.Scope) []string {
	names := make([]string, 0, len(scope))
	for n := range scope {
		names = append(names, n)
	}
	// Deterministic ordering keeps cacheKeyFor stable across calls with
	// the same identifier set but different map iteration order.
	sort.Strings(names)
	return names
}

func cacheKeyFor(source string, names []string) string {
	return strings.Join(names, ",") + "\x00" + source
}

func activationFor(scope expr.Scope) (map[string]any, error) {
	out := make(map[string]any, len(scope))
	for name, v := range scope {
		native, err := value.ToNative(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

func fromCELValue(out ref.Val) (*value.Variable, error) {
	native := out.Value()
	variable, err := value.FromNative(normalizeCELNative(native))
	if err != nil {
		return nil, &expr.Error{Code: "expr.result", Message: err.Error()}
	}
	return variable, nil
}

// normalizeCELNative widens integer/unsigned-integer results (CEL's int64
// / uint64) to float64 so value.FromNative accepts them, and recurses
// into maps/slices cel-go may hand back as map[ref.Val]ref.Val or
// []ref.Val instead of the plain-Go shapes FromNative expects.
func normalizeCELNative(v any) any {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []ref.Val:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = normalizeCELNative(it.Value())
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k.Value())] = normalizeCELNative(val.Value())
		}
		return out
	default:
		return v
	}
}
