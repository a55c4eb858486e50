package interpreter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/security"
	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/transport/httpfetch"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// fakeEvaluator is a minimal stand-in for internal/expr/cel in these
// tests: it understands just enough syntax (scope paths, string/bool/
// number literals, and "+" concatenation/addition) to exercise the
// interpreter's control flow without depending on CEL semantics.
type fakeEvaluator struct{}

func (fakeEvaluator) Evaluate(ctx context.Context, scope expr.Scope, source string) (*value.Variable, error) {
	source = strings.TrimSpace(source)
	if plus := strings.Index(source, " + "); plus >= 0 {
		left, err := fakeEvaluator{}.Evaluate(ctx, scope, source[:plus])
		if err != nil {
			return nil, err
		}
		right, err := fakeEvaluator{}.Evaluate(ctx, scope, source[plus+3:])
		if err != nil {
			return nil, err
		}
		if ln, ok := left.Number(); ok {
			rn, _ := right.Number()
			return value.Number(ln + rn), nil
		}
		ls, _ := left.String()
		rs, _ := right.String()
		return value.String(ls + rs), nil
	}

	switch {
	case source == "true":
		return value.Bool(true), nil
	case source == "false":
		return value.Bool(false), nil
	case strings.HasPrefix(source, `"`) && strings.HasSuffix(source, `"`):
		return value.String(strings.Trim(source, `"`)), nil
	default:
		if n, err := strconv.ParseFloat(source, 64); err == nil {
			return value.Number(n), nil
		}
		path := value.SplitPath(source)
		root, ok := scope[path[0]]
		if !ok {
			return value.None(), nil
		}
		v, found := value.GetByPath(root, path[1:])
		if !found {
			return value.None(), nil
		}
		return v, nil
	}
}

func src(s string) *ast.Expression { return &ast.Expression{Source: s} }

func newTestInterpreter(doc *ast.MapDocument, services map[string]string, pipeline *transport.Pipeline) *Interpreter {
	return New(doc, fakeEvaluator{}, pipeline, security.NewRegistry(), services)
}

func TestInputAndParametersAreImmutable(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.Assignment{Path: []string{"input", "hacked"}, Value: src("true")},
				&ast.Assignment{Path: []string{"parameters", "hacked"}, Value: src("true")},
				&ast.SetResult{Value: src("input.name"), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	input := value.Object(map[string]*value.Variable{"name": value.String("alice")})
	outcome, perr := interp.Perform(context.Background(), "Test", input, value.EmptyObject())
	require.Nil(t, perr)

	name, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	// the caller's original input must be untouched
	_, hadHack := value.GetByPath(input, []string{"hacked"})
	assert.False(t, hadHack)
}

func TestAssignmentsPersistAcrossStatements(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.Assignment{Path: []string{"x"}, Value: src("1")},
				&ast.Assignment{Path: []string{"x"}, Value: src("x + 1")},
				&ast.SetResult{Value: src("x"), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	outcome, perr := interp.Perform(context.Background(), "Test", value.None(), value.None())
	require.Nil(t, perr)
	n, _ := outcome.Result.Number()
	assert.Equal(t, 2.0, n)
}

func TestConditionalReturnAbortsBody(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.Conditional{
					Condition: src("true"),
					Then: []ast.Statement{
						&ast.SetResult{Value: src(`"early"`), Return: true},
					},
				},
				&ast.SetResult{Value: src(`"late"`), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	outcome, perr := interp.Perform(context.Background(), "Test", value.None(), value.None())
	require.Nil(t, perr)
	s, _ := outcome.Result.String()
	assert.Equal(t, "early", s)
}

func TestLastResultAssignmentWins(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.SetResult{Value: src(`"first"`)},
				&ast.SetResult{Value: src(`"second"`)},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	outcome, perr := interp.Perform(context.Background(), "Test", value.None(), value.None())
	require.Nil(t, perr)
	s, _ := outcome.Result.String()
	assert.Equal(t, "second", s)
}

func TestCallBlockExposesOutcomeAndPersistsAssignments(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.CallStatement{
					Operation: "Double",
					Args:      src("input"),
					Body: []ast.Statement{
						&ast.Assignment{Path: []string{"doubled"}, Value: src("outcome.data")},
					},
				},
				&ast.SetResult{Value: src("doubled"), Return: true},
			},
		}},
		Operations: []*ast.OperationDefinition{{
			Name: "Double",
			Body: []ast.Statement{
				&ast.SetResult{Value: src("args + args"), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	outcome, perr := interp.Perform(context.Background(), "Test", value.Number(21), value.None())
	require.Nil(t, perr)
	n, _ := outcome.Result.Number()
	assert.Equal(t, 42.0, n)
}

func TestInlineCallPropagatesOperationFailure(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.InlineCall{ResultPath: []string{"x"}, Operation: "Fail", Args: src("input")},
				&ast.SetResult{Value: src(`"unreachable"`), Return: true},
			},
		}},
		Operations: []*ast.OperationDefinition{{
			Name: "Fail",
			Body: []ast.Statement{
				&ast.SetError{Value: src(`"boom"`), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	outcome, perr := interp.Perform(context.Background(), "Test", value.None(), value.None())
	require.Nil(t, perr)
	assert.True(t, outcome.Result.IsNone())
	s, _ := outcome.Err.String()
	assert.Equal(t, "boom", s)
}

func TestInlineCallForeachCollectsConditionFilteredResults(t *testing.T) {
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.InlineCallForeach{
					ResultPath:   []string{"evens"},
					IterableExpr: src("input.items"),
					LoopVariable: "item",
					Condition:    src("item"),
					Operation:    "Identity",
					Args:         src("item"),
				},
				&ast.SetResult{Value: src("evens"), Return: true},
			},
		}},
		Operations: []*ast.OperationDefinition{{
			Name: "Identity",
			Body: []ast.Statement{
				&ast.SetResult{Value: src("args"), Return: true},
			},
		}},
	}
	interp := newTestInterpreter(doc, nil, nil)

	items := value.Array(value.Bool(true), value.Bool(false), value.Bool(true))
	input := value.Object(map[string]*value.Variable{"items": items})

	outcome, perr := interp.Perform(context.Background(), "Test", input, value.None())
	require.Nil(t, perr)
	arr, ok := outcome.Result.Array()
	require.True(t, ok)
	assert.Len(t, arr, 2)
}

func TestHTTPStatementSelectsMostSpecificResponseStanza(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"reason":"missing"}`))
	}))
	defer server.Close()

	statusCode404 := 404
	doc := &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.HTTPStatement{
					Method: "GET",
					URL:    src(`"/widgets"`),
					Responses: []*ast.HTTPResponseStanza{
						{
							Body: []ast.Statement{
								&ast.SetResult{Value: src(`"generic"`), Return: true},
							},
						},
						{
							StatusCode: &statusCode404,
							Body: []ast.Statement{
								&ast.SetResult{Value: src("body.reason"), Return: true},
							},
						},
					},
				},
			},
		}},
	}

	client, err := httpfetch.New("", 0)
	require.NoError(t, err)
	pipeline := transport.NewPipeline(client)
	interp := newTestInterpreter(doc, map[string]string{"": server.URL}, pipeline)

	outcome, perr := interp.Perform(context.Background(), "Test", value.None(), value.None())
	require.Nil(t, perr)
	reason, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "missing", reason)
}

func TestUnknownUseCaseReturnsPerformError(t *testing.T) {
	doc := &ast.MapDocument{}
	interp := newTestInterpreter(doc, nil, nil)

	_, perr := interp.Perform(context.Background(), "Missing", value.None(), value.None())
	require.NotNil(t, perr)
	assert.Equal(t, "map.interpreter.unknown-usecase", perr.Code)
}
