package onesdk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// fakeEvaluator understands just enough (scope paths and string literals)
// to exercise onesdk's wiring without depending on CEL semantics.
type fakeEvaluator struct{}

func (fakeEvaluator) Evaluate(ctx context.Context, scope expr.Scope, source string) (*value.Variable, error) {
	source = strings.TrimSpace(source)
	if strings.HasPrefix(source, `"`) && strings.HasSuffix(source, `"`) {
		return value.String(strings.Trim(source, `"`)), nil
	}
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

func src(s string) *ast.Expression { return &ast.Expression{Source: s} }

func literalMap(result string) *ast.MapDocument {
	return &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.SetResult{Value: src(`"` + result + `"`), Return: true},
			},
		}},
	}
}

func httpMap() *ast.MapDocument {
	return &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.HTTPStatement{
					Method: "GET",
					URL:    src(`"/"`),
					Responses: []*ast.HTTPResponseStanza{{
						Body: []ast.Statement{
							&ast.SetResult{Value: src("body.message"), Return: true},
						},
					}},
				},
			},
		}},
	}
}

// fakeMapLoader returns a fixed document per provider id.
type fakeMapLoader struct {
	documents map[string]*ast.MapDocument
	services  map[string]map[string]string
	loads     map[string]int
}

func newFakeMapLoader() *fakeMapLoader {
	return &fakeMapLoader{
		documents: map[string]*ast.MapDocument{},
		services:  map[string]map[string]string{},
		loads:     map[string]int{},
	}
}

func (f *fakeMapLoader) LoadMap(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*ProviderBinding, error) {
	f.loads[providerID]++
	doc, ok := f.documents[providerID]
	if !ok {
		return nil, fmt.Errorf("no map registered for provider %q", providerID)
	}
	return &ProviderBinding{Document: doc, Services: f.services[providerID]}, nil
}

func baseDocument() *config.NormalizedDocument {
	return &config.NormalizedDocument{
		Profiles:  map[string]config.NormalizedProfile{},
		Providers: map[string]config.NormalizedProvider{},
	}
}

func TestBuilderRequiresConfigAndMapLoader(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)

	_, err = NewBuilder().WithConfig(baseDocument()).Build()
	assert.Error(t, err)

	loader := newFakeMapLoader()
	c, err := NewBuilder().WithConfig(baseDocument()).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestPerformSucceedsAgainstConfiguredProvider(t *testing.T) {
	loader := newFakeMapLoader()
	loader.documents["p1"] = literalMap("ok")

	cfg := baseDocument()
	cfg.Providers["p1"] = config.NormalizedProvider{}
	cfg.Profiles["profile"] = config.NormalizedProfile{
		Priority: []string{"p1"},
		Defaults: map[string]config.UseCaseDefaults{
			"Test": {RetryPolicy: config.RetryPolicy{Kind: config.RetryNone}},
		},
		Providers: map[string]config.NormalizedProfileProvider{"p1": {}},
	}

	client, err := NewBuilder().WithConfig(cfg).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)

	outcome, perr := client.GetProfile("profile").GetUseCase("Test").Perform(context.Background(), value.None(), value.EmptyObject(), PerformOptions{})
	require.Nil(t, perr)
	result, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "ok", result)
}

func TestPerformFailsOverToNextProviderOnNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"from-p2"}`))
	}))
	defer server.Close()

	loader := newFakeMapLoader()
	loader.documents["p1"] = httpMap()
	loader.services["p1"] = map[string]string{"": "http://127.0.0.1:1"}
	loader.documents["p2"] = httpMap()
	loader.services["p2"] = map[string]string{"": server.URL}

	cfg := baseDocument()
	cfg.Providers["p1"] = config.NormalizedProvider{}
	cfg.Providers["p2"] = config.NormalizedProvider{}
	cfg.Profiles["profile"] = config.NormalizedProfile{
		Priority: []string{"p1", "p2"},
		Defaults: map[string]config.UseCaseDefaults{
			"Test": {RetryPolicy: config.RetryPolicy{Kind: config.RetryNone}, ProviderFailover: true},
		},
		Providers: map[string]config.NormalizedProfileProvider{"p1": {}, "p2": {}},
	}

	client, err := NewBuilder().WithConfig(cfg).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)

	outcome, perr := client.GetProfile("profile").GetUseCase("Test").Perform(context.Background(), value.None(), value.EmptyObject(), PerformOptions{})
	require.Nil(t, perr)
	result, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "from-p2", result)
}

func TestPerformHonorsExplicitProviderOverride(t *testing.T) {
	loader := newFakeMapLoader()
	loader.documents["p1"] = literalMap("from-p1")
	loader.documents["p2"] = literalMap("from-p2")

	cfg := baseDocument()
	cfg.Providers["p1"] = config.NormalizedProvider{}
	cfg.Providers["p2"] = config.NormalizedProvider{}
	cfg.Profiles["profile"] = config.NormalizedProfile{
		Priority: []string{"p1", "p2"},
		Defaults: map[string]config.UseCaseDefaults{
			"Test": {RetryPolicy: config.RetryPolicy{Kind: config.RetryNone}},
		},
		Providers: map[string]config.NormalizedProfileProvider{"p1": {}, "p2": {}},
	}

	client, err := NewBuilder().WithConfig(cfg).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)

	outcome, perr := client.GetProfile("profile").GetUseCase("Test").Perform(context.Background(), value.None(), value.EmptyObject(), PerformOptions{Provider: "p2"})
	require.Nil(t, perr)
	result, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "from-p2", result)
	assert.Zero(t, loader.loads["p1"])
}

func TestPerformReturnsFatalErrorForMissingProfile(t *testing.T) {
	loader := newFakeMapLoader()
	client, err := NewBuilder().WithConfig(baseDocument()).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)

	_, perr := client.GetProfile("missing").GetUseCase("Test").Perform(context.Background(), value.None(), value.EmptyObject(), PerformOptions{})
	require.NotNil(t, perr)
	assert.Equal(t, "config.missing-profile", perr.Code)
}

func TestProviderParametersSeedTheParametersScope(t *testing.T) {
	loader := newFakeMapLoader()
	loader.documents["p1"] = &ast.MapDocument{
		UseCases: []*ast.UseCaseDefinition{{
			Name: "Test",
			Body: []ast.Statement{
				&ast.SetResult{Value: src("parameters.greeting"), Return: true},
			},
		}},
	}

	cfg := baseDocument()
	cfg.Providers["p1"] = config.NormalizedProvider{Parameters: map[string]string{"greeting": "hello"}}
	cfg.Profiles["profile"] = config.NormalizedProfile{
		Priority: []string{"p1"},
		Defaults: map[string]config.UseCaseDefaults{
			"Test": {RetryPolicy: config.RetryPolicy{Kind: config.RetryNone}},
		},
		Providers: map[string]config.NormalizedProfileProvider{"p1": {}},
	}

	client, err := NewBuilder().WithConfig(cfg).WithMapLoader(loader).WithEvaluator(fakeEvaluator{}).Build()
	require.NoError(t, err)

	outcome, perr := client.GetProfile("profile").GetUseCase("Test").Perform(context.Background(), value.None(), value.EmptyObject(), PerformOptions{})
	require.Nil(t, perr)
	result, ok := outcome.Result.String()
	require.True(t, ok)
	assert.Equal(t, "hello", result)
}
