// Package main is a tiny runnable entry point for the library: it loads
// super.json, binds an in-process map (standing in for a parsed .suma
// file, since a DSL parser is out of scope of this module), starts a
// local HTTP server playing the role of a provider, and performs one
// use-case against it: a thin main wiring config, logging, and the
// runtime together.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/logging"
	"github.com/superfaceai/one-sdk-go/internal/value"
	"github.com/superfaceai/one-sdk-go/sdk/onesdk"
)

func main() {
	configPath := flag.String("config", "super.json", "path to super.json")
	city := flag.String("city", "Prague", "city to look up")
	flag.Parse()

	log := logging.New(logging.Options{Output: os.Stderr})

	server := httptest.NewServer(http.HandlerFunc(weatherHandler))
	defer server.Close()

	cfg, err := config.LoadConfig(*configPath, os.LookupEnv, func(msg string) { log.Log("config", msg) })
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	client, err := onesdk.NewBuilder().
		WithConfig(cfg).
		WithMapLoader(localMapLoader{serviceURL: server.URL}).
		WithLogger(log).
		Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build client:", err)
		os.Exit(1)
	}

	input := value.Object(map[string]*value.Variable{"city": value.String(*city)})
	outcome, perr := client.GetProfile("weather").GetUseCase("GetCurrentWeather").
		Perform(context.Background(), input, value.EmptyObject(), onesdk.PerformOptions{})
	if perr != nil {
		fmt.Fprintln(os.Stderr, "perform:", perr)
		os.Exit(1)
	}

	native, err := value.ToNative(outcome.Result)
	if err != nil {
		fmt.Fprintln(os.Stderr, "convert result:", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(native, "", "  ")
	fmt.Println(string(out))
}

// weatherHandler stands in for the "local" provider's API.
func weatherHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"city":        r.URL.Query().Get("city"),
		"temperature": 18.5,
	})
}

// localMapLoader returns a hand-built map AST for the "local" provider,
// standing in for a registry-fetched, parsed .suma file (this module
// implements neither the DSL parser nor the registry fetch).
type localMapLoader struct {
	serviceURL string
}

func (l localMapLoader) LoadMap(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*onesdk.ProviderBinding, error) {
	doc := &ast.MapDocument{
		Profile:  profileID,
		Provider: providerID,
		UseCases: []*ast.UseCaseDefinition{{
			Name: "GetCurrentWeather",
			Body: []ast.Statement{
				&ast.HTTPStatement{
					Method: "GET",
					URL:    expr("\"/weather\""),
					Requests: []*ast.HTTPRequestStanza{{
						Query: expr("{\"city\": input.city}"),
					}},
					Responses: []*ast.HTTPResponseStanza{{
						Body: []ast.Statement{
							&ast.SetResult{
								Return: true,
								Value:  expr("{\"city\": body.city, \"temperature\": body.temperature, \"greeting\": parameters.greeting}"),
							},
						},
					}},
				},
			},
		}},
	}
	return &onesdk.ProviderBinding{
		Document: doc,
		Services: map[string]string{"": l.serviceURL},
	}, nil
}

func expr(source string) *ast.Expression { return &ast.Expression{Source: source} }
