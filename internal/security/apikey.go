package security

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Placement discriminates where an API key is attached.
type Placement int

const (
	PlacementHeader Placement = iota
	PlacementQuery
	PlacementPath
	PlacementBody
)

// APIKey implements transport.SecurityHandler for the apikey scheme.
type APIKey struct {
	Placement Placement
	// Name defaults to "Authorization" when empty. For PlacementBody it is a
	// JSON-pointer-like path ("/a/b/c"); a bare name with no leading slash is
	// treated as a single segment.
	Name  string
	Value string
}

var _ transport.SecurityHandler = (*APIKey)(nil)

func (a *APIKey) Authenticate(ctx context.Context, params *transport.Parameters) error {
	name := a.Name
	if name == "" {
		name = "Authorization"
	}

	switch a.Placement {
	case PlacementHeader:
		params.Headers.Set(name, a.Value)
	case PlacementQuery:
		fields, _ := params.QueryParameters.Object()
		out := make(map[string]*value.Variable, len(fields)+1)
		for k, v := range fields {
			out[k] = v
		}
		out[name] = value.String(a.Value)
		params.QueryParameters = value.Object(out)
	case PlacementPath:
		fields, _ := params.PathParameters.Object()
		out := make(map[string]*value.Variable, len(fields)+1)
		for k, v := range fields {
			out[k] = v
		}
		out[name] = value.String(a.Value)
		params.PathParameters = value.Object(out)
	case PlacementBody:
		segments := bodyPointerPath(name)
		path := strings.Join(segments, ".")
		raw, err := value.ToJSON(params.Body)
		if err != nil {
			return newError("apikey.invalid-body-path", "cannot place apikey at %q: %v", name, err)
		}
		if err := checkBodyPathWritable(raw, segments); err != nil {
			return newError("apikey.invalid-body-path", "cannot place apikey at %q: %v", name, err)
		}
		updated, err := sjson.SetBytes(raw, path, a.Value)
		if err != nil {
			return newError("apikey.invalid-body-path", "cannot place apikey at %q: %v", name, err)
		}
		merged, err := value.FromJSON(updated)
		if err != nil {
			return newError("apikey.invalid-body-path", "cannot place apikey at %q: %v", name, err)
		}
		params.Body = merged
	default:
		return newError("apikey.invalid-placement", "unknown apikey placement")
	}
	return nil
}

func (a *APIKey) HandleResponse(ctx context.Context, resp *transport.Response, params *transport.Parameters) (*transport.Request, error) {
	return nil, nil
}

// bodyPointerPath splits a JSON-pointer-like path ("/a/b/c") on "/", then
// Authenticate joins the segments back with "." for sjson.SetBytes, which
// addresses nested fields by dotted path; a bare name with no leading slash
// is a single segment.
func bodyPointerPath(name string) []string {
	if !strings.HasPrefix(name, "/") {
		return []string{name}
	}
	parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
	return parts
}

// checkBodyPathWritable rejects a path whose intermediate segments already
// resolve to a JSON array or scalar in raw, mirroring the object-only
// traversal rule Authenticate's PlacementBody case enforces.
func checkBodyPathWritable(raw []byte, segments []string) error {
	for i := 1; i < len(segments); i++ {
		prefix := strings.Join(segments[:i], ".")
		result := gjson.GetBytes(raw, prefix)
		if !result.Exists() || result.IsObject() {
			continue
		}
		return newError("apikey.invalid-body-path", "intermediate node %q is not an object", prefix)
	}
	return nil
}
