package httpfetch

import (
	"strings"

	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// DecodeResponseBody converts a raw response body into a Variable according
// to its Content-Type, mirroring the dispatch rules BuildBody uses in
// reverse (spec.md section 4.3's "response body decoded per Content-Type").
func DecodeResponseBody(contentType string, raw []byte) (*value.Variable, error) {
	if len(raw) == 0 {
		return value.None(), nil
	}
	mime := baseMimeType(contentType)
	switch {
	case mime == "" :
		return value.String(string(raw)), nil
	case strings.Contains(mime, "json"):
		v, err := value.FromJSON(raw)
		if err != nil {
			return nil, &transport.Error{Code: "fetch.response.invalid-body", Message: err.Error()}
		}
		return v, nil
	case strings.HasPrefix(mime, "text/"):
		return value.String(string(raw)), nil
	default:
		return value.Opaque(raw), nil
	}
}

func baseMimeType(contentType string) string {
	mime := contentType
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
