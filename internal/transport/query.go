package transport

import (
	"net/url"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

// BuildQuery coerces an object of Variables into url.Values per spec.md
// section 4.3: Primitive scalars stringify, arrays of scalars become
// repeated parameters, None omits the key, anything else is an error
// naming the offending key.
func BuildQuery(fields map[string]*value.Variable) (url.Values, error) {
	out := url.Values{}
	for k, v := range fields {
		if v.IsNone() {
			continue
		}
		strs, err := value.VariableToHTTPString(v)
		if err != nil {
			return nil, newError("fetch.request.invalid-map-value", "query parameter %q: %v", k, err)
		}
		out[k] = strs
	}
	return out, nil
}
