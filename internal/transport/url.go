package transport

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

var placeholderPattern = regexp.MustCompile(`\{(.*?)\}`)

// CreateURL renders base + inputURL, resolving "{name}" placeholders
// non-greedily against params (dot-split, trimmed, looked up via
// value.GetByPath), per spec.md section 4.3. Trailing slashes on base are
// collapsed to exactly one when the input URL is empty (base is returned
// on its own); a non-empty input URL must start with "/", and base's
// trailing slashes are dropped before it is appended so the two join with
// a single slash. Missing or non-stringifiable placeholder values are
// accumulated and reported together.
func CreateURL(base, inputURL string, params *value.Variable) (string, error) {
	base = collapseTrailingSlashes(base)
	if inputURL == "" {
		return base, nil
	}
	if !strings.HasPrefix(inputURL, "/") {
		return "", newError("fetch.request.invalid-url", "input URL %q must start with \"/\" or be empty", inputURL)
	}

	rendered, err := renderPlaceholders(inputURL, params)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + rendered, nil
}

func collapseTrailingSlashes(base string) string {
	trimmed := strings.TrimRight(base, "/")
	if base != "" && strings.HasSuffix(base, "/") {
		return trimmed + "/"
	}
	return trimmed
}

func renderPlaceholders(template string, params *value.Variable) (string, error) {
	var missing []string
	result := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		inner := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])
		path := value.SplitPath(inner)
		v, ok := value.GetByPath(params, path)
		if !ok {
			missing = append(missing, inner)
			return match
		}
		strs, err := value.VariableToHTTPString(v)
		if err != nil || len(strs) == 0 {
			missing = append(missing, inner)
			return match
		}
		return url.PathEscape(strs[0])
	})
	if len(missing) > 0 {
		return "", newError(
			"fetch.request.missing-url-parameter",
			"missing or non-stringifiable URL parameters %v; available keys: %v",
			missing, availableKeys(params),
		)
	}
	return result, nil
}

func availableKeys(params *value.Variable) []string {
	fields, ok := params.Object()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
