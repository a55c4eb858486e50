package interpreter

import (
	"context"
	"net/http"
	"strings"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/security"
	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// execHTTPStatement assembles RequestParameters from the first matching
// request stanza, runs the pipeline, selects the most specific matching
// response stanza, binds body/statusCode/headers into the caller's frame
// and runs the stanza's body there (spec.md section 4.8: "http RESPONSE
// blocks share the caller's frame").
func (i *Interpreter) execHTTPStatement(ctx context.Context, fr *frame, s *ast.HTTPStatement, state *execState) (bool, *PerformError) {
	urlTemplate, err := i.eval(ctx, fr, s.URL)
	if err != nil {
		return false, err
	}
	template, _ := urlTemplate.String()

	baseURL, ok := i.Services[s.ServiceID]
	if !ok {
		return false, newLocatedError("map.interpreter.unknown-service", s.Loc, "service %q is not declared by this provider", s.ServiceID)
	}

	stanza := selectRequestStanza(s.Requests)
	params := transport.NewParameters()
	params.BaseURL = baseURL
	params.InputURL = template
	params.Method = strings.ToUpper(s.Method)
	params.PathParameters = value.Object(fr.vars)

	if stanza != nil {
		params.ContentType = stanza.ContentType
		params.Security = i.Security.Resolve(stanza.Security)

		headersVar, err := i.eval(ctx, fr, stanza.Headers)
		if err != nil {
			return false, err
		}
		headers, headerErr := variableToHeader(headersVar)
		if headerErr != nil {
			return false, newLocatedError("map.interpreter.invalid-header", stanza.Loc, "%v", headerErr)
		}
		params.Headers = headers

		queryVar, err := i.eval(ctx, fr, stanza.Query)
		if err != nil {
			return false, err
		}
		params.QueryParameters = queryVar

		bodyVar, err := i.eval(ctx, fr, stanza.Body)
		if err != nil {
			return false, err
		}
		params.Body = bodyVar
	}

	resp, fetchErr := i.Pipeline.Run(ctx, params)
	if fetchErr != nil {
		// security-handler failures (spec.md section 7: "digest.* : local:
		// surfaced as map error") are business-level outcomes, not fatal
		// PerformErrors the policy layer would retry.
		if se, ok := fetchErr.(*security.Error); ok {
			state.mapErr = value.Object(map[string]*value.Variable{
				"code":    value.String(se.Code),
				"message": value.String(se.Message),
			})
			return true, nil
		}
		code := "fetch.network.unknown"
		if te, ok := fetchErr.(*transport.Error); ok {
			code = te.Code
		}
		return false, newLocatedError(code, s.Loc, "%v", fetchErr)
	}

	response := selectResponseStanza(s.Responses, resp)
	if response == nil {
		return false, newLocatedError("map.interpreter.unmatched-response", s.Loc, "no response stanza matched status %d", resp.StatusCode)
	}

	fr.vars["statusCode"] = value.Number(float64(resp.StatusCode))
	fr.vars["body"] = orNone(resp.Body)
	fr.vars["headers"] = headerToVariable(resp.Headers)

	return i.execBody(ctx, fr, response.Body, state)
}

// selectRequestStanza picks the first declared request stanza; full
// content-negotiation across multiple request bodies isn't specified
// beyond "chooses the first matching" (spec.md section 4.8), so with one
// stanza this is exact and with several the first one always wins.
func selectRequestStanza(stanzas []*ast.HTTPRequestStanza) *ast.HTTPRequestStanza {
	if len(stanzas) == 0 {
		return nil
	}
	return stanzas[0]
}

// selectResponseStanza picks the matching stanza with the highest
// specificity score: a statusCode match counts most, then content-type,
// then content-language; an unconstrained field matches anything but
// contributes no score, so a fully-constrained stanza always outranks a
// partially-constrained one (spec.md section 4.8: "most specific wins").
func selectResponseStanza(stanzas []*ast.HTTPResponseStanza, resp *transport.Response) *ast.HTTPResponseStanza {
	var best *ast.HTTPResponseStanza
	bestScore := -1

	for _, stanza := range stanzas {
		score, matched := scoreResponseStanza(stanza, resp)
		if !matched {
			continue
		}
		if score > bestScore {
			best = stanza
			bestScore = score
		}
	}
	return best
}

func scoreResponseStanza(stanza *ast.HTTPResponseStanza, resp *transport.Response) (int, bool) {
	score := 0
	if stanza.StatusCode != nil {
		if *stanza.StatusCode != resp.StatusCode {
			return 0, false
		}
		score += 4
	}
	if stanza.ContentType != "" {
		if !strings.Contains(strings.ToLower(resp.Headers.Get("Content-Type")), strings.ToLower(stanza.ContentType)) {
			return 0, false
		}
		score += 2
	}
	if stanza.ContentLanguage != "" {
		if !strings.EqualFold(resp.Headers.Get("Content-Language"), stanza.ContentLanguage) {
			return 0, false
		}
		score += 1
	}
	return score, true
}

func variableToHeader(v *value.Variable) (http.Header, error) {
	out := http.Header{}
	fields, ok := v.Object()
	if !ok {
		return out, nil
	}
	for k, val := range fields {
		strs, err := value.VariableToHTTPString(val)
		if err != nil {
			return nil, err
		}
		for _, s := range strs {
			out.Add(k, s)
		}
	}
	return out, nil
}

func headerToVariable(h http.Header) *value.Variable {
	fields := make(map[string]*value.Variable, len(h))
	for k, vals := range h {
		items := make([]*value.Variable, len(vals))
		for i, v := range vals {
			items[i] = value.String(v)
		}
		fields[k] = value.Array(items...)
	}
	return value.Object(fields)
}
