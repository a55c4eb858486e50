package transport

import (
	"context"
	"net/http"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Parameters is the intermediate, partially-built request state the filter
// chain mutates (spec.md section 4.3's "{ parameters, request?, response? }").
// It is never exposed as a finished Request; Build converts it once every
// filter has run.
type Parameters struct {
	BaseURL         string
	InputURL        string
	Method          string
	ContentType     string
	PathParameters  *value.Variable
	QueryParameters *value.Variable
	Headers         http.Header
	Body            *value.Variable
	UserAgent       string

	Security SecurityHandler
}

// NewParameters returns a Parameters value with initialized collections.
func NewParameters() *Parameters {
	return &Parameters{
		PathParameters:  value.EmptyObject(),
		QueryParameters: value.EmptyObject(),
		Headers:         http.Header{},
		Body:            value.None(),
	}
}

// Build runs url -> body -> query -> method -> headers in order and
// returns the complete Request (spec.md section 4.3's prepareRequest).
func (p *Parameters) Build() (*Request, error) {
	rendered, err := CreateURL(p.BaseURL, p.InputURL, p.PathParameters)
	if err != nil {
		return nil, err
	}

	body, err := BuildBody(p.ContentType, p.Body)
	if err != nil {
		return nil, err
	}

	queryFields, _ := p.QueryParameters.Object()
	query, err := BuildQuery(queryFields)
	if err != nil {
		return nil, err
	}

	method := p.Method
	if method == "" {
		method = http.MethodGet
	}

	headers := cloneHeader(p.Headers)
	ApplyHeaderDefaults(headers, p.ContentType, body, p.UserAgent)

	return &Request{
		URL:             rendered,
		Method:          method,
		Headers:         headers,
		QueryParameters: query,
		Body:            body,
	}, nil
}

func cloneHeader(h http.Header) http.Header {
	out := http.Header{}
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Pipeline runs the full authenticate -> prepareRequest -> fetch ->
// handleResponse chain (spec.md section 4.3).
type Pipeline struct {
	Fetch Fetch
}

// NewPipeline constructs a Pipeline around the given fetch adapter.
func NewPipeline(fetch Fetch) *Pipeline {
	return &Pipeline{Fetch: fetch}
}

// Run executes one HTTP exchange, replaying fetch exactly once more if the
// security handler's handleResponse hook supplies a replacement request
// (e.g. Digest's 401 challenge/response).
func (p *Pipeline) Run(ctx context.Context, params *Parameters) (*Response, error) {
	if params.Security != nil {
		if err := params.Security.Authenticate(ctx, params); err != nil {
			return nil, err
		}
	}

	req, err := params.Build()
	if err != nil {
		return nil, err
	}

	resp, err := p.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if params.Security != nil {
		replacement, err := params.Security.HandleResponse(ctx, resp, params)
		if err != nil {
			return nil, err
		}
		if replacement != nil {
			resp, err = p.fetch(ctx, replacement)
			if err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

func (p *Pipeline) fetch(ctx context.Context, req *Request) (*Response, error) {
	if req.URL == "" || req.Method == "" {
		return nil, newError("fetch.request.incomplete", "request must have a non-empty url and method before fetch")
	}
	resp, err := p.Fetch.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.DebugRequest = req
	return resp, nil
}
