// Package transport implements the HTTP request pipeline (spec.md section
// 4.3): URL/body/header construction, content-type dispatch, response
// decoding and the authenticate/prepareRequest/fetch/handleResponse filter
// chain. Security (API-key, Basic/Bearer, Digest) is delegated to the
// internal/security package through the SecurityHandler interface defined
// here.
package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/superfaceai/one-sdk-go/internal/binary"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// BodyKind discriminates the FetchBody variants spec.md section 3 requires.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyString
	BodyFormData
	BodyURLEncoded
	BodyBinary
)

// FetchBody is the request body ultimately handed to the fetch adapter.
type FetchBody struct {
	Kind   BodyKind
	String string
	Form   map[string]*value.Variable
	Binary *binary.Stream
	Raw    []byte
}

// Request is the complete, ready-to-send HTTP request (spec.md section 3).
// It is only ever produced by Parameters.Build, never assembled field by field
// by callers, per Design Notes section 9 ("avoid modelling the half-built
// request as nullable fields").
type Request struct {
	URL             string
	Method          string
	Headers         http.Header
	QueryParameters url.Values
	Body            *FetchBody
}

// Response is the decoded HTTP response (spec.md section 3).
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       *value.Variable
	// RawBody preserves the undecoded bytes for non-JSON/handlers that need
	// them (e.g. Digest's handleResponse never needs them, but debug output
	// does).
	RawBody []byte
	// DebugRequest mirrors the originating Request for debug.request.
	DebugRequest *Request
}

// Fetch is the injected transport adapter (spec.md section 6).
type Fetch interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// SecurityHandler is the narrow contract security schemes implement
// (spec.md section 4.4). Authenticate may mutate any part of Parameters;
// HandleResponse may return a replacement Request to be retried exactly
// once.
type SecurityHandler interface {
	Authenticate(ctx context.Context, params *Parameters) error
	HandleResponse(ctx context.Context, resp *Response, params *Parameters) (*Request, error)
}
