package transport

import (
	"strings"

	"github.com/superfaceai/one-sdk-go/internal/binary"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// BuildBody dispatches a body Variable to the FetchBody shape the content
// type requires (spec.md section 4.3):
//   - application/json             -> stringified JSON
//   - application/x-www-form-urlencoded -> HTTP-string coerced map
//   - multipart/form-data          -> the object kept structurally, Binary
//     entries becoming file parts
//   - any binary/* MIME            -> the Binary handle or raw buffer
//   - absent content-type with a non-None body -> error
func BuildBody(contentType string, body *value.Variable) (*FetchBody, error) {
	if body.IsNone() {
		return nil, nil
	}
	if contentType == "" {
		return nil, newError("fetch.request.unsupported-content-type", "body present but no content type was set")
	}

	mime := baseMimeType(contentType)
	switch {
	case mime == "application/json":
		raw, err := value.ToJSON(body)
		if err != nil {
			return nil, newError("fetch.request.body-encode", "encoding JSON body: %v", err)
		}
		return &FetchBody{Kind: BodyString, String: string(raw)}, nil

	case mime == "application/x-www-form-urlencoded":
		fields, ok := body.Object()
		if !ok {
			return nil, newError("fetch.request.invalid-body", "urlencoded body must be an object")
		}
		return &FetchBody{Kind: BodyURLEncoded, Form: fields}, nil

	case mime == "multipart/form-data":
		fields, ok := body.Object()
		if !ok {
			return nil, newError("fetch.request.invalid-body", "multipart body must be an object")
		}
		return &FetchBody{Kind: BodyFormData, Form: fields}, nil

	case isBinaryMime(mime):
		if handle, ok := body.Binary(); ok {
			stream, _ := handle.(*binary.Stream)
			return &FetchBody{Kind: BodyBinary, Binary: stream}, nil
		}
		if s, ok := body.String(); ok {
			return &FetchBody{Kind: BodyString, String: s}, nil
		}
		raw, err := value.ToJSON(body)
		if err != nil {
			return nil, newError("fetch.request.body-encode", "encoding binary body: %v", err)
		}
		return &FetchBody{Kind: BodyString, String: string(raw)}, nil

	default:
		raw, err := value.ToJSON(body)
		if err != nil {
			return nil, newError("fetch.request.body-encode", "encoding body: %v", err)
		}
		return &FetchBody{Kind: BodyString, String: string(raw)}, nil
	}
}

func baseMimeType(contentType string) string {
	mime := contentType
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func isBinaryMime(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "image/"),
		strings.HasPrefix(mime, "audio/"),
		strings.HasPrefix(mime, "video/"),
		mime == "application/octet-stream":
		return true
	default:
		return false
	}
}
