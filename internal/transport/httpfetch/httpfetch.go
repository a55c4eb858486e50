// Package httpfetch provides the default net/http-backed implementation of
// the transport.Fetch adapter interface, grounded on the teacher's
// ProxyURL-aware client construction (internal/config.SDKConfig.ProxyURL)
// and the request/cancellation model spec.md section 5 requires.
package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/superfaceai/one-sdk-go/internal/binary"
	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/value"
)

// Client adapts *http.Client to transport.Fetch.
type Client struct {
	HTTPClient *http.Client
	// Timeout bounds every request issued through Do unless the context
	// already carries an earlier deadline. Zero means no adapter-level
	// timeout (the caller's context still applies).
	Timeout time.Duration
}

// New constructs a Client, optionally routing outbound traffic through
// proxyURL the same way the teacher's SDKConfig.ProxyURL does.
func New(proxyURL string, timeout time.Duration) (*Client, error) {
	transportImpl := &http.Transport{}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		transportImpl.Proxy = http.ProxyURL(parsed)
	}
	return &Client{
		HTTPClient: &http.Client{Transport: transportImpl},
		Timeout:    timeout,
	}, nil
}

// Do implements transport.Fetch.
func (c *Client) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	body, contentType, err := buildBodyReader(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, withQuery(req.URL, req.QueryParameters), body)
	if err != nil {
		return nil, translateRequestError(err)
	}
	httpReq.Header = req.Headers.Clone()
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, translateFetchError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translateFetchError(ctx, err)
	}

	decoded, err := DecodeResponseBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, err
	}

	return &transport.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       decoded,
		RawBody:    raw,
	}, nil
}

func withQuery(rawURL string, query url.Values) string {
	if len(query) == 0 {
		return rawURL
	}
	sep := "?"
	if containsQuery(rawURL) {
		sep = "&"
	}
	return rawURL + sep + query.Encode()
}

func containsQuery(rawURL string) bool {
	for _, r := range rawURL {
		if r == '?' {
			return true
		}
	}
	return false
}

func buildBodyReader(body *transport.FetchBody) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch body.Kind {
	case transport.BodyString:
		return bytes.NewBufferString(body.String), "", nil
	case transport.BodyURLEncoded:
		values := url.Values{}
		for k, v := range body.Form {
			strs, err := variableToStrings(v)
			if err != nil {
				return nil, "", err
			}
			values[k] = strs
		}
		return bytes.NewBufferString(values.Encode()), "application/x-www-form-urlencoded", nil
	case transport.BodyFormData:
		return buildMultipart(body.Form)
	case transport.BodyBinary:
		if body.Binary != nil {
			r, err := body.Binary.ToStream()
			if err != nil {
				return nil, "", err
			}
			return r, "", nil
		}
		return bytes.NewReader(body.Raw), "", nil
	default:
		return nil, "", nil
	}
}

func buildMultipart(fields map[string]*value.Variable) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for name, part := range fields {
		if part.IsNone() {
			continue
		}
		if handle, ok := part.Binary(); ok {
			stream, _ := handle.(*binary.Stream)
			fw, err := writer.CreateFormFile(name, handle.Name())
			if err != nil {
				return nil, "", err
			}
			if stream != nil {
				r, err := stream.ToStream()
				if err != nil {
					return nil, "", err
				}
				if _, err := io.Copy(fw, r); err != nil {
					return nil, "", err
				}
			}
			continue
		}
		strs, err := variableToStrings(part)
		if err != nil {
			return nil, "", err
		}
		for _, s := range strs {
			if err := writer.WriteField(name, s); err != nil {
				return nil, "", err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}

func variableToStrings(v *value.Variable) ([]string, error) {
	strs, err := value.VariableToHTTPString(v)
	if err != nil {
		return nil, &transport.Error{Code: "fetch.request.invalid-map-value", Message: err.Error()}
	}
	return strs, nil
}

func translateFetchError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &transport.Error{Code: "fetch.request.timeout", Message: err.Error()}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return &transport.Error{Code: "fetch.request.abort", Message: err.Error()}
	}
	return &transport.Error{Code: "fetch.network.unreachable", Message: err.Error()}
}

func translateRequestError(err error) error {
	return &transport.Error{Code: "fetch.request.invalid", Message: err.Error()}
}
