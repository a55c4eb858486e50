package security

import (
	"context"
	"encoding/base64"

	"github.com/superfaceai/one-sdk-go/internal/transport"
)

// Basic implements transport.SecurityHandler for HTTP Basic auth.
type Basic struct {
	Username string
	Password string
}

var _ transport.SecurityHandler = (*Basic)(nil)

func (b *Basic) Authenticate(ctx context.Context, params *transport.Parameters) error {
	token := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	params.Headers.Set("Authorization", "Basic "+token)
	return nil
}

func (b *Basic) HandleResponse(ctx context.Context, resp *transport.Response, params *transport.Parameters) (*transport.Request, error) {
	return nil, nil
}

// Bearer implements transport.SecurityHandler for HTTP Bearer auth.
type Bearer struct {
	Token string
}

var _ transport.SecurityHandler = (*Bearer)(nil)

func (b *Bearer) Authenticate(ctx context.Context, params *transport.Parameters) error {
	params.Headers.Set("Authorization", "Bearer "+b.Token)
	return nil
}

func (b *Bearer) HandleResponse(ctx context.Context, resp *transport.Response, params *transport.Parameters) (*transport.Request, error) {
	return nil, nil
}
