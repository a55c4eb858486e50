package onesdk

import (
	"fmt"
	"strings"

	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/security"
	"github.com/superfaceai/one-sdk-go/internal/transport"
)

// buildSecurityRegistry compiles a provider's normalized security values
// into a registry of handlers keyed by requirement id; selecting one
// handler per request ("last matching requirement wins") is
// Registry.Resolve's job, not this constructor's.
func buildSecurityRegistry(values []config.SecurityValue, digestCache *security.DigestCache, rand security.RandSource) (*security.Registry, error) {
	registry := security.NewRegistry()
	for _, v := range values {
		handler, err := buildSecurityHandler(v, digestCache, rand)
		if err != nil {
			return nil, err
		}
		registry.Register(v.ID, handler)
	}
	return registry, nil
}

func buildSecurityHandler(v config.SecurityValue, digestCache *security.DigestCache, rand security.RandSource) (transport.SecurityHandler, error) {
	switch strings.ToLower(v.Type) {
	case "apikey":
		placement, err := apiKeyPlacement(v.In)
		if err != nil {
			return nil, fmt.Errorf("security %q: %w", v.ID, err)
		}
		return &security.APIKey{Placement: placement, Name: v.Name, Value: v.APIKey}, nil
	case "http":
		switch strings.ToLower(v.Scheme) {
		case "basic":
			return &security.Basic{Username: v.Username, Password: v.Password}, nil
		case "bearer":
			return &security.Bearer{Token: v.Token}, nil
		case "digest":
			return &security.Digest{
				ID:                  v.ID,
				Username:            v.Username,
				Password:            v.Password,
				StatusCode:          v.StatusCode,
				ChallengeHeader:     v.ChallengeHeader,
				AuthorizationHeader: v.AuthorizationHeader,
				Cache:               digestCache,
				Rand:                rand,
			}, nil
		default:
			return nil, fmt.Errorf("security %q: unknown http scheme %q", v.ID, v.Scheme)
		}
	default:
		return nil, fmt.Errorf("security %q: unknown security type %q", v.ID, v.Type)
	}
}

func apiKeyPlacement(in string) (security.Placement, error) {
	switch strings.ToLower(in) {
	case "header", "":
		return security.PlacementHeader, nil
	case "query":
		return security.PlacementQuery, nil
	case "path":
		return security.PlacementPath, nil
	case "body":
		return security.PlacementBody, nil
	default:
		return 0, fmt.Errorf("unknown apikey placement %q", in)
	}
}
