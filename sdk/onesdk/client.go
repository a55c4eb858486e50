// Package onesdk is the public use-case driver: it binds a profile to a
// provider (cached), toggles failover, and invokes the map interpreter
// under the event bus, implementing the perform algorithm on top of
// internal/config, internal/failure, internal/eventbus and
// internal/interpreter. Its Builder offers a fluent `With...()`
// configuration surface with `Build()` filling in defaults and validating
// required fields.
package onesdk

import (
	"context"
	cryptorand "crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/superfaceai/one-sdk-go/internal/ast"
	"github.com/superfaceai/one-sdk-go/internal/config"
	"github.com/superfaceai/one-sdk-go/internal/eventbus"
	"github.com/superfaceai/one-sdk-go/internal/expr"
	"github.com/superfaceai/one-sdk-go/internal/expr/cel"
	"github.com/superfaceai/one-sdk-go/internal/failure"
	"github.com/superfaceai/one-sdk-go/internal/logging"
	"github.com/superfaceai/one-sdk-go/internal/security"
	"github.com/superfaceai/one-sdk-go/internal/transport"
	"github.com/superfaceai/one-sdk-go/internal/transport/httpfetch"
)

const defaultBoundProviderTTL = 60 * time.Second

// ProviderBinding is what an external MapLoader produces for one profile-
// provider pair: the parsed map AST (the DSL parser itself is a separate
// external collaborator this package doesn't implement) and the provider's
// declared services (serviceId -> base URL), which live in the provider's
// own definition document rather than in super.json.
type ProviderBinding struct {
	Document *ast.MapDocument
	Services map[string]string
}

// MapLoader resolves (profile, provider, mapVariant, mapRevision) to a
// ProviderBinding; it is the registry-fetching collaborator a host program
// supplies.
type MapLoader interface {
	LoadMap(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*ProviderBinding, error)
}

// Client is the bound root of the public API:
// Client.getProfile(id).getUseCase(name).perform(input, options).
type Client struct {
	config *config.NormalizedDocument
	maps   MapLoader

	evaluator expr.Evaluator
	pipeline  *transport.Pipeline
	bus       *eventbus.Bus
	logger    logging.Logger

	digestCache *security.DigestCache
	rand        security.RandSource

	cache *providerCache

	stateMu sync.Mutex
	routers map[string]*failure.Router
}

// Builder constructs a Client with customizable collaborators via a
// fluent NewBuilder().With...().Build() construction idiom.
type Builder struct {
	cfg       *config.NormalizedDocument
	maps      MapLoader
	evaluator expr.Evaluator
	fetch     transport.Fetch
	logger    logging.Logger
	cacheTTL  time.Duration
}

// NewBuilder creates a Builder with default dependencies left unset.
func NewBuilder() *Builder { return &Builder{} }

// WithConfig sets the normalized super.json document used by the client.
func (b *Builder) WithConfig(cfg *config.NormalizedDocument) *Builder {
	b.cfg = cfg
	return b
}

// WithMapLoader overrides the provider responsible for resolving map ASTs
// and service URLs.
func (b *Builder) WithMapLoader(loader MapLoader) *Builder {
	b.maps = loader
	return b
}

// WithEvaluator overrides the host-expression evaluator used to resolve
// the expression nodes in map bodies; defaults to the CEL-backed
// implementation (internal/expr/cel).
func (b *Builder) WithEvaluator(e expr.Evaluator) *Builder {
	b.evaluator = e
	return b
}

// WithFetch overrides the injected fetch adapter; defaults to the
// standard-library-backed httpfetch.Client.
func (b *Builder) WithFetch(f transport.Fetch) *Builder {
	b.fetch = f
	return b
}

// WithLogger overrides the namespaced logger; defaults to a no-op logger.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// WithCacheTTL overrides the bound profile-provider cache TTL; defaults
// to 60s.
func (b *Builder) WithCacheTTL(ttl time.Duration) *Builder {
	b.cacheTTL = ttl
	return b
}

// Build validates inputs, applies defaults, and returns a ready-to-use
// Client.
func (b *Builder) Build() (*Client, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("onesdk: configuration is required")
	}
	if b.maps == nil {
		return nil, fmt.Errorf("onesdk: a map loader is required")
	}

	evaluator := b.evaluator
	if evaluator == nil {
		evaluator = cel.New()
	}

	fetchAdapter := b.fetch
	if fetchAdapter == nil {
		client, err := httpfetch.New("", 0)
		if err != nil {
			return nil, fmt.Errorf("onesdk: failed to construct default fetch adapter: %w", err)
		}
		fetchAdapter = client
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Nop{}
	}

	ttl := b.cacheTTL
	if ttl == 0 {
		ttl = defaultBoundProviderTTL
	}

	c := &Client{
		config:      b.cfg,
		maps:        b.maps,
		evaluator:   evaluator,
		pipeline:    transport.NewPipeline(fetchAdapter),
		bus:         eventbus.NewBus(),
		logger:      logger,
		digestCache: security.NewDigestCache(),
		rand:        cryptorand.Reader,
		routers:     map[string]*failure.Router{},
	}
	c.cache = newProviderCache(ttl, c.bind)
	return c, nil
}

// Bus exposes the event bus so a host program can register hooks
// observing every bind-and-perform call.
func (c *Client) Bus() *eventbus.Bus { return c.bus }

// ReplaceConfig swaps the normalized document in place and drops every
// cached binding, used by the configuration watcher (internal/watcher) on
// a super.json reload.
func (c *Client) ReplaceConfig(cfg *config.NormalizedDocument) {
	c.stateMu.Lock()
	previous := c.config
	c.config = cfg
	c.routers = map[string]*failure.Router{}
	c.stateMu.Unlock()

	if previous != nil {
		for profileID := range previous.Profiles {
			c.cache.invalidate(profileID)
		}
	}
}

// GetProfile returns a handle bound to profileID; the profile need not
// exist yet in super.json (that is checked at Perform time), matching the
// teacher-style fluent accessor `getProfile(id).getUseCase(name)`.
func (c *Client) GetProfile(profileID string) *Profile {
	return &Profile{client: c, id: profileID}
}

func (c *Client) snapshotConfig() *config.NormalizedDocument {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.config
}

func (c *Client) routerFor(profileID, useCase string, profile config.NormalizedProfile) *failure.Router {
	key := profileID + "\x00" + useCase
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if r, ok := c.routers[key]; ok {
		return r
	}
	r := buildRouter(profile, useCase)
	c.routers[key] = r
	return r
}

func (c *Client) bind(ctx context.Context, profileID, providerID, mapVariant, mapRevision string) (*boundProvider, error) {
	provider, ok := c.snapshotConfig().Providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", providerID)
	}
	binding, err := c.maps.LoadMap(ctx, profileID, providerID, mapVariant, mapRevision)
	if err != nil {
		return nil, err
	}
	c.logger.Log("onesdk", "bound profile ", profileID, " to provider ", providerID)
	return &boundProvider{
		document: binding.Document,
		services: binding.Services,
		security: provider.Security,
	}, nil
}
