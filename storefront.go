// Package storefront is the meta-module entry point. It re-exports the
// shared types and wires the subpackages into a ready-to-use client:
//   - github.com/fastfoodmaniya/storefront/cart       - the selection store
//   - github.com/fastfoodmaniya/storefront/session    - the remote/local reconciler
//   - github.com/fastfoodmaniya/storefront/localstore - the fallback store
//   - github.com/fastfoodmaniya/storefront/api        - the remote API client
package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/fastfoodmaniya/storefront/api"
	"github.com/fastfoodmaniya/storefront/cart"
	"github.com/fastfoodmaniya/storefront/core"
	"github.com/fastfoodmaniya/storefront/localstore"
	"github.com/fastfoodmaniya/storefront/resilience"
	"github.com/fastfoodmaniya/storefront/session"
	"github.com/fastfoodmaniya/storefront/telemetry"
)

// Re-export the shared types so most callers only import this package
type (
	// Domain types
	LineItem     = core.LineItem
	CartSnapshot = core.CartSnapshot
	Credential   = core.Credential
	Order        = core.Order
	OrderSource  = core.OrderSource
	UserProfile  = core.UserProfile

	// Configuration types
	Config           = core.Config
	Option           = core.Option
	APIConfig        = core.APIConfig
	StoreConfig      = core.StoreConfig
	TelemetryConfig  = core.TelemetryConfig
	ResilienceConfig = core.ResilienceConfig
	LoggingConfig    = core.LoggingConfig

	// Interfaces
	Logger     = core.Logger
	Memory     = core.Memory
	Telemetry  = core.Telemetry
	RenderSink = core.RenderSink
	Severity   = core.Severity

	// Session types
	SessionState = session.State
)

// Re-export constants
const (
	OrderStatusPending = core.OrderStatusPending

	SourceRemote = core.SourceRemote
	SourceLocal  = core.SourceLocal

	SeverityInfo    = core.SeverityInfo
	SeverityWarning = core.SeverityWarning
	SeverityError   = core.SeverityError

	StateAnonymous = session.StateAnonymous
	StateLocal     = session.StateLocal
	StateRemote    = session.StateRemote
)

// Re-export configuration constructors and options
var (
	NewConfig     = core.NewConfig
	DefaultConfig = core.DefaultConfig

	WithName           = core.WithName
	WithAPIBaseURL     = core.WithAPIBaseURL
	WithAPITimeout     = core.WithAPITimeout
	WithRedisURL       = core.WithRedisURL
	WithStoreNamespace = core.WithStoreNamespace
	WithTelemetry      = core.WithTelemetry
	WithCircuitBreaker = core.WithCircuitBreaker
	WithRetry          = core.WithRetry
	WithLogLevel       = core.WithLogLevel
	WithLogFormat      = core.WithLogFormat
)

// Client bundles the wired components of one storefront instance
type Client struct {
	Cart    *cart.Store
	Session *session.Session
	Local   *localstore.Store
	API     *api.Client

	logger   core.Logger
	provider *telemetry.Provider
	redis    *core.RedisStore
}

// New wires a storefront client from configuration: logger, telemetry,
// backing store, API client, cart and session. Components can also be
// assembled by hand from the subpackages; this is the batteries-included
// path.
func New(sink core.RenderSink, opts ...core.Option) (*Client, error) {
	cfg, err := core.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = &core.NoOpRenderSink{}
	}

	logger := core.NewProductionLogger(cfg.Logging, cfg.Name)

	var tel core.Telemetry = &core.NoOpTelemetry{}
	var provider *telemetry.Provider
	if cfg.Telemetry.Enabled {
		provider, err = telemetry.NewProvider(telemetry.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("storefront: configure telemetry: %w", err)
		}
		tel = provider
	}

	var mem core.Memory
	var redisStore *core.RedisStore
	switch cfg.Store.Provider {
	case "redis":
		redisStore, err = core.NewRedisStore(core.RedisStoreOptions{
			RedisURL:  cfg.Store.RedisURL,
			Namespace: cfg.Store.Namespace,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("storefront: connect store: %w", err)
		}
		mem = redisStore
	default:
		memStore := core.NewMemoryStore()
		memStore.SetLogger(logger)
		mem = memStore
	}

	local := localstore.NewStore(localstore.Options{
		Memory: mem,
		Logger: logger,
		TTL:    cfg.Store.DefaultTTL,
	})

	apiOpts := api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Logger:    logger,
		Telemetry: tel,
	}
	if provider != nil {
		apiOpts.HTTPClient = provider.HTTPClient(cfg.API.Timeout)
	}
	client, err := api.NewClient(apiOpts)
	if err != nil {
		return nil, err
	}

	cartStore := cart.NewStore(cart.Options{Sink: sink, Logger: logger})

	var breaker *resilience.CircuitBreaker
	if cfg.Resilience.CircuitBreaker.Enabled {
		breaker, err = resilience.NewCircuitBreaker(&resilience.CircuitBreakerConfig{
			Name:             "remote-api",
			FailureThreshold: cfg.Resilience.CircuitBreaker.Threshold,
			SleepWindow:      cfg.Resilience.CircuitBreaker.SleepWindow,
			HalfOpenRequests: cfg.Resilience.CircuitBreaker.HalfOpenRequests,
			Logger:           logger,
		})
		if err != nil {
			return nil, fmt.Errorf("storefront: configure circuit breaker: %w", err)
		}
	}

	sess, err := session.NewSession(session.Options{
		Cart:      cartStore,
		API:       client,
		Local:     local,
		Sink:      sink,
		Logger:    logger,
		Telemetry: tel,
		Retry:     resilience.FromCoreConfig(cfg.Resilience.Retry),
		Breaker:   breaker,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Storefront client ready", map[string]interface{}{
		"operation":      "startup",
		"api_base_url":   cfg.API.BaseURL,
		"store_provider": cfg.Store.Provider,
		"telemetry":      cfg.Telemetry.Enabled,
	})

	return &Client{
		Cart:     cartStore,
		Session:  sess,
		Local:    local,
		API:      client,
		logger:   logger,
		provider: provider,
		redis:    redisStore,
	}, nil
}

// Close releases the client's resources: flushes telemetry and closes the
// store connection. Safe to call once at shutdown.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if c.provider != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := c.provider.Shutdown(shutdownCtx); err != nil {
			firstErr = fmt.Errorf("storefront: shut down telemetry: %w", err)
		}
		cancel()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("storefront: close store: %w", err)
		}
	}
	return firstErr
}
