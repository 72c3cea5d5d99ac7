package gosession

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	httpClient    *http.Client
	provider      ProviderClient
	durableStore  token.Store
	auditSink     AuditSink
	platformRoles []string

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// Sets the HTTP client the provider client is constructed with. Ignored
// when [Builder.WithProvider] supplies a ready client.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// Supplies the Redis client backing the durable token tier when the
// storage config selects it.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// Overrides the durable tier with a caller-provided [token.Store],
// bypassing the storage config selection entirely.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store token.Store) *Builder {
	b.durableStore = store
	return b
}

// WithProvider describes the withprovider operation and its observable behavior.
//
// Injects a ready [ProviderClient], skipping construction from the
// provider config. Tests use it to substitute fakes; embedders use it to
// share one discovered client across controllers.
//
// WithProvider may return an error when input validation, dependency calls, or security checks fail.
// WithProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithProvider(pc ProviderClient) *Builder {
	b.provider = pc
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithPlatformRoles describes the withplatformroles operation and its observable behavior.
//
// Adds role names that derive with platform scope, on top of
// [PlatformAdminRole] which is always registered.
//
// WithPlatformRoles may return an error when input validation, dependency calls, or security checks fail.
// WithPlatformRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPlatformRoles(roles ...string) *Builder {
	b.platformRoles = append(b.platformRoles, roles...)
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build assembles the Controller from the configured parts. Constructing
// the provider client from config performs OIDC discovery over the
// network; inject a client via [Builder.WithProvider] to keep Build free
// of I/O.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil && cfg.Provider.ServerURL == "" {
		return nil, errors.New("provider client or provider config required")
	}

	// -------- METRICS --------
	metrics := NewMetrics(cfg.Metrics)

	// -------- TOKEN STORAGE --------
	durable := b.durableStore
	if durable == nil {
		var err error
		durable, err = b.buildDurableTier(cfg)
		if err != nil {
			return nil, err
		}
	}
	tiered := token.NewTieredStore(token.NewMemoryStore(), durable, metrics)

	// -------- ROLE REGISTRY --------
	registry := permission.NewRegistry()
	if err := registry.Register(PlatformAdminRole); err != nil {
		return nil, err
	}
	for _, role := range b.platformRoles {
		if role == PlatformAdminRole {
			continue
		}
		if err := registry.Register(role); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	// -------- CLAIM DECODER --------
	decoder, err := jwt.NewDecoder(jwt.Config{
		DefaultResource: cfg.Claims.DefaultResource,
		MaxTokenBytes:   cfg.Claims.MaxTokenBytes,
	})
	if err != nil {
		return nil, err
	}

	// -------- PROVIDER CLIENT --------
	pc := b.provider
	if pc == nil {
		pc, err = b.buildProviderClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	controller := &Controller{
		config:     cfg,
		provider:   pc,
		bus:        NewEventBus(metrics),
		classifier: NewClassifier(cfg.Classifier),
		decoder:    decoder,
		registry:   registry,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    metrics,
		instanceID: uuid.NewString(),
		state:      StateUninitialized,
	}

	// -------- TOKEN MANAGER --------
	manager, err := token.NewManager(tiered, token.ManagerConfig{
		ExpiryBuffer:     cfg.Tokens.ExpiryBuffer,
		RefreshLead:      cfg.Tokens.RefreshLead,
		RefreshTimeout:   cfg.Tokens.RefreshTimeout,
		OnRefreshStarted: controller.onRefreshStarted,
		OnRefreshStored:  controller.onRefreshStored,
		OnRefreshFailed:  controller.onRefreshFailed,
	}, metrics)
	if err != nil {
		return nil, err
	}
	controller.manager = manager
	manager.SetRefreshFunc(controller.refreshFunc)
	controller.bindProviderCallbacks()

	b.built = true

	return controller, nil
}

func (b *Builder) buildDurableTier(cfg Config) (token.Store, error) {
	switch cfg.Storage.DurableTier {
	case DurableMemory:
		return token.NewMemoryStore(), nil
	case DurableRedis:
		if b.redis == nil {
			return nil, errors.New("redis client required for the redis durable tier")
		}
		return token.NewRedisStore(b.redis, token.RedisConfig{
			Prefix: cfg.Storage.RedisPrefix,
			TTL:    cfg.Storage.RedisTTL,
		})
	case DurableFile:
		return token.NewFileStore(cfg.Storage.FilePath)
	default:
		return nil, errors.New("Storage DurableTier must be 'memory', 'redis', or 'file'")
	}
}

func (b *Builder) buildProviderClient(cfg Config) (ProviderClient, error) {
	timeout := cfg.Provider.RequestTimeout
	if timeout <= 0 {
		timeout = provider.DefaultRequestTimeout
	}
	// Discovery gets its own deadline; Build has no caller context.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return provider.NewClient(ctx, provider.Config{
		ServerURL:      cfg.Provider.ServerURL,
		Realm:          cfg.Provider.Realm,
		ClientID:       cfg.Provider.ClientID,
		ClientSecret:   cfg.Provider.ClientSecret,
		Scopes:         cfg.Provider.Scopes,
		ProfileURL:     cfg.Provider.ProfileURL,
		RequestTimeout: cfg.Provider.RequestTimeout,
		HTTPClient:     b.httpClient,
	})
}
