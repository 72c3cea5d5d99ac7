package gosession

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Durable tier selectors for [StorageConfig.DurableTier].
const (
	// DurableMemory is an exported constant or variable used by the session core.
	DurableMemory = "memory"
	// DurableRedis is an exported constant or variable used by the session core.
	DurableRedis = "redis"
	// DurableFile is an exported constant or variable used by the session core.
	DurableFile = "file"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Tokens     TokensConfig     `yaml:"tokens"`
	Storage    StorageConfig    `yaml:"storage"`
	Claims     ClaimsConfig     `yaml:"claims"`
	Transport  TransportConfig  `yaml:"transport"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig defines a public type used by goSession APIs.
//
// ProviderConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProviderConfig struct {
	// ServerURL is the identity provider base URL, e.g.
	// "https://id.example.com".
	ServerURL string `yaml:"server_url"`

	// Realm names the provider realm; the issuer is derived as
	// "<ServerURL>/realms/<Realm>".
	Realm string `yaml:"realm"`

	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`

	// ProfileURL is the backend endpoint serving the user profile. The
	// response may be a raw profile object or an envelope with a data field.
	ProfileURL string `yaml:"profile_url"`

	// RequestTimeout bounds each provider HTTP call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

/*
====================================
TOKENS CONFIG
====================================
*/

// TokensConfig defines a public type used by goSession APIs.
//
// TokensConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokensConfig struct {
	// ExpiryBuffer makes a token report expired this long before its real
	// expiry, absorbing clock skew and in-flight request latency.
	ExpiryBuffer time.Duration `yaml:"expiry_buffer"`

	// RefreshLead is how long before expiry the proactive refresh fires.
	RefreshLead time.Duration `yaml:"refresh_lead"`

	// RefreshTimeout bounds one refresh network call.
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by goSession APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	// DurableTier selects where the refresh token lives across restarts:
	// "memory" (non-durable), "redis", or "file".
	DurableTier string `yaml:"durable_tier"`

	RedisPrefix string        `yaml:"redis_prefix"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`

	// FilePath is the token record path for the file tier.
	FilePath string `yaml:"file_path"`
}

/*
====================================
CLAIMS CONFIG
====================================
*/

// ClaimsConfig defines a public type used by goSession APIs.
//
// ClaimsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClaimsConfig struct {
	// DefaultResource is the resource_access client whose roles merge into
	// the combined role set.
	DefaultResource string `yaml:"default_resource"`

	// MaxTokenBytes caps the size of a token accepted by the claim decoder.
	MaxTokenBytes int `yaml:"max_token_bytes"`
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig defines a public type used by goSession APIs.
//
// TransportConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TransportConfig struct {
	// RetryOnAuthFailure enables the exactly-once forced-refresh retry after
	// an authentication-classified response.
	RetryOnAuthFailure bool `yaml:"retry_on_auth_failure"`

	// ForcedRefreshPerMinute rate-limits forced refreshes triggered by
	// rejected requests; Burst allows short spikes. Zero values take the
	// defaults.
	ForcedRefreshPerMinute int `yaml:"forced_refresh_per_minute"`
	Burst                  int `yaml:"burst"`
}

/*
====================================
CLASSIFIER CONFIG
====================================
*/

// ClassifierConfig defines a public type used by goSession APIs.
//
// ClassifierConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClassifierConfig struct {
	// BaseRetryDelay seeds the exponential backoff for retryable failures.
	BaseRetryDelay time.Duration `yaml:"base_retry_delay"`

	// MaxRetryDelay caps the backoff and any server-supplied retry-after.
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
}

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// It returns the shipped baseline: memory durable tier, proactive refresh
// with a 5 minute lead, transport retry enabled, audit and metrics off.
// Callers mutate the copy and pass it to [Builder.WithConfig].
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Scopes:         []string{"openid", "profile", "email"},
			RequestTimeout: 15 * time.Second,
		},
		Tokens: TokensConfig{
			ExpiryBuffer:   30 * time.Second,
			RefreshLead:    5 * time.Minute,
			RefreshTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DurableTier: DurableMemory,
			RedisPrefix: "gosession",
			RedisTTL:    30 * 24 * time.Hour,
		},
		Claims: ClaimsConfig{
			DefaultResource: "admin-console",
			MaxTokenBytes:   64 * 1024,
		},
		Transport: TransportConfig{
			RetryOnAuthFailure:     true,
			ForcedRefreshPerMinute: 30,
			Burst:                  5,
		},
		Classifier: ClassifierConfig{
			BaseRetryDelay: time.Second,
			MaxRetryDelay:  30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Provider.Scopes = cloneStrings(cfg.Provider.Scopes)
	return out
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Tokens
	if c.Tokens.ExpiryBuffer < 0 {
		return errors.New("Tokens ExpiryBuffer must be >= 0")
	}
	if c.Tokens.RefreshLead < 0 {
		return errors.New("Tokens RefreshLead must be >= 0")
	}
	if c.Tokens.RefreshTimeout < 0 {
		return errors.New("Tokens RefreshTimeout must be >= 0")
	}

	// Storage
	switch c.Storage.DurableTier {
	case DurableMemory, DurableRedis:
	case DurableFile:
		if c.Storage.FilePath == "" {
			return errors.New("Storage FilePath is required for the file tier")
		}
	default:
		return errors.New("Storage DurableTier must be 'memory', 'redis', or 'file'")
	}

	// Claims
	if c.Claims.MaxTokenBytes <= 0 {
		return errors.New("Claims MaxTokenBytes must be > 0")
	}

	// Transport
	if c.Transport.ForcedRefreshPerMinute < 0 {
		return errors.New("Transport ForcedRefreshPerMinute must be >= 0")
	}
	if c.Transport.Burst < 0 {
		return errors.New("Transport Burst must be >= 0")
	}

	// Classifier
	if c.Classifier.BaseRetryDelay <= 0 {
		return errors.New("Classifier BaseRetryDelay must be > 0")
	}
	if c.Classifier.MaxRetryDelay < c.Classifier.BaseRetryDelay {
		return errors.New("Classifier MaxRetryDelay must be >= BaseRetryDelay")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Provider
	if c.Provider.RequestTimeout < 0 {
		return errors.New("Provider RequestTimeout must be >= 0")
	}

	return nil
}

/*
====================================
YAML DECODING
====================================
*/

// setDuration parses raw as a Go duration string ("30s", "5m") into dst,
// leaving dst untouched for an absent key.
func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setString(dst *string, raw string) {
	if raw != "" {
		*dst = raw
	}
}

// UnmarshalYAML decodes duration fields from duration strings. Absent keys
// keep the value already present, so defaults survive a partial file.
func (p *ProviderConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ServerURL      string   `yaml:"server_url"`
		Realm          string   `yaml:"realm"`
		ClientID       string   `yaml:"client_id"`
		ClientSecret   string   `yaml:"client_secret"`
		Scopes         []string `yaml:"scopes"`
		ProfileURL     string   `yaml:"profile_url"`
		RequestTimeout string   `yaml:"request_timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	setString(&p.ServerURL, raw.ServerURL)
	setString(&p.Realm, raw.Realm)
	setString(&p.ClientID, raw.ClientID)
	setString(&p.ClientSecret, raw.ClientSecret)
	if raw.Scopes != nil {
		p.Scopes = raw.Scopes
	}
	setString(&p.ProfileURL, raw.ProfileURL)
	if err := setDuration(&p.RequestTimeout, raw.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes duration fields from duration strings. Absent keys
// keep the value already present.
func (t *TokensConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ExpiryBuffer   string `yaml:"expiry_buffer"`
		RefreshLead    string `yaml:"refresh_lead"`
		RefreshTimeout string `yaml:"refresh_timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&t.ExpiryBuffer, raw.ExpiryBuffer); err != nil {
		return fmt.Errorf("expiry_buffer: %w", err)
	}
	if err := setDuration(&t.RefreshLead, raw.RefreshLead); err != nil {
		return fmt.Errorf("refresh_lead: %w", err)
	}
	if err := setDuration(&t.RefreshTimeout, raw.RefreshTimeout); err != nil {
		return fmt.Errorf("refresh_timeout: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes duration fields from duration strings. Absent keys
// keep the value already present.
func (s *StorageConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		DurableTier string `yaml:"durable_tier"`
		RedisPrefix string `yaml:"redis_prefix"`
		RedisTTL    string `yaml:"redis_ttl"`
		FilePath    string `yaml:"file_path"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	setString(&s.DurableTier, raw.DurableTier)
	setString(&s.RedisPrefix, raw.RedisPrefix)
	setString(&s.FilePath, raw.FilePath)
	if err := setDuration(&s.RedisTTL, raw.RedisTTL); err != nil {
		return fmt.Errorf("redis_ttl: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes duration fields from duration strings. Absent keys
// keep the value already present.
func (c *ClassifierConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		BaseRetryDelay string `yaml:"base_retry_delay"`
		MaxRetryDelay  string `yaml:"max_retry_delay"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&c.BaseRetryDelay, raw.BaseRetryDelay); err != nil {
		return fmt.Errorf("base_retry_delay: %w", err)
	}
	if err := setDuration(&c.MaxRetryDelay, raw.MaxRetryDelay); err != nil {
		return fmt.Errorf("max_retry_delay: %w", err)
	}
	return nil
}

/*
====================================
FILE LOADING
====================================
*/

// LoadConfig describes the loadconfig operation and its observable behavior.
//
// The file is YAML; absent fields keep their defaults, so a minimal file can
// set only the provider block. The loaded config is validated before return.
//
//	Docs: docs/config.md
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return cfg, nil
}
