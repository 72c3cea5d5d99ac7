package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultRequestTimeout is an exported constant or variable used by the session core.
const DefaultRequestTimeout = 15 * time.Second

// maxResponseBytes caps reads of logout and profile response bodies.
const maxResponseBytes = 1 << 20

// Config defines a public type used by goSession APIs.
//
// ServerURL, Realm and ClientID are required. Everything else has a
// working default.
type Config struct {
	// ServerURL is the identity-provider base URL, without the realm path.
	ServerURL string

	// Realm is the tenant realm. The issuer is ServerURL + "/realms/" + Realm.
	Realm string

	// ClientID is the OAuth2 client identifier.
	ClientID string

	// ClientSecret is set for confidential clients, empty for public ones.
	ClientSecret string

	// Scopes requested on login. Defaults to openid, profile, email.
	Scopes []string

	// ProfileURL is the backend endpoint for the enriched user profile.
	// Empty disables Profile.
	ProfileURL string

	// RequestTimeout bounds each outbound call when no HTTPClient is given.
	RequestTimeout time.Duration

	// HTTPClient overrides the transport for discovery, grants, logout and
	// profile calls. Nil uses a timeout-bounded default client.
	HTTPClient *http.Client
}

// IssuerURL describes the issuerurl operation and its observable behavior.
//
// It derives the OIDC issuer for a realm. Discovery, token validation and
// the token endpoints all hang off this URL.
func IssuerURL(serverURL, realm string) string {
	return strings.TrimRight(serverURL, "/") + "/realms/" + realm
}

// Client defines a public type used by goSession APIs.
//
// A Client talks to one realm of one identity provider. It is safe for
// concurrent use.
//
// Docs: docs/provider.md
type Client struct {
	cfg        Config
	issuer     string
	httpClient *http.Client
	oauth      *oauth2.Config

	endSessionURL string
	revocationURL string

	cbMu sync.RWMutex
	cb   Callbacks
}

// NewClient describes the newclient operation and its observable behavior.
//
// It runs OIDC discovery against the realm issuer and wires the token
// endpoints from the discovery document. The end-session and revocation
// endpoints are read from the document when advertised; logout degrades to a
// local-only operation when they are not.
//
// Performance: 1 HTTP GET (discovery), then zero network until a grant runs.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, fmt.Errorf("%w: server url required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Realm) == "" {
		return nil, fmt.Errorf("%w: realm required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("%w: client id required", ErrInvalidConfig)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.RequestTimeout}
	}

	issuer := IssuerURL(cfg.ServerURL, cfg.Realm)
	p, err := oidc.NewProvider(oidc.ClientContext(ctx, hc), issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}

	// Keycloak advertises both of these; other providers may omit either.
	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	_ = p.Claims(&extra)

	// Public clients authenticate with client_id in the form body, not
	// basic auth. Pinning the style also keeps failed grants to a single
	// request instead of the library's style auto-detect retry.
	endpoint := p.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &Client{
		cfg:        cfg,
		issuer:     issuer,
		httpClient: hc,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		endSessionURL: extra.EndSessionEndpoint,
		revocationURL: extra.RevocationEndpoint,
	}, nil
}

// Issuer describes the issuer operation and its observable behavior.
func (c *Client) Issuer() string {
	return c.issuer
}

// oauthContext routes oauth2 library calls through the configured transport.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
