package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrEthical07/goSession/token"
)

// HandshakeResult defines a public type used by goSession APIs.
type HandshakeResult struct {
	// Authenticated reports whether a stored session was resumed.
	Authenticated bool

	// Record holds the fresh token set when Authenticated is true.
	Record *token.Record
}

// Handshake describes the handshake operation and its observable behavior.
//
// It attempts a silent resume from a previously stored refresh token. An
// empty token and a token the provider rejects as dead (invalid_grant) both
// produce a clean unauthenticated result with a nil error; the caller starts
// logged out, nothing failed. Transport and server faults return an error so
// the caller can distinguish "no session" from "cannot reach the provider".
func (c *Client) Handshake(ctx context.Context, refreshToken string) (HandshakeResult, error) {
	if refreshToken == "" {
		return HandshakeResult{}, nil
	}
	rec, err := c.refreshGrant(ctx, refreshToken)
	if err != nil {
		if isInvalidGrant(err) {
			return HandshakeResult{}, nil
		}
		c.fireAuthError(ctx, err)
		return HandshakeResult{}, err
	}
	c.fireAuthSuccess(ctx)
	return HandshakeResult{Authenticated: true, Record: rec}, nil
}

// Login describes the login operation and its observable behavior.
//
// It runs the direct-grant (resource owner password) flow. Rejected
// credentials surface as a *StatusError carrying the provider response.
//
// Performance: 1 HTTP POST to the token endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (*token.Record, error) {
	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), username, password)
	if err != nil {
		err = convertTokenError(err)
		c.fireAuthError(ctx, err)
		return nil, err
	}
	rec := recordFromToken(tok)
	c.fireAuthSuccess(ctx)
	return rec, nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// It exchanges a refresh token for a new token set. When the provider
// rejects the refresh token itself the OnTokenExpired callback fires and the
// returned error matches [ErrSessionExpired]; the *StatusError stays
// reachable through errors.As.
//
// Performance: 1 HTTP POST to the token endpoint.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*token.Record, error) {
	rec, err := c.refreshGrant(ctx, refreshToken)
	if err != nil {
		if isInvalidGrant(err) {
			c.fireTokenExpired(ctx)
			err = errors.Join(ErrSessionExpired, err)
		}
		c.fireRefreshError(ctx, err)
		return nil, err
	}
	c.fireRefreshSuccess(ctx, rec)
	return rec, nil
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (*token.Record, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, convertTokenError(err)
	}
	return recordFromToken(tok), nil
}

// recordFromToken flattens an oauth2 token into the storage record shape.
// The provider may rotate the refresh token; whatever it returned is what
// gets stored.
func recordFromToken(tok *oauth2.Token) *token.Record {
	rec := &token.Record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if !tok.Expiry.IsZero() {
		if secs := int64(time.Until(tok.Expiry) / time.Second); secs > 0 {
			rec.ExpiresIn = secs
		}
	}
	return rec
}

// convertTokenError rewraps oauth2 retrieve errors as *StatusError so the
// Controller classifies the provider response exactly once. Anything that
// never reached the provider passes through untouched.
func convertTokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	se := &StatusError{Body: append([]byte(nil), re.Body...)}
	if re.Response != nil {
		se.StatusCode = re.Response.StatusCode
		se.Header = re.Response.Header.Clone()
	}
	return se
}

// isInvalidGrant reports whether the provider rejected the grant itself, as
// opposed to failing. Keycloak answers 400 invalid_grant for a dead refresh
// token; some providers answer 401.
func isInvalidGrant(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusBadRequest:
		return strings.Contains(string(se.Body), "invalid_grant")
	default:
		return false
	}
}
