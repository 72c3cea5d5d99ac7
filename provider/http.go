package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Logout describes the logout operation and its observable behavior.
//
// It invalidates the server-side session. Keycloak-style end-session
// endpoints are preferred; plain RFC 7009 revocation is the fallback. When
// the discovery document advertised neither, or no refresh token is held,
// logout is local-only and still succeeds.
//
// Performance: at most 1 HTTP POST.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	endpoint, form := c.logoutRequest(refreshToken)
	if endpoint == "" {
		c.fireLogout(ctx)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
	}
	c.fireLogout(ctx)
	return nil
}

func (c *Client) logoutRequest(refreshToken string) (string, url.Values) {
	if refreshToken == "" {
		return "", nil
	}
	form := url.Values{"client_id": {c.cfg.ClientID}}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}
	switch {
	case c.endSessionURL != "":
		form.Set("refresh_token", refreshToken)
		return c.endSessionURL, form
	case c.revocationURL != "":
		form.Set("token", refreshToken)
		form.Set("token_type_hint", "refresh_token")
		return c.revocationURL, form
	default:
		return "", nil
	}
}

// Profile describes the profile operation and its observable behavior.
//
// It fetches the enriched user profile from the configured backend endpoint
// using the given Authorization header value. The body comes back as raw
// bytes; the Controller owns the payload shape.
//
// Performance: 1 HTTP GET.
func (c *Client) Profile(ctx context.Context, authorization string) ([]byte, error) {
	if c.cfg.ProfileURL == "" {
		return nil, ErrNoProfileEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
	}
	return body, nil
}
