package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthOAuthClientCredentials selects the OAuth 2.0 client_credentials grant.
const AuthOAuthClientCredentials = "oauth_client_credentials"

// tokenExpiryDelta is how long before expiry a token is replaced.
const tokenExpiryDelta = 30 * time.Second

// tokenHTTPTimeout bounds requests to the token endpoint.
const tokenHTTPTimeout = 10 * time.Second

// newTokenSource returns the token source for cfg, or nil when auth is off.
// Tokens are cached and refreshed shortly before they expire.
func newTokenSource(cfg AuthConfig) (oauth2.TokenSource, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case AuthOAuthClientCredentials:
		if cfg.TokenURL == "" {
			return nil, fmt.Errorf("%s auth needs a token URL", AuthOAuthClientCredentials)
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: tokenHTTPTimeout})
		return oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(ctx), tokenExpiryDelta), nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
}

// newHTTPClient returns an HTTP client that sends the static headers and a
// bearer token from ts on every request, or nil when neither is set. The
// token's Authorization header replaces a static one.
func newHTTPClient(headers map[string]string, ts oauth2.TokenSource) *http.Client {
	if len(headers) == 0 && ts == nil {
		return nil
	}
	var rt http.RoundTripper = http.DefaultTransport
	if ts != nil {
		rt = &oauth2.Transport{Source: ts, Base: rt}
	}
	if len(headers) > 0 {
		rt = &headerTransport{base: rt, headers: headers}
	}
	return &http.Client{Transport: rt}
}

// headerTransport sets fixed headers on each request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
