/*
Package auth implements the OAuth front door's provider side: building the
authorize redirect URL and exchanging an authorization code for a verified
user identity.

Only Google is implemented today; the Provider interface keeps room for
other identity providers.
*/
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"workchat/internal/app/identity"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	oauthScopes = "openid email profile"

	exchangeTimeout = 10 * time.Second
)

// Provider is the identity-provider contract the front door consumes.
type Provider interface {
	// LoginURL builds the authorize redirect URL carrying state.
	LoginURL(state string) string

	// ExchangeCode swaps an authorization code for the authenticated
	// user's identity.
	ExchangeCode(ctx context.Context, code string) (identity.Identity, error)
}

// Config holds the OAuth client settings. The endpoint URLs default to
// Google's and are overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleProvider implements Provider against Google OAuth 2.0.
type GoogleProvider struct {
	cfg    Config
	client *http.Client
}

// NewGoogleProvider builds a GoogleProvider, filling in default endpoints.
func NewGoogleProvider(cfg Config) *GoogleProvider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	return &GoogleProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: exchangeTimeout},
	}
}

// LoginURL builds the authorize redirect URL.
func (p *GoogleProvider) LoginURL(state string) string {
	params := url.Values{
		"client_id":              {p.cfg.ClientID},
		"redirect_uri":           {p.cfg.RedirectURI},
		"response_type":          {"code"},
		"scope":                  {oauthScopes},
		"access_type":            {"offline"},
		"include_granted_scopes": {"true"},
		"state":                  {state},
		"prompt":                 {"select_account"},
	}

	return p.cfg.AuthURL + "?" + params.Encode()
}

// tokenResponse is the token endpoint's reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

// userInfoResponse is the userinfo endpoint's reply.
type userInfoResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ExchangeCode swaps the authorization code for tokens and extracts the
// user's identity, preferring the ID token's claims and falling back to
// the userinfo endpoint.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (identity.Identity, error) {
	tokens, err := p.exchangeToken(ctx, code)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if tokens.IDToken != "" {
		if user, ok := identityFromIDToken(tokens.IDToken); ok {
			return user, nil
		}
	}

	user, err := p.fetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return user, nil
}

// exchangeToken posts the authorization code to the token endpoint.
func (p *GoogleProvider) exchangeToken(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokens, nil
}

// identityFromIDToken reads the sub/email/name claims out of the ID token.
// The token just arrived over TLS straight from the token endpoint, so its
// signature is not checked here; a token that does not parse simply falls
// back to the userinfo endpoint.
func identityFromIDToken(raw string) (identity.Identity, bool) {
	claims := jwt.MapClaims{}

	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return identity.Identity{}, false
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	if sub == "" {
		return identity.Identity{}, false
	}

	return identity.Identity{Subject: sub, Email: email, Name: name}, true
}

// fetchUserInfo asks the userinfo endpoint for the authenticated user.
func (p *GoogleProvider) fetchUserInfo(ctx context.Context, accessToken string) (identity.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return identity.Identity{}, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return identity.Identity{}, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if info.Sub == "" {
		return identity.Identity{}, fmt.Errorf("empty sub in user info response")
	}

	return identity.Identity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// compile-time interface check
var _ Provider = (*GoogleProvider)(nil)
