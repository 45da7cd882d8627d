// Package spotify wraps the Spotify accounts service and Web API.
// OAuth exchange and refresh are explicit so callers decide where tokens live
package spotify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during authorization
// Playlist scopes are needed for the playlist mirror side effect
var scopes = []string{
	"user-read-email",
	"playlist-modify-public",
	"playlist-modify-private",
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Tokens as returned by the accounts service
// RefreshToken on refresh carries the rotated token when the provider rotates,
// otherwise it repeats the token the refresh was done with
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type OAuthClient struct {
	config *oauth2.Config
}

func NewOAuthClient(cfg OAuthConfig) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
	}
}

// AuthCodeURL returns the URL the user should be redirected to for consent
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode trades the authorization code for a token set
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return Tokens{}, fmt.Errorf("code exchange failed. Err: %w", err)
	}

	return tokensFromOAuth2(token), nil
}

// Refresh trades the refresh token for a fresh access token
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	source := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return Tokens{}, fmt.Errorf("token refresh failed. Err: %w", err)
	}

	return tokensFromOAuth2(token), nil
}

func tokensFromOAuth2(token *oauth2.Token) Tokens {
	return Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    time.Until(token.Expiry),
	}
}
