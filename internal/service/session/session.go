// Package session resolves the per-request authenticated session from a
// credential store and keeps provider tokens fresh.
package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/service/spotify"
)

// Credential store keys, one cookie per value as the original web client expects
const (
	keyUserID       = "user_id"
	keyAccessToken  = "spotify_access_token"
	keyRefreshToken = "spotify_refresh_token"
	keyTokenExpiry  = "spotify_token_expiry"
)

const (
	// RefreshSkew triggers refresh before the token actually expires
	// so a request never races a token that dies mid-flight at the provider
	RefreshSkew = 5 * time.Minute

	// How long the refresh token and expiry marker live in the store
	sessionTTL = 30 * 24 * time.Hour
)

type oauthClient interface {
	Refresh(ctx context.Context, refreshToken string) (spotify.Tokens, error)
}

type Manager struct {
	oauth  oauthClient
	logger logger.Logger

	// now is replaceable in tests
	now func() time.Time
}

func NewManager(oauth oauthClient, l logger.Logger) *Manager {
	return &Manager{
		oauth:  oauth,
		logger: l,
		now:    time.Now,
	}
}

// Resolve returns the session stored for the client, refreshing the access
// token when it is missing or within RefreshSkew of its expiry.
// A session is either fully present or absent: missing user id or refresh
// token, and refresh failures of any kind, all resolve to absent.
// Refresh failures are deliberately not errors, they mean "please log in again"
func (m *Manager) Resolve(ctx context.Context, store credstore.Store) (models.Session, bool) {
	userValue, err := store.Get(keyUserID)
	if err != nil {
		return models.Session{}, false
	}
	userID, err := uuid.Parse(userValue)
	if err != nil {
		return models.Session{}, false
	}

	// Without a refresh token there is no way to ever re-authenticate,
	// so no refresh is even attempted
	refreshToken, err := store.Get(keyRefreshToken)
	if err != nil {
		return models.Session{}, false
	}

	accessToken, accessErr := store.Get(keyAccessToken)

	var expiresAt time.Time
	if v, err := store.Get(keyTokenExpiry); err == nil {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			expiresAt = time.UnixMilli(ms)
		}
	}

	isExpired := m.now().After(expiresAt.Add(-RefreshSkew))

	if !isExpired && accessErr == nil {
		return models.Session{UserID: userID, AccessToken: accessToken}, true
	}

	tokens, err := m.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		m.logger.Info("Token refresh failed, session resolved as absent", "error", err)
		return models.Session{}, false
	}

	if err := m.persistTokens(store, tokens, refreshToken); err != nil {
		m.logger.Error("Failed to persist refreshed tokens", "error", err)
		return models.Session{}, false
	}

	return models.Session{UserID: userID, AccessToken: tokens.AccessToken}, true
}

// Establish stores a fresh session after the authorization code exchange
func (m *Manager) Establish(store credstore.Store, userID uuid.UUID, tokens spotify.Tokens) error {
	if err := store.Set(keyUserID, userID.String(), sessionTTL); err != nil {
		return err
	}
	if err := store.Set(keyRefreshToken, tokens.RefreshToken, sessionTTL); err != nil {
		return err
	}

	return m.saveAccessToken(store, tokens)
}

// Clear destroys the session, used on explicit logout
func (m *Manager) Clear(store credstore.Store) {
	store.Delete(keyUserID)
	store.Delete(keyAccessToken)
	store.Delete(keyRefreshToken)
	store.Delete(keyTokenExpiry)
}

func (m *Manager) persistTokens(store credstore.Store, tokens spotify.Tokens, oldRefresh string) error {
	// Rotation must be honored: a stale refresh token may be rejected
	// by the provider on the next refresh
	if tokens.RefreshToken != "" && tokens.RefreshToken != oldRefresh {
		if err := store.Set(keyRefreshToken, tokens.RefreshToken, sessionTTL); err != nil {
			return err
		}
	}

	return m.saveAccessToken(store, tokens)
}

func (m *Manager) saveAccessToken(store credstore.Store, tokens spotify.Tokens) error {
	expiresAt := m.now().Add(tokens.ExpiresIn)

	if err := store.Set(keyAccessToken, tokens.AccessToken, tokens.ExpiresIn); err != nil {
		return err
	}

	return store.Set(keyTokenExpiry, strconv.FormatInt(expiresAt.UnixMilli(), 10), sessionTTL)
}
