package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/handlers/render"
	"github.com/nkiryanov/mixtape/internal/handlers/sessionctx"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/repository"
	"github.com/nkiryanov/mixtape/internal/service/spotify"
)

// CSRF protection state cookie, short-lived on purpose
const (
	stateKey = "spotify_auth_state"
	stateTTL = 10 * time.Minute
)

type oauthClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (spotify.Tokens, error)
}

type profileClient interface {
	Profile(ctx context.Context, accessToken string) (spotify.Profile, error)
}

type sessionManager interface {
	Establish(store credstore.Store, userID uuid.UUID, tokens spotify.Tokens) error
	Clear(store credstore.Store)
}

type eventSink interface {
	Record(ctx context.Context, eventType string, metadata map[string]any, mixtapeID *uuid.UUID, userID *uuid.UUID)
}

// StoreFactory builds the request-scoped credential store
type StoreFactory func(w http.ResponseWriter, r *http.Request) credstore.Store

type AuthHandler struct {
	oauth    oauthClient
	profiles profileClient
	sessions sessionManager
	users    repository.UserRepo
	sink     eventSink
	stores   StoreFactory
	logger   logger.Logger
}

func NewAuth(
	oauth oauthClient,
	profiles profileClient,
	sessions sessionManager,
	users repository.UserRepo,
	sink eventSink,
	stores StoreFactory,
	l logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		oauth:    oauth,
		profiles: profiles,
		sessions: sessions,
		users:    users,
		sink:     sink,
		stores:   stores,
		logger:   l,
	}
}

// login redirects the user to the provider consent page
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	store := h.stores(w, r)
	if err := store.Set(stateKey, state, stateTTL); err != nil {
		h.logger.Error("Failed to store oauth state", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// callback handles the provider redirect: verifies state, exchanges the code,
// upserts the user and establishes the session.
// Errors redirect back to the landing page like the web client expects
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	store := h.stores(w, r)

	storedState, stateErr := store.Get(stateKey)
	store.Delete(stateKey)

	if query.Get("error") != "" {
		http.Redirect(w, r, "/?error=spotify_denied", http.StatusFound)
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" || stateErr != nil || state != storedState {
		http.Redirect(w, r, "/?error=invalid_state", http.StatusFound)
		return
	}

	tokens, err := h.oauth.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("Code exchange failed", "error", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	profile, err := h.profiles.Profile(r.Context(), tokens.AccessToken)
	if err != nil {
		h.logger.Error("Profile fetch failed", "error", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	user, err := h.users.UpsertUser(r.Context(), profile.ID, profile.Email, profile.DisplayName)
	if err != nil {
		h.logger.Error("User upsert failed", "error", err)
		http.Redirect(w, r, "/?error=db_error", http.StatusFound)
		return
	}

	if err := h.sessions.Establish(store, user.ID, tokens); err != nil {
		h.logger.Error("Failed to establish session", "error", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	h.sink.Record(r.Context(), models.EventSpotifyConnected, map[string]any{}, nil, &user.ID)

	http.Redirect(w, r, "/create", http.StatusFound)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(h.stores(w, r))
	w.WriteHeader(http.StatusNoContent)
}

// me reports the authenticated user, mostly for the web client to probe auth state
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	type meResponse struct {
		UserID string `json:"user_id"`
	}

	session, ok := sessionctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, meResponse{UserID: session.UserID.String()})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
