package e2e

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/handlers"
	"github.com/nkiryanov/mixtape/internal/handlers/middleware"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/repository"
	"github.com/nkiryanov/mixtape/internal/repository/postgres"
	"github.com/nkiryanov/mixtape/internal/service/email"
	"github.com/nkiryanov/mixtape/internal/service/events"
	"github.com/nkiryanov/mixtape/internal/service/mixtape"
	"github.com/nkiryanov/mixtape/internal/service/session"
	"github.com/nkiryanov/mixtape/internal/service/sideeffects"
	"github.com/nkiryanov/mixtape/internal/service/spotify"
	"github.com/nkiryanov/mixtape/internal/testutil"
)

const secretKey = "test-secret"

// stubOAuth satisfies the provider interfaces without a real provider.
// E2E sessions are established directly, so none of these should ever be hit
type stubOAuth struct{}

func (stubOAuth) AuthCodeURL(state string) string { return "https://accounts.example/?state=" + state }

func (stubOAuth) ExchangeCode(_ context.Context, code string) (spotify.Tokens, error) {
	return spotify.Tokens{}, errors.New("no real provider in e2e tests")
}

func (stubOAuth) Refresh(_ context.Context, refreshToken string) (spotify.Tokens, error) {
	return spotify.Tokens{}, errors.New("no real provider in e2e tests")
}

type Services struct {
	Storage  repository.Storage
	Sessions *session.Manager
	Mixtapes *mixtape.Service
}

// Authenticate puts valid session cookies for the user onto the request
func (s Services) Authenticate(t *testing.T, req *http.Request, userID uuid.UUID) {
	t.Helper()

	w := httptest.NewRecorder()
	store := credstore.NewCookieStore(secretKey, false, w, req)

	err := s.Sessions.Establish(store, userID, spotify.Tokens{
		AccessToken:  "e2e-access",
		RefreshToken: "e2e-refresh",
		ExpiresIn:    time.Hour,
	})
	require.NoError(t, err, "failed to establish session")

	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		log := logger.NewNoOpLogger()
		storage := postgres.NewStorage(tx)

		// Initialize services over the transaction
		sessionManager := session.NewManager(stubOAuth{}, log)
		sink := events.NewSink(storage.Event(), log)
		dispatcher := sideeffects.NewDispatcher(log)
		spotifyClient := spotify.NewClient(log)
		mixtapeService := mixtape.NewService(storage, sink, dispatcher, spotifyClient, noopMail{}, "https://mixtape.example", log)

		stores := func(w http.ResponseWriter, r *http.Request) credstore.Store {
			return credstore.NewCookieStore(secretKey, false, w, r)
		}

		// Initialize handlers
		authHandler := handlers.NewAuth(stubOAuth{}, spotifyClient, sessionManager, storage.User(), sink, stores, log)
		mixtapeHandler := handlers.NewMixtape(mixtapeService, log)
		eventHandler := handlers.NewEvent(sink, sessionManager, stores)
		searchHandler := handlers.NewSearch(spotifyClient, log)
		authMiddleware := middleware.AuthMiddleware(sessionManager, middleware.StoreFactory(stores))

		// Complete all together as router
		router := handlers.NewRouter(
			authHandler,
			mixtapeHandler,
			eventHandler,
			searchHandler,
			authMiddleware,
			log,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:  storage,
			Sessions: sessionManager,
			Mixtapes: mixtapeService,
		})
	})
}

type noopMail struct{}

func (noopMail) SendMixtapeNotification(_ context.Context, _ email.MixtapeNotification) error {
	return nil
}
