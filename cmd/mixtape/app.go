package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/db"
	"github.com/nkiryanov/mixtape/internal/handlers"
	"github.com/nkiryanov/mixtape/internal/handlers/middleware"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/repository/postgres"
	"github.com/nkiryanov/mixtape/internal/service/email"
	"github.com/nkiryanov/mixtape/internal/service/events"
	"github.com/nkiryanov/mixtape/internal/service/mixtape"
	"github.com/nkiryanov/mixtape/internal/service/session"
	"github.com/nkiryanov/mixtape/internal/service/sideeffects"
	"github.com/nkiryanov/mixtape/internal/service/spotify"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	dispatcher *sideeffects.Dispatcher
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Cookie values are signed with the secret key, nothing works without it
	if c.SecretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize external clients
	oauthClient := spotify.NewOAuthClient(spotify.OAuthConfig{
		ClientID:     c.SpotifyClientID,
		ClientSecret: c.SpotifyClientSecret,
		RedirectURL:  c.SpotifyRedirectURL,
	})
	spotifyClient := spotify.NewClient(log)
	mailClient := email.NewClient(email.Config{
		APIKey:    c.MailAPIKey,
		FromEmail: c.MailFromEmail,
		FromName:  c.MailFromName,
	}, log)

	// Initialize services
	sessionManager := session.NewManager(oauthClient, log)
	sink := events.NewSink(storage.Event(), log)
	dispatcher := sideeffects.NewDispatcher(log)
	mixtapeService := mixtape.NewService(storage, sink, dispatcher, spotifyClient, mailClient, c.BaseURL, log)

	// Credential store lives in signed cookies, secure outside of dev
	secureCookies := c.Environment == logger.EnvProduction
	stores := func(w http.ResponseWriter, r *http.Request) credstore.Store {
		return credstore.NewCookieStore(c.SecretKey, secureCookies, w, r)
	}

	// Initialize handlers
	authHandler := handlers.NewAuth(oauthClient, spotifyClient, sessionManager, storage.User(), sink, stores, log)
	mixtapeHandler := handlers.NewMixtape(mixtapeService, log)
	eventHandler := handlers.NewEvent(sink, sessionManager, stores)
	searchHandler := handlers.NewSearch(spotifyClient, log)
	authMiddleware := middleware.AuthMiddleware(sessionManager, middleware.StoreFactory(stores))

	mux := handlers.NewRouter(
		authHandler,
		mixtapeHandler,
		eventHandler,
		searchHandler,
		authMiddleware,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		dispatcher: dispatcher,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	// Side effect workers run for the whole server lifetime
	// and drain accepted tasks on shutdown
	dispatcherStopped := s.dispatcher.Start(ctx)

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-dispatcherStopped

	return err
}
