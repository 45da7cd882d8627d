package handlers

import (
	"net/http"

	"github.com/nkiryanov/mixtape/internal/handlers/middleware"
	"github.com/nkiryanov/mixtape/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth *AuthHandler,
	mixtapes *MixtapeHandler,
	events *EventHandler,
	search *SearchHandler,
	authMiddleware func(http.Handler) http.Handler,
	l logger.Logger,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	api := http.NewServeMux()

	api.HandleFunc("GET /auth/login", auth.login)
	api.HandleFunc("GET /auth/callback", auth.callback)
	api.HandleFunc("POST /auth/logout", auth.logout)
	api.Handle("GET /me", withAuth(auth.me))

	api.Handle("POST /mixtapes", withAuth(mixtapes.create))
	api.HandleFunc("GET /mixtapes/{token}", mixtapes.get)

	api.HandleFunc("POST /events", events.create)

	api.Handle("GET /search", withAuth(search.get))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}
