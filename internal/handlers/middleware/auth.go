package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/handlers/render"
	"github.com/nkiryanov/mixtape/internal/handlers/sessionctx"
	"github.com/nkiryanov/mixtape/internal/models"
)

type sessionManager interface {
	Resolve(ctx context.Context, store credstore.Store) (models.Session, bool)
}

// StoreFactory builds the request-scoped credential store
type StoreFactory func(w http.ResponseWriter, r *http.Request) credstore.Store

// AuthMiddleware resolves the session and rejects requests without one.
// The resolved session is placed into the request context
func AuthMiddleware(sm sessionManager, stores StoreFactory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sm.Resolve(r.Context(), stores(w, r))
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := sessionctx.New(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
