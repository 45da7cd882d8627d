package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/mixtape/internal/credstore"
	"github.com/nkiryanov/mixtape/internal/handlers/render"
	"github.com/nkiryanov/mixtape/internal/models"
)

// sessionProber resolves a session when one exists, analytics works without one
type sessionProber interface {
	Resolve(ctx context.Context, store credstore.Store) (models.Session, bool)
}

type EventHandler struct {
	sink     eventSink
	sessions sessionProber
	stores   StoreFactory
}

func NewEvent(sink eventSink, sessions sessionProber, stores StoreFactory) *EventHandler {
	return &EventHandler{sink: sink, sessions: sessions, stores: stores}
}

func (h *EventHandler) create(w http.ResponseWriter, r *http.Request) {
	type eventRequest struct {
		EventType string         `json:"event_type" validate:"required,max=64"`
		MixtapeID string         `json:"mixtape_id" validate:"omitempty,uuid"`
		Metadata  map[string]any `json:"metadata"`
	}

	data, err := render.BindAndValidate[eventRequest](w, r)
	if err != nil {
		return
	}

	var mixtapeID *uuid.UUID
	if data.MixtapeID != "" {
		if id, err := uuid.Parse(data.MixtapeID); err == nil {
			mixtapeID = &id
		}
	}

	// Events are recorded for anonymous visitors too
	var userID *uuid.UUID
	if session, ok := h.sessions.Resolve(r.Context(), h.stores(w, r)); ok {
		userID = &session.UserID
	}

	h.sink.Record(r.Context(), data.EventType, data.Metadata, mixtapeID, userID)

	w.WriteHeader(http.StatusAccepted)
}
