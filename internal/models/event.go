package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSpotifyConnected = "spotify_connected"
	EventMixtapeCreated   = "mixtape_created"
	EventMixtapeViewed    = "mixtape_viewed"
	EventEmailSent        = "email_sent"
)

// Event is an append-only analytics record.
// It is never updated or deleted by the service
type Event struct {
	ID        uuid.UUID
	Type      string
	MixtapeID *uuid.UUID
	UserID    *uuid.UUID
	Metadata  map[string]any
	CreatedAt time.Time
}
