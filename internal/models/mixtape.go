package models

import (
	"time"

	"github.com/google/uuid"
)

// Limits enforced at creation time
const (
	MaxTitleLen     = 50
	MaxRecipientLen = 50
	MaxMessageLen   = 200
	MaxTracks       = 12
)

type Mixtape struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ShareToken    string
	Title         string
	RecipientName string
	Message       string
	CreatedAt     time.Time

	// Tracks in playback order, positions dense starting from 1
	Tracks []Track
}

type Track struct {
	ID          uuid.UUID
	MixtapeID   uuid.UUID
	Position    int
	SpotifyID   string
	Name        string
	Artist      string
	AlbumArtURL string
	DurationMs  int64
	URI         string
}
