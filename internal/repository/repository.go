package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nkiryanov/mixtape/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user for spotify id or update profile data if it already exists
	UpsertUser(ctx context.Context, spotifyID string, email string, displayName string) (models.User, error)

	// Get user by it's id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// Mixtape repository interface
type MixtapeRepo interface {
	// Create mixtape row only, without tracks
	CreateMixtape(ctx context.Context, m models.Mixtape) (models.Mixtape, error)

	// Create all tracks for the mixtape in one batch
	// Positions must be saved exactly as provided
	CreateTracks(ctx context.Context, mixtapeID uuid.UUID, tracks []models.Track) error

	// Delete mixtape with all its tracks
	// Used as saga compensation, must not fail if mixtape is already gone
	DeleteMixtape(ctx context.Context, mixtapeID uuid.UUID) error

	// Get mixtape with tracks ordered by position
	// If mixtape not found must return apperrors.ErrMixtapeNotFound
	GetByShareToken(ctx context.Context, shareToken string) (models.Mixtape, error)
}

// Event repository interface
// Events are append-only, there are no update or delete methods on purpose
type EventRepo interface {
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
}

// Storage aggregates all repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Mixtape() MixtapeRepo
	Event() EventRepo

	// Run fn within a database transaction
	// Storage passed to fn operates on the transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
