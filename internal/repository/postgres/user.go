package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const upsertUser = `-- name: UpsertUser
INSERT INTO users (id, spotify_id, email, display_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (spotify_id) DO UPDATE
SET email = EXCLUDED.email, display_name = EXCLUDED.display_name
RETURNING id, created_at, spotify_id, email, display_name
`

func (r *UserRepo) UpsertUser(ctx context.Context, spotifyID string, email string, displayName string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, upsertUser, uuid.New(), spotifyID, email, displayName)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, spotify_id, email, display_name FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.SpotifyID, &u.Email, &u.DisplayName)
	return u, err
}
