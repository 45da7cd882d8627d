package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/models"
)

type MixtapeRepo struct {
	DB DBTX
}

const createMixtape = `-- name: CreateMixtape
INSERT INTO mixtapes (id, user_id, share_token, title, recipient_name, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, share_token, title, recipient_name, message, created_at
`

func (r *MixtapeRepo) CreateMixtape(ctx context.Context, m models.Mixtape) (models.Mixtape, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createMixtape, m.ID, m.UserID, m.ShareToken, m.Title, m.RecipientName, m.Message, m.CreatedAt)
	saved, err := pgx.CollectOneRow(rows, rowToMixtape)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return saved, apperrors.ErrShareTokenTaken
		}
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const createTrack = `-- name: CreateTrack
INSERT INTO tracks (id, mixtape_id, position, spotify_track_id, track_name, artist_name, album_art_url, duration_ms, uri)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// CreateTracks saves all tracks in a single batch round trip
// Positions are stored exactly as set on the track models
func (r *MixtapeRepo) CreateTracks(ctx context.Context, mixtapeID uuid.UUID, tracks []models.Track) error {
	batch := &pgx.Batch{}
	for _, t := range tracks {
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(createTrack, id, mixtapeID, t.Position, t.SpotifyID, t.Name, t.Artist, t.AlbumArtURL, t.DurationMs, t.URI)
	}

	results := r.DB.SendBatch(ctx, batch)
	defer results.Close() // nolint:errcheck

	for range tracks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return results.Close()
}

const deleteMixtape = `-- name: DeleteMixtape
DELETE FROM mixtapes
WHERE id = $1
`

// DeleteMixtape removes the mixtape row, tracks go away with ON DELETE CASCADE
// Deleting a missing mixtape is not an error
func (r *MixtapeRepo) DeleteMixtape(ctx context.Context, mixtapeID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteMixtape, mixtapeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const getMixtapeByShareToken = `-- name: GetMixtapeByShareToken
SELECT id, user_id, share_token, title, recipient_name, message, created_at FROM mixtapes
WHERE share_token = $1
`

const getTracksByMixtapeID = `-- name: GetTracksByMixtapeID
SELECT id, mixtape_id, position, spotify_track_id, track_name, artist_name, album_art_url, duration_ms, uri FROM tracks
WHERE mixtape_id = $1
ORDER BY position
`

func (r *MixtapeRepo) GetByShareToken(ctx context.Context, shareToken string) (models.Mixtape, error) {
	rows, _ := r.DB.Query(ctx, getMixtapeByShareToken, shareToken)
	m, err := pgx.CollectOneRow(rows, rowToMixtape)

	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return m, apperrors.ErrMixtapeNotFound
	default:
		return m, fmt.Errorf("db error: %w", err)
	}

	trackRows, _ := r.DB.Query(ctx, getTracksByMixtapeID, m.ID)
	m.Tracks, err = pgx.CollectRows(trackRows, rowToTrack)
	if err != nil {
		return m, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func rowToMixtape(row pgx.CollectableRow) (models.Mixtape, error) {
	var m models.Mixtape
	err := row.Scan(&m.ID, &m.UserID, &m.ShareToken, &m.Title, &m.RecipientName, &m.Message, &m.CreatedAt)
	return m, err
}

func rowToTrack(row pgx.CollectableRow) (models.Track, error) {
	var t models.Track
	err := row.Scan(&t.ID, &t.MixtapeID, &t.Position, &t.SpotifyID, &t.Name, &t.Artist, &t.AlbumArtURL, &t.DurationMs, &t.URI)
	return t, err
}
