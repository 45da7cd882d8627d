package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/mixtape/internal/models"
)

type EventRepo struct {
	DB DBTX
}

const createEvent = `-- name: CreateEvent
INSERT INTO events (id, event_type, mixtape_id, user_id, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, event_type, mixtape_id, user_id, metadata, created_at
`

func (r *EventRepo) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	rows, _ := r.DB.Query(ctx, createEvent, event.ID, event.Type, event.MixtapeID, event.UserID, event.Metadata, event.CreatedAt)
	saved, err := pgx.CollectOneRow(rows, rowToEvent)

	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

func rowToEvent(row pgx.CollectableRow) (models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Type, &e.MixtapeID, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}
