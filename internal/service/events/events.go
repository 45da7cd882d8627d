// Package events records analytics events.
// Recording is fire-and-forget: a lost event is logged, never surfaced
package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/repository"
)

type logger interface {
	Error(msg string, args ...any)
}

type Sink struct {
	events repository.EventRepo
	logger logger
}

func NewSink(events repository.EventRepo, l logger) *Sink {
	return &Sink{
		events: events,
		logger: l,
	}
}

// Record appends the event, failures are logged and swallowed
func (s *Sink) Record(ctx context.Context, eventType string, metadata map[string]any, mixtapeID *uuid.UUID, userID *uuid.UUID) {
	_, err := s.events.CreateEvent(ctx, models.Event{
		Type:      eventType,
		MixtapeID: mixtapeID,
		UserID:    userID,
		Metadata:  metadata,
	})
	if err != nil {
		s.logger.Error("Failed to record event", "event_type", eventType, "error", err)
	}
}
