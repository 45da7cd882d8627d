// Package mixtape implements the mixtape aggregate: the creation saga,
// its compensation policy and the post-commit side effects.
package mixtape

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/repository"
	"github.com/nkiryanov/mixtape/internal/service/email"
)

type eventSink interface {
	Record(ctx context.Context, eventType string, metadata map[string]any, mixtapeID *uuid.UUID, userID *uuid.UUID)
}

type dispatcher interface {
	Schedule(name string, fn func(ctx context.Context) error) error
}

type spotifyClient interface {
	CreatePlaylist(ctx context.Context, accessToken string, spotifyUserID string, name string, trackURIs []string) (string, error)
}

type mailClient interface {
	SendMixtapeNotification(ctx context.Context, n email.MixtapeNotification) error
}

type TrackInput struct {
	SpotifyID   string
	Name        string
	Artist      string
	AlbumArtURL string
	DurationMs  int64
	URI         string
}

type CreateRequest struct {
	Title          string
	RecipientName  string
	RecipientEmail string
	Message        string
	SaveToSpotify  bool
	Tracks         []TrackInput
}

type CreateResult struct {
	ID         uuid.UUID
	ShareToken string
}

type Service struct {
	storage    repository.Storage
	sink       eventSink
	dispatcher dispatcher
	spotify    spotifyClient
	mail       mailClient

	// Public base URL of the service, used to build share links
	baseURL string

	logger logger.Logger
}

func NewService(
	storage repository.Storage,
	sink eventSink,
	d dispatcher,
	spotify spotifyClient,
	mail mailClient,
	baseURL string,
	l logger.Logger,
) *Service {
	return &Service{
		storage:    storage,
		sink:       sink,
		dispatcher: d,
		spotify:    spotify,
		mail:       mail,
		baseURL:    baseURL,
		logger:     l,
	}
}

// Create runs the mixtape creation saga for the authenticated session.
//
// Validation happens first and is side effect free. The mixtape row and its
// tracks are then written with a compensating delete: a mixtape must never be
// observable with zero tracks. Once persistence commits, the analytics event
// and scheduled side effects are best-effort and cannot undo the creation,
// the caller already holds a durable share token
func (s *Service) Create(ctx context.Context, session models.Session, req CreateRequest) (CreateResult, error) {
	if verr := validateCreate(req); verr != nil {
		return CreateResult{}, verr
	}

	mixtape := models.Mixtape{
		ID:            uuid.New(),
		UserID:        session.UserID,
		Title:         req.Title,
		RecipientName: req.RecipientName,
		Message:       req.Message,
	}

	tracks := make([]models.Track, len(req.Tracks))
	for i, t := range req.Tracks {
		tracks[i] = models.Track{
			MixtapeID:   mixtape.ID,
			Position:    i + 1,
			SpotifyID:   t.SpotifyID,
			Name:        t.Name,
			Artist:      t.Artist,
			AlbumArtURL: t.AlbumArtURL,
			DurationMs:  t.DurationMs,
			URI:         t.URI,
		}
	}

	repo := s.storage.Mixtape()

	// A generated token may collide with an existing mixtape, the unique index
	// rejects the insert and the saga is retried with a fresh token
	for attempt := 1; ; attempt++ {
		token, err := NewShareToken()
		if err != nil {
			return CreateResult{}, fmt.Errorf("failed to generate share token. Err: %w", err)
		}
		mixtape.ShareToken = token

		err = runSaga(ctx, s.logger, []step{
			{
				name: "insert mixtape",
				run: func(ctx context.Context) error {
					_, err := repo.CreateMixtape(ctx, mixtape)
					return err
				},
				compensate: func(ctx context.Context) error {
					return repo.DeleteMixtape(ctx, mixtape.ID)
				},
			},
			{
				name: "insert tracks",
				run: func(ctx context.Context) error {
					return repo.CreateTracks(ctx, mixtape.ID, tracks)
				},
			},
		})

		if errors.Is(err, apperrors.ErrShareTokenTaken) && attempt < maxTokenAttempts {
			s.logger.Warn("Share token collision, retrying with a fresh token", "mixtape_id", mixtape.ID)
			continue
		}
		if err != nil {
			return CreateResult{}, err
		}
		break
	}

	s.sink.Record(ctx, models.EventMixtapeCreated,
		map[string]any{"track_count": len(tracks)},
		&mixtape.ID, &session.UserID,
	)

	s.scheduleSideEffects(session, mixtape, req)

	return CreateResult{ID: mixtape.ID, ShareToken: mixtape.ShareToken}, nil
}

// GetByShareToken returns the mixtape with its tracks in playback order
func (s *Service) GetByShareToken(ctx context.Context, token string) (models.Mixtape, error) {
	return s.storage.Mixtape().GetByShareToken(ctx, token)
}

func (s *Service) scheduleSideEffects(session models.Session, mixtape models.Mixtape, req CreateRequest) {
	if req.RecipientEmail != "" {
		if err := s.dispatcher.Schedule("notification email", s.emailTask(session, mixtape, req)); err != nil {
			s.logger.Error("Failed to schedule notification email", "mixtape_id", mixtape.ID, "error", err)
		}
	}

	if req.SaveToSpotify {
		if err := s.dispatcher.Schedule("spotify playlist mirror", s.playlistTask(session, mixtape, req)); err != nil {
			s.logger.Error("Failed to schedule playlist mirror", "mixtape_id", mixtape.ID, "error", err)
		}
	}
}

func (s *Service) emailTask(session models.Session, mixtape models.Mixtape, req CreateRequest) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sender, err := s.storage.User().GetUserByID(ctx, session.UserID)
		if err != nil {
			return fmt.Errorf("failed to load sender. Err: %w", err)
		}

		senderName := sender.DisplayName
		if senderName == "" {
			senderName = "Someone"
		}

		err = s.mail.SendMixtapeNotification(ctx, email.MixtapeNotification{
			RecipientEmail: req.RecipientEmail,
			RecipientName:  mixtape.RecipientName,
			SenderName:     senderName,
			MixtapeTitle:   mixtape.Title,
			MixtapeURL:     s.baseURL + "/m/" + mixtape.ShareToken,
			Message:        mixtape.Message,
			TrackCount:     len(req.Tracks),
		})
		if err != nil {
			return err
		}

		s.sink.Record(ctx, models.EventEmailSent, map[string]any{}, &mixtape.ID, &session.UserID)
		return nil
	}
}

func (s *Service) playlistTask(session models.Session, mixtape models.Mixtape, req CreateRequest) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		owner, err := s.storage.User().GetUserByID(ctx, session.UserID)
		if err != nil {
			return fmt.Errorf("failed to load playlist owner. Err: %w", err)
		}

		uris := make([]string, len(req.Tracks))
		for i, t := range req.Tracks {
			uris[i] = t.URI
		}

		_, err = s.spotify.CreatePlaylist(ctx, session.AccessToken, owner.SpotifyID, mixtape.Title, uris)
		return err
	}
}
