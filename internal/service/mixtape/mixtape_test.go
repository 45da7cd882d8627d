package mixtape

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/repository"
	"github.com/nkiryanov/mixtape/internal/service/email"
)

// fakeStorage records persistence calls and allows failure injection
type fakeStorage struct {
	createTracksErr error
	tokenCollisions int

	createdMixtapes []models.Mixtape
	createdTracks   []models.Track
	deletedIDs      []uuid.UUID

	user models.User
}

func (s *fakeStorage) User() repository.UserRepo       { return s }
func (s *fakeStorage) Mixtape() repository.MixtapeRepo { return s }
func (s *fakeStorage) Event() repository.EventRepo     { return s }
func (s *fakeStorage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}

func (s *fakeStorage) UpsertUser(_ context.Context, spotifyID string, email string, displayName string) (models.User, error) {
	return models.User{SpotifyID: spotifyID, Email: email, DisplayName: displayName}, nil
}

func (s *fakeStorage) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	if s.user.ID != userID {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return s.user, nil
}

func (s *fakeStorage) CreateEvent(_ context.Context, event models.Event) (models.Event, error) {
	return event, nil
}

func (s *fakeStorage) CreateMixtape(_ context.Context, m models.Mixtape) (models.Mixtape, error) {
	if s.tokenCollisions > 0 {
		s.tokenCollisions--
		return models.Mixtape{}, apperrors.ErrShareTokenTaken
	}
	s.createdMixtapes = append(s.createdMixtapes, m)
	return m, nil
}

func (s *fakeStorage) CreateTracks(_ context.Context, mixtapeID uuid.UUID, tracks []models.Track) error {
	if s.createTracksErr != nil {
		return s.createTracksErr
	}
	s.createdTracks = append(s.createdTracks, tracks...)
	return nil
}

func (s *fakeStorage) DeleteMixtape(_ context.Context, mixtapeID uuid.UUID) error {
	s.deletedIDs = append(s.deletedIDs, mixtapeID)
	return nil
}

func (s *fakeStorage) GetByShareToken(_ context.Context, shareToken string) (models.Mixtape, error) {
	for _, m := range s.createdMixtapes {
		if m.ShareToken == shareToken {
			return m, nil
		}
	}
	return models.Mixtape{}, apperrors.ErrMixtapeNotFound
}

type recordedEvent struct {
	eventType string
	metadata  map[string]any
	mixtapeID *uuid.UUID
	userID    *uuid.UUID
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) Record(_ context.Context, eventType string, metadata map[string]any, mixtapeID *uuid.UUID, userID *uuid.UUID) {
	s.events = append(s.events, recordedEvent{eventType, metadata, mixtapeID, userID})
}

// fakeDispatcher runs scheduled tasks synchronously
type fakeDispatcher struct {
	names []string
	errs  []error
}

func (d *fakeDispatcher) Schedule(name string, fn func(ctx context.Context) error) error {
	d.names = append(d.names, name)
	d.errs = append(d.errs, fn(context.Background()))
	return nil
}

type fakeSpotify struct {
	gotAccessToken string
	gotUserID      string
	gotName        string
	gotURIs        []string
}

func (c *fakeSpotify) CreatePlaylist(_ context.Context, accessToken string, spotifyUserID string, name string, trackURIs []string) (string, error) {
	c.gotAccessToken = accessToken
	c.gotUserID = spotifyUserID
	c.gotName = name
	c.gotURIs = trackURIs
	return "playlist-id", nil
}

type fakeMail struct {
	sent []email.MixtapeNotification
	err  error
}

func (c *fakeMail) SendMixtapeNotification(_ context.Context, n email.MixtapeNotification) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func validRequest(trackCount int) CreateRequest {
	tracks := make([]TrackInput, trackCount)
	for i := range tracks {
		tracks[i] = TrackInput{
			SpotifyID:  "track-id",
			Name:       "Track",
			Artist:     "Artist",
			DurationMs: 180000,
			URI:        "spotify:track:id",
		}
	}
	return CreateRequest{
		Title:         "Summer mix",
		RecipientName: "Alex",
		Message:       "for you",
		Tracks:        tracks,
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	session := models.Session{UserID: uuid.New(), AccessToken: "access"}

	newService := func(storage *fakeStorage) (*Service, *fakeSink, *fakeDispatcher, *fakeSpotify, *fakeMail) {
		sink := &fakeSink{}
		d := &fakeDispatcher{}
		sp := &fakeSpotify{}
		mail := &fakeMail{}
		s := NewService(storage, sink, d, sp, mail, "https://mixtape.example", logger.NewNoOpLogger())
		return s, sink, d, sp, mail
	}

	t.Run("valid request persists mixtape and ordered tracks", func(t *testing.T) {
		storage := &fakeStorage{}
		s, sink, d, _, _ := newService(storage)

		result, err := s.Create(t.Context(), session, validRequest(3))

		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, result.ID)
		require.GreaterOrEqual(t, len(result.ShareToken), 10, "share token must not be guessable")

		require.Len(t, storage.createdMixtapes, 1)
		require.Equal(t, session.UserID, storage.createdMixtapes[0].UserID)
		require.Equal(t, result.ShareToken, storage.createdMixtapes[0].ShareToken)

		require.Len(t, storage.createdTracks, 3)
		for i, track := range storage.createdTracks {
			assert.Equal(t, i+1, track.Position, "positions must follow request order")
			assert.Equal(t, result.ID, track.MixtapeID)
		}

		require.Len(t, sink.events, 1)
		assert.Equal(t, models.EventMixtapeCreated, sink.events[0].eventType)
		assert.Equal(t, map[string]any{"track_count": 3}, sink.events[0].metadata)

		assert.Empty(t, d.names, "no side effects without recipient email or spotify flag")
	})

	t.Run("share tokens are unique across creations", func(t *testing.T) {
		storage := &fakeStorage{}
		s, _, _, _, _ := newService(storage)

		seen := make(map[string]bool)
		for range 20 {
			result, err := s.Create(t.Context(), session, validRequest(1))
			require.NoError(t, err)
			require.False(t, seen[result.ShareToken], "token repeated: %s", result.ShareToken)
			seen[result.ShareToken] = true
		}
	})

	t.Run("share token collision retries with a fresh token", func(t *testing.T) {
		storage := &fakeStorage{tokenCollisions: 2}
		s, sink, _, _, _ := newService(storage)

		result, err := s.Create(t.Context(), session, validRequest(1))

		require.NoError(t, err)
		require.Len(t, storage.createdMixtapes, 1)
		assert.Equal(t, result.ShareToken, storage.createdMixtapes[0].ShareToken)
		assert.Len(t, sink.events, 1, "only the successful attempt records an event")
	})

	t.Run("share token collision gives up after repeated failures", func(t *testing.T) {
		storage := &fakeStorage{tokenCollisions: 10}
		s, sink, _, _, _ := newService(storage)

		_, err := s.Create(t.Context(), session, validRequest(1))

		require.ErrorIs(t, err, apperrors.ErrShareTokenTaken)
		assert.Empty(t, storage.createdMixtapes)
		assert.Empty(t, sink.events)
	})

	t.Run("validation failure leaves storage untouched", func(t *testing.T) {
		for name, mutate := range map[string]func(*CreateRequest){
			"no tracks":        func(r *CreateRequest) { r.Tracks = nil },
			"too many tracks":  func(r *CreateRequest) { r.Tracks = validRequest(13).Tracks },
			"empty title":      func(r *CreateRequest) { r.Title = "" },
			"missing track id": func(r *CreateRequest) { r.Tracks[0].SpotifyID = "" },
		} {
			t.Run(name, func(t *testing.T) {
				storage := &fakeStorage{}
				s, sink, _, _, _ := newService(storage)

				req := validRequest(2)
				mutate(&req)

				_, err := s.Create(t.Context(), session, req)

				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Empty(t, storage.createdMixtapes, "invalid request must not touch storage")
				assert.Empty(t, sink.events)
			})
		}
	})

	t.Run("track insert failure compensates the mixtape row", func(t *testing.T) {
		storage := &fakeStorage{createTracksErr: errors.New("deadlock detected")}
		s, sink, _, _, _ := newService(storage)

		_, err := s.Create(t.Context(), session, validRequest(2))

		require.Error(t, err)
		require.Len(t, storage.createdMixtapes, 1, "mixtape row is written before tracks")
		require.Len(t, storage.deletedIDs, 1, "compensation must delete the mixtape row")
		assert.Equal(t, storage.createdMixtapes[0].ID, storage.deletedIDs[0])
		assert.Empty(t, sink.events, "no event for a mixtape that was rolled back")
	})

	t.Run("recipient email schedules notification", func(t *testing.T) {
		userID := session.UserID
		storage := &fakeStorage{user: models.User{ID: userID, SpotifyID: "sp-user", DisplayName: "Nina"}}
		s, sink, d, _, mail := newService(storage)

		req := validRequest(2)
		req.RecipientEmail = "alex@example.com"

		result, err := s.Create(t.Context(), session, req)
		require.NoError(t, err)

		require.Equal(t, []string{"notification email"}, d.names)
		require.NoError(t, d.errs[0])

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "alex@example.com", mail.sent[0].RecipientEmail)
		assert.Equal(t, "Nina", mail.sent[0].SenderName)
		assert.Equal(t, "https://mixtape.example/m/"+result.ShareToken, mail.sent[0].MixtapeURL)
		assert.Equal(t, 2, mail.sent[0].TrackCount)

		require.Len(t, sink.events, 2)
		assert.Equal(t, models.EventEmailSent, sink.events[1].eventType)
	})

	t.Run("anonymous sender falls back to Someone", func(t *testing.T) {
		storage := &fakeStorage{user: models.User{ID: session.UserID, SpotifyID: "sp-user"}}
		s, _, d, _, mail := newService(storage)

		req := validRequest(1)
		req.RecipientEmail = "alex@example.com"

		_, err := s.Create(t.Context(), session, req)
		require.NoError(t, err)
		require.NoError(t, d.errs[0])
		require.Len(t, mail.sent, 1)
		assert.Equal(t, "Someone", mail.sent[0].SenderName)
	})

	t.Run("email failure does not record email event", func(t *testing.T) {
		storage := &fakeStorage{user: models.User{ID: session.UserID}}
		s, sink, d, _, mail := newService(storage)
		mail.err = errors.New("mail provider down")

		req := validRequest(1)
		req.RecipientEmail = "alex@example.com"

		_, err := s.Create(t.Context(), session, req)
		require.NoError(t, err, "creation must succeed even when the email side effect fails")
		require.Error(t, d.errs[0])

		require.Len(t, sink.events, 1)
		assert.Equal(t, models.EventMixtapeCreated, sink.events[0].eventType)
	})

	t.Run("save to spotify mirrors a playlist for the owner", func(t *testing.T) {
		storage := &fakeStorage{user: models.User{ID: session.UserID, SpotifyID: "sp-owner"}}
		s, _, d, sp, _ := newService(storage)

		req := validRequest(2)
		req.SaveToSpotify = true
		req.Tracks[0].URI = "spotify:track:one"
		req.Tracks[1].URI = "spotify:track:two"

		_, err := s.Create(t.Context(), session, req)
		require.NoError(t, err)

		require.Equal(t, []string{"spotify playlist mirror"}, d.names)
		require.NoError(t, d.errs[0])
		assert.Equal(t, "access", sp.gotAccessToken)
		assert.Equal(t, "sp-owner", sp.gotUserID, "playlist must be created for the spotify account, not our user id")
		assert.Equal(t, "Summer mix", sp.gotName)
		assert.Equal(t, []string{"spotify:track:one", "spotify:track:two"}, sp.gotURIs)
	})
}

func TestService_GetByShareToken(t *testing.T) {
	t.Parallel()

	storage := &fakeStorage{}
	s := NewService(storage, &fakeSink{}, &fakeDispatcher{}, &fakeSpotify{}, &fakeMail{}, "https://mixtape.example", logger.NewNoOpLogger())

	result, err := s.Create(t.Context(), models.Session{UserID: uuid.New()}, validRequest(1))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		m, err := s.GetByShareToken(t.Context(), result.ShareToken)
		require.NoError(t, err)
		require.Equal(t, result.ID, m.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.GetByShareToken(t.Context(), "nope")
		require.ErrorIs(t, err, apperrors.ErrMixtapeNotFound)
	})
}
