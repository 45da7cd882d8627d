package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/handlers/render"
	"github.com/nkiryanov/mixtape/internal/handlers/sessionctx"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/models"
	"github.com/nkiryanov/mixtape/internal/service/mixtape"
)

type mixtapeService interface {
	Create(ctx context.Context, session models.Session, req mixtape.CreateRequest) (mixtape.CreateResult, error)
	GetByShareToken(ctx context.Context, token string) (models.Mixtape, error)
}

type MixtapeHandler struct {
	mixtapes mixtapeService
	logger   logger.Logger
}

func NewMixtape(mixtapes mixtapeService, l logger.Logger) *MixtapeHandler {
	return &MixtapeHandler{mixtapes: mixtapes, logger: l}
}

type trackRequest struct {
	SpotifyTrackID string `json:"spotify_track_id"`
	TrackName      string `json:"track_name"`
	ArtistName     string `json:"artist_name"`
	AlbumArtURL    string `json:"album_art_url"`
	DurationMs     int64  `json:"duration_ms"`
	URI            string `json:"uri"`
}

type createMixtapeRequest struct {
	Title          string         `json:"title"`
	RecipientName  string         `json:"recipient_name"`
	RecipientEmail string         `json:"recipient_email"`
	Message        string         `json:"message"`
	SaveToSpotify  bool           `json:"save_to_spotify"`
	Tracks         []trackRequest `json:"tracks"`
}

type createMixtapeResponse struct {
	ID         string `json:"id"`
	ShareToken string `json:"share_token"`
}

func (h *MixtapeHandler) create(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var data createMixtapeRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		render.DecodeError(w, err)
		return
	}

	tracks := make([]mixtape.TrackInput, len(data.Tracks))
	for i, t := range data.Tracks {
		tracks[i] = mixtape.TrackInput{
			SpotifyID:   t.SpotifyTrackID,
			Name:        t.TrackName,
			Artist:      t.ArtistName,
			AlbumArtURL: t.AlbumArtURL,
			DurationMs:  t.DurationMs,
			URI:         t.URI,
		}
	}

	result, err := h.mixtapes.Create(r.Context(), session, mixtape.CreateRequest{
		Title:          data.Title,
		RecipientName:  data.RecipientName,
		RecipientEmail: data.RecipientEmail,
		Message:        data.Message,
		SaveToSpotify:  data.SaveToSpotify,
		Tracks:         tracks,
	})

	var verr *mixtape.ValidationError
	switch {
	case err == nil:
		render.JSON(w, createMixtapeResponse{
			ID:         result.ID.String(),
			ShareToken: result.ShareToken,
		})
	case errors.As(err, &verr):
		render.FieldError(w, verr.Field, verr.Reason)
	default:
		h.logger.Error("Mixtape creation failed", "error", err)
		render.ServiceError(w, "Couldn't save your mixtape, try again later", http.StatusInternalServerError)
	}
}

type trackResponse struct {
	Position       int    `json:"position"`
	SpotifyTrackID string `json:"spotify_track_id"`
	TrackName      string `json:"track_name"`
	ArtistName     string `json:"artist_name"`
	AlbumArtURL    string `json:"album_art_url,omitempty"`
	DurationMs     int64  `json:"duration_ms,omitempty"`
	URI            string `json:"uri,omitempty"`
}

type mixtapeResponse struct {
	ID            string          `json:"id"`
	ShareToken    string          `json:"share_token"`
	Title         string          `json:"title"`
	RecipientName string          `json:"recipient_name"`
	Message       string          `json:"message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Tracks        []trackResponse `json:"tracks"`
}

func (h *MixtapeHandler) get(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	m, err := h.mixtapes.GetByShareToken(r.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrMixtapeNotFound):
		render.ServiceError(w, "Mixtape not found", http.StatusNotFound)
		return
	default:
		h.logger.Error("Mixtape fetch failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res := mixtapeResponse{
		ID:            m.ID.String(),
		ShareToken:    m.ShareToken,
		Title:         m.Title,
		RecipientName: m.RecipientName,
		Message:       m.Message,
		CreatedAt:     m.CreatedAt,
		Tracks:        make([]trackResponse, len(m.Tracks)),
	}
	for i, t := range m.Tracks {
		res.Tracks[i] = trackResponse{
			Position:       t.Position,
			SpotifyTrackID: t.SpotifyID,
			TrackName:      t.Name,
			ArtistName:     t.Artist,
			AlbumArtURL:    t.AlbumArtURL,
			DurationMs:     t.DurationMs,
			URI:            t.URI,
		}
	}

	render.JSON(w, res)
}
