package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nkiryanov/mixtape/internal/handlers/render"
	"github.com/nkiryanov/mixtape/internal/handlers/sessionctx"
	"github.com/nkiryanov/mixtape/internal/logger"
	"github.com/nkiryanov/mixtape/internal/service/spotify"
)

type searchClient interface {
	SearchTracks(ctx context.Context, accessToken string, query string, limit int) ([]spotify.TrackResult, error)
}

type SearchHandler struct {
	search searchClient
	logger logger.Logger
}

func NewSearch(search searchClient, l logger.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: l}
}

type searchTrackResponse struct {
	SpotifyTrackID string `json:"spotify_track_id"`
	TrackName      string `json:"track_name"`
	ArtistName     string `json:"artist_name"`
	AlbumArtURL    string `json:"album_art_url,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
	URI            string `json:"uri"`
}

// get proxies catalog search to the provider with the session's access token
func (h *SearchHandler) get(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		render.FieldError(w, "q", "is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tracks, err := h.search.SearchTracks(r.Context(), session.AccessToken, query, limit)
	if err != nil {
		h.logger.Error("Track search failed", "error", err)
		render.ServiceError(w, "Search failed", http.StatusBadGateway)
		return
	}

	res := make([]searchTrackResponse, len(tracks))
	for i, t := range tracks {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		albumArt := ""
		if len(t.Album.Images) > 0 {
			albumArt = t.Album.Images[0].URL
		}

		res[i] = searchTrackResponse{
			SpotifyTrackID: t.ID,
			TrackName:      t.Name,
			ArtistName:     artist,
			AlbumArtURL:    albumArt,
			DurationMs:     t.DurationMs,
			URI:            t.URI,
		}
	}

	render.JSON(w, map[string]any{"tracks": res})
}
