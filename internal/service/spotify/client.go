package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/nkiryanov/mixtape/internal/logger"
)

const (
	defaultAPIURL         = "https://api.spotify.com/v1"
	defaultRequestTimeout = 5 * time.Second

	// Spotify allows well above this, but as a shared client secret
	// there is no reason to get anywhere near the provider limit
	defaultRequestsPerSecond = 10
)

type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type TrackResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"images"`
	} `json:"album"`
	DurationMs int64  `json:"duration_ms"`
	URI        string `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []TrackResult `json:"items"`
		Total int           `json:"total"`
	} `json:"tracks"`
}

// Client calls the Spotify Web API with a caller provided access token
type Client struct {
	APIURL string

	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewClient(l logger.Logger) *Client {
	return &Client{
		APIURL:  defaultAPIURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
		logger:  l,
	}
}

// Profile returns the profile of the user the access token belongs to
func (c *Client) Profile(ctx context.Context, accessToken string) (Profile, error) {
	var profile Profile
	err := c.doRequest(ctx, http.MethodGet, "/me", accessToken, nil, &profile)
	return profile, err
}

// SearchTracks searches the catalog for tracks matching the query
func (c *Client) SearchTracks(ctx context.Context, accessToken string, query string, limit int) ([]TrackResult, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var res searchResponse
	err := c.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), accessToken, nil, &res)
	if err != nil {
		return nil, err
	}

	return res.Tracks.Items, nil
}

// CreatePlaylist creates a private playlist for the user and fills it with tracks
// Returns the id of the created playlist
func (c *Client) CreatePlaylist(ctx context.Context, accessToken string, spotifyUserID string, name string, trackURIs []string) (string, error) {
	create := map[string]any{
		"name":        name,
		"description": "Created with Mixtape",
		"public":      false,
	}

	var playlist struct {
		ID string `json:"id"`
	}

	endpoint := "/users/" + url.PathEscape(spotifyUserID) + "/playlists"
	if err := c.doRequest(ctx, http.MethodPost, endpoint, accessToken, create, &playlist); err != nil {
		return "", fmt.Errorf("failed to create playlist. Err: %w", err)
	}

	add := map[string]any{"uris": trackURIs}
	if err := c.doRequest(ctx, http.MethodPost, "/playlists/"+playlist.ID+"/tracks", accessToken, add, nil); err != nil {
		return "", fmt.Errorf("failed to add tracks to playlist %s. Err: %w", playlist.ID, err)
	}

	return playlist.ID, nil
}

func (c *Client) doRequest(ctx context.Context, method string, endpoint string, accessToken string, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	var reqBody *bytes.Buffer = &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Spotify API error", "status_code", resp.StatusCode, "endpoint", endpoint)
		return fmt.Errorf("spotify API error: status %d on %s", resp.StatusCode, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
