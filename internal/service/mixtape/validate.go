package mixtape

import (
	"fmt"

	"github.com/nkiryanov/mixtape/internal/models"
)

// ValidationError identifies the field the client has to correct
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func invalid(field string, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// validateCreate checks the whole request before any side effect happens.
// It is pure: no I/O, no partial effects on failure
func validateCreate(req CreateRequest) *ValidationError {
	switch {
	case req.Title == "":
		return invalid("title", "is required")
	case len(req.Title) > models.MaxTitleLen:
		return invalid("title", fmt.Sprintf("must be %d characters or less", models.MaxTitleLen))
	case req.RecipientName == "":
		return invalid("recipient_name", "is required")
	case len(req.RecipientName) > models.MaxRecipientLen:
		return invalid("recipient_name", fmt.Sprintf("must be %d characters or less", models.MaxRecipientLen))
	case len(req.Message) > models.MaxMessageLen:
		return invalid("message", fmt.Sprintf("must be %d characters or less", models.MaxMessageLen))
	case len(req.Tracks) < 1:
		return invalid("tracks", "at least 1 track is required")
	case len(req.Tracks) > models.MaxTracks:
		return invalid("tracks", fmt.Sprintf("maximum of %d tracks allowed", models.MaxTracks))
	}

	for i, t := range req.Tracks {
		field := fmt.Sprintf("tracks[%d]", i)
		switch {
		case t.SpotifyID == "":
			return invalid(field+".spotify_track_id", "is required")
		case t.Name == "":
			return invalid(field+".track_name", "is required")
		case t.Artist == "":
			return invalid(field+".artist_name", "is required")
		case t.URI == "":
			return invalid(field+".uri", "is required")
		}
	}

	return nil
}
