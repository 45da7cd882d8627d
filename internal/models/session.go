package models

import (
	"github.com/google/uuid"
)

// Session is the resolved per-request authentication state.
// The refresh token never leaves the session manager, so it is not here
type Session struct {
	UserID      uuid.UUID
	AccessToken string
}
