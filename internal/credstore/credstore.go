// Package credstore keeps per-client session secrets in an expiring
// key/value store. The production implementation is a signed cookie jar,
// handlers never see which transport actually holds the values.
package credstore

import (
	"time"
)

// Store holds keyed values with per-key TTL scoped to a single client.
// Implementations are request-scoped and not safe for concurrent use
type Store interface {
	// Get returns the value for the name
	// Must return apperrors.ErrCredentialNotFound if the value is missing or expired
	Get(name string) (string, error)

	// Set saves the value for the duration of ttl
	Set(name string, value string, ttl time.Duration) error

	// Delete removes the value, missing values are not an error
	Delete(name string)
}
