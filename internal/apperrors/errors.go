package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")

	ErrNoSession     = errors.New("no active session")
	ErrStateMismatch = errors.New("oauth state mismatch")

	ErrCredentialNotFound = errors.New("credential not found or expired")

	ErrMixtapeNotFound = errors.New("mixtape not found")
	ErrShareTokenTaken = errors.New("share token already taken")

	ErrDispatcherFull    = errors.New("side effect queue is full")
	ErrDispatcherStopped = errors.New("side effect dispatcher is stopped")
)
