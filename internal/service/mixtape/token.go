package mixtape

import (
	"crypto/rand"
	"math/big"
)

const (
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// 21 base62 characters carry ~125 bits of entropy,
	// collisions are a unique-constraint violation, not a lookup overwrite
	tokenLength = 21

	maxTokenAttempts = 3
)

// NewShareToken returns the public unguessable mixtape identifier.
// Tokens are never derived from anything and never reused: a deleted
// mixtape keeps its token out of circulation simply by randomness
func NewShareToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))

	token := make([]byte, tokenLength)
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = tokenAlphabet[n.Int64()]
	}

	return string(token), nil
}
