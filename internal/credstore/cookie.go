package credstore

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/mixtape/internal/apperrors"
)

type valueClaims struct {
	jwt.RegisteredClaims
	Value string `json:"val"`
}

// CookieStore is a Store over HTTP cookies
// Values are signed with HS256 so the client can hold but not forge them,
// the 'exp' claim enforces the TTL even if the cookie itself outlives it
type CookieStore struct {
	key    []byte
	secure bool

	r *http.Request
	w http.ResponseWriter
}

func NewCookieStore(secretKey string, secure bool, w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{
		key:    []byte(secretKey),
		secure: secure,
		r:      r,
		w:      w,
	}
}

func (s *CookieStore) Get(name string) (string, error) {
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return "", apperrors.ErrCredentialNotFound
	}

	claims := &valueClaims{}
	_, err = jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Tampered or expired values are both treated as absent
		return "", apperrors.ErrCredentialNotFound
	}

	return claims.Value, nil
}

func (s *CookieStore) Set(name string, value string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, valueClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Value: value,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return fmt.Errorf("error while signing cookie value. Err: %w", err)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (s *CookieStore) Delete(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ Store = (*CookieStore)(nil)
