package credstore

import (
	"time"

	"github.com/nkiryanov/mixtape/internal/apperrors"
)

type memoryValue struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store used in tests
// Now may be overridden to control expiry
type MemoryStore struct {
	Now func() time.Time

	values map[string]memoryValue
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:    time.Now,
		values: make(map[string]memoryValue),
	}
}

func (s *MemoryStore) Get(name string) (string, error) {
	v, ok := s.values[name]
	if !ok || s.Now().After(v.expiresAt) {
		return "", apperrors.ErrCredentialNotFound
	}

	return v.value, nil
}

func (s *MemoryStore) Set(name string, value string, ttl time.Duration) error {
	s.values[name] = memoryValue{
		value:     value,
		expiresAt: s.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(name string) {
	delete(s.values, name)
}

var _ Store = (*MemoryStore)(nil)
