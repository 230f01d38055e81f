// pkg/memcache/kv_store.go
package mem

import (
	"sync"
	"time"
)

// KeyValueStore is the synchronous key/value storage credentials live in.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(keys ...string) error
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Store is an in-memory KeyValueStore. Values set with a TTL disappear once
// it elapses.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *Store) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: value}
	return nil
}

func (s *Store) SetWithTTL(key string, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, key) // cleanup expired
		s.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (s *Store) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Consume returns the value for key and removes it (single-use).
func (s *Store) Consume(key string) (string, bool) {
	v, ok := s.Get(key)
	if ok {
		_ = s.Delete(key)
	}
	return v, ok
}

var _ KeyValueStore = (*Store)(nil)
