package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is an in-process Backend with per-entry TTL. Expired entries are
// dropped lazily on read. Values are copied in and out.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry), now: time.Now}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	switch {
	case !ok:
		return nil, false, nil
	case e.expired(s.now()):
		delete(s.entries, key)
		return nil, false, nil
	default:
		return slices.Clone(e.value), true, nil
	}
}

// Save stores value under key. A non-positive ttl never expires.
func (s *Store) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return nil
	}

	e := entry{value: slices.Clone(value)}
	if e.value == nil {
		e.value = []byte{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
