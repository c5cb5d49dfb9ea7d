package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"coindash/internal/storage"
)

// ErrMalformed marks persisted favorites that could not be parsed.
var ErrMalformed = errors.New("favorites: malformed persisted data")

// Backend is the durable storage behind the set.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Set is the persisted set of starred asset ids. Every mutation is written
// through to the backend before it becomes visible.
type Set struct {
	backend Backend
	key     string
	logger  zerolog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Load reads the set once at startup. A missing key or unparsable data
// yields an empty set; backend I/O failures are returned.
func Load(ctx context.Context, backend Backend, key string, logger zerolog.Logger) (*Set, error) {
	s := &Set{
		backend: backend,
		key:     key,
		logger:  logger.With().Str("component", "favorites").Logger(),
		ids:     map[string]struct{}{},
	}

	raw, err := backend.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	ids, err := Decode(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("persisted favorites unreadable; starting empty")
		return s, nil
	}
	s.ids = ids
	s.logger.Debug().Int("count", len(ids)).Msg("favorites loaded")
	return s, nil
}

// Contains reports membership.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Toggle adds id when absent and removes it when present, persisting the
// whole set before returning. It reports the new membership of id. When the
// write fails the set is left unchanged.
func (s *Set) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.ids)
	_, present := next[id]
	if present {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}

	payload, err := Encode(next)
	if err != nil {
		return present, err
	}
	if err := s.backend.Put(ctx, s.key, payload); err != nil {
		return present, fmt.Errorf("persist favorites: %w", err)
	}

	s.ids = next
	s.logger.Debug().Str("id", id).Bool("favorite", !present).Msg("favorite toggled")
	return !present, nil
}

// Snapshot returns a copy of the current set.
func (s *Set) Snapshot() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.ids)
}

// IDs returns the members in sorted order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.ids))
}

// Len is the number of favorites.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Encode serialises the set as a sorted JSON array.
func Encode(ids map[string]struct{}) ([]byte, error) {
	list := slices.Sorted(maps.Keys(ids))
	if list == nil {
		list = []string{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal favorites: %w", err)
	}
	return payload, nil
}

// Decode parses a JSON array of ids.
func Decode(raw []byte) (map[string]struct{}, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ids := make(map[string]struct{}, len(list))
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids, nil
}
