// Package hints persists contributions as hints so that later generations and
// downstream modules can rediscover them without the declaring source.
package hints

import (
	"sync"

	"github.com/toyz/meld/internal/models"
)

// Reader lists every visible hint
type Reader interface {
	AllHints() ([]models.Hint, error)
}

// Store records contributions and lists the hints they produced.
// Recording is idempotent per (identity, scope) and never overwrites a hint.
type Store interface {
	Reader
	// Record stores the reference and scope hints of c and returns the
	// number of hints that were not visible before.
	Record(c models.Contribution) (int, error)
}

// Writer is a store that also accepts raw hints
type Writer interface {
	Store
	RecordHints(hints ...models.Hint) (int, error)
}

// MemoryStore keeps hints in insertion order
type MemoryStore struct {
	mu    sync.RWMutex
	hints []models.Hint
	seen  map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Record stores the hints of c
func (s *MemoryStore) Record(c models.Contribution) (int, error) {
	return s.RecordHints(models.HintsFor(c)...)
}

// RecordHints appends every hint that is not already present. A reference
// hint whose payload differs from the stored one is appended next to it.
func (s *MemoryStore) RecordHints(hints ...models.Hint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, h := range hints {
		key, err := entryKey(h)
		if err != nil {
			return added, err
		}
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.hints = append(s.hints, h)
		added++
	}
	return added, nil
}

// AllHints returns a copy of the stored hints
func (s *MemoryStore) AllHints() ([]models.Hint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Hint, len(s.hints))
	copy(out, s.hints)
	return out, nil
}

// Len returns the number of stored hints
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hints)
}

// entryKey identifies a hint together with its content. Scope hints are fully
// described by their key; reference hints add a digest of the payload.
func entryKey(h models.Hint) (string, error) {
	if h.Role == models.HintScope {
		return h.Key(), nil
	}
	digest, err := fingerprint(h)
	if err != nil {
		return "", err
	}
	return h.Key() + "\x00" + digest, nil
}
