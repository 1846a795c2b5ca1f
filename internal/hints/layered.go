package hints

import (
	"sync"

	"github.com/toyz/meld/internal/models"
)

// LayeredStore combines one writable store with read-only hint sources, such
// as hint directories shipped by dependency modules. Hints already visible in
// a read-only layer are never written again.
type LayeredStore struct {
	writable Writer
	includes []Reader

	mu       sync.Mutex
	included map[string]struct{}
}

// NewLayeredStore creates a store writing to writable and reading includes too
func NewLayeredStore(writable Writer, includes ...Reader) *LayeredStore {
	return &LayeredStore{writable: writable, includes: includes}
}

// Record stores the hints of c that no layer holds yet
func (s *LayeredStore) Record(c models.Contribution) (int, error) {
	return s.RecordHints(models.HintsFor(c)...)
}

// RecordHints forwards the hints missing from every read-only layer to the
// writable store.
func (s *LayeredStore) RecordHints(hints ...models.Hint) (int, error) {
	included, err := s.includedKeys()
	if err != nil {
		return 0, err
	}

	fresh := make([]models.Hint, 0, len(hints))
	for _, h := range hints {
		key, err := entryKey(h)
		if err != nil {
			return 0, err
		}
		if _, ok := included[key]; !ok {
			fresh = append(fresh, h)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	return s.writable.RecordHints(fresh...)
}

// AllHints lists the read-only layers first, in order, then the writable store
func (s *LayeredStore) AllHints() ([]models.Hint, error) {
	var all []models.Hint
	for _, layer := range s.includes {
		hints, err := layer.AllHints()
		if err != nil {
			return nil, err
		}
		all = append(all, hints...)
	}
	hints, err := s.writable.AllHints()
	if err != nil {
		return nil, err
	}
	return append(all, hints...), nil
}

// includedKeys indexes the read-only layers once. They cannot change during a run.
func (s *LayeredStore) includedKeys() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.included != nil {
		return s.included, nil
	}
	included := make(map[string]struct{})
	for _, layer := range s.includes {
		hints, err := layer.AllHints()
		if err != nil {
			return nil, err
		}
		for _, h := range hints {
			key, err := entryKey(h)
			if err != nil {
				return nil, err
			}
			included[key] = struct{}{}
		}
	}
	s.included = included
	return included, nil
}
