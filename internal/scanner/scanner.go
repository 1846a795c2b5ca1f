// Package scanner answers which contributions target a scope, reading them
// back from the hint store.
package scanner

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/models"
)

// Index maps a scope and kind to the contributions targeting it
type Index map[models.Scope]map[models.Kind][]models.Contribution

// IndexCache holds the index built from one hint store snapshot. It is owned
// by a Scanner and dropped with Invalidate.
type IndexCache struct {
	mu     sync.Mutex
	index  Index
	groups int
	builds int
}

// Get returns the cached index, if any
func (c *IndexCache) Get() (Index, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, c.index != nil
}

// Groups returns the number of hint groups in the cached index
func (c *IndexCache) Groups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups
}

// Builds returns how many times the index was rebuilt
func (c *IndexCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

func (c *IndexCache) set(index Index, groups int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = index
	c.groups = groups
	c.builds++
}

func (c *IndexCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
	c.groups = 0
}

// Scanner finds contributions by scope and kind
type Scanner struct {
	store  hints.Reader
	cache  *IndexCache
	logger *slog.Logger
}

// New creates a scanner over store. A nil logger discards output.
func New(store hints.Reader, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		store:  store,
		cache:  &IndexCache{},
		logger: logger,
	}
}

// Cache exposes the index cache
func (s *Scanner) Cache() *IndexCache {
	return s.cache
}

// Invalidate drops the cached index. The next query reads the store again.
func (s *Scanner) Invalidate() {
	s.cache.clear()
	s.logger.Debug("contribution index invalidated")
}

// FindContributions returns the contributions of kind that target scope,
// sorted by identity.
func (s *Scanner) FindContributions(scope models.Scope, kind models.Kind) ([]models.Contribution, error) {
	index, err := s.index()
	if err != nil {
		return nil, err
	}
	found := index[scope][kind]
	out := make([]models.Contribution, len(found))
	copy(out, found)
	return out, nil
}

// Scopes lists every scope that has at least one contribution
func (s *Scanner) Scopes() ([]models.Scope, error) {
	index, err := s.index()
	if err != nil {
		return nil, err
	}
	scopes := make([]models.Scope, 0, len(index))
	for scope := range index {
		scopes = append(scopes, scope)
	}
	slices.Sort(scopes)
	return scopes, nil
}

func (s *Scanner) index() (Index, error) {
	if index, ok := s.cache.Get(); ok {
		return index, nil
	}

	all, err := s.store.AllHints()
	if err != nil {
		return nil, err
	}
	index, groups, err := BuildIndex(all)
	if err != nil {
		return nil, err
	}
	s.cache.set(index, groups)
	s.logger.Debug("contribution index built", "hints", len(all), "groups", groups, "scopes", len(index))
	return index, nil
}

type group struct {
	identity   models.Identity
	references []*models.Contribution
	scopes     []models.Scope
}

// BuildIndex regroups hints into contributions. Every group must hold exactly
// one reference hint with a payload and at least one scope hint; all failing
// groups are reported together.
func BuildIndex(all []models.Hint) (Index, int, error) {
	groups := make(map[string]*group)
	var order []string
	for _, h := range all {
		g, ok := groups[h.Group]
		if !ok {
			g = &group{identity: h.Identity}
			groups[h.Group] = g
			order = append(order, h.Group)
		}
		switch h.Role {
		case models.HintReference:
			if h.Payload != nil {
				g.references = append(g.references, h.Payload)
			}
		case models.HintScope:
			if h.Scope != "" && !slices.Contains(g.scopes, h.Scope) {
				g.scopes = append(g.scopes, h.Scope)
			}
		}
	}

	var errs *errors.MultipleErrors
	index := make(Index)
	slices.Sort(order)
	for _, key := range order {
		g := groups[key]
		if len(g.references) != 1 || len(g.scopes) == 0 {
			errors.AddToMultiple(&errs, errors.NewMalformedHintError(g.identity.String(), key, len(g.references), len(g.scopes)))
			continue
		}

		c := *g.references[0]
		c.TargetScopes = slices.Clone(g.scopes)
		slices.Sort(c.TargetScopes)
		for _, scope := range c.TargetScopes {
			byKind, ok := index[scope]
			if !ok {
				byKind = make(map[models.Kind][]models.Contribution)
				index[scope] = byKind
			}
			byKind[c.Kind] = append(byKind[c.Kind], c)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, len(order), err
	}

	for _, byKind := range index {
		for kind := range byKind {
			models.SortContributions(byKind[kind])
		}
	}
	return index, len(order), nil
}
