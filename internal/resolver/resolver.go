// Package resolver applies the replace and rank policy to the contributions
// of one scope. Every function is pure: the result depends only on the
// candidate set, never on its order.
package resolver

import (
	"cmp"
	"slices"
	"strings"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
)

// IdentitySet is a set of contribution identities
type IdentitySet map[models.Identity]struct{}

// NewIdentitySet builds a set from ids
func NewIdentitySet(ids ...models.Identity) IdentitySet {
	set := make(IdentitySet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set
func (s IdentitySet) Has(id models.Identity) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in order
func (s IdentitySet) Sorted() []models.Identity {
	ids := make([]models.Identity, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Candidates is everything the scanner found for one scope
type Candidates struct {
	Modules       []models.Contribution
	Bindings      []models.Contribution
	Multibindings []models.Contribution
	Subcomponents []models.Contribution
}

// All returns every candidate regardless of kind
func (c Candidates) All() []models.Contribution {
	all := make([]models.Contribution, 0, len(c.Modules)+len(c.Bindings)+len(c.Multibindings)+len(c.Subcomponents))
	all = append(all, c.Modules...)
	all = append(all, c.Bindings...)
	all = append(all, c.Multibindings...)
	return append(all, c.Subcomponents...)
}

// Resolution is the surviving contribution set of one scope
type Resolution struct {
	Modules       []models.Contribution
	Bindings      []models.ResolvedBinding
	Multibindings []models.Collection
	Subcomponents []models.Contribution
	Replaced      []models.Identity
	Excluded      []models.Identity
}

// Replaced returns the identities replaced by any module, binding or
// multibinding among candidates. Replace is cross-kind among these three.
func Replaced(candidates []models.Contribution) IdentitySet {
	set := make(IdentitySet)
	for _, c := range candidates {
		if !c.Kind.Replaceable() {
			continue
		}
		for _, id := range c.Replaces {
			set[id] = struct{}{}
		}
	}
	return set
}

// ReplacedSubcomponents returns the identities replaced by subcomponents.
// A subcomponent can only replace another subcomponent.
func ReplacedSubcomponents(candidates []models.Contribution) IdentitySet {
	set := make(IdentitySet)
	for _, c := range candidates {
		if c.Kind != models.KindSubcomponent {
			continue
		}
		for _, id := range c.Replaces {
			set[id] = struct{}{}
		}
	}
	return set
}

// Exclude drops every candidate whose identity is in excludes
func Exclude(candidates []models.Contribution, excludes IdentitySet) []models.Contribution {
	if len(excludes) == 0 {
		return candidates
	}
	out := make([]models.Contribution, 0, len(candidates))
	for _, c := range candidates {
		if !excludes.Has(c.Identity) {
			out = append(out, c)
		}
	}
	return out
}

// survivors drops replaced candidates and orders the rest deterministically
func survivors(candidates []models.Contribution, replaced IdentitySet) []models.Contribution {
	out := make([]models.Contribution, 0, len(candidates))
	for _, c := range candidates {
		if !replaced.Has(c.Identity) {
			out = append(out, c)
		}
	}
	models.SortContributions(out)
	return out
}

// ResolveBinding picks the single binding for key. Replaced bindings never
// survive, whatever their rank. No survivor yields nil without error; several
// survivors keep the highest rank, and a tie at that rank is ambiguous.
func ResolveBinding(key models.BindingKey, candidates []models.Contribution, replaced IdentitySet) (*models.Contribution, error) {
	left := survivors(candidates, replaced)
	switch len(left) {
	case 0:
		return nil, nil
	case 1:
		return &left[0], nil
	}

	top := slices.MaxFunc(left, func(a, b models.Contribution) int {
		return cmp.Compare(a.Rank, b.Rank)
	}).Rank
	var tied []models.Contribution
	for _, c := range left {
		if c.Rank == top {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return &tied[0], nil
	}

	ids := make([]string, 0, len(tied))
	for _, c := range tied {
		ids = append(ids, c.Identity.String())
	}
	return nil, errors.NewAmbiguousBindingError(key.BoundType.String(), key.Qualifier, int(top), ids, errors.SourceLocation(tied[0].Location))
}

// ResolveBindings groups bindings by (bound type, qualifier) and resolves
// every group. Groups without a survivor are left out.
func ResolveBindings(candidates []models.Contribution, replaced IdentitySet) ([]models.ResolvedBinding, error) {
	groups := make(map[models.BindingKey][]models.Contribution)
	for _, c := range candidates {
		key := models.BindingKey{BoundType: c.BoundType, Qualifier: c.Qualifier}
		groups[key] = append(groups[key], c)
	}

	keys := make([]models.BindingKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareBindingKeys)

	var resolved []models.ResolvedBinding
	var errs *errors.MultipleErrors
	for _, key := range keys {
		winner, err := ResolveBinding(key, groups[key], replaced)
		if err != nil {
			errors.AppendError(&errs, err)
			continue
		}
		if winner != nil {
			resolved = append(resolved, models.ResolvedBinding{Key: key, Contribution: *winner})
		}
	}
	return resolved, errs.ErrorOrNil()
}

// ResolveModules keeps every module that is not replaced
func ResolveModules(candidates []models.Contribution, replaced IdentitySet) []models.Contribution {
	return survivors(candidates, replaced)
}

// ResolveMultibindings keeps every multibinding that is not replaced and
// groups them into collections by (bound type, qualifier, map key type).
// Two entries of one map collection may not share a key. The qualifier is
// part of the collection key, so equal keys under different qualifiers live
// in different maps.
func ResolveMultibindings(candidates []models.Contribution, replaced IdentitySet) ([]models.Collection, error) {
	groups := make(map[models.CollectionKey][]models.Contribution)
	for _, c := range survivors(candidates, replaced) {
		key := models.CollectionKey{BoundType: c.BoundType, Qualifier: c.Qualifier}
		if c.MapKey != nil {
			key.MapKeyType = c.MapKey.Type
		}
		groups[key] = append(groups[key], c)
	}

	keys := make([]models.CollectionKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareCollectionKeys)

	var collections []models.Collection
	var errs *errors.MultipleErrors
	for _, key := range keys {
		entries := groups[key]
		if key.IsMap() {
			if err := checkMapKeys(key, entries); err != nil {
				errors.AddToMultiple(&errs, err)
				continue
			}
		}
		collections = append(collections, models.Collection{Key: key, Entries: entries})
	}
	return collections, errs.ErrorOrNil()
}

func checkMapKeys(key models.CollectionKey, entries []models.Contribution) errors.MeldError {
	byLiteral := make(map[string][]models.Contribution)
	var literals []string
	for _, c := range entries {
		if _, ok := byLiteral[c.MapKey.Literal]; !ok {
			literals = append(literals, c.MapKey.Literal)
		}
		byLiteral[c.MapKey.Literal] = append(byLiteral[c.MapKey.Literal], c)
	}
	slices.Sort(literals)

	for _, literal := range literals {
		dups := byLiteral[literal]
		if len(dups) < 2 {
			continue
		}
		ids := make([]string, 0, len(dups))
		for _, c := range dups {
			ids = append(ids, c.Identity.String())
		}
		return errors.NewDuplicateMapKeyError(key.String(), dups[0].MapKey.GoLiteral(), ids, errors.SourceLocation(dups[0].Location))
	}
	return nil
}

// ResolveSubcomponents keeps every subcomponent not replaced by another
// subcomponent.
func ResolveSubcomponents(candidates []models.Contribution, replaced IdentitySet) []models.Contribution {
	return survivors(candidates, replaced)
}

// Resolve runs the whole policy over the candidates of one scope. Excluded
// identities are dropped first and their own replaces are ignored.
func Resolve(candidates Candidates, excludes IdentitySet) (*Resolution, error) {
	c := Candidates{
		Modules:       Exclude(candidates.Modules, excludes),
		Bindings:      Exclude(candidates.Bindings, excludes),
		Multibindings: Exclude(candidates.Multibindings, excludes),
		Subcomponents: Exclude(candidates.Subcomponents, excludes),
	}

	replaced := Replaced(c.All())
	replacedSubs := ReplacedSubcomponents(c.Subcomponents)

	res := &Resolution{
		Modules:       ResolveModules(c.Modules, replaced),
		Subcomponents: ResolveSubcomponents(c.Subcomponents, replacedSubs),
	}

	var errs *errors.MultipleErrors
	bindings, err := ResolveBindings(c.Bindings, replaced)
	errors.AppendError(&errs, err)
	res.Bindings = bindings

	collections, err := ResolveMultibindings(c.Multibindings, replaced)
	errors.AppendError(&errs, err)
	res.Multibindings = collections

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	all := NewIdentitySet()
	for id := range replaced {
		all[id] = struct{}{}
	}
	for id := range replacedSubs {
		all[id] = struct{}{}
	}
	res.Replaced = all.Sorted()
	for _, cand := range candidates.All() {
		if excludes.Has(cand.Identity) && !slices.Contains(res.Excluded, cand.Identity) {
			res.Excluded = append(res.Excluded, cand.Identity)
		}
	}
	slices.Sort(res.Excluded)
	return res, nil
}

func compareBindingKeys(a, b models.BindingKey) int {
	if n := strings.Compare(string(a.BoundType), string(b.BoundType)); n != 0 {
		return n
	}
	return strings.Compare(a.Qualifier, b.Qualifier)
}

func compareCollectionKeys(a, b models.CollectionKey) int {
	if n := strings.Compare(string(a.BoundType), string(b.BoundType)); n != 0 {
		return n
	}
	if n := strings.Compare(a.Qualifier, b.Qualifier); n != 0 {
		return n
	}
	return strings.Compare(string(a.MapKeyType), string(b.MapKeyType))
}
