package errors

import (
	"fmt"
	"slices"
	"strings"
)

// Conflicting is implemented by errors that name an offending contribution and
// the contributions it conflicts with.
type Conflicting interface {
	OffendingIdentity() string
	ConflictingIdentities() []string
}

// ContributionError is the common part of every merge error
type ContributionError struct {
	*BaseError
	Identity  string   // offending contribution or root
	Conflicts []string // every identity involved, sorted
}

func newContributionError(code ErrorCode, identity string, conflicts []string, loc SourceLocation, message string) *ContributionError {
	sorted := slices.Clone(conflicts)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	base := New(code, message).WithLocation(loc).WithContext("identity", identity)
	if len(sorted) > 0 {
		base.WithContext("conflicts", strings.Join(sorted, ", "))
	}
	return &ContributionError{
		BaseError: base,
		Identity:  identity,
		Conflicts: sorted,
	}
}

// OffendingIdentity returns the identity the error is reported against
func (e *ContributionError) OffendingIdentity() string {
	return e.Identity
}

// ConflictingIdentities returns all identities involved in the error
func (e *ContributionError) ConflictingIdentities() []string {
	return e.Conflicts
}

// MalformedHintError reports a hint group without exactly one reference hint
// or without any scope hint.
type MalformedHintError struct {
	*ContributionError
	Group      string
	References int
	Scopes     int
}

// NewMalformedHintError creates a malformed hint error for a hint group
func NewMalformedHintError(identity, group string, references, scopes int) *MalformedHintError {
	message := fmt.Sprintf("malformed hints for %s: expected exactly one reference and at least one scope hint, found %d reference(s) and %d scope hint(s)",
		identity, references, scopes)
	err := &MalformedHintError{
		ContributionError: newContributionError(MalformedHintErrorCode, identity, []string{identity}, SourceLocation{}, message),
		Group:             group,
		References:        references,
		Scopes:            scopes,
	}
	err.WithContext("group", group).
		WithSuggestion("Delete the hint directory and regenerate to rebuild hints from source")
	return err
}

// AmbiguousBindingError reports several bindings tied at the winning rank
type AmbiguousBindingError struct {
	*ContributionError
	BoundType string
	Qualifier string
	Rank      int
}

// NewAmbiguousBindingError creates an ambiguity error listing every tied binding
func NewAmbiguousBindingError(boundType, qualifier string, rank int, tied []string, loc SourceLocation) *AmbiguousBindingError {
	target := boundType
	if qualifier != "" {
		target = fmt.Sprintf("%s named %q", boundType, qualifier)
	}
	identity := ""
	if len(tied) > 0 {
		identity = slices.Min(tied)
	}
	message := fmt.Sprintf("ambiguous binding for %s: %d contributions share rank %d: %s",
		target, len(tied), rank, strings.Join(sortedCopy(tied), ", "))
	err := &AmbiguousBindingError{
		ContributionError: newContributionError(AmbiguousBindingErrorCode, identity, tied, loc, message),
		BoundType:         boundType,
		Qualifier:         qualifier,
		Rank:              rank,
	}
	err.WithSuggestions(
		"Give one binding a higher -Rank",
		"Declare -Replaces on the binding that should win",
		"Use -Named to bind them under different qualifiers",
	)
	return err
}

// DuplicateMapKeyError reports two multibindings with the same key in one collection
type DuplicateMapKeyError struct {
	*ContributionError
	Collection string
	Key        string
}

// NewDuplicateMapKeyError creates a duplicate key error
func NewDuplicateMapKeyError(collection, key string, entries []string, loc SourceLocation) *DuplicateMapKeyError {
	identity := ""
	if len(entries) > 0 {
		identity = slices.Min(entries)
	}
	message := fmt.Sprintf("duplicate map key %s in %s: %s", key, collection, strings.Join(sortedCopy(entries), ", "))
	err := &DuplicateMapKeyError{
		ContributionError: newContributionError(DuplicateMapKeyErrorCode, identity, entries, loc, message),
		Collection:        collection,
		Key:               key,
	}
	err.WithSuggestion("Change one of the keys or replace one multibinding with the other")
	return err
}

// MalformedFactoryError reports a subcomponent factory that cannot be used
type MalformedFactoryError struct {
	*ContributionError
	Subcomponent string
	Factory      string
	Reason       string
}

// NewMalformedFactoryError creates a malformed factory error
func NewMalformedFactoryError(subcomponent, factory, reason string, loc SourceLocation) *MalformedFactoryError {
	conflicts := []string{subcomponent}
	if factory != "" {
		conflicts = append(conflicts, factory)
	}
	message := fmt.Sprintf("malformed factory for subcomponent %s: %s", subcomponent, reason)
	err := &MalformedFactoryError{
		ContributionError: newContributionError(MalformedFactoryErrorCode, subcomponent, conflicts, loc, message),
		Subcomponent:      subcomponent,
		Factory:           factory,
		Reason:            reason,
	}
	err.WithSuggestion("Declare exactly one //meld::factory interface with a single method returning the subcomponent")
	return err
}

// ExplicitParentParameterError reports a factory that takes its parent container as a parameter
type ExplicitParentParameterError struct {
	*ContributionError
	Factory    string
	Parameter  string
	ParentType string
}

// NewExplicitParentParameterError creates an explicit parent parameter error
func NewExplicitParentParameterError(subcomponent, factory, parameter, parentType string, loc SourceLocation) *ExplicitParentParameterError {
	message := fmt.Sprintf("factory %s for subcomponent %s takes its parent %s as parameter %q; the parent is injected automatically",
		factory, subcomponent, parentType, parameter)
	err := &ExplicitParentParameterError{
		ContributionError: newContributionError(ExplicitParentParameterErrorCode, subcomponent, []string{subcomponent, factory, parentType}, loc, message),
		Factory:           factory,
		Parameter:         parameter,
		ParentType:        parentType,
	}
	err.WithSuggestion(fmt.Sprintf("Remove parameter %q from the factory method", parameter))
	return err
}

// UnresolvedMergeError reports merge roots that stay deferred without progress
type UnresolvedMergeError struct {
	*ContributionError
	Generation int
	Deferred   []string
}

// NewUnresolvedMergeError creates an unresolved merge error for the deferred roots
func NewUnresolvedMergeError(generation int, deferred []string) *UnresolvedMergeError {
	sorted := sortedCopy(deferred)
	identity := ""
	if len(sorted) > 0 {
		identity = sorted[0]
	}
	message := fmt.Sprintf("merge roots still deferred after generation %d with no new contributions: %s",
		generation, strings.Join(sorted, ", "))
	err := &UnresolvedMergeError{
		ContributionError: newContributionError(UnresolvedMergeErrorCode, identity, sorted, SourceLocation{}, message),
		Generation:        generation,
		Deferred:          sorted,
	}
	err.WithContext("generation", generation)
	return err
}

// MissingSupertypeError reports a binding whose bound type cannot be inferred
type MissingSupertypeError struct {
	*ContributionError
	Candidates []string
}

// NewMissingSupertypeError creates a missing supertype error
func NewMissingSupertypeError(identity string, candidates []string, loc SourceLocation) *MissingSupertypeError {
	var message string
	if len(candidates) == 0 {
		message = fmt.Sprintf("cannot infer bound type of %s: it declares no supertype", identity)
	} else {
		message = fmt.Sprintf("cannot infer bound type of %s: it has %d supertypes: %s",
			identity, len(candidates), strings.Join(sortedCopy(candidates), ", "))
	}
	err := &MissingSupertypeError{
		ContributionError: newContributionError(MissingSupertypeErrorCode, identity, append([]string{identity}, candidates...), loc, message),
		Candidates:        sortedCopy(candidates),
	}
	err.WithSuggestion("Set the bound type explicitly with -Bound=<Interface>")
	return err
}

// ScopeCycleError reports a subcomponent chain that re-enters a scope
type ScopeCycleError struct {
	*ContributionError
	Path []string
}

// NewScopeCycleError creates a scope cycle error for the given scope path
func NewScopeCycleError(subcomponent string, path []string, loc SourceLocation) *ScopeCycleError {
	message := fmt.Sprintf("subcomponent %s creates a scope cycle: %s", subcomponent, strings.Join(path, " -> "))
	return &ScopeCycleError{
		ContributionError: newContributionError(ScopeCycleErrorCode, subcomponent, append([]string{subcomponent}, path...), loc, message),
		Path:              slices.Clone(path),
	}
}

func sortedCopy(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
