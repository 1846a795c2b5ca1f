// Package discovery turns marked Go declarations into contributions, merge
// roots and factory contracts.
package discovery

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/toyz/meld/internal/annotations"
	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/symbols"
)

// Result is everything extracted from one Source
type Result struct {
	Contributions []models.Contribution
	Roots         []models.MergeRoot
	Factories     []models.FactoryContract
}

// HasContributions reports whether the source produced any contribution
func (r *Result) HasContributions() bool {
	return len(r.Contributions) > 0
}

// Extractor converts declarations from a Source
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger discards output.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// Extract walks every declaration of source. All declarations are visited;
// failures are collected and returned together.
func (e *Extractor) Extract(source symbols.Source) (*Result, error) {
	result := &Result{}
	var errs *errors.MultipleErrors
	var subcomponents []int

	for _, decl := range source.EnumerateDeclarations() {
		attrs, err := source.AttributesOf(decl)
		if err != nil {
			errors.AppendError(&errs, err)
			continue
		}
		if len(attrs) == 0 {
			continue
		}

		contributions, roots, factories, declErrs := e.extractDeclaration(source, decl, attrs)
		for _, err := range declErrs {
			errors.AddToMultiple(&errs, err)
		}

		for _, c := range collapse(contributions) {
			if c.Kind == models.KindSubcomponent {
				subcomponents = append(subcomponents, len(result.Contributions))
			}
			result.Contributions = append(result.Contributions, c)
		}
		result.Roots = append(result.Roots, roots...)
		result.Factories = append(result.Factories, factories...)
	}

	slices.SortFunc(result.Factories, func(a, b models.FactoryContract) int {
		return strings.Compare(string(a.Identity), string(b.Identity))
	})
	for _, i := range subcomponents {
		c := &result.Contributions[i]
		for _, f := range result.Factories {
			if f.Subcomponent == c.Identity {
				c.Subcomponent.Factories = append(c.Subcomponent.Factories, f)
			}
		}
	}

	e.logger.Debug("declarations extracted",
		"contributions", len(result.Contributions),
		"roots", len(result.Roots),
		"factories", len(result.Factories))

	if errs != nil && !errs.IsEmpty() {
		return result, errs
	}
	return result, nil
}

func (e *Extractor) extractDeclaration(source symbols.Source, decl *symbols.Declaration, attrs []*annotations.ParsedAnnotation) ([]models.Contribution, []models.MergeRoot, []models.FactoryContract, []errors.MeldError) {
	var (
		contributions []models.Contribution
		roots         []models.MergeRoot
		factories     []models.FactoryContract
		errs          []errors.MeldError
	)

	for _, attr := range attrs {
		loc := models.SourceLocation(attr.Location)

		if err := checkShape(decl, attr); err != nil {
			errs = append(errs, err)
			continue
		}

		target, err := decl.ResolveRef(attr.Target)
		if err != nil {
			errs = append(errs, refError(attr, "target", err))
			continue
		}

		switch attr.Type {
		case annotations.MergeAnnotation:
			if len(roots) > 0 {
				errs = append(errs, errors.NewValidationError("merge", "one merge marker per declaration", "several").
					WithLocation(errors.SourceLocation(loc)).
					WithContext("identity", decl.Identity.String()))
				continue
			}
			excludes, err := decl.ResolveRefs(attr.GetStringSlice("Excludes"))
			if err != nil {
				errs = append(errs, refError(attr, "Excludes", err))
				continue
			}
			roots = append(roots, models.MergeRoot{
				Identity:    decl.Identity,
				Scope:       models.ScopeOf(target),
				PackageName: decl.PackageName,
				Dir:         decl.Dir,
				Parameters:  decl.Fields,
				Excludes:    excludes,
				Location:    decl.Location,
			})

		case annotations.FactoryAnnotation:
			factories = append(factories, factoryContract(decl, target))

		default:
			c, err := e.contribution(source, decl, attr, target)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			c.Location = loc
			contributions = append(contributions, c)
		}
	}

	return contributions, roots, factories, errs
}

// contribution builds the contribution of one contributing marker
func (e *Extractor) contribution(source symbols.Source, decl *symbols.Declaration, attr *annotations.ParsedAnnotation, target models.Identity) (models.Contribution, errors.MeldError) {
	c := models.Contribution{
		Identity:     decl.Identity,
		TargetScopes: []models.Scope{models.ScopeOf(target)},
		ByPointer:    decl.ByPointer,
	}

	replaces, err := decl.ResolveRefs(attr.GetStringSlice("Replaces"))
	if err != nil {
		return c, refError(attr, "Replaces", err)
	}
	c.Replaces = replaces

	switch attr.Type {
	case annotations.ContributesAnnotation:
		c.Kind = models.KindModule

	case annotations.BindingAnnotation:
		c.Kind = models.KindBinding
		rank, err := models.ParseRank(attr.GetString("Rank"))
		if err != nil {
			return c, errors.NewValidationErrorWithValue("Rank", attr.GetString("Rank"), err.Error()).
				WithLocation(errors.SourceLocation(attr.Location))
		}
		c.Rank = rank
		c.Qualifier = attr.GetString("Named")
		bound, meldErr := boundType(source, decl, attr)
		if meldErr != nil {
			return c, meldErr
		}
		c.BoundType = bound

	case annotations.MultibindingAnnotation:
		c.Kind = models.KindMultibinding
		c.Qualifier = attr.GetString("Named")
		key, err := annotations.MapKeyOf(attr)
		if err != nil {
			return c, errors.NewValidationErrorWithValue("map key", attr.Raw, err.Error()).
				WithLocation(errors.SourceLocation(attr.Location))
		}
		c.MapKey = key
		bound, meldErr := boundType(source, decl, attr)
		if meldErr != nil {
			return c, meldErr
		}
		c.BoundType = bound

	case annotations.SubcomponentAnnotation:
		c.Kind = models.KindSubcomponent
		parent, err := decl.ResolveRef(attr.GetString("Parent"))
		if err != nil {
			return c, refError(attr, "Parent", err)
		}
		excludes, err := decl.ResolveRefs(attr.GetStringSlice("Excludes"))
		if err != nil {
			return c, refError(attr, "Excludes", err)
		}
		c.TargetScopes = []models.Scope{models.ScopeOf(parent)}
		c.Subcomponent = &models.SubcomponentSpec{
			OwnScope: models.ScopeOf(target),
			Excludes: excludes,
		}

	default:
		return c, errors.NewValidationError("marker", "a contributing marker", attr.Type.String()).
			WithLocation(errors.SourceLocation(attr.Location))
	}

	return c, nil
}

// requiredKind is the declaration kind each marker may be written on.
// Modules, subcomponents and factories become interface members or method
// sets of the container; bindings are instantiated as composite literals.
var requiredKind = map[annotations.AnnotationType]symbols.DeclKind{
	annotations.ContributesAnnotation:  symbols.DeclInterface,
	annotations.SubcomponentAnnotation: symbols.DeclInterface,
	annotations.FactoryAnnotation:      symbols.DeclInterface,
	annotations.BindingAnnotation:      symbols.DeclStruct,
	annotations.MultibindingAnnotation: symbols.DeclStruct,
}

func checkShape(decl *symbols.Declaration, attr *annotations.ParsedAnnotation) errors.MeldError {
	want, ok := requiredKind[attr.Type]
	if !ok || decl.Kind == want {
		return nil
	}
	marker := "//" + annotations.Prefix + attr.Type.String()
	return errors.NewValidationError("declaration for "+marker, article(want), decl.Kind.String()+" "+decl.Name).
		WithLocation(errors.SourceLocation(attr.Location)).
		WithContext("identity", decl.Identity.String()).
		WithSuggestion(fmt.Sprintf("Move %s to %s type", marker, article(want)))
}

func article(k symbols.DeclKind) string {
	if k == symbols.DeclInterface {
		return "an interface"
	}
	return "a " + k.String()
}

// boundType returns the explicit -Bound type or infers the single
// non-trivial supertype of decl.
func boundType(source symbols.Source, decl *symbols.Declaration, attr *annotations.ParsedAnnotation) (models.Identity, errors.MeldError) {
	if explicit := attr.GetString("Bound"); explicit != "" {
		id, err := decl.ResolveRef(explicit)
		if err != nil {
			return "", refError(attr, "Bound", err)
		}
		return id, nil
	}

	var candidates []string
	var named []models.Identity
	for _, ref := range source.SupertypesOf(decl) {
		candidates = append(candidates, ref.Expr)
		switch {
		case ref.Pointer:
		case !ref.Named.IsZero():
			named = append(named, ref.Named)
		case ref.Expr == "error":
			named = append(named, models.Identity("error"))
		}
	}
	if len(named) == 1 && len(candidates) == 1 {
		return named[0], nil
	}
	return "", errors.NewMissingSupertypeError(decl.Identity.String(), candidates, errors.SourceLocation(attr.Location))
}

func factoryContract(decl *symbols.Declaration, subcomponent models.Identity) models.FactoryContract {
	methods := make([]models.FactoryMethod, 0, len(decl.Methods))
	for _, m := range decl.Methods {
		methods = append(methods, models.FactoryMethod{
			Name:    m.Name,
			Params:  m.Params,
			Results: m.Results,
		})
	}
	return models.FactoryContract{
		Identity:     decl.Identity,
		Subcomponent: subcomponent,
		Methods:      methods,
		Location:     decl.Location,
	}
}

// collapse merges contributions of one declaration that differ only in
// their target scope.
func collapse(contributions []models.Contribution) []models.Contribution {
	var out []models.Contribution
	index := make(map[string]int)
	for _, c := range contributions {
		key := c.Key()
		if i, ok := index[key]; ok {
			for _, scope := range c.TargetScopes {
				if !out[i].TargetsScope(scope) {
					out[i].TargetScopes = append(out[i].TargetScopes, scope)
				}
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	for i := range out {
		slices.Sort(out[i].TargetScopes)
		slices.Sort(out[i].Replaces)
	}
	return out
}

func refError(attr *annotations.ParsedAnnotation, param string, err error) errors.MeldError {
	return errors.NewValidationErrorWithValue(param, attr.Raw, fmt.Sprintf("unresolvable type reference: %v", err)).
		WithLocation(errors.SourceLocation(attr.Location))
}
