// Package composer builds the container tree of a scope from the resolved
// contributions of the scope and of every nested subcomponent scope.
package composer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/resolver"
)

// ContributionFinder is the query side of the contribution scanner
type ContributionFinder interface {
	FindContributions(scope models.Scope, kind models.Kind) ([]models.Contribution, error)
}

// Composer assembles ComposedContainer trees
type Composer struct {
	finder ContributionFinder
	logger *slog.Logger
}

// New creates a composer reading contributions from finder.
// A nil logger discards output.
func New(finder ContributionFinder, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{finder: finder, logger: logger}
}

// node carries what a container inherits from the path that led to it
type node struct {
	scope       models.Scope
	declaration models.Identity
	isRoot      bool
	parent      *models.ParentRef
	parameters  []models.Parameter
	excludes    resolver.IdentitySet
	path        []models.Scope
}

// Compose builds the container of a bare scope. A container composed
// directly never has a parent reference; nested containers get theirs from
// the subcomponent that creates them.
func (c *Composer) Compose(scope models.Scope, isRoot bool) (*models.ComposedContainer, error) {
	return c.compose(node{
		scope:    scope,
		isRoot:   isRoot,
		excludes: resolver.NewIdentitySet(),
		path:     []models.Scope{scope},
	})
}

// ComposeRoot builds the container tree requested by a merge root. The
// root's excludes apply to every container of the tree.
func (c *Composer) ComposeRoot(root models.MergeRoot) (*models.ComposedContainer, error) {
	container, err := c.compose(node{
		scope:       root.Scope,
		declaration: root.Identity,
		isRoot:      true,
		parameters:  root.Parameters,
		excludes:    resolver.NewIdentitySet(root.Excludes...),
		path:        []models.Scope{root.Scope},
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("merge root composed",
		"root", root.Identity,
		"scope", root.Scope,
		"containers", container.Count())
	return container, nil
}

func (c *Composer) compose(n node) (*models.ComposedContainer, error) {
	var candidates resolver.Candidates
	for _, kind := range models.AllKinds {
		found, err := c.finder.FindContributions(n.scope, kind)
		if err != nil {
			return nil, err
		}
		switch kind {
		case models.KindModule:
			candidates.Modules = found
		case models.KindBinding:
			candidates.Bindings = found
		case models.KindMultibinding:
			candidates.Multibindings = found
		case models.KindSubcomponent:
			candidates.Subcomponents = found
		}
	}

	resolution, err := resolver.Resolve(candidates, n.excludes)
	if err != nil {
		return nil, err
	}

	container := &models.ComposedContainer{
		Scope:         n.scope,
		Declaration:   n.declaration,
		IsRoot:        n.isRoot,
		Parent:        n.parent,
		Parameters:    slices.Clone(n.parameters),
		Excludes:      n.excludes.Sorted(),
		Modules:       resolution.Modules,
		Bindings:      resolution.Bindings,
		Multibindings: resolution.Multibindings,
	}

	var errs *errors.MultipleErrors
	for _, sub := range resolution.Subcomponents {
		child, err := c.child(n, sub)
		if err != nil {
			errors.AppendError(&errs, err)
			continue
		}
		container.Children = append(container.Children, *child)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	c.logger.Debug("scope composed",
		"scope", n.scope,
		"modules", len(container.Modules),
		"bindings", len(container.Bindings),
		"multibindings", len(container.Multibindings),
		"children", len(container.Children))
	return container, nil
}

// child validates the factory of sub and composes its own scope
func (c *Composer) child(parent node, sub models.Contribution) (*models.ChildContainer, error) {
	spec := sub.Subcomponent
	loc := errors.SourceLocation(sub.Location)
	if spec == nil {
		return nil, errors.NewMalformedFactoryError(sub.Identity.String(), "", "subcomponent carries no scope", loc)
	}

	factory, method, err := factoryOf(sub, parent)
	if err != nil {
		return nil, err
	}

	if slices.Contains(parent.path, spec.OwnScope) {
		path := make([]string, 0, len(parent.path)+1)
		for _, s := range parent.path {
			path = append(path, s.String())
		}
		path = append(path, spec.OwnScope.String())
		return nil, errors.NewScopeCycleError(sub.Identity.String(), path, loc)
	}

	excludes := resolver.NewIdentitySet(spec.Excludes...)
	for id := range parent.excludes {
		excludes[id] = struct{}{}
	}

	container, err := c.compose(node{
		scope:       spec.OwnScope,
		declaration: sub.Identity,
		parent:      &models.ParentRef{Scope: parent.scope, Declaration: parent.declaration},
		parameters:  method.Params,
		excludes:    excludes,
		path:        append(slices.Clone(parent.path), spec.OwnScope),
	})
	if err != nil {
		return nil, err
	}

	return &models.ChildContainer{
		Subcomponent: sub,
		Factory:      factory,
		Method:       method,
		Container:    container,
	}, nil
}

// factoryOf returns the single factory and creation method of sub. The
// method must return the subcomponent and must not take the parent.
func factoryOf(sub models.Contribution, parent node) (models.FactoryContract, models.FactoryMethod, error) {
	spec := sub.Subcomponent
	id := sub.Identity.String()
	loc := errors.SourceLocation(sub.Location)

	switch len(spec.Factories) {
	case 0:
		return models.FactoryContract{}, models.FactoryMethod{}, errors.NewMalformedFactoryError(id, "", "no factory is declared", loc)
	case 1:
	default:
		names := make([]string, 0, len(spec.Factories))
		for _, f := range spec.Factories {
			names = append(names, f.Identity.String())
		}
		err := errors.NewMalformedFactoryError(id, spec.Factories[0].Identity.String(),
			fmt.Sprintf("%d factories are declared", len(spec.Factories)), loc)
		err.Conflicts = append(err.Conflicts, names...)
		slices.Sort(err.Conflicts)
		err.Conflicts = slices.Compact(err.Conflicts)
		return models.FactoryContract{}, models.FactoryMethod{}, err
	}

	factory := spec.Factories[0]
	floc := errors.SourceLocation(factory.Location)
	if len(factory.Methods) != 1 {
		return factory, models.FactoryMethod{}, errors.NewMalformedFactoryError(id, factory.Identity.String(),
			fmt.Sprintf("factory declares %d creation methods, expected exactly one", len(factory.Methods)), floc)
	}

	method := factory.Methods[0]
	if len(method.Results) != 1 || method.Results[0].Pointer || method.Results[0].Named != sub.Identity {
		got := "nothing"
		if len(method.Results) > 0 {
			got = method.Results[0].Expr
			for _, r := range method.Results[1:] {
				got += ", " + r.Expr
			}
		}
		return factory, method, errors.NewMalformedFactoryError(id, factory.Identity.String(),
			fmt.Sprintf("method %s returns %s, expected %s", method.Name, got, id), floc)
	}

	for _, p := range method.Params {
		named := p.Type.Named
		if named.IsZero() {
			continue
		}
		if (!parent.declaration.IsZero() && named == parent.declaration) || named == parent.scope.Identity() {
			return factory, method, errors.NewExplicitParentParameterError(id, factory.Identity.String(), p.Name, named.String(), floc)
		}
	}
	return factory, method, nil
}
