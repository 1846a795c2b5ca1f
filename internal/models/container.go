package models

// BindingKey groups bindings that compete for the same slot
type BindingKey struct {
	BoundType Identity
	Qualifier string
}

func (k BindingKey) String() string {
	if k.Qualifier == "" {
		return string(k.BoundType)
	}
	return string(k.BoundType) + "@" + k.Qualifier
}

// CollectionKey identifies one multibinding collection. An empty MapKeyType
// means the collection is a set.
type CollectionKey struct {
	BoundType  Identity
	Qualifier  string
	MapKeyType MapKeyType
}

// IsMap reports whether the collection is keyed
func (k CollectionKey) IsMap() bool {
	return k.MapKeyType != ""
}

func (k CollectionKey) String() string {
	s := string(k.BoundType)
	if k.Qualifier != "" {
		s += "@" + k.Qualifier
	}
	if k.IsMap() {
		return "map[" + string(k.MapKeyType) + "]" + s
	}
	return "set[" + s + "]"
}

// ResolvedBinding is the single survivor of a binding group
type ResolvedBinding struct {
	Key          BindingKey
	Contribution Contribution
}

// Collection is the set of surviving multibindings for one collection key
type Collection struct {
	Key     CollectionKey
	Entries []Contribution
}

// ParentRef is the back-reference a child container keeps to its parent
type ParentRef struct {
	Scope       Scope
	Declaration Identity
}

// ChildContainer is a composed subcomponent together with the factory that creates it
type ChildContainer struct {
	Subcomponent Contribution
	Factory      FactoryContract
	Method       FactoryMethod
	Container    *ComposedContainer
}

// ComposedContainer is the resolved, ready to emit aggregate for one scope.
// It is built once per composition and never mutated afterwards.
type ComposedContainer struct {
	Scope         Scope
	Declaration   Identity   // merge root or subcomponent declaration, empty for a bare scope
	IsRoot        bool
	Parent        *ParentRef // nil for roots
	Parameters    []Parameter
	Excludes      []Identity
	Modules       []Contribution
	Bindings      []ResolvedBinding
	Multibindings []Collection
	Children      []ChildContainer
}

// IsEmpty reports whether no contribution survived for the scope
func (c *ComposedContainer) IsEmpty() bool {
	return len(c.Modules) == 0 && len(c.Bindings) == 0 && len(c.Multibindings) == 0 && len(c.Children) == 0
}

// Binding returns the surviving binding for key, if any
func (c *ComposedContainer) Binding(key BindingKey) (Contribution, bool) {
	for _, b := range c.Bindings {
		if b.Key == key {
			return b.Contribution, true
		}
	}
	return Contribution{}, false
}

// Collection returns the multibinding collection for key, if any
func (c *ComposedContainer) Collection(key CollectionKey) (Collection, bool) {
	for _, col := range c.Multibindings {
		if col.Key == key {
			return col, true
		}
	}
	return Collection{}, false
}

// Walk visits the container and its descendants in pre-order
func (c *ComposedContainer) Walk(fn func(node *ComposedContainer, depth int) error) error {
	return c.walk(fn, 0)
}

func (c *ComposedContainer) walk(fn func(*ComposedContainer, int) error, depth int) error {
	if err := fn(c, depth); err != nil {
		return err
	}
	for _, child := range c.Children {
		if err := child.Container.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the tree
func (c *ComposedContainer) Count() int {
	n := 0
	_ = c.Walk(func(*ComposedContainer, int) error {
		n++
		return nil
	})
	return n
}
