package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// variantNamespace seeds the digests that tell apart markers of one declaration
var variantNamespace = uuid.MustParse("6f1c1b5e-2f44-4d8e-9c61-1d0a7c3e5b90")

// Import is a package referenced by a type expression
type Import struct {
	Name string // package name used in the expression
	Path string // import path
}

// TypeRef is a Go type expression in canonical form. Package qualified names are
// written with their full import path ("*net/http.Client"), the same way
// go/types prints types without a qualifier.
type TypeRef struct {
	Expr    string   // canonical expression
	Named   Identity // the named type when Expr is T or *T
	Pointer bool     // Expr is *Named
	Imports []Import // packages referenced by Expr
}

func (t TypeRef) String() string {
	return t.Expr
}

// Render writes the expression with every import path replaced by the
// qualifier returned for it. An empty qualifier drops the package prefix.
func (t TypeRef) Render(qualifier func(path string) string) string {
	if len(t.Imports) == 0 {
		return t.Expr
	}
	paths := make([]string, 0, len(t.Imports))
	for _, imp := range t.Imports {
		paths = append(paths, imp.Path)
	}
	// longer paths first so a path never matches inside a longer one
	slices.SortFunc(paths, func(a, b string) int { return len(b) - len(a) })

	pairs := make([]string, 0, 2*len(paths))
	for _, path := range paths {
		q := qualifier(path)
		if q != "" {
			q += "."
		}
		pairs = append(pairs, path+".", q)
	}
	return strings.NewReplacer(pairs...).Replace(t.Expr)
}

// Parameter is one constructor or factory parameter
type Parameter struct {
	Name string
	Type TypeRef
}

// SubcomponentSpec is the payload of a Subcomponent contribution. The parent
// scope of the subcomponent is the scope it is contributed to.
type SubcomponentSpec struct {
	OwnScope  Scope             // scope resolved inside the child container
	Factories []FactoryContract // factory interfaces declared for the subcomponent
	Excludes  []Identity        // contributions dropped from the child tree
}

// FactoryMethod is one creation operation of a factory contract
type FactoryMethod struct {
	Name    string
	Params  []Parameter
	Results []TypeRef
}

// FactoryContract is the interface used to create a subcomponent from its parent
type FactoryContract struct {
	Identity     Identity
	Subcomponent Identity // the subcomponent the factory was declared for
	Methods      []FactoryMethod
	Location     SourceLocation
}

// Contribution is one declaration opting into one or more scopes.
// Kind selects which of the optional fields are meaningful.
type Contribution struct {
	Identity     Identity
	Kind         Kind
	TargetScopes []Scope
	BoundType    Identity          // Binding and Multibinding
	Qualifier    string            // optional, Binding and Multibinding
	MapKey       *MapKey           // Multibinding only
	Replaces     []Identity        // contributions this one supersedes
	Rank         Rank              // Binding only
	ByPointer    bool              // the implementation is provided as *T
	Subcomponent *SubcomponentSpec // Subcomponent only
	Location     SourceLocation
}

// TargetsScope reports whether the contribution applies to scope
func (c Contribution) TargetsScope(scope Scope) bool {
	return slices.Contains(c.TargetScopes, scope)
}

// ParentScopes returns the scopes a subcomponent is nested under
func (c Contribution) ParentScopes() []Scope {
	if c.Kind != KindSubcomponent {
		return nil
	}
	return c.TargetScopes
}

// Key returns the hint group key of the contribution. Contributions of the same
// declaration and kind that carry different parameters get different keys.
func (c Contribution) Key() string {
	return fmt.Sprintf("%s#%s#%s", c.Identity, c.Kind, c.variant())
}

// variant digests every field except target scopes and location
func (c Contribution) variant() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bound=%s;named=%s;rank=%d;ptr=%t;", c.BoundType, c.Qualifier, c.Rank, c.ByPointer)
	if c.MapKey != nil {
		fmt.Fprintf(&b, "key=%s;", c.MapKey)
	}
	b.WriteString("replaces=" + joinSorted(c.Replaces) + ";")
	if c.Subcomponent != nil {
		fmt.Fprintf(&b, "own=%s;excludes=%s;", c.Subcomponent.OwnScope, joinSorted(c.Subcomponent.Excludes))
		for _, f := range c.Subcomponent.Factories {
			fmt.Fprintf(&b, "factory=%s(", f.Identity)
			for _, m := range f.Methods {
				fmt.Fprintf(&b, "%s:", m.Name)
				for _, p := range m.Params {
					fmt.Fprintf(&b, "%s %s,", p.Name, p.Type.Expr)
				}
				for _, r := range m.Results {
					fmt.Fprintf(&b, "->%s", r.Expr)
				}
			}
			b.WriteString(");")
		}
	}
	return uuid.NewSHA1(variantNamespace, []byte(b.String())).String()[:8]
}

// Describe returns a short human readable form used in diagnostics
func (c Contribution) Describe() string {
	switch c.Kind {
	case KindBinding, KindMultibinding:
		s := fmt.Sprintf("%s %s as %s", c.Kind, c.Identity, c.BoundType)
		if c.Qualifier != "" {
			s += fmt.Sprintf(" named %q", c.Qualifier)
		}
		if c.MapKey != nil {
			s += " key " + c.MapKey.String()
		}
		return s
	case KindSubcomponent:
		if c.Subcomponent != nil {
			return fmt.Sprintf("subcomponent %s (scope %s)", c.Identity, c.Subcomponent.OwnScope)
		}
	}
	return fmt.Sprintf("%s %s", c.Kind, c.Identity)
}

// Identities returns the identities of contributions in order
func Identities(contributions []Contribution) []Identity {
	ids := make([]Identity, 0, len(contributions))
	for _, c := range contributions {
		ids = append(ids, c.Identity)
	}
	return ids
}

// SortContributions orders contributions by identity, then by hint key
func SortContributions(contributions []Contribution) {
	slices.SortFunc(contributions, func(a, b Contribution) int {
		if n := strings.Compare(string(a.Identity), string(b.Identity)); n != 0 {
			return n
		}
		return strings.Compare(a.Key(), b.Key())
	})
}

// MergeRoot is a declaration requesting a fully composed container for a scope
type MergeRoot struct {
	Identity    Identity
	Scope       Scope
	PackageName string
	Dir         string
	Parameters  []Parameter // exported fields when the root is a struct
	Excludes    []Identity
	Location    SourceLocation
}

func joinSorted(ids []Identity) string {
	s := make([]string, 0, len(ids))
	for _, id := range ids {
		s = append(s, string(id))
	}
	slices.Sort(s)
	return strings.Join(s, ",")
}
