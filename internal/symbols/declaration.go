// Package symbols exposes Go type declarations, their //meld:: markers and
// their declared supertypes to the contribution extractor.
package symbols

import (
	"fmt"
	"strings"

	"github.com/toyz/meld/internal/annotations"
	"github.com/toyz/meld/internal/models"
)

// DeclKind classifies the underlying type of a declaration
type DeclKind int

const (
	DeclOther DeclKind = iota
	DeclInterface
	DeclStruct
)

func (k DeclKind) String() string {
	switch k {
	case DeclInterface:
		return "interface"
	case DeclStruct:
		return "struct"
	default:
		return "other"
	}
}

// Method is an interface method signature
type Method struct {
	Name    string
	Params  []models.Parameter
	Results []models.TypeRef
}

// Declaration is a named type declared at package level
type Declaration struct {
	Identity    models.Identity
	Name        string
	PackagePath string
	PackageName string
	Dir         string
	Kind        DeclKind
	Location    models.SourceLocation
	Markers     []string           // marker lines of the doc comment
	Methods     []Method           // interface methods, in declaration order
	Fields      []models.Parameter // exported struct fields
	ByPointer   bool               // implementation is used as *T

	docLocs []models.SourceLocation // position of each marker line
	imports map[string]string       // file scope: package name -> import path
}

// Source enumerates declarations and answers marker and supertype queries
type Source interface {
	EnumerateDeclarations() []*Declaration
	AttributesOf(decl *Declaration) ([]*annotations.ParsedAnnotation, error)
	SupertypesOf(decl *Declaration) []models.TypeRef
}

// ResolveRef resolves a marker type reference (Name or pkg.Name) against the
// imports of the file that declares d.
func (d *Declaration) ResolveRef(ref string) (models.Identity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty type reference")
	}

	pkg, name, qualified := strings.Cut(ref, ".")
	if !qualified {
		return models.NewIdentity(d.PackagePath, ref), nil
	}
	if pkg == d.PackageName {
		if _, shadowed := d.imports[pkg]; !shadowed {
			return models.NewIdentity(d.PackagePath, name), nil
		}
	}

	path, ok := d.imports[pkg]
	if !ok {
		return "", fmt.Errorf("type reference %s uses package %s which is not imported by %s", ref, pkg, d.Location.File)
	}
	return models.NewIdentity(path, name), nil
}

// ResolveRefs resolves every reference or returns the first failure
func (d *Declaration) ResolveRefs(refs []string) ([]models.Identity, error) {
	ids := make([]models.Identity, 0, len(refs))
	for _, ref := range refs {
		id, err := d.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TypeRef returns the reference to the declared type itself
func (d *Declaration) TypeRef() models.TypeRef {
	return NamedRef(d.Identity, false)
}
