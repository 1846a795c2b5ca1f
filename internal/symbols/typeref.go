package symbols

import (
	"fmt"
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"github.com/toyz/meld/internal/models"
)

// refContext carries what is needed to canonicalise a type expression
type refContext struct {
	pkgPath string
	pkgName string
	imports map[string]string // package name -> import path
}

// NamedRef builds the reference to a named type, optionally through a pointer
func NamedRef(id models.Identity, pointer bool) models.TypeRef {
	expr := id.String()
	if pointer {
		expr = "*" + expr
	}
	ref := models.TypeRef{Expr: expr, Named: id, Pointer: pointer}
	if path := id.PackagePath(); path != "" {
		ref.Imports = []models.Import{{Name: GuessPackageName(path), Path: path}}
	}
	return ref
}

// GuessPackageName returns the conventional package name of an import path
func GuessPackageName(path string) string {
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		if _, err := strconv.Atoi(name[i+2:]); err == nil {
			name = name[:i]
		}
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// typeRefOf canonicalises a type expression. Package qualifiers are replaced
// by full import paths so references compare equal across files.
func typeRefOf(expr ast.Expr, ctx refContext) (models.TypeRef, error) {
	var imports []models.Import
	seen := make(map[string]bool)
	addImport := func(name, path string) {
		if !seen[path] {
			seen[path] = true
			imports = append(imports, models.Import{Name: name, Path: path})
		}
	}

	text, err := writeExpr(expr, ctx, addImport)
	if err != nil {
		return models.TypeRef{}, err
	}

	ref := models.TypeRef{Expr: text, Imports: imports}
	base := expr
	if star, ok := base.(*ast.StarExpr); ok {
		base = star.X
		ref.Pointer = true
	}
	switch base.(type) {
	case *ast.Ident, *ast.SelectorExpr:
		named := strings.TrimPrefix(text, "*")
		if strings.Contains(named, ".") {
			ref.Named = models.Identity(named)
		}
	}
	if ref.Named.IsZero() {
		ref.Pointer = false
	}
	return ref, nil
}

func writeExpr(expr ast.Expr, ctx refContext, addImport func(name, path string)) (string, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		if obj := types.Universe.Lookup(t.Name); obj != nil {
			if _, isType := obj.(*types.TypeName); isType {
				return t.Name, nil
			}
		}
		if ctx.pkgPath == "" {
			return t.Name, nil
		}
		addImport(ctx.pkgName, ctx.pkgPath)
		return ctx.pkgPath + "." + t.Name, nil
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return "", fmt.Errorf("unsupported qualified type expression")
		}
		path, ok := ctx.imports[pkg.Name]
		if !ok {
			return "", fmt.Errorf("package %s is not imported", pkg.Name)
		}
		addImport(pkg.Name, path)
		return path + "." + t.Sel.Name, nil
	case *ast.StarExpr:
		inner, err := writeExpr(t.X, ctx, addImport)
		return "*" + inner, err
	case *ast.ParenExpr:
		return writeExpr(t.X, ctx, addImport)
	case *ast.ArrayType:
		elem, err := writeExpr(t.Elt, ctx, addImport)
		if err != nil {
			return "", err
		}
		if t.Len == nil {
			return "[]" + elem, nil
		}
		lit, ok := t.Len.(*ast.BasicLit)
		if !ok {
			return "", fmt.Errorf("array length must be a literal")
		}
		return "[" + lit.Value + "]" + elem, nil
	case *ast.Ellipsis:
		elem, err := writeExpr(t.Elt, ctx, addImport)
		return "..." + elem, err
	case *ast.MapType:
		key, err := writeExpr(t.Key, ctx, addImport)
		if err != nil {
			return "", err
		}
		value, err := writeExpr(t.Value, ctx, addImport)
		return "map[" + key + "]" + value, err
	case *ast.ChanType:
		value, err := writeExpr(t.Value, ctx, addImport)
		if err != nil {
			return "", err
		}
		switch t.Dir {
		case ast.SEND:
			return "chan<- " + value, nil
		case ast.RECV:
			return "<-chan " + value, nil
		default:
			return "chan " + value, nil
		}
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}", nil
		}
		return "", fmt.Errorf("inline interface types are not supported")
	case *ast.StructType:
		if t.Fields == nil || len(t.Fields.List) == 0 {
			return "struct{}", nil
		}
		return "", fmt.Errorf("inline struct types are not supported")
	case *ast.FuncType:
		return writeFunc(t, ctx, addImport)
	default:
		return "", fmt.Errorf("unsupported type expression %T", expr)
	}
}

func writeFunc(fn *ast.FuncType, ctx refContext, addImport func(name, path string)) (string, error) {
	var b strings.Builder
	b.WriteString("func(")
	params, err := fieldTypes(fn.Params, ctx, addImport)
	if err != nil {
		return "", err
	}
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(")")

	results, err := fieldTypes(fn.Results, ctx, addImport)
	if err != nil {
		return "", err
	}
	switch len(results) {
	case 0:
	case 1:
		b.WriteString(" " + results[0])
	default:
		b.WriteString(" (" + strings.Join(results, ", ") + ")")
	}
	return b.String(), nil
}

// fieldTypes flattens a field list into one type per name
func fieldTypes(list *ast.FieldList, ctx refContext, addImport func(name, path string)) ([]string, error) {
	if list == nil {
		return nil, nil
	}
	var out []string
	for _, field := range list.List {
		text, err := writeExpr(field.Type, ctx, addImport)
		if err != nil {
			return nil, err
		}
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, text)
		}
	}
	return out, nil
}

// isTrivialSupertype reports whether a supertype carries no contract
func isTrivialSupertype(ref models.TypeRef) bool {
	switch ref.Expr {
	case "any", "interface{}", "comparable":
		return true
	}
	return false
}
