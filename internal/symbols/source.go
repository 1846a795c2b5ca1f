package symbols

import (
	"go/ast"
	"go/token"
	"strconv"
	"sync"

	"github.com/toyz/meld/internal/annotations"
	"github.com/toyz/meld/internal/models"
)

// Package is one parsed Go package directory
type Package struct {
	Path  string // import path
	Name  string
	Dir   string
	Files []*ast.File
}

// PackageSource is a Source over a set of parsed packages
type PackageSource struct {
	decls      []*Declaration
	supertypes map[models.Identity][]models.TypeRef
	parser     *annotations.Parser

	mu      sync.Mutex
	markers map[models.Identity][]*annotations.ParsedAnnotation
}

type typeSpecItem struct {
	decl *Declaration
	spec *ast.TypeSpec
	ctx  refContext
}

// assertion is a `var _ I = (*T)(nil)` style interface assertion
type assertion struct {
	typeName string
	pointer  bool
	iface    ast.Expr
}

// NewPackageSource indexes the type declarations of pkgs. position resolves
// token positions against the file set the packages were parsed with.
func NewPackageSource(pkgs []*Package, position func(token.Pos) token.Position, parser *annotations.Parser) *PackageSource {
	if parser == nil {
		parser = annotations.NewParser(nil)
	}
	s := &PackageSource{
		supertypes: make(map[models.Identity][]models.TypeRef),
		parser:     parser,
		markers:    make(map[models.Identity][]*annotations.ParsedAnnotation),
	}
	for _, pkg := range pkgs {
		s.indexPackage(pkg, position)
	}
	return s
}

func (s *PackageSource) indexPackage(pkg *Package, position func(token.Pos) token.Position) {
	pointerRecv := make(map[string]bool)
	var asserts []assertion
	var assertCtx []refContext
	byName := make(map[string]*Declaration)
	var specs []typeSpecItem

	for _, file := range pkg.Files {
		ctx := refContext{pkgPath: pkg.Path, pkgName: pkg.Name, imports: fileImports(file)}

		for _, d := range file.Decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				if name, ptr := receiverType(decl); name != "" && ptr {
					pointerRecv[name] = true
				}
			case *ast.GenDecl:
				switch decl.Tok {
				case token.VAR:
					for _, a := range interfaceAssertions(decl) {
						asserts = append(asserts, a)
						assertCtx = append(assertCtx, ctx)
					}
				case token.TYPE:
					for _, spec := range decl.Specs {
						ts, ok := spec.(*ast.TypeSpec)
						if !ok || ts.TypeParams != nil {
							continue
						}
						declared := newDeclaration(pkg, ts, declDoc(decl, ts), position, ctx.imports)
						byName[ts.Name.Name] = declared
						s.decls = append(s.decls, declared)
						specs = append(specs, typeSpecItem{decl: declared, spec: ts, ctx: ctx})
					}
				}
			}
		}
	}

	for _, item := range specs {
		d := item.decl
		switch t := item.spec.Type.(type) {
		case *ast.InterfaceType:
			d.Kind = DeclInterface
			s.supertypes[d.Identity] = append(s.supertypes[d.Identity], embeddedInterfaces(t, item.ctx)...)
			if len(d.Markers) > 0 {
				d.Methods = interfaceMethods(t, item.ctx)
			}
		case *ast.StructType:
			d.Kind = DeclStruct
			d.ByPointer = pointerRecv[d.Name]
			if len(d.Markers) > 0 {
				d.Fields = exportedFields(t, item.ctx)
			}
		}
	}

	for i, a := range asserts {
		d, ok := byName[a.typeName]
		if !ok {
			continue
		}
		ref, err := typeRefOf(a.iface, assertCtx[i])
		if err != nil || isTrivialSupertype(ref) {
			continue
		}
		if a.pointer && d.Kind == DeclStruct {
			d.ByPointer = true
		}
		s.supertypes[d.Identity] = appendRef(s.supertypes[d.Identity], ref)
	}
}

func newDeclaration(pkg *Package, ts *ast.TypeSpec, doc *ast.CommentGroup, position func(token.Pos) token.Position, imports map[string]string) *Declaration {
	pos := position(ts.Name.Pos())
	d := &Declaration{
		Identity:    models.NewIdentity(pkg.Path, ts.Name.Name),
		Name:        ts.Name.Name,
		PackagePath: pkg.Path,
		PackageName: pkg.Name,
		Dir:         pkg.Dir,
		Location:    models.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column},
		imports:     imports,
	}
	if doc != nil {
		for _, c := range doc.List {
			if !annotations.IsMarker(c.Text) {
				continue
			}
			cpos := position(c.Pos())
			d.Markers = append(d.Markers, c.Text)
			d.docLocs = append(d.docLocs, models.SourceLocation{File: cpos.Filename, Line: cpos.Line, Column: cpos.Column})
		}
	}
	return d
}

// declDoc returns the doc comment of a type spec. An ungrouped declaration
// keeps its doc on the GenDecl.
func declDoc(decl *ast.GenDecl, ts *ast.TypeSpec) *ast.CommentGroup {
	if ts.Doc != nil {
		return ts.Doc
	}
	if !decl.Lparen.IsValid() {
		return decl.Doc
	}
	return nil
}

// EnumerateDeclarations returns every indexed declaration in source order
func (s *PackageSource) EnumerateDeclarations() []*Declaration {
	return s.decls
}

// AttributesOf parses the markers in the declaration's doc comment. Results
// are cached per declaration.
func (s *PackageSource) AttributesOf(decl *Declaration) ([]*annotations.ParsedAnnotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.markers[decl.Identity]; ok {
		return cached, nil
	}

	var parsed []*annotations.ParsedAnnotation
	for i, line := range decl.Markers {
		loc := decl.docLocs[i]
		annotation, err := s.parser.ParseAnnotation(line, annotations.SourceLocation(loc))
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, annotation)
	}
	s.markers[decl.Identity] = parsed
	return parsed, nil
}

// SupertypesOf returns embedded interfaces and asserted interfaces of decl
func (s *PackageSource) SupertypesOf(decl *Declaration) []models.TypeRef {
	return s.supertypes[decl.Identity]
}

func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := GuessPackageName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = path
	}
	return imports
}

func receiverType(fn *ast.FuncDecl) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return "", false
	}
	expr := fn.Recv.List[0].Type
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
		pointer = true
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, pointer
	case *ast.IndexExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name, pointer
		}
	}
	return "", false
}

// interfaceAssertions finds `var _ I = (*T)(nil)`, `&T{}`, `new(T)` and `T{}`
func interfaceAssertions(decl *ast.GenDecl) []assertion {
	var out []assertion
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok || vs.Type == nil || len(vs.Values) != len(vs.Names) {
			continue
		}
		for i, name := range vs.Names {
			if name.Name != "_" {
				continue
			}
			if typeName, pointer := assertedType(vs.Values[i]); typeName != "" {
				out = append(out, assertion{typeName: typeName, pointer: pointer, iface: vs.Type})
			}
		}
	}
	return out
}

func assertedType(value ast.Expr) (string, bool) {
	switch v := value.(type) {
	case *ast.CallExpr:
		// (*T)(nil)
		if paren, ok := v.Fun.(*ast.ParenExpr); ok {
			if star, ok := paren.X.(*ast.StarExpr); ok {
				if ident, ok := star.X.(*ast.Ident); ok {
					return ident.Name, true
				}
			}
		}
		// new(T)
		if fn, ok := v.Fun.(*ast.Ident); ok && fn.Name == "new" && len(v.Args) == 1 {
			if ident, ok := v.Args[0].(*ast.Ident); ok {
				return ident.Name, true
			}
		}
	case *ast.UnaryExpr:
		if v.Op == token.AND {
			if lit, ok := v.X.(*ast.CompositeLit); ok {
				if ident, ok := lit.Type.(*ast.Ident); ok {
					return ident.Name, true
				}
			}
		}
	case *ast.CompositeLit:
		if ident, ok := v.Type.(*ast.Ident); ok {
			return ident.Name, false
		}
	}
	return "", false
}

func embeddedInterfaces(iface *ast.InterfaceType, ctx refContext) []models.TypeRef {
	var refs []models.TypeRef
	if iface.Methods == nil {
		return nil
	}
	for _, field := range iface.Methods.List {
		if len(field.Names) > 0 {
			continue
		}
		switch field.Type.(type) {
		case *ast.Ident, *ast.SelectorExpr:
		default:
			// type set elements such as ~int | string
			continue
		}
		ref, err := typeRefOf(field.Type, ctx)
		if err != nil || isTrivialSupertype(ref) {
			continue
		}
		refs = appendRef(refs, ref)
	}
	return refs
}

func interfaceMethods(iface *ast.InterfaceType, ctx refContext) []Method {
	var methods []Method
	if iface.Methods == nil {
		return nil
	}
	for _, field := range iface.Methods.List {
		fn, ok := field.Type.(*ast.FuncType)
		if !ok || len(field.Names) == 0 {
			continue
		}
		params, errP := parameters(fn.Params, ctx)
		results, errR := resultRefs(fn.Results, ctx)
		if errP != nil || errR != nil {
			// kept with a placeholder so factory validation can report it
			params, results = nil, []models.TypeRef{{Expr: "<unsupported>"}}
		}
		for _, name := range field.Names {
			methods = append(methods, Method{Name: name.Name, Params: params, Results: results})
		}
	}
	return methods
}

func parameters(list *ast.FieldList, ctx refContext) ([]models.Parameter, error) {
	if list == nil {
		return nil, nil
	}
	var params []models.Parameter
	for _, field := range list.List {
		ref, err := typeRefOf(field.Type, ctx)
		if err != nil {
			return nil, err
		}
		if len(field.Names) == 0 {
			params = append(params, models.Parameter{Type: ref})
			continue
		}
		for _, name := range field.Names {
			params = append(params, models.Parameter{Name: name.Name, Type: ref})
		}
	}
	return params, nil
}

func resultRefs(list *ast.FieldList, ctx refContext) ([]models.TypeRef, error) {
	params, err := parameters(list, ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]models.TypeRef, 0, len(params))
	for _, p := range params {
		refs = append(refs, p.Type)
	}
	return refs, nil
}

func exportedFields(st *ast.StructType, ctx refContext) []models.Parameter {
	var fields []models.Parameter
	if st.Fields == nil {
		return nil
	}
	for _, field := range st.Fields.List {
		ref, err := typeRefOf(field.Type, ctx)
		if err != nil {
			continue
		}
		for _, name := range field.Names {
			if name.IsExported() {
				fields = append(fields, models.Parameter{Name: name.Name, Type: ref})
			}
		}
	}
	return fields
}

func appendRef(refs []models.TypeRef, ref models.TypeRef) []models.TypeRef {
	for _, existing := range refs {
		if existing.Expr == ref.Expr {
			return refs
		}
	}
	return append(refs, ref)
}
