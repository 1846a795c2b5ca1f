// Package emitter turns composed container trees into Go source. Every node
// of a tree becomes one file in the package that declares the merge root.
package emitter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/utils"
)

// DefaultSuffix is appended to the file name of every generated container
const DefaultSuffix = "_meld.go"

// File describes one generated container file
type File struct {
	Path     string
	TypeName string
	Root     models.Identity
	Scope    models.Scope
	Source   []byte
}

// Option configures an Emitter
type Option func(*Emitter)

// WithSuffix sets the generated file suffix
func WithSuffix(suffix string) Option {
	return func(e *Emitter) {
		if suffix != "" {
			e.suffix = suffix
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDryRun renders files without writing them
func WithDryRun(dryRun bool) Option {
	return func(e *Emitter) {
		e.dryRun = dryRun
	}
}

type claim struct {
	root        models.Identity
	declaration models.Identity
	parent      models.Scope
}

// Emitter writes one Go file per composed container node
type Emitter struct {
	registry *TemplateRegistry
	suffix   string
	dryRun   bool
	logger   *slog.Logger

	claims map[string]claim
	files  []File
}

// New creates an emitter
func New(opts ...Option) *Emitter {
	e := &Emitter{
		registry: NewTemplateRegistry(),
		suffix:   DefaultSuffix,
		logger:   slog.New(slog.DiscardHandler),
		claims:   make(map[string]claim),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Suffix returns the generated file suffix
func (e *Emitter) Suffix() string {
	return e.suffix
}

// Files returns every file emitted so far
func (e *Emitter) Files() []File {
	return e.files
}

// Emit renders node of the tree requested by root and writes it next to
// the root declaration
func (e *Emitter) Emit(root models.MergeRoot, node *models.ComposedContainer) error {
	file, err := e.Render(root, node)
	if err != nil {
		return err
	}

	if !e.dryRun {
		if err := os.WriteFile(file.Path, file.Source, 0o644); err != nil {
			return errors.WrapFileSystemError("write", file.Path, err)
		}
	}
	e.files = append(e.files, *file)
	e.logger.Debug("container emitted",
		"root", root.Identity,
		"scope", node.Scope,
		"type", file.TypeName,
		"path", file.Path)
	return nil
}

// Render produces the formatted source of one node. Each generated type
// name may be claimed by a single node per package.
func (e *Emitter) Render(root models.MergeRoot, node *models.ComposedContainer) (*File, error) {
	if root.Identity.IsZero() || root.PackageName == "" {
		return nil, errors.NewGenerationErrorWithDetails("container", string(node.Scope), "setup",
			"merge root carries no declaring package")
	}

	typeName := containerName(root, node.Declaration, node.IsRoot)
	path := filepath.Join(root.Dir, snakeCase(strings.TrimSuffix(typeName, "Meld"))+e.suffix)

	c := claim{root: root.Identity, declaration: node.Declaration}
	if node.Parent != nil {
		c.parent = node.Parent.Scope
	}
	key := filepath.Join(root.Dir, typeName)
	if prev, taken := e.claims[key]; taken && prev != c {
		err := errors.NewGenerationErrorWithDetails("container", path, "naming",
			fmt.Sprintf("type %s is generated for both %s and %s", typeName, prev.declaration, c.declaration))
		err.WithContext("root", root.Identity.String()).
			WithSuggestion("rename one of the subcomponents so the generated names differ")
		return nil, err
	}

	imports := NewImportManager(root.Identity.PackagePath())
	data, err := buildNode(root, node, typeName, imports)
	if err != nil {
		if ge, ok := err.(*errors.GenerationError); ok {
			ge.WithTargetFile(path)
		}
		return nil, err
	}

	text, err := e.registry.Execute("file", fileData{
		Root:    root.Identity.String(),
		Scope:   node.Scope.String(),
		Package: root.PackageName,
		Imports: imports.GenerateImports(),
		Node:    *data,
	})
	if err != nil {
		return nil, errors.WrapTemplateError("file", "execute", err)
	}

	source, err := utils.FormatSource(path, []byte(text))
	if err != nil {
		return nil, errors.WrapGenerateError("container", path, err)
	}

	e.claims[key] = c
	return &File{
		Path:     path,
		TypeName: typeName,
		Root:     root.Identity,
		Scope:    node.Scope,
		Source:   source,
	}, nil
}

// containerName names the type generated for the node declared by decl
func containerName(root models.MergeRoot, decl models.Identity, isRoot bool) string {
	if isRoot || decl.IsZero() || decl == root.Identity {
		return root.Identity.Name() + "Meld"
	}
	return root.Identity.Name() + decl.Name() + "Meld"
}
