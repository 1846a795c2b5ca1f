package symbols

import (
	"context"
	"fmt"
	"go/ast"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/meld/internal/annotations"
	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/utils"
)

// ImportPathResolver maps a package directory to its import path
type ImportPathResolver interface {
	ImportPath(dir string) (string, error)
}

// Loader parses package directories into a PackageSource
type Loader struct {
	files    *utils.FileProcessor
	resolver ImportPathResolver
	parser   *annotations.Parser
	workers  int
	logger   *slog.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithWorkers bounds the number of directories parsed concurrently
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFileProcessor shares a file processor (and its parse cache)
func WithFileProcessor(fp *utils.FileProcessor) LoaderOption {
	return func(l *Loader) {
		if fp != nil {
			l.files = fp
		}
	}
}

// WithParser sets the marker parser
func WithParser(p *annotations.Parser) LoaderOption {
	return func(l *Loader) {
		if p != nil {
			l.parser = p
		}
	}
}

// NewLoader creates a loader resolving import paths through resolver
func NewLoader(resolver ImportPathResolver, opts ...LoaderOption) *Loader {
	l := &Loader{
		files:    utils.NewFileProcessor(),
		resolver: resolver,
		workers:  runtime.GOMAXPROCS(0),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.parser == nil {
		l.parser = annotations.NewParser(nil)
	}
	return l
}

// Load parses every directory and returns a source over all of them.
// Directories without Go source files are skipped.
func (l *Loader) Load(ctx context.Context, dirs []string) (*PackageSource, error) {
	pkgs := make([]*Package, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pkg, err := l.LoadPackage(dir)
			if err != nil {
				return err
			}
			pkgs[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pkgs = slices.DeleteFunc(pkgs, func(p *Package) bool { return p == nil })
	l.logger.Debug("packages loaded", "requested", len(dirs), "parsed", len(pkgs))

	return NewPackageSource(pkgs, l.files.GetFileReader().Position, l.parser), nil
}

// LoadPackage parses the non-generated Go files of one directory.
// It returns nil when the directory holds no such file.
func (l *Loader) LoadPackage(dir string) (*Package, error) {
	paths, err := l.files.SourceFiles(dir)
	if err != nil {
		return nil, err
	}

	reader := l.files.GetFileReader()
	var files []*ast.File
	var name string
	for _, path := range paths {
		file, err := reader.ParseGoFile(path)
		if err != nil {
			return nil, errors.WrapParseError(path, err).
				WithLocation(errors.SourceLocation{File: path})
		}
		if ast.IsGenerated(file) {
			continue
		}
		if name == "" {
			name = file.Name.Name
		} else if file.Name.Name != name {
			return nil, errors.NewValidationError("package", name, file.Name.Name).
				WithLocation(errors.SourceLocation{File: path}).
				WithSuggestion(fmt.Sprintf("keep a single package per directory in %s", dir))
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}

	importPath, err := l.resolver.ImportPath(dir)
	if err != nil {
		return nil, errors.WrapWithOperation("resolve import path of", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	l.logger.Debug("package parsed", "path", importPath, "files", len(files))
	return &Package{Path: importPath, Name: name, Dir: abs, Files: files}, nil
}

// LoadSource builds a source from in-memory files of a single package,
// keyed by file name.
func (l *Loader) LoadSource(importPath string, sources map[string]string) (*PackageSource, error) {
	return l.LoadSources(map[string]map[string]string{importPath: sources})
}

// LoadSources builds a source from in-memory packages keyed by import path,
// each holding its files keyed by file name.
func (l *Loader) LoadSources(packages map[string]map[string]string) (*PackageSource, error) {
	paths := make([]string, 0, len(packages))
	for path := range packages {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	reader := l.files.GetFileReader()
	pkgs := make([]*Package, 0, len(paths))
	for _, importPath := range paths {
		sources := packages[importPath]
		names := make([]string, 0, len(sources))
		for name := range sources {
			names = append(names, name)
		}
		slices.Sort(names)

		pkg := &Package{Path: importPath}
		for _, filename := range names {
			file, err := reader.ParseGoSource(filename, sources[filename])
			if err != nil {
				return nil, errors.WrapParseError(filename, err)
			}
			if pkg.Name == "" {
				pkg.Name = file.Name.Name
			}
			pkg.Files = append(pkg.Files, file)
		}
		pkgs = append(pkgs, pkg)
	}
	return NewPackageSource(pkgs, reader.Position, l.parser), nil
}
