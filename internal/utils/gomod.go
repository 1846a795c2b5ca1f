package utils

import (
	"fmt"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Module is a go.mod found on disk
type Module struct {
	Path string // module path declared in go.mod
	Root string // absolute directory holding go.mod
}

// GoModParser locates modules and maps package directories to import paths.
// Lookups are memoized per directory, so the parallel package loader does
// not re-walk the tree for every package.
type GoModParser struct {
	fileReader *FileReader
	modules    *Cache[string, Module]
}

func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{fileReader: fileReader, modules: NewCache[string, Module]()}
}

// ParseModuleName returns the module path declared in goModPath
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	clean := filepath.Clean(goModPath)
	if filepath.Base(clean) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := p.fileReader.ReadFile(clean)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}
	mod, err := modfile.ParseLax(clean, []byte(content), nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if mod.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", clean)
	}
	return mod.Module.Mod.Path, nil
}

// FindGoModFile returns the nearest go.mod at or above startDir
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if content, err := p.fileReader.ReadFile(candidate); err == nil && content != "" {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod file not found above %s", startDir)
		}
		dir = parent
	}
}

// FindModule returns the module enclosing dir
func (p *GoModParser) FindModule(dir string) (Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, err
	}
	return p.modules.Load(abs, func() (Module, error) {
		goMod, err := p.FindGoModFile(abs)
		if err != nil {
			return Module{}, err
		}
		path, err := p.ParseModuleName(goMod)
		if err != nil {
			return Module{}, err
		}
		return Module{Path: path, Root: filepath.Dir(goMod)}, nil
	})
}

// ImportPath returns the import path of the package in dir
func (p *GoModParser) ImportPath(dir string) (string, error) {
	mod, err := p.FindModule(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(mod.Root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return mod.Path, nil
	}
	return mod.Path + "/" + filepath.ToSlash(rel), nil
}
