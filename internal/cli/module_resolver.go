package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/utils"
)

// ModuleResolver maps package directories to import paths
type ModuleResolver struct {
	parser *utils.GoModParser
	custom string
}

// NewModuleResolver creates a resolver. A non-empty custom module path
// replaces the one declared in go.mod.
func NewModuleResolver(reader *utils.FileReader, custom string) *ModuleResolver {
	if reader == nil {
		reader = utils.NewFileReader()
	}
	return &ModuleResolver{
		parser: utils.NewGoModParser(reader),
		custom: custom,
	}
}

// ResolveModuleName returns the custom module path or the one declared by
// the go.mod above the working directory
func (r *ModuleResolver) ResolveModuleName() (string, error) {
	if r.custom != "" {
		return r.custom, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapFileSystemError("getwd", ".", err)
	}
	goMod, err := r.parser.FindGoModFile(wd)
	if err != nil {
		return "", errors.WrapConfigurationError("go.mod", "locate", err).
			WithSuggestion("run meld inside a module or pass --module")
	}
	name, err := r.parser.ParseModuleName(goMod)
	if err != nil {
		return "", errors.WrapConfigurationError("go.mod", "parse", err)
	}
	return name, nil
}

// ImportPath returns the import path of the package in dir
func (r *ModuleResolver) ImportPath(dir string) (string, error) {
	if r.custom == "" {
		return r.parser.ImportPath(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapFileSystemError("getwd", ".", err)
	}
	return BuildPackagePath(r.custom, wd, dir)
}

// BuildPackagePath joins moduleName with the position of packageDir below
// moduleRoot
func BuildPackagePath(moduleName, moduleRoot, packageDir string) (string, error) {
	absRoot, err := filepath.Abs(moduleRoot)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", moduleRoot, err)
	}
	absDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", packageDir, err)
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", errors.WrapFileSystemError("relate", packageDir, err)
	}

	rel = filepath.ToSlash(rel)
	switch {
	case rel == ".":
		return moduleName, nil
	case rel == ".." || len(rel) > 2 && rel[:3] == "../":
		return "", fmt.Errorf("package %s is outside module root %s", packageDir, moduleRoot)
	default:
		return moduleName + "/" + rel, nil
	}
}
