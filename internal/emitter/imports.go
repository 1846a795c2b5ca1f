package emitter

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/symbols"
)

// ImportManager hands out package qualifiers for one generated file and
// renders its import block
type ImportManager struct {
	local   string            // import path of the package being generated
	aliases map[string]string // path -> qualifier
	taken   map[string]string // qualifier -> path
}

// NewImportManager creates an import manager for a file of package local
func NewImportManager(local string) *ImportManager {
	im := &ImportManager{
		local:   local,
		aliases: make(map[string]string),
		taken:   make(map[string]string),
	}
	// the receiver of every generated method
	im.taken[receiver] = ""
	return im
}

// Qualifier returns the name the file uses for the package at importPath.
// The local package has no qualifier.
func (im *ImportManager) Qualifier(importPath string) string {
	if importPath == "" || importPath == im.local {
		return ""
	}
	if alias, ok := im.aliases[importPath]; ok {
		return alias
	}

	base := symbols.GuessPackageName(importPath)
	alias := base
	for i := 2; ; i++ {
		if _, clash := im.taken[alias]; !clash {
			break
		}
		alias = base + strconv.Itoa(i)
	}
	im.aliases[importPath] = alias
	im.taken[alias] = importPath
	return alias
}

// Qualify renders a declared type name as seen from the generated file
func (im *ImportManager) Qualify(id models.Identity) string {
	if q := im.Qualifier(id.PackagePath()); q != "" {
		return q + "." + id.Name()
	}
	return id.Name()
}

// Render renders a type expression as seen from the generated file
func (im *ImportManager) Render(t models.TypeRef) string {
	return t.Render(im.Qualifier)
}

// Len returns the number of imported packages
func (im *ImportManager) Len() int {
	return len(im.aliases)
}

// GenerateImports generates the import section
func (im *ImportManager) GenerateImports() string {
	if len(im.aliases) == 0 {
		return ""
	}

	paths := make([]string, 0, len(im.aliases))
	for p := range im.aliases {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var imports []string
	for _, p := range paths {
		alias := im.aliases[p]
		if alias == path.Base(p) {
			imports = append(imports, fmt.Sprintf(`"%s"`, p))
		} else {
			imports = append(imports, fmt.Sprintf(`%s "%s"`, alias, p))
		}
	}

	if len(imports) == 1 {
		return fmt.Sprintf("import %s\n", imports[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, imp := range imports {
		result.WriteString(fmt.Sprintf("\t%s\n", imp))
	}
	result.WriteString(")\n")
	return result.String()
}
