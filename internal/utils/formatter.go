package utils

import (
	"fmt"
	"go/format"

	"golang.org/x/tools/imports"
)

// FormatSource formats generated Go source and drops unused imports.
// If import processing fails the source is still gofmt'ed.
func FormatSource(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err == nil {
		return out, nil
	}

	formatted, fmtErr := format.Source(src)
	if fmtErr != nil {
		return src, fmt.Errorf("failed to format %s: %w", filename, fmtErr)
	}
	return formatted, nil
}
