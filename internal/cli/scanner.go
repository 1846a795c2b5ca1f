package cli

import (
	"path/filepath"
	"strings"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/utils"
)

// RecursiveSuffix marks a directory pattern that includes every subdirectory
const RecursiveSuffix = "/..."

// DirectoryScanner expands directory patterns into package directories
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a scanner that ignores files emitted with the
// processor's suffix
func NewDirectoryScanner(fp *utils.FileProcessor) *DirectoryScanner {
	if fp == nil {
		fp = utils.NewFileProcessor()
	}
	return &DirectoryScanner{fileProcessor: fp}
}

// ScanDirectories returns the directories holding Go source files. A
// pattern ending in "/..." is walked recursively; any other pattern names
// exactly one directory.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(found ...string) {
		for _, d := range found {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}

	for _, pattern := range patterns {
		base, recursive := splitPattern(pattern)
		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", base, err)
		}

		if recursive {
			found, err := s.fileProcessor.ScanPackageDirectories([]string{abs})
			if err != nil {
				return nil, err
			}
			add(found...)
			continue
		}

		files, err := s.fileProcessor.SourceFiles(abs)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			add(abs)
		}
	}
	return dirs, nil
}

// splitPattern strips the recursive suffix from pattern
func splitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}
	if base, ok := strings.CutSuffix(pattern, RecursiveSuffix); ok {
		if base == "" {
			base = "."
		}
		return base, true
	}
	if pattern == "" {
		return ".", false
	}
	return pattern, false
}
