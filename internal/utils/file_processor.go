package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/meld/internal/errors"
)

// DefaultGeneratedSuffix is the file name suffix of emitted containers
const DefaultGeneratedSuffix = "_meld.go"

// FileProcessor finds package directories and emitted files. Files ending in
// the generated suffix are never treated as sources.
type FileProcessor struct {
	fileReader      *FileReader
	generatedSuffix string
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithReader(NewFileReader(), DefaultGeneratedSuffix)
}

// NewFileProcessorWithReader creates a file processor with an existing FileReader.
// An empty suffix falls back to DefaultGeneratedSuffix.
func NewFileProcessorWithReader(reader *FileReader, generatedSuffix string) *FileProcessor {
	if generatedSuffix == "" {
		generatedSuffix = DefaultGeneratedSuffix
	}
	return &FileProcessor{
		fileReader:      reader,
		generatedSuffix: generatedSuffix,
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// SourceFileFilter accepts .go files, excluding tests and files emitted with suffix
func SourceFileFilter(suffix string) FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			!strings.HasSuffix(name, suffix)
	}
}

// GeneratedFileFilter accepts files emitted with suffix
func GeneratedFileFilter(suffix string) FileFilter {
	return func(path string, info os.DirEntry) bool {
		return !info.IsDir() && strings.HasSuffix(info.Name(), suffix)
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"build":        true,
		"dist":         true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Hidden and underscore directories are ignored by the go tool as well
		if (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) && name != "." && name != ".." {
			return false
		}

		return !skipDirs[name]
	}
}

// ScanPackageDirectories walks rootDirs and returns every directory holding Go
// source files, in walk order and without duplicates across roots.
func (fp *FileProcessor) ScanPackageDirectories(rootDirs []string) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)
	skip := DefaultDirectoryFilter()

	for _, root := range rootDirs {
		err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return errors.WrapFileSystemError("read directory", path, err)
			}
			if !entry.IsDir() {
				return nil
			}
			if path != root && !skip(path, entry) {
				return filepath.SkipDir
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return errors.WrapFileSystemError("resolve", path, err)
			}
			if visited[abs] {
				return filepath.SkipDir
			}
			visited[abs] = true

			sources, err := fp.SourceFiles(path)
			if err != nil {
				return err
			}
			if len(sources) > 0 {
				packageDirs = append(packageDirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return packageDirs, nil
}

// SourceFiles lists the non-test, non-generated .go files of a single directory
func (fp *FileProcessor) SourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read directory", dir, err)
	}

	filter := SourceFileFilter(fp.generatedSuffix)
	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if filter(path, entry) {
			files = append(files, path)
		}
	}
	return files, nil
}

// CleanDirectories removes emitted files below every base directory
func (fp *FileProcessor) CleanDirectories(baseDirs []string) ([]string, error) {
	var removedFiles []string
	filter := GeneratedFileFilter(fp.generatedSuffix)
	dirFilter := DefaultDirectoryFilter()

	for _, baseDir := range baseDirs {
		if baseDir == "" {
			baseDir = "."
		}

		err := filepath.WalkDir(baseDir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped
				return nil
			}
			if entry.IsDir() {
				if path != baseDir && !dirFilter(path, entry) {
					return filepath.SkipDir
				}
				return nil
			}
			if !filter(path, entry) {
				return nil
			}
			if err := os.Remove(path); err != nil {
				return errors.WrapFileSystemError("remove", path, err)
			}
			removedFiles = append(removedFiles, path)
			return nil
		})
		if err != nil {
			return removedFiles, fmt.Errorf("clean %s: %w", baseDir, err)
		}
	}

	return removedFiles, nil
}

// GeneratedSuffix returns the suffix used to recognise emitted files
func (fp *FileProcessor) GeneratedSuffix() string {
	return fp.generatedSuffix
}

// GetFileReader returns the underlying FileReader for advanced operations
func (fp *FileProcessor) GetFileReader() *FileReader {
	return fp.fileReader
}
