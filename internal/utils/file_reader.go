package utils

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileReader reads and parses source files, caching results until the file
// changes on disk. All files share one token.FileSet so positions from any
// parsed file resolve through Position. Safe for concurrent use.
type FileReader struct {
	mu       sync.Mutex // guards fset
	fset     *token.FileSet
	parsed   *Cache[string, *ast.File]
	contents *Cache[string, string]
	logger   *slog.Logger
}

func NewFileReader() *FileReader {
	return &FileReader{
		fset:     token.NewFileSet(),
		parsed:   NewCache[string, *ast.File](),
		contents: NewCache[string, string](),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the structured logger. nil is ignored.
func (fr *FileReader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		fr.logger = logger
	}
}

// readThrough serves path from cache or produces and stores it
func readThrough[V any](cache *Cache[string, V], path string, logger *slog.Logger, produce func([]byte) (V, error)) (V, error) {
	if v, ok := cache.GetFresh(path, path); ok {
		return v, nil
	}
	var zero V
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("failed to read file %s: %w", filepath.Base(path), err)
	}
	v, err := produce(data)
	if err != nil {
		return zero, err
	}
	if err := cache.PutStamped(path, v, path); err != nil {
		logger.Debug("file not cached", "path", path, "error", err)
	}
	return v, nil
}

// ParseGoFile parses a Go file with comments
func (fr *FileReader) ParseGoFile(path string) (*ast.File, error) {
	clean, err := checkPath(path)
	if err != nil {
		return nil, err
	}
	return readThrough(fr.parsed, clean, fr.logger, func(src []byte) (*ast.File, error) {
		file, err := fr.parse(clean, src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Go file %s: %w", filepath.Base(clean), err)
		}
		return file, nil
	})
}

// ParseGoSource parses in-memory source under filename. Results are not cached.
func (fr *FileReader) ParseGoSource(filename, source string) (*ast.File, error) {
	file, err := fr.parse(filename, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go source: %w", err)
	}
	return file, nil
}

func (fr *FileReader) parse(filename string, src []byte) (*ast.File, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return parser.ParseFile(fr.fset, filename, src, parser.ParseComments)
}

// Position resolves pos from any file this reader parsed
func (fr *FileReader) Position(pos token.Pos) token.Position {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.fset.Position(pos)
}

// ReadFile returns the contents of path
func (fr *FileReader) ReadFile(path string) (string, error) {
	clean, err := checkPath(path)
	if err != nil {
		return "", err
	}
	return readThrough(fr.contents, clean, fr.logger, func(data []byte) (string, error) {
		return string(data), nil
	})
}

// CacheStats reports the parse and content caches
func (fr *FileReader) CacheStats() (parsed, contents CacheStats) {
	return fr.parsed.Stats(), fr.contents.Stats()
}

// checkPath cleans path and rejects empty, missing and traversing paths.
// ".." may only lead a relative path.
func checkPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("file path cannot be empty")
	}
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") && !strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("path traversal not allowed in file path: %s", path)
	}
	if _, err := os.Stat(clean); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("file does not exist: %s", clean)
	}
	return clean, nil
}
