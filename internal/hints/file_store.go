package hints

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/utils"
)

const (
	// FormatVersion is written to the manifest of every hint directory
	FormatVersion = "1.0.0"
	// FormatConstraint is the range of manifest versions this build reads
	FormatConstraint = "^1"

	manifestName = "manifest.yaml"
	hintExt      = ".yaml"
)

type manifest struct {
	Format  string `yaml:"format"`
	Version string `yaml:"version"`
}

// FileStore keeps one YAML document per hint in a directory
type FileStore struct {
	dir      string
	readOnly bool
	logger   *slog.Logger
	cache    *utils.Cache[string, models.Hint]

	mu sync.Mutex
}

// FileStoreOption configures a FileStore
type FileStoreOption func(*FileStore)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OpenFileStore opens dir for reading and writing, creating it and its
// manifest when missing.
func OpenFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	s := newFileStore(dir, false, opts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapFileSystemError("create hint directory", dir, err)
	}

	path := filepath.Join(dir, manifestName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		data, err := yaml.Marshal(manifest{Format: "meld-hints", Version: FormatVersion})
		if err != nil {
			return nil, errors.WrapConfigurationError("hint manifest", "encode", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, errors.WrapFileSystemError("write hint manifest", path, err)
		}
		s.logger.Debug("hint directory initialised", "dir", dir, "version", FormatVersion)
		return s, nil
	}

	if err := checkManifest(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenReadOnlyFileStore opens an existing hint directory, typically one
// shipped by a dependency module. Record fails on the returned store.
func OpenReadOnlyFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	s := newFileStore(dir, true, opts)
	if err := checkManifest(dir); err != nil {
		return nil, err
	}
	return s, nil
}

func newFileStore(dir string, readOnly bool, opts []FileStoreOption) *FileStore {
	s := &FileStore{
		dir:      dir,
		readOnly: readOnly,
		logger:   slog.New(slog.DiscardHandler),
		cache:    utils.NewCache[string, models.Hint](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkManifest(dir string) error {
	path := filepath.Join(dir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapFileSystemError("read hint manifest", path, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return errors.WrapParseError(path, err)
	}
	version, err := semver.NewVersion(m.Version)
	if err != nil {
		return errors.NewValidationErrorWithValue("version", m.Version, "hint manifest version must be a semantic version").
			WithLocation(errors.SourceLocation{File: path})
	}
	constraint, err := semver.NewConstraint(FormatConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return errors.NewValidationError("version", FormatConstraint, version.String()).
			WithLocation(errors.SourceLocation{File: path}).
			WithSuggestion("Regenerate the hint directory with a matching meld release")
	}
	return nil
}

// Dir returns the hint directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Record stores the hints of c
func (s *FileStore) Record(c models.Contribution) (int, error) {
	return s.RecordHints(models.HintsFor(c)...)
}

// RecordHints writes each hint to its own file. Existing files are never
// rewritten: an identical file makes the hint a no-op and a reference hint
// with a different payload is written to a second file.
func (s *FileStore) RecordHints(hints ...models.Hint) (int, error) {
	if s.readOnly {
		return 0, errors.New(errors.FileSystemErrorCode, "hint directory is read-only").
			WithContext("dir", s.dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, h := range hints {
		data, err := encodeHint(h)
		if err != nil {
			return added, errors.WrapGenerateError("hint", h.Key(), err)
		}

		path := s.pathFor(h.Key())
		written, differs, err := writeExclusive(path, data)
		if err != nil {
			return added, err
		}
		if differs && h.Role == models.HintReference {
			digest, err := fingerprint(h)
			if err != nil {
				return added, errors.WrapGenerateError("hint", h.Key(), err)
			}
			same, err := holdsFingerprint(path, digest)
			if err != nil {
				return added, err
			}
			if same {
				continue
			}
			path = s.pathFor(h.Key() + "\x00" + digest)
			written, _, err = writeExclusive(path, data)
			if err != nil {
				return added, err
			}
		}
		if written {
			added++
			s.logger.Debug("hint written", "key", h.Key(), "file", filepath.Base(path))
		}
	}
	return added, nil
}

// holdsFingerprint reports whether the hint stored at path has digest, so it
// differs from a new hint only in its source location
func holdsFingerprint(path, digest string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.WrapFileSystemError("read hint", path, err)
	}
	existing, err := decodeHint(data)
	if err != nil {
		return false, errors.WrapParseError(path, err)
	}
	stored, err := fingerprint(existing)
	if err != nil {
		return false, errors.WrapGenerateError("hint", existing.Key(), err)
	}
	return stored == digest, nil
}

// writeExclusive creates path with data. When the file already exists it
// reports whether its content differs from data.
func writeExclusive(path string, data []byte) (written, differs bool, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return false, false, errors.WrapFileSystemError("create hint", path, err)
		}
		existing, readErr := os.ReadFile(path)
		if readErr != nil {
			return false, false, errors.WrapFileSystemError("read hint", path, readErr)
		}
		return false, !bytes.Equal(existing, data), nil
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, false, errors.WrapFileSystemError("write hint", path, err)
	}
	if err := f.Close(); err != nil {
		return false, false, errors.WrapFileSystemError("close hint", path, err)
	}
	return true, false, nil
}

// AllHints decodes every hint file in name order. Files that did not change
// since the last call are served from the cache.
func (s *FileStore) AllHints() ([]models.Hint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read hint directory", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&fs.ModeType != 0 || entry.Name() == manifestName || !strings.HasSuffix(entry.Name(), hintExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	hints := make([]models.Hint, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		if h, ok := s.cache.GetFresh(path, path); ok {
			hints = append(hints, h)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("read hint", path, err)
		}
		h, err := decodeHint(data)
		if err != nil {
			return nil, errors.WrapParseError(path, err).
				WithLocation(errors.SourceLocation{File: path})
		}
		if err := s.cache.PutStamped(path, h, path); err != nil {
			return nil, errors.WrapFileSystemError("stat hint", path, err)
		}
		hints = append(hints, h)
	}
	return hints, nil
}

// Clear removes every hint file, keeping the manifest
func (s *FileStore) Clear() error {
	if s.readOnly {
		return fmt.Errorf("hint directory %s is read-only", s.dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.WrapFileSystemError("read hint directory", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == manifestName || !strings.HasSuffix(entry.Name(), hintExt) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return errors.WrapFileSystemError("remove hint", path, err)
		}
	}
	s.cache.Reset()
	return nil
}

// CacheStats reports how many hint decodes were served from the cache
func (s *FileStore) CacheStats() utils.CacheStats {
	return s.cache.Stats()
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, uuid.NewSHA1(hintNamespace, []byte(key)).String()+hintExt)
}
