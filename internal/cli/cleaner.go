package cli

import (
	"os"
	"path/filepath"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/utils"
)

// Cleaner removes generated containers and recorded hints
type Cleaner struct {
	files *utils.FileProcessor
}

// NewCleaner creates a cleaner for files carrying suffix
func NewCleaner(suffix string) *Cleaner {
	return &Cleaner{files: utils.NewFileProcessorWithReader(utils.NewFileReader(), suffix)}
}

// CleanGeneratedFiles deletes emitted files. A pattern ending in "/..."
// covers its whole tree; otherwise only the directory itself is cleaned.
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	var removed []string
	for _, pattern := range patterns {
		base, recursive := splitPattern(pattern)
		if recursive {
			files, err := c.files.CleanDirectories([]string{base})
			removed = append(removed, files...)
			if err != nil {
				return removed, err
			}
			continue
		}
		files, err := c.cleanSingleDirectory(base)
		removed = append(removed, files...)
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// cleanSingleDirectory deletes emitted files of dir without descending
func (c *Cleaner) cleanSingleDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapFileSystemError("read directory", dir, err)
	}

	filter := utils.GeneratedFileFilter(c.files.GeneratedSuffix())
	var removed []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !filter(path, entry) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, errors.WrapFileSystemError("remove", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// CleanHints empties the hint directory
func (c *Cleaner) CleanHints(dir string) error {
	store, err := hints.OpenFileStore(dir)
	if err != nil {
		return err
	}
	return store.Clear()
}
