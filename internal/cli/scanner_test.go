package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/meld/internal/utils"
)

func writeFiles(t *testing.T, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestDirectoryScanner_ScanDirectories(t *testing.T) {
	tempDir := t.TempDir()

	// tempDir/
	//   app/app.go
	//   app/app_meld.go      generated only
	//   app/handlers/h.go
	//   store/store_test.go  tests only
	//   vendor/dep.go        skipped
	//   empty/
	writeFiles(t, map[string]string{
		filepath.Join(tempDir, "app", "app.go"):           "package app\n",
		filepath.Join(tempDir, "app", "app_meld.go"):      "package app\n",
		filepath.Join(tempDir, "app", "handlers", "h.go"): "package handlers\n",
		filepath.Join(tempDir, "store", "store_test.go"):  "package store\n",
		filepath.Join(tempDir, "vendor", "dep.go"):        "package dep\n",
		filepath.Join(tempDir, "gen", "only_meld.go"):     "package gen\n",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "empty"), 0o755))

	scanner := NewDirectoryScanner(nil)

	tests := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{
			name:     "recursive pattern",
			patterns: []string{tempDir + "/..."},
			expected: []string{
				filepath.Join(tempDir, "app"),
				filepath.Join(tempDir, "app", "handlers"),
			},
		},
		{
			name:     "single directory",
			patterns: []string{filepath.Join(tempDir, "app")},
			expected: []string{filepath.Join(tempDir, "app")},
		},
		{
			name:     "directory without sources",
			patterns: []string{filepath.Join(tempDir, "store")},
			expected: nil,
		},
		{
			name:     "overlapping patterns are deduplicated",
			patterns: []string{filepath.Join(tempDir, "app"), filepath.Join(tempDir, "app") + "/..."},
			expected: []string{
				filepath.Join(tempDir, "app"),
				filepath.Join(tempDir, "app", "handlers"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs, err := scanner.ScanDirectories(tt.patterns)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expected, dirs)
		})
	}
}

func TestDirectoryScanner_CustomSuffix(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, map[string]string{
		filepath.Join(tempDir, "gen", "c_gen.go"): "package gen\n",
	})

	fp := utils.NewFileProcessorWithReader(utils.NewFileReader(), "_gen.go")
	dirs, err := NewDirectoryScanner(fp).ScanDirectories([]string{tempDir + "/..."})
	require.NoError(t, err)
	assert.Empty(t, dirs)

	dirs, err = NewDirectoryScanner(nil).ScanDirectories([]string{tempDir + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tempDir, "gen")}, dirs)
}

func TestDirectoryScanner_MissingDirectory(t *testing.T) {
	_, err := NewDirectoryScanner(nil).ScanDirectories([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		pattern   string
		base      string
		recursive bool
	}{
		{"./...", ".", true},
		{"...", ".", true},
		{"/...", ".", true},
		{"internal/...", "internal", true},
		{"internal", "internal", false},
		{"", ".", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			base, recursive := splitPattern(tt.pattern)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.recursive, recursive)
		})
	}
}
