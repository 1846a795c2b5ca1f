package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/models"
)

func TestCleaner_CleanGeneratedFiles(t *testing.T) {
	tests := []struct {
		name     string
		pattern  func(root string) string
		removed  []string
		retained []string
	}{
		{
			name:     "recursive",
			pattern:  func(root string) string { return root + "/..." },
			removed:  []string{"app/app_component_meld.go", "app/sub/sub_meld.go"},
			retained: []string{"app/app.go", "app/sub/sub.go", "vendor/v_meld.go"},
		},
		{
			name:     "single directory",
			pattern:  func(root string) string { return filepath.Join(root, "app") },
			removed:  []string{"app/app_component_meld.go"},
			retained: []string{"app/app.go", "app/sub/sub_meld.go"},
		},
		{
			name:     "missing directory",
			pattern:  func(root string) string { return filepath.Join(root, "missing") },
			retained: []string{"app/app_component_meld.go", "app/sub/sub_meld.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, map[string]string{
				filepath.Join(root, "app", "app.go"):                "package app\n",
				filepath.Join(root, "app", "app_component_meld.go"): "package app\n",
				filepath.Join(root, "app", "sub", "sub.go"):         "package sub\n",
				filepath.Join(root, "app", "sub", "sub_meld.go"):    "package sub\n",
				filepath.Join(root, "vendor", "v_meld.go"):          "package v\n",
			})

			removed, err := NewCleaner("").CleanGeneratedFiles([]string{tt.pattern(root)})
			require.NoError(t, err)

			var expected []string
			for _, rel := range tt.removed {
				expected = append(expected, filepath.Join(root, filepath.FromSlash(rel)))
				assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
			}
			assert.ElementsMatch(t, expected, removed)
			for _, rel := range tt.retained {
				assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
			}
		})
	}
}

func TestCleaner_CustomSuffix(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, map[string]string{
		filepath.Join(root, "a_gen.go"):  "package a\n",
		filepath.Join(root, "a_meld.go"): "package a\n",
	})

	removed, err := NewCleaner("_gen.go").CleanGeneratedFiles([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a_gen.go")}, removed)
	assert.FileExists(t, filepath.Join(root, "a_meld.go"))
}

func TestCleaner_CleanHints(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hints")
	store, err := hints.OpenFileStore(dir)
	require.NoError(t, err)

	_, err = store.Record(models.Contribution{
		Identity:     "example.com/app.StdLogger",
		Kind:         models.KindBinding,
		TargetScopes: []models.Scope{"example.com/app.AppScope"},
		BoundType:    "example.com/app.Logger",
	})
	require.NoError(t, err)
	recorded, err := store.AllHints()
	require.NoError(t, err)
	require.NotEmpty(t, recorded)

	require.NoError(t, NewCleaner("").CleanHints(dir))

	reopened, err := hints.OpenFileStore(dir)
	require.NoError(t, err)
	all, err := reopened.AllHints()
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = os.Stat(filepath.Join(dir, "manifest.yaml"))
	assert.NoError(t, err)
}
