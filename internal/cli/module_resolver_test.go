package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGoMod = `module github.com/example/testapp

go 1.25

require github.com/stretchr/testify v1.10.0
`

func TestModuleResolver_ResolveModuleName(t *testing.T) {
	t.Run("custom module name provided", func(t *testing.T) {
		resolver := NewModuleResolver(nil, "github.com/custom/module")
		name, err := resolver.ResolveModuleName()
		require.NoError(t, err)
		assert.Equal(t, "github.com/custom/module", name)
	})

	t.Run("read from go.mod above the working directory", func(t *testing.T) {
		tempDir := t.TempDir()
		writeFiles(t, map[string]string{
			filepath.Join(tempDir, "go.mod"):                testGoMod,
			filepath.Join(tempDir, "internal", "a", "a.go"): "package a\n",
		})
		t.Chdir(filepath.Join(tempDir, "internal", "a"))

		name, err := NewModuleResolver(nil, "").ResolveModuleName()
		require.NoError(t, err)
		assert.Equal(t, "github.com/example/testapp", name)
	})

	t.Run("no go.mod", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, err := NewModuleResolver(nil, "").ResolveModuleName()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "go.mod")
	})
}

func TestModuleResolver_ImportPath(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, map[string]string{
		filepath.Join(tempDir, "go.mod"):                  testGoMod,
		filepath.Join(tempDir, "internal", "app", "a.go"): "package app\n",
	})
	t.Chdir(tempDir)

	t.Run("from go.mod", func(t *testing.T) {
		path, err := NewModuleResolver(nil, "").ImportPath(filepath.Join(tempDir, "internal", "app"))
		require.NoError(t, err)
		assert.Equal(t, "github.com/example/testapp/internal/app", path)
	})

	t.Run("custom module", func(t *testing.T) {
		path, err := NewModuleResolver(nil, "example.com/other").ImportPath("internal/app")
		require.NoError(t, err)
		assert.Equal(t, "example.com/other/internal/app", path)
	})
}

func TestBuildPackagePath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		dir      string
		expected string
		wantErr  bool
	}{
		{name: "module root", dir: root, expected: "example.com/m"},
		{name: "nested", dir: filepath.Join(root, "a", "b"), expected: "example.com/m/a/b"},
		{name: "outside", dir: filepath.Dir(root), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := BuildPackagePath("example.com/m", root, tt.dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}
