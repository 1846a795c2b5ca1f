package utils

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileProcessor_ScanPackageDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "app.go"), "package app\n")
	writeFile(t, filepath.Join(root, "app", "scope_meld.go"), "package app\n")
	writeFile(t, filepath.Join(root, "only_tests", "x_test.go"), "package only\n")
	writeFile(t, filepath.Join(root, "only_generated", "a_meld.go"), "package gen\n")
	writeFile(t, filepath.Join(root, "vendor", "dep", "dep.go"), "package dep\n")
	writeFile(t, filepath.Join(root, "_examples", "ex", "ex.go"), "package ex\n")
	writeFile(t, filepath.Join(root, "net", "client.go"), "package net\n")

	fp := NewFileProcessor()
	dirs, err := fp.ScanPackageDirectories([]string{root, root})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "app"),
		filepath.Join(root, "net"),
	}, dirs)

	files, err := fp.SourceFiles(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "app", "app.go")}, files)
}

func TestFileProcessor_CleanDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "app.go"), "package app\n")
	writeFile(t, filepath.Join(root, "app", "appscope_meld.go"), "package app\n")
	writeFile(t, filepath.Join(root, "app", "sub", "request_meld.go"), "package sub\n")

	fp := NewFileProcessorWithReader(NewFileReader(), "")
	removed, err := fp.CleanDirectories([]string{root})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "app", "appscope_meld.go"),
		filepath.Join(root, "app", "sub", "request_meld.go"),
	}, removed)

	_, err = os.Stat(filepath.Join(root, "app", "app.go"))
	assert.NoError(t, err)
}

func TestFileReader_ParseGoFileCaches(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	writeFile(t, path, "package a\n\ntype A struct{}\n")

	reader := NewFileReader()
	first, err := reader.ParseGoFile(path)
	require.NoError(t, err)
	second, err := reader.ParseGoFile(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	astStats, _ := reader.CacheStats()
	assert.Equal(t, int64(1), astStats.Hits)

	_, err = reader.ParseGoFile(filepath.Join(root, "missing.go"))
	assert.Error(t, err)

	_, err = reader.ParseGoFile("")
	assert.Error(t, err)
}

func TestReadThrough_LogsUncachedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.go")
	writeFile(t, path, "package gone\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cache := NewCache[string, string]()

	value, err := readThrough(cache, path, logger, func(data []byte) (string, error) {
		require.NoError(t, os.Remove(path))
		return string(data), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "package gone\n", value)
	assert.Equal(t, 0, cache.Len())
	assert.Contains(t, logs.String(), "file not cached")
	assert.Contains(t, logs.String(), "gone.go")
}

func TestGoModParser_ImportPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/shop\n\ngo 1.22\n")
	writeFile(t, filepath.Join(root, "internal", "cart", "cart.go"), "package cart\n")

	parser := NewGoModParser(NewFileReader())

	name, err := parser.ParseModuleName(filepath.Join(root, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", name)

	path, err := parser.ImportPath(filepath.Join(root, "internal", "cart"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop/internal/cart", path)

	path, err = parser.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", path)

	_, err = parser.ParseModuleName(filepath.Join(root, "internal", "cart", "cart.go"))
	assert.Error(t, err)
}

func TestGoModParser_FindModuleIsMemoized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/shop\n")
	writeFile(t, filepath.Join(root, "internal", "cart", "cart.go"), "package cart\n")

	parser := NewGoModParser(NewFileReader())
	dir := filepath.Join(root, "internal", "cart")

	mod, err := parser.FindModule(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", mod.Path)
	assert.Equal(t, root, mod.Root)

	require.NoError(t, os.Remove(filepath.Join(root, "go.mod")))
	again, err := parser.FindModule(dir)
	require.NoError(t, err)
	assert.Equal(t, mod, again)
}

func TestFormatSource(t *testing.T) {
	src := []byte("package x\nimport \"fmt\"\ntype   T struct{A int}\n")
	out, err := FormatSource("x.go", src)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "fmt")
	assert.Contains(t, string(out), "type T struct{ A int }")

	_, err = FormatSource("bad.go", []byte("package x\nfunc {"))
	assert.Error(t, err)
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticWarn)
	d.SetOutput(&out, &errOut)

	d.Info("hidden")
	d.Warn("careful %d", 1)
	d.Error("broken")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "careful 1")
	assert.Contains(t, errOut.String(), "broken")
}

func TestDiagnosticSystem_SummaryIsSorted(t *testing.T) {
	var out bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticInfo)
	d.SetOutput(&out, &out)

	d.Summary("Done", map[string]interface{}{"roots": 2, "generations": 3, "hints": 9})

	text := out.String()
	g := bytes.Index([]byte(text), []byte("generations"))
	h := bytes.Index([]byte(text), []byte("hints"))
	r := bytes.Index([]byte(text), []byte("roots"))
	assert.True(t, g < h && h < r, text)
}
