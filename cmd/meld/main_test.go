package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/meld/internal/cli"
)

const appSource = `package app

type AppScope struct{}

//meld::merge AppScope
type AppComponent interface{}

type Clock interface{ Now() int64 }

//meld::binding AppScope
type SystemClock struct{}

func (SystemClock) Now() int64 { return 0 }

var _ Clock = SystemClock{}
`

func setupModule(t *testing.T) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	root := t.TempDir()
	files := map[string]string{
		filepath.Join(root, "go.mod"):         "module example.com/clock\n\ngo 1.25\n",
		filepath.Join(root, "app", "app.go"): appSource,
	}
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(root)
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd_Output(t *testing.T) {
	output, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, output, "hint format")
	if strings.Contains(output, "version: unknown") {
		return
	}
	assert.Contains(t, output, "tool version")
	assert.Contains(t, output, "go version")
}

func TestGenerateCmd(t *testing.T) {
	root := setupModule(t)

	output, err := execute(t, "generate", "./...", "--metrics")
	require.NoError(t, err)

	generated := filepath.Join(root, "app", "app_component_meld.go")
	assert.FileExists(t, generated)
	assert.Contains(t, output, "Generation Summary")
	assert.Contains(t, output, "meld_roots_composed_total")

	content, err := os.ReadFile(generated)
	require.NoError(t, err)
	assert.Contains(t, string(content), "func (m *AppComponentMeld) Clock() Clock {")
}

func TestGenerateCmd_CoffeeExample(t *testing.T) {
	example, err := filepath.Abs(filepath.Join("..", "..", "examples", "coffee"))
	require.NoError(t, err)
	hintsDir := t.TempDir()
	t.Chdir(example)

	output, err := execute(t, "generate", "--dry-run", "--hints-dir", hintsDir)
	require.NoError(t, err)
	assert.Contains(t, output, "would write "+filepath.Join(example, "coffee_app_meld.go"))
	assert.Contains(t, output, "would write "+filepath.Join(example, "coffee_app_order_component_meld.go"))
	assert.NoFileExists(t, filepath.Join(example, "coffee_app_meld.go"))
}

func TestGenerateCmd_DryRunFromConfigFile(t *testing.T) {
	root := setupModule(t)
	config := "output:\n  dry_run: true\n  suffix: _di.go\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "meld.yaml"), []byte(config), 0o644))

	output, err := execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, output, "would write")
	assert.NoFileExists(t, filepath.Join(root, "app", "app_component_di.go"))
}

func TestGenerateCmd_InvalidConfig(t *testing.T) {
	setupModule(t)

	output, err := execute(t, "generate", "--suffix", "_meld.txt")
	require.Error(t, err)
	assert.Contains(t, output, "ConfigurationError")
}

func TestCleanCmd(t *testing.T) {
	root := setupModule(t)
	_, err := execute(t, "generate")
	require.NoError(t, err)

	output, err := execute(t, "clean", "--hints")
	require.NoError(t, err)
	assert.Contains(t, output, "1 generated files removed")
	assert.NoFileExists(t, filepath.Join(root, "app", "app_component_meld.go"))
	assert.Contains(t, output, "cleared hints in")
}

func TestHintsCmds(t *testing.T) {
	setupModule(t)
	_, err := execute(t, "generate", "-q")
	require.NoError(t, err)

	output, err := execute(t, "hints", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "example.com/clock/app.SystemClock")
	assert.Contains(t, output, "example.com/clock/app.AppScope")

	output, err = execute(t, "hints", "scopes")
	require.NoError(t, err)
	assert.Contains(t, output, "example.com/clock/app.AppScope")
	assert.Contains(t, strings.ToUpper(output), "TOTAL SCOPES")
}

func TestHintsCmd_MissingDirectory(t *testing.T) {
	setupModule(t)
	_, err := execute(t, "hints", "list", "--hints-dir", "nowhere")
	assert.Error(t, err)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value    string
		expected slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARNING ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meld.log")
	logger, closeLog := configureLogger(cli.Config{LogFile: path, LogLevel: "debug"})
	logger.Debug("hello", "key", "value")
	require.NoError(t, closeLog())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "msg=hello")
	assert.Contains(t, string(content), "key=value")

	discard, closeDiscard := configureLogger(cli.Config{})
	discard.Info("dropped")
	assert.NoError(t, closeDiscard())
}
