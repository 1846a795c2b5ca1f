package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/utils"
)

// Configuration keys. Nested keys map to MELD_HINTS_DIR style variables.
const (
	ModuleKey       = "module"
	DirsKey         = "dirs"
	HintsDirKey     = "hints.dir"
	HintsIncludeKey = "hints.include"
	OutputSuffixKey = "output.suffix"
	DryRunKey       = "output.dry_run"
	VerboseKey      = "verbose"
	QuietKey        = "quiet"
	LogFileKey      = "log.file"
	LogLevelKey     = "log.level"
	WorkersKey      = "workers"
)

const (
	ConfigBaseName  = "meld"
	EnvPrefix       = "MELD"
	DefaultHintsDir = ".meld/hints"
	DefaultLogLevel = "info"
)

// Config holds the configuration for a generation run
type Config struct {
	// Directories to scan; "dir/..." scans recursively
	Directories []string

	// ModuleName overrides the module path read from go.mod
	ModuleName string

	// HintsDir is rebuilt from scratch on every generate run
	HintsDir string

	// HintIncludes are read-only hint directories shipped by other modules
	HintIncludes []string

	// Suffix names emitted container files
	Suffix string

	// DryRun renders containers without writing them
	DryRun bool

	Verbose bool
	Quiet   bool

	// LogFile receives structured logs; empty discards them
	LogFile  string
	LogLevel string

	// Workers bounds concurrent package parsing; 0 uses GOMAXPROCS
	Workers int
}

// NewViper creates a viper instance reading meld.yaml from dir and MELD_
// environment variables, with every default set
func NewViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigBaseName)
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(ModuleKey, "")
	v.SetDefault(DirsKey, []string{"./..."})
	v.SetDefault(HintsDirKey, DefaultHintsDir)
	v.SetDefault(HintsIncludeKey, []string{})
	v.SetDefault(OutputSuffixKey, utils.DefaultGeneratedSuffix)
	v.SetDefault(DryRunKey, false)
	v.SetDefault(VerboseKey, false)
	v.SetDefault(QuietKey, false)
	v.SetDefault(LogFileKey, "")
	v.SetDefault(LogLevelKey, DefaultLogLevel)
	v.SetDefault(WorkersKey, 0)
}

// ReadConfigFile reads meld.yaml if there is one. A missing file is not an error.
func ReadConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return nil
		}
		return errors.WrapConfigurationError(ConfigBaseName+".yaml", "read", err)
	}
	return nil
}

// LoadConfig builds and validates a Config from v
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Directories:  v.GetStringSlice(DirsKey),
		ModuleName:   v.GetString(ModuleKey),
		HintsDir:     v.GetString(HintsDirKey),
		HintIncludes: v.GetStringSlice(HintsIncludeKey),
		Suffix:       v.GetString(OutputSuffixKey),
		DryRun:       v.GetBool(DryRunKey),
		Verbose:      v.GetBool(VerboseKey),
		Quiet:        v.GetBool(QuietKey),
		LogFile:      v.GetString(LogFileKey),
		LogLevel:     v.GetString(LogLevelKey),
		Workers:      v.GetInt(WorkersKey),
	}
	return cfg, cfg.Validate()
}

// Validate checks the combination of settings
func (c Config) Validate() error {
	if len(c.Directories) == 0 {
		return errors.ConfigurationError(DirsKey, "at least one directory is required")
	}
	if !strings.HasSuffix(c.Suffix, ".go") || strings.HasSuffix(c.Suffix, "_test.go") {
		return errors.ConfigurationError(OutputSuffixKey, "suffix must end in .go and must not name test files").
			WithSuggestion("use the default " + utils.DefaultGeneratedSuffix)
	}
	if c.HintsDir == "" {
		return errors.ConfigurationError(HintsDirKey, "a hint directory is required")
	}
	if c.Workers < 0 {
		return errors.ConfigurationError(WorkersKey, "workers must not be negative")
	}
	if c.Verbose && c.Quiet {
		return errors.ConfigurationError(VerboseKey, "verbose and quiet are mutually exclusive")
	}
	return nil
}

// DiagnosticLevel maps the verbosity flags to a diagnostic level
func (c Config) DiagnosticLevel() utils.DiagnosticLevel {
	switch {
	case c.Quiet:
		return utils.DiagnosticError
	case c.Verbose:
		return utils.DiagnosticVerbose
	default:
		return utils.DiagnosticInfo
	}
}
