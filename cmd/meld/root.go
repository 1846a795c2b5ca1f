package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/toyz/meld/internal/cli"
)

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan exactly these directories`

const rootLongDescription = `meld merges contributions declared with //meld:: markers across
packages and generates one dependency container per merge root and
subcomponent.

Settings are read from meld.yaml, MELD_* environment variables and flags,
in increasing order of precedence.`

// app carries the state shared by every command of one invocation
type app struct {
	v         *viper.Viper
	configDir string
}

func newRootCmd() *cobra.Command {
	a := &app{v: cli.NewViper(".")}

	cmd := &cobra.Command{
		Use:           "meld",
		Short:         "Compile-time dependency container generator",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if a.configDir != "." {
				a.v.AddConfigPath(a.configDir)
			}
			return cli.ReadConfigFile(a.v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	configureRootFlags(a, cmd)

	cmd.AddCommand(
		newGenerateCmd(a),
		newCleanCmd(a),
		newHintsCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func configureRootFlags(a *app, cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&a.configDir, "config-dir", ".", "directory holding meld.yaml")
	flags.String("module", "", "module path overriding the one in go.mod")
	a.bindFlag(flags.Lookup("module"), cli.ModuleKey)

	flags.String("hints-dir", cli.DefaultHintsDir, "directory receiving the hints of this module")
	a.bindFlag(flags.Lookup("hints-dir"), cli.HintsDirKey)

	flags.StringArray("hints-include", nil, "read-only hint directory of another module (can be repeated)")
	a.bindFlag(flags.Lookup("hints-include"), cli.HintsIncludeKey)

	flags.String("suffix", "", "file name suffix of generated containers")
	a.bindFlag(flags.Lookup("suffix"), cli.OutputSuffixKey)

	flags.BoolP("verbose", "v", false, "show detailed progress")
	a.bindFlag(flags.Lookup("verbose"), cli.VerboseKey)

	flags.BoolP("quiet", "q", false, "only report errors")
	a.bindFlag(flags.Lookup("quiet"), cli.QuietKey)

	flags.String("log-file", "", "write structured logs to this file")
	a.bindFlag(flags.Lookup("log-file"), cli.LogFileKey)

	flags.String("log-level", cli.DefaultLogLevel, "structured log level (debug, info, warn, error)")
	a.bindFlag(flags.Lookup("log-level"), cli.LogLevelKey)

	flags.Int("workers", 0, "packages parsed concurrently (0 uses every CPU)")
	a.bindFlag(flags.Lookup("workers"), cli.WorkersKey)
}

// bindFlag wires a cobra flag to a viper key so config and env values feed it
func (a *app) bindFlag(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(a.v.BindPFlag(key, flag))
}

// config loads the run configuration, letting positional args replace dirs
func (a *app) config(args []string) (cli.Config, error) {
	if len(args) > 0 {
		a.v.Set(cli.DirsKey, args)
	}
	return cli.LoadConfig(a.v)
}
