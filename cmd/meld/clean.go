package main

import (
	"github.com/spf13/cobra"

	"github.com/toyz/meld/internal/cli"
)

func newCleanCmd(a *app) *cobra.Command {
	var withHints bool

	cmd := &cobra.Command{
		Use:   "clean [paths...]",
		Short: "Remove generated containers",
		Long:  "Remove every generated container below the given paths.\n\n" + pathPatternsHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(args)
			if err != nil {
				return err
			}

			cleaner := cli.NewCleaner(cfg.Suffix)
			removed, err := cleaner.CleanGeneratedFiles(cfg.Directories)
			if err != nil {
				return err
			}
			if !cfg.Quiet {
				for _, f := range removed {
					cmd.Println("removed", f)
				}
				cmd.Printf("%d generated files removed\n", len(removed))
			}

			if withHints {
				if err := cleaner.CleanHints(cfg.HintsDir); err != nil {
					return err
				}
				if !cfg.Quiet {
					cmd.Println("cleared hints in", cfg.HintsDir)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withHints, "hints", false, "also clear the hint directory")
	return cmd
}
