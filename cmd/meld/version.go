package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/toyz/meld/internal/hints"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the hint format and the Go version used to build meld.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("hint format\t", hints.FormatVersion)

			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
				return
			}
			cmd.Println("tool version\t", info.Main.Version)
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}
