package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/toyz/meld/internal/cli"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/scanner"
)

func newHintsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hints",
		Short: "Inspect recorded hints",
	}
	cmd.AddCommand(newHintsListCmd(a), newHintsScopesCmd(a))
	return cmd
}

func newHintsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every visible hint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(nil)
			if err != nil {
				return err
			}
			store, err := openHintReader(cfg)
			if err != nil {
				return err
			}
			all, err := store.AllHints()
			if err != nil {
				return err
			}
			cmd.Print(renderHints(all))
			return nil
		},
	}
}

func newHintsScopesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "Check hint groups and count contributions per scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(nil)
			if err != nil {
				return err
			}
			store, err := openHintReader(cfg)
			if err != nil {
				return err
			}

			s := scanner.New(store, slog.New(slog.DiscardHandler))
			scopes, err := s.Scopes()
			if err != nil {
				cli.NewDiagnosticReporterTo(cmd.ErrOrStderr(), cfg.Verbose).ReportError(err)
				return err
			}

			var buf bytes.Buffer
			table := tablewriter.NewWriter(&buf)
			table.SetHeader([]string{"Scope", "Bindings", "Multibindings", "Modules", "Subcomponents"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			for _, scope := range scopes {
				row := []string{scope.String()}
				for _, kind := range []models.Kind{models.KindBinding, models.KindMultibinding, models.KindModule, models.KindSubcomponent} {
					found, err := s.FindContributions(scope, kind)
					if err != nil {
						return err
					}
					row = append(row, strconv.Itoa(len(found)))
				}
				table.Append(row)
			}
			table.SetFooter([]string{fmt.Sprintf("Total Scopes %d", len(scopes)), "", "", "", ""})
			table.Render()
			cmd.Print(buf.String())
			return nil
		},
	}
}

// openHintReader opens the hint directory and every include read-only
func openHintReader(cfg cli.Config) (hints.Reader, error) {
	local, err := hints.OpenReadOnlyFileStore(cfg.HintsDir)
	if err != nil {
		return nil, err
	}
	if len(cfg.HintIncludes) == 0 {
		return local, nil
	}

	layers := make([]hints.Reader, 0, len(cfg.HintIncludes))
	for _, dir := range cfg.HintIncludes {
		store, err := hints.OpenReadOnlyFileStore(dir)
		if err != nil {
			return nil, err
		}
		layers = append(layers, store)
	}
	return hints.NewLayeredStore(local, layers...), nil
}

func renderHints(all []models.Hint) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Identity", "Kind", "Role", "Scope"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	groups := make(map[string]struct{})
	for _, h := range all {
		groups[h.Group] = struct{}{}
		table.Append([]string{h.Identity.String(), h.Kind.String(), h.Role.String(), h.Scope.String()})
	}
	table.SetFooter([]string{fmt.Sprintf("Total Hints %d", len(all)), "", "", fmt.Sprintf("%d groups", len(groups))})
	table.Render()
	return buf.String()
}
