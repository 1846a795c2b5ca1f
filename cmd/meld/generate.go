package main

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/toyz/meld/internal/cli"
	"github.com/toyz/meld/internal/utils"
)

const generateLongDescription = `Scan the given packages for //meld:: markers, record their hints and
generate a container for every merge root once all of its contributions
are known.

` + pathPatternsHelp

func newGenerateCmd(a *app) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Generate dependency containers",
		Long:  generateLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(args)
			if err != nil {
				cli.NewDiagnosticReporterTo(cmd.ErrOrStderr(), false).ReportError(err)
				return err
			}

			logger, closeLog := configureLogger(cfg)
			defer closeLog()

			diagnostics := utils.NewDiagnosticSystem(cfg.DiagnosticLevel())
			diagnostics.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
			diagnostics.Header("generating containers")

			reg := prometheus.NewRegistry()
			generator := cli.NewGenerator(diagnostics,
				cli.WithRegisterer(reg),
				cli.WithGeneratorLogger(logger))

			if err := generator.Run(cmd.Context(), cfg); err != nil {
				cli.NewDiagnosticReporterTo(cmd.ErrOrStderr(), cfg.Verbose).ReportError(err)
				return err
			}

			generator.PrintSummary()
			if showMetrics {
				table, err := renderMetrics(reg)
				if err != nil {
					return err
				}
				cmd.Print(table)
			}
			diagnostics.GenerationComplete()
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "render containers without writing them")
	a.bindFlag(cmd.Flags().Lookup("dry-run"), cli.DryRunKey)
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print scheduler metrics after the run")

	return cmd
}

// renderMetrics prints every gathered counter, gauge and histogram count
func renderMetrics(reg *prometheus.Registry) (string, error) {
	families, err := reg.Gather()
	if err != nil {
		return "", err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, f := range families {
		for _, m := range f.GetMetric() {
			var value string
			switch {
			case m.GetCounter() != nil:
				value = fmt.Sprintf("%g", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				value = fmt.Sprintf("%g", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("%d samples, %.3fs", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			table.Append([]string{f.GetName(), value})
		}
	}
	table.Render()
	return buf.String(), nil
}
