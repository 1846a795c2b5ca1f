package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/meld/internal/errors"
)

// DiagnosticReporter renders errors for people reading a terminal
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return NewDiagnosticReporterTo(os.Stderr, verbose)
}

// NewDiagnosticReporterTo creates a reporter writing to out
func NewDiagnosticReporterTo(out io.Writer, verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: out}
}

// ReportWarning prints a single warning line
func (r *DiagnosticReporter) ReportWarning(message string, suggestions ...string) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
	for _, s := range suggestions {
		fmt.Fprintf(r.out, "   - %s\n", s)
	}
}

// ReportError prints err with everything it carries
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(r.out, "\nERROR: Generation Failed\n")
	fmt.Fprintf(r.out, "========================\n\n")

	var multi *errors.MultipleErrors
	if stderrors.As(err, &multi) && !multi.IsEmpty() {
		if multi.Count() == 1 {
			r.reportMeldError(multi.Errors[0])
			return
		}
		fmt.Fprintf(r.out, "%d errors\n\n", multi.Count())
		for i, e := range multi.Errors {
			fmt.Fprintf(r.out, "[%d/%d]\n", i+1, multi.Count())
			r.reportMeldError(e)
		}
		return
	}

	var meldErr errors.MeldError
	if stderrors.As(err, &meldErr) {
		r.reportMeldError(meldErr)
		if r.verbose {
			r.printChain(err)
		}
		return
	}
	fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	if r.verbose {
		r.printChain(err)
	}
}

func (r *DiagnosticReporter) reportMeldError(err errors.MeldError) {
	code := err.ErrorCode()
	title := code.String()
	fmt.Fprintf(r.out, "Type: %s\n", title)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(title)+6))

	fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())

	if loc := err.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n\n", loc.String())
	}

	if c, ok := err.(errors.Conflicting); ok {
		r.printConflicts(c)
	}

	if ctx := err.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}

	if suggestions := err.Suggestions(); len(suggestions) > 0 {
		r.printSuggestions(suggestions)
	}

	if code.IsMergeError() {
		r.printMergeHelp(code)
	}
}

func (r *DiagnosticReporter) printConflicts(c errors.Conflicting) {
	if id := c.OffendingIdentity(); id != "" {
		fmt.Fprintf(r.out, "Offending: %s\n", id)
	}
	if conflicts := c.ConflictingIdentities(); len(conflicts) > 0 {
		fmt.Fprintf(r.out, "Conflicts with:\n")
		for _, id := range conflicts {
			fmt.Fprintf(r.out, "   - %s\n", id)
		}
	}
	fmt.Fprintln(r.out)
}

// printContext prints context entries sorted by key
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	fmt.Fprintf(r.out, "Context:\n")
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(k), context[k])
	}
	fmt.Fprintln(r.out)
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "      %s\n", line)
			}
		}
	}
	fmt.Fprintln(r.out)
}

func (r *DiagnosticReporter) printMergeHelp(code errors.ErrorCode) {
	var lines []string
	switch code {
	case errors.MalformedHintErrorCode:
		lines = []string{
			"Every contribution needs one reference hint and at least one scope hint",
			"Delete the hint directory and run generate again",
		}
	case errors.AmbiguousBindingErrorCode:
		lines = []string{
			"Give one contribution a higher -Rank, or",
			"list the others in its -Replaces",
		}
	case errors.DuplicateMapKeyErrorCode:
		lines = []string{"Keys within one map multibinding must be distinct"}
	case errors.MalformedFactoryErrorCode:
		lines = []string{
			"A subcomponent factory is an interface with exactly one method",
			"returning the subcomponent",
		}
	case errors.ExplicitParentParameterErrorCode:
		lines = []string{"The parent container is passed implicitly; remove the parameter"}
	case errors.UnresolvedMergeErrorCode:
		lines = []string{
			"A merge root stayed deferred while no new contributions appeared",
			"Check that every referenced scope and dependency is generated",
		}
	case errors.ScopeCycleErrorCode:
		lines = []string{"A subcomponent may not be reachable from its own scope"}
	case errors.MissingSupertypeErrorCode:
		lines = []string{"Set -Bound when the implementation asserts several interfaces"}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(r.out, "Help:\n")
	for _, l := range lines {
		fmt.Fprintf(r.out, "  - %s\n", l)
	}
	fmt.Fprintln(r.out)
}

// printChain lists every wrapped error below err
func (r *DiagnosticReporter) printChain(err error) {
	fmt.Fprintf(r.out, "Error Chain:\n")
	for level := 1; err != nil; level++ {
		fmt.Fprintf(r.out, "    %d. %s\n", level, err.Error())
		err = stderrors.Unwrap(err)
	}
	fmt.Fprintln(r.out)
}

// ReportSuccess prints the generated files of summary
func (r *DiagnosticReporter) ReportSuccess(summary GenerationSummary) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(r.out, "\nGeneration completed\n")
	fmt.Fprintf(r.out, "Processed %d packages in %d generations\n", summary.PackagesProcessed, summary.Generations)
	fmt.Fprintf(r.out, "Composed %d merge roots\n", summary.RootsComposed)
	if len(summary.GeneratedFiles) > 0 {
		fmt.Fprintf(r.out, "\nGenerated files:\n")
		for _, file := range summary.GeneratedFiles {
			fmt.Fprintf(r.out, "  - %s\n", file)
		}
	}
}
