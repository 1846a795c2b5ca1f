package utils

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// DiagnosticLevel selects how much user facing output is printed
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// tag is the bracketed prefix of a leveled message
type tag struct {
	label string
	attr  color.Attribute
}

var tags = map[DiagnosticLevel]tag{
	DiagnosticError:   {"ERROR", color.FgRed},
	DiagnosticWarn:    {"WARN", color.FgYellow},
	DiagnosticInfo:    {"INFO", color.FgBlue},
	DiagnosticVerbose: {"VERBOSE", color.FgHiBlack},
	DiagnosticDebug:   {"DEBUG", color.FgMagenta},
}

// DiagnosticSystem prints progress and problems of a run for humans.
// Structured logs go through slog instead.
type DiagnosticSystem struct {
	level    DiagnosticLevel
	colors   bool
	stamps   bool
	output   io.Writer
	errorOut io.Writer
}

func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:    level,
		colors:   shouldUseColors(),
		stamps:   level >= DiagnosticVerbose,
		output:   os.Stdout,
		errorOut: os.Stderr,
	}
}

// SetOutput redirects standard and error output
func (d *DiagnosticSystem) SetOutput(out, errOut io.Writer) {
	d.output = out
	d.errorOut = errOut
}

func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

func (d *DiagnosticSystem) enabled(level DiagnosticLevel) bool {
	return d.level >= level
}

// paint renders s in attr when colors are on
func (d *DiagnosticSystem) paint(attr color.Attribute, s string) string {
	if !d.colors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func (d *DiagnosticSystem) leveled(level DiagnosticLevel, format string, args ...interface{}) {
	if !d.enabled(level) {
		return
	}
	w := d.output
	if level == DiagnosticError {
		w = d.errorOut
	}
	var stamp string
	if d.stamps {
		stamp = time.Now().Format("15:04:05 ")
	}
	t := tags[level]
	fmt.Fprintf(w, "%s%s %s\n", stamp, d.paint(t.attr, "["+t.label+"]"), fmt.Sprintf(format, args...))
}

// Error is shown unless silent and goes to the error output
func (d *DiagnosticSystem) Error(format string, args ...interface{}) {
	d.leveled(DiagnosticError, format, args...)
}

func (d *DiagnosticSystem) Warn(format string, args ...interface{}) {
	d.leveled(DiagnosticWarn, format, args...)
}

func (d *DiagnosticSystem) Info(format string, args ...interface{}) {
	d.leveled(DiagnosticInfo, format, args...)
}

func (d *DiagnosticSystem) Verbose(format string, args ...interface{}) {
	d.leveled(DiagnosticVerbose, format, args...)
}

func (d *DiagnosticSystem) Debug(format string, args ...interface{}) {
	d.leveled(DiagnosticDebug, format, args...)
}

// Header opens the output of a command
func (d *DiagnosticSystem) Header(message string) {
	if d.enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output, d.paint(color.FgCyan, "meld: "+message))
	}
}

// PhaseHeader names a step of the run, such as scanning or emitting
func (d *DiagnosticSystem) PhaseHeader(phase string) {
	if d.enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output, d.paint(color.FgBlue, phase+":"))
	}
}

// PhaseItem reports one finished piece of the current phase
func (d *DiagnosticSystem) PhaseItem(message string) {
	if d.enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "%s %s\n", d.paint(color.FgGreen, "✓"), message)
	}
}

// Summary prints title and stats ordered by key
func (d *DiagnosticSystem) Summary(title string, stats map[string]interface{}) {
	if !d.enabled(DiagnosticInfo) {
		return
	}
	fmt.Fprintf(d.output, "\n%s\n", title)
	for _, key := range slices.Sorted(maps.Keys(stats)) {
		fmt.Fprintf(d.output, "   %s: %v\n", key, stats[key])
	}
	fmt.Fprintln(d.output)
}

func (d *DiagnosticSystem) GenerationComplete() {
	if d.enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "\n%s\n", d.paint(color.FgGreen, "meld: generation complete"))
	}
}

// shouldUseColors honors NO_COLOR and FORCE_COLOR, then asks whether stdout
// is a terminal
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if term := os.Getenv("TERM"); term == "" || term == "dumb" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
