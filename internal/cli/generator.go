package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/toyz/meld/internal/emitter"
	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/scheduler"
	"github.com/toyz/meld/internal/symbols"
	"github.com/toyz/meld/internal/utils"
)

// GenerationSummary describes the outcome of one generate run
type GenerationSummary struct {
	ModuleName        string
	PackagesProcessed int
	HintsRecorded     int
	Generations       int
	RootsComposed     int
	GeneratedFiles    []string
	Duration          time.Duration
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithRegisterer registers the scheduler metrics with reg
func WithRegisterer(reg prometheus.Registerer) GeneratorOption {
	return func(g *Generator) {
		g.registerer = reg
	}
}

// WithGeneratorLogger sets the structured logger shared by every stage
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator coordinates a generate run: scanning, hint recording,
// scheduling and emission
type Generator struct {
	diagnostics *utils.DiagnosticSystem
	logger      *slog.Logger
	registerer  prometheus.Registerer
	summary     GenerationSummary
}

// NewGenerator creates a generator reporting progress to diagnostics
func NewGenerator(diagnostics *utils.DiagnosticSystem, opts ...GeneratorOption) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	g := &Generator{
		diagnostics: diagnostics,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run executes a complete generate run
func (g *Generator) Run(ctx context.Context, cfg Config) error {
	started := time.Now()
	g.summary = GenerationSummary{}
	d := g.diagnostics

	if err := cfg.Validate(); err != nil {
		return err
	}

	d.PhaseHeader("Resolving module")
	resolver := NewModuleResolver(nil, cfg.ModuleName)
	moduleName, err := resolver.ResolveModuleName()
	if err != nil {
		return err
	}
	g.summary.ModuleName = moduleName
	d.PhaseItem(moduleName)

	d.PhaseHeader("Scanning packages")
	reader := utils.NewFileReader()
	reader.SetLogger(g.logger)
	files := utils.NewFileProcessorWithReader(reader, cfg.Suffix)
	packageDirs, err := NewDirectoryScanner(files).ScanDirectories(cfg.Directories)
	if err != nil {
		return err
	}
	if len(packageDirs) == 0 {
		return errors.ConfigurationError(DirsKey, fmt.Sprintf("no Go packages found in %v", cfg.Directories)).
			WithSuggestion("use a recursive pattern such as ./...")
	}
	for _, dir := range packageDirs {
		d.Verbose("package %s", dir)
	}
	g.summary.PackagesProcessed = len(packageDirs)
	d.PhaseItem(fmt.Sprintf("%d packages", len(packageDirs)))

	loader := symbols.NewLoader(resolver,
		symbols.WithWorkers(cfg.Workers),
		symbols.WithFileProcessor(files),
		symbols.WithLogger(g.logger))
	source, err := loader.Load(ctx, packageDirs)
	if err != nil {
		return err
	}

	d.PhaseHeader("Merging contributions")
	store, err := g.openStore(cfg)
	if err != nil {
		return err
	}

	emit := emitter.New(
		emitter.WithSuffix(cfg.Suffix),
		emitter.WithDryRun(cfg.DryRun),
		emitter.WithLogger(g.logger))
	sched := scheduler.New(store,
		scheduler.WithEmitter(emit),
		scheduler.WithMetrics(scheduler.NewMetrics(g.registerer)),
		scheduler.WithLogger(g.logger))

	result, err := sched.Run(ctx, scheduler.NewSliceFeed(source))
	if result != nil {
		g.summary.Generations = result.Generations
		g.summary.HintsRecorded = result.HintsRecorded
		for _, root := range result.Roots {
			if root.State == scheduler.Done {
				g.summary.RootsComposed++
			}
		}
	}
	for _, f := range emit.Files() {
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, f.Path)
	}
	g.summary.Duration = time.Since(started)
	if err != nil {
		return err
	}

	for _, f := range emit.Files() {
		if cfg.DryRun {
			d.PhaseItem("would write " + f.Path)
		} else {
			d.PhaseItem(f.Path)
		}
	}
	g.logger.Info("generation finished",
		"module", moduleName,
		"packages", g.summary.PackagesProcessed,
		"generations", g.summary.Generations,
		"roots", g.summary.RootsComposed,
		"files", len(g.summary.GeneratedFiles),
		"duration", g.summary.Duration)
	return nil
}

// openStore rebuilds the hint directory and layers the included ones below it
func (g *Generator) openStore(cfg Config) (hints.Store, error) {
	local, err := hints.OpenFileStore(cfg.HintsDir, hints.WithLogger(g.logger))
	if err != nil {
		return nil, err
	}
	if err := local.Clear(); err != nil {
		return nil, err
	}

	includes := make([]hints.Reader, 0, len(cfg.HintIncludes))
	for _, dir := range cfg.HintIncludes {
		store, err := hints.OpenReadOnlyFileStore(dir, hints.WithLogger(g.logger))
		if err != nil {
			return nil, err
		}
		g.diagnostics.Verbose("including hints from %s", dir)
		includes = append(includes, store)
	}
	if len(includes) == 0 {
		return local, nil
	}
	return hints.NewLayeredStore(local, includes...), nil
}

// PrintSummary reports the last run through the diagnostic system
func (g *Generator) PrintSummary() {
	s := g.summary
	g.diagnostics.Summary("Generation Summary", map[string]interface{}{
		"Module":          s.ModuleName,
		"Packages":        s.PackagesProcessed,
		"Generations":     s.Generations,
		"Hints recorded":  s.HintsRecorded,
		"Roots composed":  s.RootsComposed,
		"Generated files": len(s.GeneratedFiles),
		"Duration":        s.Duration.Round(time.Millisecond).String(),
	})
}
