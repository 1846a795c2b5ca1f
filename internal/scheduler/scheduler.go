// Package scheduler drives processing generations and decides when a merge
// root is safe to compose: only once no generation discovers new
// contributions any more.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/toyz/meld/internal/composer"
	"github.com/toyz/meld/internal/discovery"
	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/scanner"
	"github.com/toyz/meld/internal/symbols"
)

// State is the lifecycle position of a merge root
type State int

const (
	Pending State = iota
	Deferred
	Composing
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Deferred:
		return "deferred"
	case Composing:
		return "composing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Feed hands out one symbol source per generation
type Feed interface {
	// Next returns the source of the next generation. It returns false once
	// the feed is exhausted.
	Next(ctx context.Context) (symbols.Source, bool, error)
}

// SliceFeed yields its sources in order
type SliceFeed struct {
	sources []symbols.Source
}

// NewSliceFeed creates a feed over sources
func NewSliceFeed(sources ...symbols.Source) *SliceFeed {
	return &SliceFeed{sources: sources}
}

// Next returns the next source
func (f *SliceFeed) Next(ctx context.Context) (symbols.Source, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if len(f.sources) == 0 {
		return nil, false, nil
	}
	source := f.sources[0]
	f.sources = f.sources[1:]
	return source, true, nil
}

// Emitter turns composed containers into output. Emit is called once per
// container node of a root's tree, in pre-order.
type Emitter interface {
	Emit(root models.MergeRoot, node *models.ComposedContainer) error
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(root models.MergeRoot, node *models.ComposedContainer) error

// Emit calls f
func (f EmitterFunc) Emit(root models.MergeRoot, node *models.ComposedContainer) error {
	return f(root, node)
}

// Readiness reports whether a root may be composed in the current generation.
// A root that is not ready is deferred like one waiting for contributions.
type Readiness func(root models.MergeRoot) bool

// RootResult is the final state of one merge root
type RootResult struct {
	Root      models.MergeRoot
	State     State
	Container *models.ComposedContainer
	Deferrals int
}

// Result summarises a run
type Result struct {
	Generations   int
	HintsRecorded int
	Roots         []RootResult
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithEmitter sets the emitter composed trees are handed to
func WithEmitter(e Emitter) Option {
	return func(s *Scheduler) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithReadiness sets the readiness check
func WithReadiness(r Readiness) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.ready = r
		}
	}
}

// WithMetrics sets the metrics the scheduler updates
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type rootEntry struct {
	root      models.MergeRoot
	state     State
	container *models.ComposedContainer
	deferrals int
}

// Scheduler runs generations until every merge root is done
type Scheduler struct {
	store     hints.Store
	scanner   *scanner.Scanner
	composer  *composer.Composer
	extractor *discovery.Extractor
	emitter   Emitter
	ready     Readiness
	metrics   *Metrics
	logger    *slog.Logger

	roots []*rootEntry
	index map[models.Identity]*rootEntry
}

// New creates a scheduler recording hints in store
func New(store hints.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:   store,
		emitter: EmitterFunc(func(models.MergeRoot, *models.ComposedContainer) error { return nil }),
		ready:   func(models.MergeRoot) bool { return true },
		metrics: NewMetrics(nil),
		logger:  slog.New(slog.DiscardHandler),
		index:   make(map[models.Identity]*rootEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scanner = scanner.New(store, s.logger)
	s.composer = composer.New(s.scanner, s.logger)
	s.extractor = discovery.NewExtractor(s.logger)
	return s
}

// Scanner exposes the scanner shared by every generation
func (s *Scheduler) Scanner() *scanner.Scanner {
	return s.scanner
}

// Run processes generations from feed. Once the feed is exhausted empty
// generations follow until every root is done or a generation makes no
// progress while roots are still deferred.
func (s *Scheduler) Run(ctx context.Context, feed Feed) (*Result, error) {
	result := &Result{}
	exhausted := false

	for generation := 1; ; generation++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Generations = generation
		started := time.Now()

		var source symbols.Source
		if !exhausted {
			next, ok, err := feed.Next(ctx)
			if err != nil {
				return result, err
			}
			if ok {
				source = next
			} else {
				exhausted = true
			}
		}

		recorded, err := s.discover(source)
		if err != nil {
			return result, err
		}
		result.HintsRecorded += recorded
		s.scanner.Invalidate()

		if err := s.advance(generation, recorded); err != nil {
			return result, err
		}

		s.metrics.Generations.Inc()
		s.metrics.GenerationDuration.Observe(time.Since(started).Seconds())
		remaining := s.remaining()
		s.metrics.PendingRoots.Set(float64(remaining))
		s.logger.Debug("generation finished",
			"generation", generation,
			"hints", recorded,
			"remaining", remaining)

		if exhausted && remaining == 0 {
			break
		}
	}

	for _, entry := range s.roots {
		result.Roots = append(result.Roots, RootResult{
			Root:      entry.root,
			State:     entry.state,
			Container: entry.container,
			Deferrals: entry.deferrals,
		})
	}
	return result, nil
}

// discover extracts source, records its contributions and registers its
// roots. It returns the number of new hints.
func (s *Scheduler) discover(source symbols.Source) (int, error) {
	if source == nil {
		return 0, nil
	}

	extracted, err := s.extractor.Extract(source)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, c := range extracted.Contributions {
		n, err := s.store.Record(c)
		if err != nil {
			return recorded, err
		}
		recorded += n
	}
	s.metrics.HintsRecorded.Add(float64(recorded))

	for _, root := range extracted.Roots {
		if _, known := s.index[root.Identity]; known {
			continue
		}
		entry := &rootEntry{root: root, state: Pending}
		s.roots = append(s.roots, entry)
		s.index[root.Identity] = entry
	}
	return recorded, nil
}

// advance moves every root that is not done through one generation
func (s *Scheduler) advance(generation, recorded int) error {
	discovering := recorded > 0

	for _, entry := range s.roots {
		if entry.state == Deferred {
			entry.state = Pending
		}
		if entry.state != Pending {
			continue
		}

		if discovering || !s.ready(entry.root) {
			entry.state = Deferred
			entry.deferrals++
			s.metrics.RootsDeferred.Inc()
			s.logger.Debug("merge root deferred", "root", entry.root.Identity, "generation", generation)
			continue
		}

		entry.state = Composing
		container, err := s.composer.ComposeRoot(entry.root)
		if err != nil {
			return err
		}
		if err := container.Walk(func(node *models.ComposedContainer, _ int) error {
			return s.emitter.Emit(entry.root, node)
		}); err != nil {
			return err
		}
		entry.container = container
		entry.state = Done
		s.metrics.RootsComposed.Inc()
		s.logger.Debug("merge root done", "root", entry.root.Identity, "generation", generation)
	}

	if recorded > 0 {
		return nil
	}
	var deferred []string
	for _, entry := range s.roots {
		if entry.state == Deferred {
			deferred = append(deferred, entry.root.Identity.String())
		}
	}
	if len(deferred) > 0 {
		return errors.NewUnresolvedMergeError(generation, deferred)
	}
	return nil
}

func (s *Scheduler) remaining() int {
	n := 0
	for _, entry := range s.roots {
		if entry.state != Done {
			n++
		}
	}
	return n
}
