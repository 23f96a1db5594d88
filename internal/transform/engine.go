// Package transform turns a journey and a node's authored rules into a
// bounded, ordered list of text transformations and applies them to the
// node's original content. All computation reads from the original text;
// output is never fed back in as input.
package transform

import (
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/bleed"
	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/match"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Config holds the coordination bounds, journey thresholds and cache sizes.
type Config struct {
	MaxBleed   int // K1: bleed effects kept (default: 3)
	MaxJourney int // K2: journey transformations kept (default: 4)
	MaxRule    int // K3: authored rule transformations kept (default: 3)
	MaxTotal   int // global bound after merge (default: 10)
	MaxSpans   int // spans one transformation may wrap (default: 8)

	LoopStrength     float64 // recursive strength that earns a loop comment (default: 0.5)
	FocusImbalance   float64 // foreign character share that bleeds vocabulary (default: 0.6)
	Volatility       float64 // temporal volatility that fragments text (default: 0.5)
	ThematicStrength float64 // thematic strength that emphasizes an attractor (default: 0.6)

	ConditionCacheSize int
	RuleCacheSize      int
	MasterCacheSize    int
	BleedCacheSize     int
}

// DefaultConfig returns the standard bounds and thresholds.
func DefaultConfig() Config {
	return Config{
		MaxBleed:           3,
		MaxJourney:         4,
		MaxRule:            3,
		MaxTotal:           10,
		MaxSpans:           8,
		LoopStrength:       0.5,
		FocusImbalance:     0.6,
		Volatility:         0.5,
		ThematicStrength:   0.6,
		ConditionCacheSize: 500,
		RuleCacheSize:      200,
		MasterCacheSize:    100,
		BleedCacheSize:     100,
	}
}

// NodeContext is the per-visit view of a node the engine evaluates against.
type NodeContext struct {
	Node       *story.Node
	VisitCount int // visits including the current one
}

// Engine evaluates conditions, coordinates transformation sources and
// applies the result. It is safe for concurrent use; the caches are its
// only state.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	analyzer  *analyzer.Analyzer
	bleed     *bleed.Calculator
	matchers  *match.Registry
	sanitizer *bluemonday.Policy

	conditions *cache.LRU[cache.Fingerprint, bool]
	rules      *cache.LRU[cache.Fingerprint, []story.TextTransformation]
	master     *cache.LRU[cache.Fingerprint, []story.TextTransformation]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for skipped rules and transformations.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithAnalyzer shares an analyzer (and its caches) with the engine.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithMatchers shares a selector registry with the engine.
func WithMatchers(r *match.Registry) Option {
	return func(e *Engine) { e.matchers = r }
}

// New creates an Engine. Collaborators not supplied through options are
// created with default settings.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		sanitizer:  bluemonday.StrictPolicy(),
		conditions: cache.NewLRU[cache.Fingerprint, bool](cfg.ConditionCacheSize),
		rules:      cache.NewLRU[cache.Fingerprint, []story.TextTransformation](cfg.RuleCacheSize),
		master:     cache.NewLRU[cache.Fingerprint, []story.TextTransformation](cfg.MasterCacheSize),
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.analyzer == nil {
		e.analyzer = analyzer.New(analyzer.DefaultConfig())
	}
	if e.matchers == nil {
		e.matchers = match.NewRegistry(match.DefaultCompiledSize, match.DefaultResultSize)
	}
	e.bleed = bleed.NewCalculator(e.matchers, cfg.BleedCacheSize)
	return e
}

// Analyzer returns the analyzer the engine reads journey signals from.
func (e *Engine) Analyzer() *analyzer.Analyzer { return e.analyzer }

// Stats returns counters for the engine's own caches.
func (e *Engine) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"conditions": e.conditions.Stats(),
		"rules":      e.rules.Stats(),
		"master":     e.master.Stats(),
		"bleed":      e.bleed.Stats(),
	}
}

// Reset clears the engine's caches along with the analyzer and selector
// registry it uses.
func (e *Engine) Reset() {
	e.conditions.Reset()
	e.rules.Reset()
	e.master.Reset()
	e.bleed.Reset()
	e.analyzer.Reset()
	e.matchers.Reset()
}
