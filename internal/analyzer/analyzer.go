package analyzer

import (
	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Analyzer memoizes each analysis on the journey fingerprint. An Analyzer
// serves a single story; call Reset when the node table changes. Cached
// results are shared and must not be modified.
type Analyzer struct {
	cfg Config

	recursive   *cache.LRU[cache.Fingerprint, []RecursivePattern]
	focus       *cache.LRU[cache.Fingerprint, map[story.Character]Focus]
	temporal    *cache.LRU[cache.Fingerprint, TemporalJumps]
	engagement  *cache.LRU[cache.Fingerprint, map[string]Engagement]
	fingerprint *cache.LRU[cache.Fingerprint, JourneyFingerprint]
	patterns    *cache.LRU[cache.Fingerprint, []ReadingPattern]
}

// New creates an Analyzer with one cache per analysis.
func New(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:         cfg,
		recursive:   cache.NewLRU[cache.Fingerprint, []RecursivePattern](cfg.CacheSize),
		focus:       cache.NewLRU[cache.Fingerprint, map[story.Character]Focus](cfg.CacheSize),
		temporal:    cache.NewLRU[cache.Fingerprint, TemporalJumps](cfg.CacheSize),
		engagement:  cache.NewLRU[cache.Fingerprint, map[string]Engagement](cfg.CacheSize),
		fingerprint: cache.NewLRU[cache.Fingerprint, JourneyFingerprint](cfg.CacheSize),
		patterns:    cache.NewLRU[cache.Fingerprint, []ReadingPattern](cfg.CacheSize),
	}
}

// Config returns the analyzer's thresholds.
func (a *Analyzer) Config() Config { return a.cfg }

// RecursivePatterns is the cached form of the package-level function.
func (a *Analyzer) RecursivePatterns(s *journey.ReaderState) []RecursivePattern {
	return a.recursive.GetOrCompute(s.Fingerprint(), func() []RecursivePattern {
		return RecursivePatterns(s, a.cfg)
	})
}

// CharacterFocusIntensity is the cached form of the package-level function.
func (a *Analyzer) CharacterFocusIntensity(s *journey.ReaderState) map[story.Character]Focus {
	return a.focus.GetOrCompute(s.Fingerprint(), func() map[story.Character]Focus {
		return CharacterFocusIntensity(s, a.cfg)
	})
}

// TemporalJumping is the cached form of the package-level function.
func (a *Analyzer) TemporalJumping(s *journey.ReaderState) TemporalJumps {
	return a.temporal.GetOrCompute(s.Fingerprint(), func() TemporalJumps {
		return TemporalJumping(s)
	})
}

// AttractorEngagement is the cached form of the package-level function.
func (a *Analyzer) AttractorEngagement(s *journey.ReaderState) map[string]Engagement {
	return a.engagement.GetOrCompute(s.Fingerprint(), func() map[string]Engagement {
		return AttractorEngagement(s, a.cfg)
	})
}

// JourneyFingerprint is the cached form of ClassifyJourney.
func (a *Analyzer) JourneyFingerprint(s *journey.ReaderState) JourneyFingerprint {
	return a.fingerprint.GetOrCompute(s.Fingerprint(), func() JourneyFingerprint {
		return ClassifyJourney(s, a.cfg)
	})
}

// AnalyzePathPatterns is the cached form of the package-level function.
func (a *Analyzer) AnalyzePathPatterns(s *journey.ReaderState, nodes NodeLookup) []ReadingPattern {
	return a.patterns.GetOrCompute(s.Fingerprint(), func() []ReadingPattern {
		return AnalyzePathPatterns(s, nodes, a.cfg)
	})
}

// Stats returns counters keyed by analysis name.
func (a *Analyzer) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"recursive":   a.recursive.Stats(),
		"focus":       a.focus.Stats(),
		"temporal":    a.temporal.Stats(),
		"engagement":  a.engagement.Stats(),
		"fingerprint": a.fingerprint.Stats(),
		"patterns":    a.patterns.Stats(),
	}
}

// Reset clears every cache.
func (a *Analyzer) Reset() {
	a.recursive.Reset()
	a.focus.Reset()
	a.temporal.Reset()
	a.engagement.Reset()
	a.fingerprint.Reset()
	a.patterns.Reset()
}
