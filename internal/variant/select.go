package variant

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Well-known named sections.
const (
	SectionRecursiveAwareness = "recursive-awareness"
	attractorSectionPrefix    = "attractor-"
)

// AttractorSection returns the section name used for an attractor variant.
func AttractorSection(attractor string) string {
	return attractorSectionPrefix + attractor
}

// Config holds the selection thresholds.
type Config struct {
	// RecursiveThreshold is the awareness score above which the
	// recursive-awareness section is chosen.
	RecursiveThreshold float64
	// AttractorThreshold is the engagement count above which an
	// attractor section is chosen.
	AttractorThreshold int
	ParseCacheSize     int
	SelectCacheSize    int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		RecursiveThreshold: 0.5,
		AttractorThreshold: 3,
		ParseCacheSize:     128,
		SelectCacheSize:    128,
	}
}

// Context is the reading context a selection is made in.
type Context struct {
	// VisitCount counts visits to the node including the current one.
	// Visit-count sections are revisit text: a first visit always reads base.
	VisitCount         int
	LastCharacter      story.Character
	RecentPath         []string
	CharacterSequence  []story.Character
	AttractorsEngaged  map[string]int
	RecursiveAwareness float64
}

// Selection is the chosen section. Key follows Segment.Key conventions.
type Selection struct {
	Key    string
	Text   string
	Reason string
}

// Select picks one section of c for node. The first matching rule wins:
// character bleed, recursive awareness, journey path, attractor engagement,
// the largest eligible visit-count variant, then base.
func Select(c Content, node *story.Node, ctx Context, cfg Config) Selection {
	if ctx.LastCharacter != "" && ctx.LastCharacter != node.Character {
		key := ctx.LastCharacter.BleedSection()
		if body, ok := c.Sections[key]; ok {
			return pick(key, body, "arrived from "+string(ctx.LastCharacter))
		}
	}

	if ctx.RecursiveAwareness > cfg.RecursiveThreshold {
		if body, ok := c.Sections[SectionRecursiveAwareness]; ok {
			return pick(SectionRecursiveAwareness, body, fmt.Sprintf("recursive awareness %.2f", ctx.RecursiveAwareness))
		}
	}

	for _, jv := range node.JourneyVariants {
		body, ok := c.Sections[jv.Section]
		if !ok || !containsRun(ctx.RecentPath, jv.Path) {
			continue
		}
		return pick(jv.Section, body, "path "+strings.Join(jv.Path, ">"))
	}

	for _, a := range node.Attractors {
		if ctx.AttractorsEngaged[a] <= cfg.AttractorThreshold {
			continue
		}
		key := AttractorSection(a)
		if body, ok := c.Sections[key]; ok {
			return pick(key, body, fmt.Sprintf("%s engaged %d times", a, ctx.AttractorsEngaged[a]))
		}
	}

	best := -1
	for n := range c.Visits {
		if ctx.VisitCount > 1 && n <= ctx.VisitCount && n > best {
			best = n
		}
	}
	if best >= 0 {
		return pick(NumericKey(best), c.Visits[best], fmt.Sprintf("visit count %d", ctx.VisitCount))
	}

	return pick("", c.Base, "base")
}

func pick(key, body, reason string) Selection {
	return Selection{Key: key, Text: strings.TrimSpace(body), Reason: reason}
}

// containsRun reports whether needle appears contiguously in haystack.
func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, id := range needle {
			if haystack[i+j] != id {
				continue outer
			}
		}
		return true
	}
	return false
}

// Selector memoizes Parse and Select.
type Selector struct {
	cfg    Config
	parsed *cache.LRU[cache.Fingerprint, Content]
	chosen *cache.LRU[cache.Fingerprint, Selection]
}

// NewSelector creates a Selector with its own caches.
func NewSelector(cfg Config) *Selector {
	return &Selector{
		cfg:    cfg,
		parsed: cache.NewLRU[cache.Fingerprint, Content](cfg.ParseCacheSize),
		chosen: cache.NewLRU[cache.Fingerprint, Selection](cfg.SelectCacheSize),
	}
}

// Parse returns the cached parse of source.
func (s *Selector) Parse(source string) Content {
	return s.parsed.GetOrCompute(cache.Hash(source), func() Content {
		return Parse(source)
	})
}

// Select returns the cached selection for (c, node, ctx).
func (s *Selector) Select(c Content, node *story.Node, ctx Context) Selection {
	key := cache.NewKey().
		Fingerprint(c.Fingerprint).
		String(node.ID).
		String(string(node.Character)).
		Int(ctx.VisitCount).
		String(string(ctx.LastCharacter)).
		Strings(ctx.RecentPath).
		Float(ctx.RecursiveAwareness)
	for _, a := range node.Attractors {
		key.String(a).Int(ctx.AttractorsEngaged[a])
	}
	return s.chosen.GetOrCompute(key.Sum(), func() Selection {
		return Select(c, node, ctx, s.cfg)
	})
}

// Stats returns the parse and select cache counters.
func (s *Selector) Stats() (parse, sel cache.Stats) {
	return s.parsed.Stats(), s.chosen.Stats()
}

// Reset clears both caches.
func (s *Selector) Reset() {
	s.parsed.Reset()
	s.chosen.Reset()
}
