// Package bleed computes character-bleed effects: high-priority text edits
// that let the previous perspective intrude into a node right after the
// reader changes character.
package bleed

import (
	"math"

	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/match"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Effect is one bleed edit with its provenance.
type Effect struct {
	Source         story.Character
	Target         story.Character
	Selector       string
	Transformation story.TextTransformation
	Reason         string
	Intensity      int
}

// Calculator produces bleed effects. It is safe for concurrent use.
type Calculator struct {
	matchers *match.Registry
	effects  *cache.LRU[cache.Fingerprint, []Effect]
}

// NewCalculator creates a Calculator using reg to locate terms in content.
// Results are memoized in an LRU of size entries.
func NewCalculator(reg *match.Registry, size int) *Calculator {
	return &Calculator{
		matchers: reg,
		effects:  cache.NewLRU[cache.Fingerprint, []Effect](size),
	}
}

// Calculate returns effects for node when the two most recent visits are
// a perspective change ending at node. A later revisit without an
// intervening change yields nothing. Only terms present in content produce
// effects; every effect has high priority.
// Results are cached on the node, the content, the last two visits and the
// awareness; the returned slice is the caller's to keep.
func (c *Calculator) Calculate(node *story.Node, content string, s *journey.ReaderState, recursiveAwareness float64) []Effect {
	last := s.Last(2)
	if len(last) < 2 {
		return nil
	}
	prev, cur := last[0], last[1]
	if cur.NodeID != node.ID || prev.Character == cur.Character {
		return nil
	}

	key := cache.NewKey().
		String(node.ID).
		Fingerprint(cache.Hash(content)).
		String(prev.NodeID).
		String(string(prev.Character)).
		String(cur.NodeID).
		String(string(cur.Character)).
		Float(recursiveAwareness).
		Sum()
	effects := c.effects.GetOrCompute(key, func() []Effect {
		return c.calculate(content, prev.Character, cur.Character, recursiveAwareness)
	})
	if effects == nil {
		return nil
	}
	return append(make([]Effect, 0, len(effects)), effects...)
}

// Stats returns the effect cache counters.
func (c *Calculator) Stats() cache.Stats {
	return c.effects.Stats()
}

// Reset clears the effect cache.
func (c *Calculator) Reset() {
	c.effects.Reset()
}

func (c *Calculator) calculate(content string, from, to story.Character, recursiveAwareness float64) []Effect {
	var out []Effect
	for _, tmpl := range templatesFor(from, to) {
		intensity := Intensity(tmpl.base, recursiveAwareness)
		for _, term := range tmpl.terms {
			selector := match.PrefixWord + term
			ranges, err := c.matchers.Find(selector, content)
			if err != nil || len(ranges) == 0 {
				continue
			}
			t := tmpl.transform
			t.Selector = selector
			t.Priority = story.PriorityHigh
			t.Intensity = intensity
			out = append(out, Effect{
				Source:         from,
				Target:         to,
				Selector:       selector,
				Transformation: t,
				Reason:         tmpl.reason,
				Intensity:      intensity,
			})
		}
	}
	return out
}

// Intensity scales a base intensity by recursive awareness into 1..5.
func Intensity(base int, recursiveAwareness float64) int {
	v := base + int(math.Round(2*recursiveAwareness))
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
