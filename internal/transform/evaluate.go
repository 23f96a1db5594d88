package transform

import (
	"encoding/json"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Evaluate reports whether cond holds for the node in the given journey.
// A condition holds only when every predicate in its tree could be decided:
// a malformed predicate, or one lacking the data it needs, fails the whole
// condition, including under not. Neither is an error. Results are cached on
// the condition, the journey fingerprint, the node and its visit count.
func (e *Engine) Evaluate(cond story.Condition, s *journey.ReaderState, nc NodeContext) bool {
	raw, err := json.Marshal(cond)
	if err != nil {
		return e.holds(cond, s, nc)
	}
	key := cache.NewKey().
		String(string(raw)).
		Fingerprint(s.Fingerprint()).
		String(nc.Node.ID).
		Int(nc.VisitCount).
		Sum()
	return e.conditions.GetOrCompute(key, func() bool {
		return e.holds(cond, s, nc)
	})
}

func (e *Engine) holds(cond story.Condition, s *journey.ReaderState, nc NodeContext) bool {
	ok, decided := e.evaluate(cond, s, nc)
	return ok && decided
}

// evaluate returns the truth of cond and whether it could be decided.
// Combinators never short-circuit on a truth value, so an undecidable
// predicate anywhere in the tree leaves the whole tree undecided.
func (e *Engine) evaluate(cond story.Condition, s *journey.ReaderState, nc NodeContext) (ok, decided bool) {
	kind := cond.Kind()
	switch kind {
	case story.KindEmpty, story.KindMalformed:
		e.log.Warn("malformed condition", "node", nc.Node.ID, "kind", string(kind))
		return false, false
	case story.KindAllOf, story.KindAnyOf:
		subs, all := cond.AllOf, kind == story.KindAllOf
		if !all {
			subs = cond.AnyOf
		}
		if len(subs) == 0 {
			return false, false
		}
		result := all
		for _, sub := range subs {
			v, d := e.evaluate(sub, s, nc)
			if !d {
				return false, false
			}
			if all {
				result = result && v
			} else {
				result = result || v
			}
		}
		return result, true
	case story.KindNot:
		v, d := e.evaluate(*cond.Not, s, nc)
		if !d {
			return false, false
		}
		return !v, true
	}

	ok, decided = e.leaf(cond, kind, s, nc)
	if !decided {
		e.log.Debug("condition lacks data", "node", nc.Node.ID, "kind", string(kind))
		return false, false
	}
	return ok, true
}

// leaf evaluates a single predicate. sufficient is false when the journey or
// the predicate itself lacks what the check needs.
func (e *Engine) leaf(cond story.Condition, kind story.ConditionKind, s *journey.ReaderState, nc NodeContext) (ok, sufficient bool) {
	switch kind {
	case story.KindVisitCount:
		return cond.VisitCount.Op.Compare(float64(nc.VisitCount), float64(cond.VisitCount.Value))

	case story.KindVisitPattern:
		if len(cond.VisitPattern) == 0 {
			return false, false
		}
		return containsRun(s.Path, cond.VisitPattern), true

	case story.KindPreviouslyVisited:
		if len(cond.PreviouslyVisited) == 0 {
			return false, false
		}
		for _, id := range cond.PreviouslyVisited {
			if s.VisitCount(id) == 0 {
				return false, true
			}
		}
		return true, true

	case story.KindAttractorsEngaged:
		c := cond.AttractorsEngaged
		if len(c.Attractors) == 0 {
			return false, false
		}
		threshold := max(c.Threshold, 1)
		for _, a := range c.Attractors {
			if s.AttractorEngagements[a] < threshold {
				return false, true
			}
		}
		return true, true

	case story.KindTemporalPosition:
		prev, found := previousVisit(s, nc.Node.ID)
		if !found {
			return false, false
		}
		return cond.TemporalPosition.Op.Compare(float64(prev.TemporalLayer), float64(cond.TemporalPosition.Layer))

	case story.KindEndpointProgress:
		c := cond.EndpointProgress
		if c.Attractor == "" {
			return false, false
		}
		return c.Op.Compare(s.EndpointProgress[c.Attractor], c.Value)

	case story.KindRevisitPattern:
		c := cond.RevisitPattern
		id := c.Node
		if id == "" {
			id = nc.Node.ID
		}
		return s.VisitCount(id)-1 >= max(c.MinRevisits, 1), true

	case story.KindCharacterBleed:
		prev, found := previousVisit(s, nc.Node.ID)
		if !found {
			return false, false
		}
		c := cond.CharacterBleed
		to := c.To
		if to == "" {
			to = nc.Node.Character
		}
		if prev.Character == nc.Node.Character || to != nc.Node.Character {
			return false, true
		}
		return c.From == "" || c.From == prev.Character, true

	case story.KindJourneyPattern:
		if len(cond.JourneyPattern) == 0 {
			return false, false
		}
		return containsSubsequence(s.Path, cond.JourneyPattern), true

	case story.KindCharacterFocus:
		f, found := e.analyzer.CharacterFocusIntensity(s)[cond.CharacterFocus.Character]
		if !found {
			return false, false
		}
		return f.Ratio >= cond.CharacterFocus.MinRatio, true

	case story.KindTemporalFocus:
		if s.Len() < 2 {
			return false, false
		}
		return analyzer.TemporalShare(s, cond.TemporalFocus.Layer) >= cond.TemporalFocus.MinRatio, true

	case story.KindAttractorAffinity:
		c := cond.AttractorAffinity
		attractors := c.Attractors
		if len(attractors) == 0 {
			attractors = nc.Node.Attractors
		}
		if len(attractors) == 0 {
			return false, false
		}
		engaged := 0
		for _, a := range attractors {
			if s.AttractorEngagements[a] > 0 {
				engaged++
			}
		}
		return float64(engaged)/float64(len(attractors)) >= c.MinRatio, true

	case story.KindAttractorEngagement:
		c := cond.AttractorEngagement
		eng, found := e.analyzer.AttractorEngagement(s)[c.Attractor]
		if !found {
			return false, false
		}
		return eng.Score >= c.MinScore && (c.Trend == "" || analyzer.Trend(c.Trend) == eng.Trend), true

	case story.KindRecursivePattern:
		return e.recursiveMatch(cond.RecursivePattern, s, nc)

	case story.KindJourneyFingerprint:
		fp := e.analyzer.JourneyFingerprint(s)
		if fp.ExplorationStyle == analyzer.Undetermined {
			return false, false
		}
		c := cond.JourneyFingerprint
		return (c.ExplorationStyle == "" || c.ExplorationStyle == fp.ExplorationStyle) &&
			(c.TemporalPreference == "" || c.TemporalPreference == fp.TemporalPreference) &&
			(c.NarrativeApproach == "" || c.NarrativeApproach == fp.NarrativeApproach) &&
			fp.ComplexityIndex >= c.MinComplexity &&
			fp.FocusIndex >= c.MinFocus, true
	}
	return false, false
}

func (e *Engine) recursiveMatch(c *story.RecursivePatternCondition, s *journey.ReaderState, nc NodeContext) (ok, sufficient bool) {
	patterns := e.analyzer.RecursivePatterns(s)
	if len(patterns) == 0 {
		return false, false
	}
	for _, p := range patterns {
		if p.Strength < c.MinStrength || len(p.Nodes) < c.MinLength {
			continue
		}
		if c.MaxAge > 0 && s.Len()-p.End() > c.MaxAge {
			continue
		}
		if c.IncludesCurrent && !p.Contains(nc.Node.ID) {
			continue
		}
		return true, true
	}
	return false, true
}

// previousVisit returns the visit the reader arrived at nodeID from. When the
// latest visit is not nodeID, the latest visit itself is the origin.
func previousVisit(s *journey.ReaderState, nodeID string) (journey.Visit, bool) {
	last := s.Last(2)
	switch {
	case len(last) == 2 && last[1].NodeID == nodeID:
		return last[0], true
	case len(last) >= 1 && last[len(last)-1].NodeID != nodeID:
		return last[len(last)-1], true
	}
	return journey.Visit{}, false
}

// containsRun reports whether needle appears contiguously in haystack.
func containsRun(haystack, needle []string) bool {
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// containsSubsequence reports whether needle appears in order, gaps allowed.
func containsSubsequence(haystack, needle []string) bool {
	j := 0
	for _, id := range haystack {
		if j < len(needle) && id == needle[j] {
			j++
		}
	}
	return j == len(needle)
}
