package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/bleed"
	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/match"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// recentPathLen is the path window included in the master cache key.
const recentPathLen = 5

// CalculateAll returns the transformations for content: bleed effects,
// journey transformations and satisfied authored rules, each capped, then
// merged, stably sorted by priority, deduplicated by (type, selector) and
// truncated to MaxTotal. The returned slice is the caller's to keep.
func (e *Engine) CalculateAll(content string, nc NodeContext, s *journey.ReaderState, nodes analyzer.NodeLookup) []story.TextTransformation {
	key := e.masterKey(content, nc, s)
	list := e.master.GetOrCompute(key, func() []story.TextTransformation {
		return e.calculate(content, nc, s, nodes, true)
	})
	return cloneList(list)
}

func (e *Engine) masterKey(content string, nc NodeContext, s *journey.ReaderState) cache.Fingerprint {
	engaged := make([]string, 0, len(s.AttractorEngagements))
	for a, n := range s.AttractorEngagements {
		if n > 0 {
			engaged = append(engaged, a)
		}
	}
	sort.Strings(engaged)
	return cache.NewKey().
		Fingerprint(cache.Hash(content)).
		String(nc.Node.ID).
		String(string(nc.Node.Character)).
		Int(nc.VisitCount).
		Int(s.Len()).
		Strings(s.RecentPath(recentPathLen)).
		Strings(engaged).
		Fingerprint(s.Fingerprint()).
		Sum()
}

func (e *Engine) calculate(content string, nc NodeContext, s *journey.ReaderState, nodes analyzer.NodeLookup, cached bool) []story.TextTransformation {
	awareness := analyzer.Awareness(e.analyzer.RecursivePatterns(s), nc.Node.ID)

	var merged []story.TextTransformation
	for i, eff := range e.bleed.Calculate(nc.Node, content, s, awareness) {
		if i >= e.cfg.MaxBleed {
			break
		}
		merged = append(merged, eff.Transformation)
	}
	merged = append(merged, e.journeyTransformations(content, nc, s, nodes)...)
	merged = append(merged, e.ruleTransformations(nc, s, cached)...)
	return e.merge(merged)
}

// merge stably sorts by priority, drops later duplicates of (type, selector)
// and truncates to MaxTotal.
func (e *Engine) merge(in []story.TextTransformation) []story.TextTransformation {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].Priority.Rank() < in[j].Priority.Rank()
	})
	type dedupe struct {
		t story.TransformationType
		s string
	}
	seen := make(map[dedupe]bool, len(in))
	out := make([]story.TextTransformation, 0, min(len(in), e.cfg.MaxTotal))
	for _, t := range in {
		k := dedupe{t.Type, t.Selector}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
		if len(out) == e.cfg.MaxTotal {
			break
		}
	}
	return out
}

// ruleTransformations collects transformations of satisfied rules in
// authored order, defaulting their priority to medium, capped at MaxRule.
func (e *Engine) ruleTransformations(nc NodeContext, s *journey.ReaderState, cached bool) []story.TextTransformation {
	var out []story.TextTransformation
	for i, r := range nc.Node.Rules {
		var ts []story.TextTransformation
		if cached {
			key := cache.NewKey().
				String(nc.Node.ID).
				String(r.ID).
				Int(i).
				Int(nc.VisitCount).
				Fingerprint(s.Fingerprint()).
				Sum()
			ts = e.rules.GetOrCompute(key, func() []story.TextTransformation {
				return e.rule(r, s, nc, true)
			})
		} else {
			ts = e.rule(r, s, nc, false)
		}
		for _, t := range ts {
			if len(out) == e.cfg.MaxRule {
				return out
			}
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) rule(r story.TransformationRule, s *journey.ReaderState, nc NodeContext, cached bool) []story.TextTransformation {
	var holds bool
	if cached {
		holds = e.Evaluate(r.Condition, s, nc)
	} else {
		holds = e.holds(r.Condition, s, nc)
	}
	if !holds {
		return nil
	}
	out := make([]story.TextTransformation, len(r.Transformations))
	for i, t := range r.Transformations {
		if t.Priority == "" {
			t.Priority = story.PriorityMedium
		}
		out[i] = t
	}
	return out
}

// journeyTransformations turns strong reading patterns into high-priority
// edits, capped at MaxJourney.
func (e *Engine) journeyTransformations(content string, nc NodeContext, s *journey.ReaderState, nodes analyzer.NodeLookup) []story.TextTransformation {
	patterns := e.analyzer.AnalyzePathPatterns(s, nodes)
	if len(patterns) == 0 {
		return nil
	}
	sentences := plainSentences(content)

	var out []story.TextTransformation
	add := func(t story.TextTransformation, strength float64) {
		if len(out) >= e.cfg.MaxJourney {
			return
		}
		t.Priority = story.PriorityHigh
		t.Intensity = bleed.Intensity(1, 2*strength)
		out = append(out, t)
	}

	if p, ok := analyzer.Strongest(patterns, analyzer.PatternSequence); ok &&
		p.Strength >= e.cfg.LoopStrength && containsID(p.Nodes, nc.Node.ID) && len(sentences) > 0 {
		add(story.TextTransformation{
			Type:         story.TypeMetaComment,
			Selector:     match.Literal(sentences[0]),
			Comment:      "you have walked this loop before: " + strings.Join(p.Nodes, " → "),
			CommentStyle: "loop",
		}, p.Strength)
	}

	if p, ok := analyzer.Strongest(patterns, analyzer.PatternCharacter); ok &&
		p.Strength >= e.cfg.FocusImbalance && p.Characters[0] != nc.Node.Character {
		if sel := e.firstPresent(bleed.Vocabulary(p.Characters[0]), content); sel != "" {
			add(story.TextTransformation{
				Type:          story.TypeEmphasize,
				Selector:      sel,
				EmphasisStyle: "perspective-bleed",
			}, p.Strength)
		}
	}

	if p, ok := analyzer.Strongest(patterns, analyzer.PatternTemporal); ok &&
		p.Strength >= e.cfg.Volatility && len(sentences) > 0 {
		add(story.TextTransformation{
			Type:            story.TypeFragment,
			Selector:        match.Literal(sentences[len(sentences)-1]),
			FragmentStyle:   "temporal-displacement",
			FragmentPattern: " / ",
		}, p.Strength)
	}

	for _, p := range patterns {
		if p.Type != analyzer.PatternThematic || p.Strength < e.cfg.ThematicStrength {
			continue
		}
		a := p.Attractors[0]
		if !nc.Node.HasAttractor(a) {
			continue
		}
		if sel := e.firstPresent([]string{a}, content); sel != "" {
			add(story.TextTransformation{
				Type:          story.TypeEmphasize,
				Selector:      sel,
				EmphasisStyle: "attractor-resonance",
				Comment:       fmt.Sprintf("%s resonance", a),
			}, p.Strength)
		}
	}
	return out
}

// firstPresent returns the word selector for the first term found in content.
func (e *Engine) firstPresent(terms []string, content string) string {
	for _, term := range terms {
		sel := match.PrefixWord + term
		if r, err := e.matchers.Find(sel, content); err == nil && len(r) > 0 {
			return sel
		}
	}
	return ""
}

// plainSentences splits content into sentences that contain no markup, so
// they can be wrapped as literal selectors.
func plainSentences(content string) []string {
	var out []string
	start := 0
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(content) && content[i+1] != ' ' && content[i+1] != '\n' {
			continue
		}
		if s := strings.TrimSpace(content[start : i+1]); len(s) > 2 && !strings.ContainsAny(s, "<>") {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(content[start:]); len(s) > 2 && !strings.ContainsAny(s, "<>") {
		out = append(out, s)
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func cloneList(in []story.TextTransformation) []story.TextTransformation {
	if in == nil {
		return nil
	}
	return append(make([]story.TextTransformation, 0, len(in)), in...)
}
