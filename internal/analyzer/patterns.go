package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// PatternType names the family of a ReadingPattern.
type PatternType string

// Reading pattern types, in reporting order.
const (
	PatternSequence  PatternType = "sequence"
	PatternCharacter PatternType = "character"
	PatternTemporal  PatternType = "temporal"
	PatternThematic  PatternType = "thematic"
	PatternRhythm    PatternType = "rhythm"
)

// ReadingPattern is a uniform view over the individual analyses.
type ReadingPattern struct {
	Type        PatternType
	Strength    float64 // in [0,1]
	Description string
	Nodes       []string
	Characters  []story.Character
	Attractors  []string
}

// NodeLookup resolves node IDs to definitions.
type NodeLookup interface {
	Node(id string) (*story.Node, bool)
}

// AnalyzePathPatterns consolidates the individual analyses into
// ReadingPatterns, ordered by type and then by descending strength.
func AnalyzePathPatterns(s *journey.ReaderState, nodes NodeLookup, cfg Config) []ReadingPattern {
	if s.Len() < 2 {
		return nil
	}

	var out []ReadingPattern

	for _, p := range RecursivePatterns(s, cfg) {
		if p.Strength < cfg.MinSequenceStrength {
			continue
		}
		out = append(out, ReadingPattern{
			Type:        PatternSequence,
			Strength:    p.Strength,
			Description: fmt.Sprintf("loop %s repeated %d times", titles(p.Nodes, nodes), p.Occurrences),
			Nodes:       p.Nodes,
		})
	}

	focus := CharacterFocusIntensity(s, cfg)
	chars := make([]story.Character, 0, len(focus))
	for c := range focus {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	for _, c := range chars {
		f := focus[c]
		if f.Ratio < cfg.CharacterPatternRatio {
			continue
		}
		out = append(out, ReadingPattern{
			Type:        PatternCharacter,
			Strength:    f.Ratio,
			Description: fmt.Sprintf("focused on %s (%s)", c, f.Trend),
			Characters:  []story.Character{c},
		})
	}

	if tj := TemporalJumping(s); tj.Volatility >= cfg.TemporalPatternVolatility {
		out = append(out, ReadingPattern{
			Type:        PatternTemporal,
			Strength:    clamp01(tj.Volatility),
			Description: fmt.Sprintf("%d temporal jumps, %s bias", tj.JumpCount, tj.Bias),
		})
	}

	engagement := AttractorEngagement(s, cfg)
	attractors := make([]string, 0, len(engagement))
	for a := range engagement {
		attractors = append(attractors, a)
	}
	sort.Strings(attractors)
	for _, a := range attractors {
		e := engagement[a]
		if e.Score < cfg.ThematicPatternScore {
			continue
		}
		out = append(out, ReadingPattern{
			Type:        PatternThematic,
			Strength:    e.Score / 100,
			Description: fmt.Sprintf("%s resonates (score %.0f, %s)", a, e.Score, e.Trend),
			Nodes:       nodesWithAttractor(s, a),
			Attractors:  []string{a},
		})
	}

	if s.Len() >= cfg.RhythmMinVisits {
		if r := switchRatio(s); r >= cfg.RhythmSwitchRatio {
			out = append(out, ReadingPattern{
				Type:        PatternRhythm,
				Strength:    r,
				Description: fmt.Sprintf("perspective shifts on %.0f%% of moves", 100*r),
				Characters:  characterSequence(s),
			})
		}
	}

	rank := map[PatternType]int{
		PatternSequence: 0, PatternCharacter: 1, PatternTemporal: 2, PatternThematic: 3, PatternRhythm: 4,
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return rank[out[i].Type] < rank[out[j].Type]
		}
		return out[i].Strength > out[j].Strength
	})
	return out
}

// Strongest returns the strongest pattern of type t.
func Strongest(patterns []ReadingPattern, t PatternType) (ReadingPattern, bool) {
	var best ReadingPattern
	found := false
	for _, p := range patterns {
		if p.Type == t && (!found || p.Strength > best.Strength) {
			best, found = p, true
		}
	}
	return best, found
}

func titles(ids []string, nodes NodeLookup) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if nodes == nil {
			continue
		}
		if n, ok := nodes.Node(id); ok && n.Title != "" {
			out[i] = n.Title
		}
	}
	return strings.Join(out, " → ")
}

// nodesWithAttractor lists visited nodes tagged with attractor, in first-visit order.
func nodesWithAttractor(s *journey.ReaderState, attractor string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range s.Visits {
		if seen[v.NodeID] {
			continue
		}
		for _, a := range v.Attractors {
			if a == attractor {
				seen[v.NodeID] = true
				out = append(out, v.NodeID)
				break
			}
		}
	}
	return out
}

// characterSequence returns the visit characters with consecutive repeats collapsed.
func characterSequence(s *journey.ReaderState) []story.Character {
	var out []story.Character
	for _, v := range s.Visits {
		if len(out) == 0 || out[len(out)-1] != v.Character {
			out = append(out, v.Character)
		}
	}
	return out
}

// CharacterSequence returns the characters of the most recent n visits,
// oldest first.
func CharacterSequence(s *journey.ReaderState, n int) []story.Character {
	visits := s.Last(n)
	out := make([]story.Character, len(visits))
	for i, v := range visits {
		out[i] = v.Character
	}
	return out
}
