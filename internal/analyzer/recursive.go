package analyzer

import (
	"sort"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/journey"
)

// RecursivePattern is a subsequence of node IDs the reader has walked more
// than once.
type RecursivePattern struct {
	Nodes       []string
	Occurrences int
	Strength    float64 // in [0,1]
	LastIndex   int     // path index where the latest occurrence starts
}

// Contains reports whether id is part of the loop.
func (p RecursivePattern) Contains(id string) bool {
	for _, n := range p.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// End returns the path index just past the latest occurrence.
func (p RecursivePattern) End() int {
	return p.LastIndex + len(p.Nodes)
}

// RecursivePatterns slides windows of length 2..MaxWindow over the path and
// reports every subsequence that occurs at least twice, counting overlapping
// occurrences. Strength is (occurrences-1)/length, raised by up to
// RecencyWeight when the latest occurrence ends at the tail of the path.
// Results are ordered by strength, then length, then node sequence.
func RecursivePatterns(s *journey.ReaderState, cfg Config) []RecursivePattern {
	path := s.Path
	n := len(path)
	if n < 2 {
		return nil
	}

	type tally struct {
		nodes []string
		count int
		last  int
	}

	var out []RecursivePattern
	for size := 2; size <= cfg.MaxWindow && size <= n; size++ {
		seen := make(map[string]*tally)
		var order []string
		for i := 0; i+size <= n; i++ {
			window := path[i : i+size]
			key := strings.Join(window, "\x00")
			t, ok := seen[key]
			if !ok {
				t = &tally{nodes: window}
				seen[key] = t
				order = append(order, key)
			}
			t.count++
			t.last = i
		}
		for _, key := range order {
			t := seen[key]
			if t.count < 2 {
				continue
			}
			recency := 1 - float64(n-(t.last+size))/float64(n)
			strength := float64(t.count-1) / float64(size) * (1 + cfg.RecencyWeight*recency)
			out = append(out, RecursivePattern{
				Nodes:       append([]string(nil), t.nodes...),
				Occurrences: t.count,
				Strength:    clamp01(strength),
				LastIndex:   t.last,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		if len(out[i].Nodes) != len(out[j].Nodes) {
			return len(out[i].Nodes) > len(out[j].Nodes)
		}
		return strings.Join(out[i].Nodes, "\x00") < strings.Join(out[j].Nodes, "\x00")
	})
	return out
}

// Awareness returns the strongest loop strength among patterns that include
// nodeID, or zero.
func Awareness(patterns []RecursivePattern, nodeID string) float64 {
	var best float64
	for _, p := range patterns {
		if p.Strength > best && p.Contains(nodeID) {
			best = p.Strength
		}
	}
	return best
}
