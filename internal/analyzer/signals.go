package analyzer

import (
	"math"

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Focus is a blended visit share for one character with its direction.
type Focus struct {
	Ratio float64
	Trend Trend
}

// CharacterFocusIntensity returns, per visited character, the share of
// visits in the trailing FocusWindow blended with the full-history share.
func CharacterFocusIntensity(s *journey.ReaderState, cfg Config) map[story.Character]Focus {
	if s.Len() < 2 {
		return map[story.Character]Focus{}
	}

	window := s.Last(cfg.FocusWindow)
	inWindow := make(map[story.Character]int)
	for _, v := range window {
		inWindow[v.Character]++
	}

	total := float64(s.Len())
	w := cfg.FocusWindowWeight
	out := make(map[story.Character]Focus, len(s.CharacterFocus))
	for c, count := range s.CharacterFocus {
		hist := float64(count) / total
		recent := float64(inWindow[c]) / float64(len(window))
		out[c] = Focus{
			Ratio: clamp01(w*recent + (1-w)*hist),
			Trend: trendOf(recent, hist, cfg.TrendEpsilon),
		}
	}
	return out
}

// Bias is the net direction of temporal jumps.
type Bias string

// Bias values.
const (
	BiasForward  Bias = "forward"
	BiasBackward Bias = "backward"
	BiasBalanced Bias = "balanced"
)

// TemporalJumps summarises moves between temporal layers.
type TemporalJumps struct {
	JumpCount  int
	Forward    int
	Backward   int
	Bias       Bias
	Volatility float64 // jumps per visit
}

// TemporalJumping counts transitions between temporal layers along the path.
func TemporalJumping(s *journey.ReaderState) TemporalJumps {
	if s.Len() < 2 {
		return TemporalJumps{Bias: BiasBalanced}
	}

	var tj TemporalJumps
	for i := 1; i < len(s.Visits); i++ {
		prev, cur := s.Visits[i-1].TemporalLayer, s.Visits[i].TemporalLayer
		switch {
		case cur > prev:
			tj.Forward++
		case cur < prev:
			tj.Backward++
		}
	}
	tj.JumpCount = tj.Forward + tj.Backward
	tj.Volatility = float64(tj.JumpCount) / float64(s.Len())
	switch {
	case tj.Forward > tj.Backward:
		tj.Bias = BiasForward
	case tj.Backward > tj.Forward:
		tj.Bias = BiasBackward
	default:
		tj.Bias = BiasBalanced
	}
	return tj
}

// Engagement is an attractor's normalized score with its direction.
type Engagement struct {
	Count int
	Score float64 // 0..100
	Trend Trend
}

// AttractorEngagement scores each engaged attractor as a capped share of
// AttractorSaturation. The trend compares the per-visit engagement rate in
// the trailing AttractorWindow with the full-history rate.
func AttractorEngagement(s *journey.ReaderState, cfg Config) map[string]Engagement {
	if s.Len() < 2 {
		return map[string]Engagement{}
	}

	window := s.Last(cfg.AttractorWindow)
	recent := make(map[string]int)
	for _, v := range window {
		for _, a := range v.Attractors {
			recent[a]++
		}
	}
	historical := make(map[string]int)
	for _, v := range s.Visits {
		for _, a := range v.Attractors {
			historical[a]++
		}
	}

	sat := float64(cfg.AttractorSaturation)
	if sat <= 0 {
		sat = 1
	}
	out := make(map[string]Engagement, len(s.AttractorEngagements))
	for a, count := range s.AttractorEngagements {
		recentRate := float64(recent[a]) / float64(len(window))
		histRate := float64(historical[a]) / float64(s.Len())
		out[a] = Engagement{
			Count: count,
			Score: math.Min(100, 100*float64(count)/sat),
			Trend: trendOf(recentRate, histRate, cfg.TrendEpsilon),
		}
	}
	return out
}

// TemporalShare returns the fraction of visits spent in layer.
func TemporalShare(s *journey.ReaderState, layer int) float64 {
	if s.Len() == 0 {
		return 0
	}
	return float64(s.TemporalFocus[layer]) / float64(s.Len())
}

// switchRatio returns the share of consecutive visits that change character.
func switchRatio(s *journey.ReaderState) float64 {
	if s.Len() < 2 {
		return 0
	}
	switches := 0
	for i := 1; i < len(s.Visits); i++ {
		if s.Visits[i].Character != s.Visits[i-1].Character {
			switches++
		}
	}
	return float64(switches) / float64(s.Len()-1)
}

// dominantCharacter returns the most-visited character and its share. Ties
// resolve to the lexically smallest name.
func dominantCharacter(s *journey.ReaderState) (story.Character, float64) {
	var best story.Character
	bestCount := -1
	for c, n := range s.CharacterFocus {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}
	if s.Len() == 0 || bestCount <= 0 {
		return "", 0
	}
	return best, float64(bestCount) / float64(s.Len())
}
