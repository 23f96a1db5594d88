package analyzer

import (
	"github.com/papapumpkin/palimpsest/internal/journey"
)

// Undetermined is reported for every classification when the journey is too
// short to classify.
const Undetermined = "undetermined"

// Exploration styles.
const (
	StyleExplorer  = "explorer"
	StyleRecursive = "recursive"
	StyleBalanced  = "balanced"
)

// Temporal preferences.
const (
	PreferenceAnchored         = "anchored"
	PreferenceForwardDrifting  = "forward-drifting"
	PreferenceBackwardDrifting = "backward-drifting"
	PreferenceScattered        = "scattered"
)

// Narrative approaches.
const (
	ApproachFocused       = "focused"
	ApproachKaleidoscopic = "kaleidoscopic"
	ApproachComparative   = "comparative"
)

// JourneyFingerprint classifies a reader's overall navigation style.
type JourneyFingerprint struct {
	ExplorationStyle   string
	TemporalPreference string
	NarrativeApproach  string
	ComplexityIndex    float64 // in [0,1]
	FocusIndex         float64 // dominant character share
}

// ClassifyJourney derives a JourneyFingerprint from path entropy (distinct
// nodes over total visits), revisit share, temporal-layer variance and
// character switching.
func ClassifyJourney(s *journey.ReaderState, cfg Config) JourneyFingerprint {
	n := s.Len()
	if n < 2 {
		return JourneyFingerprint{
			ExplorationStyle:   Undetermined,
			TemporalPreference: Undetermined,
			NarrativeApproach:  Undetermined,
		}
	}

	distinct := make(map[string]bool, n)
	revisits := 0
	var sum float64
	for _, v := range s.Visits {
		distinct[v.NodeID] = true
		if v.RevisitCount > 0 {
			revisits++
		}
		sum += float64(v.TemporalLayer)
	}
	entropy := float64(len(distinct)) / float64(n)
	revisitShare := float64(revisits) / float64(n)

	mean := sum / float64(n)
	var variance float64
	for _, v := range s.Visits {
		d := float64(v.TemporalLayer) - mean
		variance += d * d
	}
	variance /= float64(n)

	fp := JourneyFingerprint{}
	switch {
	case entropy >= cfg.ExplorerEntropy:
		fp.ExplorationStyle = StyleExplorer
	case revisitShare >= cfg.RecursiveRevisit:
		fp.ExplorationStyle = StyleRecursive
	default:
		fp.ExplorationStyle = StyleBalanced
	}

	tj := TemporalJumping(s)
	switch {
	case variance < cfg.AnchoredVariance:
		fp.TemporalPreference = PreferenceAnchored
	case tj.Bias == BiasForward:
		fp.TemporalPreference = PreferenceForwardDrifting
	case tj.Bias == BiasBackward:
		fp.TemporalPreference = PreferenceBackwardDrifting
	default:
		fp.TemporalPreference = PreferenceScattered
	}

	_, share := dominantCharacter(s)
	switch {
	case share >= cfg.FocusedRatio:
		fp.NarrativeApproach = ApproachFocused
	case switchRatio(s) >= cfg.KaleidoscopicSwitch:
		fp.NarrativeApproach = ApproachKaleidoscopic
	default:
		fp.NarrativeApproach = ApproachComparative
	}

	fp.ComplexityIndex = clamp01(0.5*entropy + 0.3*clamp01(tj.Volatility) + 0.2*variance/(variance+1))
	fp.FocusIndex = share
	return fp
}
