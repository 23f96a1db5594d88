// Package analyzer derives statistical reading signals from a journey:
// recursive loops, character and temporal focus, attractor engagement and an
// overall journey fingerprint. Every function is pure; Analyzer adds
// fingerprint-keyed caching on top.
package analyzer

// Config holds tunable thresholds for path analysis.
type Config struct {
	MaxWindow     int     // longest repeated subsequence considered (default: 4)
	RecencyWeight float64 // strength bonus for a loop that just completed (default: 0.5)

	FocusWindow       int     // trailing visits in the windowed focus ratio (default: 10)
	FocusWindowWeight float64 // weight of the windowed ratio vs full history (default: 0.7)
	TrendEpsilon      float64 // minimum difference reported as rising/falling (default: 0.05)

	AttractorSaturation int // engagements that score 100 (default: 10)
	AttractorWindow     int // trailing visits for the recent engagement rate (default: 10)

	ExplorerEntropy     float64 // distinct/total at or above which a reader explores (default: 0.75)
	RecursiveRevisit    float64 // revisit share at or above which a reader loops (default: 0.4)
	AnchoredVariance    float64 // temporal-layer variance below which a reader is anchored (default: 0.25)
	FocusedRatio        float64 // dominant-character share for a focused approach (default: 0.6)
	KaleidoscopicSwitch float64 // character switch share for a kaleidoscopic approach (default: 0.5)

	MinSequenceStrength       float64 // recursive strength reported as a sequence pattern (default: 0.25)
	CharacterPatternRatio     float64 // focus ratio reported as a character pattern (default: 0.6)
	TemporalPatternVolatility float64 // volatility reported as a temporal pattern (default: 0.3)
	ThematicPatternScore      float64 // engagement score reported as a thematic pattern (default: 50)
	RhythmSwitchRatio         float64 // switch share reported as a rhythm pattern (default: 0.75)
	RhythmMinVisits           int     // visits needed before rhythm is considered (default: 4)

	CacheSize int // entries per cached function (default: 100)
}

// DefaultConfig returns a Config with the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MaxWindow:                 4,
		RecencyWeight:             0.5,
		FocusWindow:               10,
		FocusWindowWeight:         0.7,
		TrendEpsilon:              0.05,
		AttractorSaturation:       10,
		AttractorWindow:           10,
		ExplorerEntropy:           0.75,
		RecursiveRevisit:          0.4,
		AnchoredVariance:          0.25,
		FocusedRatio:              0.6,
		KaleidoscopicSwitch:       0.5,
		MinSequenceStrength:       0.25,
		CharacterPatternRatio:     0.6,
		TemporalPatternVolatility: 0.3,
		ThematicPatternScore:      50,
		RhythmSwitchRatio:         0.75,
		RhythmMinVisits:           4,
		CacheSize:                 100,
	}
}

// Trend describes the direction of a windowed signal relative to history.
type Trend string

// Trend values.
const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// trendOf classifies recent against historical with a dead band of eps.
func trendOf(recent, historical, eps float64) Trend {
	switch d := recent - historical; {
	case d > eps:
		return TrendRising
	case d < -eps:
		return TrendFalling
	default:
		return TrendStable
	}
}

// clamp01 restricts v to the range [0.0, 1.0].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
