package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

type testNode struct {
	char       story.Character
	layer      int
	attractors []string
}

// table maps single-letter IDs to node definitions used across tests.
func table() map[string]testNode {
	return map[string]testNode{
		"A": {story.CharacterArchaeologist, 1, []string{"memory"}},
		"B": {story.CharacterAlgorithm, 2, nil},
		"C": {story.CharacterLastHuman, 3, []string{"memory"}},
		"D": {story.CharacterArchaeologist, 1, nil},
		"E": {story.CharacterArchaeologist, 1, nil},
	}
}

func walk(ids ...string) *journey.ReaderState {
	s := journey.New(0)
	tbl := table()
	for _, id := range ids {
		n := tbl[id]
		s.RecordVisit(&story.Node{ID: id, Character: n.char, TemporalValue: n.layer, Attractors: n.attractors}, time.Time{})
	}
	return s
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecursivePatterns(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	got := RecursivePatterns(walk("A", "B", "A", "B", "A"), cfg)
	var ab *RecursivePattern
	for i := range got {
		if len(got[i].Nodes) == 2 && got[i].Nodes[0] == "A" && got[i].Nodes[1] == "B" {
			ab = &got[i]
		}
	}
	if ab == nil {
		t.Fatalf("no (A,B) pattern in %+v", got)
	}
	if ab.Occurrences != 2 || !approx(ab.Strength, 0.7) {
		t.Errorf("(A,B) = %+v, want 2 occurrences, strength 0.7", *ab)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Strength > got[i-1].Strength {
			t.Errorf("patterns not sorted by strength: %+v", got)
		}
	}

	if got := RecursivePatterns(walk("A", "B", "C", "D"), cfg); len(got) != 0 {
		t.Errorf("RecursivePatterns(A,B,C,D) = %+v, want none", got)
	}
	if got := RecursivePatterns(walk(), cfg); got != nil {
		t.Errorf("empty path = %+v, want nil", got)
	}
	if got := RecursivePatterns(walk("A"), cfg); got != nil {
		t.Errorf("single visit = %+v, want nil", got)
	}
}

func TestAwareness(t *testing.T) {
	t.Parallel()
	patterns := RecursivePatterns(walk("A", "B", "A", "B", "A"), DefaultConfig())
	if got := Awareness(patterns, "A"); got <= 0 {
		t.Errorf("Awareness(A) = %v, want > 0", got)
	}
	if got := Awareness(patterns, "C"); got != 0 {
		t.Errorf("Awareness(C) = %v, want 0", got)
	}
}

func TestCharacterFocusIntensity(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.FocusWindow = 2

	// History: 3 archaeologist, 1 algorithm. Window (last 2): A, B.
	got := CharacterFocusIntensity(walk("A", "D", "A", "B"), cfg)
	arch := got[story.CharacterArchaeologist]
	// 0.7*0.5 + 0.3*0.75
	if !approx(arch.Ratio, 0.575) || arch.Trend != TrendFalling {
		t.Errorf("archaeologist = %+v, want ratio 0.575 falling", arch)
	}
	alg := got[story.CharacterAlgorithm]
	if alg.Trend != TrendRising {
		t.Errorf("algorithm trend = %s, want rising", alg.Trend)
	}
	if len(CharacterFocusIntensity(walk("A"), cfg)) != 0 {
		t.Error("single visit should yield no focus")
	}
}

func TestTemporalJumping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		path  []string
		jumps int
		bias  Bias
		vol   float64
	}{
		{"forward", []string{"A", "B", "C"}, 2, BiasForward, 2.0 / 3},
		{"backward", []string{"C", "B"}, 1, BiasBackward, 0.5},
		{"flat", []string{"A", "D", "E"}, 0, BiasBalanced, 0},
		{"empty", nil, 0, BiasBalanced, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TemporalJumping(walk(tt.path...))
			if got.JumpCount != tt.jumps || got.Bias != tt.bias || !approx(got.Volatility, tt.vol) {
				t.Errorf("TemporalJumping = %+v, want jumps %d bias %s volatility %v", got, tt.jumps, tt.bias, tt.vol)
			}
		})
	}
}

func TestAttractorEngagement(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.AttractorSaturation = 4

	got := AttractorEngagement(walk("A", "B", "C", "A"), cfg)
	mem, ok := got["memory"]
	if !ok {
		t.Fatal("memory not scored")
	}
	if mem.Count != 3 || !approx(mem.Score, 75) {
		t.Errorf("memory = %+v, want count 3, score 75", mem)
	}

	cfg.AttractorSaturation = 1
	if got := AttractorEngagement(walk("A", "C"), cfg)["memory"].Score; got != 100 {
		t.Errorf("saturated score = %v, want 100", got)
	}
}

func TestClassifyJourney(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	neutral := ClassifyJourney(walk("A"), cfg)
	if neutral.ExplorationStyle != Undetermined || neutral.ComplexityIndex != 0 {
		t.Errorf("single visit = %+v, want undetermined", neutral)
	}

	explorer := ClassifyJourney(walk("A", "B", "C"), cfg)
	if explorer.ExplorationStyle != StyleExplorer {
		t.Errorf("ExplorationStyle = %s, want explorer", explorer.ExplorationStyle)
	}
	if explorer.TemporalPreference != PreferenceForwardDrifting {
		t.Errorf("TemporalPreference = %s, want forward-drifting", explorer.TemporalPreference)
	}
	if explorer.NarrativeApproach != ApproachKaleidoscopic {
		t.Errorf("NarrativeApproach = %s, want kaleidoscopic", explorer.NarrativeApproach)
	}

	looping := ClassifyJourney(walk("A", "D", "A", "D", "A"), cfg)
	if looping.ExplorationStyle != StyleRecursive {
		t.Errorf("ExplorationStyle = %s, want recursive", looping.ExplorationStyle)
	}
	if looping.TemporalPreference != PreferenceAnchored || looping.NarrativeApproach != ApproachFocused {
		t.Errorf("looping = %+v, want anchored and focused", looping)
	}
	if looping.FocusIndex != 1 {
		t.Errorf("FocusIndex = %v, want 1", looping.FocusIndex)
	}
	if looping.ComplexityIndex < 0 || looping.ComplexityIndex > 1 {
		t.Errorf("ComplexityIndex = %v out of range", looping.ComplexityIndex)
	}
}

func TestAnalyzePathPatterns(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.AttractorSaturation = 2

	got := AnalyzePathPatterns(walk("A", "B", "A", "B", "A"), nil, cfg)
	seq, ok := Strongest(got, PatternSequence)
	if !ok || seq.Strength <= 0 {
		t.Fatalf("no sequence pattern in %+v", got)
	}
	if _, ok := Strongest(got, PatternThematic); !ok {
		t.Errorf("expected thematic pattern for memory in %+v", got)
	}
	if _, ok := Strongest(got, PatternRhythm); !ok {
		t.Errorf("expected rhythm pattern for alternating characters in %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Type == got[i-1].Type && got[i].Strength > got[i-1].Strength {
			t.Errorf("patterns of type %s not sorted", got[i].Type)
		}
	}

	if got := AnalyzePathPatterns(walk("A"), nil, cfg); got != nil {
		t.Errorf("single visit = %+v, want nil", got)
	}
}

func TestAnalyzer_CachesOnFingerprint(t *testing.T) {
	t.Parallel()
	a := New(DefaultConfig())
	s := walk("A", "B", "A", "B")

	first := a.RecursivePatterns(s)
	second := a.RecursivePatterns(s)
	if len(first) != len(second) {
		t.Fatal("cached result differs")
	}
	if st := a.Stats()["recursive"]; st.Hits != 1 || st.Misses != 1 {
		t.Errorf("recursive stats = %+v, want 1 hit 1 miss", st)
	}

	s.RecordVisit(&story.Node{ID: "A", Character: story.CharacterArchaeologist}, time.Time{})
	a.RecursivePatterns(s)
	if st := a.Stats()["recursive"]; st.Misses != 2 {
		t.Errorf("misses after new visit = %d, want 2", st.Misses)
	}

	a.Reset()
	if st := a.Stats()["recursive"]; st.Len != 0 || st.Hits != 0 {
		t.Errorf("stats after Reset = %+v", st)
	}
}
