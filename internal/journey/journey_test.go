package journey

import (
	"testing"
	"time"

	"github.com/papapumpkin/palimpsest/internal/story"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func node(id string, c story.Character, layer int, attractors ...string) *story.Node {
	return &story.Node{ID: id, Character: c, TemporalValue: layer, Attractors: attractors}
}

func TestRecordVisit_Aggregates(t *testing.T) {
	t.Parallel()
	s := New(0)
	a := node("a", story.CharacterArchaeologist, 1, "memory")
	b := node("b", story.CharacterAlgorithm, 2)

	s.RecordVisit(a, epoch)
	s.RecordVisit(b, epoch)
	v := s.RecordVisit(a, epoch)

	if v.Index != 2 || v.RevisitCount != 1 {
		t.Errorf("third visit = %+v, want index 2, revisit 1", v)
	}
	if got := s.VisitCount("a"); got != 2 {
		t.Errorf("VisitCount(a) = %d, want 2", got)
	}
	if got := s.CharacterFocus[story.CharacterArchaeologist]; got != 2 {
		t.Errorf("CharacterFocus[archaeologist] = %d, want 2", got)
	}
	if got := s.TemporalFocus[2]; got != 1 {
		t.Errorf("TemporalFocus[2] = %d, want 1", got)
	}
	if got := s.AttractorEngagements["memory"]; got != 2 {
		t.Errorf("AttractorEngagements[memory] = %d, want 2", got)
	}
	if got := s.EndpointProgress["memory"]; got != 2.0/DefaultSaturation {
		t.Errorf("EndpointProgress[memory] = %v, want %v", got, 2.0/DefaultSaturation)
	}
	if got := s.RecentPath(2); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("RecentPath(2) = %v, want [b a]", got)
	}
}

func TestEngage_SaturatesProgress(t *testing.T) {
	t.Parallel()
	s := New(2)
	for i := 0; i < 5; i++ {
		s.Engage("entropy", epoch)
	}
	if got := s.EndpointProgress["entropy"]; got != 1 {
		t.Errorf("EndpointProgress = %v, want 1", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, engagements must not add visits", s.Len())
	}
}

func TestFingerprint_ChangesOnAppendAndIgnoresTime(t *testing.T) {
	t.Parallel()
	a := node("a", story.CharacterLastHuman, 3)

	s1 := New(0)
	empty := s1.Fingerprint()
	s1.RecordVisit(a, epoch)
	if s1.Fingerprint() == empty {
		t.Fatal("fingerprint unchanged after visit")
	}

	s2 := New(0)
	s2.RecordVisit(a, epoch.Add(time.Hour))
	if s1.Fingerprint() != s2.Fingerprint() {
		t.Error("same moves at different times should share a fingerprint")
	}

	s2.Engage("x", epoch)
	if s1.Fingerprint() == s2.Fingerprint() {
		t.Error("engagement should change the fingerprint")
	}
}

func TestRebuild_ReproducesState(t *testing.T) {
	t.Parallel()
	s := New(3)
	s.RecordVisit(node("a", story.CharacterAlgorithm, 1, "x"), epoch)
	s.Engage("y", epoch)
	s.RecordVisit(node("b", story.CharacterArchaeologist, 2), epoch)

	r := Rebuild(3, s.Events())
	if r.Fingerprint() != s.Fingerprint() {
		t.Error("rebuilt fingerprint differs")
	}
	if r.Len() != 2 || r.AttractorEngagements["y"] != 1 {
		t.Errorf("rebuilt state = path %v, engagements %v", r.Path, r.AttractorEngagements)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()
	s := New(0)
	s.RecordVisit(node("a", story.CharacterAlgorithm, 1), epoch)

	c := s.Clone()
	c.RecordVisit(node("b", story.CharacterAlgorithm, 1), epoch)

	if s.Len() != 1 {
		t.Errorf("original Len() = %d after appending to clone", s.Len())
	}
	if c.Len() != 2 {
		t.Errorf("clone Len() = %d, want 2", c.Len())
	}
}

func TestLastAndRecentPath_Bounds(t *testing.T) {
	t.Parallel()
	s := New(0)
	if s.Last(2) != nil || s.RecentPath(5) != nil {
		t.Error("empty journey should return nil windows")
	}
	s.RecordVisit(node("a", story.CharacterAlgorithm, 1), epoch)
	if got := s.Last(5); len(got) != 1 {
		t.Errorf("Last(5) len = %d, want 1", len(got))
	}
}
