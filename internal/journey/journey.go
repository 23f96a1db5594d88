// Package journey records a reader's navigation history. A ReaderState is an
// append-only log of visit and engagement events plus the aggregates derived
// from it. It is never rewritten retroactively: replaying the same events
// always rebuilds the same state.
package journey

import (
	"time"

	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// DefaultSaturation is the engagement count at which an attractor's endpoint
// progress reaches 1.
const DefaultSaturation = 5

// EventKind identifies a journey event.
type EventKind string

// Journey event kinds.
const (
	EventVisit  EventKind = "visit"
	EventEngage EventKind = "engage"
)

// Event is one entry in the journey log. For EventEngage only Attractors and
// At are meaningful.
type Event struct {
	Kind          EventKind       `json:"kind"`
	NodeID        string          `json:"node,omitempty"`
	Character     story.Character `json:"character,omitempty"`
	TemporalLayer int             `json:"temporal,omitempty"`
	Attractors    []string        `json:"attractors,omitempty"`
	At            time.Time       `json:"at"`
}

// Visit is a detailed record of a single node visit.
type Visit struct {
	NodeID        string
	Character     story.Character
	TemporalLayer int
	Attractors    []string // attractors engaged by this visit
	Index         int      // position in Path
	RevisitCount  int      // prior visits to NodeID
	At            time.Time
}

// ReaderState is the reader's journey. The exported fields are read-only
// views; mutate only through RecordVisit and Engage.
type ReaderState struct {
	Path                 []string
	Visits               []Visit
	AttractorEngagements map[string]int
	CharacterFocus       map[story.Character]int
	TemporalFocus        map[int]int
	EndpointProgress     map[string]float64

	saturation  int
	visitCounts map[string]int
	events      []Event
	fingerprint cache.Fingerprint
}

// New creates an empty journey. A non-positive saturation uses DefaultSaturation.
func New(saturation int) *ReaderState {
	if saturation <= 0 {
		saturation = DefaultSaturation
	}
	return &ReaderState{
		AttractorEngagements: make(map[string]int),
		CharacterFocus:       make(map[story.Character]int),
		TemporalFocus:        make(map[int]int),
		EndpointProgress:     make(map[string]float64),
		saturation:           saturation,
		visitCounts:          make(map[string]int),
	}
}

// Rebuild replays an event log into a fresh journey.
func Rebuild(saturation int, events []Event) *ReaderState {
	s := New(saturation)
	for _, e := range events {
		s.apply(e)
	}
	return s
}

// RecordVisit appends a visit to node and engages the node's attractors.
func (s *ReaderState) RecordVisit(node *story.Node, at time.Time) Visit {
	s.apply(Event{
		Kind:          EventVisit,
		NodeID:        node.ID,
		Character:     node.Character,
		TemporalLayer: node.TemporalValue,
		Attractors:    append([]string(nil), node.Attractors...),
		At:            at,
	})
	return s.Visits[len(s.Visits)-1]
}

// Engage records an explicit engagement with one attractor.
func (s *ReaderState) Engage(attractor string, at time.Time) {
	s.apply(Event{Kind: EventEngage, Attractors: []string{attractor}, At: at})
}

func (s *ReaderState) apply(e Event) {
	switch e.Kind {
	case EventVisit:
		v := Visit{
			NodeID:        e.NodeID,
			Character:     e.Character,
			TemporalLayer: e.TemporalLayer,
			Attractors:    e.Attractors,
			Index:         len(s.Path),
			RevisitCount:  s.visitCounts[e.NodeID],
			At:            e.At,
		}
		s.Path = append(s.Path, e.NodeID)
		s.Visits = append(s.Visits, v)
		s.visitCounts[e.NodeID]++
		s.CharacterFocus[e.Character]++
		s.TemporalFocus[e.TemporalLayer]++
	case EventEngage:
	default:
		return
	}
	for _, a := range e.Attractors {
		s.AttractorEngagements[a]++
		p := float64(s.AttractorEngagements[a]) / float64(s.saturation)
		if p > 1 {
			p = 1
		}
		s.EndpointProgress[a] = p
	}
	s.events = append(s.events, e)
	s.fingerprint = chain(s.fingerprint, e)
}

// chain folds an event into the running fingerprint. Timestamps are
// excluded: two journeys with the same moves are the same journey.
func chain(prev cache.Fingerprint, e Event) cache.Fingerprint {
	return cache.NewKey().
		Fingerprint(prev).
		String(string(e.Kind)).
		String(e.NodeID).
		String(string(e.Character)).
		Int(e.TemporalLayer).
		Strings(e.Attractors).
		Sum()
}

// Fingerprint identifies the journey's content. Any appended event changes it.
func (s *ReaderState) Fingerprint() cache.Fingerprint {
	return s.fingerprint
}

// Len returns the number of visits.
func (s *ReaderState) Len() int {
	return len(s.Visits)
}

// VisitCount returns how many times nodeID has been visited.
func (s *ReaderState) VisitCount(nodeID string) int {
	return s.visitCounts[nodeID]
}

// Last returns up to n most recent visits, oldest first.
func (s *ReaderState) Last(n int) []Visit {
	if n > len(s.Visits) {
		n = len(s.Visits)
	}
	if n <= 0 {
		return nil
	}
	return s.Visits[len(s.Visits)-n:]
}

// RecentPath returns up to n most recent node IDs, oldest first.
func (s *ReaderState) RecentPath(n int) []string {
	if n > len(s.Path) {
		n = len(s.Path)
	}
	if n <= 0 {
		return nil
	}
	return s.Path[len(s.Path)-n:]
}

// Saturation returns the engagement count at which endpoint progress is 1.
func (s *ReaderState) Saturation() int {
	return s.saturation
}

// Events returns a copy of the event log.
func (s *ReaderState) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Clone returns an independent copy. Appends to either copy never affect
// the other.
func (s *ReaderState) Clone() *ReaderState {
	return Rebuild(s.saturation, s.events)
}
