package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/telemetry"
	"github.com/papapumpkin/palimpsest/internal/transform"
	"github.com/papapumpkin/palimpsest/internal/variant"
)

// Ticket identifies one computation of the current node. It carries a
// private snapshot of the journey, so computing never observes later moves.
type Ticket struct {
	NodeID     string
	VisitCount int

	seq    uint64
	node   *story.Node
	state  *journey.ReaderState
	source Source
	nodes  analyzer.NodeLookup
}

// Result is the output of Compute, ready to be committed.
type Result struct {
	Ticket  Ticket
	State   NodeState
	Outcome transform.Outcome
	Phases  []Phase // phases passed through, in order
	Err     error
}

// Begin records a visit to nodeID, makes it the current node and returns the
// ticket to compute it with. Any result still in flight for an earlier ticket
// will be discarded at commit.
func (s *Session) Begin(ctx context.Context, nodeID string) (Ticket, error) {
	s.mu.Lock()
	node, ok := s.story.Node(nodeID)
	if !ok {
		s.mu.Unlock()
		return Ticket{}, fmt.Errorf("%w: %q", story.ErrUnknownNode, nodeID)
	}
	before := len(s.state.Events())
	s.state.RecordVisit(node, s.now())
	fresh := s.state.Events()[before:]
	t := s.issue(node)
	s.mu.Unlock()

	s.record(ctx, fresh)
	s.emit(telemetry.KindVisit, nodeID, map[string]int{"visit_count": t.VisitCount})
	return t, nil
}

// issue starts a new node view. The caller holds s.mu.
func (s *Session) issue(node *story.Node) Ticket {
	s.seq++
	t := Ticket{
		NodeID:     node.ID,
		VisitCount: s.state.VisitCount(node.ID),
		seq:        s.seq,
		node:       node,
		state:      s.state.Clone(),
		source:     s.source,
		nodes:      s.story,
	}
	s.ticket = &t
	s.node = NodeState{Node: node, VisitCount: t.VisitCount, Phase: PhaseLoaded}
	return t
}

// Compute produces the node view for t. It reads only the ticket and the
// shared caches, so it may run on any goroutine.
func (s *Session) Compute(ctx context.Context, t Ticket) Result {
	res := Result{Ticket: t, Phases: []Phase{PhaseLoaded}}
	ns := NodeState{
		Node:       t.node,
		VisitCount: t.VisitCount,
		Journey:    s.journeyContext(t),
	}

	raw, err := t.source.Fetch(ctx, t.NodeID)
	if ctx.Err() != nil {
		res.Err = ctx.Err()
		res.State = ns
		return res
	}
	if err != nil {
		ns.Phase = PhaseLoadFailed
		ns.CurrentContent = s.cfg.FallbackMessage
		ns.Notice = ErrContentLoad.Error()
		res.State = ns
		res.Phases = append(res.Phases, PhaseLoadFailed)
		res.Err = fmt.Errorf("%w: %s: %w", ErrContentLoad, t.NodeID, err)
		return res
	}

	content := s.selector.Parse(raw)
	sel := s.selector.Select(content, t.node, variant.Context{
		VisitCount:         t.VisitCount,
		LastCharacter:      ns.Journey.LastCharacter,
		RecentPath:         ns.Journey.RecentPath,
		CharacterSequence:  analyzer.CharacterSequence(t.state, s.cfg.RecentPathLen),
		AttractorsEngaged:  t.state.AttractorEngagements,
		RecursiveAwareness: ns.Journey.RecursiveAwareness,
	})
	ns.OriginalContent = sel.Text
	ns.SelectedVariant = sel.Key
	res.Phases = append(res.Phases, PhaseVariantSelected)

	out := s.engine.TransformedContent(sel.Text, transform.NodeContext{Node: t.node, VisitCount: t.VisitCount}, t.state, t.nodes)
	ns.Transformations = out.Transformations
	res.Phases = append(res.Phases, PhaseTransformationsComputed)

	ns.CurrentContent = out.Content
	ns.AppliedTransformationIDs = out.AppliedIDs()
	ns.Notice = out.Notice
	ns.Phase = PhaseApplied
	res.Phases = append(res.Phases, PhaseApplied)

	res.State = ns
	res.Outcome = out
	return res
}

func (s *Session) journeyContext(t Ticket) JourneyContext {
	a := s.engine.Analyzer()
	jc := JourneyContext{
		RecentPath:           t.state.RecentPath(s.cfg.RecentPathLen),
		RecursiveAwareness:   analyzer.Awareness(a.RecursivePatterns(t.state), t.NodeID),
		TemporalDisplacement: a.TemporalJumping(t.state).Volatility,
	}
	if last := t.state.Last(2); len(last) == 2 && last[1].NodeID == t.NodeID {
		jc.LastCharacter = last[0].Character
	}
	return jc
}

// Commit writes r as the current node state. It succeeds once per ticket,
// and only while the ticket is still current and its computation was not
// cancelled.
func (s *Session) Commit(r Result) bool {
	s.mu.Lock()
	stale := s.ticket == nil || r.Ticket.seq != s.ticket.seq || r.Ticket.seq == s.committed
	cancelled := errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
	if stale || cancelled {
		s.mu.Unlock()
		s.log.Debug("result discarded", "node", r.Ticket.NodeID, "stale", stale, "cancelled", cancelled)
		s.emit(telemetry.KindDiscard, r.Ticket.NodeID, map[string]bool{"stale": stale, "cancelled": cancelled})
		return false
	}
	s.node = r.State
	s.committed = r.Ticket.seq
	s.mu.Unlock()

	nodeID := r.Ticket.NodeID
	switch {
	case r.State.Phase == PhaseLoadFailed:
		s.log.Warn("node content failed to load", "node", nodeID, "error", r.Err)
		s.emit(telemetry.KindLoadFailure, nodeID, map[string]string{"error": r.Err.Error()})
		return true
	case r.Outcome.Fallback:
		s.emit(telemetry.KindCorruptionFallback, nodeID, map[string][]string{"reasons": r.Outcome.Corruption})
	case r.Outcome.Recovered:
		s.emit(telemetry.KindCorruptionRecovered, nodeID, map[string][]string{"reasons": r.Outcome.Corruption})
	}
	s.emit(telemetry.KindCommit, nodeID, map[string]any{
		"variant": r.State.SelectedVariant,
		"applied": r.State.AppliedTransformationIDs,
	})
	return true
}

// Navigate visits nodeID and commits its view. Content that fails to load is
// reported through the returned state's phase, not as an error.
func (s *Session) Navigate(ctx context.Context, nodeID string) (NodeState, error) {
	t, err := s.Begin(ctx, nodeID)
	if err != nil {
		return s.Current(), err
	}
	s.Commit(s.Compute(ctx, t))
	return s.Current(), nil
}

// Refresh recomputes the current node from Loaded without recording a new
// visit.
func (s *Session) Refresh(ctx context.Context) (NodeState, error) {
	s.mu.Lock()
	if s.ticket == nil {
		s.mu.Unlock()
		return s.Current(), ErrNoCurrentNode
	}
	id := s.ticket.NodeID
	node, ok := s.story.Node(id)
	if !ok {
		s.mu.Unlock()
		return s.Current(), fmt.Errorf("%w: %q", story.ErrUnknownNode, id)
	}
	t := s.issue(node)
	s.mu.Unlock()

	s.Commit(s.Compute(ctx, t))
	return s.Current(), nil
}

// Retry recomputes the current node if its content failed to load.
func (s *Session) Retry(ctx context.Context) (NodeState, error) {
	if cur := s.Current(); cur.Phase != PhaseLoadFailed {
		return cur, nil
	}
	return s.Refresh(ctx)
}

// Engage records an engagement with attractor and refreshes the current
// node, since the journey it was computed from has changed.
func (s *Session) Engage(ctx context.Context, attractor string) (NodeState, error) {
	s.mu.Lock()
	before := len(s.state.Events())
	fp := s.state.Fingerprint()
	s.state.Engage(attractor, s.now())
	fresh := s.state.Events()[before:]
	changed := s.state.Fingerprint() != fp
	hasNode := s.ticket != nil
	s.mu.Unlock()

	s.record(ctx, fresh)
	s.emit(telemetry.KindEngage, "", map[string]string{"attractor": attractor})
	if !changed || !hasNode {
		return s.Current(), nil
	}
	return s.Refresh(ctx)
}
