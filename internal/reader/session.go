// Package reader drives one reader's walk through a story. Each node view is
// a small state machine: a visit is begun, its content is computed from an
// immutable snapshot of the journey, and the result is committed exactly
// once, unless a newer visit has superseded it in the meantime.
package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/telemetry"
	"github.com/papapumpkin/palimpsest/internal/transform"
	"github.com/papapumpkin/palimpsest/internal/variant"
)

var (
	// ErrContentLoad indicates a node's source could not be fetched.
	ErrContentLoad = errors.New("content could not be loaded")
	// ErrNoCurrentNode indicates an operation that needs a current node was
	// called before any visit.
	ErrNoCurrentNode = errors.New("no current node")
)

// Phase is the lifecycle stage of the current node view.
type Phase string

// Node view phases, in pipeline order. PhaseLoadFailed replaces the last
// three when the source cannot be fetched.
const (
	PhaseIdle                    Phase = "idle"
	PhaseLoaded                  Phase = "loaded"
	PhaseVariantSelected         Phase = "variant_selected"
	PhaseTransformationsComputed Phase = "transformations_computed"
	PhaseApplied                 Phase = "applied"
	PhaseLoadFailed              Phase = "load_failed"
)

// Source supplies raw node content.
type Source interface {
	Fetch(ctx context.Context, nodeID string) (string, error)
}

// Recorder persists journey events as they happen.
type Recorder interface {
	Append(ctx context.Context, sessionID string, events ...journey.Event) error
}

// JourneyContext summarizes the journey as seen from the current node.
type JourneyContext struct {
	LastCharacter        story.Character
	RecentPath           []string
	RecursiveAwareness   float64
	TemporalDisplacement float64
}

// NodeState is the committed view of the current node.
type NodeState struct {
	Node                     *story.Node
	VisitCount               int
	OriginalContent          string
	CurrentContent           string
	AppliedTransformationIDs []string
	Transformations          []story.TextTransformation
	Journey                  JourneyContext
	Phase                    Phase
	SelectedVariant          string
	Notice                   string
}

// Config controls session behaviour.
type Config struct {
	RecentPathLen   int    // path window for variant selection (default: 5)
	Saturation      int    // engagements at which endpoint progress is 1 (default: 5)
	FallbackMessage string // shown in place of content that failed to load
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		RecentPathLen:   5,
		Saturation:      journey.DefaultSaturation,
		FallbackMessage: "This fragment could not be recovered. Try again.",
	}
}

// Session is one reader's journey through a story. It is safe for
// concurrent use; Compute runs without holding the session lock.
type Session struct {
	cfg      Config
	id       string
	log      *slog.Logger
	emitter  *telemetry.Emitter
	recorder Recorder
	engine   *transform.Engine
	selector *variant.Selector
	now      func() time.Time

	mu        sync.Mutex
	story     *story.Story
	source    Source
	state     *journey.ReaderState
	seq       uint64
	committed uint64
	ticket    *Ticket
	node      NodeState
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithEmitter records session events to a telemetry stream.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(s *Session) { s.emitter = e }
}

// WithRecorder persists journey events as they are recorded.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithEngine shares a transformation engine between sessions.
func WithEngine(e *transform.Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithSelector shares a variant selector between sessions.
func WithSelector(v *variant.Selector) Option {
	return func(s *Session) { s.selector = v }
}

// WithSource overrides where node content is fetched from. The story itself
// is the default source.
func WithSource(src Source) Option {
	return func(s *Session) { s.source = src }
}

// WithJourney resumes a previously recorded session.
func WithJourney(id string, state *journey.ReaderState) Option {
	return func(s *Session) {
		s.id = id
		s.state = state
	}
}

// WithClock overrides the time source for recorded events.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session reading st.
func New(st *story.Story, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:   cfg,
		story: st,
		now:   time.Now,
		node:  NodeState{Phase: PhaseIdle},
	}
	for _, o := range opts {
		o(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.state == nil {
		s.state = journey.New(cfg.Saturation)
	}
	if s.source == nil {
		s.source = st
	}
	if s.engine == nil {
		s.engine = transform.New(transform.DefaultConfig(), transform.WithLogger(s.log))
	}
	if s.selector == nil {
		s.selector = variant.NewSelector(variant.DefaultConfig())
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Story returns the story being read.
func (s *Session) Story() *story.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story
}

// Current returns the committed state of the current node.
func (s *Session) Current() NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.node
}

// State returns a snapshot of the journey.
func (s *Session) State() *journey.ReaderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Engine returns the transformation engine the session renders with.
func (s *Session) Engine() *transform.Engine { return s.engine }

// ReplaceStory swaps in a reloaded story. Engine and selector caches are
// cleared since rules may have changed under the same IDs. The current node,
// if it still exists, is refreshed.
func (s *Session) ReplaceStory(ctx context.Context, st *story.Story) (NodeState, error) {
	s.mu.Lock()
	if src, ok := s.source.(*story.Story); ok && src == s.story {
		s.source = st
	}
	s.story = st
	s.mu.Unlock()

	s.engine.Reset()
	s.selector.Reset()

	if s.Current().Node == nil {
		return s.Current(), nil
	}
	return s.Refresh(ctx)
}

// Summary returns the analyzer's view of the journey so far.
func (s *Session) Summary() Summary {
	st := s.State()
	a := s.engine.Analyzer()
	return Summary{
		SessionID:   s.id,
		Path:        st.Path,
		Engagements: st.AttractorEngagements,
		Fingerprint: a.JourneyFingerprint(st),
		Patterns:    a.AnalyzePathPatterns(st, s.Story()),
		Recursive:   a.RecursivePatterns(st),
	}
}

// Summary is a read-only digest of a session's journey.
type Summary struct {
	SessionID   string                      `json:"session_id"`
	Path        []string                    `json:"path"`
	Engagements map[string]int              `json:"engagements"`
	Fingerprint analyzer.JourneyFingerprint `json:"fingerprint"`
	Patterns    []analyzer.ReadingPattern   `json:"patterns"`
	Recursive   []analyzer.RecursivePattern `json:"recursive"`
}

func (s *Session) emit(kind, nodeID string, data any) {
	if err := s.emitter.Emit(telemetry.Event{
		Timestamp: s.now().UTC(),
		Kind:      kind,
		SessionID: s.id,
		NodeID:    nodeID,
		Data:      data,
	}); err != nil {
		s.log.Warn("telemetry emit failed", "kind", kind, "error", err)
	}
}

func (s *Session) record(ctx context.Context, events []journey.Event) {
	if s.recorder == nil || len(events) == 0 {
		return
	}
	if err := s.recorder.Append(ctx, s.id, events...); err != nil {
		s.log.Warn("journey not persisted", "session", s.id, "error", err)
	}
}
