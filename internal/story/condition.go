package story

// Condition is a boolean expression tree over the reader's journey. Exactly
// one field may be set: a combinator (AllOf, AnyOf, Not) or a single leaf
// predicate. A condition with no field set, or with several, is malformed.
type Condition struct {
	AllOf []Condition `toml:"all_of"`
	AnyOf []Condition `toml:"any_of"`
	Not   *Condition  `toml:"not"`

	VisitCount          *VisitCountCondition          `toml:"visit_count"`
	VisitPattern        []string                      `toml:"visit_pattern"`
	PreviouslyVisited   []string                      `toml:"previously_visited"`
	AttractorsEngaged   *AttractorsEngagedCondition   `toml:"strange_attractors_engaged"`
	TemporalPosition    *TemporalPositionCondition    `toml:"temporal_position"`
	EndpointProgress    *EndpointProgressCondition    `toml:"endpoint_progress"`
	RevisitPattern      *RevisitPatternCondition      `toml:"revisit_pattern"`
	CharacterBleed      *CharacterBleedCondition      `toml:"character_bleed"`
	JourneyPattern      []string                      `toml:"journey_pattern"`
	CharacterFocus      *CharacterFocusCondition      `toml:"character_focus"`
	TemporalFocus       *TemporalFocusCondition       `toml:"temporal_focus"`
	AttractorAffinity   *AttractorAffinityCondition   `toml:"attractor_affinity"`
	AttractorEngagement *AttractorEngagementCondition `toml:"attractor_engagement"`
	RecursivePattern    *RecursivePatternCondition    `toml:"recursive_pattern"`
	JourneyFingerprint  *JourneyFingerprintCondition  `toml:"journey_fingerprint"`
}

// ConditionKind names which field of a Condition is set.
type ConditionKind string

// Condition kinds. KindEmpty and KindMalformed are not valid in authored
// rules; evaluation treats both as false.
const (
	KindEmpty               ConditionKind = ""
	KindMalformed           ConditionKind = "malformed"
	KindAllOf               ConditionKind = "all_of"
	KindAnyOf               ConditionKind = "any_of"
	KindNot                 ConditionKind = "not"
	KindVisitCount          ConditionKind = "visit_count"
	KindVisitPattern        ConditionKind = "visit_pattern"
	KindPreviouslyVisited   ConditionKind = "previously_visited"
	KindAttractorsEngaged   ConditionKind = "strange_attractors_engaged"
	KindTemporalPosition    ConditionKind = "temporal_position"
	KindEndpointProgress    ConditionKind = "endpoint_progress"
	KindRevisitPattern      ConditionKind = "revisit_pattern"
	KindCharacterBleed      ConditionKind = "character_bleed"
	KindJourneyPattern      ConditionKind = "journey_pattern"
	KindCharacterFocus      ConditionKind = "character_focus"
	KindTemporalFocus       ConditionKind = "temporal_focus"
	KindAttractorAffinity   ConditionKind = "attractor_affinity"
	KindAttractorEngagement ConditionKind = "attractor_engagement"
	KindRecursivePattern    ConditionKind = "recursive_pattern"
	KindJourneyFingerprint  ConditionKind = "journey_fingerprint"
)

// Kind reports which field is set.
func (c Condition) Kind() ConditionKind {
	set := []struct {
		kind ConditionKind
		ok   bool
	}{
		{KindAllOf, c.AllOf != nil},
		{KindAnyOf, c.AnyOf != nil},
		{KindNot, c.Not != nil},
		{KindVisitCount, c.VisitCount != nil},
		{KindVisitPattern, c.VisitPattern != nil},
		{KindPreviouslyVisited, c.PreviouslyVisited != nil},
		{KindAttractorsEngaged, c.AttractorsEngaged != nil},
		{KindTemporalPosition, c.TemporalPosition != nil},
		{KindEndpointProgress, c.EndpointProgress != nil},
		{KindRevisitPattern, c.RevisitPattern != nil},
		{KindCharacterBleed, c.CharacterBleed != nil},
		{KindJourneyPattern, c.JourneyPattern != nil},
		{KindCharacterFocus, c.CharacterFocus != nil},
		{KindTemporalFocus, c.TemporalFocus != nil},
		{KindAttractorAffinity, c.AttractorAffinity != nil},
		{KindAttractorEngagement, c.AttractorEngagement != nil},
		{KindRecursivePattern, c.RecursivePattern != nil},
		{KindJourneyFingerprint, c.JourneyFingerprint != nil},
	}

	kind := KindEmpty
	for _, s := range set {
		if !s.ok {
			continue
		}
		if kind != KindEmpty {
			return KindMalformed
		}
		kind = s.kind
	}
	return kind
}

// Comparison is a numeric comparison operator. The empty value means "gte".
type Comparison string

// Comparison operators.
const (
	OpEq  Comparison = "eq"
	OpNe  Comparison = "ne"
	OpGt  Comparison = "gt"
	OpGte Comparison = "gte"
	OpLt  Comparison = "lt"
	OpLte Comparison = "lte"
)

// Compare applies the operator to a and b. ok is false for unknown operators.
func (op Comparison) Compare(a, b float64) (result, ok bool) {
	switch op {
	case OpEq:
		return a == b, true
	case OpNe:
		return a != b, true
	case OpGt:
		return a > b, true
	case OpGte, "":
		return a >= b, true
	case OpLt:
		return a < b, true
	case OpLte:
		return a <= b, true
	}
	return false, false
}

// Valid reports whether op is a known operator or empty.
func (op Comparison) Valid() bool {
	_, ok := op.Compare(0, 0)
	return ok
}

// VisitCountCondition compares the current node's visit count.
type VisitCountCondition struct {
	Op    Comparison `toml:"op"`
	Value int        `toml:"value"`
}

// AttractorsEngagedCondition holds when every listed attractor has been
// engaged at least Threshold times (default 1).
type AttractorsEngagedCondition struct {
	Attractors []string `toml:"attractors"`
	Threshold  int      `toml:"threshold"`
}

// TemporalPositionCondition compares the temporal layer of the node the
// reader arrived from.
type TemporalPositionCondition struct {
	Op    Comparison `toml:"op"`
	Layer int        `toml:"layer"`
}

// EndpointProgressCondition compares an attractor's endpoint progress in [0,1].
type EndpointProgressCondition struct {
	Attractor string     `toml:"attractor"`
	Op        Comparison `toml:"op"`
	Value     float64    `toml:"value"`
}

// RevisitPatternCondition holds when Node (default: the current node) has been
// revisited at least MinRevisits times.
type RevisitPatternCondition struct {
	Node        string `toml:"node"`
	MinRevisits int    `toml:"min_revisits"`
}

// CharacterBleedCondition matches the perspective change observed between the
// last two visits. Empty From matches any differing character; empty To
// defaults to the current node's character.
type CharacterBleedCondition struct {
	From Character `toml:"from"`
	To   Character `toml:"to"`
}

// CharacterFocusCondition holds when the analyzer's focus ratio for Character
// reaches MinRatio.
type CharacterFocusCondition struct {
	Character Character `toml:"character"`
	MinRatio  float64   `toml:"min_ratio"`
}

// TemporalFocusCondition holds when the share of visits spent in Layer
// reaches MinRatio.
type TemporalFocusCondition struct {
	Layer    int     `toml:"layer"`
	MinRatio float64 `toml:"min_ratio"`
}

// AttractorAffinityCondition holds when the share of Attractors (default: the
// node's own) that the reader has engaged reaches MinRatio.
type AttractorAffinityCondition struct {
	Attractors []string `toml:"attractors"`
	MinRatio   float64  `toml:"min_ratio"`
}

// AttractorEngagementCondition holds when the attractor's engagement score
// reaches MinScore and, if Trend is set, its trend matches.
type AttractorEngagementCondition struct {
	Attractor string  `toml:"attractor"`
	MinScore  float64 `toml:"min_score"`
	Trend     string  `toml:"trend"`
}

// RecursivePatternCondition holds when any detected recursive pattern meets
// every set constraint. MaxAge bounds how many visits ago the pattern last
// completed; IncludesCurrent requires the current node in the loop.
type RecursivePatternCondition struct {
	MinStrength     float64 `toml:"min_strength"`
	MinLength       int     `toml:"min_length"`
	MaxAge          int     `toml:"max_age"`
	IncludesCurrent bool    `toml:"includes_current"`
}

// JourneyFingerprintCondition matches one or more fingerprint fields. At
// least one field must be set.
type JourneyFingerprintCondition struct {
	ExplorationStyle   string  `toml:"exploration_style"`
	TemporalPreference string  `toml:"temporal_preference"`
	NarrativeApproach  string  `toml:"narrative_approach"`
	MinComplexity      float64 `toml:"min_complexity"`
	MinFocus           float64 `toml:"min_focus"`
}

// IsZero reports whether no field is set.
func (c JourneyFingerprintCondition) IsZero() bool {
	return c == JourneyFingerprintCondition{}
}
