package story

// Manifest is parsed from story.toml in the story directory root.
type Manifest struct {
	Story Info `toml:"story"`
}

// Info holds the story's name, description and entry node.
type Info struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Start       string `toml:"start"` // Node ID the reader begins at
}

// Character is one of the fixed narrative perspectives.
type Character string

// Characters recognized in node frontmatter.
const (
	CharacterArchaeologist Character = "archaeologist"
	CharacterAlgorithm     Character = "algorithm"
	CharacterLastHuman     Character = "last-human"
)

// ValidCharacters is the set of recognized character values.
var ValidCharacters = map[Character]bool{
	CharacterArchaeologist: true,
	CharacterAlgorithm:     true,
	CharacterLastHuman:     true,
}

// BleedSection returns the content section name an author uses for text
// shown when the reader arrives from this character's perspective.
func (c Character) BleedSection() string {
	return string(c) + "-bleed"
}

// Node is a single authored narrative fragment, parsed from a *.md file with
// TOML frontmatter. Nodes are immutable once loaded.
type Node struct {
	ID              string               `toml:"id"`
	Title           string               `toml:"title"`
	Character       Character            `toml:"character"`
	TemporalValue   int                  `toml:"temporal"`
	Attractors      []string             `toml:"attractors"`
	Links           []string             `toml:"links"`
	JourneyVariants []JourneyVariant     `toml:"journey_variants"`
	Rules           []TransformationRule `toml:"rules"`
	Source          string               `toml:"-"` // Raw body after the +++ block
	SourceFile      string               `toml:"-"` // Relative path for error context
}

// HasAttractor reports whether the node is tagged with the given attractor.
func (n *Node) HasAttractor(name string) bool {
	for _, a := range n.Attractors {
		if a == name {
			return true
		}
	}
	return false
}

// JourneyVariant associates a named content section with a path signature.
// The section is eligible when Path appears contiguously in the reader's
// recent path.
type JourneyVariant struct {
	Section string   `toml:"section"`
	Path    []string `toml:"path"`
}

// TransformationRule pairs a condition with the transformations applied when
// it holds.
type TransformationRule struct {
	ID              string               `toml:"id"`
	Condition       Condition            `toml:"condition"`
	Transformations []TextTransformation `toml:"transformations"`
}

// TransformationType names the kind of text edit a transformation performs.
type TransformationType string

// Transformation types accepted in rule definitions.
const (
	TypeReplace     TransformationType = "replace"
	TypeFragment    TransformationType = "fragment"
	TypeExpand      TransformationType = "expand"
	TypeEmphasize   TransformationType = "emphasize"
	TypeMetaComment TransformationType = "metaComment"
)

// ValidTransformationTypes is the set of recognized transformation types.
var ValidTransformationTypes = map[TransformationType]bool{
	TypeReplace:     true,
	TypeFragment:    true,
	TypeExpand:      true,
	TypeEmphasize:   true,
	TypeMetaComment: true,
}

// Priority orders transformations; high-priority edits claim text first.
type Priority string

// Priorities, highest first.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sort key where lower ranks are applied first. Unknown and
// empty priorities rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// TextTransformation is a typed edit applied to the span(s) identified by
// Selector. Only the parameters relevant to Type are read.
type TextTransformation struct {
	Type            TransformationType `toml:"type"`
	Selector        string             `toml:"selector"`
	Replacement     string             `toml:"replacement"`
	FragmentPattern string             `toml:"fragment_pattern"`
	FragmentStyle   string             `toml:"fragment_style"`
	Expansion       string             `toml:"expansion"`
	EmphasisStyle   string             `toml:"emphasis_style"`
	Comment         string             `toml:"comment"`
	CommentStyle    string             `toml:"comment_style"`
	Priority        Priority           `toml:"priority"`
	Intensity       int                `toml:"intensity"` // 0 = unset, otherwise 1..5
}

// Story is the fully parsed representation of a story directory.
type Story struct {
	Dir      string
	Manifest Manifest
	Nodes    []*Node

	byID map[string]*Node
}

// Node returns the node with the given ID.
func (s *Story) Node(id string) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Start returns the manifest's start node ID, falling back to the first
// node in file order.
func (s *Story) Start() string {
	if s.Manifest.Story.Start != "" {
		return s.Manifest.Story.Start
	}
	if len(s.Nodes) > 0 {
		return s.Nodes[0].ID
	}
	return ""
}
