package bleed

import (
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Wildcard matches any target character in the transition table.
const Wildcard story.Character = "*"

// template describes one effect family for a character transition.
type template struct {
	terms     []string
	reason    string
	base      int // intensity before recursive-awareness scaling
	transform story.TextTransformation
}

type transition struct {
	source story.Character
	target story.Character
}

var (
	analyticalTerms   = []string{"analyze", "analyzes", "calculate", "compute", "process", "data", "pattern", "algorithm", "optimize"}
	memoryTerms       = []string{"remember", "memory", "memories", "past", "artifact", "ancient", "trace"}
	stratigraphyTerms = []string{"layer", "layers", "stratum", "strata", "excavate", "fragment", "fragments"}
	emotionalTerms    = []string{"fear", "hope", "loss", "love", "grief", "alone"}
)

// transitions is the fixed source→target effect table. Templates fire in
// listed order.
var transitions = map[transition][]template{
	{story.CharacterAlgorithm, story.CharacterArchaeologist}: {{
		terms:  analyticalTerms,
		reason: "algorithmic residue in the archaeologist's voice",
		base:   2,
		transform: story.TextTransformation{
			Type:          story.TypeEmphasize,
			EmphasisStyle: "strikethrough",
		},
	}},
	{story.CharacterArchaeologist, story.CharacterAlgorithm}: {{
		terms:  memoryTerms,
		reason: "archaeological memory parsed as data",
		base:   2,
		transform: story.TextTransformation{
			Type:      story.TypeExpand,
			Expansion: "[indexed: provenance unresolved]",
		},
	}},
	{story.CharacterAlgorithm, story.CharacterLastHuman}: {{
		terms:  analyticalTerms,
		reason: "computation glitching through human speech",
		base:   3,
		transform: story.TextTransformation{
			Type:            story.TypeFragment,
			FragmentStyle:   "glitch",
			FragmentPattern: "▒",
		},
	}},
	{story.CharacterArchaeologist, story.CharacterLastHuman}: {{
		terms:  stratigraphyTerms,
		reason: "strata echoing in the last human's memory",
		base:   2,
		transform: story.TextTransformation{
			Type:          story.TypeEmphasize,
			EmphasisStyle: "echo",
		},
	}},
	{story.CharacterLastHuman, Wildcard}: {{
		terms:  emotionalTerms,
		reason: "human feeling fading into another perspective",
		base:   1,
		transform: story.TextTransformation{
			Type:          story.TypeEmphasize,
			EmphasisStyle: "fade",
		},
	}},
}

// templatesFor returns the templates for source→target, preferring an exact
// entry over the wildcard.
func templatesFor(source, target story.Character) []template {
	if t, ok := transitions[transition{source, target}]; ok {
		return t
	}
	return transitions[transition{source, Wildcard}]
}

// Vocabulary returns every term the table associates with transitions out
// of c, in table order without duplicates.
func Vocabulary(c story.Character) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ts []template) {
		for _, t := range ts {
			for _, term := range t.terms {
				if !seen[term] {
					seen[term] = true
					out = append(out, term)
				}
			}
		}
	}
	for _, target := range []story.Character{story.CharacterArchaeologist, story.CharacterAlgorithm, story.CharacterLastHuman} {
		if target != c {
			add(transitions[transition{c, target}])
		}
	}
	add(transitions[transition{c, Wildcard}])
	return out
}
