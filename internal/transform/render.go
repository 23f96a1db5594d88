package transform

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// FallbackNotice is shown when transformed output could not be trusted and
// the original text is displayed instead.
const FallbackNotice = "The text is shown as first written; its transformations were withheld."

// debugTokens are internal placeholders that must never surface in output.
var debugTokens = []string{"[object Object]", "undefined", "NaN", "{{", "}}"}

// Inspect returns the reasons current looks corrupted relative to the
// original it was derived from, or nil. authored is the text the applied
// transformations wrote into current, one entry per insertion; debug tokens
// found there are the author's words, not leaks.
func Inspect(original, current string, authored ...string) []string {
	var reasons []string
	if d := TransformDepth(current); d > 1 {
		reasons = append(reasons, fmt.Sprintf("transformation markup nested %d deep", d))
	}
	for _, tok := range debugTokens {
		allowed := strings.Count(original, tok)
		for _, a := range authored {
			allowed += strings.Count(a, tok)
		}
		if strings.Count(current, tok) > allowed {
			reasons = append(reasons, fmt.Sprintf("leaked debug token %q", tok))
		}
	}
	if strings.TrimSpace(original) != "" && strings.TrimSpace(current) == "" {
		reasons = append(reasons, "output is empty")
	}
	if len(current) > 8*len(original)+4096 {
		reasons = append(reasons, fmt.Sprintf("output grew from %d to %d bytes", len(original), len(current)))
	}
	return reasons
}

// authoredText lists the text each applied transformation inserted, repeated
// once per wrapped span. A fragment pattern is counted once per gap between
// words of the span it joins.
func authoredText(ts []story.TextTransformation, res Result) []string {
	byID := make(map[string]story.TextTransformation, len(ts))
	for _, t := range ts {
		byID[TransformationID(t)] = t
	}
	var out []string
	for _, a := range res.Applied {
		t, ok := byID[a.ID]
		if !ok {
			continue
		}
		var text []string
		switch t.Type {
		case story.TypeReplace:
			text = []string{t.Replacement}
		case story.TypeExpand:
			text = []string{t.Expansion}
		case story.TypeMetaComment:
			text = []string{t.Comment, t.CommentStyle}
		case story.TypeFragment:
			gaps := max(len(strings.Fields(t.Selector))-1, 1)
			text = []string{strings.Repeat(t.FragmentPattern, gaps), t.FragmentStyle}
		default:
			text = []string{t.Comment, t.EmphasisStyle}
		}
		for range a.Spans {
			out = append(out, text...)
		}
	}
	return out
}

// Outcome is the rendered form of a node visit.
type Outcome struct {
	Content         string
	Transformations []story.TextTransformation
	Result          Result
	Corruption      []string // reasons the first attempt was rejected
	Recovered       bool     // a fresh recompute replaced corrupted output
	Fallback        bool     // original shown verbatim
	Notice          string
}

// AppliedIDs returns the IDs of the transformations in the displayed content.
func (o Outcome) AppliedIDs() []string {
	if o.Fallback {
		return nil
	}
	return o.Result.AppliedIDs()
}

// TransformedContent computes and applies transformations to original. When
// the output looks corrupted it recomputes without caches; if that is still
// corrupted, the original is returned verbatim with a notice.
func (e *Engine) TransformedContent(original string, nc NodeContext, s *journey.ReaderState, nodes analyzer.NodeLookup) Outcome {
	ts := e.CalculateAll(original, nc, s, nodes)
	res := e.Apply(original, ts)
	reasons := Inspect(original, res.Content, authoredText(ts, res)...)
	if len(reasons) == 0 {
		return Outcome{Content: res.Content, Transformations: ts, Result: res}
	}

	e.log.Warn("transformed content rejected, recomputing", "node", nc.Node.ID, "reasons", reasons)
	ts = e.calculate(original, nc, s, nodes, false)
	res = e.Apply(original, ts)
	if again := Inspect(original, res.Content, authoredText(ts, res)...); len(again) == 0 {
		return Outcome{Content: res.Content, Transformations: ts, Result: res, Corruption: reasons, Recovered: true}
	}

	e.log.Warn("recovery failed, showing original", "node", nc.Node.ID)
	return Outcome{
		Content:    original,
		Corruption: reasons,
		Fallback:   true,
		Notice:     FallbackNotice,
	}
}
