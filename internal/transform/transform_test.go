package transform

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

type lookup map[string]*story.Node

func (l lookup) Node(id string) (*story.Node, bool) {
	n, ok := l[id]
	return n, ok
}

var (
	algNode = &story.Node{ID: "alg", Title: "Index", Character: story.CharacterAlgorithm, TemporalValue: 3}
	digNode = &story.Node{ID: "dig", Title: "Trench", Character: story.CharacterArchaeologist, TemporalValue: 1}
	nodes   = lookup{"alg": algNode, "dig": digNode}
)

func walk(ns ...*story.Node) *journey.ReaderState {
	s := journey.New(0)
	for _, n := range ns {
		s.RecordVisit(n, time.Time{})
	}
	return s
}

func TestMerge_BoundAndOrder(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	var in []story.TextTransformation
	for i := range 14 {
		p := story.PriorityLow
		if i%2 == 1 {
			p = story.PriorityHigh
		}
		in = append(in, story.TextTransformation{Type: story.TypeEmphasize, Selector: string(rune('a' + i)), Priority: p})
	}
	in = append(in, story.TextTransformation{Type: story.TypeEmphasize, Selector: "b", Priority: story.PriorityHigh})

	got := e.merge(in)
	if len(got) != 10 {
		t.Fatalf("merge kept %d, want 10", len(got))
	}
	for i := 0; i < 7; i++ {
		if got[i].Priority != story.PriorityHigh {
			t.Errorf("got[%d] = %+v, want high priority first", i, got[i])
		}
	}
	if got[0].Selector != "b" {
		t.Errorf("stable order broken: first = %q", got[0].Selector)
	}
	seen := map[string]bool{}
	for _, g := range got {
		if seen[g.Selector] {
			t.Errorf("duplicate selector %q survived merge", g.Selector)
		}
		seen[g.Selector] = true
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	s := walk(algNode, digNode, algNode, digNode)
	nc := NodeContext{Node: digNode, VisitCount: 2}

	tests := []struct {
		name string
		cond story.Condition
		want bool
	}{
		{"visit count", story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpGte, Value: 2}}, true},
		{"visit pattern run", story.Condition{VisitPattern: []string{"alg", "dig"}}, true},
		{"visit pattern absent", story.Condition{VisitPattern: []string{"dig", "dig"}}, false},
		{"journey subsequence", story.Condition{JourneyPattern: []string{"alg", "alg"}}, true},
		{"previously visited", story.Condition{PreviouslyVisited: []string{"alg"}}, true},
		{"revisit", story.Condition{RevisitPattern: &story.RevisitPatternCondition{MinRevisits: 1}}, true},
		{"bleed from algorithm", story.Condition{CharacterBleed: &story.CharacterBleedCondition{From: story.CharacterAlgorithm}}, true},
		{"temporal position of origin", story.Condition{TemporalPosition: &story.TemporalPositionCondition{Op: story.OpGt, Layer: 2}}, true},
		{"empty all_of", story.Condition{AllOf: []story.Condition{}}, false},
		{"not", story.Condition{Not: &story.Condition{PreviouslyVisited: []string{"nowhere"}}}, true},
		{"any_of", story.Condition{AnyOf: []story.Condition{
			{PreviouslyVisited: []string{"nowhere"}},
			{VisitCount: &story.VisitCountCondition{Op: story.OpEq, Value: 2}},
		}}, true},
		{"malformed", story.Condition{VisitPattern: []string{"a"}, PreviouslyVisited: []string{"b"}}, false},
		{"empty", story.Condition{}, false},
	}

	e := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.Evaluate(tt.cond, s, nc); got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestEvaluate_UndecidedNeverHolds(t *testing.T) {
	t.Parallel()
	first := walk(digNode)
	nc := NodeContext{Node: digNode, VisitCount: 1}
	badOp := story.Condition{VisitCount: &story.VisitCountCondition{Op: "greater", Value: 5}}
	noOrigin := story.Condition{TemporalPosition: &story.TemporalPositionCondition{Op: story.OpGt, Layer: 2}}
	holds := story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpEq, Value: 1}}

	tests := []struct {
		name string
		cond story.Condition
	}{
		{"unknown op", badOp},
		{"not unknown op", story.Condition{Not: &badOp}},
		{"not without origin", story.Condition{Not: &noOrigin}},
		{"not malformed", story.Condition{Not: &story.Condition{}}},
		{"double not", story.Condition{Not: &story.Condition{Not: &noOrigin}}},
		{"any_of with undecided branch", story.Condition{AnyOf: []story.Condition{holds, noOrigin}}},
		{"all_of with undecided branch", story.Condition{AllOf: []story.Condition{holds, {Not: &badOp}}}},
		{"not over all_of", story.Condition{Not: &story.Condition{AllOf: []story.Condition{
			{VisitCount: &story.VisitCountCondition{Op: story.OpGt, Value: 3}}, noOrigin,
		}}}},
	}

	e := New(DefaultConfig())
	if !e.Evaluate(holds, first, nc) {
		t.Fatal("decidable condition should hold on the first visit")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if e.Evaluate(tt.cond, first, nc) {
				t.Errorf("Evaluate(%s) = true, want false", tt.name)
			}
		})
	}
}

func TestRuleTransformations_SkipsNegatedFailure(t *testing.T) {
	t.Parallel()
	node := &story.Node{
		ID:        "solo",
		Character: story.CharacterArchaeologist,
		Rules: []story.TransformationRule{{
			ID: "inverted",
			Condition: story.Condition{Not: &story.Condition{
				TemporalPosition: &story.TemporalPositionCondition{Layer: 1},
			}},
			Transformations: []story.TextTransformation{{Type: story.TypeEmphasize, Selector: "stone"}},
		}},
	}
	nc := NodeContext{Node: node, VisitCount: 1}
	e := New(DefaultConfig())
	for _, cached := range []bool{true, false} {
		if got := e.ruleTransformations(nc, walk(node), cached); len(got) != 0 {
			t.Errorf("cached=%v: rule fired with %+v", cached, got)
		}
	}
}

func TestEvaluate_CacheKeyIncludesVisitCount(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	s := walk(digNode)
	cond := story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpGte, Value: 2}}

	if e.Evaluate(cond, s, NodeContext{Node: digNode, VisitCount: 1}) {
		t.Error("visit 1 satisfied >= 2")
	}
	if !e.Evaluate(cond, s, NodeContext{Node: digNode, VisitCount: 2}) {
		t.Error("visit 2 reused the visit 1 result")
	}
	e.Evaluate(cond, s, NodeContext{Node: digNode, VisitCount: 2})
	st := e.Stats()["conditions"]
	if st.Hits != 1 || st.Misses != 2 {
		t.Errorf("condition cache = %+v, want 1 hit 2 misses", st)
	}
}

func TestCalculateAll_DeterministicAndBounded(t *testing.T) {
	t.Parallel()
	node := &story.Node{ID: "dig", Character: story.CharacterArchaeologist}
	for i := range 8 {
		node.Rules = append(node.Rules, story.TransformationRule{
			ID:        "r" + string(rune('0'+i)),
			Condition: story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpGte, Value: 1}},
			Transformations: []story.TextTransformation{
				{Type: story.TypeEmphasize, Selector: "layer"},
				{Type: story.TypeExpand, Selector: "data", Expansion: "+"},
			},
		})
	}
	content := "We analyze the data and process each layer."
	s := walk(algNode, node)
	nc := NodeContext{Node: node, VisitCount: 1}

	a := New(DefaultConfig()).CalculateAll(content, nc, s, nodes)
	b := New(DefaultConfig()).CalculateAll(content, nc, s, nodes)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("fresh engines disagree:\n%+v\n%+v", a, b)
	}
	if len(a) > 10 {
		t.Errorf("CalculateAll returned %d, want <= 10", len(a))
	}
	if a[0].Priority != story.PriorityHigh {
		t.Errorf("first transformation %+v, want a high-priority bleed effect", a[0])
	}
	rules := 0
	for _, tr := range a {
		if tr.Priority == story.PriorityMedium {
			rules++
		}
	}
	if rules > 3 {
		t.Errorf("%d rule transformations kept, want <= 3", rules)
	}
}

func TestCalculateAll_CachedResultIsCallerOwned(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	content := "We analyze the data."
	s := walk(algNode, digNode)
	nc := NodeContext{Node: digNode, VisitCount: 1}

	first := e.CalculateAll(content, nc, s, nodes)
	if len(first) == 0 {
		t.Fatal("no transformations")
	}
	first[0].Selector = "mutated"
	second := e.CalculateAll(content, nc, s, nodes)
	if second[0].Selector == "mutated" {
		t.Error("caller mutation leaked into the cache")
	}
	if st := e.Stats()["master"]; st.Hits != 1 {
		t.Errorf("master cache hits = %d, want 1", st.Hits)
	}
}

func TestTransformedContent_Clean(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	content := "We analyze the data."
	out := e.TransformedContent(content, NodeContext{Node: digNode, VisitCount: 1}, walk(algNode, digNode), nodes)
	if out.Fallback || out.Recovered {
		t.Fatalf("clean content flagged: %+v", out)
	}
	if !strings.Contains(out.Content, `data-transform="emphasize"`) {
		t.Errorf("bleed not applied: %q", out.Content)
	}
	if len(out.AppliedIDs()) == 0 {
		t.Error("no applied IDs")
	}
}

func TestTransformedContent_FallsBackOnPersistentCorruption(t *testing.T) {
	t.Parallel()
	node := &story.Node{
		ID:        "solo",
		Character: story.CharacterArchaeologist,
		Rules: []story.TransformationRule{{
			ID:              "leak",
			Condition:       story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpGte, Value: 1}},
			Transformations: []story.TextTransformation{{Type: story.TypeReplace, Selector: "name", Replacement: strings.Repeat("name ", 1000)}},
		}},
	}
	content := "Her name is lost."
	out := New(DefaultConfig()).TransformedContent(content, NodeContext{Node: node, VisitCount: 1}, walk(node), lookup{"solo": node})
	if !out.Fallback {
		t.Fatalf("Fallback = false, content %q", out.Content)
	}
	if out.Content != content {
		t.Errorf("fallback content = %q, want original", out.Content)
	}
	if out.Notice != FallbackNotice {
		t.Errorf("Notice = %q", out.Notice)
	}
	if len(out.Corruption) == 0 || out.AppliedIDs() != nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestTransformedContent_AuthoredDebugWordsKept(t *testing.T) {
	t.Parallel()
	node := &story.Node{
		ID:        "ridge",
		Character: story.CharacterArchaeologist,
		Rules: []story.TransformationRule{{
			ID:        "haze",
			Condition: story.Condition{VisitCount: &story.VisitCountCondition{Op: story.OpGte, Value: 1}},
			Transformations: []story.TextTransformation{
				{Type: story.TypeReplace, Selector: "horizon", Replacement: "an undefined horizon"},
				{Type: story.TypeEmphasize, Selector: "stone"},
				{Type: story.TypeExpand, Selector: "ridge", Expansion: "{{unmapped}}"},
			},
		}},
	}
	content := "A stone ridge against the horizon."
	out := New(DefaultConfig()).TransformedContent(content, NodeContext{Node: node, VisitCount: 1}, walk(node), lookup{"ridge": node})
	if out.Fallback || out.Recovered || len(out.Corruption) > 0 {
		t.Fatalf("authored text flagged as corruption: %+v", out)
	}
	for _, want := range []string{"an undefined horizon", `data-transform="emphasize"`, "{{unmapped}}"} {
		if !strings.Contains(out.Content, want) {
			t.Errorf("content missing %q: %q", want, out.Content)
		}
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		original string
		current  string
		authored []string
		bad      bool
	}{
		{"clean", "a b", `a <span data-transform="emphasize">b</span>`, nil, false},
		{"nested", "a b", `<span data-transform="x"><span data-transform="y">b</span></span>`, nil, true},
		{"new debug token", "a", "a undefined", nil, true},
		{"token in original", "NaN is a word here", "NaN is a word here", nil, false},
		{"token in authored text", "a", "a undefined", []string{"undefined"}, false},
		{"more tokens than authored", "a", "undefined undefined", []string{"undefined"}, true},
		{"emptied", "text", "  ", nil, true},
		{"ballooned", "x", strings.Repeat("x", 5000), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Inspect(tt.original, tt.current, tt.authored...); (len(got) > 0) != tt.bad {
				t.Errorf("Inspect = %v, want corrupted=%v", got, tt.bad)
			}
		})
	}
}

func TestPlainSentences(t *testing.T) {
	t.Parallel()
	got := plainSentences("First one. A <b>marked</b> one! Last")
	want := []string{"First one.", "Last"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("plainSentences = %q, want %q", got, want)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	e.CalculateAll("data", NodeContext{Node: digNode, VisitCount: 1}, walk(algNode, digNode), nodes)
	e.Reset()
	for name, st := range e.Stats() {
		if st.Len != 0 || st.Hits != 0 || st.Misses != 0 {
			t.Errorf("%s cache not reset: %+v", name, st)
		}
	}
}
