package transform

import (
	"strings"
	"testing"

	"github.com/papapumpkin/palimpsest/internal/story"
)

func TestApply_EmptyListIsIdentity(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	content := "Dust <em>settles</em> on the layer."
	res := e.Apply(content, nil)
	if res.Content != content {
		t.Errorf("Apply(nil) = %q, want %q", res.Content, content)
	}
	if len(res.Applied) != 0 || len(res.Skipped) != 0 {
		t.Errorf("Apply(nil) recorded work: %+v", res)
	}
}

func TestApply_Types(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		t    story.TextTransformation
		want []string
	}{
		{
			name: "replace",
			t:    story.TextTransformation{Type: story.TypeReplace, Selector: "dust", Replacement: "ash"},
			want: []string{`data-transform="replace"`, `data-original="dust"`, `>ash</span>`},
		},
		{
			name: "fragment",
			t:    story.TextTransformation{Type: story.TypeFragment, Selector: "old bones", FragmentPattern: "/"},
			want: []string{`data-transform="fragment"`, `>old/bones</span>`},
		},
		{
			name: "expand",
			t:    story.TextTransformation{Type: story.TypeExpand, Selector: "dust", Expansion: "[sampled]"},
			want: []string{`>dust<ins class="expansion">[sampled]</ins></span>`},
		},
		{
			name: "metaComment",
			t:    story.TextTransformation{Type: story.TypeMetaComment, Selector: "dust", Comment: "again", CommentStyle: "loop"},
			want: []string{`<aside class="meta-comment" data-style="loop">again</aside>`},
		},
		{
			name: "emphasize",
			t:    story.TextTransformation{Type: story.TypeEmphasize, Selector: "dust", EmphasisStyle: "echo", Priority: story.PriorityHigh, Intensity: 3},
			want: []string{`data-style="echo"`, `data-priority="high"`, `data-intensity="3"`, `>dust</span>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New(DefaultConfig())
			res := e.Apply("dust on old bones", []story.TextTransformation{tt.t})
			if len(res.Applied) != 1 {
				t.Fatalf("Applied = %+v, want one", res.Applied)
			}
			for _, w := range tt.want {
				if !strings.Contains(res.Content, w) {
					t.Errorf("content %q missing %q", res.Content, w)
				}
			}
		})
	}
}

func TestApply_SanitizesAuthoredText(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	res := e.Apply("the door", []story.TextTransformation{{
		Type: story.TypeReplace, Selector: "door", Replacement: `gate<script>alert(1)</script>`,
	}})
	if strings.Contains(res.Content, "<script") {
		t.Errorf("script survived sanitizing: %q", res.Content)
	}
	if !strings.Contains(res.Content, ">gate") {
		t.Errorf("replacement text lost: %q", res.Content)
	}
}

func TestApply_DuplicateSelectorClaimsOnce(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	res := e.Apply("a pattern emerges", []story.TextTransformation{
		{Type: story.TypeFragment, Selector: "pattern"},
		{Type: story.TypeEmphasize, Selector: "pattern"},
	})
	if len(res.Applied) != 1 || res.Applied[0].Type != story.TypeFragment {
		t.Fatalf("Applied = %+v, want only the fragment", res.Applied)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipOverlap {
		t.Errorf("Skipped = %+v, want emphasize skipped for overlap", res.Skipped)
	}
	if TransformDepth(res.Content) != 1 {
		t.Errorf("depth = %d, want 1", TransformDepth(res.Content))
	}
}

func TestApply_Skips(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	res := e.Apply("plain text", []story.TextTransformation{
		{Type: story.TypeEmphasize, Selector: "absent"},
		{Type: story.TypeEmphasize, Selector: "re:(a"},
		{Type: story.TypeEmphasize, Selector: "re:x*"},
	})
	if res.Content != "plain text" {
		t.Errorf("content changed: %q", res.Content)
	}
	want := []string{SkipNotFound, SkipUnsafe, SkipUnsafe}
	if len(res.Skipped) != len(want) {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	for i, w := range want {
		if res.Skipped[i].Reason != w {
			t.Errorf("Skipped[%d].Reason = %q, want %q", i, res.Skipped[i].Reason, w)
		}
	}
}

func TestApply_NeverTouchesMarkup(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	content := `<a href="layer">the layer</a>`
	res := e.Apply(content, []story.TextTransformation{{Type: story.TypeEmphasize, Selector: "layer"}})
	if !strings.HasPrefix(res.Content, `<a href="layer">`) {
		t.Errorf("attribute rewritten: %q", res.Content)
	}
	if len(res.Applied) != 1 || res.Applied[0].Spans != 1 {
		t.Errorf("Applied = %+v, want one span", res.Applied)
	}
}

func TestApply_TransformedContentIsNotRewrapped(t *testing.T) {
	t.Parallel()
	e := New(DefaultConfig())
	ts := []story.TextTransformation{{Type: story.TypeEmphasize, Selector: "echo"}}
	once := e.Apply("an echo", ts)
	twice := e.Apply(once.Content, ts)
	if twice.Content != once.Content {
		t.Errorf("second Apply changed content:\n%s\n%s", once.Content, twice.Content)
	}
	if d := TransformDepth(twice.Content); d != 1 {
		t.Errorf("depth = %d, want 1", d)
	}
}
