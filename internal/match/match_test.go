package match

import (
	"errors"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selector string
		text     string
		want     []Range
		wantErr  error
	}{
		{
			name:     "literal single",
			selector: "pattern",
			text:     "a pattern here",
			want:     []Range{{2, 9}},
		},
		{
			name:     "literal is case sensitive",
			selector: "Pattern",
			text:     "a pattern here",
			want:     nil,
		},
		{
			name:     "literal repeats do not overlap",
			selector: "aa",
			text:     "aaaa",
			want:     []Range{{0, 2}, {2, 4}},
		},
		{
			name:     "explicit literal keeps a prefix-like text",
			selector: Literal("re: the dig. word: ends"),
			text:     "She wrote re: the dig. word: ends here",
			want:     []Range{{10, 33}},
		},
		{
			name:     "empty explicit literal",
			selector: PrefixLiteral,
			wantErr:  ErrEmptySelector,
		},
		{
			name:     "word matches case-insensitively on boundaries",
			selector: "word:data",
			text:     "Data and metadata and data.",
			want:     []Range{{0, 4}, {22, 26}},
		},
		{
			name:     "regex",
			selector: `re:frag\w+`,
			text:     "fragments of a fragile thing",
			want:     []Range{{0, 9}, {15, 22}},
		},
		{
			name:     "empty literal",
			selector: "",
			wantErr:  ErrEmptySelector,
		},
		{
			name:     "empty word",
			selector: "word:  ",
			wantErr:  ErrEmptySelector,
		},
		{
			name:     "regex matching empty string",
			selector: "re:a*",
			wantErr:  ErrUnsafePattern,
		},
		{
			name:     "regex that does not compile",
			selector: "re:(",
			wantErr:  ErrUnsafePattern,
		},
		{
			name:     "regex too long",
			selector: "re:" + strings.Repeat("a", MaxPatternLen+1),
			wantErr:  ErrUnsafePattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Compile(tt.selector)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compile(%q) error = %v, want %v", tt.selector, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.selector, err)
			}
			if m.Selector() != tt.selector {
				t.Errorf("Selector() = %q, want %q", m.Selector(), tt.selector)
			}
			got := m.Matches(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("range %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMatches_Bounded(t *testing.T) {
	t.Parallel()
	m, err := Compile("x")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(m.Matches(strings.Repeat("x", MaxMatches*2))); got != MaxMatches {
		t.Errorf("len(Matches) = %d, want %d", got, MaxMatches)
	}
}

func TestRange_Overlaps(t *testing.T) {
	t.Parallel()
	a := Range{Start: 2, End: 5}
	if !a.Overlaps(Range{Start: 4, End: 8}) {
		t.Error("expected overlap")
	}
	if a.Overlaps(Range{Start: 5, End: 8}) {
		t.Error("adjacent ranges should not overlap")
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
}

func TestRegistry_CachesCompileAndResults(t *testing.T) {
	t.Parallel()
	r := NewRegistry(8, 8)

	for i := 0; i < 3; i++ {
		got, err := r.Find("word:pattern", "a pattern")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Find returned %v, want one range", got)
		}
	}

	cs, rs := r.Stats()
	if cs.Misses != 1 || cs.Hits != 2 {
		t.Errorf("compile stats = %+v, want 1 miss, 2 hits", cs)
	}
	if rs.Misses != 1 || rs.Hits != 2 {
		t.Errorf("result stats = %+v, want 1 miss, 2 hits", rs)
	}

	// Different content is a guaranteed result miss.
	if _, err := r.Find("word:pattern", "another pattern"); err != nil {
		t.Fatal(err)
	}
	if _, rs = r.Stats(); rs.Misses != 2 {
		t.Errorf("result misses = %d, want 2", rs.Misses)
	}

	r.Reset()
	if cs, rs = r.Stats(); cs.Len != 0 || rs.Len != 0 {
		t.Errorf("caches not empty after Reset: %+v %+v", cs, rs)
	}
}

func TestRegistry_CachesCompileErrors(t *testing.T) {
	t.Parallel()
	r := NewRegistry(8, 8)
	for i := 0; i < 2; i++ {
		if _, err := r.Find("re:", "text"); !errors.Is(err, ErrEmptySelector) {
			t.Fatalf("Find error = %v, want ErrEmptySelector", err)
		}
	}
	if cs, _ := r.Stats(); cs.Hits != 1 {
		t.Errorf("compile hits = %d, want 1", cs.Hits)
	}
}
