// Package match compiles transformation selectors into matchers that locate
// text spans. Selectors come in three forms:
//
//	pattern          literal, case-sensitive substring
//	lit:pattern      literal, even when pattern itself starts with a prefix
//	word:pattern     whole word, case-insensitive
//	re:expr          bounded RE2 expression
//
// Regular expressions are capped in length and must not match the empty
// string; anything else is rejected as unsafe.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxPatternLen bounds the length of a re: selector expression.
const MaxPatternLen = 128

// MaxMatches bounds the number of ranges a single Matches call returns.
const MaxMatches = 32

// Selector prefixes.
const (
	PrefixWord    = "word:"
	PrefixRegex   = "re:"
	PrefixLiteral = "lit:"
)

// Literal returns a selector that matches text verbatim.
func Literal(text string) string {
	return PrefixLiteral + text
}

var (
	// ErrEmptySelector indicates a selector with no pattern text.
	ErrEmptySelector = errors.New("empty selector")
	// ErrUnsafePattern indicates a regular expression that is too long,
	// does not compile, or matches the empty string.
	ErrUnsafePattern = errors.New("unsafe selector pattern")
)

// Range is a half-open byte range [Start, End) within matched text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether two ranges share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Matcher locates the spans a selector identifies. Implementations are
// immutable and safe for concurrent use.
type Matcher interface {
	Selector() string
	Matches(text string) []Range
}

// Compile parses a selector into a Matcher.
func Compile(selector string) (Matcher, error) {
	switch {
	case strings.HasPrefix(selector, PrefixRegex):
		return compileRegex(selector, strings.TrimPrefix(selector, PrefixRegex))
	case strings.HasPrefix(selector, PrefixLiteral):
		text := strings.TrimPrefix(selector, PrefixLiteral)
		if text == "" {
			return nil, ErrEmptySelector
		}
		return &literalMatcher{selector: selector, text: text}, nil
	case strings.HasPrefix(selector, PrefixWord):
		term := strings.TrimSpace(strings.TrimPrefix(selector, PrefixWord))
		if term == "" {
			return nil, ErrEmptySelector
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		return &regexMatcher{selector: selector, re: re}, nil
	default:
		if selector == "" {
			return nil, ErrEmptySelector
		}
		return &literalMatcher{selector: selector, text: selector}, nil
	}
}

func compileRegex(selector, expr string) (Matcher, error) {
	if expr == "" {
		return nil, ErrEmptySelector
	}
	if len(expr) > MaxPatternLen {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrUnsafePattern, len(expr), MaxPatternLen)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafePattern, err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("%w: matches empty string", ErrUnsafePattern)
	}
	return &regexMatcher{selector: selector, re: re}, nil
}

type literalMatcher struct {
	selector string
	text     string
}

func (m *literalMatcher) Selector() string { return m.selector }

func (m *literalMatcher) Matches(text string) []Range {
	var out []Range
	offset := 0
	for len(out) < MaxMatches {
		i := strings.Index(text[offset:], m.text)
		if i < 0 {
			break
		}
		start := offset + i
		out = append(out, Range{Start: start, End: start + len(m.text)})
		offset = start + len(m.text)
	}
	return out
}

type regexMatcher struct {
	selector string
	re       *regexp.Regexp
}

func (m *regexMatcher) Selector() string { return m.selector }

func (m *regexMatcher) Matches(text string) []Range {
	locs := m.re.FindAllStringIndex(text, MaxMatches)
	out := make([]Range, 0, len(locs))
	for _, loc := range locs {
		if loc[1] > loc[0] {
			out = append(out, Range{Start: loc[0], End: loc[1]})
		}
	}
	return out
}
