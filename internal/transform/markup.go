package transform

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/papapumpkin/palimpsest/internal/match"
)

// markupToken is a non-text token with its byte span in the source.
type markupToken struct {
	kind      html.TokenType
	name      string
	transform bool // start tag carries data-transform
	span      match.Range
}

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// scanMarkup tokenizes content and returns every tag, comment and doctype
// with its byte offsets.
func scanMarkup(content string) []markupToken {
	z := html.NewTokenizer(strings.NewReader(content))
	var out []markupToken
	offset := 0
	for {
		kind := z.Next()
		if kind == html.ErrorToken {
			return out
		}
		start := offset
		offset += len(z.Raw())
		if kind == html.TextToken {
			continue
		}
		tok := markupToken{kind: kind, span: match.Range{Start: start, End: offset}}
		if kind == html.StartTagToken || kind == html.EndTagToken || kind == html.SelfClosingTagToken {
			name, more := z.TagName()
			tok.name = string(name)
			for more {
				var key []byte
				key, _, more = z.TagAttr()
				if string(key) == AttrTransform {
					tok.transform = true
				}
			}
		}
		out = append(out, tok)
	}
}

type openElement struct {
	name      string
	transform bool
	start     int
}

// protectedRanges returns spans no transformation may touch: every tag and
// the full extent of each element already carrying a transformation.
func protectedRanges(content string) []match.Range {
	var out []match.Range
	var stack []openElement
	for _, tok := range scanMarkup(content) {
		out = append(out, tok.span)
		switch tok.kind {
		case html.StartTagToken:
			if !voidElements[tok.name] {
				stack = append(stack, openElement{tok.name, tok.transform, tok.span.Start})
			}
		case html.EndTagToken:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name != tok.name {
					continue
				}
				if stack[i].transform {
					out = append(out, match.Range{Start: stack[i].start, End: tok.span.End})
				}
				stack = stack[:i]
				break
			}
		}
	}
	// An unclosed transformed element protects everything after it.
	for _, el := range stack {
		if el.transform {
			out = append(out, match.Range{Start: el.start, End: len(content)})
		}
	}
	return out
}

// TransformDepth returns the deepest nesting of data-transform elements in
// content. Correctly applied output has depth at most 1.
func TransformDepth(content string) int {
	var stack []openElement
	depth, deepest := 0, 0
	for _, tok := range scanMarkup(content) {
		switch tok.kind {
		case html.StartTagToken:
			if voidElements[tok.name] {
				continue
			}
			stack = append(stack, openElement{name: tok.name, transform: tok.transform})
			if tok.transform {
				depth++
				deepest = max(deepest, depth)
			}
		case html.SelfClosingTagToken:
			if tok.transform {
				deepest = max(deepest, depth+1)
			}
		case html.EndTagToken:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name != tok.name {
					continue
				}
				for _, el := range stack[i:] {
					if el.transform {
						depth--
					}
				}
				stack = stack[:i]
				break
			}
		}
	}
	return deepest
}
