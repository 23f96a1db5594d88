package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// RenderMarkup renders transformed node content for a terminal. Spans
// carrying data-transform are styled by type and style; other tags are
// dropped and entities are decoded.
func RenderMarkup(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	var stack []*lipgloss.Style

	top := func() *lipgloss.Style {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			paint(&b, top(), string(z.Text()))
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			var attrs map[string]string
			if hasAttr {
				attrs = readAttrs(z)
			}
			if tag == "br" {
				b.WriteByte('\n')
				continue
			}
			st := styleFor(tag, attrs, top())
			if tag == "aside" {
				paint(&b, st, " ⟨")
			}
			stack = append(stack, st)
		case html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if len(stack) == 0 {
				continue
			}
			if name, _ := z.TagName(); string(name) == "aside" {
				paint(&b, top(), "⟩")
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// paint writes text in st line by line, so multi-line text is not padded
// into a block.
func paint(b *strings.Builder, st *lipgloss.Style, text string) {
	if st == nil {
		b.WriteString(text)
		return
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line != "" {
			b.WriteString(st.Render(line))
		}
	}
}

func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			return attrs
		}
	}
}

// styleFor returns the style for an element, or the inherited style when
// the element carries no transformation.
func styleFor(tag string, attrs map[string]string, inherited *lipgloss.Style) *lipgloss.Style {
	var st lipgloss.Style
	switch {
	case tag == "ins":
		st = styleExpansion
	case tag == "aside":
		st = styleComment
	case attrs["data-transform"] != "":
		st = transformStyle(attrs["data-transform"], attrs["data-style"])
		if n, err := strconv.Atoi(attrs["data-intensity"]); err == nil && n >= 4 {
			st = st.Bold(true)
		}
	default:
		return inherited
	}
	return &st
}

func transformStyle(kind, style string) lipgloss.Style {
	switch kind {
	case "replace":
		return styleReplace
	case "fragment":
		switch style {
		case "glitch":
			return styleGlitch
		case "temporal-displacement":
			return styleDisplaced
		}
		return styleFragment
	case "expand", "metaComment":
		return lipgloss.NewStyle()
	}
	switch style {
	case "strikethrough":
		return styleStrike
	case "echo":
		return styleEcho
	case "fade":
		return styleFade
	case "perspective-bleed":
		return styleBleed
	case "attractor-resonance":
		return styleResonance
	}
	return styleEmphasis
}
