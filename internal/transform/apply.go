package transform

import (
	"errors"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/cache"
	"github.com/papapumpkin/palimpsest/internal/match"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Markup attribute names carried by transformed spans.
const (
	AttrTransform = "data-transform"
	AttrPriority  = "data-priority"
	AttrIntensity = "data-intensity"
	AttrID        = "data-tid"
	AttrStyle     = "data-style"
	AttrOriginal  = "data-original"
	AttrNote      = "data-note"
)

// defaultFragmentPattern joins the words of a fragmented span.
const defaultFragmentPattern = " … "

// Skip reasons.
const (
	SkipNotFound = "selector not found"
	SkipUnsafe   = "unsafe selector"
	SkipOverlap  = "span already claimed"
)

// Applied records a transformation that wrapped at least one span.
type Applied struct {
	ID    string
	Type  story.TransformationType
	Spans int
}

// Skipped records a transformation that changed nothing.
type Skipped struct {
	Type     story.TransformationType
	Selector string
	Reason   string
}

// Result is the outcome of Apply.
type Result struct {
	Content string
	Applied []Applied
	Skipped []Skipped
}

// AppliedIDs returns the IDs of applied transformations in order.
func (r Result) AppliedIDs() []string {
	ids := make([]string, len(r.Applied))
	for i, a := range r.Applied {
		ids[i] = a.ID
	}
	return ids
}

// TransformationID returns the stable identifier of t.
func TransformationID(t story.TextTransformation) string {
	return "t-" + cache.NewKey().
		String(string(t.Type)).
		String(t.Selector).
		String(string(t.Priority)).
		Sum().String()
}

type edit struct {
	span match.Range
	t    story.TextTransformation
	id   string
}

// Apply wraps the spans each transformation selects in content, in list
// order. Earlier transformations claim spans first; a span overlapping
// markup, an already-transformed region or an earlier claim is skipped.
// Matching always runs against content itself, and output is built in a
// single pass, so applying an empty list returns content unchanged.
func (e *Engine) Apply(content string, ts []story.TextTransformation) Result {
	if len(ts) == 0 {
		return Result{Content: content}
	}

	claimed := protectedRanges(content)
	var res Result
	var edits []edit

	for _, t := range ts {
		ranges, err := e.matchers.Find(t.Selector, content)
		if err != nil {
			reason := SkipUnsafe
			if errors.Is(err, match.ErrEmptySelector) {
				reason = SkipNotFound
			}
			e.skip(&res, t, reason)
			continue
		}
		if len(ranges) == 0 {
			e.skip(&res, t, SkipNotFound)
			continue
		}

		limit := e.cfg.MaxSpans
		if t.Type == story.TypeMetaComment || t.Type == story.TypeExpand {
			limit = 1
		}
		id := TransformationID(t)
		spans := 0
		for _, r := range ranges {
			if spans == limit {
				break
			}
			if overlapsAny(r, claimed) {
				continue
			}
			claimed = append(claimed, r)
			edits = append(edits, edit{span: r, t: t, id: id})
			spans++
		}
		if spans == 0 {
			e.skip(&res, t, SkipOverlap)
			continue
		}
		res.Applied = append(res.Applied, Applied{ID: id, Type: t.Type, Spans: spans})
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })

	var b strings.Builder
	b.Grow(len(content) + 128*len(edits))
	pos := 0
	for _, ed := range edits {
		b.WriteString(content[pos:ed.span.Start])
		e.wrap(&b, content[ed.span.Start:ed.span.End], ed.t, ed.id)
		pos = ed.span.End
	}
	b.WriteString(content[pos:])
	res.Content = b.String()
	return res
}

func (e *Engine) skip(res *Result, t story.TextTransformation, reason string) {
	e.log.Warn("transformation skipped", "type", string(t.Type), "selector", t.Selector, "reason", reason)
	res.Skipped = append(res.Skipped, Skipped{Type: t.Type, Selector: t.Selector, Reason: reason})
}

func overlapsAny(r match.Range, claimed []match.Range) bool {
	for _, c := range claimed {
		if r.Overlaps(c) {
			return true
		}
	}
	return false
}

// wrap writes the markup for one span. Authored text is sanitized; matched
// text is copied verbatim since it never contains markup.
func (e *Engine) wrap(b *strings.Builder, text string, t story.TextTransformation, id string) {
	priority := t.Priority
	if priority == "" {
		priority = story.PriorityMedium
	}
	intensity := t.Intensity
	if intensity == 0 {
		intensity = 1
	}

	b.WriteString(`<span`)
	attr(b, AttrTransform, string(t.Type))
	attr(b, AttrPriority, string(priority))
	attr(b, AttrIntensity, strconv.Itoa(intensity))
	attr(b, AttrID, id)

	switch t.Type {
	case story.TypeReplace:
		attr(b, AttrOriginal, text)
		b.WriteString(`>`)
		b.WriteString(e.sanitize(t.Replacement))
	case story.TypeFragment:
		attr(b, AttrStyle, t.FragmentStyle)
		b.WriteString(`>`)
		pattern := t.FragmentPattern
		if pattern == "" {
			pattern = defaultFragmentPattern
		}
		b.WriteString(strings.Join(strings.Fields(text), e.sanitize(pattern)))
	case story.TypeExpand:
		b.WriteString(`>`)
		b.WriteString(text)
		b.WriteString(`<ins class="expansion">`)
		b.WriteString(e.sanitize(t.Expansion))
		b.WriteString(`</ins>`)
	case story.TypeMetaComment:
		b.WriteString(`>`)
		b.WriteString(text)
		b.WriteString(`<aside class="meta-comment"`)
		if t.CommentStyle != "" {
			attr(b, AttrStyle, t.CommentStyle)
		}
		b.WriteString(`>`)
		b.WriteString(e.sanitize(t.Comment))
		b.WriteString(`</aside>`)
	default: // emphasize
		attr(b, AttrStyle, t.EmphasisStyle)
		if t.Comment != "" {
			attr(b, AttrNote, t.Comment)
		}
		b.WriteString(`>`)
		b.WriteString(text)
	}
	b.WriteString(`</span>`)
}

// attr writes ` name="value"` with the value escaped.
func attr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`"`)
}

func (e *Engine) sanitize(s string) string {
	return e.sanitizer.Sanitize(s)
}
