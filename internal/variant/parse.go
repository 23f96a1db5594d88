// Package variant parses delimiter-marked node source into a base text plus
// alternate sections, and picks exactly one of them for a reading context.
//
// Grammar:
//
//	---[N]---     visit-count variant, eligible once the visit count reaches N
//	---name---    named variant, name matching [A-Za-z0-9_-]+
package variant

import (
	"regexp"
	"strconv"

	"github.com/papapumpkin/palimpsest/internal/cache"
)

// Numeric keys are capped at nine digits so they always fit an int; longer
// digit runs are not delimiters.
var delimiterRe = regexp.MustCompile(`---(?:\[(\d{1,9})\]|([A-Za-z0-9_-]+))---`)

// Segment is one section of parsed source in source order. Key is "" for the
// base text, "[N]" for numeric variants, or the section name.
type Segment struct {
	Key  string
	Body string
}

// Content is the parsed form of a node's source. It is immutable after Parse.
type Content struct {
	Base        string
	Sections    map[string]string
	Visits      map[int]string
	Segments    []Segment
	Fingerprint cache.Fingerprint
}

// NumericKey returns the segment key for visit-count variant n.
func NumericKey(n int) string {
	return "[" + strconv.Itoa(n) + "]"
}

// Parse splits source at delimiters in a single pass. Bodies are stored
// verbatim so that concatenating every segment body reconstructs the source
// minus its delimiters. When a key repeats, the first body wins lookups.
func Parse(source string) Content {
	c := Content{
		Sections:    make(map[string]string),
		Visits:      make(map[int]string),
		Fingerprint: cache.Hash(source),
	}

	locs := delimiterRe.FindAllStringSubmatchIndex(source, -1)
	end := len(source)
	if len(locs) > 0 {
		end = locs[0][0]
	}
	c.Base = source[:end]
	c.Segments = append(c.Segments, Segment{Body: c.Base})

	for i, loc := range locs {
		bodyEnd := len(source)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		body := source[loc[1]:bodyEnd]

		var key string
		if loc[2] >= 0 {
			n, _ := strconv.Atoi(source[loc[2]:loc[3]])
			key = NumericKey(n)
			if _, dup := c.Visits[n]; !dup {
				c.Visits[n] = body
			}
		} else {
			key = source[loc[4]:loc[5]]
			if _, dup := c.Sections[key]; !dup {
				c.Sections[key] = body
			}
		}
		c.Segments = append(c.Segments, Segment{Key: key, Body: body})
	}
	return c
}

// Reconstruct concatenates every segment body in source order.
func (c Content) Reconstruct() string {
	var n int
	for _, s := range c.Segments {
		n += len(s.Body)
	}
	buf := make([]byte, 0, n)
	for _, s := range c.Segments {
		buf = append(buf, s.Body...)
	}
	return string(buf)
}

// Keys returns every segment key in source order, base first.
func (c Content) Keys() []string {
	keys := make([]string, len(c.Segments))
	for i, s := range c.Segments {
		keys[i] = s.Key
	}
	return keys
}
