// Package ui renders palimpsest output for the command line.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/papapumpkin/palimpsest/internal/analyzer"
	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/store"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Printer writes styled output to a writer.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w. A nil w writes to stderr.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stderr
	}
	return &Printer{w: w}
}

// Banner prints a framed title.
func (p *Printer) Banner(title string) {
	fmt.Fprintln(p.w, styleTitle.Render("  ░▒▓ "+strings.ToUpper(title)+" ▓▒░"))
	fmt.Fprintln(p.w)
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleError.Render("error:"), msg)
}

// Info prints a muted informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleMuted.Render("·"), msg)
}

// Success prints a check-marked line.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", styleOK.Render("✓"), msg)
}

// ValidateResult prints the outcome of validating a story.
func (p *Printer) ValidateResult(name string, nodes int, errs []story.ValidationError) {
	if len(errs) == 0 {
		p.Success(fmt.Sprintf("%s: %d nodes, no problems", name, nodes))
		return
	}
	fmt.Fprintf(p.w, "%s %s: %d problem(s) in %d nodes\n",
		styleError.Render("✗"), name, len(errs), nodes)
	for i := range errs {
		e := &errs[i]
		fmt.Fprintf(p.w, "  %s %s %s\n", styleBullet.Render("•"), styleMuted.Render("["+string(e.Category)+"]"), e.Error())
	}
}

// Node prints a committed node: header, content, notice and links. With
// raw set the content is written as markup instead of styled text.
func (p *Printer) Node(ns reader.NodeState, raw bool) {
	n := ns.Node
	if n == nil {
		return
	}
	title := n.Title
	if title == "" {
		title = n.ID
	}
	fmt.Fprintln(p.w, styleHeading.Render(title))
	meta := fmt.Sprintf("%s · layer %d · visit %d", n.Character, n.TemporalValue, ns.VisitCount)
	if ns.SelectedVariant != "" {
		meta += " · variant " + ns.SelectedVariant
	}
	fmt.Fprintln(p.w, styleMuted.Render(meta))
	fmt.Fprintln(p.w)

	if raw {
		fmt.Fprintln(p.w, strings.TrimRight(ns.CurrentContent, "\n"))
	} else {
		fmt.Fprintln(p.w, strings.TrimRight(RenderMarkup(ns.CurrentContent), "\n"))
	}
	if ns.Notice != "" {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, styleNotice.Render(ns.Notice))
	}
	if len(n.Links) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintf(p.w, "%s %s\n", styleLabel.Render("links:"), strings.Join(n.Links, ", "))
	}
}

// Transformations lists transformations in application order.
func (p *Printer) Transformations(ts []story.TextTransformation) {
	if len(ts) == 0 {
		p.Info("no transformations")
		return
	}
	fmt.Fprintln(p.w, styleLabel.Render(fmt.Sprintf("transformations (%d):", len(ts))))
	for _, t := range ts {
		pri := t.Priority
		if pri == "" {
			pri = story.PriorityMedium
		}
		fmt.Fprintf(p.w, "  %-12s %-6s %q\n", t.Type, pri, t.Selector)
	}
}

// Summary prints a journey digest.
func (p *Printer) Summary(s reader.Summary) {
	fmt.Fprintln(p.w, styleHeading.Render("journey "+s.SessionID))
	fmt.Fprintf(p.w, "%s %s\n", styleLabel.Render("path:"), strings.Join(s.Path, " → "))

	fp := s.Fingerprint
	fmt.Fprintf(p.w, "%s %s, %s, %s (complexity %.2f)\n", styleLabel.Render("style:"),
		fp.ExplorationStyle, fp.TemporalPreference, fp.NarrativeApproach, fp.ComplexityIndex)

	if len(s.Engagements) > 0 {
		names := make([]string, 0, len(s.Engagements))
		for a := range s.Engagements {
			names = append(names, a)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, a := range names {
			parts[i] = fmt.Sprintf("%s×%d", a, s.Engagements[a])
		}
		fmt.Fprintf(p.w, "%s %s\n", styleLabel.Render("attractors:"), strings.Join(parts, " "))
	}
	p.Patterns(s.Patterns)
	for _, r := range s.Recursive {
		fmt.Fprintf(p.w, "  %s loop %s ×%d (%.2f)\n", styleBullet.Render("↻"),
			strings.Join(r.Nodes, " → "), r.Occurrences, r.Strength)
	}
}

// Patterns lists reading patterns.
func (p *Printer) Patterns(ps []analyzer.ReadingPattern) {
	for _, rp := range ps {
		fmt.Fprintf(p.w, "  %s %-9s %.2f %s\n", styleMuted.Render("•"), rp.Type, rp.Strength, rp.Description)
	}
}

// Sessions lists stored journeys, most recent first.
func (p *Printer) Sessions(list []store.Session) {
	if len(list) == 0 {
		p.Info("no stored journeys")
		return
	}
	for _, s := range list {
		fmt.Fprintf(p.w, "%s  %-12s %3d visits  %s\n",
			styleLabel.Render(s.ID), s.Story, s.Visits,
			styleMuted.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
}
