package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/palimpsest/internal/reader"
)

// StatusBar renders the persistent top bar: story, node and journey length.
type StatusBar struct {
	Story      string
	Node       reader.NodeState
	JourneyLen int
	Loading    bool
	Width      int
}

// View renders the status bar as a single line. Narrow terminals drop the
// journey segment.
func (s StatusBar) View() string {
	const barPadding = 2
	inner := s.Width - barPadding
	if inner < 0 {
		inner = 0
	}

	left := styleStatusLabel.Render(s.Story)
	if n := s.Node.Node; n != nil {
		title := n.Title
		if title == "" {
			title = n.ID
		}
		left += styleStatusValue.Render("  " + title)
	}

	var right []string
	if s.Loading {
		right = append(right, styleLoading.Render("transcribing…"))
	}
	if n := s.Node.Node; n != nil {
		right = append(right, styleStatusValue.Render(fmt.Sprintf("%s · layer %d · visit %d", n.Character, n.TemporalValue, s.Node.VisitCount)))
	}
	if s.Width >= CompactWidth {
		right = append(right, styleStatusValue.Render(fmt.Sprintf("journey %d", s.JourneyLen)))
	}
	r := strings.Join(right, "  ")

	gap := inner - lipgloss.Width(left) - lipgloss.Width(r)
	if gap < 1 {
		gap = 1
	}
	return styleStatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + r)
}
