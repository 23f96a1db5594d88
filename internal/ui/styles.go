package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the CLI printer and the markup renderer.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan: headings, resonance
	colorAccent  = lipgloss.Color("#FFD700") // Gold: perspective bleed
	colorSuccess = lipgloss.Color("#00E676") // Green: ok
	colorDanger  = lipgloss.Color("#FF5252") // Red: errors, glitches
	colorMuted   = lipgloss.Color("#636363") // Gray: asides, notices
	colorEcho    = lipgloss.Color("#B39DDB") // Lavender: strata echoes
	colorBlue    = lipgloss.Color("#5B8DEF") // Blue: temporal displacement
	colorReplace = lipgloss.Color("#FF8A65") // Coral: replaced text
)

// Printer styles.
var (
	styleTitle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel   = lipgloss.NewStyle().Foreground(colorPrimary)
	styleNotice  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	styleBullet  = lipgloss.NewStyle().Foreground(colorDanger)
	styleHeading = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorMuted)
)

// Markup styles, keyed by transformation type or style attribute.
var (
	styleReplace   = lipgloss.NewStyle().Foreground(colorReplace).Italic(true)
	styleFragment  = lipgloss.NewStyle().Faint(true)
	styleGlitch    = lipgloss.NewStyle().Foreground(colorDanger)
	styleDisplaced = lipgloss.NewStyle().Foreground(colorBlue).Italic(true)
	styleExpansion = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	styleComment   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	styleEmphasis  = lipgloss.NewStyle().Bold(true)
	styleStrike    = lipgloss.NewStyle().Strikethrough(true).Foreground(colorMuted)
	styleEcho      = lipgloss.NewStyle().Foreground(colorEcho).Italic(true)
	styleFade      = lipgloss.NewStyle().Faint(true)
	styleBleed     = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleResonance = lipgloss.NewStyle().Foreground(colorPrimary).Underline(true)
)
