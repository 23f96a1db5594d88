package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan: primary accent
	colorAccent     = lipgloss.Color("#FFD700") // Gold: attractors
	colorDanger     = lipgloss.Color("#FF5252") // Red: errors
	colorMuted      = lipgloss.Color("#636363") // Gray: de-emphasized
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray: normal text
	colorWhite      = lipgloss.Color("#EEEEEE") // Off-white: primary text
	colorSurface    = lipgloss.Color("#1E1E2E") // Dark surface: status bar bg
	colorSurfaceDim = lipgloss.Color("#181825") // Darkest surface: footer bg
	colorBlue       = lipgloss.Color("#5B8DEF") // Blue: loading
)

// CompactWidth is the terminal width below which hints drop descriptions.
const CompactWidth = 70

// Selection indicator prepended to the active link.
const selectionIndicator = "▎"

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleStatusValue = lipgloss.NewStyle().
				Foreground(colorWhite)
)

var (
	styleLinkSelected = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleLinkNormal   = lipgloss.NewStyle().Foreground(colorMutedLight)
	styleAttractor    = lipgloss.NewStyle().Foreground(colorAccent)
	styleNotice       = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	styleError        = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleLoading      = lipgloss.NewStyle().Foreground(colorBlue)
	styleSectionLabel = lipgloss.NewStyle().Foreground(colorMuted)
)

var (
	styleFooter = lipgloss.NewStyle().
			Background(colorSurfaceDim).
			Foreground(colorMutedLight).
			Padding(0, 1)

	styleFooterKey  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleFooterDesc = lipgloss.NewStyle().Foreground(colorMutedLight)
	styleFooterSep  = lipgloss.NewStyle().Foreground(colorMuted)
)
