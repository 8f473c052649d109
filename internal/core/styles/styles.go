// Package styles provides the shared lipgloss styles for CLI output.
package styles

import "github.com/charmbracelet/lipgloss"

// Status glyphs used in todo listings and reports.
const (
	IconDone    = "✔"
	IconPending = "○"
	IconLocal   = "◌"
	IconWarn    = "●"
	IconFail    = "✘"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	// Todo listing styles.
	HeaderStyle       lipgloss.Style
	TodoIDStyle       lipgloss.Style
	TodoTitleStyle    lipgloss.Style
	TodoDoneStyle     lipgloss.Style
	TodoLocalStyle    lipgloss.Style
	PriorityHighStyle lipgloss.Style
	PriorityStyle     lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TextPrimaryBoldStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	TodoIDStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Width(6).
		Align(lipgloss.Right)
	TodoTitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	TodoDoneStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)
	TodoLocalStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)
	PriorityHighStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	PriorityStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
