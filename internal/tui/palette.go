package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

// VerdictColor maps a scan verdict name to the color it is shown in.
func VerdictColor(verdict string) lipgloss.Color {
	switch verdict {
	case "ok":
		return ColorSuccess
	case "unsupported":
		return ColorWarn
	default:
		return ColorError
	}
}
