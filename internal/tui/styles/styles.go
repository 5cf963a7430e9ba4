package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Accent     = lipgloss.Color("#1BD96A")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Red        = lipgloss.Color("#EF4444")
	Amber      = lipgloss.Color("#F59E0B")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber)
)

// Row styles
var (
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	ExpandedStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			PaddingLeft(6)
)

// Badges. Icon badges stand in for the image in a terminal.
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Accent).
			Bold(true)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight)

	PendingBadgeStyle = lipgloss.NewStyle().
				Foreground(DimGray).
				Background(SlateDark)
)

// Query bar
var (
	PromptStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	QueryBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, true, false).
			BorderForeground(DimGray)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(SlateDark)
)

var SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

// Truncate shortens s to width cells, ending with an ellipsis when cut
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 {
		return string(r[:width])
	}
	for len(r) > 0 && lipgloss.Width(string(r)) > width-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// Pad right-pads s with spaces to width cells
func Pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
