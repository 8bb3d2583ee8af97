package themes

import (
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Selected      lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Win           lipgloss.Color
	Fail          lipgloss.Color
	AxisX         lipgloss.Color
	AxisY         lipgloss.Color
	AxisZ         lipgloss.Color
}

type palette struct {
	primary, text, subtle, muted, border, surface lipgloss.Color
	success, warning, danger, info                lipgloss.Color
	axisX, axisY, axisZ                           lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary: p.primary,
		Border:  p.border,
		Win:     p.success,
		Fail:    p.danger,
		AxisX:   p.axisX,
		AxisY:   p.axisY,
		AxisZ:   p.axisZ,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.text).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(p.subtle),
		Normal:   lipgloss.NewStyle().Foreground(p.text),
		Bold:     lipgloss.NewStyle().Bold(true).Foreground(p.text),
		Muted:    lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.surface).
			Bold(true),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.surface).
			Background(p.primary).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.subtle).
			Padding(0, 2),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().Foreground(p.success).Bold(true),
		StatusWarning: lipgloss.NewStyle().Foreground(p.warning).Bold(true),
		StatusError:   lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		StatusInfo:    lipgloss.NewStyle().Foreground(p.info).Bold(true),
		StatusPending: lipgloss.NewStyle().Foreground(p.muted).Italic(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary: lipgloss.Color("#7c3aed"),
	text:    lipgloss.Color("#fafafa"),
	subtle:  lipgloss.Color("#a3a3a3"),
	muted:   lipgloss.Color("#737373"),
	border:  lipgloss.Color("#404040"),
	surface: lipgloss.Color("#1a1a1a"),
	success: lipgloss.Color("#10b981"),
	warning: lipgloss.Color("#f59e0b"),
	danger:  lipgloss.Color("#ef4444"),
	info:    lipgloss.Color("#3b82f6"),
	axisX:   lipgloss.Color("#f472b6"),
	axisY:   lipgloss.Color("#38bdf8"),
	axisZ:   lipgloss.Color("#facc15"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary: lipgloss.Color("#cba6f7"),
	text:    lipgloss.Color("#cdd6f4"),
	subtle:  lipgloss.Color("#a6adc8"),
	muted:   lipgloss.Color("#6c7086"),
	border:  lipgloss.Color("#45475a"),
	surface: lipgloss.Color("#1e1e2e"),
	success: lipgloss.Color("#a6e3a1"),
	warning: lipgloss.Color("#f9e2af"),
	danger:  lipgloss.Color("#f38ba8"),
	info:    lipgloss.Color("#89dceb"),
	axisX:   lipgloss.Color("#f5c2e7"),
	axisY:   lipgloss.Color("#89b4fa"),
	axisZ:   lipgloss.Color("#f9e2af"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// LabelIcons maps punch labels to short glyphs.
var LabelIcons = map[model.Label]string{
	model.LabelNoAction:      "·",
	model.LabelUpperCut:      "↑",
	model.LabelHookPunch:     "↪",
	model.LabelStraightPunch: "→",
}

// GetLabelIcon returns the glyph for a label.
func GetLabelIcon(l model.Label) string {
	if icon, ok := LabelIcons[l]; ok {
		return icon
	}
	return "?"
}
