package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	SwitchView key.Binding
	Up         key.Binding
	Down       key.Binding

	// Rating
	CycleLabel      key.Binding
	CycleHand       key.Binding
	ConfirmCorrect  key.Binding
	SaveCorrection  key.Binding
	ResetCorrection key.Binding

	// Settings
	SaveSettings     key.Binding
	DeleteStatistics key.Binding

	// Application
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "switch view"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "shift+tab"),
			key.WithHelp("↑", "previous field"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next field"),
		),

		CycleLabel: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "change type"),
		),
		CycleHand: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "change hand"),
		),
		ConfirmCorrect: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "prediction correct"),
		),
		SaveCorrection: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "save correction"),
		),
		ResetCorrection: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "reset correction"),
		),

		SaveSettings: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "save settings"),
		),
		DeleteStatistics: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("Ctrl+D", "delete statistics"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}

// dashboardKeys exposes the dashboard bindings to the help view.
type dashboardKeys struct{ KeyMap }

func (k dashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.ConfirmCorrect, k.CycleLabel, k.CycleHand, k.SwitchView, k.Help, k.Quit}
}

func (k dashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ConfirmCorrect, k.SaveCorrection, k.ResetCorrection},
		{k.CycleLabel, k.CycleHand},
		{k.SwitchView, k.Help, k.Quit},
	}
}

// settingsKeys exposes the settings bindings to the help view. Printable
// keys are typed into the form there, so only chords are listed.
type settingsKeys struct{ KeyMap }

func (k settingsKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.SaveSettings, k.DeleteStatistics, k.Down, k.SwitchView, k.ForceQuit}
}

func (k settingsKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.SaveSettings, k.DeleteStatistics},
		{k.SwitchView, k.ForceQuit},
	}
}
