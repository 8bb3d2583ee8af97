package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Settings form fields in display order.
const (
	FieldHost = iota
	FieldPort
	FieldUsername
	FieldPassword
	numFields
)

var fieldLabels = [numFields]string{"Host", "Port", "Username", "Password"}

// SettingsFormModel edits the backend connection settings.
type SettingsFormModel struct {
	theme  themes.Theme
	inputs [numFields]textinput.Model
	focus  int
	width  int
}

// NewSettingsFormModel creates a form prefilled with conn.
func NewSettingsFormModel(theme themes.Theme, conn settings.Connection) SettingsFormModel {
	m := SettingsFormModel{theme: theme, width: 40}

	placeholders := [numFields]string{"http://localhost", "3000", "username", "password"}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		in.Prompt = ""
		in.Width = m.width
		m.inputs[i] = in
	}
	m.inputs[FieldPort].CharLimit = 5
	m.inputs[FieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[FieldPassword].EchoCharacter = '•'

	m.SetValues(conn)
	m.inputs[FieldHost].Focus()
	return m
}

// Update forwards input to the focused field.
func (m SettingsFormModel) Update(msg tea.Msg) (SettingsFormModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// SetValues replaces every field.
func (m *SettingsFormModel) SetValues(conn settings.Connection) {
	m.inputs[FieldHost].SetValue(conn.Host)
	m.inputs[FieldPort].SetValue(conn.Port)
	m.inputs[FieldUsername].SetValue(conn.Username)
	m.inputs[FieldPassword].SetValue(conn.Password)
}

// Values returns the edited connection as typed.
func (m SettingsFormModel) Values() settings.Connection {
	return settings.Connection{
		Host:     m.inputs[FieldHost].Value(),
		Port:     m.inputs[FieldPort].Value(),
		Username: m.inputs[FieldUsername].Value(),
		Password: m.inputs[FieldPassword].Value(),
	}
}

// FocusNext moves focus to the following field, wrapping around.
func (m *SettingsFormModel) FocusNext() tea.Cmd {
	return m.setFocus((m.focus + 1) % numFields)
}

// FocusPrev moves focus to the previous field, wrapping around.
func (m *SettingsFormModel) FocusPrev() tea.Cmd {
	return m.setFocus((m.focus + numFields - 1) % numFields)
}

// Focused returns the index of the focused field.
func (m SettingsFormModel) Focused() int {
	return m.focus
}

func (m *SettingsFormModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// Resize updates the input width.
func (m *SettingsFormModel) Resize(width int) {
	m.width = max(width-12, 10)
	for i := range m.inputs {
		m.inputs[i].Width = m.width
	}
}

// View renders the form.
func (m SettingsFormModel) View() string {
	lines := make([]string, 0, numFields)
	for i, in := range m.inputs {
		label := fmt.Sprintf("%-9s", fieldLabels[i])
		if i == m.focus {
			label = m.theme.Selected.Render(label)
		} else {
			label = m.theme.Bold.Render(label)
		}
		lines = append(lines, label+" "+in.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"))
}
