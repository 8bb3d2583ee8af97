package components

import (
	"testing"

	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSettingsFormModel_Values(t *testing.T) {
	conn := settings.Connection{Host: "http://10.0.0.2", Port: "3000", Username: "coach", Password: "secret"}
	m := NewSettingsFormModel(themes.Default, conn)

	assert.Equal(t, conn, m.Values())
	assert.Equal(t, FieldHost, m.Focused())

	view := m.View()
	assert.Contains(t, view, "http://10.0.0.2")
	assert.NotContains(t, view, "secret")
}

func TestSettingsFormModel_Focus(t *testing.T) {
	m := NewSettingsFormModel(themes.Default, settings.Connection{})

	m.FocusNext()
	assert.Equal(t, FieldPort, m.Focused())
	m.FocusPrev()
	m.FocusPrev()
	assert.Equal(t, FieldPassword, m.Focused())
	m.FocusNext()
	assert.Equal(t, FieldHost, m.Focused())
}

func TestSettingsFormModel_Typing(t *testing.T) {
	m := NewSettingsFormModel(themes.Default, settings.Connection{Port: "30"})
	m.FocusNext()
	m.inputs[FieldPort].CursorEnd()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("01")})
	assert.Equal(t, "3001", m.Values().Port)
	assert.Equal(t, "", m.Values().Host)
}
