// Package tuitest builds bubbletea input messages for model tests.
package tuitest

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyPress creates a rune key message.
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{
		Type:  tea.KeyRunes,
		Runes: []rune(key),
	}
}

// Key creates a message for a special key such as tab or ctrl+s.
func Key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// WindowSize creates a window size message.
func WindowSize(width, height int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{
		Width:  width,
		Height: height,
	}
}

// Type returns one key message per rune of text.
func Type(text string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(text))
	for _, r := range text {
		msgs = append(msgs, tea.KeyMsg{
			Type:  tea.KeyRunes,
			Runes: []rune{r},
		})
	}
	return msgs
}

// Sequence collects input messages to feed through a model in order.
type Sequence struct {
	msgs []tea.Msg
}

// NewSequence starts a sequence with msgs.
func NewSequence(msgs ...tea.Msg) *Sequence {
	return &Sequence{msgs: msgs}
}

// Add appends a message.
func (s *Sequence) Add(msg tea.Msg) *Sequence {
	s.msgs = append(s.msgs, msg)
	return s
}

// Type appends one key message per rune of text.
func (s *Sequence) Type(text string) *Sequence {
	s.msgs = append(s.msgs, Type(text)...)
	return s
}

// Apply feeds every message through m, discarding the returned commands.
func (s *Sequence) Apply(m tea.Model) tea.Model {
	for _, msg := range s.msgs {
		m, _ = m.Update(msg)
	}
	return m
}

// Messages returns the collected messages.
func (s *Sequence) Messages() []tea.Msg {
	return s.msgs
}
