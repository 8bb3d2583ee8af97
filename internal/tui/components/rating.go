package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RatingFormModel shows the current prediction and the pending correction.
type RatingFormModel struct {
	theme      themes.Theme
	err        error
	sample     *model.Sample
	correction model.Correction
	spinner    spinner.Model
	ready      bool
	pushing    bool
}

// NewRatingFormModel creates an empty rating form.
func NewRatingFormModel(theme themes.Theme) RatingFormModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	return RatingFormModel{
		theme:   theme,
		spinner: s,
	}
}

// Update advances the spinner while a verdict is being pushed.
func (m RatingFormModel) Update(msg tea.Msg) (RatingFormModel, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok && m.pushing {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}
	return m, nil
}

// SetSample shows s. ready is false once s has been rated.
func (m *RatingFormModel) SetSample(s model.Sample, ready bool) {
	m.sample = &s
	m.ready = ready
}

// SetReady toggles between the form and the waiting notice.
func (m *RatingFormModel) SetReady(ready bool) {
	m.ready = ready
}

// SetCorrection shows the pending overrides.
func (m *RatingFormModel) SetCorrection(c model.Correction) {
	m.correction = c
}

// StartPush shows the spinner and returns its first tick.
func (m *RatingFormModel) StartPush() tea.Cmd {
	m.pushing = true
	m.err = nil
	return m.spinner.Tick
}

// FinishPush hides the spinner and records err, if any.
func (m *RatingFormModel) FinishPush(err error) {
	m.pushing = false
	m.err = err
}

// Pushing reports whether a verdict is in flight.
func (m RatingFormModel) Pushing() bool {
	return m.pushing
}

// View renders the form.
func (m RatingFormModel) View() string {
	if m.sample == nil {
		return m.theme.Muted.Render("no punch observed yet")
	}

	prediction := fmt.Sprintf("Prediction: %s %s  %s",
		themes.GetLabelIcon(m.sample.Label),
		m.theme.Bold.Render(m.sample.Label.String()),
		m.theme.Bold.Render(m.sample.Hand.String()),
	)
	lines := []string{prediction}

	switch {
	case m.pushing:
		lines = append(lines, m.spinner.View()+" saving verdict...")
	case !m.ready:
		lines = append(lines, m.theme.StatusPending.Render("waiting for next punch"))
	default:
		lines = append(lines, m.renderCorrection(), m.renderActions())
	}

	if m.err != nil {
		lines = append(lines, m.theme.StatusError.Render("✗ "+m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m RatingFormModel) renderCorrection() string {
	label, hand := m.correction.Resolve(m.sample.Label, m.sample.Hand)

	field := func(name, value string, overridden bool) string {
		style := m.theme.Normal
		if overridden {
			style = m.theme.StatusWarning
		}
		return fmt.Sprintf("%-6s %s", name+":", style.Render(value))
	}

	return strings.Join([]string{
		field("Type", label.String(), m.correction.Label != nil),
		field("Hand", hand.String(), m.correction.Hand != nil),
	}, "\n")
}

func (m RatingFormModel) renderActions() string {
	if m.correction.IsEmpty() {
		return m.theme.Subtitle.Render("[y] correct  [l] change type  [h] change hand")
	}
	return m.theme.Subtitle.Render("[enter] save correction  [esc] reset")
}
