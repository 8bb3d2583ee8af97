package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view {
	case ViewSettings:
		body = m.renderSettings()
	default:
		body = m.renderDashboard()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderStatusBar(),
		m.renderHelp(),
	)
}

// renderTabs renders the view switcher.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, numViews)
	for v := View(0); v < numViews; v++ {
		style := m.theme.TabInactive
		if v == m.view {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(v.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

// renderDashboard renders the chart and rating form beside or above the
// stats panel depending on the terminal width.
func (m Model) renderDashboard() string {
	left := lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Title.Render("Last Punch"),
		m.chart.View(),
		"",
		m.theme.RoundedBox.Render(m.rating.View()),
	)
	stats := m.statsPanel.View()

	if m.wide() {
		return lipgloss.JoinHorizontal(
			lipgloss.Top,
			left,
			m.theme.Normal.Render(" │ "),
			stats,
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, left, "", stats)
}

// renderSettings renders the connection form and its status lines.
func (m Model) renderSettings() string {
	conn := m.settingsForm.Values().Normalize()

	lines := []string{
		m.theme.Title.Render("Backend Connection"),
		m.settingsForm.View(),
		"",
		m.theme.Subtitle.Render("→ " + backend.BuildConnectionAddress(conn)),
		"",
		m.renderConnectionStatus(),
	}

	if m.deleteLabel != "" {
		style := m.theme.StatusSuccess
		if m.deleteFailed {
			style = m.theme.StatusError
		}
		lines = append(lines, style.Render(m.deleteLabel))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderConnectionStatus() string {
	var status string
	if m.connected {
		status = m.theme.StatusSuccess.Render("● " + statusConnected)
	} else {
		status = m.theme.StatusPending.Render("○ " + statusConnecting)
	}

	if m.connMessage != "" {
		status += "  " + m.theme.Muted.Render(m.connMessage)
	}
	return status
}

// renderStatusBar shows the last error, or the statistics source.
func (m Model) renderStatusBar() string {
	if m.lastError != nil {
		return m.theme.StatusError.Render("✗ " + m.lastError.Error())
	}

	if m.view != ViewDashboard {
		return ""
	}

	switch synced := m.session.SyncedAt(); {
	case m.session.Stale():
		return m.theme.StatusWarning.Render(fmt.Sprintf("backend unreachable, statistics from %s", synced.Format("2006-01-02 15:04:05")))
	case !synced.IsZero():
		return m.theme.Muted.Render("statistics synced " + synced.Format("15:04:05"))
	default:
		return m.theme.StatusPending.Render("loading statistics...")
	}
}

// renderHelp renders the key help for the active view.
func (m Model) renderHelp() string {
	var view string
	if m.view == ViewSettings {
		view = m.help.View(settingsKeys{m.keymap})
	} else {
		view = m.help.View(dashboardKeys{m.keymap})
	}
	return "\n" + strings.TrimRight(view, "\n")
}
