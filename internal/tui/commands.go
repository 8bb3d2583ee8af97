package tui

import (
	"context"
	"time"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/session"
	"github.com/Veraticus/punchdash/internal/settings"
	tea "github.com/charmbracelet/bubbletea"
)

// request wraps a backend call in a command bounded by the request timeout.
// Commands run off the update loop, so fn must only use captured values.
func (m Model) request(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	parent, timeout := m.ctx, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return fn(ctx)
	}
}

// fetchSample polls the backend for the latest punch.
func (m Model) fetchSample(epoch int) tea.Cmd {
	connector := m.connector
	return m.request(func(ctx context.Context) tea.Msg {
		result, err := connector.FetchSample(ctx)
		return sampleFetchedMsg{epoch: epoch, result: result, err: err}
	})
}

// scheduleSample waits one sample interval before the next poll.
func (m Model) scheduleSample(epoch int) tea.Cmd {
	return tea.Tick(m.config.SampleInterval, func(time.Time) tea.Msg {
		return sampleTickMsg{epoch: epoch}
	})
}

// fetchStatistics loads the aggregate statistics.
func (m Model) fetchStatistics(epoch int) tea.Cmd {
	connector := m.connector
	return m.request(func(ctx context.Context) tea.Msg {
		stats, err := connector.FetchStatistics(ctx)
		return statsFetchedMsg{epoch: epoch, stats: stats, err: err}
	})
}

// pushVerdict applies v to base and sends the result to the backend.
func (m Model) pushVerdict(v model.Verdict, base *model.Statistics) tea.Cmd {
	connector := m.connector
	return m.request(func(ctx context.Context) tea.Msg {
		stats, err := session.PushVerdict(ctx, connector, base, v)
		return verdictPushedMsg{verdict: v, stats: stats, err: err}
	})
}

// checkConnectivity asks the backend whether the credentials work.
func (m Model) checkConnectivity(epoch int) tea.Cmd {
	connector := m.connector
	return m.request(func(ctx context.Context) tea.Msg {
		result, err := connector.CheckConnectivity(ctx)
		return connectivityMsg{epoch: epoch, result: result, err: err}
	})
}

// scheduleReconnect waits one reconnect interval before the next check.
func (m Model) scheduleReconnect(epoch int) tea.Cmd {
	return tea.Tick(m.config.ReconnectInterval, func(time.Time) tea.Msg {
		return reconnectTickMsg{epoch: epoch}
	})
}

// saveSettings writes the connection settings to the store.
func (m Model) saveSettings(epoch int, conn settings.Connection) tea.Cmd {
	store := m.config.Storage
	return m.request(func(ctx context.Context) tea.Msg {
		saved, err := settings.Save(ctx, store, conn)
		return settingsSavedMsg{epoch: epoch, conn: saved, err: err}
	})
}

// deleteStatistics resets the statistics on the backend.
func (m Model) deleteStatistics(epoch int) tea.Cmd {
	connector := m.connector
	return m.request(func(ctx context.Context) tea.Msg {
		ok, err := connector.DeleteStatistics(ctx)
		return statsDeletedMsg{epoch: epoch, ok: ok, err: err}
	})
}

// clearDeleteLabel hides the delete result after the label TTL.
func (m Model) clearDeleteLabel(epoch, seq int) tea.Cmd {
	return tea.Tick(m.config.DeleteLabelTTL, func(time.Time) tea.Msg {
		return clearDeleteLabelMsg{epoch: epoch, seq: seq}
	})
}
