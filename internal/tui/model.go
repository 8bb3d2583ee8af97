package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/session"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/Veraticus/punchdash/internal/tui/components"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// View identifies a screen of the dashboard.
type View int

const (
	ViewDashboard View = iota
	ViewSettings
	numViews
)

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "Dashboard"
	case ViewSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// Connection status labels shown in the settings view.
const (
	statusConnecting = "connecting..."
	statusConnected  = "connected"
)

// Model holds the main TUI state.
type Model struct {
	ctx          context.Context
	theme        themes.Theme
	lastError    error
	connector    Connector
	session      *session.Session
	config       Config
	keymap       KeyMap
	connMessage  string
	deleteLabel  string
	help         help.Model
	chart        components.AccelChartModel
	rating       components.RatingFormModel
	statsPanel   components.StatsPanelModel
	settingsForm components.SettingsFormModel
	epochs       [numViews]int
	deleteSeq    int
	width        int
	height       int
	view         View
	connected    bool
	deleteFailed bool
	statsLoading bool
	showHelp     bool
	quitting     bool
}

// newModel creates a new model with the given configuration. Without a
// storage the settings and statistics cache only last for the session.
func newModel(ctx context.Context, cfg Config) Model {
	if cfg.Storage == nil {
		cfg.Storage = storage.NewMemoryStorage()
	}
	sess := session.New(cfg.Connector, cfg.Storage, cfg.Storage, session.WithRecorder(cfg.Recorder))

	m := Model{
		ctx:          ctx,
		config:       cfg,
		keymap:       DefaultKeyMap(),
		theme:        cfg.Theme,
		connector:    cfg.Connector,
		session:      sess,
		help:         help.New(),
		chart:        components.NewAccelChartModel(cfg.Theme),
		rating:       components.NewRatingFormModel(cfg.Theme),
		statsPanel:   components.NewStatsPanelModel(cfg.Theme),
		settingsForm: components.NewSettingsFormModel(cfg.Theme, cfg.Connection),
		view:         ViewDashboard,
		width:        cfg.Width,
		height:       cfg.Height,
		statsLoading: true,
	}
	m.handleResize()
	return m
}

// Init starts the dashboard view.
func (m Model) Init() tea.Cmd {
	return m.startView()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sampleTickMsg:
		if !m.isCurrent(ViewDashboard, msg.epoch) {
			return m, nil
		}
		return m, m.fetchSample(msg.epoch)

	case sampleFetchedMsg:
		if !m.isCurrent(ViewDashboard, msg.epoch) {
			return m, nil
		}
		return m, tea.Batch(m.handleSample(msg), m.scheduleSample(msg.epoch))

	case statsFetchedMsg:
		if !m.isCurrent(ViewDashboard, msg.epoch) {
			return m, nil
		}
		m.handleStatistics(msg)
		return m, nil

	case verdictPushedMsg:
		m.handleVerdict(msg)
		return m, nil

	case reconnectTickMsg:
		if !m.isCurrent(ViewSettings, msg.epoch) {
			return m, nil
		}
		return m, m.checkConnectivity(msg.epoch)

	case connectivityMsg:
		if !m.isCurrent(ViewSettings, msg.epoch) {
			return m, nil
		}
		return m, m.handleConnectivity(msg)

	case settingsSavedMsg:
		if !m.isCurrent(ViewSettings, msg.epoch) {
			return m, nil
		}
		return m, m.handleSettingsSaved(msg)

	case statsDeletedMsg:
		return m, m.handleDeleted(msg)

	case clearDeleteLabelMsg:
		if m.isCurrent(ViewSettings, msg.epoch) && msg.seq == m.deleteSeq {
			m.deleteLabel = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.rating, cmd = m.rating.Update(msg)
		return m, cmd
	}

	if m.view == ViewSettings {
		var cmd tea.Cmd
		m.settingsForm, cmd = m.settingsForm.Update(msg)
		return m, cmd
	}
	return m, nil
}

// isCurrent reports whether a message started in the given visit of v
// still applies.
func (m Model) isCurrent(v View, epoch int) bool {
	return m.view == v && m.epochs[v] == epoch
}

// switchTo leaves the active view and starts a new visit of v. Work still
// in flight for the old visit is ignored when it returns.
func (m *Model) switchTo(v View) tea.Cmd {
	m.view = v
	m.epochs[v]++
	m.lastError = nil

	if v == ViewSettings {
		m.connected = false
		m.connMessage = ""
		m.deleteLabel = ""
		m.settingsForm.SetValues(m.config.Connection)
	}
	return m.startView()
}

// startView issues the initial requests of the active view.
func (m *Model) startView() tea.Cmd {
	epoch := m.epochs[m.view]
	switch m.view {
	case ViewDashboard:
		m.statsLoading = true
		return tea.Batch(m.fetchStatistics(epoch), m.fetchSample(epoch))
	case ViewSettings:
		return m.checkConnectivity(epoch)
	default:
		return nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.SwitchView):
		cmd := m.switchTo((m.view + 1) % numViews)
		return m, cmd
	}

	if m.view == ViewSettings {
		cmd := m.handleSettingsKey(msg)
		return m, cmd
	}
	cmd := m.handleDashboardKey(msg)
	return m, cmd
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return nil
	}

	if m.rating.Pushing() || !m.session.ReadyForRating() {
		return nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keymap.CycleLabel):
		label, _ := m.truth()
		m.session.SetCorrectionLabel(label.Next())

	case key.Matches(msg, m.keymap.CycleHand):
		_, hand := m.truth()
		m.session.SetCorrectionHand(hand.Next())

	case key.Matches(msg, m.keymap.ResetCorrection):
		m.session.ResetCorrection()

	case key.Matches(msg, m.keymap.ConfirmCorrect):
		v, base, err := m.session.PrepareCorrect()
		cmd = m.startPush(v, base, err)

	case key.Matches(msg, m.keymap.SaveCorrection):
		v, base, ok, err := m.session.PrepareCorrection()
		if ok || err != nil {
			cmd = m.startPush(v, base, err)
		}
	}

	m.rating.SetCorrection(m.session.Correction())
	return cmd
}

func (m *Model) startPush(v model.Verdict, base *model.Statistics, err error) tea.Cmd {
	if err != nil {
		m.rating.FinishPush(err)
		return nil
	}
	return tea.Batch(m.rating.StartPush(), m.pushVerdict(v, base))
}

// truth returns the label and hand the pending correction resolves to.
func (m Model) truth() (model.Label, model.Hand) {
	sample, _ := m.session.Current()
	return m.session.Correction().Resolve(sample.Label, sample.Hand)
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	epoch := m.epochs[ViewSettings]
	switch {
	case key.Matches(msg, m.keymap.SaveSettings):
		return m.saveSettings(epoch, m.settingsForm.Values())
	case key.Matches(msg, m.keymap.DeleteStatistics):
		return m.deleteStatistics(epoch)
	case key.Matches(msg, m.keymap.Down):
		return m.settingsForm.FocusNext()
	case key.Matches(msg, m.keymap.Up):
		return m.settingsForm.FocusPrev()
	}

	var cmd tea.Cmd
	m.settingsForm, cmd = m.settingsForm.Update(msg)
	return cmd
}

// handleSample adopts a polled sample. A sample arriving while a verdict is
// in flight is picked up by the next poll.
func (m *Model) handleSample(msg sampleFetchedMsg) tea.Cmd {
	if msg.err != nil {
		m.lastError = fmt.Errorf("failed to fetch sample: %w", msg.err)
		slog.Debug("Sample poll failed", "error", msg.err)
		return nil
	}
	m.lastError = nil

	if msg.result.Status == service.SampleMalformed {
		slog.Warn("Received malformed sample", "error", msg.result.Err)
	}
	if !m.rating.Pushing() {
		m.session.Observe(msg.result)
	}
	m.syncSample()

	if m.statsLoading || (m.session.Statistics() != nil && !m.session.Stale()) {
		return nil
	}
	m.statsLoading = true
	return m.fetchStatistics(m.epochs[ViewDashboard])
}

func (m *Model) handleStatistics(msg statsFetchedMsg) {
	m.statsLoading = false
	if _, err := m.session.ApplyFetched(m.ctx, msg.stats, msg.err); err != nil {
		m.lastError = fmt.Errorf("failed to load statistics: %w", err)
		common.LogError(err, "Failed to load statistics", nil)
	}
	m.syncStatistics()
}

func (m *Model) handleVerdict(msg verdictPushedMsg) {
	m.rating.FinishPush(msg.err)
	if msg.err != nil {
		common.LogError(msg.err, "Failed to submit verdict", common.Fields{
			"label": msg.verdict.Label,
			"hand":  msg.verdict.Hand,
		})
		return
	}

	m.session.CompleteVerdict(m.ctx, msg.verdict, msg.stats)
	m.syncStatistics()
	m.syncSample()
}

func (m *Model) handleConnectivity(msg connectivityMsg) tea.Cmd {
	if msg.err == nil && msg.result.Success {
		m.connected = true
		m.connMessage = msg.result.Message
		return nil
	}

	m.connected = false
	switch {
	case msg.err != nil:
		m.connMessage = msg.err.Error()
	default:
		m.connMessage = msg.result.Message
	}
	return m.scheduleReconnect(msg.epoch)
}

// handleSettingsSaved points the connector at the saved backend and restarts
// the reconnect loop.
func (m *Model) handleSettingsSaved(msg settingsSavedMsg) tea.Cmd {
	if msg.err != nil {
		m.lastError = msg.err
		return nil
	}

	m.lastError = nil
	m.config.Connection = msg.conn
	m.connector.Reconfigure(msg.conn)
	return m.switchTo(ViewSettings)
}

// handleDeleted applies a delete result to the session whichever view is
// active; the transient label only shows in the visit that asked for it.
func (m *Model) handleDeleted(msg statsDeletedMsg) tea.Cmd {
	ok := msg.err == nil && msg.ok
	if msg.err != nil {
		common.LogError(msg.err, "Failed to delete statistics", nil)
	}
	m.session.ApplyDeleted(m.ctx, ok)
	m.syncStatistics()

	if !m.isCurrent(ViewSettings, msg.epoch) {
		return nil
	}
	m.deleteSeq++
	m.deleteFailed = !ok
	if ok {
		m.deleteLabel = "statistics deleted"
	} else {
		m.deleteLabel = "failed to delete statistics"
	}
	return m.clearDeleteLabel(msg.epoch, m.deleteSeq)
}

func (m *Model) syncSample() {
	if sample, ok := m.session.Current(); ok {
		m.chart.SetSample(sample)
		m.rating.SetSample(sample, m.session.ReadyForRating())
	}
	m.chart.SetAvailable(m.session.DataAvailable())
	m.rating.SetCorrection(m.session.Correction())
}

func (m *Model) syncStatistics() {
	m.statsPanel.SetStatistics(m.session.Statistics(), m.session.Stale(), m.session.SyncedAt())
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	m.help.Width = m.width

	if m.wide() {
		left := m.width*3/5 - 2
		m.chart.Resize(left, 12)
		m.statsPanel.SetCompact(false)
		m.statsPanel.Resize(m.width-left-6, m.height-4)
	} else {
		m.chart.Resize(m.width-4, 10)
		m.statsPanel.SetCompact(m.height < 40)
		m.statsPanel.Resize(m.width-4, m.height/2)
	}
	m.settingsForm.Resize(m.width - 4)
}

// wide reports whether the stats panel fits beside the chart.
func (m Model) wide() bool {
	return m.width >= 110
}
