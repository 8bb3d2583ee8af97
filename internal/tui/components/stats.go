package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const distributionBarWidth = 15

// StatsPanelModel displays the aggregate verdict statistics.
type StatsPanelModel struct {
	syncedAt    time.Time
	theme       themes.Theme
	stats       *model.Statistics
	progressBar progress.Model
	width       int
	height      int
	stale       bool
	compact     bool
}

// NewStatsPanelModel creates a new stats panel.
func NewStatsPanelModel(theme themes.Theme) StatsPanelModel {
	prog := progress.New(progress.WithDefaultGradient())
	prog.ShowPercentage = false

	return StatsPanelModel{
		progressBar: prog,
		theme:       theme,
	}
}

// SetStatistics replaces the displayed snapshot. stale marks a snapshot
// served from the local cache.
func (m *StatsPanelModel) SetStatistics(stats *model.Statistics, stale bool, syncedAt time.Time) {
	if stats != nil {
		stats = stats.Clone()
	}
	m.stats = stats
	m.stale = stale
	m.syncedAt = syncedAt
}

// SetCompact sets compact mode.
func (m *StatsPanelModel) SetCompact(compact bool) {
	m.compact = compact
}

// Resize updates the component size.
func (m *StatsPanelModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.progressBar.Width = max(min(width-4, 40), 10)
}

// View renders the stats panel.
func (m StatsPanelModel) View() string {
	if m.stats == nil {
		return m.theme.Muted.Render("statistics not loaded")
	}
	if m.compact {
		return m.renderCompact()
	}
	return m.renderFull()
}

func (m StatsPanelModel) renderFull() string {
	sections := []string{
		m.renderAccuracy(),
		m.renderHands(),
		m.renderLabels(),
		m.renderJoint(),
		m.renderDistribution(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m StatsPanelModel) renderCompact() string {
	line := fmt.Sprintf("Accuracy: %.0f%% | Correct: %d | Wrong: %d",
		m.stats.RelativeAccuracy,
		m.stats.AbsolutePositiveAccuracy,
		m.stats.AbsoluteNegativeAccuracy,
	)
	if m.stale {
		line += " | " + m.theme.StatusWarning.Render("cached")
	}
	return m.theme.RoundedBox.Render(line)
}

func (m StatsPanelModel) renderAccuracy() string {
	title := m.theme.Subtitle.Render("Relative Accuracy")
	if m.stale {
		title += " " + m.theme.StatusWarning.Render(fmt.Sprintf("(cached %s)", m.syncedAt.Format("15:04:05")))
	}

	bar := m.progressBar.ViewAs(m.stats.RelativeAccuracy / 100)
	detail := fmt.Sprintf("%.0f%%  %s correct  %s wrong",
		m.stats.RelativeAccuracy,
		m.winStyle().Render(fmt.Sprintf("%d", m.stats.AbsolutePositiveAccuracy)),
		m.failStyle().Render(fmt.Sprintf("%d", m.stats.AbsoluteNegativeAccuracy)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, bar, m.theme.Normal.Render(detail))
}

func (m StatsPanelModel) renderHands() string {
	title := m.theme.Subtitle.Render("Hand")

	lines := make([]string, 0, model.NumHands+1)
	shares := make([]string, 0, model.NumHands)
	for _, h := range model.AllHands() {
		wins, fails := m.stats.AbsoluteHandOnlyWinsSums[h], m.stats.AbsoluteHandOnlyFailsSums[h]
		lines = append(lines, m.card(h.String(), wins, fails))
		shares = append(shares, fmt.Sprintf("%s %.0f%%", h, model.Percent(wins+fails, m.stats.AbsolutePositiveAccuracy, m.stats.AbsoluteNegativeAccuracy)))
	}
	lines = append(lines, m.theme.Muted.Render("share: "+strings.Join(shares, ", ")))

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

func (m StatsPanelModel) renderLabels() string {
	title := m.theme.Subtitle.Render("Punch Type")

	lines := make([]string, 0, model.NumLabels)
	for _, l := range model.AllLabels() {
		lines = append(lines, m.card(themes.GetLabelIcon(l)+" "+l.String(),
			m.stats.AbsolutePunchTypeOnlyWinsSums[l],
			m.stats.AbsolutePunchTypeOnlyFailsSums[l]))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

// card renders one win/fail row with whole-percent shares.
func (m StatsPanelModel) card(name string, wins, fails int) string {
	winPct, failPct := model.WinFailPercent(wins, fails)
	return fmt.Sprintf("%-16s %s %s",
		name,
		m.winStyle().Render(fmt.Sprintf("✓ %3d (%3.0f%%)", wins, winPct)),
		m.failStyle().Render(fmt.Sprintf("✗ %3d (%3.0f%%)", fails, failPct)),
	)
}

func (m StatsPanelModel) renderJoint() string {
	title := m.theme.Subtitle.Render("Punch Type × Hand")

	var b strings.Builder
	fmt.Fprintf(&b, "%-16s", "")
	for _, h := range model.AllHands() {
		fmt.Fprintf(&b, " %-11s", h.String()+" ✓/✗")
	}
	lines := []string{m.theme.Bold.Render(b.String())}

	for _, l := range model.AllLabels() {
		b.Reset()
		fmt.Fprintf(&b, "%-16s", l.String())
		for _, h := range model.AllHands() {
			cell := m.stats.AbsoluteFailWinSums[l].Hands[h]
			fmt.Fprintf(&b, " %-11s", fmt.Sprintf("%d/%d", cell[model.SlotWin], cell[model.SlotFail]))
		}
		lines = append(lines, b.String())
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Normal.Render(strings.Join(lines, "\n")))
}

func (m StatsPanelModel) renderDistribution() string {
	title := m.theme.Subtitle.Render("Distribution")

	totals := m.stats.LabelTotals()
	maxCount := 0
	for _, n := range totals {
		maxCount = max(maxCount, n)
	}

	lines := make([]string, 0, model.NumLabels)
	for _, l := range model.AllLabels() {
		barLen := 0
		if maxCount > 0 {
			barLen = totals[l] * distributionBarWidth / maxCount
		}
		lines = append(lines, fmt.Sprintf("%s %-14s %s %d (%.0f%%)",
			themes.GetLabelIcon(l),
			l.String(),
			lipgloss.NewStyle().Foreground(m.theme.Primary).Render(strings.Repeat("█", barLen)),
			totals[l],
			model.Percent(totals[l], m.stats.AbsolutePositiveAccuracy, m.stats.AbsoluteNegativeAccuracy),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Normal.Render(strings.Join(lines, "\n")))
}

func (m StatsPanelModel) winStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.Win)
}

func (m StatsPanelModel) failStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.Fail)
}
