package components

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatistics() *model.Statistics {
	s := &model.Statistics{}
	s.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s.ApplyCorrectVerdict(model.LabelStraightPunch, model.HandLeft)
	s.ApplyCorrection(model.LabelHookPunch, model.HandLeft, model.Correction{}.WithLabel(model.LabelStraightPunch))
	return s
}

func TestNewStatsPanelModel(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)

	assert.Nil(t, m.stats)
	assert.False(t, m.progressBar.ShowPercentage)
	assert.False(t, m.stale)
	assert.Contains(t, m.View(), "statistics not loaded")
}

func TestStatsPanelModel_View(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)
	m.Resize(80, 40)
	m.SetStatistics(sampleStatistics(), false, time.Now())

	view := m.View()
	assert.Contains(t, view, "Relative Accuracy")
	assert.Contains(t, view, "75%")
	assert.Contains(t, view, "Right")
	assert.Contains(t, view, "UpperCut")
	assert.Contains(t, view, "StraightPunch")
	assert.Contains(t, view, "2/0")
	assert.Contains(t, view, "Distribution")
	assert.NotContains(t, view, "cached")
}

func TestStatsPanelModel_DistributionShares(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)
	m.Resize(80, 40)
	m.SetStatistics(sampleStatistics(), false, time.Now())

	view := m.View()
	var upper, straight, hook string
	for _, line := range strings.Split(view, "\n") {
		switch {
		case strings.Contains(line, "█") && strings.Contains(line, "UpperCut"):
			upper = line
		case strings.Contains(line, "█") && strings.Contains(line, "StraightPunch"):
			straight = line
		case strings.Contains(line, "HookPunch") && strings.Contains(line, "(0%)"):
			hook = line
		}
	}
	assert.Contains(t, upper, "2 (50%)")
	assert.Contains(t, straight, "2 (50%)")
	assert.Contains(t, hook, "0 (0%)")
	assert.Contains(t, view, "share: Right 50%, Left 50%")
}

func TestStatsPanelModel_Stale(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)
	synced := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)

	m.SetStatistics(sampleStatistics(), true, synced)
	assert.Contains(t, m.View(), "cached 14:05:09")

	m.SetCompact(true)
	assert.Contains(t, m.View(), "cached")
	assert.Contains(t, m.View(), "Correct: 3")
}

func TestStatsPanelModel_CopiesSnapshot(t *testing.T) {
	stats := sampleStatistics()
	m := NewStatsPanelModel(themes.Default)
	m.SetStatistics(stats, false, time.Now())

	stats.AbsolutePositiveAccuracy = 99
	require.NotNil(t, m.stats)
	assert.Equal(t, 3, m.stats.AbsolutePositiveAccuracy)
}

func TestStatsPanelModel_WindowSize(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)
	m.Resize(30, 20)

	assert.Equal(t, 30, m.width)
	assert.Equal(t, 26, m.progressBar.Width)
}

func TestStatsPanelModel_EmptyStatistics(t *testing.T) {
	m := NewStatsPanelModel(themes.Default)
	m.SetStatistics(&model.Statistics{}, false, time.Now())

	assert.NotPanics(t, func() { _ = m.View() })
	assert.Contains(t, m.View(), "0%")
}
