package components

import (
	"strings"
	"testing"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/stretchr/testify/assert"
)

func testSample() model.Sample {
	return model.Sample{
		Label: model.LabelHookPunch,
		Hand:  model.HandLeft,
		Trace: []model.AccelPoint{
			{TimestampMS: 0, X: 0.1, Y: -0.2, Z: 9.8},
			{TimestampMS: 10, X: 1.5, Y: 0.4, Z: 9.1},
			{TimestampMS: 20, X: -2.5, Y: 1.2, Z: 8.7},
			{TimestampMS: 30, X: 0.3, Y: -1.1, Z: 9.6},
		},
	}
}

func TestAccelChartModel_NoData(t *testing.T) {
	m := NewAccelChartModel(themes.Default)
	assert.Contains(t, m.View(), "no data available")

	m.SetSample(testSample())
	m.SetAvailable(false)
	assert.Contains(t, m.View(), "no data available")
}

func TestAccelChartModel_View(t *testing.T) {
	m := NewAccelChartModel(themes.Default)
	m.Resize(40, 8)
	m.SetSample(testSample())

	view := m.View()
	assert.NotContains(t, view, "no data available")
	assert.Contains(t, view, "30 ms")
	assert.Contains(t, view, "9.8")
	assert.Contains(t, view, "-2.5")
	assert.Contains(t, view, "━ x")
	assert.Contains(t, view, "━ z")
	assert.GreaterOrEqual(t, strings.Count(view, "\n"), 8)
}

func TestAccelChartModel_FlatTrace(t *testing.T) {
	m := NewAccelChartModel(themes.Default)
	m.SetSample(model.Sample{Trace: []model.AccelPoint{{TimestampMS: 0}}})

	assert.NotPanics(t, func() { _ = m.View() })
}

func TestAccelChartModel_ResizeMinimum(t *testing.T) {
	m := NewAccelChartModel(themes.Default)
	m.Resize(1, 1)
	assert.Equal(t, chartMinWidth, m.width)
	assert.Equal(t, chartMinHeight, m.height)
}

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		lo, hi float64
		cells  int
		want   int
	}{
		{name: "low end", v: 0, lo: 0, hi: 10, cells: 11, want: 0},
		{name: "high end", v: 10, lo: 0, hi: 10, cells: 11, want: 10},
		{name: "middle", v: 5, lo: 0, hi: 10, cells: 11, want: 5},
		{name: "clamped", v: 20, lo: 0, hi: 10, cells: 11, want: 10},
		{name: "degenerate range", v: 3, lo: 3, hi: 3, cells: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scale(tt.v, tt.lo, tt.hi, tt.cells))
		})
	}
}
