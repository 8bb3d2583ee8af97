package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

const (
	chartMinWidth  = 20
	chartMinHeight = 5
	chartGutter    = 8
)

// AccelChartModel draws the accelerometer trace of a sample as three
// overlaid line series.
type AccelChartModel struct {
	theme     themes.Theme
	sample    *model.Sample
	width     int
	height    int
	available bool
}

// NewAccelChartModel creates an empty chart.
func NewAccelChartModel(theme themes.Theme) AccelChartModel {
	return AccelChartModel{
		theme:  theme,
		width:  60,
		height: 12,
	}
}

// SetSample replaces the plotted sample.
func (m *AccelChartModel) SetSample(s model.Sample) {
	m.sample = &s
	m.available = true
}

// SetAvailable marks whether the latest poll produced usable data.
func (m *AccelChartModel) SetAvailable(available bool) {
	m.available = available
}

// Resize updates the plot area, including the axis gutter.
func (m *AccelChartModel) Resize(width, height int) {
	m.width = max(width, chartMinWidth)
	m.height = max(height, chartMinHeight)
}

// View renders the chart.
func (m AccelChartModel) View() string {
	if m.sample == nil || !m.available || len(m.sample.Trace) == 0 {
		return m.theme.Muted.Render("no data available")
	}

	plotWidth := m.width - chartGutter
	ts, x, y, z := m.sample.Axes()
	lo, hi := bounds(x, y, z)

	grid := make([][]rune, m.height)
	colors := make([][]lipgloss.Color, m.height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", plotWidth))
		colors[r] = make([]lipgloss.Color, plotWidth)
	}

	series := []struct {
		values []float64
		color  lipgloss.Color
		glyph  rune
	}{
		{values: x, color: m.theme.AxisX, glyph: '•'},
		{values: y, color: m.theme.AxisY, glyph: '•'},
		{values: z, color: m.theme.AxisZ, glyph: '•'},
	}

	for _, s := range series {
		prevRow, prevCol := -1, -1
		for i, v := range s.values {
			col := scale(ts[i], ts[0], ts[len(ts)-1], plotWidth)
			row := m.height - 1 - scale(v, lo, hi, m.height)
			if prevCol >= 0 {
				connect(grid, colors, prevRow, prevCol, row, col, s.color)
			}
			grid[row][col] = s.glyph
			colors[row][col] = s.color
			prevRow, prevCol = row, col
		}
	}

	lines := make([]string, m.height)
	for r := range grid {
		label := ""
		switch r {
		case 0:
			label = fmt.Sprintf("%.1f", hi)
		case m.height - 1:
			label = fmt.Sprintf("%.1f", lo)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%*s │", chartGutter-2, label)
		for c, ch := range grid[r] {
			if colors[r][c] == "" {
				b.WriteRune(ch)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(colors[r][c]).Render(string(ch)))
		}
		lines[r] = b.String()
	}

	duration := ts[len(ts)-1] - ts[0]
	footer := fmt.Sprintf("%*s └%s %.0f ms", chartGutter-2, "", strings.Repeat("─", max(plotWidth-10, 1)), duration)
	legend := fmt.Sprintf("%*s  %s  %s  %s", chartGutter-2, "",
		lipgloss.NewStyle().Foreground(m.theme.AxisX).Render("━ x"),
		lipgloss.NewStyle().Foreground(m.theme.AxisY).Render("━ y"),
		lipgloss.NewStyle().Foreground(m.theme.AxisZ).Render("━ z"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), footer, legend)
}

// bounds returns the value range across all series, widened when flat.
func bounds(series ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi-lo < 1e-9 {
		return lo - 1, hi + 1
	}
	return lo, hi
}

// scale maps v in [lo, hi] onto a cell index in [0, cells).
func scale(v, lo, hi float64, cells int) int {
	if cells <= 1 || hi <= lo {
		return 0
	}
	idx := int(math.Round((v - lo) / (hi - lo) * float64(cells-1)))
	return min(max(idx, 0), cells-1)
}

// connect fills the vertical gap between two consecutive points so steep
// slopes read as lines.
func connect(grid [][]rune, colors [][]lipgloss.Color, r0, c0, r1, c1 int, color lipgloss.Color) {
	if c1-c0 > 1 || r0 == r1 {
		return
	}
	step := 1
	if r1 < r0 {
		step = -1
	}
	for r := r0 + step; r != r1; r += step {
		if grid[r][c1] == ' ' {
			grid[r][c1] = '│'
			colors[r][c1] = color
		}
	}
}
