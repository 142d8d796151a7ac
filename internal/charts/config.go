// Package charts implements the comparative renderers: a uniform-grid
// treemap and a two-metric scatter plot with hover tooltips. Renderers paint
// onto any canvas.Surface and never mutate their input records.
package charts

import (
	"math"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
)

// Placeholder texts.
const (
	NoDataMessage    = "No data available"
	NoMetricsMessage = "No metrics available"
)

// Margins is the space between the surface edge and the plot area.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Config holds surface-independent rendering parameters.
type Config struct {
	Width         int // default surface width when the container reports none
	TreemapHeight int
	ScatterHeight int

	TreemapPadding float64
	ScatterMargins Margins

	GridDivisions   int     // tick intervals per axis (lines = divisions + 1)
	PointRadius     float64 // scatter point radius
	HoverThreshold  float64 // max pointer distance for a hit
	LegendRowHeight float64
	TreemapLabelMax int // ticker runes before truncation
	LegendLabelMax  int
}

// DefaultConfig returns the dashboard's rendering defaults.
func DefaultConfig() Config {
	return Config{
		Width:           800,
		TreemapHeight:   400,
		ScatterHeight:   500,
		TreemapPadding:  10,
		ScatterMargins:  Margins{Top: 60, Right: 150, Bottom: 60, Left: 80},
		GridDivisions:   5,
		PointRadius:     6,
		HoverThreshold:  15,
		LegendRowHeight: 25,
		TreemapLabelMax: 10,
		LegendLabelMax:  12,
	}
}

// plotArea returns the scatter drawing area for a surface size.
func (c Config) plotArea(width, height int) (x, y, w, h float64) {
	m := c.ScatterMargins
	w = math.Max(1, float64(width)-m.Left-m.Right)
	h = math.Max(1, float64(height)-m.Top-m.Bottom)
	return m.Left, m.Top, w, h
}

// GridDimensions returns the uniform grid used to tile n cells:
// cols = ceil(sqrt(n)), rows = ceil(n/cols).
func GridDimensions(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// drawPlaceholder clears the surface and centres a neutral message on it.
func drawPlaceholder(s canvas.Surface, th theme.Theme, msg string) {
	s.Clear(th.Background)
	s.Text(msg, float64(s.Width())/2, float64(s.Height())/2, canvas.TextStyle{
		Size:  16,
		Color: th.Muted,
		Align: canvas.AlignCenter,
	})
}

// DrawNoMetrics paints the placeholder shown when no metric is available
// for a data set.
func DrawNoMetrics(s canvas.Surface, th theme.Theme) {
	drawPlaceholder(s, th, NoMetricsMessage)
}
