package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Treemap (uniform grid)
// ════════════════════════════════════════════════════════════════════

// Cell is one painted treemap tile. The rectangle is the drawn (inset) one.
type Cell struct {
	Ticker    string
	Name      string
	Value     float64
	Label     string // truncated ticker as drawn
	Formatted string
	Row, Col  int
	X, Y      float64
	W, H      float64
	Color     drawing.Color
}

// TreemapLayout describes what a treemap render produced.
type TreemapLayout struct {
	Metric     metrics.Definition
	Cells      []Cell
	Cols, Rows int

	// Average is taken over every input record, including those that were
	// filtered out of the grid.
	Average    float64
	HasAverage bool

	NoData bool
}

type treemapItem struct {
	rec   models.AssetRecord
	value float64
}

// RenderTreemap paints a treemap with the default configuration.
func RenderTreemap(s canvas.Surface, records []models.AssetRecord, metric metrics.Definition, category models.Category, th theme.Theme) *TreemapLayout {
	return DefaultConfig().RenderTreemap(s, records, metric, category, th)
}

// RenderTreemap clears s and paints one equally sized cell per qualifying
// record, largest value first.
func (c Config) RenderTreemap(s canvas.Surface, records []models.AssetRecord, metric metrics.Definition, category models.Category, th theme.Theme) *TreemapLayout {
	layout := &TreemapLayout{Metric: metric}

	items := treemapItems(records, metric, category)
	if len(items) == 0 {
		layout.NoData = true
		drawPlaceholder(s, th, NoDataMessage)
		return layout
	}

	layout.Average, layout.HasAverage = metrics.Average(records, metric.Key)

	minAbs, maxAbs := math.Inf(1), math.Inf(-1)
	for _, it := range items {
		a := math.Abs(it.value)
		minAbs = math.Min(minAbs, a)
		maxAbs = math.Max(maxAbs, a)
	}
	valueRange := maxAbs - minAbs
	if valueRange == 0 {
		valueRange = 1
	}

	width := float64(s.Width())
	height := float64(s.Height())
	pad := c.TreemapPadding

	s.Clear(th.Background)

	// Header: title, dashed average rule and its annotation.
	s.Text(fmt.Sprintf("Treemap - %s", metric.Label), width/2, 30, canvas.TextStyle{
		Size: 18, Color: th.Text, Align: canvas.AlignCenter, Bold: true,
	})
	s.Line(pad, 50, width-pad, 50, canvas.LineStyle{Color: th.Axis, Width: 2, Dash: []float64{5, 5}})
	avgText := metrics.NotAvailable
	if layout.HasAverage {
		avgText = metric.Format(layout.Average)
	}
	s.Text("Average: "+avgText, pad, 45, canvas.TextStyle{Size: 12, Color: th.Muted, Align: canvas.AlignLeft})

	cols, rows := GridDimensions(len(items))
	layout.Cols, layout.Rows = cols, rows

	availW := width - pad*2
	availH := height - pad*2 - 60
	cellW := availW / float64(cols)
	cellH := availH / float64(rows)

	border := canvas.LineStyle{Color: th.Grid, Width: 1}
	labelStyle := canvas.TextStyle{Size: 10, Color: drawing.ColorWhite, Align: canvas.AlignCenter, Bold: true}
	valueStyle := canvas.TextStyle{Size: 9, Color: drawing.ColorWhite, Align: canvas.AlignCenter}

	layout.Cells = make([]Cell, 0, len(items))
	for i, it := range items {
		row, col := i/cols, i%cols
		x := pad + float64(col)*cellW
		y := 60 + float64(row)*cellH

		norm := (math.Abs(it.value) - minAbs) / valueRange
		cell := Cell{
			Ticker:    it.rec.Ticker,
			Name:      it.rec.DisplayName(),
			Value:     it.value,
			Label:     utils.Truncate(it.rec.Ticker, c.TreemapLabelMax),
			Formatted: metric.Format(it.value),
			Row:       row,
			Col:       col,
			X:         x + 2,
			Y:         y + 2,
			W:         cellW - 4,
			H:         cellH - 4,
			Color:     RampColor(metric.Key, norm),
		}

		s.FillRect(cell.X, cell.Y, cell.W, cell.H, cell.Color)
		s.StrokeRect(cell.X, cell.Y, cell.W, cell.H, border)

		cx, cy := x+cellW/2, y+cellH/2
		s.Text(cell.Label, cx, cy-8, labelStyle)
		s.Text(cell.Formatted, cx, cy+8, valueStyle)

		layout.Cells = append(layout.Cells, cell)
	}
	return layout
}

// treemapItems applies the category and presence filters and sorts the
// survivors by value, largest first. The input slice is not reordered.
func treemapItems(records []models.AssetRecord, metric metrics.Definition, category models.Category) []treemapItem {
	if !metric.AppliesTo(category) {
		return nil
	}

	items := make([]treemapItem, 0, len(records))
	for _, rec := range records {
		if !category.IsCrypto() && utils.IsCryptoTicker(rec.Ticker) {
			continue
		}
		v, ok := rec.Value(metric.Key)
		if !ok {
			continue
		}
		items = append(items, treemapItem{rec: rec, value: v})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].value > items[j].value
	})
	return items
}

// RampColor maps a normalized intensity in [0, 1] to a cell colour: a red
// ramp for P/E, a green ramp for everything else.
func RampColor(metricKey string, norm float64) drawing.Color {
	norm = math.Max(0, math.Min(1, norm))
	if metricKey == "pe_ratio" {
		return drawing.Color{R: uint8(math.Floor(norm * 255)), G: 50, B: 50, A: 255}
	}
	return drawing.Color{R: 50, G: uint8(math.Floor(50 + norm*200)), B: 50, A: 255}
}
