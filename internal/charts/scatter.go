package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Scatter plot
// ════════════════════════════════════════════════════════════════════

// Tooltip box size.
const (
	tooltipWidth  = 120
	tooltipHeight = 50
)

// Point is a plotted record with its pixel position.
type Point struct {
	Ticker string
	Name   string
	X, Y   float64 // metric values
	PX, PY float64 // pixel centre
}

// Scatter is one render instance. It owns the plotted points and the hover
// state; a new render creates a new instance.
type Scatter struct {
	cfg      Config
	surface  canvas.Surface
	theme    theme.Theme
	xMetric  metrics.Definition
	yMetric  metrics.Definition
	category models.Category

	points  []Point
	hovered int

	xMin, xRange float64
	yMin, yRange float64

	avgX, avgY       float64
	hasAvgX, hasAvgY bool
}

// RenderScatter paints a scatter plot with the default configuration.
func RenderScatter(s canvas.Surface, records []models.AssetRecord, xMetric, yMetric metrics.Definition, category models.Category, th theme.Theme) *Scatter {
	return DefaultConfig().RenderScatter(s, records, xMetric, yMetric, category, th)
}

// RenderScatter clears s and plots every record carrying both metrics.
func (c Config) RenderScatter(s canvas.Surface, records []models.AssetRecord, xMetric, yMetric metrics.Definition, category models.Category, th theme.Theme) *Scatter {
	sc := &Scatter{
		cfg:      c,
		surface:  s,
		theme:    th,
		xMetric:  xMetric,
		yMetric:  yMetric,
		category: category,
		hovered:  -1,
	}
	sc.avgX, sc.hasAvgX = metrics.Average(records, xMetric.Key)
	sc.avgY, sc.hasAvgY = metrics.Average(records, yMetric.Key)
	sc.layout(records)
	sc.paint()
	return sc
}

// layout filters, sorts and positions the points.
func (sc *Scatter) layout(records []models.AssetRecord) {
	if !sc.xMetric.AppliesTo(sc.category) || !sc.yMetric.AppliesTo(sc.category) {
		return
	}

	pts := make([]Point, 0, len(records))
	for _, rec := range records {
		x, okX := rec.Value(sc.xMetric.Key)
		y, okY := rec.Value(sc.yMetric.Key)
		if !okX || !okY {
			continue
		}
		pts = append(pts, Point{Ticker: rec.Ticker, Name: rec.DisplayName(), X: x, Y: y})
	}
	if len(pts) == 0 {
		return
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Y > pts[j].Y })

	xMin, xMax := pts[0].X, pts[0].X
	yMin, yMax := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
		yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
	}
	sc.xMin, sc.xRange = xMin, xMax-xMin
	sc.yMin, sc.yRange = yMin, yMax-yMin
	if sc.xRange == 0 {
		sc.xRange = 1
	}
	if sc.yRange == 0 {
		sc.yRange = 1
	}

	for i := range pts {
		pts[i].PX, pts[i].PY = sc.toPixel(pts[i].X, pts[i].Y)
	}
	sc.points = pts
}

func (sc *Scatter) toPixel(x, y float64) (float64, float64) {
	left, top, w, h := sc.cfg.plotArea(sc.surface.Width(), sc.surface.Height())
	return left + (x-sc.xMin)/sc.xRange*w,
		top + h - (y-sc.yMin)/sc.yRange*h
}

// NoData reports whether the render produced the placeholder.
func (sc *Scatter) NoData() bool { return len(sc.points) == 0 }

// Points returns the plotted points in paint order.
func (sc *Scatter) Points() []Point {
	out := make([]Point, len(sc.points))
	copy(out, sc.points)
	return out
}

// Hovered returns the highlighted point, if any.
func (sc *Scatter) Hovered() (Point, bool) {
	if sc.hovered < 0 {
		return Point{}, false
	}
	return sc.points[sc.hovered], true
}

// HitTest returns the index of the point nearest to (x, y) within the hover
// threshold.
func (sc *Scatter) HitTest(x, y float64) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range sc.points {
		d := math.Hypot(x-p.PX, y-p.PY)
		if d <= sc.cfg.HoverThreshold && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// PointerMove updates the hover state. When the hovered point changes the
// whole chart is repainted, with a tooltip if a point is hovered. It reports
// whether a repaint happened.
func (sc *Scatter) PointerMove(x, y float64) bool {
	idx, _ := sc.HitTest(x, y)
	return sc.setHovered(idx)
}

// PointerLeave clears the hover state.
func (sc *Scatter) PointerLeave() bool {
	return sc.setHovered(-1)
}

func (sc *Scatter) setHovered(idx int) bool {
	if idx == sc.hovered {
		return false
	}
	sc.hovered = idx
	sc.paint()
	return true
}

// TooltipRect returns the clamped tooltip box for a point centre.
func (sc *Scatter) TooltipRect(px, py float64) (x, y, w, h float64) {
	w, h = tooltipWidth, tooltipHeight
	x = clamp(px-w/2, 0, float64(sc.surface.Width())-w)
	y = clamp(py-60, 0, float64(sc.surface.Height())-h)
	return x, y, w, h
}

func (sc *Scatter) paint() {
	s, th := sc.surface, sc.theme
	if len(sc.points) == 0 {
		drawPlaceholder(s, th, NoDataMessage)
		return
	}

	width := float64(s.Width())
	height := float64(s.Height())
	left, top, plotW, plotH := sc.cfg.plotArea(s.Width(), s.Height())
	right, bottom := left+plotW, top+plotH

	s.Clear(th.Background)

	s.Text(fmt.Sprintf("%s vs %s", sc.yMetric.Label, sc.xMetric.Label), width/2, 30, canvas.TextStyle{
		Size: 18, Color: th.Text, Align: canvas.AlignCenter, Bold: true,
	})

	// Axes
	axis := canvas.LineStyle{Color: th.Axis, Width: 1}
	s.Line(left, bottom, right, bottom, axis)
	s.Line(left, top, left, bottom, axis)

	labelStyle := canvas.TextStyle{Size: 12, Color: th.Muted, Align: canvas.AlignCenter}
	s.Text(sc.xMetric.Label, width/2, height-20, labelStyle)
	yLabel := labelStyle
	yLabel.Rotation = -math.Pi / 2
	s.Text(sc.yMetric.Label, 20, height/2, yLabel)

	// Grid and tick labels
	grid := canvas.LineStyle{Color: th.Grid, Width: 0.5, Dash: []float64{2, 2}}
	tick := canvas.TextStyle{Size: 10, Color: th.Axis, Align: canvas.AlignCenter}
	divs := sc.cfg.GridDivisions
	for i := 0; i <= divs; i++ {
		f := float64(i) / float64(divs)

		x := left + f*plotW
		s.Line(x, top, x, bottom, grid)
		s.Text(sc.xMetric.Format(sc.xMin+f*sc.xRange), x, bottom+20, tick)

		y := bottom - f*plotH
		s.Line(left, y, right, y, grid)
		yTick := tick
		yTick.Align = canvas.AlignRight
		s.Text(sc.yMetric.Format(sc.yMin+f*sc.yRange), left-10, y+4, yTick)
	}

	// Reference lines at the category-wide averages.
	if sc.hasAvgX {
		x, _ := sc.toPixel(sc.avgX, sc.yMin)
		if x >= left && x <= right {
			s.Line(x, top, x, bottom, canvas.LineStyle{Color: th.Down, Width: 2, Dash: []float64{5, 5}})
		}
	}
	if sc.hasAvgY {
		_, y := sc.toPixel(sc.xMin, sc.avgY)
		if y >= top && y <= bottom {
			s.Line(left, y, right, y, canvas.LineStyle{Color: th.Up, Width: 2, Dash: []float64{5, 5}})
		}
	}

	// Points and the right-margin ticker legend.
	legend := canvas.TextStyle{Size: 11, Color: th.Text, Align: canvas.AlignLeft}
	connector := canvas.LineStyle{Color: th.Grid, Width: 1, Dash: []float64{2, 2}}
	for i, p := range sc.points {
		s.FillCircle(p.PX, p.PY, sc.cfg.PointRadius, th.Up)

		labelY := top + float64(i)*sc.cfg.LegendRowHeight
		if labelY >= bottom {
			continue
		}
		s.Text(utils.Truncate(p.Ticker, sc.cfg.LegendLabelMax), right+10, labelY, legend)
		s.Line(p.PX, p.PY, right, labelY, connector)
	}

	if p, ok := sc.Hovered(); ok {
		sc.drawTooltip(p)
	}
}

func (sc *Scatter) drawTooltip(p Point) {
	s, th := sc.surface, sc.theme
	x, y, w, h := sc.TooltipRect(p.PX, p.PY)
	s.FillRect(x, y, w, h, th.TooltipBackground)

	style := canvas.TextStyle{Size: 10, Color: th.TooltipText, Align: canvas.AlignCenter}
	cx := x + w/2
	s.Text(utils.Truncate(p.Name, 20), cx, y+20, style)
	s.Text(fmt.Sprintf("%s: %s", sc.xMetric.Label, sc.xMetric.Format(p.X)), cx, y+35, style)
	s.Text(fmt.Sprintf("%s: %s", sc.yMetric.Label, sc.yMetric.Format(p.Y)), cx, y+50, style)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
