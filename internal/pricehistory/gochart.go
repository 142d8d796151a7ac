package pricehistory

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// go-chart backed retained library
// ════════════════════════════════════════════════════════════════════

// GoChartLibrary is a retained chart library drawn with go-chart. Its
// version selects the series API the created charts expose: 5 and above
// the typed API, 4 the area and line API, 1 to 3 line only.
type GoChartLibrary struct {
	version int
}

// NewGoChartLibrary creates a library emulating the given API version.
func NewGoChartLibrary(version int) *GoChartLibrary {
	return &GoChartLibrary{version: version}
}

// Version returns the emulated API version.
func (l *GoChartLibrary) Version() int { return l.version }

// CreateChart creates a retained chart.
func (l *GoChartLibrary) CreateChart(opts ChartOptions) (Chart, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid chart size %dx%d", opts.Width, opts.Height)
	}
	base := &goChart{opts: opts, width: opts.Width}

	switch {
	case l.version >= 5:
		return &typedChart{base}, nil
	case l.version == 4:
		return &legacyChart{base}, nil
	case l.version >= 1:
		return &lineOnlyChart{base}, nil
	default:
		return nil, fmt.Errorf("unsupported chart library version %d", l.version)
	}
}

// goChart holds the retained state shared by every API version.
type goChart struct {
	mu      sync.Mutex
	opts    ChartOptions
	width   int
	series  []*goSeries
	removed bool
}

func (c *goChart) ApplyWidth(width int) {
	if width <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
}

// Width returns the current width.
func (c *goChart) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *goChart) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
	c.series = nil
}

// Removed reports whether Remove was called.
func (c *goChart) Removed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed
}

func (c *goChart) addSeries(area bool, opts SeriesOptions) (Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return nil, ErrChartRemoved
	}
	s := &goSeries{chart: c, area: area, opts: opts}
	c.series = append(c.series, s)
	return s, nil
}

// Render draws the chart at its current width.
func (c *goChart) Render(format canvas.Format, w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return ErrChartRemoved
	}

	th := c.opts.Theme
	axisStyle := chart.Style{FontColor: th.Muted, StrokeColor: th.Axis, FontSize: 9}

	graph := chart.Chart{
		Title:      c.opts.Title,
		TitleStyle: chart.Style{FontColor: th.Text, FontSize: 12},
		Width:      c.width,
		Height:     c.opts.Height,
		Background: chart.Style{
			FillColor: th.Background,
			Padding:   chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: chart.Style{FillColor: th.Background},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: dateTick,
		},
		YAxis: chart.YAxis{
			Style:          axisStyle,
			ValueFormatter: priceTick,
		},
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range c.series {
		series, sLo, sHi := s.timeSeries()
		graph.Series = append(graph.Series, series...)
		lo, hi = math.Min(lo, sLo), math.Max(hi, sHi)
	}
	if len(graph.Series) == 0 {
		return fmt.Errorf("render chart: no data")
	}

	// Pad the value axis so flat series still have a non-zero range.
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	graph.YAxis.Range = &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	provider := chart.PNG
	if format == canvas.FormatSVG {
		provider = chart.SVG
	}
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// typedChart exposes the typed series API.
type typedChart struct{ *goChart }

func (c *typedChart) AddSeries(kind SeriesType, opts SeriesOptions) (Series, error) {
	switch kind {
	case AreaSeries:
		return c.addSeries(true, opts)
	case LineSeries:
		return c.addSeries(false, opts)
	default:
		return nil, fmt.Errorf("unsupported series type %q", kind)
	}
}

// legacyChart exposes per-kind area and line calls.
type legacyChart struct{ *goChart }

func (c *legacyChart) AddAreaSeries(opts SeriesOptions) (Series, error) {
	return c.addSeries(true, opts)
}

func (c *legacyChart) AddLineSeries(opts SeriesOptions) (Series, error) {
	return c.addSeries(false, opts)
}

// lineOnlyChart exposes only line series.
type lineOnlyChart struct{ *goChart }

func (c *lineOnlyChart) AddLineSeries(opts SeriesOptions) (Series, error) {
	return c.addSeries(false, opts)
}

// goSeries is guarded by its chart's mutex.
type goSeries struct {
	chart  *goChart
	area   bool
	opts   SeriesOptions
	points []models.SeriesPoint
	lines  []PriceLine
}

func (s *goSeries) SetData(points []models.SeriesPoint) {
	s.chart.mu.Lock()
	defer s.chart.mu.Unlock()
	s.points = append([]models.SeriesPoint(nil), points...)
}

func (s *goSeries) CreatePriceLine(line PriceLine) {
	s.chart.mu.Lock()
	defer s.chart.mu.Unlock()
	s.lines = append(s.lines, line)
}

// Data returns a copy of the series points.
func (s *goSeries) Data() []models.SeriesPoint {
	s.chart.mu.Lock()
	defer s.chart.mu.Unlock()
	return append([]models.SeriesPoint(nil), s.points...)
}

// PriceLines returns a copy of the reference lines.
func (s *goSeries) PriceLines() []PriceLine {
	s.chart.mu.Lock()
	defer s.chart.mu.Unlock()
	return append([]PriceLine(nil), s.lines...)
}

// IsArea reports whether the series is filled.
func (s *goSeries) IsArea() bool { return s.area }

// timeSeries converts the series and its price lines. Caller holds the lock.
func (s *goSeries) timeSeries() ([]chart.Series, float64, float64) {
	xs := make([]time.Time, 0, len(s.points)+1)
	ys := make([]float64, 0, len(s.points)+1)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range s.points {
		t, ok := utils.ParseISODate(p.Time)
		if !ok {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, p.Value)
		lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
	}
	if len(xs) == 0 {
		return nil, lo, hi
	}
	// A single sample still needs a non-zero time range.
	if len(xs) == 1 {
		xs = append(xs, xs[0].AddDate(0, 0, 1))
		ys = append(ys, ys[0])
	}

	style := chart.Style{StrokeColor: s.opts.LineColor, StrokeWidth: s.opts.LineWidth}
	if s.area {
		style.FillColor = s.opts.FillColor
	}
	out := []chart.Series{chart.TimeSeries{Name: s.opts.Name, XValues: xs, YValues: ys, Style: style}}

	first, last := xs[0], xs[len(xs)-1]
	for _, l := range s.lines {
		ls := chart.Style{StrokeColor: l.Color, StrokeWidth: 1}
		if l.Dashed {
			ls.StrokeDashArray = []float64{5, 5}
		}
		out = append(out, chart.TimeSeries{
			Name:    l.Title,
			XValues: []time.Time{first, last},
			YValues: []float64{l.Price, l.Price},
			Style:   ls,
		})
		lo, hi = math.Min(lo, l.Price), math.Max(hi, l.Price)
	}
	return out, lo, hi
}

// go-chart passes time values as nanoseconds since the epoch.
func dateTick(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return time.Unix(0, int64(f)).UTC().Format("Jan 06")
}

func priceTick(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return utils.FormatAxisValue(f)
}
