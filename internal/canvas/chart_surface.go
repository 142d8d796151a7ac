package canvas

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartSurface is a Surface drawn through a go-chart renderer.
type ChartSurface struct {
	r      chart.Renderer
	width  int
	height int
}

// NewPNG creates a raster surface.
func NewPNG(width, height int) (*ChartSurface, error) {
	return newChartSurface(chart.PNG, width, height)
}

// NewSVG creates a vector surface.
func NewSVG(width, height int) (*ChartSurface, error) {
	return newChartSurface(chart.SVG, width, height)
}

func newChartSurface(provider chart.RendererProvider, width, height int) (*ChartSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	r, err := provider(width, height)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load default font: %w", err)
	}
	// 72 DPI makes font sizes equal to pixel heights.
	r.SetDPI(72)
	r.SetFont(font)
	return &ChartSurface{r: r, width: width, height: height}, nil
}

func (s *ChartSurface) Width() int  { return s.width }
func (s *ChartSurface) Height() int { return s.height }

// Save encodes the surface (PNG bytes or SVG document).
func (s *ChartSurface) Save(w io.Writer) error {
	return s.r.Save(w)
}

func (s *ChartSurface) Clear(c drawing.Color) {
	s.FillRect(0, 0, float64(s.width), float64(s.height), c)
}

func (s *ChartSurface) rectPath(x, y, w, h float64) {
	x0, y0 := px(x), px(y)
	x1, y1 := px(x+w), px(y+h)
	s.r.MoveTo(x0, y0)
	s.r.LineTo(x1, y0)
	s.r.LineTo(x1, y1)
	s.r.LineTo(x0, y1)
	s.r.Close()
}

func (s *ChartSurface) FillRect(x, y, w, h float64, c drawing.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	s.r.SetFillColor(c)
	s.r.SetStrokeWidth(0)
	s.rectPath(x, y, w, h)
	s.r.Fill()
}

func (s *ChartSurface) applyLine(ls LineStyle) {
	s.r.SetStrokeColor(ls.Color)
	s.r.SetStrokeWidth(ls.Width)
	s.r.SetStrokeDashArray(ls.Dash)
}

func (s *ChartSurface) StrokeRect(x, y, w, h float64, ls LineStyle) {
	if w <= 0 || h <= 0 {
		return
	}
	s.applyLine(ls)
	s.rectPath(x, y, w, h)
	s.r.Stroke()
	s.r.SetStrokeDashArray(nil)
}

func (s *ChartSurface) Line(x1, y1, x2, y2 float64, ls LineStyle) {
	s.applyLine(ls)
	s.r.MoveTo(px(x1), px(y1))
	s.r.LineTo(px(x2), px(y2))
	s.r.Stroke()
	s.r.SetStrokeDashArray(nil)
}

func (s *ChartSurface) FillCircle(cx, cy, radius float64, c drawing.Color) {
	s.r.SetFillColor(c)
	s.r.SetStrokeWidth(0)
	s.r.Circle(radius, px(cx), px(cy))
	s.r.Fill()
}

func (s *ChartSurface) Text(body string, x, y float64, ts TextStyle) {
	if body == "" {
		return
	}
	s.r.SetFontColor(ts.Color)
	s.r.SetFontSize(ts.Size)

	w := float64(s.r.MeasureText(body).Width())
	switch ts.Align {
	case AlignCenter:
		x -= w / 2
	case AlignRight:
		x -= w
	}

	if ts.Rotation != 0 {
		s.r.SetTextRotation(ts.Rotation)
		defer s.r.ClearTextRotation()
	}
	s.r.Text(body, px(x), px(y))
	if ts.Bold {
		// The default font has a single weight; overstrike by one pixel.
		s.r.Text(body, px(x)+1, px(y))
	}
}

func px(v float64) int {
	return int(math.Round(v))
}
