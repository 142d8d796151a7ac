// Package canvas defines the drawing surface the chart renderers paint on,
// with raster and vector implementations backed by go-chart, and a retained
// display list that can be replayed onto any surface.
package canvas

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Align is the horizontal anchoring of a text run relative to its x.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// LineStyle describes a stroked path.
type LineStyle struct {
	Color drawing.Color
	Width float64
	Dash  []float64 // nil for solid
}

// TextStyle describes a text run. Y is the text baseline.
type TextStyle struct {
	Size     float64
	Color    drawing.Color
	Align    Align
	Bold     bool
	Rotation float64 // radians, rotated around the anchor
}

// Surface is an immediate-mode drawing target. Coordinates are in pixels
// with the origin at the top-left corner.
type Surface interface {
	Width() int
	Height() int

	Clear(c drawing.Color)
	FillRect(x, y, w, h float64, c drawing.Color)
	StrokeRect(x, y, w, h float64, s LineStyle)
	Line(x1, y1, x2, y2 float64, s LineStyle)
	FillCircle(cx, cy, r float64, c drawing.Color)
	Text(body string, x, y float64, s TextStyle)
}

// Format is an encoded image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" and "svg" (case-insensitive). Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Encode replays a display list onto a new surface of the given format and
// writes the encoded image.
func Encode(rec *Recorder, format Format, w io.Writer) error {
	var (
		s   *ChartSurface
		err error
	)
	switch format {
	case FormatSVG:
		s, err = NewSVG(rec.Width(), rec.Height())
	default:
		s, err = NewPNG(rec.Width(), rec.Height())
	}
	if err != nil {
		return err
	}
	rec.Replay(s)
	return s.Save(w)
}
