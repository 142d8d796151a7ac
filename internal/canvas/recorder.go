package canvas

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// OpKind identifies a recorded drawing call.
type OpKind int

const (
	OpClear OpKind = iota
	OpFillRect
	OpStrokeRect
	OpLine
	OpFillCircle
	OpText
)

func (k OpKind) String() string {
	switch k {
	case OpClear:
		return "clear"
	case OpFillRect:
		return "fill_rect"
	case OpStrokeRect:
		return "stroke_rect"
	case OpLine:
		return "line"
	case OpFillCircle:
		return "fill_circle"
	case OpText:
		return "text"
	default:
		return "unknown"
	}
}

// Op is one recorded drawing call. For lines, (X, Y)-(X2, Y2) are the end
// points; for circles, (X, Y) is the centre and R the radius.
type Op struct {
	Kind   OpKind
	X, Y   float64
	X2, Y2 float64
	W, H   float64
	R      float64
	Color  drawing.Color
	Stroke LineStyle
	Body   string
	Font   TextStyle
}

// Recorder is a Surface that keeps a display list instead of pixels. A
// renderer can paint once into a Recorder and the result can be inspected
// or replayed onto any number of raster or vector surfaces.
type Recorder struct {
	width  int
	height int
	ops    []Op
}

// NewRecorder creates an empty display list of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Width() int  { return r.width }
func (r *Recorder) Height() int { return r.height }

// Clear drops every previously recorded op; a clear is a full repaint.
func (r *Recorder) Clear(c drawing.Color) {
	r.ops = r.ops[:0]
	r.ops = append(r.ops, Op{Kind: OpClear, Color: c})
}

func (r *Recorder) FillRect(x, y, w, h float64, c drawing.Color) {
	r.ops = append(r.ops, Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, s LineStyle) {
	r.ops = append(r.ops, Op{Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, Stroke: copyLine(s)})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, s LineStyle) {
	r.ops = append(r.ops, Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Stroke: copyLine(s)})
}

func (r *Recorder) FillCircle(cx, cy, radius float64, c drawing.Color) {
	r.ops = append(r.ops, Op{Kind: OpFillCircle, X: cx, Y: cy, R: radius, Color: c})
}

func (r *Recorder) Text(body string, x, y float64, s TextStyle) {
	r.ops = append(r.ops, Op{Kind: OpText, X: x, Y: y, Body: body, Font: s})
}

// Ops returns a copy of the display list.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// OpsOf returns the recorded ops of one kind.
func (r *Recorder) OpsOf(kind OpKind) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns the bodies of every text op in paint order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.ops {
		if op.Kind == OpText {
			out = append(out, op.Body)
		}
	}
	return out
}

// Len returns the number of recorded ops.
func (r *Recorder) Len() int { return len(r.ops) }

// Reset empties the display list.
func (r *Recorder) Reset() { r.ops = r.ops[:0] }

// Resize changes the logical size. Recorded ops are kept.
func (r *Recorder) Resize(width, height int) {
	r.width, r.height = width, height
}

// Replay paints the display list onto dst in order.
func (r *Recorder) Replay(dst Surface) {
	for _, op := range r.ops {
		switch op.Kind {
		case OpClear:
			dst.Clear(op.Color)
		case OpFillRect:
			dst.FillRect(op.X, op.Y, op.W, op.H, op.Color)
		case OpStrokeRect:
			dst.StrokeRect(op.X, op.Y, op.W, op.H, op.Stroke)
		case OpLine:
			dst.Line(op.X, op.Y, op.X2, op.Y2, op.Stroke)
		case OpFillCircle:
			dst.FillCircle(op.X, op.Y, op.R, op.Color)
		case OpText:
			dst.Text(op.Body, op.X, op.Y, op.Font)
		}
	}
}

func copyLine(s LineStyle) LineStyle {
	if s.Dash != nil {
		s.Dash = append([]float64(nil), s.Dash...)
	}
	return s
}
