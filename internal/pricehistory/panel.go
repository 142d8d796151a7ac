package pricehistory

import (
	"io"
	"sync"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
)

// MessageKind classifies what a container shows instead of a chart.
type MessageKind int

const (
	MessageNone MessageKind = iota
	MessageLoading
	MessageError
	MessageNoData
)

func (k MessageKind) String() string {
	switch k {
	case MessageLoading:
		return "loading"
	case MessageError:
		return "error"
	case MessageNoData:
		return "no_data"
	default:
		return "none"
	}
}

// Container is where a retained chart is attached. While no chart is
// attached it shows a message.
type Container interface {
	ID() string
	Width() int
	ShowMessage(kind MessageKind, text string)
	Attach(c Chart)
}

// Renderer is implemented by charts that can draw themselves.
type Renderer interface {
	Render(format canvas.Format, w io.Writer) error
}

// Panel is an in-memory Container that renders to PNG or SVG.
type Panel struct {
	mu     sync.Mutex
	id     string
	width  int
	height int
	theme  theme.Theme

	chart   Chart
	kind    MessageKind
	message string
	shown   []MessageKind
}

// NewPanel creates an empty panel.
func NewPanel(id string, width, height int, th theme.Theme) *Panel {
	return &Panel{id: id, width: width, height: height, theme: th}
}

func (p *Panel) ID() string { return p.id }

func (p *Panel) Width() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width
}

func (p *Panel) Height() int { return p.height }

// SetWidth records a new container width. Attached charts are resized by
// the adapter, not here.
func (p *Panel) SetWidth(width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
}

// SetTheme changes the palette used for messages.
func (p *Panel) SetTheme(th theme.Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = th
}

func (p *Panel) ShowMessage(kind MessageKind, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chart = nil
	p.kind = kind
	p.message = text
	p.shown = append(p.shown, kind)
}

func (p *Panel) Attach(c Chart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chart = c
	p.kind = MessageNone
	p.message = ""
}

// State returns the current message (if any) and attached chart.
func (p *Panel) State() (MessageKind, string, Chart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind, p.message, p.chart
}

// History returns every message kind shown, oldest first.
func (p *Panel) History() []MessageKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MessageKind(nil), p.shown...)
}

// Render writes the attached chart, or the current message.
func (p *Panel) Render(format canvas.Format, w io.Writer) error {
	p.mu.Lock()
	c, kind, msg, th := p.chart, p.kind, p.message, p.theme
	width, height := p.width, p.height
	p.mu.Unlock()

	if r, ok := c.(Renderer); ok {
		return r.Render(format, w)
	}
	if msg == "" {
		msg = "No chart"
	}

	fg := th.Muted
	if kind == MessageError {
		fg = th.Down
	}
	return renderMessage(format, w, width, height, th.Background, fg, msg)
}

// renderMessage centres msg on a flat background.
func renderMessage(format canvas.Format, w io.Writer, width, height int, bg, fg drawing.Color, msg string) error {
	newSurface := canvas.NewPNG
	if format == canvas.FormatSVG {
		newSurface = canvas.NewSVG
	}
	s, err := newSurface(width, height)
	if err != nil {
		return err
	}
	s.Clear(bg)
	s.Text(msg, float64(width)/2, float64(height)/2, canvas.TextStyle{Size: 14, Color: fg, Align: canvas.AlignCenter})
	return s.Save(w)
}
