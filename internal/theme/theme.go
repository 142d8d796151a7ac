// Package theme resolves the dark and light colour palettes used by every
// renderer, and provides the boundary switch that announces theme changes.
package theme

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme is an immutable palette snapshot passed to each render call.
type Theme struct {
	Dark bool

	Background drawing.Color
	Panel      drawing.Color
	Text       drawing.Color
	Muted      drawing.Color
	Axis       drawing.Color
	Grid       drawing.Color
	Border     drawing.Color

	Up   drawing.Color
	Down drawing.Color
	Line drawing.Color

	TooltipBackground drawing.Color
	TooltipText       drawing.Color
}

// Name returns "dark" or "light".
func (t Theme) Name() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}

// Colors returns every colour of the palette in a fixed order.
func (t Theme) Colors() []drawing.Color {
	return []drawing.Color{
		t.Background, t.Panel, t.Text, t.Muted, t.Axis, t.Grid, t.Border,
		t.Up, t.Down, t.Line, t.TooltipBackground, t.TooltipText,
	}
}

var (
	dark = Theme{
		Dark:              true,
		Background:        drawing.ColorFromHex("1F2937"),
		Panel:             drawing.ColorFromHex("111827"),
		Text:              drawing.ColorFromHex("E5E7EB"),
		Muted:             drawing.ColorFromHex("9CA3AF"),
		Axis:              drawing.ColorFromHex("6B7280"),
		Grid:              drawing.ColorFromHex("374151"),
		Border:            drawing.ColorFromHex("4B5563"),
		Up:                drawing.ColorFromHex("34D399"),
		Down:              drawing.ColorFromHex("F87171"),
		Line:              drawing.ColorFromHex("60A5FA"),
		TooltipBackground: drawing.Color{R: 0, G: 0, B: 0, A: 204},
		TooltipText:       drawing.ColorFromHex("F3F4F6"),
	}

	light = Theme{
		Background:        drawing.ColorFromHex("FFFFFF"),
		Panel:             drawing.ColorFromHex("F9FAFB"),
		Text:              drawing.ColorFromHex("0F172A"),
		Muted:             drawing.ColorFromHex("64748B"),
		Axis:              drawing.ColorFromHex("94A3B8"),
		Grid:              drawing.ColorFromHex("E2E8F0"),
		Border:            drawing.ColorFromHex("CBD5E1"),
		Up:                drawing.ColorFromHex("10B981"),
		Down:              drawing.ColorFromHex("EF4444"),
		Line:              drawing.ColorFromHex("2563EB"),
		TooltipBackground: drawing.Color{R: 0x1E, G: 0x29, B: 0x3B, A: 230},
		TooltipText:       drawing.ColorFromHex("FFFFFF"),
	}
)

// Resolve returns the palette for the given mode. It has no side effects.
func Resolve(isDark bool) Theme {
	if isDark {
		return dark
	}
	return light
}
