package pricehistory

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Retained chart library contract
// ════════════════════════════════════════════════════════════════════

// ChartOptions configures a new retained chart.
type ChartOptions struct {
	Width  int
	Height int
	Title  string
	Theme  theme.Theme
}

// Library creates retained charts.
type Library interface {
	CreateChart(opts ChartOptions) (Chart, error)
}

// Chart is a retained chart object. Series are added through one of the
// optional adder interfaces below, depending on the library version.
type Chart interface {
	// ApplyWidth resizes the chart in place.
	ApplyWidth(width int)
	// Remove releases the chart. Calling it twice is harmless.
	Remove()
}

// SeriesOptions styles a price series.
type SeriesOptions struct {
	Name      string
	LineColor drawing.Color
	FillColor drawing.Color // ignored by line series
	LineWidth float64
}

// PriceLine is a horizontal reference line on a series.
type PriceLine struct {
	Price  float64
	Title  string
	Color  drawing.Color
	Dashed bool
}

// Series is a plotted price series.
type Series interface {
	SetData(points []models.SeriesPoint)
	CreatePriceLine(line PriceLine)
}

// SeriesType names a series kind for the typed API.
type SeriesType string

const (
	AreaSeries SeriesType = "Area"
	LineSeries SeriesType = "Line"
)

// TypedSeriesAdder is the current API: one entry point taking a series type.
type TypedSeriesAdder interface {
	AddSeries(kind SeriesType, opts SeriesOptions) (Series, error)
}

// AreaSeriesAdder is the legacy per-kind area API.
type AreaSeriesAdder interface {
	AddAreaSeries(opts SeriesOptions) (Series, error)
}

// LineSeriesAdder is the oldest, line-only API.
type LineSeriesAdder interface {
	AddLineSeries(opts SeriesOptions) (Series, error)
}

// SeriesShape records which call shape a chart was driven through.
type SeriesShape string

const (
	ShapeTyped SeriesShape = "typed"
	ShapeArea  SeriesShape = "area"
	ShapeLine  SeriesShape = "line"
)

type addSeriesFunc func(SeriesOptions) (Series, error)

// probeSeries picks the first series API the chart supports, in order
// typed, area, line. It runs once per created chart.
func probeSeries(c Chart) (addSeriesFunc, SeriesShape, error) {
	if t, ok := c.(TypedSeriesAdder); ok {
		return func(o SeriesOptions) (Series, error) { return t.AddSeries(AreaSeries, o) }, ShapeTyped, nil
	}
	if a, ok := c.(AreaSeriesAdder); ok {
		return a.AddAreaSeries, ShapeArea, nil
	}
	if l, ok := c.(LineSeriesAdder); ok {
		return l.AddLineSeries, ShapeLine, nil
	}
	return nil, "", fmt.Errorf("%w: %T exposes no series API", ErrLibraryUnavailable, c)
}
