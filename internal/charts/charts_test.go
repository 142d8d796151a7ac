package charts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

func metric(t *testing.T, key string) metrics.Definition {
	t.Helper()
	d, ok := metrics.Default().Lookup(key)
	require.True(t, ok, key)
	return d
}

func asset(ticker string, kv map[string]float64) models.AssetRecord {
	return models.NewAssetRecord(ticker, ticker+" Corp", kv)
}

// ════════════════════════════════════════════════════════════════════
// Grid
// ════════════════════════════════════════════════════════════════════

func TestGridDimensions(t *testing.T) {
	for n := 1; n <= 200; n++ {
		cols, rows := GridDimensions(n)
		assert.Equal(t, int(math.Ceil(math.Sqrt(float64(n)))), cols, "n=%d", n)
		assert.GreaterOrEqual(t, rows*cols, n, "n=%d", n)
		assert.Greater(t, n, rows*(cols-1), "n=%d", n)
		assert.Greater(t, n, (rows-1)*cols, "n=%d", n)
	}

	cols, rows := GridDimensions(0)
	assert.Zero(t, cols)
	assert.Zero(t, rows)

	cols, rows = GridDimensions(5)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2, rows)
}

// ════════════════════════════════════════════════════════════════════
// Treemap
// ════════════════════════════════════════════════════════════════════

func TestTreemapEmptyShowsNoData(t *testing.T) {
	rec := canvas.NewRecorder(800, 400)
	layout := RenderTreemap(rec, nil, metric(t, "pe_ratio"), models.CategoryTracking, theme.Resolve(false))

	assert.True(t, layout.NoData)
	assert.Empty(t, layout.Cells)
	assert.Equal(t, []string{NoDataMessage}, rec.Texts())
	assert.Empty(t, rec.OpsOf(canvas.OpFillRect))
}

func TestTreemapLayoutAndOrdering(t *testing.T) {
	records := []models.AssetRecord{
		asset("AAA", map[string]float64{"pe_ratio": 10}),
		asset("BBB", map[string]float64{"pe_ratio": 50}),
		asset("CCC", map[string]float64{"pe_ratio": 30}),
		asset("DDD", map[string]float64{"pe_ratio": 20}),
		asset("EEE", map[string]float64{"pe_ratio": 40}),
		asset("FFF", map[string]float64{"beta": 1}),
	}
	original := append([]models.AssetRecord(nil), records...)

	rec := canvas.NewRecorder(800, 400)
	layout := RenderTreemap(rec, records, metric(t, "pe_ratio"), models.CategoryTracking, theme.Resolve(true))

	require.False(t, layout.NoData)
	assert.Equal(t, 3, layout.Cols)
	assert.Equal(t, 2, layout.Rows)
	require.Len(t, layout.Cells, 5)

	var tickers []string
	for _, c := range layout.Cells {
		tickers = append(tickers, c.Ticker)
	}
	assert.Equal(t, []string{"BBB", "EEE", "CCC", "DDD", "AAA"}, tickers)
	assert.Equal(t, records, original, "input must not be reordered")

	// Uniform cells: 780/3 wide, 320/2 tall, inset by 2px on each side.
	first := layout.Cells[0]
	assert.InDelta(t, 12, first.X, 1e-9)
	assert.InDelta(t, 62, first.Y, 1e-9)
	assert.InDelta(t, 780.0/3-4, first.W, 1e-9)
	assert.InDelta(t, 156, first.H, 1e-9)
	for _, c := range layout.Cells {
		assert.InDelta(t, first.W, c.W, 1e-9)
		assert.InDelta(t, first.H, c.H, 1e-9)
	}
	assert.Equal(t, 1, layout.Cells[4].Row)
	assert.Equal(t, 1, layout.Cells[4].Col)

	// Red ramp for P/E: max is full red, min has none.
	assert.Equal(t, drawing.Color{R: 255, G: 50, B: 50, A: 255}, layout.Cells[0].Color)
	assert.Equal(t, drawing.Color{R: 0, G: 50, B: 50, A: 255}, layout.Cells[4].Color)

	texts := rec.Texts()
	assert.Contains(t, texts, "Treemap - P/E Ratio")
	assert.Contains(t, texts, "Average: 30.00")
	assert.Contains(t, texts, "50.00")
	assert.Len(t, rec.OpsOf(canvas.OpFillRect), 5)
	assert.Len(t, rec.OpsOf(canvas.OpStrokeRect), 5)
}

func TestTreemapAverageUsesUnfilteredSet(t *testing.T) {
	records := []models.AssetRecord{
		asset("AAPL", map[string]float64{"price": 100}),
		asset("MSFT", map[string]float64{"price": 200}),
		asset("BTC-USD", map[string]float64{"price": 60000}),
	}

	rec := canvas.NewRecorder(800, 400)
	layout := RenderTreemap(rec, records, metric(t, "price"), models.CategoryTracking, theme.Resolve(false))

	require.Len(t, layout.Cells, 2, "crypto pairs are dropped from non-crypto views")
	assert.True(t, layout.HasAverage)
	assert.InDelta(t, 20100, layout.Average, 1e-9)
	assert.Contains(t, rec.Texts(), "Average: $20,100.00")
}

func TestTreemapCryptoKeepsPairs(t *testing.T) {
	records := []models.AssetRecord{
		asset("BTC-USD", map[string]float64{"price": 60000}),
		asset("ETH-USD", map[string]float64{"price": 3000}),
	}

	layout := RenderTreemap(canvas.NewRecorder(800, 400), records, metric(t, "price"), models.CategoryCrypto, theme.Resolve(false))
	assert.Len(t, layout.Cells, 2)
}

func TestTreemapExcludedMetricShowsNoData(t *testing.T) {
	records := []models.AssetRecord{asset("BTC-USD", map[string]float64{"pe_ratio": 5})}

	rec := canvas.NewRecorder(800, 400)
	layout := RenderTreemap(rec, records, metric(t, "pe_ratio"), models.CategoryCrypto, theme.Resolve(false))
	assert.True(t, layout.NoData)
	assert.Equal(t, []string{NoDataMessage}, rec.Texts())
}

func TestTreemapEqualValuesUseUnitRange(t *testing.T) {
	records := []models.AssetRecord{
		asset("A", map[string]float64{"beta": 1.1}),
		asset("B", map[string]float64{"beta": 1.1}),
	}

	layout := RenderTreemap(canvas.NewRecorder(800, 400), records, metric(t, "beta"), models.CategoryTracking, theme.Resolve(false))
	require.Len(t, layout.Cells, 2)
	for _, c := range layout.Cells {
		assert.Equal(t, drawing.Color{R: 50, G: 50, B: 50, A: 255}, c.Color)
	}
}

func TestTreemapTruncatesLongTickers(t *testing.T) {
	records := []models.AssetRecord{asset("VERYLONGTICKER", map[string]float64{"beta": 1})}

	layout := RenderTreemap(canvas.NewRecorder(800, 400), records, metric(t, "beta"), models.CategoryTracking, theme.Resolve(false))
	require.Len(t, layout.Cells, 1)
	assert.Equal(t, "VERYLONGTI...", layout.Cells[0].Label)
}

func TestRampColorClamps(t *testing.T) {
	assert.Equal(t, drawing.Color{R: 50, G: 250, B: 50, A: 255}, RampColor("beta", 2))
	assert.Equal(t, drawing.Color{R: 50, G: 50, B: 50, A: 255}, RampColor("beta", -1))
	assert.Equal(t, drawing.Color{R: 127, G: 50, B: 50, A: 255}, RampColor("pe_ratio", 0.5))
}

// ════════════════════════════════════════════════════════════════════
// Scatter
// ════════════════════════════════════════════════════════════════════

func scatterRecords() []models.AssetRecord {
	return []models.AssetRecord{
		asset("A", map[string]float64{"pe_ratio": 10, "revenue_growth": 0.1}),
		asset("B", map[string]float64{"pe_ratio": 20, "revenue_growth": 0.3}),
		asset("C", map[string]float64{"pe_ratio": 30, "revenue_growth": 0.2}),
		asset("D", map[string]float64{"pe_ratio": 40}),
	}
}

func renderSample(t *testing.T) (*canvas.Recorder, *Scatter) {
	rec := canvas.NewRecorder(800, 500)
	sc := RenderScatter(rec, scatterRecords(), metric(t, "pe_ratio"), metric(t, "revenue_growth"), models.CategoryTracking, theme.Resolve(false))
	return rec, sc
}

func TestScatterAllAbsentShowsNoData(t *testing.T) {
	records := []models.AssetRecord{
		asset("A", map[string]float64{"pe_ratio": 10}),
		asset("B", nil),
	}

	rec := canvas.NewRecorder(800, 500)
	sc := RenderScatter(rec, records, metric(t, "pe_ratio"), metric(t, "revenue"), models.CategoryTracking, theme.Resolve(false))

	assert.True(t, sc.NoData())
	assert.Empty(t, sc.Points())
	assert.Equal(t, []string{NoDataMessage}, rec.Texts())
	assert.Empty(t, rec.OpsOf(canvas.OpFillCircle))
	assert.False(t, sc.PointerMove(400, 250))
}

func TestScatterPlotsOnlyCompleteRecordsSortedByY(t *testing.T) {
	rec, sc := renderSample(t)

	pts := sc.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, "B", pts[0].Ticker)
	assert.Equal(t, "C", pts[1].Ticker)
	assert.Equal(t, "A", pts[2].Ticker)

	// Plot area is 570x380 starting at (80, 60).
	assert.InDelta(t, 365, pts[0].PX, 1e-9)
	assert.InDelta(t, 60, pts[0].PY, 1e-9)
	assert.InDelta(t, 80, pts[2].PX, 1e-9)
	assert.InDelta(t, 440, pts[2].PY, 1e-9)

	assert.Len(t, rec.OpsOf(canvas.OpFillCircle), 3)
	texts := rec.Texts()
	assert.Contains(t, texts, "Revenue Growth vs P/E Ratio")
	assert.Contains(t, texts, "10.00")
	assert.Contains(t, texts, "30.00%")
}

func TestScatterReferenceLinesUseUnfilteredAverages(t *testing.T) {
	rec, _ := renderSample(t)
	th := theme.Resolve(false)

	var xAvg, yAvg []canvas.Op
	for _, op := range rec.OpsOf(canvas.OpLine) {
		if op.Stroke.Width != 2 {
			continue
		}
		switch op.Stroke.Color {
		case th.Down:
			xAvg = append(xAvg, op)
		case th.Up:
			yAvg = append(yAvg, op)
		}
	}
	require.Len(t, xAvg, 1)
	require.Len(t, yAvg, 1)

	// P/E average includes D (no growth value): (10+20+30+40)/4 = 25.
	assert.InDelta(t, 80+0.75*570, xAvg[0].X, 1e-9)
	assert.Equal(t, []float64{5, 5}, xAvg[0].Stroke.Dash)
	assert.InDelta(t, 250, yAvg[0].Y, 1e-9)
}

func TestScatterHitTestThreshold(t *testing.T) {
	_, sc := renderSample(t)
	p := sc.Points()[0]

	idx, ok := sc.HitTest(p.PX, p.PY)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = sc.HitTest(p.PX+15, p.PY)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = sc.HitTest(p.PX+16, p.PY)
	assert.False(t, ok)

	for _, pt := range sc.Points() {
		idx, ok := sc.HitTest(pt.PX, pt.PY)
		require.True(t, ok)
		assert.Equal(t, pt.Ticker, sc.Points()[idx].Ticker)
	}
}

func TestScatterPointerMoveRepaintsOnChange(t *testing.T) {
	rec, sc := renderSample(t)
	p := sc.Points()[1]

	assert.False(t, sc.PointerMove(5, 5), "miss with nothing hovered is a no-op")

	assert.True(t, sc.PointerMove(p.PX+3, p.PY))
	hovered, ok := sc.Hovered()
	require.True(t, ok)
	assert.Equal(t, "C", hovered.Ticker)
	assert.Equal(t, canvas.OpClear, rec.Ops()[0].Kind, "hover triggers a full repaint")
	assert.Contains(t, rec.Texts(), "C Corp")
	assert.Contains(t, rec.Texts(), "P/E Ratio: 30.00")
	assert.Contains(t, rec.Texts(), "Revenue Growth: 20.00%")

	assert.False(t, sc.PointerMove(p.PX, p.PY+2), "same point, no repaint")

	assert.True(t, sc.PointerLeave())
	_, ok = sc.Hovered()
	assert.False(t, ok)
	assert.NotContains(t, rec.Texts(), "C Corp")
}

func TestScatterTooltipIsClamped(t *testing.T) {
	_, sc := renderSample(t)

	x, y, w, h := sc.TooltipRect(5, 5)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
	assert.Equal(t, 120.0, w)
	assert.Equal(t, 50.0, h)

	x, y, _, _ = sc.TooltipRect(795, 495)
	assert.Equal(t, 680.0, x)
	assert.Equal(t, 435.0, y)

	x, y, _, _ = sc.TooltipRect(400, 250)
	assert.Equal(t, 340.0, x)
	assert.Equal(t, 190.0, y)
}

func TestScatterEqualValuesUseUnitRange(t *testing.T) {
	records := []models.AssetRecord{
		asset("A", map[string]float64{"beta": 1, "rsi": 50}),
		asset("B", map[string]float64{"beta": 1, "rsi": 50}),
	}

	sc := RenderScatter(canvas.NewRecorder(800, 500), records, metric(t, "beta"), metric(t, "rsi"), models.CategoryTracking, theme.Resolve(true))
	for _, p := range sc.Points() {
		assert.InDelta(t, 80, p.PX, 1e-9)
		assert.InDelta(t, 440, p.PY, 1e-9)
		assert.False(t, math.IsNaN(p.PX))
	}
}

func TestDrawNoMetrics(t *testing.T) {
	rec := canvas.NewRecorder(400, 200)
	DrawNoMetrics(rec, theme.Resolve(true))
	assert.Equal(t, []string{NoMetricsMessage}, rec.Texts())
}

func TestRenderOntoPNGSurface(t *testing.T) {
	s, err := canvas.NewPNG(800, 500)
	require.NoError(t, err)
	sc := RenderScatter(s, scatterRecords(), metric(t, "pe_ratio"), metric(t, "revenue_growth"), models.CategoryTracking, theme.Resolve(true))
	assert.Len(t, sc.Points(), 3)
}
