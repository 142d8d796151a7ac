package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// maxChartWidth bounds requested surface widths.
const maxChartWidth = 4096

// chartParams are the query parameters shared by every image endpoint.
type chartParams struct {
	width  int
	theme  theme.Theme
	format canvas.Format
}

// parseChartParams reads width, dark and format. A missing width selects
// the configured default; a missing dark flag follows the global switch.
func (s *Server) parseChartParams(r *http.Request) (chartParams, error) {
	q := r.URL.Query()
	p := chartParams{width: s.render.Width, theme: s.themes.Current()}

	if raw := q.Get("width"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w <= 0 || w > maxChartWidth {
			return p, fmt.Errorf("width must be an integer in 1..%d", maxChartWidth)
		}
		p.width = w
	}
	if raw := q.Get("dark"); raw != "" {
		dark, err := strconv.ParseBool(raw)
		if err != nil {
			return p, fmt.Errorf("dark must be a boolean")
		}
		p.theme = theme.Resolve(dark)
	}

	format, err := canvas.ParseFormat(q.Get("format"))
	if err != nil {
		return p, err
	}
	p.format = format
	return p, nil
}

// lookupMetric resolves a metric key, falling back to def when key is empty.
func (s *Server) lookupMetric(key string, def metrics.Definition) (metrics.Definition, error) {
	if key == "" {
		return def, nil
	}
	d, ok := s.catalog.Lookup(key)
	if !ok {
		return metrics.Definition{}, fmt.Errorf("unknown metric %q", key)
	}
	return d, nil
}

func (s *Server) handleTreemap(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseChartParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := models.Category(strings.ToLower(chi.URLParam(r, "category")))
	records, ok := s.loadRecords(w, r, category)
	if !ok {
		return
	}

	rec := canvas.NewRecorder(params.width, s.render.TreemapHeight)
	available := s.catalog.ListAvailable(records, category)
	defX, _, hasMetrics := metrics.DefaultAxes(available)

	metric, err := s.lookupMetric(r.URL.Query().Get("metric"), defX)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := "chart"
	if !hasMetrics && metric.Key == "" && len(records) > 0 {
		charts.DrawNoMetrics(rec, params.theme)
		state = "no_metrics"
	} else if layout := s.render.RenderTreemap(rec, records, metric, category, params.theme); layout.NoData {
		state = "no_data"
	}

	writeImage(w, rec, params.format, state)
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseChartParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := models.Category(strings.ToLower(chi.URLParam(r, "category")))
	records, ok := s.loadRecords(w, r, category)
	if !ok {
		return
	}

	q := r.URL.Query()
	rec := canvas.NewRecorder(params.width, s.render.ScatterHeight)
	available := s.catalog.ListAvailable(records, category)
	defX, defY, hasMetrics := metrics.DefaultAxes(available)

	xMetric, err := s.lookupMetric(q.Get("x"), defX)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	yMetric, err := s.lookupMetric(q.Get("y"), defY)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !hasMetrics && len(records) > 0 && (xMetric.Key == "" || yMetric.Key == "") {
		charts.DrawNoMetrics(rec, params.theme)
		writeImage(w, rec, params.format, "no_metrics")
		return
	}

	sc := s.render.RenderScatter(rec, records, xMetric, yMetric, category, params.theme)
	state := "chart"
	if sc.NoData() {
		state = "no_data"
	}

	// px/py replay a pointer position so a hovered frame can be fetched.
	if pxRaw, pyRaw := q.Get("px"), q.Get("py"); pxRaw != "" && pyRaw != "" {
		px, errX := strconv.ParseFloat(pxRaw, 64)
		py, errY := strconv.ParseFloat(pyRaw, 64)
		if errX != nil || errY != nil {
			writeError(w, http.StatusBadRequest, "px and py must be numbers")
			return
		}
		if sc.PointerMove(px, py) {
			if p, ok := sc.Hovered(); ok {
				w.Header().Set("X-Hovered-Ticker", p.Ticker)
			}
		}
	}

	writeImage(w, rec, params.format, state)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseChartParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	q := r.URL.Query()

	// The snapshot only supplies the display name; a lookup failure is not fatal.
	var snapshot models.AssetRecord
	if cat := q.Get("category"); cat != "" {
		if records, err := s.assets.ListAssets(r.Context(), models.Category(strings.ToLower(cat))); err == nil {
			for _, rec := range records {
				if utils.NormalizeTicker(rec.Ticker) == ticker {
					snapshot = rec
					break
				}
			}
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	panel := pricehistory.NewPanel("http-"+uuid.NewString(), params.width, s.cfg.Charts.HistoryHeight, params.theme)
	defer s.history.Dispose(panel.ID())

	period := q.Get("period")
	if period == "" {
		period = s.cfg.History.DefaultPeriod
	}
	_, renderErr := s.history.Render(ctx, panel, ticker, snapshot, period, params.theme)

	kind, _, _ := panel.State()
	state := "chart"
	if renderErr != nil {
		state = kind.String()
	}

	var buf bytes.Buffer
	if err := panel.Render(params.format, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", params.format.ContentType())
	w.Header().Set("X-Chart-State", state)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeImage encodes a display list. Placeholders are still images; the
// X-Chart-State header tells them apart.
func writeImage(w http.ResponseWriter, rec *canvas.Recorder, format canvas.Format, state string) {
	var buf bytes.Buffer
	if err := canvas.Encode(rec, format, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, "encode image: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Chart-State", state)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
