package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/dashboard"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/web"
)

// handleDashboard serves the comparative analysis page of a category.
// Query parameters metric, x, y, ticker, period and dark preselect the
// page; unknown metrics fall back to the defaults.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	category := models.Category(strings.ToLower(chi.URLParam(r, "category")))
	records, ok := s.loadRecords(w, r, category)
	if !ok {
		return
	}

	q := r.URL.Query()
	dark := s.themes.Dark()
	if raw := q.Get("dark"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dark must be a boolean")
			return
		}
		dark = v
	}

	html, err := dashboard.Generate(records, dashboard.Options{
		Category:      category,
		Dark:          dark,
		TreemapMetric: q.Get("metric"),
		XMetric:       q.Get("x"),
		YMetric:       q.Get("y"),
		Ticker:        q.Get("ticker"),
		Period:        q.Get("period"),
		APIBase:       "/api/v1",
		ScriptURL:     "/static/" + web.ScriptName,
		Catalog:       s.catalog,
	})
	if err != nil {
		s.log.Error().Err(err).Str("category", string(category)).Msg("dashboard render failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
