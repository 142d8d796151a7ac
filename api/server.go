// Package api provides the HTTP server for Apertura.
//
// It exposes the metric catalog, server-rendered treemap, scatter and price
// history images, the comparative analysis page and a WebSocket render
// session that repaints charts on pointer, resize, theme and selection events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/config"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/datasource"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/resize"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/web"
)

// Version is reported by /health.
var Version = "dev"

// Deps are the collaborators a Server is built from. Nil fields are filled
// from the configuration.
type Deps struct {
	Assets  datasource.AssetLister
	History pricehistory.HistorySource
	Loader  pricehistory.LibraryLoader
	Themes  *theme.Switch
	Catalog *metrics.Catalog
	Logger  zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	render  charts.Config
	catalog *metrics.Catalog
	assets  datasource.AssetLister
	history *pricehistory.Adapter
	themes  *theme.Switch
	wsHub   *WSHub
	log     zerolog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// The WebSocket hub starts immediately; Close stops it.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Assets == nil {
		deps.Assets = datasource.NewAssetSource(cfg.Backend.Endpoint(), cfg.Backend.CacheTTL(), cfg.Backend.RateLimitPerSec)
	}
	if deps.History == nil {
		deps.History = datasource.NewHistorySource(cfg.Backend.Endpoint(), cfg.Backend.RateLimitPerSec)
	}
	if deps.Loader == nil {
		deps.Loader = pricehistory.StaticLoader(pricehistory.NewGoChartLibrary(cfg.History.LibraryVersion))
	}
	if deps.Themes == nil {
		deps.Themes = theme.NewSwitch(cfg.Charts.Dark)
	}
	if deps.Catalog == nil {
		deps.Catalog = metrics.Default()
	}

	logger := deps.Logger.With().Str("component", "api").Logger()
	adapter := pricehistory.NewAdapter(
		deps.Loader,
		deps.History,
		pricehistory.NewRegistry(),
		resize.New(0),
		cfg.History.Options(cfg.Charts.HistoryHeight),
		deps.Logger.With().Str("component", "pricehistory").Logger(),
	)

	srv := &Server{
		cfg:     cfg,
		render:  cfg.Charts.Renderer(),
		catalog: deps.Catalog,
		assets:  deps.Assets,
		history: adapter,
		themes:  deps.Themes,
		wsHub:   NewWSHub(logger),
		log:     logger,
	}
	go srv.wsHub.Run()

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Close stops the hub and disposes every retained chart.
func (s *Server) Close() {
	s.wsHub.Stop()
	s.history.Registry().DisposeAll()
}

// ListenAndServe starts the HTTP server with graceful shutdown on SIGINT/SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-done:
	}
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := httpSrv.Shutdown(ctx)
	s.Close()
	return err
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Chart-State"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Catalog
		r.Get("/metrics/{category}", s.handleMetrics)

		// Chart images
		r.Get("/charts/{category}/treemap", s.handleTreemap)
		r.Get("/charts/{category}/scatter", s.handleScatter)
		r.Get("/history/{ticker}", s.handleHistory)

		// Theme
		r.Get("/theme", s.handleGetTheme)
		r.Post("/theme", s.handleSetTheme)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// Render sessions
		r.Get("/ws", s.handleWebSocket)
	})

	r.Get("/dashboard/{category}", s.handleDashboard)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/"+string(models.CategoryTracking), http.StatusFound)
	})

	if fsys, err := web.StaticFS(); err != nil {
		s.log.Error().Err(err).Msg("static assets unavailable")
	} else {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			static.ServeHTTP(w, r)
		})
	}

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MetricsResponse is the body of GET /api/v1/metrics/{category}.
type MetricsResponse struct {
	Category  string               `json:"category"`
	Assets    int                  `json:"assets"`
	Available []metrics.Definition `json:"available"`
	DefaultX  string               `json:"default_x,omitempty"`
	DefaultY  string               `json:"default_y,omitempty"`
}

// ThemeRequest is the body for POST /api/v1/theme.
type ThemeRequest struct {
	Dark *bool `json:"dark"`
}

// ThemeResponse reports the active theme.
type ThemeResponse struct {
	Dark    bool `json:"dark"`
	Changed bool `json:"changed"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"version":  Version,
			"theme":    s.themes.Current().Name(),
			"sessions": s.wsHub.ClientCount(),
			"charts":   s.history.Registry().Len(),
			"time":     time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	category := models.Category(strings.ToLower(chi.URLParam(r, "category")))
	records, ok := s.loadRecords(w, r, category)
	if !ok {
		return
	}

	available := s.catalog.ListAvailable(records, category)
	resp := MetricsResponse{
		Category:  string(category),
		Assets:    len(records),
		Available: available,
	}
	if resp.Available == nil {
		resp.Available = []metrics.Definition{}
	}
	if x, y, ok := metrics.DefaultAxes(available); ok {
		resp.DefaultX, resp.DefaultY = x.Key, y.Key
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ThemeResponse{Dark: s.themes.Dark()}})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dark == nil {
		writeError(w, http.StatusBadRequest, `body must be {"dark": true|false}`)
		return
	}

	changed := s.themes.Set(*req.Dark)
	if changed {
		s.wsHub.Broadcast(WSMessage{Type: MsgTheme, Data: ThemeResponse{Dark: *req.Dark, Changed: true}})
		s.log.Info().Str("theme", s.themes.Current().Name()).Msg("theme switched")
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ThemeResponse{Dark: *req.Dark, Changed: changed}})
}

// loadRecords fetches a category and writes the error response itself when
// that fails.
func (s *Server) loadRecords(w http.ResponseWriter, r *http.Request, category models.Category) ([]models.AssetRecord, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	records, err := s.assets.ListAssets(ctx, category)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, datasource.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, datasource.ErrRateLimited):
			status = http.StatusTooManyRequests
		}
		s.log.Warn().Err(err).Str("category", string(category)).Msg("asset fetch failed")
		writeError(w, status, err.Error())
		return nil, false
	}
	return records, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
