package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/resize"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// Chart names used in frames and as resize container ids.
const (
	ChartTreemap = "treemap"
	ChartScatter = "scatter"
	ChartHistory = "history"
)

// sessionTimeout bounds one data load or history render.
const sessionTimeout = 30 * time.Second

// ============================================================
// Session messages
// ============================================================

// OpenRequest starts (or restarts) a session on a category.
type OpenRequest struct {
	Category string `json:"category"`
	Width    int    `json:"width"`
	Dark     *bool  `json:"dark,omitempty"`
	Treemap  string `json:"treemap,omitempty"`
	X        string `json:"x,omitempty"`
	Y        string `json:"y,omitempty"`
	Ticker   string `json:"ticker,omitempty"`
	Period   string `json:"period,omitempty"`
}

// PointerRequest is a pointer position over the scatter surface.
type PointerRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Leave bool    `json:"leave,omitempty"`
}

// ResizeRequest reports a new container width.
type ResizeRequest struct {
	Width int `json:"width"`
}

// SessionThemeRequest switches this session between light and dark.
type SessionThemeRequest struct {
	Dark bool `json:"dark"`
}

// SelectRequest changes selections. Empty fields are left unchanged.
type SelectRequest struct {
	Treemap string `json:"treemap,omitempty"`
	X       string `json:"x,omitempty"`
	Y       string `json:"y,omitempty"`
	Ticker  string `json:"ticker,omitempty"`
	Period  string `json:"period,omitempty"`
}

// Frame is one encoded chart image pushed to the client.
type Frame struct {
	Chart   string `json:"chart"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Image   string `json:"image"` // base64
	State   string `json:"state"`
	Hovered string `json:"hovered,omitempty"`
}

// ============================================================
// Session
// ============================================================

// Session is the render state of one connected page. Its charts are
// repainted on pointer, resize, theme and selection events and every
// repaint is pushed as a Frame.
type Session struct {
	id     uuid.UUID
	srv    *Server
	client *WSClient
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	opened     bool
	category   models.Category
	records    []models.AssetRecord
	available  []metrics.Definition
	hasMetrics bool
	treemapKey string
	xKey       string
	yKey       string
	ticker     string
	period     string
	theme      theme.Theme

	treemapRec *canvas.Recorder
	scatterRec *canvas.Recorder
	scatter    *charts.Scatter
	panel      *pricehistory.Panel
	resizer    *resize.Coordinator
	unsub      func()
}

func newSession(srv *Server, client *WSClient) *Session {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		id:      id,
		srv:     srv,
		client:  client,
		log:     srv.log.With().Str("session", id.String()).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		theme:   srv.themes.Current(),
		resizer: resize.New(srv.cfg.Charts.ResizeThreshold),
	}
	// Subscribers run on the caller of Switch.Set; repaint elsewhere.
	sess.unsub = srv.themes.Subscribe(func(th theme.Theme) {
		go sess.Theme(th)
	})
	return sess
}

// ID returns the session id.
func (s *Session) ID() string { return s.id.String() }

// Handle dispatches one client message.
func (s *Session) Handle(msg inboundMessage) {
	var err error
	switch msg.Type {
	case MsgOpen:
		var req OpenRequest
		if err = decodeData(msg.Data, &req); err == nil {
			err = s.Open(req)
		}
	case MsgPointer:
		var req PointerRequest
		if err = decodeData(msg.Data, &req); err == nil {
			err = s.Pointer(req)
		}
	case MsgResize:
		var req ResizeRequest
		if err = decodeData(msg.Data, &req); err == nil {
			err = s.Resize(req.Width)
		}
	case MsgTheme:
		var req SessionThemeRequest
		if err = decodeData(msg.Data, &req); err == nil {
			s.Theme(theme.Resolve(req.Dark))
		}
	case MsgSelect:
		var req SelectRequest
		if err = decodeData(msg.Data, &req); err == nil {
			err = s.Select(req)
		}
	case MsgPing:
		s.client.Send(WSMessage{Type: MsgPong})
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		s.log.Debug().Err(err).Str("type", msg.Type).Msg("session message rejected")
		s.client.Send(errorMessage(err.Error()))
	}
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}

// Open loads the category and renders all three charts.
func (s *Session) Open(req OpenRequest) error {
	category := models.Category(strings.ToLower(strings.TrimSpace(req.Category)))
	if category == "" {
		return fmt.Errorf("category is required")
	}

	ctx, cancel := context.WithTimeout(s.ctx, sessionTimeout)
	defer cancel()
	records, err := s.srv.assets.ListAssets(ctx, category)
	if err != nil {
		return fmt.Errorf("load %s: %w", category, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	width := req.Width
	if width <= 0 || width > maxChartWidth {
		width = s.srv.render.Width
	}
	if req.Dark != nil {
		s.theme = theme.Resolve(*req.Dark)
	}

	s.category = category
	s.records = records
	s.available = s.srv.catalog.ListAvailable(records, category)
	_, _, s.hasMetrics = metrics.DefaultAxes(s.available)
	s.treemapKey, s.xKey, s.yKey = req.Treemap, req.X, req.Y
	s.ticker = utils.NormalizeTicker(req.Ticker)
	s.period = pricehistory.NormalizePeriod(req.Period)

	s.treemapRec = canvas.NewRecorder(width, s.srv.render.TreemapHeight)
	s.scatterRec = canvas.NewRecorder(width, s.srv.render.ScatterHeight)
	if s.panel == nil {
		s.panel = pricehistory.NewPanel(s.ID()+"/"+ChartHistory, width, s.srv.cfg.Charts.HistoryHeight, s.theme)
	} else {
		s.panel.SetWidth(width)
		s.panel.SetTheme(s.theme)
	}

	s.resizer.Observe(ChartTreemap, width, func(w int) {
		s.treemapRec.Resize(w, s.treemapRec.Height())
		s.paintTreemap()
	})
	s.resizer.Observe(ChartScatter, width, func(w int) {
		s.scatterRec.Resize(w, s.scatterRec.Height())
		s.paintScatter()
	})
	s.opened = true

	s.log.Info().Str("category", string(category)).Int("assets", len(records)).Int("width", width).Msg("session opened")
	s.paintTreemap()
	s.paintScatter()
	s.paintHistory()
	return nil
}

// Pointer forwards a pointer position to the scatter plot. A frame is
// pushed only when the hovered point changed.
func (s *Session) Pointer(req PointerRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return errNotOpen
	}
	if s.scatter == nil {
		return nil
	}

	var changed bool
	if req.Leave {
		changed = s.scatter.PointerLeave()
	} else {
		changed = s.scatter.PointerMove(req.X, req.Y)
	}
	if changed {
		s.pushScatter()
	}
	return nil
}

// Resize reports a new width for every container. Treemap and scatter
// repaint past the threshold; the retained history chart takes every change.
func (s *Session) Resize(width int) error {
	if width <= 0 || width > maxChartWidth {
		return fmt.Errorf("width must be in 1..%d", maxChartWidth)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return errNotOpen
	}

	s.resizer.Notify(ChartTreemap, width)
	s.resizer.Notify(ChartScatter, width)

	if s.panel.Width() != width {
		s.panel.SetWidth(width)
		s.srv.history.Resize(s.panel.ID(), width)
		s.pushHistory()
	}
	return nil
}

// Theme repaints every chart with th.
func (s *Session) Theme(th theme.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme.Dark == th.Dark && s.opened {
		return
	}
	s.theme = th
	if !s.opened {
		return
	}
	s.panel.SetTheme(th)
	s.paintTreemap()
	s.paintScatter()
	s.paintHistory()
}

// Select applies new selections and repaints the affected charts.
func (s *Session) Select(req SelectRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return errNotOpen
	}

	if req.Treemap != "" {
		if err := s.checkMetric(req.Treemap); err != nil {
			return err
		}
		s.treemapKey = req.Treemap
		s.paintTreemap()
	}
	if req.X != "" || req.Y != "" {
		for _, key := range []string{req.X, req.Y} {
			if key == "" {
				continue
			}
			if err := s.checkMetric(key); err != nil {
				return err
			}
		}
		if req.X != "" {
			s.xKey = req.X
		}
		if req.Y != "" {
			s.yKey = req.Y
		}
		s.paintScatter()
	}
	if req.Ticker != "" || req.Period != "" {
		if req.Ticker != "" {
			s.ticker = utils.NormalizeTicker(req.Ticker)
		}
		if req.Period != "" {
			s.period = pricehistory.NormalizePeriod(req.Period)
		}
		s.paintHistory()
	}
	return nil
}

// Close releases the session's charts and subscriptions.
func (s *Session) Close() {
	s.cancel()
	s.unsub()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel != nil {
		s.srv.history.Dispose(s.panel.ID())
	}
	s.resizer.Unobserve(ChartTreemap)
	s.resizer.Unobserve(ChartScatter)
	s.opened = false
	s.log.Debug().Msg("session closed")
}

var errNotOpen = errors.New("session is not open")

// ============================================================
// Painting (callers hold s.mu)
// ============================================================

func (s *Session) checkMetric(key string) error {
	for _, d := range s.available {
		if d.Key == key {
			return nil
		}
	}
	return fmt.Errorf("metric %q is not available for %s", key, s.category)
}

// metric resolves key against the available metrics, falling back to def.
func (s *Session) metric(key string, def metrics.Definition) metrics.Definition {
	for _, d := range s.available {
		if d.Key == key {
			return d
		}
	}
	return def
}

func (s *Session) paintTreemap() {
	state := "chart"
	if !s.hasMetrics && len(s.records) > 0 {
		charts.DrawNoMetrics(s.treemapRec, s.theme)
		state = "no_metrics"
	} else {
		defX, _, _ := metrics.DefaultAxes(s.available)
		m := s.metric(s.treemapKey, defX)
		if layout := s.srv.render.RenderTreemap(s.treemapRec, s.records, m, s.category, s.theme); layout.NoData {
			state = "no_data"
		}
	}
	s.pushRecorder(ChartTreemap, s.treemapRec, state, "")
}

func (s *Session) paintScatter() {
	if !s.hasMetrics && len(s.records) > 0 {
		s.scatter = nil
		charts.DrawNoMetrics(s.scatterRec, s.theme)
		s.pushRecorder(ChartScatter, s.scatterRec, "no_metrics", "")
		return
	}
	defX, defY, _ := metrics.DefaultAxes(s.available)
	s.scatter = s.srv.render.RenderScatter(s.scatterRec, s.records,
		s.metric(s.xKey, defX), s.metric(s.yKey, defY), s.category, s.theme)
	s.pushScatter()
}

func (s *Session) pushScatter() {
	state := "chart"
	if s.scatter.NoData() {
		state = "no_data"
	}
	var hovered string
	if p, ok := s.scatter.Hovered(); ok {
		hovered = p.Ticker
	}
	s.pushRecorder(ChartScatter, s.scatterRec, state, hovered)
}

// paintHistory renders the selected ticker, defaulting to the first record.
func (s *Session) paintHistory() {
	ticker := s.ticker
	if ticker == "" && len(s.records) > 0 {
		ticker = utils.NormalizeTicker(s.records[0].Ticker)
	}
	if ticker == "" {
		s.srv.history.Dispose(s.panel.ID())
		s.panel.ShowMessage(pricehistory.MessageNoData, pricehistory.NoDataMessage)
		s.pushHistory()
		return
	}

	var snapshot models.AssetRecord
	for _, rec := range s.records {
		if utils.NormalizeTicker(rec.Ticker) == ticker {
			snapshot = rec
			break
		}
	}

	s.panel.ShowMessage(pricehistory.MessageLoading, pricehistory.LoadingMessage)
	s.pushHistory()

	ctx, cancel := context.WithTimeout(s.ctx, sessionTimeout)
	defer cancel()
	if _, err := s.srv.history.Render(ctx, s.panel, ticker, snapshot, s.period, s.theme); err != nil {
		s.log.Debug().Err(err).Str("ticker", ticker).Msg("history render failed")
	}
	s.pushHistory()
}

func (s *Session) pushHistory() {
	kind, _, chart := s.panel.State()
	state := kind.String()
	if chart != nil {
		state = "chart"
	}

	var buf bytes.Buffer
	if err := s.panel.Render(canvas.FormatPNG, &buf); err != nil {
		s.client.Send(errorMessage("render history: " + err.Error()))
		return
	}
	s.push(Frame{
		Chart:  ChartHistory,
		Format: string(canvas.FormatPNG),
		Width:  s.panel.Width(),
		Height: s.panel.Height(),
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		State:  state,
	})
}

func (s *Session) pushRecorder(chart string, rec *canvas.Recorder, state, hovered string) {
	var buf bytes.Buffer
	if err := canvas.Encode(rec, canvas.FormatPNG, &buf); err != nil {
		s.client.Send(errorMessage("render " + chart + ": " + err.Error()))
		return
	}
	s.push(Frame{
		Chart:   chart,
		Format:  string(canvas.FormatPNG),
		Width:   rec.Width(),
		Height:  rec.Height(),
		Image:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		State:   state,
		Hovered: hovered,
	})
}

func (s *Session) push(f Frame) {
	if !s.client.Send(WSMessage{Type: MsgFrame, Data: f}) {
		s.log.Warn().Str("chart", f.Chart).Msg("frame dropped")
	}
}
