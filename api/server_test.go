package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/config"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/datasource"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type fakeAssets struct {
	data map[models.Category][]models.AssetRecord
	err  error
}

func (f *fakeAssets) Name() string { return "fake" }

func (f *fakeAssets) ListAssets(_ context.Context, category models.Category) ([]models.AssetRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	recs, ok := f.data[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, datasource.ErrNotFound)
	}
	return recs, nil
}

type fakeHistory struct {
	calls   atomic.Int32
	samples []models.PriceSample
	err     error
}

func (f *fakeHistory) FetchHistory(_ context.Context, _, _, _ string) ([]models.PriceSample, error) {
	f.calls.Add(1)
	return f.samples, f.err
}

func trackingRecords() []models.AssetRecord {
	return []models.AssetRecord{
		models.NewAssetRecord("AAPL", "Apple", map[string]float64{"pe_ratio": 29.1, "profit_margin": 0.25, "price": 187.4}),
		models.NewAssetRecord("MSFT", "Microsoft", map[string]float64{"pe_ratio": 35.2, "profit_margin": 0.36, "price": 402.1}),
		models.NewAssetRecord("KO", "Coca-Cola", map[string]float64{"pe_ratio": 24.0, "profit_margin": 0.22, "price": 60.3}),
	}
}

func testHistory() *fakeHistory {
	return &fakeHistory{samples: []models.PriceSample{
		{Date: "2024-01-02", Close: "185.6"},
		{Date: "2024-01-03", Close: "184.2"},
		{Date: "2024-01-04", Close: "181.9"},
	}}
}

func newTestServer(t *testing.T, assets *fakeAssets, history *fakeHistory) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.History.PollIntervalMS = 1
	srv := NewServer(cfg, Deps{Assets: assets, History: history, Logger: zerolog.Nop()})
	t.Cleanup(srv.Close)
	return srv
}

func defaultServer(t *testing.T) *Server {
	t.Helper()
	return newTestServer(t, &fakeAssets{data: map[models.Category][]models.AssetRecord{
		models.CategoryTracking:  trackingRecords(),
		models.CategoryPortfolio: {},
		models.CategoryArgentina: {models.NewAssetRecord("GGAL", "Galicia", nil)},
	}}, testHistory())
}

func do(t *testing.T, srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func assertPNG(t *testing.T, data []byte, width, height int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, width, img.Bounds().Dx())
	assert.Equal(t, height, img.Bounds().Dy())
}

// ════════════════════════════════════════════════════════════════════
// Health / catalog
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := defaultServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "light", data["theme"])
	}
}

func TestMetricsListsAvailable(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/metrics/Tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got MetricsResponse
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, "tracking", got.Category)
	assert.Equal(t, 3, got.Assets)
	assert.Len(t, got.Available, 3)
	assert.Equal(t, "pe_ratio", got.DefaultX)
	assert.Equal(t, "profit_margin", got.DefaultY)
}

func TestMetricsEmptyCategory(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/metrics/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got MetricsResponse
	decodeEnvelope(t, rec, &got)
	assert.Empty(t, got.Available)
	assert.Empty(t, got.DefaultX)
}

func TestLoadErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", datasource.ErrNotFound, http.StatusNotFound},
		{"rate limited", &datasource.ErrHTTP{StatusCode: 429, Status: "429 Too Many Requests"}, http.StatusTooManyRequests},
		{"transport", fmt.Errorf("connection refused"), http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeAssets{err: tc.err}, testHistory())
			rec := do(t, srv, http.MethodGet, "/api/v1/metrics/tracking", "")
			assert.Equal(t, tc.want, rec.Code)
			assert.False(t, decodeResponse(t, rec).Success)
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Chart images
// ════════════════════════════════════════════════════════════════════

func TestTreemapImage(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/charts/tracking/treemap?metric=price&width=640", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "chart", rec.Header().Get("X-Chart-State"))
	assertPNG(t, rec.Body.Bytes(), 640, 400)
}

func TestTreemapSVG(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/charts/tracking/treemap?format=svg&dark=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestTreemapPlaceholders(t *testing.T) {
	srv := defaultServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/charts/portfolio/treemap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_data", rec.Header().Get("X-Chart-State"))

	rec = do(t, srv, http.MethodGet, "/api/v1/charts/argentina/treemap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_metrics", rec.Header().Get("X-Chart-State"))
}

func TestChartParamValidation(t *testing.T) {
	srv := defaultServer(t)
	for _, target := range []string{
		"/api/v1/charts/tracking/treemap?width=0",
		"/api/v1/charts/tracking/treemap?width=abc",
		"/api/v1/charts/tracking/treemap?width=99999",
		"/api/v1/charts/tracking/treemap?dark=maybe",
		"/api/v1/charts/tracking/treemap?format=gif",
		"/api/v1/charts/tracking/treemap?metric=nope",
		"/api/v1/charts/tracking/scatter?x=nope",
		"/api/v1/charts/tracking/scatter?px=a&py=b",
	} {
		rec := do(t, srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestUnknownCategoryIs404(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/charts/bonds/scatter", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScatterImage(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/charts/tracking/scatter?x=price&y=pe_ratio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chart", rec.Header().Get("X-Chart-State"))
	assert.Empty(t, rec.Header().Get("X-Hovered-Ticker"))
	assertPNG(t, rec.Body.Bytes(), 800, 500)
}

func TestScatterPointerFarFromPointsHoversNothing(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/charts/tracking/scatter?px=0&py=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Hovered-Ticker"))
}

func TestHistoryImage(t *testing.T) {
	history := testHistory()
	srv := newTestServer(t, &fakeAssets{data: map[models.Category][]models.AssetRecord{
		models.CategoryTracking: trackingRecords(),
	}}, history)

	rec := do(t, srv, http.MethodGet, "/api/v1/history/aapl?period=6mo&category=tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chart", rec.Header().Get("X-Chart-State"))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, history.calls.Load())

	// Request-scoped charts are disposed once served.
	assert.Zero(t, srv.history.Registry().Len())
}

func TestHistoryStates(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		srv := newTestServer(t, &fakeAssets{}, &fakeHistory{})
		rec := do(t, srv, http.MethodGet, "/api/v1/history/AAPL", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no_data", rec.Header().Get("X-Chart-State"))
		assertPNG(t, rec.Body.Bytes(), 800, 400)
	})

	t.Run("transport error", func(t *testing.T) {
		srv := newTestServer(t, &fakeAssets{}, &fakeHistory{err: fmt.Errorf("boom")})
		rec := do(t, srv, http.MethodGet, "/api/v1/history/AAPL", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "error", rec.Header().Get("X-Chart-State"))
	})
}

// ════════════════════════════════════════════════════════════════════
// Theme / config
// ════════════════════════════════════════════════════════════════════

func TestThemeSwitch(t *testing.T) {
	srv := defaultServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/theme", `{"dark": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got ThemeResponse
	decodeEnvelope(t, rec, &got)
	assert.True(t, got.Dark)
	assert.True(t, got.Changed)

	rec = do(t, srv, http.MethodPost, "/api/v1/theme", `{"dark": true}`)
	decodeEnvelope(t, rec, &got)
	assert.False(t, got.Changed, "setting the same mode is not a change")

	rec = do(t, srv, http.MethodGet, "/api/v1/theme", "")
	decodeEnvelope(t, rec, &got)
	assert.True(t, got.Dark)
}

func TestThemeSwitchRejectsBadBody(t *testing.T) {
	srv := defaultServer(t)
	for _, body := range []string{`{}`, `not json`, `{"dark": "yes"}`} {
		rec := do(t, srv, http.MethodPost, "/api/v1/theme", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestConfigHidesAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.APIKey = "super-secret-key-123"
	srv := NewServer(cfg, Deps{Assets: &fakeAssets{}, History: testHistory(), Logger: zerolog.Nop()})
	t.Cleanup(srv.Close)

	rec := do(t, srv, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret-key-123")

	rec = do(t, srv, http.MethodGet, "/api/v1/config/keys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var keys []config.KeyStatus
	decodeEnvelope(t, rec, &keys)
	require.Len(t, keys, 1)
	assert.True(t, keys[0].IsSet)
	assert.Equal(t, "sup...123", keys[0].Masked)
}

// ════════════════════════════════════════════════════════════════════
// Dashboard / static
// ════════════════════════════════════════════════════════════════════

func TestDashboardPage(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/dashboard/tracking?metric=price&dark=true&ticker=msft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "dark", doc.Find("body").AttrOr("class", ""))
	assert.Equal(t, "price", doc.Find("#tracking-treemap-metric option[selected]").AttrOr("value", ""))
	assert.Equal(t, "MSFT", doc.Find("#tracking-history-ticker option[selected]").AttrOr("value", ""))
	assert.Equal(t, 3, doc.Find("#tracking-metrics-table tr[data-ticker]").Length())
}

func TestRootRedirectsToTracking(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard/tracking", rec.Header().Get("Location"))
}

func TestStaticScript(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/static/apertura.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WebSocket")
}

// ════════════════════════════════════════════════════════════════════
// WebSocket render sessions
// ════════════════════════════════════════════════════════════════════

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialSession(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": typ, "data": data}))
}

func next(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var msg wsFrame
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// collectFrames reads until every named chart has delivered a frame that is
// not a loading frame.
func collectFrames(t *testing.T, conn *websocket.Conn, charts ...string) map[string]Frame {
	t.Helper()
	got := make(map[string]Frame)
	for len(got) < len(charts) {
		msg := next(t, conn)
		if msg.Type != MsgFrame {
			continue
		}
		var f Frame
		require.NoError(t, json.Unmarshal(msg.Data, &f))
		if f.State == "loading" {
			continue
		}
		got[f.Chart] = f
	}
	return got
}

func openSession(t *testing.T, conn *websocket.Conn) map[string]Frame {
	t.Helper()
	send(t, conn, MsgOpen, OpenRequest{Category: "tracking", Width: 600})
	return collectFrames(t, conn, ChartTreemap, ChartScatter, ChartHistory)
}

func TestSessionOpenPushesAllCharts(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)

	frames := openSession(t, conn)
	for _, name := range []string{ChartTreemap, ChartScatter, ChartHistory} {
		f := frames[name]
		assert.Equal(t, "chart", f.State, name)
		assert.Equal(t, "png", f.Format, name)
		assert.Equal(t, 600, f.Width, name)

		raw, err := base64.StdEncoding.DecodeString(f.Image)
		require.NoError(t, err)
		assertPNG(t, raw, f.Width, f.Height)
	}

	assert.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, srv.history.Registry().Len())
}

func TestSessionRequiresOpen(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)

	send(t, conn, MsgPointer, PointerRequest{X: 10, Y: 10})
	msg := next(t, conn)
	assert.Equal(t, MsgError, msg.Type)
}

func TestSessionPointerLeaveWithoutHoverPushesNothing(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	send(t, conn, MsgPointer, PointerRequest{Leave: true})
	send(t, conn, MsgPing, nil)
	assert.Equal(t, MsgPong, next(t, conn).Type)
}

func TestSessionResizeRepaints(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	send(t, conn, MsgResize, ResizeRequest{Width: 720})
	frames := collectFrames(t, conn, ChartTreemap, ChartScatter, ChartHistory)
	for name, f := range frames {
		assert.Equal(t, 720, f.Width, name)
	}
}

func TestSessionSmallResizeOnlyMovesHistory(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	// Within the 10px threshold the canvas charts stay as they are.
	send(t, conn, MsgResize, ResizeRequest{Width: 605})
	msg := next(t, conn)
	require.Equal(t, MsgFrame, msg.Type)
	var f Frame
	require.NoError(t, json.Unmarshal(msg.Data, &f))
	assert.Equal(t, ChartHistory, f.Chart)
	assert.Equal(t, 605, f.Width)
}

func TestSessionSelectRejectsUnavailableMetric(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	send(t, conn, MsgSelect, SelectRequest{X: "dividend_yield"})
	assert.Equal(t, MsgError, next(t, conn).Type)

	send(t, conn, MsgSelect, SelectRequest{Treemap: "price"})
	frames := collectFrames(t, conn, ChartTreemap)
	assert.Equal(t, "chart", frames[ChartTreemap].State)
}

func TestSessionThemeBroadcast(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	rec := do(t, srv, http.MethodPost, "/api/v1/theme", `{"dark": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sawTheme := false
	frames := make(map[string]bool)
	for !sawTheme || len(frames) < 3 {
		msg := next(t, conn)
		switch msg.Type {
		case MsgTheme:
			sawTheme = true
		case MsgFrame:
			var f Frame
			require.NoError(t, json.Unmarshal(msg.Data, &f))
			if f.State != "loading" {
				frames[f.Chart] = true
			}
		}
	}
}

func TestSessionThemeMessageRepaintsOnlyThisSession(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)

	send(t, conn, MsgTheme, SessionThemeRequest{Dark: true})
	frames := collectFrames(t, conn, ChartTreemap, ChartScatter, ChartHistory)
	for name, f := range frames {
		assert.Equal(t, "chart", f.State, name)
	}
	assert.False(t, srv.themes.Current().Dark)
}

func TestSessionCloseDisposesHistory(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)
	openSession(t, conn)
	require.Equal(t, 1, srv.history.Registry().Len())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return srv.history.Registry().Len() == 0 && srv.Hub().ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnknownMessageType(t *testing.T) {
	srv := defaultServer(t)
	conn := dialSession(t, srv)

	send(t, conn, "subscribe", map[string]string{"ticker": "AAPL"})
	assert.Equal(t, MsgError, next(t, conn).Type)
}
