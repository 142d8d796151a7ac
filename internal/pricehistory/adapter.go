// Package pricehistory renders one asset's historical close prices through a
// retained chart library. It keeps the rest of the engine independent of
// the library's API version, owns the per-container chart registry and
// pushes container widths to live charts.
package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/resize"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// Container messages.
const (
	LoadingMessage      = "Loading chart..."
	LibraryErrorMessage = "Chart library failed to load"
	NoDataMessage       = "No data available for this period"
	transportPrefix     = "Error loading data: "
)

// HistorySource fetches the raw samples for a ticker. Implementations make
// exactly one request per call.
type HistorySource interface {
	FetchHistory(ctx context.Context, ticker, period, interval string) ([]models.PriceSample, error)
}

// Options configures an Adapter.
type Options struct {
	PollAttempts int
	PollInterval time.Duration
	Height       int
}

// DefaultOptions returns 5 polls at 500ms and a 400px chart.
func DefaultOptions() Options {
	return Options{
		PollAttempts: defaultPollAttempts,
		PollInterval: defaultPollInterval,
		Height:       400,
	}
}

// Adapter renders price history charts into containers.
type Adapter struct {
	load     LibraryLoader
	source   HistorySource
	registry *Registry
	resizer  *resize.Coordinator
	opts     Options
	log      zerolog.Logger

	mu  sync.Mutex
	lib Library
}

// NewAdapter creates an adapter. The registry and resize coordinator are
// owned by the caller so they can be shared with other components.
func NewAdapter(load LibraryLoader, source HistorySource, registry *Registry, resizer *resize.Coordinator, opts Options, log zerolog.Logger) *Adapter {
	if registry == nil {
		registry = NewRegistry()
	}
	if resizer == nil {
		resizer = resize.New(0)
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions().Height
	}
	return &Adapter{
		load:     load,
		source:   source,
		registry: registry,
		resizer:  resizer,
		opts:     opts,
		log:      log.With().Str("component", "pricehistory").Logger(),
	}
}

// Registry returns the adapter's chart registry.
func (a *Adapter) Registry() *Registry { return a.registry }

// Render replaces the chart for (container, ticker). Every outcome leaves
// the container showing either the new chart or a readable message:
//
//   - ErrLibraryUnavailable: the library did not load within the poll bound
//   - *TransportError: the history request failed
//   - ErrNoData: nothing plottable for the period
func (a *Adapter) Render(ctx context.Context, c Container, ticker string, snapshot models.AssetRecord, period string, th theme.Theme) (*Instance, error) {
	ticker = utils.NormalizeTicker(ticker)
	key := Key{Container: c.ID(), Ticker: ticker}
	log := a.log.With().Str("container", key.Container).Str("ticker", ticker).Logger()

	// Dispose first so a failed render never leaves the old chart behind.
	a.registry.DisposeContainer(key.Container)
	a.resizer.Unobserve(key.Container)
	c.ShowMessage(MessageLoading, LoadingMessage)

	lib, err := a.library(ctx)
	if err != nil {
		log.Error().Err(err).Msg("chart library unavailable")
		c.ShowMessage(MessageError, LibraryErrorMessage)
		return nil, err
	}

	period = NormalizePeriod(period)
	raw, err := a.source.FetchHistory(ctx, ticker, period, IntervalFor(period))
	if err != nil {
		log.Warn().Err(err).Str("period", period).Msg("history fetch failed")
		c.ShowMessage(MessageError, transportPrefix+err.Error())
		return nil, &TransportError{Ticker: ticker, Err: err}
	}

	points := Normalize(raw)
	if len(points) == 0 {
		log.Debug().Int("raw", len(raw)).Str("period", period).Msg("no plottable samples")
		c.ShowMessage(MessageNoData, NoDataMessage)
		return nil, ErrNoData
	}

	title := ticker
	if snapshot.Ticker != "" && utils.NormalizeTicker(snapshot.Ticker) == ticker {
		title = snapshot.DisplayName()
	}

	ch, err := lib.CreateChart(ChartOptions{Width: c.Width(), Height: a.opts.Height, Title: title, Theme: th})
	if err != nil {
		log.Error().Err(err).Msg("create chart failed")
		c.ShowMessage(MessageError, LibraryErrorMessage)
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}

	add, shape, err := probeSeries(ch)
	if err != nil {
		ch.Remove()
		log.Error().Err(err).Msg("series probe failed")
		c.ShowMessage(MessageError, LibraryErrorMessage)
		return nil, err
	}

	fill := th.Line
	fill.A = 64
	series, err := add(SeriesOptions{Name: ticker, LineColor: th.Line, FillColor: fill, LineWidth: 2})
	if err != nil {
		ch.Remove()
		log.Error().Err(err).Str("shape", string(shape)).Msg("add series failed")
		c.ShowMessage(MessageError, LibraryErrorMessage)
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}

	series.SetData(points)
	series.CreatePriceLine(PriceLine{
		Price:  points[0].Value,
		Title:  "Start: " + formatPrice(points[0].Value),
		Color:  th.Muted,
		Dashed: true,
	})
	c.Attach(ch)

	inst := &Instance{
		ID:      uuid.New(),
		Key:     key,
		Chart:   ch,
		Series:  series,
		Shape:   shape,
		Points:  len(points),
		Created: time.Now(),
	}
	a.registry.Replace(inst)

	// Retained charts take every width change; there is no repaint here.
	a.resizer.ObserveWithThreshold(key.Container, c.Width(), 0, func(width int) {
		ch.ApplyWidth(width)
	})

	log.Info().Str("shape", string(shape)).Int("points", len(points)).Str("period", period).Msg("price chart rendered")
	return inst, nil
}

// Resize pushes a new container width to its live chart. It reports
// whether a chart was resized.
func (a *Adapter) Resize(container string, width int) bool {
	return a.resizer.Notify(container, width)
}

// Dispose removes the chart in a container.
func (a *Adapter) Dispose(container string) {
	a.registry.DisposeContainer(container)
	a.resizer.Unobserve(container)
}

// library resolves the chart library once and reuses it afterwards.
func (a *Adapter) library(ctx context.Context) (Library, error) {
	a.mu.Lock()
	lib := a.lib
	a.mu.Unlock()
	if lib != nil {
		return lib, nil
	}
	if a.load == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrLibraryUnavailable)
	}

	lib, err := pollLibrary(ctx, a.load, a.opts.PollAttempts, a.opts.PollInterval)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.lib = lib
	a.mu.Unlock()
	return lib, nil
}

// IsNoData reports whether err is the empty-period outcome.
func IsNoData(err error) bool { return errors.Is(err, ErrNoData) }

func formatPrice(v float64) string {
	if d, ok := metrics.Default().Lookup("price"); ok {
		return d.Format(v)
	}
	return fmt.Sprintf("$%.2f", v)
}
