// Package dashboard renders the comparative analysis page of a category:
// metric selectors for the treemap and the scatter axes, a price history
// panel and a table of formatted metric values. Chart images are served by
// the API; the page only links to them.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Page options and template model
// ════════════════════════════════════════════════════════════════════

// Options controls page generation. Empty metric keys, or keys that are not
// available for the data set, fall back to the default selections.
type Options struct {
	Category      models.Category
	Dark          bool
	TreemapMetric string
	XMetric       string
	YMetric       string
	Ticker        string
	Period        string
	APIBase       string // prefix of chart URLs (default "/api/v1")
	ScriptURL     string // client script (default "/static/apertura.js")
	Catalog       *metrics.Catalog
	Now           func() time.Time
}

// Option is one <option> of a selector.
type Option struct {
	Key      string
	Label    string
	Selected bool
}

// Row is one asset in the metrics table.
type Row struct {
	Ticker string
	Name   string
	Values []string
}

// PageData is the template model.
type PageData struct {
	Title       string
	Category    string
	ThemeName   string
	Dark        bool
	AssetCount  int
	GeneratedAt string
	APIBase     string
	ScriptURL   string

	NoData           bool
	NoDataMessage    string
	NoMetrics        bool
	NoMetricsMessage string

	TreemapOptions []Option
	XOptions       []Option
	YOptions       []Option
	Tickers        []Option
	Periods        []Option

	TreemapURL string
	ScatterURL string
	HistoryURL string

	Columns []string
	Rows    []Row
}

// ════════════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════════════

var pageTmpl = template.Must(template.New("dashboard").Parse(PageTemplate))

// Generate renders the page for the records of one category.
func Generate(records []models.AssetRecord, opts Options) (string, error) {
	data := Build(records, opts)

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// Build assembles the template model without rendering it.
func Build(records []models.AssetRecord, opts Options) PageData {
	opts = withDefaults(opts)
	category := strings.ToLower(string(opts.Category))

	data := PageData{
		Title:            titleFor(category),
		Category:         category,
		ThemeName:        theme.Resolve(opts.Dark).Name(),
		Dark:             opts.Dark,
		AssetCount:       len(records),
		GeneratedAt:      opts.Now().Format("02 Jan 2006, 15:04"),
		APIBase:          opts.APIBase,
		ScriptURL:        opts.ScriptURL,
		NoDataMessage:    charts.NoDataMessage,
		NoMetricsMessage: charts.NoMetricsMessage,
	}

	if len(records) == 0 {
		data.NoData = true
		return data
	}

	available := opts.Catalog.ListAvailable(records, opts.Category)
	defX, defY, ok := metrics.DefaultAxes(available)
	if !ok {
		data.NoMetrics = true
		return data
	}

	treemapKey := pick(available, opts.TreemapMetric, defX.Key)
	xKey := pick(available, opts.XMetric, defX.Key)
	yKey := pick(available, opts.YMetric, defY.Key)

	data.TreemapOptions = metricOptions(available, treemapKey)
	data.XOptions = metricOptions(available, xKey)
	data.YOptions = metricOptions(available, yKey)

	base := opts.APIBase + "/charts/" + url.PathEscape(category)
	data.TreemapURL = fmt.Sprintf("%s/treemap?metric=%s&dark=%t", base, url.QueryEscape(treemapKey), opts.Dark)
	data.ScatterURL = fmt.Sprintf("%s/scatter?x=%s&y=%s&dark=%t", base, url.QueryEscape(xKey), url.QueryEscape(yKey), opts.Dark)

	ticker := records[0].Ticker
	for _, rec := range records {
		if strings.EqualFold(rec.Ticker, opts.Ticker) {
			ticker = rec.Ticker
			break
		}
	}
	period := pricehistory.NormalizePeriod(opts.Period)
	for _, rec := range records {
		data.Tickers = append(data.Tickers, Option{Key: rec.Ticker, Label: rec.DisplayName(), Selected: rec.Ticker == ticker})
	}
	for _, p := range pricehistory.Periods() {
		data.Periods = append(data.Periods, Option{Key: p, Label: strings.ToUpper(p), Selected: p == period})
	}
	data.HistoryURL = fmt.Sprintf("%s/history/%s?period=%s&dark=%t", opts.APIBase, url.PathEscape(ticker), url.QueryEscape(period), opts.Dark)

	for _, def := range available {
		data.Columns = append(data.Columns, def.Label)
	}
	for _, rec := range records {
		row := Row{Ticker: rec.Ticker, Name: rec.DisplayName()}
		for _, def := range available {
			row.Values = append(row.Values, def.FormatRecord(rec))
		}
		data.Rows = append(data.Rows, row)
	}

	return data
}

func withDefaults(opts Options) Options {
	if opts.Catalog == nil {
		opts.Catalog = metrics.Default()
	}
	if opts.APIBase == "" {
		opts.APIBase = "/api/v1"
	}
	opts.APIBase = strings.TrimRight(opts.APIBase, "/")
	if opts.ScriptURL == "" {
		opts.ScriptURL = "/static/apertura.js"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

func titleFor(category string) string {
	if category == "" {
		return "Comparative Analysis"
	}
	return strings.ToUpper(category[:1]) + category[1:] + " - Comparative Analysis"
}

// pick returns want when it names an available metric, else fallback.
func pick(available []metrics.Definition, want, fallback string) string {
	for _, d := range available {
		if d.Key == want {
			return want
		}
	}
	return fallback
}

func metricOptions(available []metrics.Definition, selected string) []Option {
	out := make([]Option, 0, len(available))
	for _, d := range available {
		out = append(out, Option{Key: d.Key, Label: d.Label, Selected: d.Key == selected})
	}
	return out
}
