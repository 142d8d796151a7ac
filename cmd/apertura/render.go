package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/canvas"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/datasource"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/metrics"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/resize"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics [category]",
	Short: "Print the metric table of an asset set",
	Long: `Print every asset of a category with its formatted metric values.

Examples:
  apertura metrics tracking
  apertura metrics crypto --dark
  apertura metrics portfolio --data-dir ./testdata`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, records, err := loadCategory(cmd, args[0])
		if err != nil {
			return err
		}

		md := metricsMarkdown(records, metrics.Default().ListAvailable(records, category), category)
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(currentTheme().Name()),
			glamour.WithWordWrap(160),
		)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("render table: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

// metricsMarkdown builds a markdown table of records and their available metrics.
func metricsMarkdown(records []models.AssetRecord, available []metrics.Definition, category models.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.ToUpper(string(category[:1]))+string(category[1:]))
	if len(records) == 0 {
		b.WriteString("No data available\n")
		return b.String()
	}
	if len(available) == 0 {
		b.WriteString("No metrics available\n")
		return b.String()
	}

	b.WriteString("| Ticker | Name |")
	for _, d := range available {
		b.WriteString(" " + d.Label + " |")
	}
	b.WriteString("\n|---|---|")
	for range available {
		b.WriteString("---:|")
	}
	b.WriteString("\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s |", escapeCell(rec.Ticker), escapeCell(rec.Name))
		for _, d := range available {
			b.WriteString(" " + d.FormatRecord(rec) + " |")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n_%d assets_\n", len(records))
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// --- Treemap Command ---

var treemapCmd = &cobra.Command{
	Use:   "treemap [category]",
	Short: "Render the metric treemap of an asset set to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, records, err := loadCategory(cmd, args[0])
		if err != nil {
			return err
		}
		available := metrics.Default().ListAvailable(records, category)
		defX, _, hasMetrics := metrics.DefaultAxes(available)

		key, _ := cmd.Flags().GetString("metric")
		metric, err := pickMetric(available, key, defX)
		if err != nil {
			return err
		}

		rc := cfg.Charts.Renderer()
		rec := canvas.NewRecorder(chartWidth(cmd), rc.TreemapHeight)
		th := currentTheme()
		if !hasMetrics && len(records) > 0 {
			charts.DrawNoMetrics(rec, th)
		} else {
			layout := rc.RenderTreemap(rec, records, metric, category, th)
			logger.Debug().Int("cells", len(layout.Cells)).Bool("no_data", layout.NoData).Msg("treemap laid out")
		}
		return writeRecorder(cmd, rec, string(category)+"-treemap")
	},
}

// --- Scatter Command ---

var scatterCmd = &cobra.Command{
	Use:   "scatter [category]",
	Short: "Render the two-metric scatter plot of an asset set to a file",
	Long: `Render the scatter plot of an asset set. --hover renders the frame a
pointer over that ticker's point would produce.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, records, err := loadCategory(cmd, args[0])
		if err != nil {
			return err
		}
		available := metrics.Default().ListAvailable(records, category)
		defX, defY, hasMetrics := metrics.DefaultAxes(available)

		xKey, _ := cmd.Flags().GetString("x")
		yKey, _ := cmd.Flags().GetString("y")
		xMetric, err := pickMetric(available, xKey, defX)
		if err != nil {
			return err
		}
		yMetric, err := pickMetric(available, yKey, defY)
		if err != nil {
			return err
		}

		rc := cfg.Charts.Renderer()
		rec := canvas.NewRecorder(chartWidth(cmd), rc.ScatterHeight)
		th := currentTheme()
		if !hasMetrics && len(records) > 0 {
			charts.DrawNoMetrics(rec, th)
			return writeRecorder(cmd, rec, string(category)+"-scatter")
		}

		sc := rc.RenderScatter(rec, records, xMetric, yMetric, category, th)
		if hover, _ := cmd.Flags().GetString("hover"); hover != "" {
			hover = utils.NormalizeTicker(hover)
			found := false
			for _, p := range sc.Points() {
				if utils.NormalizeTicker(p.Ticker) == hover {
					sc.PointerMove(p.PX, p.PY)
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("ticker %s is not plotted", hover)
			}
		}
		return writeRecorder(cmd, rec, string(category)+"-scatter")
	},
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [ticker]",
	Short: "Render a ticker's price history chart to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		period, _ := cmd.Flags().GetString("period")
		if period == "" {
			period = cfg.History.DefaultPeriod
		}

		var snapshot models.AssetRecord
		if cat, _ := cmd.Flags().GetString("category"); cat != "" {
			if _, records, err := loadCategory(cmd, cat); err == nil {
				for _, rec := range records {
					if utils.NormalizeTicker(rec.Ticker) == ticker {
						snapshot = rec
						break
					}
				}
			}
		}

		th := currentTheme()
		adapter := pricehistory.NewAdapter(
			pricehistory.StaticLoader(pricehistory.NewGoChartLibrary(cfg.History.LibraryVersion)),
			datasource.NewHistorySource(cfg.Backend.Endpoint(), cfg.Backend.RateLimitPerSec),
			pricehistory.NewRegistry(),
			resize.New(0),
			cfg.History.Options(cfg.Charts.HistoryHeight),
			logger,
		)
		panel := pricehistory.NewPanel("cli", chartWidth(cmd), cfg.Charts.HistoryHeight, th)
		defer adapter.Dispose(panel.ID())

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Backend.TimeoutSec)*time.Second)
		defer cancel()
		if _, err := adapter.Render(ctx, panel, ticker, snapshot, period, th); err != nil {
			// The panel now shows the message; write it anyway and report.
			logger.Warn().Err(err).Str("ticker", ticker).Msg("history not rendered")
		}

		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return writeOutput(cmd, ticker+"-history", format, func(w io.Writer) error {
			return panel.Render(format, w)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{treemapCmd, scatterCmd, historyCmd} {
		c.Flags().StringP("out", "o", "", "output file (default <name>.<format>, - for stdout)")
		c.Flags().String("format", "png", "image format (png, svg)")
		c.Flags().Int("width", 0, "surface width in pixels (default from config)")
	}
	treemapCmd.Flags().String("metric", "", "metric key sizing the cells (default P/E when available)")
	scatterCmd.Flags().String("x", "", "X axis metric key")
	scatterCmd.Flags().String("y", "", "Y axis metric key")
	scatterCmd.Flags().String("hover", "", "render with this ticker's point hovered")
	historyCmd.Flags().String("period", "", "history period (1mo, 3mo, 6mo, 1y, 2y, 5y, max)")
	historyCmd.Flags().String("category", "", "asset set used for the chart title")
}

// --- Helpers ---

func loadCategory(cmd *cobra.Command, name string) (models.Category, []models.AssetRecord, error) {
	category := models.Category(strings.ToLower(strings.TrimSpace(name)))
	if category == "" {
		return "", nil, fmt.Errorf("category is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Backend.TimeoutSec)*time.Second)
	defer cancel()
	records, err := assetSource(cmd).ListAssets(ctx, category)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", category, err)
	}
	return category, records, nil
}

// pickMetric returns def for an empty key and rejects keys not available.
func pickMetric(available []metrics.Definition, key string, def metrics.Definition) (metrics.Definition, error) {
	if key == "" {
		return def, nil
	}
	for _, d := range available {
		if d.Key == key {
			return d, nil
		}
	}
	return metrics.Definition{}, fmt.Errorf("metric %q is not available", key)
}

func chartWidth(cmd *cobra.Command) int {
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		return w
	}
	return cfg.Charts.Width
}

func outputFormat(cmd *cobra.Command) (canvas.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return canvas.ParseFormat(raw)
}

func writeRecorder(cmd *cobra.Command, rec *canvas.Recorder, name string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	return writeOutput(cmd, name, format, func(w io.Writer) error {
		return canvas.Encode(rec, format, w)
	})
}

func writeOutput(cmd *cobra.Command, name string, format canvas.Format, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("out")
	if path == "-" {
		return write(os.Stdout)
	}
	if path == "" {
		path = name + "." + string(format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "🖼️  wrote %s\n", path)
	return nil
}
