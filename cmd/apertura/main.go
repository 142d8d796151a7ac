// Apertura: comparative analysis charts for market dashboards.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tcabrera23/Apertura-Market-sub000/api"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/config"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/datasource"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/logging"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/theme"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state set up by the root command.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apertura",
	Short: "Apertura: comparative analysis charts for market dashboards",
	Long: `Apertura renders the comparative analysis views of a market dashboard:
a metric treemap, a two-metric scatter plot with hover details and a price
history chart, for the tracking, portfolio, crypto and argentina asset sets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if cmd.Flags().Changed("dark") {
			cfg.Charts.Dark, _ = cmd.Flags().GetBool("dark")
		}
		logger = logging.Setup(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("dark", false, "render with the dark palette")
	rootCmd.PersistentFlags().String("data-dir", "", "read <category>-assets.json files from this directory instead of the backend")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(treemapCmd)
	rootCmd.AddCommand(scatterCmd)
	rootCmd.AddCommand(historyCmd)
}

// assetSource returns the file source when --data-dir is set, the backend otherwise.
func assetSource(cmd *cobra.Command) datasource.AssetLister {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		return datasource.FileSource{Dir: dir}
	}
	return datasource.NewAssetSource(cfg.Backend.Endpoint(), cfg.Backend.CacheTTL(), cfg.Backend.RateLimitPerSec)
}

func currentTheme() theme.Theme {
	return theme.Resolve(cfg.Charts.Dark)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Apertura %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := assetSource(cmd)

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Apertura System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Data source:   %s\n", src.Name())
		fmt.Printf("    Backend:       %s\n", cfg.Backend.BaseURL)
		fmt.Printf("    Theme:         %s\n", currentTheme().Name())
		fmt.Printf("    Chart width:   %dpx\n", cfg.Charts.Width)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Backend.TimeoutSec)*time.Second)
		defer cancel()
		records, errs := datasource.WarmUp(ctx, src, datasource.Categories)

		fmt.Println("  Asset Sets:")
		cats := append([]models.Category(nil), datasource.Categories...)
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, c := range cats {
			if err := errs[c]; err != nil {
				fmt.Printf("    %-12s ❌ %v\n", c, err)
				continue
			}
			fmt.Printf("    %-12s ✅ %d assets\n", c, len(records[c]))
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}

		api.Version = version
		srv := api.NewServer(cfg, api.Deps{
			Assets: assetSource(cmd),
			Logger: logger,
		})

		fmt.Printf("🌐 Starting Apertura API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
}
