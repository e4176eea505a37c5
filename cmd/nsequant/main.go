// nsequant: deterministic quantitative analysis over NSE bhavcopy data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsequant/api"
	"github.com/seenimoa/nsequant/internal/classify"
	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/internal/logging"
	"github.com/seenimoa/nsequant/internal/screen"
	"github.com/seenimoa/nsequant/internal/store"
	"github.com/seenimoa/nsequant/internal/tools"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nsequant",
	Short: "nsequant: rankings and screens over NSE price history",
	Long: `nsequant loads NSE bhavcopy files into an in-memory store and answers
ranking and screening queries (top gainers, volume surges, breakouts,
52-week highs, risk metrics) with deterministic, size-tiered results.`,
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
		logger, logCloser, err = logging.NewConsole(cfg.Logging, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(gainersCmd)
	rootCmd.AddCommand(losersCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// app is the wired engine shared by the commands that query data.
type app struct {
	store    *store.Store
	index    *classify.Index
	engine   *screen.Engine
	registry *tools.Registry
}

func newApp() (*app, error) {
	ix, err := classify.Load(classify.OptionsFromConfig(cfg.Data, logger))
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}
	st := store.New(store.OptionsFromConfig(cfg.Data, logger))
	engine := screen.New(st, ix, cfg.Analysis, logger)
	reg := tools.NewRegistry()
	reg.SetBatchLimit(cfg.API.BatchLimit)
	tools.RegisterDefaults(reg, engine)
	return &app{store: st, index: ix, engine: engine, registry: reg}, nil
}

func (a *app) Close() error { return a.store.Close() }

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nsequant %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, data locations and cache state",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  nsequant: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Data root:     %s\n", cfg.Data.Root)
		fmt.Printf("    Load workers:  %d\n", cfg.Data.LoadWorkers)
		fmt.Printf("    Default top_n: %d (max %d)\n", cfg.Analysis.DefaultTopN, cfg.Analysis.MaxTopN)
		fmt.Printf("    Detail level:  %s\n", cfg.Analysis.DefaultDetail)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Data Locations:")
		for _, p := range config.CheckPaths(cfg) {
			status := "❌ missing"
			if p.Exists {
				status = "✅ present"
			}
			fmt.Printf("    %-25s %s  %s (%s)\n", p.Name+":", status, p.Path, p.Source)
		}
		fmt.Println()

		st := store.New(store.OptionsFromConfig(cfg.Data, logger))
		ci := st.CacheStatus()
		fmt.Println("  Caches:")
		fmt.Printf("    %-25s %s\n", "Price cache:", describeCache(ci))
		clsOpts := classify.OptionsFromConfig(cfg.Data, logger)
		clsStatus := "not built"
		if classify.CacheExists(clsOpts) {
			clsStatus = clsOpts.CachePath()
		}
		fmt.Printf("    %-25s %s\n", "Classification cache:", clsStatus)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func describeCache(ci store.CacheInfo) string {
	if !ci.Exists {
		return "not built"
	}
	return fmt.Sprintf("%s (%s, %s)", ci.Path, utils.FormatBytes(ci.SizeBytes), ci.ModTime.Format("2006-01-02 15:04"))
}
