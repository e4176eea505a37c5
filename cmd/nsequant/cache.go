package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsequant/internal/classify"
	"github.com/seenimoa/nsequant/internal/store"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// --- Cache Commands ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Build, inspect or clear the price and classification caches",
	Long: `Caches are never refreshed automatically. After new bhavcopy or index
files arrive, run "nsequant cache clear" followed by "nsequant cache build".`,
}

var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse raw files and write both caches",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		st := store.New(store.OptionsFromConfig(cfg.Data, logger))
		defer st.Close()

		info, err := st.BuildCache(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("✅ Price cache: %s (%s)\n", info.Path, utils.FormatBytes(info.SizeBytes))

		clsOpts := classify.OptionsFromConfig(cfg.Data, logger)
		if err := classify.ClearCache(clsOpts); err != nil {
			return err
		}
		ix, err := classify.Load(clsOpts)
		if err != nil {
			return err
		}
		stats := ix.Stats()
		if classify.CacheExists(clsOpts) {
			fmt.Printf("✅ Classification cache: %s (%d indices, %d symbols)\n",
				clsOpts.CachePath(), stats.Indices, stats.Symbols)
		} else {
			fmt.Println("⚠️  Classification cache not written: no index or sector files found")
		}
		fmt.Printf("   Done in %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache files",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(store.OptionsFromConfig(cfg.Data, logger))
		fmt.Printf("Price cache:          %s\n", describeCache(st.CacheStatus()))

		clsOpts := classify.OptionsFromConfig(cfg.Data, logger)
		status := "not built"
		if classify.CacheExists(clsOpts) {
			status = clsOpts.CachePath()
		}
		fmt.Printf("Classification cache: %s\n", status)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete both caches so the next load re-reads raw files",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(store.OptionsFromConfig(cfg.Data, logger))
		if err := st.ClearCache(); err != nil {
			return err
		}
		if err := classify.ClearCache(classify.OptionsFromConfig(cfg.Data, logger)); err != nil {
			return err
		}
		fmt.Println("🗑️  Caches cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheBuildCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
