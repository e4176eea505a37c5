package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsequant/api"
)

// --- Serve Command (tool gateway) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP tool gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		if err := a.store.Load(cmd.Context()); err != nil {
			return err
		}
		av := a.store.AvailableRange()
		logger.Info("price data ready",
			"records", av.Records,
			"symbols", av.Symbols,
			"source", a.store.Source(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)

		fmt.Printf("🌐 nsequant gateway on http://%s (%d tools)\n", cfg.API.Addr(), a.registry.Count())
		srv := api.NewServer(cfg, a.engine, a.registry, logger)
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port override")
}
