package main

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/seenimoa/nsequant/internal/screen"
	"github.com/seenimoa/nsequant/internal/tools"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// --- Tools Commands ---

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List or run analysis tools by name",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered tool",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), a.registry.Describe())
		}
		for _, t := range a.registry.List() {
			fmt.Printf("  %-32s %s\n", t.Name, t.Description)
		}
		fmt.Printf("\n%d tools\n", a.registry.Count())
		return nil
	},
}

var toolsRunCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Run a tool with JSON arguments",
	Long: `Run a tool with JSON arguments and print the JSON result.

Examples:
  nsequant tools run get_top_gainers --args '{"top_n":5,"detail_level":"compact"}'
  nsequant tools run get_sector_top_performers --args '{"sector":"Banking"}'
  nsequant tools run analyze_stock --args '{"symbol":"RELIANCE","detail_level":"full"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("args")
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.registry.Execute(cmd.Context(), args[0], jsoniter.RawMessage(raw))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	toolsListCmd.Flags().Bool("json", false, "print the catalog with parameter schemas as JSON")
	toolsRunCmd.Flags().String("args", "", "tool arguments as a JSON object")
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsRunCmd)
}

// --- Gainers / Losers Commands ---

func queryFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "window start, YYYY-MM-DD")
	cmd.Flags().String("to", "", "window end, YYYY-MM-DD (default: last available date)")
	cmd.Flags().Int("top", 0, "number of results (default from config)")
	cmd.Flags().String("detail", "", "compact, standard or full")
	cmd.Flags().String("sector", "", "restrict to a sector")
	cmd.Flags().String("index", "", "restrict to an index")
	cmd.Flags().String("cap", "", "restrict to a market-cap bucket (LARGE, MID, SMALL)")
	cmd.Flags().StringSlice("symbols", nil, "restrict to these symbols")
	cmd.Flags().Bool("json", false, "print the raw JSON result")
}

func queryArgs(cmd *cobra.Command) tools.Args {
	var a tools.Args
	a.StartDate, _ = cmd.Flags().GetString("from")
	a.EndDate, _ = cmd.Flags().GetString("to")
	a.TopN, _ = cmd.Flags().GetInt("top")
	a.DetailLevel, _ = cmd.Flags().GetString("detail")
	a.Sector, _ = cmd.Flags().GetString("sector")
	a.Index, _ = cmd.Flags().GetString("index")
	a.MarketCap, _ = cmd.Flags().GetString("cap")
	a.Symbols, _ = cmd.Flags().GetStringSlice("symbols")
	return a
}

func runRanking(cmd *cobra.Command, tool string, a tools.Args) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := app.registry.Execute(cmd.Context(), tool, raw)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	printResult(out.(*models.Result))
	return nil
}

// printResult renders a ranking result as a table.
func printResult(res *models.Result) {
	if !res.OK() {
		fmt.Printf("⚠️  %s\n", res.Message)
		return
	}
	if res.Period != nil {
		fmt.Printf("%s  %s → %s (%d trading days)  universe: %s\n",
			res.Tool, res.Period.Start, res.Period.End, res.Period.TradingDays, res.Universe)
	}
	fmt.Printf("  %-4s %-14s %12s\n", "#", "SYMBOL", strings.ToUpper(res.Metric))
	for i, e := range res.Results {
		fmt.Printf("  %-4d %-14s %12s\n", i+1, e["symbol"], formatMetric(e[res.Metric]))
	}
	if len(res.Results) == 0 {
		fmt.Println("  (no symbols matched)")
	}
}

func formatMetric(v any) string {
	switch x := v.(type) {
	case float64:
		return utils.FormatPct(x)
	case nil:
		return "-"
	default:
		return fmt.Sprint(x)
	}
}

var gainersCmd = &cobra.Command{
	Use:   "gainers",
	Short: "Top gainers by percent return",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRanking(cmd, screen.ToolTopGainers, queryArgs(cmd))
	},
}

var losersCmd = &cobra.Command{
	Use:   "losers",
	Short: "Top losers by percent return",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRanking(cmd, screen.ToolTopLosers, queryArgs(cmd))
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Full metric picture, verdict and trend for one stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := tools.Args{Symbol: utils.NormalizeTicker(args[0]), DetailLevel: "full"}
		a.StartDate, _ = cmd.Flags().GetString("from")
		a.EndDate, _ = cmd.Flags().GetString("to")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		out, err := app.registry.Execute(cmd.Context(), screen.ToolAnalyzeStock, raw)
		if err != nil {
			return err
		}
		res := out.(*models.Result)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON || !res.OK() {
			return printJSON(cmd.OutOrStdout(), res)
		}

		e := res.Results[0]
		fmt.Printf("🔍 %s  %s → %s\n", a.Symbol, res.Period.Start, res.Period.End)
		fmt.Printf("   Verdict:     %s\n", e["verdict"])
		fmt.Printf("   Trend:       %s\n", e["trend"])
		fmt.Printf("   Return:      %s\n", formatMetric(e["return_pct"]))
		fmt.Printf("   Price:       %v → %v\n", e["price_start"], e["price_end"])
		fmt.Printf("   Volatility:  %s\n", formatMetric(e["volatility"]))
		fmt.Printf("   Delivery:    %s\n", formatMetric(e["avg_delivery_pct"]))
		fmt.Printf("   Drawdown:    %s\n", formatMetric(e["max_drawdown"]))
		fmt.Printf("   Range:       %v – %v\n", e["period_low"], e["period_high"])
		if vol, ok := e["volume"].(map[string]any); ok {
			avg, _ := vol["avg"].(float64)
			value, _ := vol["avg_value"].(float64)
			fmt.Printf("   Avg volume:  %s (%s traded/day)\n", utils.FormatVolume(int64(avg)), utils.FormatINRCompact(value))
		}
		return nil
	},
}

func init() {
	queryFlags(gainersCmd)
	queryFlags(losersCmd)
	analyzeCmd.Flags().String("from", "", "window start, YYYY-MM-DD")
	analyzeCmd.Flags().String("to", "", "window end, YYYY-MM-DD")
	analyzeCmd.Flags().Bool("json", false, "print the raw JSON result")
}
