package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsequant/internal/tools"
	"github.com/seenimoa/nsequant/pkg/models"
)

const bhavHeader = "SYMBOL, SERIES, DATE1, PREV_CLOSE, OPEN_PRICE, HIGH_PRICE, LOW_PRICE, LAST_PRICE, CLOSE_PRICE, AVG_PRICE, TTL_TRD_QNTY, TURNOVER_LACS, NO_OF_TRADES, DELIV_QTY, DELIV_PER\n"

// dataRoot writes two trading days of bhavcopy and a config file pointing at
// them, returning the config path.
func dataRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	days := map[string]string{
		"sec_bhavdata_full_10022025.csv": bhavHeader +
			"RELIANCE, EQ, 10-Feb-2025, 100, 100, 100, 100, 100, 100, 100, 1000, 1, 10, 500, 50.00\n" +
			"INFY, EQ, 10-Feb-2025, 200, 200, 200, 200, 200, 200, 200, 1000, 2, 10, 500, 50.00\n",
		"sec_bhavdata_full_11022025.csv": bhavHeader +
			"RELIANCE, EQ, 11-Feb-2025, 100, 110, 110, 110, 110, 110, 110, 1000, 1, 10, 500, 50.00\n" +
			"INFY, EQ, 11-Feb-2025, 200, 190, 190, 190, 190, 190, 190, 1000, 2, 10, 500, 50.00\n",
	}
	for name, content := range days {
		path := filepath.Join(root, "NSE_RawData", "202502", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfgPath := filepath.Join(root, "config.yaml")
	content := "data:\n  root: " + root + "\n  load_workers: 1\nlogging:\n  level: info\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

// execute runs the root command and returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	require.NoError(t, err, stderr.String())
	return stdout.String(), stderr.String()
}

// ── Machine-readable output ──

func TestToolsRunPrintsOnlyJSON(t *testing.T) {
	cfgPath := dataRoot(t)
	stdout, stderr := execute(t, "--config", cfgPath, "tools", "run", "get_top_gainers",
		"--args", `{"detail_level":"compact","start_date":"2025-02-10","end_date":"2025-02-11"}`)

	var res models.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res), "stdout must be a single JSON document:\n%s", stdout)
	assert.Equal(t, models.StatusOK, res.Status)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "RELIANCE", res.Results[0]["symbol"])
	assert.Equal(t, 10.0, res.Results[0]["return_pct"])

	assert.Contains(t, stderr, "price store loaded", "logs go to stderr")
}

func TestToolsListJSON(t *testing.T) {
	stdout, _ := execute(t, "--config", dataRoot(t), "tools", "list", "--json")

	var catalog tools.Catalog
	require.NoError(t, json.Unmarshal([]byte(stdout), &catalog), stdout)
	assert.Positive(t, catalog.Count)
	assert.Len(t, catalog.Tools, catalog.Count)
}
