package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	for _, e := range []string{"NSEQUANT_DATA_ROOT", "NSEQUANT_API_PORT", "NSEQUANT_LOGGING_LEVEL"} {
		os.Unsetenv(e)
	}
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Data defaults
	if cfg.Data.Root != "./data" {
		t.Errorf("Data.Root: got %q, want %q", cfg.Data.Root, "./data")
	}
	if cfg.Data.RawDir != "NSE_RawData" {
		t.Errorf("Data.RawDir: got %q, want %q", cfg.Data.RawDir, "NSE_RawData")
	}
	if cfg.Data.LoadWorkers != 8 {
		t.Errorf("Data.LoadWorkers: got %d, want 8", cfg.Data.LoadWorkers)
	}
	if len(cfg.Data.SeriesPriority) != 5 || cfg.Data.SeriesPriority[0] != "EQ" {
		t.Errorf("Data.SeriesPriority: got %v", cfg.Data.SeriesPriority)
	}
	if got := cfg.Data.CacheDir; got != filepath.Join("data", "cache") {
		t.Errorf("Data.CacheDir: got %q, want %q", got, filepath.Join("data", "cache"))
	}
	if got := cfg.Data.RawPath(); got != filepath.Join("data", "NSE_RawData") {
		t.Errorf("Data.RawPath(): got %q", got)
	}

	// Analysis defaults
	if cfg.Analysis.DefaultTopN != 10 {
		t.Errorf("Analysis.DefaultTopN: got %d, want 10", cfg.Analysis.DefaultTopN)
	}
	if cfg.Analysis.DefaultDetail != "standard" {
		t.Errorf("Analysis.DefaultDetail: got %q, want %q", cfg.Analysis.DefaultDetail, "standard")
	}
	if cfg.Analysis.MinValidClose != 0.5 {
		t.Errorf("Analysis.MinValidClose: got %f, want 0.5", cfg.Analysis.MinValidClose)
	}
	if cfg.Analysis.SurgeThreshold != 2.0 {
		t.Errorf("Analysis.SurgeThreshold: got %f, want 2.0", cfg.Analysis.SurgeThreshold)
	}
	if cfg.Analysis.SurgeRecentDays != 3 {
		t.Errorf("Analysis.SurgeRecentDays: got %d, want 3", cfg.Analysis.SurgeRecentDays)
	}
	if cfg.Analysis.Week52MinDays != 120 {
		t.Errorf("Analysis.Week52MinDays: got %d, want 120", cfg.Analysis.Week52MinDays)
	}

	// API defaults
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port: got %d, want 8090", cfg.API.Port)
	}
	if cfg.API.BatchLimit != 4 {
		t.Errorf("API.BatchLimit: got %d, want 4", cfg.API.BatchLimit)
	}
	if cfg.API.Addr() != "127.0.0.1:8090" {
		t.Errorf("API.Addr(): got %q", cfg.API.Addr())
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Logging.Output: got %q, want %q", cfg.Logging.Output, "stderr")
	}
	if !cfg.Logging.Compress {
		t.Error("Logging.Compress should be true by default")
	}
}

func TestDefaultMatchesLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Default()
	if def.Analysis != loaded.Analysis {
		t.Errorf("Default().Analysis = %+v, Load().Analysis = %+v", def.Analysis, loaded.Analysis)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NSEQUANT_DATA_ROOT", "/srv/nse")
	t.Setenv("NSEQUANT_API_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Data.Root != "/srv/nse" {
		t.Errorf("Data.Root: got %q, want %q", cfg.Data.Root, "/srv/nse")
	}
	if cfg.API.Port != 9191 {
		t.Errorf("API.Port: got %d, want 9191", cfg.API.Port)
	}
	if cfg.Data.CacheDir != "/srv/nse/cache" {
		t.Errorf("Data.CacheDir: got %q, want it to follow data.root", cfg.Data.CacheDir)
	}
}

func TestExplicitCacheDirKept(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NSEQUANT_DATA_ROOT", "/srv/nse")
	t.Setenv("NSEQUANT_DATA_CACHE_DIR", "/var/cache/nsequant")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Data.CacheDir != "/var/cache/nsequant" {
		t.Errorf("Data.CacheDir: got %q, want %q", cfg.Data.CacheDir, "/var/cache/nsequant")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
data:
  root: "/var/nse"
  load_workers: 2
  series_priority: ["EQ", "BE"]
analysis:
  default_top_n: 5
  default_detail: "compact"
  surge_threshold: 3.5
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Data.Root != "/var/nse" {
		t.Errorf("Data.Root: got %q, want %q", cfg.Data.Root, "/var/nse")
	}
	if cfg.Data.LoadWorkers != 2 {
		t.Errorf("Data.LoadWorkers: got %d, want 2", cfg.Data.LoadWorkers)
	}
	if len(cfg.Data.SeriesPriority) != 2 {
		t.Errorf("Data.SeriesPriority: got %v", cfg.Data.SeriesPriority)
	}
	if cfg.Analysis.DefaultTopN != 5 {
		t.Errorf("Analysis.DefaultTopN: got %d, want 5", cfg.Analysis.DefaultTopN)
	}
	if cfg.Analysis.DefaultDetail != "compact" {
		t.Errorf("Analysis.DefaultDetail: got %q, want %q", cfg.Analysis.DefaultDetail, "compact")
	}
	if cfg.Analysis.SurgeThreshold != 3.5 {
		t.Errorf("Analysis.SurgeThreshold: got %f, want 3.5", cfg.Analysis.SurgeThreshold)
	}
	// Untouched keys keep their defaults
	if cfg.Analysis.MaxTopN != 100 {
		t.Errorf("Analysis.MaxTopN: got %d, want 100", cfg.Analysis.MaxTopN)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no root", func(c *Config) { c.Data.Root = "" }, true},
		{"zero workers", func(c *Config) { c.Data.LoadWorkers = 0 }, true},
		{"top_n over max", func(c *Config) { c.Analysis.DefaultTopN = 500 }, true},
		{"unknown detail", func(c *Config) { c.Analysis.DefaultDetail = "verbose" }, true},
		{"zero surge window", func(c *Config) { c.Analysis.SurgeRecentDays = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ── CheckPaths ──

func TestCheckPaths(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "NSE_RawData"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Data.Root = root
	cfg.Data.CacheDir = filepath.Join(root, "cache")

	statuses := CheckPaths(cfg)
	if len(statuses) != 4 {
		t.Fatalf("CheckPaths: got %d statuses, want 4", len(statuses))
	}
	if !statuses[0].Exists || !statuses[0].IsDir {
		t.Errorf("raw dir should exist: %+v", statuses[0])
	}
	for _, s := range statuses[1:] {
		if s.Exists {
			t.Errorf("%s should not exist: %+v", s.Name, s)
		}
	}
}

func TestCheckPathSourceDetection(t *testing.T) {
	os.Unsetenv("TEST_NSEQUANT_PATH")
	s := checkPath("Test", "/nonexistent", "TEST_NSEQUANT_PATH")
	if s.Source != PathSourceConfig {
		t.Errorf("got source %q, want %q", s.Source, PathSourceConfig)
	}

	t.Setenv("TEST_NSEQUANT_PATH", "/nonexistent")
	s = checkPath("Test", "/nonexistent", "TEST_NSEQUANT_PATH")
	if s.Source != PathSourceEnv {
		t.Errorf("got source %q, want %q", s.Source, PathSourceEnv)
	}
}
