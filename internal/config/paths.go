package config

import "os"

// PathSource represents where a configured path came from.
type PathSource string

const (
	PathSourceEnv    PathSource = "env"
	PathSourceConfig PathSource = "config"
)

// PathStatus reports whether a configured data location is present on disk.
type PathStatus struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Source PathSource `json:"source"`
	Exists bool       `json:"exists"`
	IsDir  bool       `json:"is_dir"`
}

// CheckPaths returns the status of every data location the engine reads.
func CheckPaths(cfg *Config) []PathStatus {
	return []PathStatus{
		checkPath("Raw bhavcopy directory", cfg.Data.RawPath(), "NSEQUANT_DATA_RAW_DIR"),
		checkPath("Index constituents", cfg.Data.IndicesPath(), "NSEQUANT_DATA_INDICES_DIR"),
		checkPath("Sector mapping", cfg.Data.SectorPath(), "NSEQUANT_DATA_SECTOR_FILE"),
		checkPath("Cache directory", cfg.Data.CacheDir, "NSEQUANT_DATA_CACHE_DIR"),
	}
}

// checkPath stats a path and records whether an env var supplied it.
func checkPath(name, path, envVar string) PathStatus {
	status := PathStatus{
		Name:   name,
		Path:   path,
		Source: PathSourceConfig,
	}
	if os.Getenv(envVar) != "" {
		status.Source = PathSourceEnv
	}
	if path == "" {
		return status
	}
	if info, err := os.Stat(path); err == nil {
		status.Exists = true
		status.IsDir = info.IsDir()
	}
	return status
}
