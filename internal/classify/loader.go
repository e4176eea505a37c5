package classify

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/internal/logging"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Options locates the reference files and the classification cache.
type Options struct {
	IndicesDir string
	SectorFile string
	CacheDir   string // empty disables the cache
	Logger     *slog.Logger
}

// OptionsFromConfig maps the data section of the config to loader options.
func OptionsFromConfig(cfg config.DataConfig, log *slog.Logger) Options {
	return Options{
		IndicesDir: cfg.IndicesPath(),
		SectorFile: cfg.SectorPath(),
		CacheDir:   cfg.CacheDir,
		Logger:     log,
	}
}

// CacheFileName is the classification cache inside the cache directory.
const CacheFileName = "classification.db"

// CachePath returns the cache location, or "" when caching is disabled.
func (o Options) CachePath() string {
	if o.CacheDir == "" {
		return ""
	}
	return filepath.Join(o.CacheDir, CacheFileName)
}

// Load builds the Index. A cache file, when present, is used as is. Missing
// reference files are not an error: the index is empty and every symbol is
// UNKNOWN.
func Load(opts Options) (*Index, error) {
	log := logging.OrNop(opts.Logger)

	if path := opts.CachePath(); path != "" && fileExists(path) {
		indices, sectors, err := readCache(path)
		if err == nil {
			ix := NewFromMaps(indices, sectors)
			log.Info("classification loaded", "source", "cache", "indices", len(ix.indices), "sectors", len(ix.sectors))
			return ix, nil
		}
		log.Warn("classification cache unreadable, rebuilding", "path", path, "error", err)
	}

	ix, err := Build(opts)
	if err != nil {
		return nil, err
	}
	if path := opts.CachePath(); path != "" && !ix.Empty() {
		if err := writeCache(path, ix); err != nil {
			log.Warn("classification cache not written", "path", path, "error", err)
		}
	}
	return ix, nil
}

// Build reads the reference files directly, ignoring any cache.
func Build(opts Options) (*Index, error) {
	log := logging.OrNop(opts.Logger)

	indices, dir, err := readIndices(opts.IndicesDir)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		log.Warn("no index constituent files found", "dir", opts.IndicesDir)
	} else {
		log.Info("index constituents read", "dir", dir, "indices", len(indices))
	}

	sectors, dupes, err := readSectors(opts.SectorFile)
	if err != nil {
		return nil, err
	}
	if len(dupes) > 0 {
		log.Warn("duplicate sector mappings ignored, first row kept",
			"file", opts.SectorFile, "count", len(dupes), "symbols", dupes)
	}
	if len(sectors) == 0 {
		log.Warn("no sector mapping found", "file", opts.SectorFile)
	}

	ix := NewFromMaps(indices, sectors)
	log.Info("classification loaded", "source", "reference", "indices", len(ix.indices), "sectors", len(ix.sectors))
	return ix, nil
}

// ── Reference files ──

// latestDir picks the most recent dated subfolder of dir (names sort by
// date), or dir itself when it has no subfolders.
func latestDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var subs []string
	for _, e := range entries {
		if e.IsDir() {
			subs = append(subs, e.Name())
		}
	}
	if len(subs) == 0 {
		return dir, nil
	}
	sort.Strings(subs)
	return filepath.Join(dir, subs[len(subs)-1]), nil
}

// indexName derives an index name from a constituent file name:
// ind_niftymidcap150list.csv → NIFTYMIDCAP150.
func indexName(file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	stem = strings.ToLower(stem)
	stem = strings.TrimPrefix(stem, "ind_")
	stem = strings.ReplaceAll(stem, "list", "")
	return CanonicalIndex(stem)
}

func readIndices(dir string) (map[string][]string, string, error) {
	if dir == "" || !fileExists(dir) {
		return map[string][]string{}, dir, nil
	}
	latest, err := latestDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("classify: read indices dir: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(latest, "*.csv"))
	if err != nil {
		return nil, "", fmt.Errorf("classify: glob indices: %w", err)
	}
	sort.Strings(files)

	out := make(map[string][]string, len(files))
	for _, f := range files {
		name := indexName(f)
		if name == "" {
			continue
		}
		symbols, err := readColumn(f, "SYMBOL")
		if err != nil {
			return nil, "", fmt.Errorf("classify: %s: %w", filepath.Base(f), err)
		}
		out[name] = symbols
	}
	return out, latest, nil
}

// readSectors reads the symbol → sector mapping. Symbols are normalised, and
// when one appears more than once the first row wins; later rows are
// returned as duplicates.
func readSectors(path string) (map[string]string, []string, error) {
	if path == "" || !fileExists(path) {
		return map[string]string{}, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("classify: open sector file: %w", err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("classify: sector file: %w", err)
	}
	if len(rows) == 0 {
		return map[string]string{}, nil, nil
	}
	si, ok1 := column(rows[0], "SYMBOL")
	ci, ok2 := column(rows[0], "SECTOR")
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("classify: sector file needs SYMBOL and SECTOR columns")
	}
	out := make(map[string]string, len(rows)-1)
	var dupes []string
	for _, row := range rows[1:] {
		if si >= len(row) || ci >= len(row) {
			continue
		}
		sym, sector := utils.CleanSymbol(row[si]), strings.TrimSpace(row[ci])
		if sym == "" || sector == "" {
			continue
		}
		if _, ok := out[sym]; ok {
			dupes = append(dupes, sym)
			continue
		}
		out[sym] = sector
	}
	return out, dupes, nil
}

func readColumn(path, name string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	i, ok := column(rows[0], name)
	if !ok {
		return nil, fmt.Errorf("no %s column", name)
	}
	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			out = append(out, row[i])
		}
	}
	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return rows, nil
}

func column(headerRow []string, name string) (int, bool) {
	for i, h := range headerRow {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i, true
		}
	}
	return 0, false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
