// Package store holds the in-memory table of daily bhavcopy records.
//
// A Store is built once, either from the columnar cache file or by parsing the
// raw CSV tree, and is read-only afterwards: any number of goroutines may
// query it without locking. The cache is trusted while the file exists;
// delete it (ClearCache, or `nsequant cache clear`) to force a rebuild.
package store

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/internal/logging"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Source tells where the loaded table came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRaw    Source = "raw"
	SourceMemory Source = "memory"
)

// Options configures a Store.
type Options struct {
	RawDir         string
	CacheDir       string // empty disables the price cache
	Workers        int
	SeriesPriority []string
	Logger         *slog.Logger
}

// OptionsFromConfig maps the data section of the config to store options.
func OptionsFromConfig(cfg config.DataConfig, log *slog.Logger) Options {
	return Options{
		RawDir:         cfg.RawPath(),
		CacheDir:       cfg.CacheDir,
		Workers:        cfg.LoadWorkers,
		SeriesPriority: cfg.SeriesPriority,
		Logger:         log,
	}
}

// Store is the queryable price table.
type Store struct {
	opts Options
	log  *slog.Logger

	once    sync.Once
	loadErr error
	tbl     atomic.Pointer[table]
}

// table is the immutable loaded state.
type table struct {
	records  []models.PriceRecord // sorted by symbol, date, series; unique per key
	bySymbol map[string][]int     // symbol → record positions, one per date, ascending
	dates    []time.Time          // distinct trading dates, ascending
	symbols  []string             // sorted
	source   Source
}

// New returns an unloaded store. Call Load before querying.
func New(opts Options) *Store {
	return &Store{opts: opts, log: logging.OrNop(opts.Logger)}
}

// NewFromRecords builds a loaded in-memory store without touching disk.
func NewFromRecords(records []models.PriceRecord, seriesPriority ...string) *Store {
	if len(seriesPriority) == 0 {
		seriesPriority = config.Default().Data.SeriesPriority
	}
	s := &Store{
		opts: Options{SeriesPriority: seriesPriority},
		log:  logging.Nop(),
	}
	s.once.Do(func() {})
	s.tbl.Store(buildTable(records, seriesPriority, SourceMemory))
	return s
}

// Load populates the store. Only the first call does work; later and
// concurrent callers wait for it and receive the same error, if any.
func (s *Store) Load(ctx context.Context) error {
	s.once.Do(func() {
		start := time.Now()
		t, err := s.load(ctx)
		if err != nil {
			s.loadErr = err
			s.log.Error("price store load failed", "error", err)
			return
		}
		s.tbl.Store(t)
		s.log.Info("price store loaded",
			"source", t.source,
			"rows", len(t.records),
			"symbols", len(t.symbols),
			"trading_days", len(t.dates),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
	return s.loadErr
}

func (s *Store) load(ctx context.Context) (*table, error) {
	if path := s.CachePath(); path != "" && statCache(path).Exists {
		recs, err := readCache(path)
		if err != nil {
			return nil, err
		}
		return buildTable(recs, s.opts.SeriesPriority, SourceCache), nil
	}

	recs, err := s.readRaw(ctx)
	if err != nil {
		return nil, err
	}
	t := buildTable(recs, s.opts.SeriesPriority, SourceRaw)

	if path := s.CachePath(); path != "" {
		if err := writeCache(path, t.records); err != nil {
			s.log.Warn("price cache not written", "path", path, "error", err)
		} else {
			s.log.Info("price cache written", "path", path, "rows", len(t.records))
		}
	}
	return t, nil
}

func (s *Store) readRaw(ctx context.Context) ([]models.PriceRecord, error) {
	start := time.Now()
	recs, stats, err := readRaw(ctx, s.opts.RawDir, s.opts.Workers)
	if err != nil {
		var dse *DataSourceError
		if !errors.As(err, &dse) {
			err = &DataSourceError{Op: "load", Path: s.opts.RawDir, Err: err}
		}
		return nil, err
	}
	s.log.Info("raw bhavcopy parsed",
		"dir", s.opts.RawDir,
		"files", stats.files,
		"rows", len(recs),
		"skipped_rows", stats.skipped,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return recs, nil
}

// BuildCache parses the raw tree and (re)writes the cache file. It does not
// change what an already loaded store serves. Running it twice over the same
// raw files produces the same cache.
func (s *Store) BuildCache(ctx context.Context) (CacheInfo, error) {
	path := s.CachePath()
	if path == "" {
		return CacheInfo{}, &DataSourceError{Op: "write cache", Err: errors.New("no cache directory configured")}
	}
	recs, err := s.readRaw(ctx)
	if err != nil {
		return CacheInfo{}, err
	}
	t := buildTable(recs, s.opts.SeriesPriority, SourceRaw)
	if err := writeCache(path, t.records); err != nil {
		return CacheInfo{}, err
	}
	s.log.Info("price cache built", "path", path, "rows", len(t.records), "symbols", len(t.symbols))
	return statCache(path), nil
}

// CachePath returns the cache file location, or "" if caching is disabled.
func (s *Store) CachePath() string {
	if s.opts.CacheDir == "" {
		return ""
	}
	return filepath.Join(s.opts.CacheDir, CacheFileName)
}

// CacheStatus reports whether the cache file exists.
func (s *Store) CacheStatus() CacheInfo {
	return statCache(s.CachePath())
}

// ClearCache deletes the cache file. A missing file is not an error.
func (s *Store) ClearCache() error {
	if err := removeCache(s.CachePath()); err != nil {
		return err
	}
	s.log.Info("price cache cleared", "path", s.CachePath())
	return nil
}

// Close releases the in-memory table. Queries on a closed store return
// empty results.
func (s *Store) Close() error {
	s.tbl.Store(nil)
	return nil
}

// Loaded reports whether the store holds a table.
func (s *Store) Loaded() bool {
	return s.tbl.Load() != nil
}

// Source reports where the table came from, or "" before Load.
func (s *Store) Source() Source {
	if t := s.tbl.Load(); t != nil {
		return t.source
	}
	return ""
}

// AvailableRange summarises the loaded data. Callers use it to validate a
// requested range before querying.
func (s *Store) AvailableRange() models.Availability {
	t := s.tbl.Load()
	if t == nil || len(t.dates) == 0 {
		return models.Availability{}
	}
	return models.Availability{
		MinDate:     t.dates[0],
		MaxDate:     t.dates[len(t.dates)-1],
		Records:     len(t.records),
		Symbols:     len(t.symbols),
		TradingDays: len(t.dates),
	}
}

// Symbols returns every symbol in the store, sorted.
func (s *Store) Symbols() []string {
	t := s.tbl.Load()
	if t == nil {
		return nil
	}
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// HasSymbol reports whether the store holds any row for symbol.
func (s *Store) HasSymbol(symbol string) bool {
	t := s.tbl.Load()
	if t == nil {
		return false
	}
	_, ok := t.bySymbol[utils.CleanSymbol(symbol)]
	return ok
}

// TradingDates returns the distinct trading dates in [start, end].
// A zero end means through the last date.
func (s *Store) TradingDates(start, end time.Time) []time.Time {
	t := s.tbl.Load()
	if t == nil {
		return nil
	}
	start, end = bounds(start, end)
	lo := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(start) })
	hi := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(end) })
	if lo >= hi {
		return nil
	}
	out := make([]time.Time, hi-lo)
	copy(out, t.dates[lo:hi])
	return out
}

// RowsForSymbol returns the symbol's rows in [start, end], oldest first, one
// row per trading date. A symbol with no rows in range yields an empty slice.
// A zero end means through the last date.
func (s *Store) RowsForSymbol(symbol string, start, end time.Time) []models.PriceRecord {
	t := s.tbl.Load()
	if t == nil {
		return []models.PriceRecord{}
	}
	return t.rows(utils.CleanSymbol(symbol), start, end)
}

// RowsForUniverse returns rows for each symbol in [start, end]. Symbols
// without rows in range are absent from the map.
func (s *Store) RowsForUniverse(symbols []string, start, end time.Time) map[string][]models.PriceRecord {
	out := make(map[string][]models.PriceRecord, len(symbols))
	t := s.tbl.Load()
	if t == nil {
		return out
	}
	for _, sym := range symbols {
		sym = utils.CleanSymbol(sym)
		if rows := t.rows(sym, start, end); len(rows) > 0 {
			out[sym] = rows
		}
	}
	return out
}

func (t *table) rows(symbol string, start, end time.Time) []models.PriceRecord {
	idx := t.bySymbol[symbol]
	if len(idx) == 0 {
		return []models.PriceRecord{}
	}
	start, end = bounds(start, end)
	lo := sort.Search(len(idx), func(i int) bool { return !t.records[idx[i]].Date.Before(start) })
	hi := sort.Search(len(idx), func(i int) bool { return t.records[idx[i]].Date.After(end) })
	if lo >= hi {
		return []models.PriceRecord{}
	}
	out := make([]models.PriceRecord, 0, hi-lo)
	for _, i := range idx[lo:hi] {
		out = append(out, t.records[i])
	}
	return out
}

var maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func bounds(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = maxDate
	}
	return utils.Day(start), utils.Day(end)
}

// buildTable sorts, de-duplicates and indexes records. For a repeated
// (date, symbol, series) key the record appearing later in the input wins.
// The per-symbol index keeps one row per date, preferring series earlier in
// priority, then alphabetically.
func buildTable(records []models.PriceRecord, priority []string, source Source) *table {
	recs := make([]models.PriceRecord, len(records))
	copy(recs, records)
	intern(recs)

	for i := range recs {
		recs[i].Date = utils.Day(recs[i].Date)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Series < b.Series
	})

	// Stable sort keeps input order inside a key, so the last one is newest.
	uniq := recs[:0]
	for _, r := range recs {
		if n := len(uniq); n > 0 && uniq[n-1].Key() == r.Key() {
			uniq[n-1] = r
			continue
		}
		uniq = append(uniq, r)
	}
	recs = uniq

	rank := make(map[string]int, len(priority))
	for i, p := range priority {
		rank[strings.ToUpper(p)] = i
	}
	rankOf := func(series string) int {
		if r, ok := rank[series]; ok {
			return r
		}
		return len(priority)
	}

	t := &table{
		records:  recs,
		bySymbol: make(map[string][]int),
		source:   source,
	}
	seenDay := make(map[time.Time]struct{})

	for i, r := range recs {
		seenDay[r.Date] = struct{}{}
		idx, ok := t.bySymbol[r.Symbol]
		if !ok {
			t.symbols = append(t.symbols, r.Symbol)
		}
		if n := len(idx); n > 0 && recs[idx[n-1]].Date.Equal(r.Date) {
			// Same date, another series: series are sorted, so only a strictly
			// better rank replaces the current pick.
			if rankOf(r.Series) < rankOf(recs[idx[n-1]].Series) {
				idx[n-1] = i
			}
			t.bySymbol[r.Symbol] = idx
			continue
		}
		t.bySymbol[r.Symbol] = append(idx, i)
	}

	t.dates = make([]time.Time, 0, len(seenDay))
	for d := range seenDay {
		t.dates = append(t.dates, d)
	}
	sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })
	return t
}

// intern shares symbol and series strings so parsed rows do not pin their
// CSV line buffers.
func intern(recs []models.PriceRecord) {
	pool := make(map[string]string)
	get := func(s string) string {
		if v, ok := pool[s]; ok {
			return v
		}
		v := strings.Clone(s)
		pool[v] = v
		return v
	}
	for i := range recs {
		recs[i].Symbol = get(recs[i].Symbol)
		recs[i].Series = get(recs[i].Series)
	}
}
