package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/nsequant/pkg/models"
)

// scanRaw lists every CSV file below dir, sorted by path so that later
// months (YYYYMM folders) come last.
func scanRaw(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// parseFiles parses files concurrently, at most workers at a time. Results
// keep the order of files.
func parseFiles(ctx context.Context, files []string, workers int) ([]parseResult, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]parseResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := parseFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(path string) (parseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return parseResult{}, &DataSourceError{Op: "parse", Path: path, Err: err}
	}
	defer f.Close()

	res, err := parseCSV(f)
	if err != nil {
		return parseResult{}, &DataSourceError{Op: "parse", Path: path, Err: err}
	}
	return res, nil
}

// rawStats summarises a raw parse for logging.
type rawStats struct {
	files   int
	skipped int
}

// readRaw parses every CSV under dir into one slice, in file order.
func readRaw(ctx context.Context, dir string, workers int) ([]models.PriceRecord, rawStats, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, rawStats{}, &DataSourceError{Op: "load", Path: dir, Err: ErrNoSource}
	}

	files, err := scanRaw(dir)
	if err != nil {
		return nil, rawStats{}, &DataSourceError{Op: "scan", Path: dir, Err: err}
	}
	if len(files) == 0 {
		return nil, rawStats{}, &DataSourceError{Op: "scan", Path: dir, Err: ErrNoSource}
	}

	results, err := parseFiles(ctx, files, workers)
	if err != nil {
		return nil, rawStats{}, err
	}

	stats := rawStats{files: len(files)}
	total := 0
	for _, r := range results {
		total += len(r.records)
		stats.skipped += r.skipped
	}
	if total == 0 {
		return nil, stats, &DataSourceError{Op: "load", Path: dir, Err: ErrNoRecords}
	}

	records := make([]models.PriceRecord, 0, total)
	for _, r := range results {
		records = append(records, r.records...)
	}
	return records, stats, nil
}
