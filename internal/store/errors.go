package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource means neither a price cache nor a raw data directory exists.
	ErrNoSource = errors.New("no price cache or raw data found")
	// ErrNoRecords means raw files were found but none produced a usable row.
	ErrNoRecords = errors.New("no usable price records")
	// ErrMissingColumns means a CSV header lacks SYMBOL, DATE or CLOSE.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrBadCache means the cache file is not in a format this build reads.
	ErrBadCache = errors.New("unrecognized price cache format")
)

// DataSourceError is returned when price data cannot be loaded. It is fatal:
// a store that failed to load serves no queries.
type DataSourceError struct {
	Op   string // "load", "scan", "parse", "read cache", "write cache"
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }
