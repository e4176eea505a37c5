package store

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// CacheFileName is the price cache file inside the cache directory.
const CacheFileName = "prices.nsqc"

// Cache layout: 4-byte magic, 1-byte version, then a zstd stream carrying a
// gob-encoded columns value.
const (
	cacheMagic   = "NSQC"
	cacheVersion = byte(1)
)

// columns is the struct-of-arrays form of the table. Symbols and series are
// dictionary encoded; dates are day numbers.
type columns struct {
	Symbols     []string
	Series      []string
	SymbolIdx   []uint32
	SeriesIdx   []uint16
	Days        []int32
	Open        []float64
	High        []float64
	Low         []float64
	Close       []float64
	Last        []float64
	PrevClose   []float64
	Volume      []int64
	Value       []float64
	DeliveryQty []int64
	DeliveryPct []float64
	HasDelivery []bool
}

func toColumns(recs []models.PriceRecord) *columns {
	n := len(recs)
	c := &columns{
		SymbolIdx:   make([]uint32, n),
		SeriesIdx:   make([]uint16, n),
		Days:        make([]int32, n),
		Open:        make([]float64, n),
		High:        make([]float64, n),
		Low:         make([]float64, n),
		Close:       make([]float64, n),
		Last:        make([]float64, n),
		PrevClose:   make([]float64, n),
		Volume:      make([]int64, n),
		Value:       make([]float64, n),
		DeliveryQty: make([]int64, n),
		DeliveryPct: make([]float64, n),
		HasDelivery: make([]bool, n),
	}
	symbolIdx := map[string]uint32{}
	seriesIdx := map[string]uint16{}

	for i, r := range recs {
		si, ok := symbolIdx[r.Symbol]
		if !ok {
			si = uint32(len(c.Symbols))
			symbolIdx[r.Symbol] = si
			c.Symbols = append(c.Symbols, r.Symbol)
		}
		ri, ok := seriesIdx[r.Series]
		if !ok {
			ri = uint16(len(c.Series))
			seriesIdx[r.Series] = ri
			c.Series = append(c.Series, r.Series)
		}
		c.SymbolIdx[i] = si
		c.SeriesIdx[i] = ri
		c.Days[i] = utils.DayNumber(r.Date)
		c.Open[i] = r.Open
		c.High[i] = r.High
		c.Low[i] = r.Low
		c.Close[i] = r.Close
		c.Last[i] = r.Last
		c.PrevClose[i] = r.PrevClose
		c.Volume[i] = r.Volume
		c.Value[i] = r.Value
		c.DeliveryQty[i] = r.DeliveryQty
		c.DeliveryPct[i] = r.DeliveryPct
		c.HasDelivery[i] = r.HasDelivery
	}
	return c
}

func (c *columns) records() ([]models.PriceRecord, error) {
	n := len(c.Days)
	lengths := []int{
		len(c.SymbolIdx), len(c.SeriesIdx), len(c.Open), len(c.High), len(c.Low),
		len(c.Close), len(c.Last), len(c.PrevClose), len(c.Volume), len(c.Value),
		len(c.DeliveryQty), len(c.DeliveryPct), len(c.HasDelivery),
	}
	for _, l := range lengths {
		if l != n {
			return nil, fmt.Errorf("%w: column length %d, want %d", ErrBadCache, l, n)
		}
	}

	recs := make([]models.PriceRecord, n)
	for i := range recs {
		si, ri := int(c.SymbolIdx[i]), int(c.SeriesIdx[i])
		if si >= len(c.Symbols) || ri >= len(c.Series) {
			return nil, fmt.Errorf("%w: dictionary index out of range at row %d", ErrBadCache, i)
		}
		recs[i] = models.PriceRecord{
			Date:        utils.FromDayNumber(c.Days[i]),
			Symbol:      c.Symbols[si],
			Series:      c.Series[ri],
			Open:        c.Open[i],
			High:        c.High[i],
			Low:         c.Low[i],
			Close:       c.Close[i],
			Last:        c.Last[i],
			PrevClose:   c.PrevClose[i],
			Volume:      c.Volume[i],
			Value:       c.Value[i],
			DeliveryQty: c.DeliveryQty[i],
			DeliveryPct: c.DeliveryPct[i],
			HasDelivery: c.HasDelivery[i],
		}
	}
	return recs, nil
}

// writeCache writes recs to path atomically: a temp file in the same
// directory is renamed over the target once fully written.
func writeCache(path string, recs []models.PriceRecord) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".prices-*.tmp")
	if err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if _, err = bw.WriteString(cacheMagic); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = bw.WriteByte(cacheVersion); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}

	zw, err := zstd.NewWriter(bw,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = gob.NewEncoder(zw).Encode(toColumns(recs)); err != nil {
		zw.Close()
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = zw.Close(); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = bw.Flush(); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &DataSourceError{Op: "write cache", Path: path, Err: err}
	}
	return nil
}

// readCache decodes a cache file written by writeCache.
func readCache(path string) ([]models.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head := make([]byte, len(cacheMagic)+1)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: ErrBadCache}
	}
	if string(head[:len(cacheMagic)]) != cacheMagic || head[len(cacheMagic)] != cacheVersion {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: ErrBadCache}
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: err}
	}
	defer zr.Close()

	var cols columns
	if err := gob.NewDecoder(zr).Decode(&cols); err != nil {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: fmt.Errorf("%w: %v", ErrBadCache, err)}
	}
	recs, err := cols.records()
	if err != nil {
		return nil, &DataSourceError{Op: "read cache", Path: path, Err: err}
	}
	return recs, nil
}

// CacheInfo describes the on-disk price cache.
type CacheInfo struct {
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time,omitempty"`
}

func statCache(path string) CacheInfo {
	info := CacheInfo{Path: path}
	if path == "" {
		return info
	}
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		info.Exists = true
		info.SizeBytes = fi.Size()
		info.ModTime = fi.ModTime()
	}
	return info
}

func removeCache(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &DataSourceError{Op: "clear cache", Path: path, Err: err}
	}
	return nil
}
