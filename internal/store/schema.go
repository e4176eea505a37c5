package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Canonical column names after alias resolution.
const (
	colSymbol       = "SYMBOL"
	colSeries       = "SERIES"
	colDate         = "DATE"
	colOpen         = "OPEN"
	colHigh         = "HIGH"
	colLow          = "LOW"
	colClose        = "CLOSE"
	colLast         = "LAST"
	colPrevClose    = "PREV_CLOSE"
	colVolume       = "VOLUME"
	colValue        = "VALUE"
	colTurnoverLacs = "TURNOVER_LACS"
	colDeliveryQty  = "DELIVERY_QTY"
	colDeliveryPct  = "DELIVERY_PCT"
)

// defaultSeries is assumed for files without a SERIES column.
const defaultSeries = "EQ"

// columnAliases maps header spellings from the old (cm*bhav.csv) and current
// (sec_bhavdata_full_*.csv) bhavcopy layouts to canonical names.
var columnAliases = map[string]string{
	"SYMBOL":        colSymbol,
	"TICKER":        colSymbol,
	"SECURITY":      colSymbol,
	"SYMB":          colSymbol,
	"SERIES":        colSeries,
	"DATE":          colDate,
	"DATE1":         colDate,
	"TIMESTAMP":     colDate,
	"TRADE_DATE":    colDate,
	"OPEN":          colOpen,
	"OPEN_PRICE":    colOpen,
	"HIGH":          colHigh,
	"HIGH_PRICE":    colHigh,
	"LOW":           colLow,
	"LOW_PRICE":     colLow,
	"CLOSE":         colClose,
	"CLOSE_PRICE":   colClose,
	"LAST":          colLast,
	"LAST_PRICE":    colLast,
	"PREV_CLOSE":    colPrevClose,
	"PREVCLOSE":     colPrevClose,
	"VOLUME":        colVolume,
	"TOTTRDQTY":     colVolume,
	"TTL_TRD_QNTY":  colVolume,
	"TOTTRDVAL":     colValue,
	"VALUE":         colValue,
	"TURNOVER_LACS": colTurnoverLacs,
	"DELIV_QTY":     colDeliveryQty,
	"DELIVERY_QTY":  colDeliveryQty,
	"DELIV_PER":     colDeliveryPct,
	"DELIVERY_PCT":  colDeliveryPct,
	"DELIV_PCT":     colDeliveryPct,
}

var requiredColumns = []string{colSymbol, colDate, colClose}

// header maps canonical column names to their position in a row.
type header map[string]int

// parseHeader indexes a header row, ignoring a UTF-8 BOM, padding and
// unknown columns.
func parseHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		canon, ok := columnAliases[key]
		if !ok {
			continue
		}
		// First spelling wins when a file carries two aliases.
		if _, dup := h[canon]; !dup {
			h[canon] = i
		}
	}
	return h
}

// missing lists the required columns the header lacks.
func (h header) missing() []string {
	var out []string
	for _, c := range requiredColumns {
		if _, ok := h[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// cell returns the raw value of col, or "" when absent.
func (h header) cell(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// number parses col as a number; dashes and blanks are not numbers.
func (h header) number(row []string, col string) (float64, bool) {
	return utils.ParseNumber(h.cell(row, col))
}

// record converts one CSV row. ok is false for rows that must be skipped:
// no symbol, no parseable date, or no close.
func (h header) record(row []string) (models.PriceRecord, bool) {
	symbol := utils.CleanSymbol(h.cell(row, colSymbol))
	if symbol == "" {
		return models.PriceRecord{}, false
	}
	date, err := utils.ParseTradeDate(h.cell(row, colDate))
	if err != nil {
		return models.PriceRecord{}, false
	}
	closePrice, ok := h.number(row, colClose)
	if !ok {
		return models.PriceRecord{}, false
	}

	rec := models.PriceRecord{
		Date:   date,
		Symbol: symbol,
		Series: strings.ToUpper(strings.TrimSpace(h.cell(row, colSeries))),
		Close:  closePrice,
	}
	if rec.Series == "" {
		rec.Series = defaultSeries
	}
	rec.Open, _ = h.number(row, colOpen)
	rec.High, _ = h.number(row, colHigh)
	rec.Low, _ = h.number(row, colLow)
	rec.Last, _ = h.number(row, colLast)
	rec.PrevClose, _ = h.number(row, colPrevClose)

	volume, _ := h.number(row, colVolume)
	rec.Volume = int64(volume)

	switch {
	case hasNumber(h, row, colValue):
		rec.Value, _ = h.number(row, colValue)
	case hasNumber(h, row, colTurnoverLacs):
		lacs, _ := h.number(row, colTurnoverLacs)
		rec.Value = lacs * 1e5
	default:
		rec.Value = closePrice * volume
	}

	if qty, ok := h.number(row, colDeliveryQty); ok {
		rec.DeliveryQty = int64(qty)
	}
	if pct, ok := h.number(row, colDeliveryPct); ok {
		rec.DeliveryPct = pct
		rec.HasDelivery = true
	}
	return rec, true
}

// hasNumber reports whether col holds a parseable number.
func hasNumber(h header, row []string, col string) bool {
	_, ok := h.number(row, col)
	return ok
}

// parseResult is what one raw file contributes.
type parseResult struct {
	records []models.PriceRecord
	skipped int
}

// parseCSV reads a bhavcopy CSV. An empty file yields no records; a header
// without the required columns is ErrMissingColumns.
func parseCSV(r io.Reader) (parseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return parseResult{}, nil
	}
	if err != nil {
		return parseResult{}, fmt.Errorf("read header: %w", err)
	}
	h := parseHeader(first)
	if missing := h.missing(); len(missing) > 0 {
		return parseResult{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var res parseResult
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parseResult{}, fmt.Errorf("read row: %w", err)
		}
		rec, ok := h.record(row)
		if !ok {
			res.skipped++
			continue
		}
		res.records = append(res.records, rec)
	}
	return res, nil
}
