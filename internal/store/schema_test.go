package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentFormat = `SYMBOL, SERIES, DATE1, PREV_CLOSE, OPEN_PRICE, HIGH_PRICE, LOW_PRICE, LAST_PRICE, CLOSE_PRICE, AVG_PRICE, TTL_TRD_QNTY, TURNOVER_LACS, NO_OF_TRADES, DELIV_QTY, DELIV_PER
RELIANCE, EQ, 12-Feb-2025, 1220.50, 1222.00, 1240.00, 1215.10, 1236.00, 1235.40, 1230.12, 1000000, 12301.20, 51234, 600000, 60.00
INFY, EQ, 12-Feb-2025, 1890.00, 1880.00, 1905.00, 1870.00, 1900.00, 1899.95, 1890.00, 200000, 3780.00, 20000, -, -
, EQ, 12-Feb-2025, 10, 10, 10, 10, 10, 10, 10, 10, 1, 1, 1, 1
TCS, EQ, not-a-date, 10, 10, 10, 10, 10, 10, 10, 10, 1, 1, 1, 1
HDFCBANK, EQ, 12-Feb-2025, 10, 10, 10, 10, 10, -, 10, 10, 1, 1, 1, 1
`

const oldFormat = `SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2400,2450,2390,2440.5,2441,2400,"1,500",3660750,01-JAN-2021,1000,INE002A01018
ITC,BE,200,205,199,204,204,200,3000,612000,01-JAN-2021,300,INE154A01025
`

func TestParseCSVCurrentFormat(t *testing.T) {
	res, err := parseCSV(strings.NewReader(currentFormat))
	require.NoError(t, err)
	require.Len(t, res.records, 2)
	assert.Equal(t, 3, res.skipped, "blank symbol, bad date and missing close are skipped")

	rel := res.records[0]
	assert.Equal(t, "RELIANCE", rel.Symbol)
	assert.Equal(t, "EQ", rel.Series)
	assert.Equal(t, "2025-02-12", rel.Date.Format("2006-01-02"))
	assert.Equal(t, 1235.40, rel.Close)
	assert.Equal(t, 1222.00, rel.Open)
	assert.Equal(t, 1240.00, rel.High)
	assert.Equal(t, 1215.10, rel.Low)
	assert.Equal(t, 1220.50, rel.PrevClose)
	assert.Equal(t, int64(1000000), rel.Volume)
	assert.InDelta(t, 12301.20*1e5, rel.Value, 1e-3, "turnover lacs scaled to rupees")
	assert.Equal(t, int64(600000), rel.DeliveryQty)
	assert.True(t, rel.HasDelivery)
	assert.Equal(t, 60.0, rel.DeliveryPct)

	infy := res.records[1]
	assert.False(t, infy.HasDelivery, "'-' means no delivery data")
	assert.Zero(t, infy.DeliveryQty)
}

func TestParseCSVOldFormat(t *testing.T) {
	res, err := parseCSV(strings.NewReader(oldFormat))
	require.NoError(t, err)
	require.Len(t, res.records, 2)

	rel := res.records[0]
	assert.Equal(t, "2021-01-01", rel.Date.Format("2006-01-02"))
	assert.Equal(t, int64(1500), rel.Volume, "thousands separators stripped")
	assert.Equal(t, 3660750.0, rel.Value)
	assert.Equal(t, 2400.0, rel.PrevClose)
	assert.Equal(t, "BE", res.records[1].Series)
}

func TestParseCSVValueFallback(t *testing.T) {
	in := "SYMBOL,DATE,CLOSE,VOLUME\nABC,2024-03-01,12.5,100\n"
	res, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.records, 1)
	assert.Equal(t, 1250.0, res.records[0].Value)
	assert.Equal(t, defaultSeries, res.records[0].Series)
}

func TestParseCSVByteOrderMark(t *testing.T) {
	in := "\ufeffSymbol,Date,Close\nabc,2024-03-01,1\n"
	res, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.records, 1)
	assert.Equal(t, "ABC", res.records[0].Symbol)
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := parseCSV(strings.NewReader("SYMBOL,OPEN\nABC,1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "DATE")
	assert.Contains(t, err.Error(), "CLOSE")
}

func TestParseCSVEmpty(t *testing.T) {
	res, err := parseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.records)
}

func TestParseHeaderFirstAliasWins(t *testing.T) {
	h := parseHeader([]string{"SYMBOL", "CLOSE_PRICE", "CLOSE", "DATE1"})
	assert.Equal(t, 1, h[colClose])
	assert.Empty(t, h.missing())
}
