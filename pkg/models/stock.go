// Package models defines the core data structures shared by the nsequant packages.
package models

import "time"

// PriceRecord is one end-of-day bhavcopy row for a symbol and series.
type PriceRecord struct {
	Date        time.Time `json:"date"`
	Symbol      string    `json:"symbol"` // e.g., "RELIANCE"
	Series      string    `json:"series"` // e.g., "EQ", "BE"
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Last        float64   `json:"last"`
	PrevClose   float64   `json:"prev_close"`
	Volume      int64     `json:"volume"`
	Value       float64   `json:"value"` // traded value in INR
	DeliveryQty int64     `json:"delivery_qty"`
	DeliveryPct float64   `json:"delivery_pct"`
	HasDelivery bool      `json:"has_delivery"` // false when the source row carried no delivery data
}

// Key identifies a record uniquely within a store.
type Key struct {
	Date   time.Time
	Symbol string
	Series string
}

// Key returns the (date, symbol, series) identity of the record.
func (r PriceRecord) Key() Key {
	return Key{Date: r.Date, Symbol: r.Symbol, Series: r.Series}
}

// Range is an inclusive span of trading dates.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether the two ranges share at least one day.
func (r Range) Overlaps(o Range) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// Availability summarises what a loaded store holds.
type Availability struct {
	MinDate     time.Time `json:"min_date"`
	MaxDate     time.Time `json:"max_date"`
	Records     int       `json:"record_count"`
	Symbols     int       `json:"symbol_count"`
	TradingDays int       `json:"trading_days"`
}

// Range returns the span covered by the store.
func (a Availability) Range() Range {
	return Range{Start: a.MinDate, End: a.MaxDate}
}

// Empty reports whether the store holds no records.
func (a Availability) Empty() bool {
	return a.Records == 0
}
