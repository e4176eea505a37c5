// Package screen implements the ranking and screening tools: stateless
// queries over the price store, the classification index and the metrics
// engine that return ranked, detail-tiered results.
package screen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/nsequant/internal/classify"
	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/internal/logging"
	"github.com/seenimoa/nsequant/internal/metrics"
	"github.com/seenimoa/nsequant/internal/store"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Prices is the read side of the price store.
type Prices interface {
	Load(ctx context.Context) error
	AvailableRange() models.Availability
	Symbols() []string
	TradingDates(start, end time.Time) []time.Time
	RowsForSymbol(symbol string, start, end time.Time) []models.PriceRecord
	RowsForUniverse(symbols []string, start, end time.Time) map[string][]models.PriceRecord
	CacheStatus() store.CacheInfo
	Source() store.Source
}

// Params carries tool-specific thresholds. Nil fields take the configured
// or per-tool default.
type Params struct {
	Threshold     *float64 // volume surge ratio, breakout return
	MaxVolatility *float64
	MinDelivery   *float64
	MinReturn     *float64
	MinStreak     *int
	MinDivergence *float64
	Side          string // 52-week: "high" or "low"
	Kind          string // divergence: "bearish" or "bullish"
}

// Query is the common input of every ranking tool. Zero dates take the
// tool's default window ending on the last available date.
type Query struct {
	Universe Universe
	Start    time.Time
	End      time.Time
	TopN     int
	Detail   string
	Params   Params
}

// Engine runs the tools.
type Engine struct {
	prices  Prices
	index   *classify.Index
	metrics *metrics.Engine
	cfg     config.AnalysisConfig
	log     *slog.Logger
}

// New wires an Engine. A nil index behaves as an empty classification.
func New(prices Prices, index *classify.Index, cfg config.AnalysisConfig, log *slog.Logger) *Engine {
	if index == nil {
		index = classify.NewFromMaps(nil, nil)
	}
	return &Engine{
		prices:  prices,
		index:   index,
		metrics: metrics.New(metrics.ConfigFrom(cfg)),
		cfg:     cfg,
		log:     logging.OrNop(log),
	}
}

// Index exposes the classification index the engine resolves against.
func (e *Engine) Index() *classify.Index { return e.index }

// Config returns the analysis settings.
func (e *Engine) Config() config.AnalysisConfig { return e.cfg }

// ── Query normalisation ──

func (e *Engine) topN(n int) int {
	if n <= 0 {
		n = e.cfg.DefaultTopN
	}
	if e.cfg.MaxTopN > 0 && n > e.cfg.MaxTopN {
		n = e.cfg.MaxTopN
	}
	return n
}

func (e *Engine) detail(s string) models.DetailLevel {
	if d, ok := models.ParseDetailLevel(s); ok {
		return d
	}
	d, _ := models.ParseDetailLevel(e.cfg.DefaultDetail)
	return d
}

// window is a resolved query period.
type window struct {
	start, end time.Time
	defaulted  bool
}

func (w window) period(trading int) *models.Period {
	return &models.Period{
		Start:          utils.FormatDate(w.start),
		End:            utils.FormatDate(w.end),
		TradingDays:    trading,
		DatesDefaulted: w.defaulted,
	}
}

// resolveWindow fills omitted dates and checks the range against the data.
// A non-empty message means the query has no data.
func (e *Engine) resolveWindow(start, end time.Time, defaultDays int) (window, string) {
	av := e.prices.AvailableRange()
	if av.Empty() {
		return window{}, "no price data is loaded"
	}

	w := window{start: utils.Day(start), end: utils.Day(end)}
	if end.IsZero() {
		w.end = av.MaxDate
		w.defaulted = true
	}
	if start.IsZero() {
		w.start = w.end.AddDate(0, 0, -defaultDays)
		w.defaulted = true
	}

	if w.start.After(w.end) {
		return w, fmt.Sprintf("start date %s is after end date %s",
			utils.FormatDate(w.start), utils.FormatDate(w.end))
	}
	if !(models.Range{Start: w.start, End: w.end}).Overlaps(av.Range()) {
		return w, fmt.Sprintf("no data between %s and %s; available range is %s to %s",
			utils.FormatDate(w.start), utils.FormatDate(w.end),
			utils.FormatDate(av.MinDate), utils.FormatDate(av.MaxDate))
	}
	return w, ""
}

func orDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func orDefaultInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
