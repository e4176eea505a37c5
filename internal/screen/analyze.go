package screen

import (
	"context"
	"fmt"

	"github.com/seenimoa/nsequant/internal/metrics"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// stockVerdict reads return and delivery together. First match wins.
func stockVerdict(s metrics.Snapshot) string {
	ret := deref(s.ReturnPct)
	del := deref(s.AvgDeliveryPct)
	vol := deref(s.Volatility)
	switch {
	case ret > 5 && del > 60:
		return "STRONG_ACCUMULATION"
	case ret > 3 && del > 50:
		return "POSITIVE_MOMENTUM"
	case ret < -5 && del > 60:
		return "DISTRIBUTION"
	case ret < -3:
		return "WEAKNESS"
	case vol > 10:
		return "HIGH_VOLATILITY"
	}
	return "NEUTRAL"
}

// stockTrend compares the last close with the 20 and 50 day averages.
func stockTrend(s metrics.Snapshot) string {
	switch {
	case s.PriceEnd > s.SMA20 && s.SMA20 > s.SMA50:
		return "UP"
	case s.PriceEnd < s.SMA20 && s.SMA20 < s.SMA50:
		return "DOWN"
	}
	return "SIDEWAYS"
}

// AnalyzeStock returns the full metric picture for one symbol.
func (e *Engine) AnalyzeStock(ctx context.Context, symbol string, q Query) (*models.Result, error) {
	if err := e.prices.Load(ctx); err != nil {
		return nil, err
	}
	sym := utils.NormalizeTicker(symbol)
	if sym == "" {
		return nil, &InvalidUniverseError{Selector: SelectSymbols, Value: symbol, Err: ErrEmptyUniverse}
	}
	detail := e.detail(q.Detail)
	spec := rankSpec{tool: ToolAnalyzeStock, metric: "return_pct"}
	u := resolved{symbols: []string{sym}, label: "symbols:" + sym}

	w, msg := e.resolveWindow(q.Start, q.End, windowMonth)
	if msg != "" {
		return e.noData(spec, u, detail, msg), nil
	}
	rows := e.prices.RowsForSymbol(sym, w.start, w.end)
	snap := e.metrics.Compute(sym, rows)
	trading := len(e.prices.TradingDates(w.start, w.end))
	if snap.Points == 0 {
		res := e.noData(spec, u, detail, fmt.Sprintf("no data for %s between %s and %s",
			sym, utils.FormatDate(w.start), utils.FormatDate(w.end)))
		res.Period = w.period(trading)
		return res, nil
	}

	verdict, trend := stockVerdict(snap), stockTrend(snap)
	entry := models.Entry{
		"symbol":     sym,
		"return_pct": utils.Round2Ptr(snap.ReturnPct),
		"verdict":    verdict,
		"trend":      trend,
	}
	if detail >= models.DetailStandard {
		entry["price_start"] = utils.Round2(snap.PriceStart)
		entry["price_end"] = utils.Round2(snap.PriceEnd)
		entry["volatility"] = utils.Round2Ptr(snap.Volatility)
		entry["avg_delivery_pct"] = utils.Round2Ptr(snap.AvgDeliveryPct)
		entry["period_high"] = utils.Round2(snap.PeriodHigh)
		entry["period_low"] = utils.Round2(snap.PeriodLow)
		entry["sma20"] = utils.Round2(snap.SMA20)
		entry["sma50"] = utils.Round2(snap.SMA50)
	}
	if detail == models.DetailFull {
		for k, v := range fullSnapshot(snap) {
			entry[k] = v
		}
		entry["classification"] = e.index.Classify(sym)
	}

	return &models.Result{
		Tool:     ToolAnalyzeStock,
		Status:   models.StatusOK,
		Period:   w.period(trading),
		Universe: u.label,
		Metric:   spec.metric,
		Detail:   detail.String(),
		Count:    1,
		Results:  []models.Entry{entry},
		Summary:  map[string]any{"verdict": verdict, "trend": trend},
	}, nil
}

// fullSnapshot flattens every snapshot metric for output.
func fullSnapshot(s metrics.Snapshot) models.Entry {
	sma20Dist := any(nil)
	if s.SMA20 > 0 {
		sma20Dist = utils.Round2((s.PriceEnd/s.SMA20 - 1) * 100)
	}
	return models.Entry{
		"data_points":            s.Points,
		"start_date":             utils.FormatDate(s.StartDate),
		"end_date":               utils.FormatDate(s.EndDate),
		"max_drawdown":           utils.Round2(s.MaxDrawdown),
		"streak_up_days":         s.StreakUp,
		"streak_down_days":       s.StreakDown,
		"momentum_5d":            utils.Round2Ptr(s.Momentum5d),
		"volume_trend_pct":       utils.Round2Ptr(s.VolumeTrendPct),
		"distance_from_high_pct": utils.Round2Ptr(s.DistanceFromHigh),
		"distance_from_low_pct":  utils.Round2Ptr(s.DistanceFromLow),
		"downside_volatility":    utils.Round2Ptr(s.DownsideVolatility),
		"win_rate_pct":           utils.Round2Ptr(s.WinRatePct),
		"risk_adjusted_return":   utils.Round2Ptr(s.RiskAdjustedReturn),
		"sma20_distance_pct":     sma20Dist,
		"volume": map[string]any{
			"avg":          utils.Round2(s.Volume.Avg),
			"min":          s.Volume.Min,
			"max":          s.Volume.Max,
			"latest":       s.Volume.Latest,
			"recent_avg":   utils.Round2(s.Volume.RecentAvg),
			"baseline_avg": utils.Round2(s.Volume.BaselineAvg),
			"surge_ratio":  utils.Round2Ptr(s.Volume.SurgeRatio),
			"avg_value":    utils.Round2(s.Volume.AvgValue),
		},
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
