package screen

import (
	"context"
	"math"
	"strings"

	"github.com/seenimoa/nsequant/internal/metrics"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// Tool names as seen by callers.
const (
	ToolTopGainers             = "get_top_gainers"
	ToolTopLosers              = "get_top_losers"
	ToolSectorTopPerformers    = "get_sector_top_performers"
	ToolIndexTopPerformers     = "get_index_top_performers"
	ToolMarketCapTopPerformers = "get_market_cap_top_performers"
	ToolVolumeSurge            = "detect_volume_surge"
	ToolDeliveryMomentum       = "get_delivery_momentum"
	ToolBreakouts              = "detect_breakouts"
	Tool52WeekHighLow          = "get_52week_high_low"
	ToolRiskMetrics            = "analyze_risk_metrics"
	ToolMomentumStocks         = "find_momentum_stocks"
	ToolReversalCandidates     = "detect_reversal_candidates"
	ToolVolumePriceDivergence  = "get_volume_price_divergence"
	ToolCompareStocks          = "compare_stocks"
	ToolAnalyzeStock           = "analyze_stock"
)

// Default windows in calendar days.
const (
	windowShort      = 7
	windowMonth      = 30
	windowDelivery   = 14
	windowSurge      = 25
	windowRisk       = 90
	windowMomentum   = 15
	windowReversal   = 35
	windowDivergence = 20
	windowYear       = 365
)

// Fixed pattern thresholds.
const (
	minSurgePoints      = 5
	minRiskPoints       = 10
	minMomentumPoints   = 5
	defaultMinReturn    = 5.0
	defaultMinStreak    = 3
	defaultDivergence   = 20.0
	week52HighProximity = -5.0
	week52LowProximity  = 10.0
)

// ════════════════════════════════════════════════════════════════════
// Performance rankings
// ════════════════════════════════════════════════════════════════════

func performers(tool string, window int, ascending bool) rankSpec {
	return rankSpec{
		tool:      tool,
		metric:    "return_pct",
		window:    window,
		ascending: ascending,
		minPoints: 2,
		value:     returnPct,
		extra: func(s *scored, e models.Entry) {
			e["max_drawdown"] = utils.Round2(s.snap.MaxDrawdown)
			e["volume_avg"] = utils.Round2(s.snap.Volume.Avg)
		},
	}
}

// TopGainers ranks the universe by return, highest first.
func (e *Engine) TopGainers(ctx context.Context, q Query) (*models.Result, error) {
	return e.rank(ctx, q, performers(ToolTopGainers, windowShort, false))
}

// TopLosers ranks the universe by return, lowest first.
func (e *Engine) TopLosers(ctx context.Context, q Query) (*models.Result, error) {
	return e.rank(ctx, q, performers(ToolTopLosers, windowShort, true))
}

// SectorTopPerformers is TopGainers over one sector.
func (e *Engine) SectorTopPerformers(ctx context.Context, sector string, q Query) (*models.Result, error) {
	q.Universe = Sector(sector)
	return e.rank(ctx, q, performers(ToolSectorTopPerformers, windowMonth, false))
}

// IndexTopPerformers is TopGainers over one index.
func (e *Engine) IndexTopPerformers(ctx context.Context, index string, q Query) (*models.Result, error) {
	q.Universe = Index(index)
	return e.rank(ctx, q, performers(ToolIndexTopPerformers, windowMonth, false))
}

// MarketCapTopPerformers is TopGainers over one market-cap bucket.
func (e *Engine) MarketCapTopPerformers(ctx context.Context, category string, q Query) (*models.Result, error) {
	q.Universe = MarketCap(category)
	return e.rank(ctx, q, performers(ToolMarketCapTopPerformers, windowMonth, false))
}

// ════════════════════════════════════════════════════════════════════
// Pattern screens
// ════════════════════════════════════════════════════════════════════

// surgeVerdict grades the surge percent (ratio-1)*100.
func surgeVerdict(ratio float64) string {
	pct := (ratio - 1) * 100
	switch {
	case pct > 100:
		return "EXTREME"
	case pct > 50:
		return "HIGH"
	case pct > 20:
		return "MODERATE"
	case pct < -20:
		return "LOW"
	default:
		return "NORMAL"
	}
}

// VolumeSurge finds symbols whose recent volume exceeds the baseline by more
// than the threshold ratio.
func (e *Engine) VolumeSurge(ctx context.Context, q Query) (*models.Result, error) {
	threshold := orDefault(q.Params.Threshold, e.cfg.SurgeThreshold)
	return e.rank(ctx, q, rankSpec{
		tool:      ToolVolumeSurge,
		metric:    "surge_ratio",
		window:    windowSurge,
		minPoints: minSurgePoints,
		value:     surgeRatio,
		keep: func(s *metrics.Snapshot, _ float64) bool {
			return metrics.SurgeAbove(*s, threshold)
		},
		extra: func(s *scored, en models.Entry) {
			v := s.snap.Volume
			en["recent_avg_volume"] = utils.Round2(v.RecentAvg)
			en["baseline_avg_volume"] = utils.Round2(v.BaselineAvg)
			en["latest_volume"] = v.Latest
			en["surge_pct"] = utils.Round2((s.value - 1) * 100)
			en["verdict"] = surgeVerdict(s.value)
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
		},
		summary: func([]metrics.Snapshot, []scored) map[string]any {
			return map[string]any{"threshold": threshold, "recent_days": e.metrics.Config().SurgeRecentDays}
		},
	})
}

// DeliveryMomentum ranks by average delivery percent above a floor.
func (e *Engine) DeliveryMomentum(ctx context.Context, q Query) (*models.Result, error) {
	minDelivery := orDefault(q.Params.MinDelivery, e.cfg.MinDeliveryPct)
	return e.rank(ctx, q, rankSpec{
		tool:      ToolDeliveryMomentum,
		metric:    "avg_delivery_pct",
		window:    windowDelivery,
		minPoints: 1,
		value:     avgDeliveryPct,
		keep:      func(_ *metrics.Snapshot, v float64) bool { return v >= minDelivery },
		extra: func(s *scored, en models.Entry) {
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
			en["volume_avg"] = utils.Round2(s.snap.Volume.Avg)
		},
		summary: func([]metrics.Snapshot, []scored) map[string]any {
			return map[string]any{"min_delivery_pct": minDelivery}
		},
	})
}

// Breakouts finds strong returns achieved with contained volatility.
func (e *Engine) Breakouts(ctx context.Context, q Query) (*models.Result, error) {
	threshold := orDefault(q.Params.Threshold, e.cfg.BreakoutThreshold)
	maxVol := orDefault(q.Params.MaxVolatility, e.cfg.BreakoutMaxVolatility)
	return e.rank(ctx, q, rankSpec{
		tool:      ToolBreakouts,
		metric:    "return_pct",
		window:    windowShort,
		minPoints: 2,
		value:     returnPct,
		keep: func(s *metrics.Snapshot, v float64) bool {
			return v >= threshold && s.Volatility != nil && *s.Volatility < maxVol
		},
		extra: func(s *scored, en models.Entry) {
			en["surge_ratio"] = utils.Round2Ptr(s.snap.Volume.SurgeRatio)
			en["period_high"] = utils.Round2(s.snap.PeriodHigh)
		},
		summary: func([]metrics.Snapshot, []scored) map[string]any {
			return map[string]any{"threshold": threshold, "max_volatility": maxVol}
		},
	})
}

// Week52HighLow finds symbols trading near their high (side "high") or low
// (side "low") over the window. With an explicit symbol list every requested
// symbol with enough history is reported regardless of proximity. Symbols
// short of history are counted; they are named only for an explicit list or
// at full detail.
func (e *Engine) Week52HighLow(ctx context.Context, q Query) (*models.Result, error) {
	side := strings.ToLower(strings.TrimSpace(q.Params.Side))
	if side != "low" {
		side = "high"
	}
	explicit := q.Universe.kind() == SelectSymbols
	minPoints := e.cfg.Week52MinDays
	listShort := explicit || e.detail(q.Detail) == models.DetailFull

	spec := rankSpec{
		tool:      Tool52WeekHighLow,
		window:    windowYear,
		minPoints: minPoints,
		extra: func(s *scored, en models.Entry) {
			en["period_high"] = utils.Round2(s.snap.PeriodHigh)
			en["period_low"] = utils.Round2(s.snap.PeriodLow)
			en["status"] = week52Status(side, s.value)
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
		},
		summary: func(all []metrics.Snapshot, _ []scored) map[string]any {
			short := []string{}
			for _, s := range all {
				if s.Points < minPoints {
					short = append(short, s.Symbol)
				}
			}
			out := map[string]any{"side": side, "min_days": minPoints, "insufficient_history_count": len(short)}
			// Names only when the caller asked for them or for everything.
			if listShort {
				out["insufficient_history"] = short
			}
			return out
		},
	}
	if side == "high" {
		spec.metric = "distance_from_high_pct"
		spec.value = func(s *metrics.Snapshot) *float64 { return s.DistanceFromHigh }
		spec.keep = func(_ *metrics.Snapshot, v float64) bool { return explicit || v >= week52HighProximity }
	} else {
		spec.metric = "distance_from_low_pct"
		spec.ascending = true
		spec.value = func(s *metrics.Snapshot) *float64 { return s.DistanceFromLow }
		spec.keep = func(_ *metrics.Snapshot, v float64) bool { return explicit || v <= week52LowProximity }
	}
	return e.rank(ctx, q, spec)
}

func week52Status(side string, dist float64) string {
	if side == "high" {
		switch {
		case dist >= -1:
			return "AT_HIGH"
		case dist >= week52HighProximity:
			return "NEAR_HIGH"
		}
		return "AWAY_FROM_HIGH"
	}
	switch {
	case dist <= 1:
		return "AT_LOW"
	case dist <= week52LowProximity:
		return "NEAR_LOW"
	}
	return "AWAY_FROM_LOW"
}

// drawdownLevel buckets the depth of the maximum drawdown.
func drawdownLevel(dd float64) string {
	switch d := math.Abs(dd); {
	case d > 20:
		return "HIGH"
	case d > 10:
		return "MODERATE"
	}
	return "LOW"
}

// riskRating grades the return per unit of volatility.
func riskRating(rar float64) string {
	switch {
	case rar > 1.5:
		return "EXCELLENT"
	case rar > 0.8:
		return "GOOD"
	case rar > 0:
		return "FAIR"
	}
	return "POOR"
}

// RiskMetrics ranks by risk-adjusted return.
func (e *Engine) RiskMetrics(ctx context.Context, q Query) (*models.Result, error) {
	return e.rank(ctx, q, rankSpec{
		tool:      ToolRiskMetrics,
		metric:    "risk_adjusted_return",
		window:    windowRisk,
		minPoints: minRiskPoints,
		value:     riskAdjusted,
		extra: func(s *scored, en models.Entry) {
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
			en["max_drawdown"] = utils.Round2(s.snap.MaxDrawdown)
			en["downside_volatility"] = utils.Round2Ptr(s.snap.DownsideVolatility)
			en["win_rate_pct"] = utils.Round2Ptr(s.snap.WinRatePct)
			en["drawdown_level"] = drawdownLevel(s.snap.MaxDrawdown)
			en["rating"] = riskRating(s.value)
		},
	})
}

// MomentumStocks finds symbols on a winning streak with a solid return.
func (e *Engine) MomentumStocks(ctx context.Context, q Query) (*models.Result, error) {
	minReturn := orDefault(q.Params.MinReturn, defaultMinReturn)
	minStreak := orDefaultInt(q.Params.MinStreak, defaultMinStreak)
	return e.rank(ctx, q, rankSpec{
		tool:      ToolMomentumStocks,
		metric:    "streak_up_days",
		window:    windowMomentum,
		minPoints: minMomentumPoints,
		value:     streakUp,
		intMetric: true,
		keep: func(s *metrics.Snapshot, _ float64) bool {
			return *s.ReturnPct >= minReturn && s.StreakUp >= minStreak
		},
		secondary: returnTiebreak(false),
		extra: func(s *scored, en models.Entry) {
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
			en["volume_trend_pct"] = utils.Round2Ptr(s.snap.VolumeTrendPct)
			en["sma20"] = utils.Round2(s.snap.SMA20)
			en["sma_status"] = smaStatus(s.snap)
		},
		summary: func([]metrics.Snapshot, []scored) map[string]any {
			return map[string]any{"min_return": minReturn, "min_streak": minStreak}
		},
	})
}

func smaStatus(s metrics.Snapshot) string {
	if s.PriceEnd > s.SMA20 {
		return "ABOVE_SMA20"
	}
	return "BELOW_SMA20"
}

// reversalStrength grades a reversal by streak length and volume pickup.
func reversalStrength(s metrics.Snapshot) string {
	vt := 0.0
	if s.VolumeTrendPct != nil {
		vt = *s.VolumeTrendPct
	}
	switch {
	case s.StreakUp >= 3 && vt > 30:
		return "STRONG"
	case s.StreakUp >= 2 && vt > 15:
		return "MODERATE"
	}
	return "WEAK"
}

// ReversalCandidates finds fallen symbols that have started to climb on
// rising volume.
func (e *Engine) ReversalCandidates(ctx context.Context, q Query) (*models.Result, error) {
	return e.rank(ctx, q, rankSpec{
		tool:      ToolReversalCandidates,
		metric:    "streak_up_days",
		window:    windowReversal,
		minPoints: minMomentumPoints,
		value:     streakUp,
		intMetric: true,
		keep: func(s *metrics.Snapshot, _ float64) bool {
			return *s.ReturnPct < -5 &&
				s.StreakUp >= 2 &&
				s.VolumeTrendPct != nil && *s.VolumeTrendPct > 10 &&
				s.DistanceFromLow != nil && *s.DistanceFromLow > 5
		},
		secondary: returnTiebreak(true),
		extra: func(s *scored, en models.Entry) {
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
			en["volume_trend_pct"] = utils.Round2Ptr(s.snap.VolumeTrendPct)
			en["distance_from_low_pct"] = utils.Round2Ptr(s.snap.DistanceFromLow)
			en["strength"] = reversalStrength(s.snap)
		},
	})
}

// VolumePriceDivergence finds price moves unconfirmed by volume. Kind
// "bearish" (default) is price up on falling volume; "bullish" is price
// down on rising volume.
func (e *Engine) VolumePriceDivergence(ctx context.Context, q Query) (*models.Result, error) {
	kind := strings.ToLower(strings.TrimSpace(q.Params.Kind))
	if kind != "bullish" {
		kind = "bearish"
	}
	minDiv := orDefault(q.Params.MinDivergence, defaultDivergence)

	return e.rank(ctx, q, rankSpec{
		tool:      ToolVolumePriceDivergence,
		metric:    "divergence",
		window:    windowDivergence,
		minPoints: 2,
		value: func(s *metrics.Snapshot) *float64 {
			if s.ReturnPct == nil || s.VolumeTrendPct == nil {
				return nil
			}
			d := math.Abs(*s.ReturnPct - *s.VolumeTrendPct)
			return &d
		},
		keep: func(s *metrics.Snapshot, _ float64) bool {
			ret, vt := *s.ReturnPct, *s.VolumeTrendPct
			if kind == "bullish" {
				return ret < -3 && vt > minDiv
			}
			return ret > 3 && vt < -minDiv
		},
		extra: func(s *scored, en models.Entry) {
			en["return_pct"] = utils.Round2Ptr(s.snap.ReturnPct)
			en["volume_trend_pct"] = utils.Round2Ptr(s.snap.VolumeTrendPct)
			en["kind"] = kind
			if s.value > 40 {
				en["strength"] = "HIGH"
			} else {
				en["strength"] = "MODERATE"
			}
		},
		summary: func([]metrics.Snapshot, []scored) map[string]any {
			return map[string]any{"kind": kind, "min_divergence": minDiv}
		},
	})
}

// CompareStocks ranks an explicit list by return without truncation.
func (e *Engine) CompareStocks(ctx context.Context, q Query) (*models.Result, error) {
	spec := performers(ToolCompareStocks, windowMonth, false)
	spec.onlyList = true
	spec.noTruncate = true
	spec.summary = func(_ []metrics.Snapshot, ranked []scored) map[string]any {
		if len(ranked) == 0 {
			return nil
		}
		return map[string]any{
			"best":  ranked[0].snap.Symbol,
			"worst": ranked[len(ranked)-1].snap.Symbol,
		}
	}
	return e.rank(ctx, q, spec)
}
