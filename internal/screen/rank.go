package screen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/seenimoa/nsequant/internal/metrics"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

// rankSpec describes one ranking tool. The pipeline is the same for all of
// them: resolve the universe, compute snapshots, drop symbols whose metric is
// undefined, filter, sort, truncate and project.
type rankSpec struct {
	tool      string
	metric    string
	window    int  // default calendar days when a date is omitted
	ascending bool // losers and lows sort smallest first
	minPoints int

	value func(s *metrics.Snapshot) *float64
	keep  func(s *metrics.Snapshot, v float64) bool

	// secondary orders ties on the primary metric before the symbol tie-break.
	// It returns true when a ranks ahead of b.
	secondary func(a, b *scored) (less, decided bool)

	// extra adds the tool's own fields at the full detail level.
	extra func(s *scored, e models.Entry)

	// summary adds tool-level fields to the envelope.
	summary func(all []metrics.Snapshot, ranked []scored) map[string]any

	intMetric  bool
	noTruncate bool
	onlyList   bool // explicit symbol lists only
}

type scored struct {
	snap  metrics.Snapshot
	value float64
	key   float64 // value as reported, used for ordering
}

func (e *Engine) rank(ctx context.Context, q Query, spec rankSpec) (*models.Result, error) {
	start := time.Now()
	if err := e.prices.Load(ctx); err != nil {
		return nil, err
	}
	if spec.onlyList && q.Universe.kind() != SelectSymbols {
		return nil, &InvalidUniverseError{Selector: q.Universe.kind(), Value: q.Universe.Name,
			Err: fmt.Errorf("%s needs an explicit symbol list", spec.tool)}
	}

	u, err := e.resolve(q.Universe)
	if err != nil {
		return nil, err
	}
	detail := e.detail(q.Detail)

	w, msg := e.resolveWindow(q.Start, q.End, spec.window)
	if msg != "" {
		res := e.noData(spec, u, detail, msg)
		if !w.start.IsZero() {
			res.Period = w.period(0)
		}
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := e.prices.RowsForUniverse(u.symbols, w.start, w.end)
	snaps := make([]metrics.Snapshot, 0, len(rows))
	for _, sym := range u.symbols {
		if r, ok := rows[sym]; ok {
			snaps = append(snaps, e.metrics.Compute(sym, r))
		}
	}

	defined := make([]scored, 0, len(snaps))
	for i := range snaps {
		s := &snaps[i]
		if s.Points < spec.minPoints {
			continue
		}
		if v := spec.value(s); v != nil {
			defined = append(defined, scored{snap: *s, value: *v, key: utils.Round2(*v)})
		}
	}
	trading := len(e.prices.TradingDates(w.start, w.end))

	if len(defined) == 0 {
		res := e.noData(spec, u, detail, fmt.Sprintf("no symbol in %s has enough data for %s between %s and %s",
			u.label, spec.metric, utils.FormatDate(w.start), utils.FormatDate(w.end)))
		res.Period = w.period(trading)
		return res, nil
	}

	kept := make([]scored, 0, len(defined))
	for i := range defined {
		if spec.keep == nil || spec.keep(&defined[i].snap, defined[i].value) {
			kept = append(kept, defined[i])
		}
	}
	sortScored(kept, spec)

	matched := len(kept)
	if !spec.noTruncate {
		if n := e.topN(q.TopN); len(kept) > n {
			kept = kept[:n]
		}
	}

	entries := make([]models.Entry, len(kept))
	for i := range kept {
		entries[i] = project(&kept[i], i+1, spec, detail)
	}

	summary := map[string]any{
		"universe_size": len(u.symbols),
		"with_data":     len(rows),
		"evaluated":     len(defined),
		"matched":       matched,
	}
	if spec.summary != nil {
		for k, v := range spec.summary(snaps, kept) {
			summary[k] = v
		}
	}

	e.log.Debug("tool ran",
		"tool", spec.tool,
		"universe", u.label,
		"symbols", len(u.symbols),
		"matched", matched,
		"elapsed", time.Since(start).Round(time.Microsecond),
	)
	return &models.Result{
		Tool:     spec.tool,
		Status:   models.StatusOK,
		Period:   w.period(trading),
		Universe: u.label,
		Metric:   spec.metric,
		Detail:   detail.String(),
		Count:    len(entries),
		Results:  entries,
		Summary:  summary,
	}, nil
}

func (e *Engine) noData(spec rankSpec, u resolved, detail models.DetailLevel, msg string) *models.Result {
	res := models.NoData(spec.tool, msg)
	res.Universe = u.label
	res.Metric = spec.metric
	res.Detail = detail.String()
	return res
}

// sortScored orders by the primary metric as reported (two decimals), then
// the tool's secondary key, then symbol ascending. Values that print the
// same are ties. The sort is stable.
func sortScored(list []scored, spec rankSpec) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := &list[i], &list[j]
		if a.key != b.key {
			if spec.ascending {
				return a.key < b.key
			}
			return a.key > b.key
		}
		if spec.secondary != nil {
			if less, decided := spec.secondary(a, b); decided {
				return less
			}
		}
		return a.snap.Symbol < b.snap.Symbol
	})
}

// project shapes one ranked row. Each level is a superset of the one below
// and the primary metric is the same value at every level.
func project(s *scored, rank int, spec rankSpec, detail models.DetailLevel) models.Entry {
	e := models.Entry{"symbol": s.snap.Symbol}
	if spec.intMetric {
		e[spec.metric] = int(s.value)
	} else {
		e[spec.metric] = utils.Round2(s.value)
	}
	if detail == models.DetailCompact {
		return e
	}

	e["rank"] = rank
	e["price_start"] = utils.Round2(s.snap.PriceStart)
	e["price_end"] = utils.Round2(s.snap.PriceEnd)
	if detail == models.DetailStandard {
		return e
	}

	e["volatility"] = utils.Round2Ptr(s.snap.Volatility)
	e["avg_delivery_pct"] = utils.Round2Ptr(s.snap.AvgDeliveryPct)
	e["data_points"] = s.snap.Points
	e["start_date"] = utils.FormatDate(s.snap.StartDate)
	e["end_date"] = utils.FormatDate(s.snap.EndDate)
	if spec.extra != nil {
		spec.extra(s, e)
	}
	// Extras never replace the primary metric.
	if spec.intMetric {
		e[spec.metric] = int(s.value)
	} else {
		e[spec.metric] = utils.Round2(s.value)
	}
	return e
}

// ── Snapshot accessors ──

func returnPct(s *metrics.Snapshot) *float64      { return s.ReturnPct }
func avgDeliveryPct(s *metrics.Snapshot) *float64 { return s.AvgDeliveryPct }
func surgeRatio(s *metrics.Snapshot) *float64     { return s.Volume.SurgeRatio }
func riskAdjusted(s *metrics.Snapshot) *float64   { return s.RiskAdjustedReturn }

func streakUp(s *metrics.Snapshot) *float64 {
	if s.ReturnPct == nil {
		return nil
	}
	v := float64(s.StreakUp)
	return &v
}

// returnTiebreak orders equal primaries by return, descending unless asc.
func returnTiebreak(asc bool) func(a, b *scored) (bool, bool) {
	return func(a, b *scored) (bool, bool) {
		ra, rb := *a.snap.ReturnPct, *b.snap.ReturnPct
		if ra == rb {
			return false, false
		}
		if asc {
			return ra < rb, true
		}
		return ra > rb, true
	}
}
