// Package metrics derives per-symbol statistics from a window of daily rows.
//
// Computation is pure: the same rows always give the same Snapshot. Values
// keep full float precision; rounding happens when results are shaped for
// output. Optional metrics are pointers and stay nil when the window cannot
// define them.
package metrics

import (
	"time"

	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/pkg/models"
)

// Config holds the metric tunables.
type Config struct {
	MinValidClose   float64 // closes at or below are dropped as bad ticks
	SurgeRecentDays int     // rows in the "recent" volume window
}

// ConfigFrom picks the metric settings out of the analysis config.
func ConfigFrom(cfg config.AnalysisConfig) Config {
	return Config{MinValidClose: cfg.MinValidClose, SurgeRecentDays: cfg.SurgeRecentDays}
}

// VolumeStats summarises traded quantity over the window.
type VolumeStats struct {
	Avg         float64
	Min         int64
	Max         int64
	Latest      int64
	RecentAvg   float64
	BaselineAvg float64
	SurgeRatio  *float64 // RecentAvg / BaselineAvg; nil without a usable baseline
	AvgValue    float64  // mean traded value in INR
}

// Snapshot is the set of metrics for one symbol over one window.
type Snapshot struct {
	Symbol     string
	Points     int
	StartDate  time.Time
	EndDate    time.Time
	PriceStart float64
	PriceEnd   float64

	ReturnPct      *float64
	Volatility     *float64 // sample std of daily % returns
	AvgDeliveryPct *float64

	Volume         VolumeStats
	VolumeTrendPct *float64 // second-half avg volume vs first-half

	MaxDrawdown float64 // non-positive percent
	StreakUp    int
	StreakDown  int

	PeriodHigh float64
	PeriodLow  float64
	SMA20      float64
	SMA50      float64

	Momentum5d         *float64
	DistanceFromHigh   *float64 // non-positive percent
	DistanceFromLow    *float64 // non-negative percent
	DownsideVolatility *float64
	WinRatePct         *float64
	RiskAdjustedReturn *float64 // ReturnPct / Volatility
}

// Engine computes snapshots.
type Engine struct {
	cfg Config
}

// New returns an Engine. Non-positive SurgeRecentDays means 3.
func New(cfg Config) *Engine {
	if cfg.SurgeRecentDays <= 0 {
		cfg.SurgeRecentDays = 3
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine settings.
func (e *Engine) Config() Config { return e.cfg }

// Valid drops rows whose close is at or below the bad-tick floor.
func (e *Engine) Valid(rows []models.PriceRecord) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(rows))
	for _, r := range rows {
		if r.Close > e.cfg.MinValidClose {
			out = append(out, r)
		}
	}
	return out
}

// Compute derives a Snapshot from rows ordered oldest first.
func (e *Engine) Compute(symbol string, rows []models.PriceRecord) Snapshot {
	rows = e.Valid(rows)
	s := Snapshot{Symbol: symbol, Points: len(rows)}
	if len(rows) == 0 {
		return s
	}

	first, last := rows[0], rows[len(rows)-1]
	s.StartDate, s.EndDate = first.Date, last.Date
	s.PriceStart, s.PriceEnd = first.Close, last.Close

	closes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
	}

	if len(rows) >= 2 && s.PriceStart != 0 {
		s.ReturnPct = ptr((s.PriceEnd - s.PriceStart) / s.PriceStart * 100)
	}

	returns := pctChanges(closes)
	if len(returns) >= 2 {
		vol := stddev(returns)
		s.Volatility = ptr(vol)
		if s.ReturnPct != nil && vol > 0 {
			s.RiskAdjustedReturn = ptr(*s.ReturnPct / vol)
		}
	}
	if len(returns) > 0 {
		var downs []float64
		wins := 0
		for _, r := range returns {
			if r < 0 {
				downs = append(downs, r)
			}
			if r > 0 {
				wins++
			}
		}
		s.DownsideVolatility = ptr(stddev(downs))
		s.WinRatePct = ptr(float64(wins) / float64(len(returns)) * 100)
	}

	s.AvgDeliveryPct = avgDelivery(rows)
	s.Volume = e.volumeStats(rows)
	s.VolumeTrendPct = volumeTrend(rows)

	s.MaxDrawdown = MaxDrawdown(closes)
	s.StreakUp, s.StreakDown = Streaks(closes)

	s.PeriodHigh, s.PeriodLow = highLow(rows)
	s.SMA20 = SMALatest(closes, 20)
	s.SMA50 = SMALatest(closes, 50)

	if len(closes) >= 2 {
		back := len(closes) - 6 // five sessions before the last
		if back < 0 {
			back = 0
		}
		if base := closes[back]; base != 0 {
			s.Momentum5d = ptr((s.PriceEnd - base) / base * 100)
		}
	}
	if s.PeriodHigh > 0 {
		s.DistanceFromHigh = ptr((s.PriceEnd - s.PeriodHigh) / s.PeriodHigh * 100)
	}
	if s.PeriodLow > 0 {
		s.DistanceFromLow = ptr((s.PriceEnd - s.PeriodLow) / s.PeriodLow * 100)
	}
	return s
}

// SurgeAbove reports whether the recent volume ratio strictly exceeds
// threshold. A snapshot without a ratio never surges.
func SurgeAbove(s Snapshot, threshold float64) bool {
	return s.Volume.SurgeRatio != nil && *s.Volume.SurgeRatio > threshold
}

func (e *Engine) volumeStats(rows []models.PriceRecord) VolumeStats {
	vols := make([]float64, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		vols[i] = float64(r.Volume)
		values[i] = r.Value
	}
	lo, hi := minMax(vols)
	vs := VolumeStats{
		Avg:      mean(vols),
		Min:      int64(lo),
		Max:      int64(hi),
		Latest:   rows[len(rows)-1].Volume,
		AvgValue: mean(values),
	}

	n := e.cfg.SurgeRecentDays
	if n > len(vols) {
		n = len(vols)
	}
	recent, baseline := vols[len(vols)-n:], vols[:len(vols)-n]
	vs.RecentAvg = mean(recent)
	if len(baseline) > 0 {
		vs.BaselineAvg = mean(baseline)
		if vs.BaselineAvg > 0 {
			vs.SurgeRatio = ptr(vs.RecentAvg / vs.BaselineAvg)
		}
	}
	return vs
}

// volumeTrend compares the average volume of the later half of the window
// with the earlier half, in percent.
func volumeTrend(rows []models.PriceRecord) *float64 {
	if len(rows) < 2 {
		return nil
	}
	half := len(rows) / 2
	var early, late float64
	for i, r := range rows {
		if i < half {
			early += float64(r.Volume)
		} else {
			late += float64(r.Volume)
		}
	}
	early /= float64(half)
	late /= float64(len(rows) - half)
	if early == 0 {
		return nil
	}
	return ptr((late - early) / early * 100)
}

func avgDelivery(rows []models.PriceRecord) *float64 {
	sum, n := 0.0, 0
	for _, r := range rows {
		if r.HasDelivery {
			sum += r.DeliveryPct
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return ptr(sum / float64(n))
}

// highLow uses the HIGH and LOW columns, falling back to the close for rows
// that lack them.
func highLow(rows []models.PriceRecord) (hi, lo float64) {
	for i, r := range rows {
		h, l := r.High, r.Low
		if h <= 0 {
			h = r.Close
		}
		if l <= 0 {
			l = r.Close
		}
		if i == 0 || h > hi {
			hi = h
		}
		if i == 0 || l < lo {
			lo = l
		}
	}
	return hi, lo
}

func ptr(v float64) *float64 { return &v }
