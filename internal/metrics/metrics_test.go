package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsequant/pkg/models"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// series builds consecutive daily rows from closes and volumes.
func series(closes []float64, volumes []int64) []models.PriceRecord {
	rows := make([]models.PriceRecord, len(closes))
	for i, c := range closes {
		rows[i] = models.PriceRecord{Date: base.AddDate(0, 0, i), Symbol: "TEST", Series: "EQ", Close: c}
		if i < len(volumes) {
			rows[i].Volume = volumes[i]
		}
	}
	return rows
}

func engine() *Engine {
	return New(Config{MinValidClose: 0.5, SurgeRecentDays: 3})
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ── Return ──

func TestReturnPct(t *testing.T) {
	s := engine().Compute("TEST", series([]float64{100, 104, 98, 110}, nil))
	require.NotNil(t, s.ReturnPct)
	assert.Equal(t, 10.0, round2(*s.ReturnPct))
	assert.Equal(t, 100.0, s.PriceStart)
	assert.Equal(t, 110.0, s.PriceEnd)
	assert.Equal(t, 4, s.Points)
	assert.Equal(t, base, s.StartDate)
	assert.Equal(t, base.AddDate(0, 0, 3), s.EndDate)
}

func TestReturnAccuracy(t *testing.T) {
	tests := []struct {
		start, end float64
		want       float64
	}{
		{1234.5, 1300.25, 5.33},
		{87.65, 80.1, -8.61},
		{10, 10, 0},
		{0.55, 1.1, 100},
	}
	for _, tt := range tests {
		s := engine().Compute("X", series([]float64{tt.start, tt.end}, nil))
		require.NotNil(t, s.ReturnPct)
		if got := round2(*s.ReturnPct); got != tt.want {
			t.Errorf("return %v→%v: got %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestSinglePointHasNoReturn(t *testing.T) {
	s := engine().Compute("X", series([]float64{100}, []int64{10}))
	assert.Nil(t, s.ReturnPct)
	assert.Nil(t, s.Volatility)
	assert.Equal(t, 1, s.Points)
}

func TestBadTicksDropped(t *testing.T) {
	s := engine().Compute("X", series([]float64{0.05, 100, 0.5, 120}, nil))
	assert.Equal(t, 2, s.Points)
	assert.Equal(t, 100.0, s.PriceStart)
	require.NotNil(t, s.ReturnPct)
	assert.Equal(t, 20.0, round2(*s.ReturnPct))
}

func TestEmptyRows(t *testing.T) {
	s := engine().Compute("X", nil)
	assert.Zero(t, s.Points)
	assert.Nil(t, s.ReturnPct)
	assert.Nil(t, s.Volume.SurgeRatio)
}

// ── Volatility and risk ──

func TestVolatility(t *testing.T) {
	// Returns: +10%, -10%. Sample std = sqrt(((10-0)^2 + (-10-0)^2) / 1) = 14.142...
	s := engine().Compute("X", series([]float64{100, 110, 99}, nil))
	require.NotNil(t, s.Volatility)
	assert.InDelta(t, 14.1421, *s.Volatility, 1e-3)

	two := engine().Compute("X", series([]float64{100, 110}, nil))
	assert.Nil(t, two.Volatility, "one return has no sample deviation")

	flat := engine().Compute("X", series([]float64{50, 50, 50}, nil))
	require.NotNil(t, flat.Volatility)
	assert.Zero(t, *flat.Volatility)
	assert.Nil(t, flat.RiskAdjustedReturn, "zero volatility leaves risk-adjusted return undefined")
}

func TestRiskMetrics(t *testing.T) {
	s := engine().Compute("X", series([]float64{100, 120, 90, 95, 80, 130}, nil))
	assert.InDelta(t, -33.333, s.MaxDrawdown, 1e-2) // 120 → 80
	require.NotNil(t, s.WinRatePct)
	assert.Equal(t, 60.0, *s.WinRatePct) // 3 of 5 days up
	require.NotNil(t, s.DownsideVolatility)
	assert.Positive(t, *s.DownsideVolatility)
	require.NotNil(t, s.RiskAdjustedReturn)
	assert.InDelta(t, *s.ReturnPct / *s.Volatility, *s.RiskAdjustedReturn, 1e-9)
}

func TestMaxDrawdownMonotoneRise(t *testing.T) {
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3, 4}))
	assert.Zero(t, MaxDrawdown(nil))
}

// ── Streaks ──

func TestStreaks(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		up, down int
	}{
		{"three up", []float64{10, 9, 10, 11, 12}, 3, 0},
		{"two down", []float64{10, 11, 10, 9}, 0, 2},
		{"flat resets", []float64{10, 11, 12, 12}, 0, 0},
		{"single", []float64{10}, 0, 0},
		{"all up", []float64{1, 2, 3}, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down := Streaks(tt.closes)
			if up != tt.up || down != tt.down {
				t.Errorf("Streaks(%v): got (%d, %d), want (%d, %d)", tt.closes, up, down, tt.up, tt.down)
			}
		})
	}
}

// ── Volume ──

func TestVolumeStats(t *testing.T) {
	s := engine().Compute("X", series(
		[]float64{10, 10, 10, 10, 10, 10},
		[]int64{100, 200, 300, 400, 500, 600},
	))
	v := s.Volume
	assert.Equal(t, 350.0, v.Avg)
	assert.Equal(t, int64(100), v.Min)
	assert.Equal(t, int64(600), v.Max)
	assert.Equal(t, int64(600), v.Latest)
	assert.Equal(t, 500.0, v.RecentAvg)
	assert.Equal(t, 200.0, v.BaselineAvg)
	require.NotNil(t, v.SurgeRatio)
	assert.Equal(t, 2.5, *v.SurgeRatio)

	require.NotNil(t, s.VolumeTrendPct)
	assert.Equal(t, 150.0, *s.VolumeTrendPct) // 500 vs 200
}

func TestAvgTradedValue(t *testing.T) {
	rows := series([]float64{10, 10, 10, 10}, []int64{1, 1, 1, 1})
	for i, v := range []float64{1e5, 2e5, 3e5, 6e5} {
		rows[i].Value = v
	}
	assert.Equal(t, 3e5, engine().Compute("X", rows).Volume.AvgValue)
}

func TestSurgeAboveIsStrict(t *testing.T) {
	// Baseline 100, recent 200: ratio exactly 2.0.
	s := engine().Compute("X", series(
		[]float64{10, 10, 10, 10, 10},
		[]int64{100, 100, 200, 200, 200},
	))
	require.NotNil(t, s.Volume.SurgeRatio)
	assert.Equal(t, 2.0, *s.Volume.SurgeRatio)
	assert.False(t, SurgeAbove(s, 2.0), "a ratio equal to the threshold is not a surge")
	assert.True(t, SurgeAbove(s, 1.99))
}

func TestSurgeWithoutBaseline(t *testing.T) {
	short := engine().Compute("X", series([]float64{10, 10, 10}, []int64{1, 2, 3}))
	assert.Nil(t, short.Volume.SurgeRatio, "every row is recent, no baseline")
	assert.False(t, SurgeAbove(short, 0))

	zero := engine().Compute("X", series([]float64{10, 10, 10, 10}, []int64{0, 5, 5, 5}))
	assert.Nil(t, zero.Volume.SurgeRatio, "zero baseline")
}

// ── Delivery ──

func TestAvgDelivery(t *testing.T) {
	rows := series([]float64{10, 11, 12}, nil)
	assert.Nil(t, engine().Compute("X", rows).AvgDeliveryPct)

	rows[0].HasDelivery, rows[0].DeliveryPct = true, 40
	rows[2].HasDelivery, rows[2].DeliveryPct = true, 70
	got := engine().Compute("X", rows).AvgDeliveryPct
	require.NotNil(t, got)
	assert.Equal(t, 55.0, *got, "rows without delivery data are not averaged in")
}

// ── Levels ──

func TestHighLowAndDistances(t *testing.T) {
	rows := series([]float64{100, 120, 80, 90}, nil)
	rows[1].High = 125
	rows[2].Low = 78
	s := engine().Compute("X", rows)
	assert.Equal(t, 125.0, s.PeriodHigh)
	assert.Equal(t, 78.0, s.PeriodLow)
	require.NotNil(t, s.DistanceFromHigh)
	assert.InDelta(t, -28.0, *s.DistanceFromHigh, 1e-9)
	require.NotNil(t, s.DistanceFromLow)
	assert.InDelta(t, 15.3846, *s.DistanceFromLow, 1e-3)
}

func TestSMA(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 2, 3, 4}, SMA([]float64{1, 2, 3, 4, 5}, 3))
	assert.Nil(t, SMA([]float64{1, 2}, 3))
	assert.Equal(t, 1.5, SMALatest([]float64{1, 2}, 20), "short windows fall back to the mean")

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	s := engine().Compute("X", series(closes, nil))
	assert.Equal(t, 50.5, s.SMA20)
	assert.Equal(t, 35.5, s.SMA50)
	require.NotNil(t, s.Momentum5d)
	assert.InDelta(t, (60.0-55.0)/55.0*100, *s.Momentum5d, 1e-9)
}
