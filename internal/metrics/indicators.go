package metrics

import "math"

// ════════════════════════════════════════════════════════════════════
// Series helpers
// ════════════════════════════════════════════════════════════════════

// SMA returns the simple moving average series for period. Entries before
// the first full window are zero. Nil if there are fewer points than period.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}
	return result
}

// SMALatest returns the latest SMA value. With fewer points than period it
// falls back to the mean of everything available.
func SMALatest(data []float64, period int) float64 {
	if vals := SMA(data, period); len(vals) > 0 {
		return vals[len(vals)-1]
	}
	return mean(data)
}

// pctChanges returns close-to-close percent changes. A zero previous close
// yields a zero change.
func pctChanges(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i-1] = (closes[i] - closes[i-1]) / closes[i-1] * 100
		}
	}
	return out
}

// MaxDrawdown returns the largest peak-to-trough fall of closes as a
// non-positive percent.
func MaxDrawdown(closes []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := (c - peak) / peak * 100; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// Streaks counts the trailing run of up days and of down days. At most one
// of the two is non-zero; a flat last day resets both.
func Streaks(closes []float64) (up, down int) {
	for i := len(closes) - 1; i > 0; i-- {
		d := closes[i] - closes[i-1]
		switch {
		case d > 0 && down == 0:
			up++
		case d < 0 && up == 0:
			down++
		default:
			return up, down
		}
	}
	return up, down
}

// ────────────────────────────────────────────────────────────────────
// Statistics
// ────────────────────────────────────────────────────────────────────

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// stddev is the sample standard deviation (n-1). Zero for fewer than two
// values.
func stddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}

func minMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
