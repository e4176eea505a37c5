// Package utils provides ticker, date and number helpers shared across nsequant.
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero.
// NaN and infinities collapse to 0 so results always encode as JSON.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round2Ptr rounds an optional value; nil stays nil.
func Round2Ptr(v *float64) any {
	if v == nil {
		return nil
	}
	return Round2(*v)
}

// ParseNumber reads a numeric bhavcopy cell. Spaces and thousands separators
// are ignored; blank and "-" cells report ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	if strings.ContainsAny(s, ", ") {
		s = strings.NewReplacer(",", "", " ", "").Replace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	d := decimal.NewFromFloat(Round2(pct))
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// FormatINRCompact formats an amount in lakh/crore notation.
// e.g., 1500000 → "₹15 L", 192734500000 → "₹19273.45 Cr"
func FormatINRCompact(amount float64) string {
	prefix := "₹"
	if amount < 0 {
		prefix = "-₹"
		amount = -amount
	}

	switch {
	case amount >= 1e12:
		return prefix + trimmed(amount/1e12) + " L Cr"
	case amount >= 1e7:
		return prefix + trimmed(amount/1e7) + " Cr"
	case amount >= 1e5:
		return prefix + trimmed(amount/1e5) + " L"
	case amount >= 1e3:
		return prefix + trimmed(amount/1e3) + " K"
	default:
		return prefix + decimal.NewFromFloat(amount).StringFixed(2)
	}
}

// FormatVolume formats a share count in Indian units.
// e.g., 150000 → "1.50 L", 15000000 → "1.50 Cr"
func FormatVolume(volume int64) string {
	v := decimal.NewFromInt(volume)
	switch {
	case volume >= 1e7:
		return v.Div(decimal.NewFromInt(1e7)).StringFixed(2) + " Cr"
	case volume >= 1e5:
		return v.Div(decimal.NewFromInt(1e5)).StringFixed(2) + " L"
	case volume >= 1e3:
		return v.Div(decimal.NewFromInt(1e3)).StringFixed(2) + " K"
	default:
		return v.String()
	}
}

// FormatBytes formats a file size in binary units, e.g. 1536 → "1.50 KiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return decimal.NewFromInt(n).String() + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(div)).StringFixed(2) + " " + []string{"KiB", "MiB", "GiB", "TiB"}[exp]
}

// trimmed renders up to two decimals without trailing zeros.
func trimmed(n float64) string {
	return decimal.NewFromFloat(n).Round(2).String()
}
