package utils

import (
	"strings"
)

// Common NSE ticker aliases and normalizations.
var tickerAliases = map[string]string{
	"RELIANCE":      "RELIANCE",
	"RIL":           "RELIANCE",
	"TCS":           "TCS",
	"INFOSYS":       "INFY",
	"INFY":          "INFY",
	"HDFCBANK":      "HDFCBANK",
	"HDFC BANK":     "HDFCBANK",
	"ICICIBANK":     "ICICIBANK",
	"ICICI BANK":    "ICICIBANK",
	"SBIN":          "SBIN",
	"SBI":           "SBIN",
	"BHARTIARTL":    "BHARTIARTL",
	"AIRTEL":        "BHARTIARTL",
	"BAJFINANCE":    "BAJFINANCE",
	"BAJAJ FIN":     "BAJFINANCE",
	"ITC":           "ITC",
	"LT":            "LT",
	"L&T":           "LT",
	"TATAMOTORS":    "TATAMOTORS",
	"TATA MOTORS":   "TATAMOTORS",
	"TATASTEEL":     "TATASTEEL",
	"TATA STEEL":    "TATASTEEL",
	"WIPRO":         "WIPRO",
	"HCLTECH":       "HCLTECH",
	"HCL TECH":      "HCLTECH",
	"MARUTI":        "MARUTI",
	"KOTAKBANK":     "KOTAKBANK",
	"KOTAK":         "KOTAKBANK",
	"AXISBANK":      "AXISBANK",
	"AXIS BANK":     "AXISBANK",
	"SUNPHARMA":     "SUNPHARMA",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIANPAINT":    "ASIANPAINT",
	"ASIAN PAINTS":  "ASIANPAINT",
	"TITAN":         "TITAN",
	"NESTLEIND":     "NESTLEIND",
	"NESTLE":        "NESTLEIND",
	"ULTRACEMCO":    "ULTRACEMCO",
	"ULTRATECH":     "ULTRACEMCO",
	"POWERGRID":     "POWERGRID",
	"NTPC":          "NTPC",
	"TECHM":         "TECHM",
	"TECH MAHINDRA": "TECHM",
	"M&M":           "M&M",
	"MAHINDRA":      "M&M",
	"ADANIENT":      "ADANIENT",
	"ADANI":         "ADANIENT",
	"HINDUNILVR":    "HINDUNILVR",
	"HUL":           "HINDUNILVR",
	"DRREDDY":       "DRREDDY",
	"CIPLA":         "CIPLA",
	"COALINDIA":     "COALINDIA",
	"COAL INDIA":    "COALINDIA",
	"ONGC":          "ONGC",
	"IOC":           "IOC",
	"BPCL":          "BPCL",
}

// NormalizeTicker normalizes a user-input ticker to the canonical NSE symbol.
// It handles aliases, uppercasing, and whitespace.
func NormalizeTicker(ticker string) string {
	ticker = CleanSymbol(ticker)

	if canonical, ok := tickerAliases[ticker]; ok {
		return canonical
	}
	return ticker
}

// NormalizeTickers normalizes a list of tickers, dropping blanks and duplicates
// while keeping the caller's order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		sym := NormalizeTicker(t)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// CleanSymbol uppercases and trims a symbol read from a data file.
// Unlike NormalizeTicker it applies no aliasing.
func CleanSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	symbol = strings.TrimPrefix(symbol, "$")
	return strings.TrimSuffix(symbol, ".NS")
}
