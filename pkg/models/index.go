package models

import "strings"

// MarketCap is the market-capitalisation bucket of a symbol.
type MarketCap string

const (
	MarketCapLarge   MarketCap = "LARGE"
	MarketCapMid     MarketCap = "MID"
	MarketCapSmall   MarketCap = "SMALL"
	MarketCapUnknown MarketCap = "UNKNOWN"
)

// ParseMarketCap accepts "large", "Large Cap", "largecap", "LARGE_CAP" and
// similar spellings. UNKNOWN is not a selectable bucket.
func ParseMarketCap(s string) (MarketCap, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	key = strings.TrimSuffix(key, "CAP")
	switch key {
	case "LARGE":
		return MarketCapLarge, true
	case "MID":
		return MarketCapMid, true
	case "SMALL":
		return MarketCapSmall, true
	}
	return MarketCapUnknown, false
}

// Classification is everything the classification index knows about a symbol.
type Classification struct {
	Symbol    string    `json:"symbol"`
	MarketCap MarketCap `json:"market_cap"`
	Sector    string    `json:"sector,omitempty"`
	Indices   []string  `json:"indices"`
}
