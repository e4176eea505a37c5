package models

import "strings"

// DetailLevel controls how many fields each ranked entry carries.
type DetailLevel int

const (
	DetailCompact DetailLevel = iota
	DetailStandard
	DetailFull
)

// String returns the wire name of the level.
func (d DetailLevel) String() string {
	switch d {
	case DetailCompact:
		return "compact"
	case DetailFull:
		return "full"
	default:
		return "standard"
	}
}

// ParseDetailLevel maps "compact", "standard" and "full" to a level.
func ParseDetailLevel(s string) (DetailLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return DetailCompact, true
	case "standard":
		return DetailStandard, true
	case "full":
		return DetailFull, true
	}
	return DetailStandard, false
}

// Status is the outcome of a tool query.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Period describes the window a result was computed over.
type Period struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	TradingDays    int    `json:"trading_days"`
	DatesDefaulted bool   `json:"dates_defaulted"`
}

// Entry is one shaped result row. Keys depend on the detail level.
type Entry map[string]any

// Result is the envelope every ranking and screening tool returns.
type Result struct {
	Tool     string         `json:"tool"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Period   *Period        `json:"period,omitempty"`
	Universe string         `json:"universe,omitempty"`
	Metric   string         `json:"metric,omitempty"`
	Detail   string         `json:"detail_level,omitempty"`
	Count    int            `json:"count"`
	Results  []Entry        `json:"results"`
	Summary  map[string]any `json:"summary,omitempty"`
}

// NoData builds a non-error result telling the caller nothing matched.
func NoData(tool, message string) *Result {
	return &Result{
		Tool:    tool,
		Status:  StatusNoData,
		Message: message,
		Results: []Entry{},
	}
}

// OK reports whether the result carries a successful status.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusOK
}
