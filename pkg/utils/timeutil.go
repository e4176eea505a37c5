package utils

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// DateLayout is the ISO date format used at every tool boundary.
const DateLayout = "2006-01-02"

// tradeDateLayouts are the date spellings seen across bhavcopy vintages.
// "2-Jan-2006" also matches zero-padded days and upper-case months.
var tradeDateLayouts = []string{
	"2-Jan-2006",
	DateLayout,
	"02-01-2006",
	"02/01/2006",
	"20060102",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// Day truncates t to midnight UTC of its calendar date. Trading dates are
// compared as calendar days, so every date in the store goes through Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO "2006-01-02" date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseTradeDate parses a date cell from a bhavcopy file.
func ParseTradeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range tradeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized trade date %q", s)
}

// FormatDate formats t as "2006-01-02". The zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DayNumber returns the number of days since 1970-01-01 for a Day value.
func DayNumber(t time.Time) int32 {
	return int32(Day(t).Unix() / 86400)
}

// FromDayNumber is the inverse of DayNumber.
func FromDayNumber(n int32) time.Time {
	return time.Unix(int64(n)*86400, 0).UTC()
}
