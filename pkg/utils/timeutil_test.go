package utils

import (
	"testing"
	"time"
)

func TestISTLocation(t *testing.T) {
	if IST == nil {
		t.Fatal("IST location should not be nil")
	}
	_, offset := time.Date(2025, 1, 1, 12, 0, 0, 0, IST).Zone()
	if offset != 5*3600+1800 {
		t.Errorf("IST offset: got %d, want %d", offset, 5*3600+1800)
	}
}

func TestParseTradeDate(t *testing.T) {
	want := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	inputs := []string{
		"12-Feb-2025",
		" 12-FEB-2025 ",
		"2025-02-12",
		"12-02-2025",
		"12/02/2025",
		"20250212",
		"12 Feb 2025",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := ParseTradeDate(in)
			if err != nil {
				t.Fatalf("ParseTradeDate(%q) error: %v", in, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseTradeDate(%q) = %v, want %v", in, got, want)
			}
		})
	}

	t.Run("single digit day", func(t *testing.T) {
		got, err := ParseTradeDate("3-Mar-2025")
		if err != nil || got.Day() != 3 {
			t.Errorf("ParseTradeDate(3-Mar-2025) = %v, %v", got, err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseTradeDate("yesterday"); err == nil {
			t.Error("expected error for unparseable date")
		}
	})
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-05-01")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if FormatDate(got) != "2025-05-01" {
		t.Errorf("FormatDate(ParseDate) = %q", FormatDate(got))
	}

	zero, err := ParseDate("")
	if err != nil || !zero.IsZero() {
		t.Errorf("ParseDate(\"\") = %v, %v; want zero time, nil", zero, err)
	}

	if _, err := ParseDate("01-05-2025"); err == nil {
		t.Error("ParseDate should reject non-ISO input")
	}
}

func TestDayNumberRoundTrip(t *testing.T) {
	days := []time.Time{
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2016, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range days {
		if got := FromDayNumber(DayNumber(d)); !got.Equal(d) {
			t.Errorf("FromDayNumber(DayNumber(%v)) = %v", d, got)
		}
	}
}

func TestDayTruncates(t *testing.T) {
	in := time.Date(2025, 6, 9, 18, 30, 0, 0, IST)
	got := Day(in)
	if got.Hour() != 0 || got.Day() != 9 || got.Location() != time.UTC {
		t.Errorf("Day(%v) = %v", in, got)
	}
}
