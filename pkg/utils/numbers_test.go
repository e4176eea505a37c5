package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{-1.235, -1.24},
		{2.005, 2.01},
		{10, 10},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round2(tt.input), "Round2(%v)", tt.input)
	}
}

func TestRound2Ptr(t *testing.T) {
	assert.Nil(t, Round2Ptr(nil))
	v := 3.14159
	assert.Equal(t, 3.14, Round2Ptr(&v))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{" 2847.50", 2847.5, true},
		{"1,23,456", 123456, true},
		{"-", 0, false},
		{"", 0, false},
		{"  ", 0, false},
		{"-12.5", -12.5, true},
		{"abc", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{-1.23, "-1.23%"},
		{0.0, "+0.00%"},
		{12.345, "+12.35%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatPct(tt.input); result != tt.expected {
				t.Errorf("FormatPct(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatINRCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "₹500.00"},
		{100000, "₹1 L"},
		{1500000, "₹15 L"},
		{10000000, "₹1 Cr"},
		{192734500000, "₹19273.45 Cr"},
		{1000000000000, "₹1 L Cr"},
		{-250000, "-₹2.5 L"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatINRCompact(tt.input); result != tt.expected {
				t.Errorf("FormatINRCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{500, "500"},
		{1500, "1.50 K"},
		{150000, "1.50 L"},
		{15000000, "1.50 Cr"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatVolume(tt.input); result != tt.expected {
				t.Errorf("FormatVolume(%d) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KiB"},
		{5 << 20, "5.00 MiB"},
		{3 << 30, "3.00 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatBytes(tt.input); result != tt.expected {
				t.Errorf("FormatBytes(%d) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}
