package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"RELIANCE", "RELIANCE"},
		{"reliance", "RELIANCE"},
		{" reliance ", "RELIANCE"},
		{"RIL", "RELIANCE"},
		{"$TCS", "TCS"},
		{"INFOSYS", "INFY"},
		{"HUL", "HINDUNILVR"},
		{"SBI", "SBIN"},
		{"AIRTEL", "BHARTIARTL"},
		{"tcs.ns", "TCS"},
		{"UNKNOWNSTOCK", "UNKNOWNSTOCK"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeTickers(t *testing.T) {
	got := NormalizeTickers([]string{"tcs", " ", "RIL", "TCS", "reliance", "Infy"})
	want := []string{"TCS", "RELIANCE", "INFY"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTickers = %v, want %v", got, want)
	}
}

func TestCleanSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{" sbin ", "SBIN"},
		{"RIL", "RIL"}, // no aliasing for data-file symbols
		{"M&M", "M&M"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanSymbol(tt.input); got != tt.expected {
				t.Errorf("CleanSymbol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
