package helpers

import "testing"

func TestFormatCrore(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{150_000_000, "₹15.00Cr"},
		{355_690_000, "₹35.57Cr"},
		{10_000_000, "₹1.00Cr"},
		{12_345_678, "₹1.23Cr"},
		{0, "₹0.00Cr"},
	}

	for _, tt := range tests {
		if got := FormatCrore(tt.amount); got != tt.want {
			t.Errorf("FormatCrore(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatIndianRupees(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{123, "₹123"},
		{1234, "₹1,234"},
		{123456, "₹1,23,456"},
		{12345678, "₹1,23,45,678"},
		{1000000000, "₹1,00,00,00,000"},
		{-1234567, "₹-12,34,567"},
		{0, "₹0"},
	}

	for _, tt := range tests {
		if got := FormatIndianRupees(tt.amount); got != tt.want {
			t.Errorf("FormatIndianRupees(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
