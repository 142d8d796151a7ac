package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		input  float64
		scaled float64
		suffix string
	}{
		{500, 500, ""},
		{1500, 1.5, "K"},
		{2_500_000, 2.5, "M"},
		{3e9, 3, "B"},
		{4e12, 4, "T"},
		{-5e9, -5, "B"},
	}

	for _, tt := range tests {
		scaled, suffix := Compact(tt.input)
		assert.InDelta(t, tt.scaled, scaled, 1e-9)
		assert.Equal(t, tt.suffix, suffix)
	}
}

func TestFormatCompactUSD(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{1234, "$1.23K"},
		{394_328_000_000, "$394.33B"},
		{2.9e12, "$2.90T"},
		{-5e9, "-$5.00B"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCompactUSD(tt.input))
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "950", FormatCount(950))
	assert.Equal(t, "12.00K", FormatCount(12_000))
	assert.Equal(t, "1.50M", FormatCount(1_500_000))
	assert.Equal(t, "2500.00B", FormatCount(2.5e12))
}

func TestFormatAxisValue(t *testing.T) {
	assert.Equal(t, "1.5K", FormatAxisValue(1500))
	assert.Equal(t, "12", FormatAxisValue(12))
	assert.Equal(t, "0.25", FormatAxisValue(0.25))
}
