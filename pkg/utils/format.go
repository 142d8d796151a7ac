// Package utils provides common utility functions for Apertura.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// Compact scales a number down to its largest western suffix.
// e.g., 1500 → (1.5, "K"), 2.5e9 → (2.5, "B"). Values below 1,000 keep an
// empty suffix. The sign is preserved.
func Compact(n float64) (float64, string) {
	abs := math.Abs(n)
	switch {
	case abs >= 1e12:
		return n / 1e12, "T"
	case abs >= 1e9:
		return n / 1e9, "B"
	case abs >= 1e6:
		return n / 1e6, "M"
	case abs >= 1e3:
		return n / 1e3, "K"
	default:
		return n, ""
	}
}

// FormatCompactUSD formats an amount as "$1.23B", "-$5.00M", "$12.50".
func FormatCompactUSD(amount float64) string {
	scaled, suffix := Compact(amount)
	prefix := "$"
	if scaled < 0 {
		prefix = "-$"
		scaled = -scaled
	}
	return fmt.Sprintf("%s%.2f%s", prefix, scaled, suffix)
}

// FormatCount formats a count such as traded volume: "1.50M", "12.00K", "950".
func FormatCount(n float64) string {
	scaled, suffix := Compact(n)
	if suffix == "T" {
		// Volume never uses the trillion suffix.
		scaled, suffix = n/1e9, "B"
	}
	if suffix == "" {
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprintf("%.2f%s", scaled, suffix)
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// FormatAxisValue is a short, trailing-zero-free rendering used for axis
// annotations where the metric has no formatter of its own.
func FormatAxisValue(n float64) string {
	scaled, suffix := Compact(n)
	return formatWithDecimals(scaled) + suffix
}
