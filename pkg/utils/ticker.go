package utils

import (
	"strings"
	"unicode/utf8"
)

// Quote suffixes used by the backend for crypto pairs.
var cryptoSuffixes = []string{"-USD", "-USDT"}

// NormalizeTicker normalizes a user-input ticker to the canonical backend form.
// It handles uppercasing, whitespace and a leading "$".
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))

	// Remove $ prefix if present (common when pasted from chat)
	ticker = strings.TrimPrefix(ticker, "$")

	return ticker
}

// IsCryptoTicker reports whether the ticker is a crypto pair such as "BTC-USD".
func IsCryptoTicker(ticker string) bool {
	ticker = NormalizeTicker(ticker)
	for _, s := range cryptoSuffixes {
		if strings.HasSuffix(ticker, s) && len(ticker) > len(s) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most max runes, appending "..." when it was cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
