package utils

import (
	"time"
)

// ISODateLayout is the only date shape accepted in price series.
const ISODateLayout = "2006-01-02"

// ParseISODate parses a strict "YYYY-MM-DD" date. Anything that is not
// exactly ten characters long is rejected.
func ParseISODate(s string) (time.Time, bool) {
	if len(s) != len(ISODateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
