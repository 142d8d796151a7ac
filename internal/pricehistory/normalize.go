package pricehistory

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// DefaultPeriod is used when a caller asks for an unknown period.
const DefaultPeriod = "1y"

// periodIntervals maps each supported period to its sampling interval.
var periodIntervals = map[string]string{
	"1mo": "1d",
	"3mo": "1d",
	"6mo": "1d",
	"1y":  "1d",
	"ytd": "1d",
	"2y":  "1wk",
	"5y":  "1wk",
	"10y": "1mo",
	"max": "1mo",
}

// Periods returns the supported periods, shortest first.
func Periods() []string {
	return []string{"1mo", "3mo", "6mo", "ytd", "1y", "2y", "5y", "10y", "max"}
}

// NormalizePeriod lowercases period and falls back to DefaultPeriod.
func NormalizePeriod(period string) string {
	p := strings.ToLower(strings.TrimSpace(period))
	if _, ok := periodIntervals[p]; ok {
		return p
	}
	return DefaultPeriod
}

// IntervalFor returns the sampling interval requested for a period.
func IntervalFor(period string) string {
	return periodIntervals[NormalizePeriod(period)]
}

// Normalize drops malformed samples and sorts the rest by date. A sample is
// kept when its date is a strict YYYY-MM-DD and its close parses to a
// finite, positive number. ISO dates sort correctly as strings.
func Normalize(raw []models.PriceSample) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(raw))
	for _, s := range raw {
		if _, ok := utils.ParseISODate(s.Date); !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s.Close), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		out = append(out, models.SeriesPoint{Time: s.Date, Value: v})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
