// Package models defines the core data structures shared by the chart engine,
// the data sources and the API server.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Category is a coarse classification of a data set ("crypto", "tracking", ...).
// It gates which metrics apply to the records in the set.
type Category string

const (
	CategoryTracking  Category = "tracking"
	CategoryPortfolio Category = "portfolio"
	CategoryCrypto    Category = "crypto"
	CategoryArgentina Category = "argentina"
)

// IsCrypto reports whether the category is the crypto data set.
func (c Category) IsCrypto() bool {
	return strings.EqualFold(string(c), string(CategoryCrypto))
}

// AssetRecord is one instrument's snapshot: ticker, display name and a set of
// numeric metrics. A metric missing from Metrics is absent, which is distinct
// from a present zero.
type AssetRecord struct {
	Ticker  string             `json:"ticker"`
	Name    string             `json:"name"`
	Metrics map[string]float64 `json:"-"`
}

// NewAssetRecord builds a record from a ticker, a name and metric values.
func NewAssetRecord(ticker, name string, metrics map[string]float64) AssetRecord {
	m := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		m[k] = v
	}
	return AssetRecord{Ticker: ticker, Name: name, Metrics: m}
}

// Value returns the metric value and whether it is present. NaN and infinite
// values count as absent.
func (a AssetRecord) Value(key string) (float64, bool) {
	v, ok := a.Metrics[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DisplayName returns the name, falling back to the ticker.
func (a AssetRecord) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.Ticker
}

// UnmarshalJSON decodes the flat wire shape
// {"ticker": "...", "name": "...", "<metric>": number|null, ...}.
// Null and non-numeric metric values are treated as absent.
func (a *AssetRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode asset record: %w", err)
	}

	rec := AssetRecord{Metrics: make(map[string]float64, len(raw))}
	for key, val := range raw {
		switch key {
		case "ticker":
			if err := json.Unmarshal(val, &rec.Ticker); err != nil {
				return fmt.Errorf("decode asset ticker: %w", err)
			}
		case "name":
			// A null name is allowed; the ticker is shown instead.
			_ = json.Unmarshal(val, &rec.Name)
		default:
			if strings.TrimSpace(string(val)) == "null" {
				continue
			}
			var f float64
			if err := json.Unmarshal(val, &f); err != nil {
				continue
			}
			rec.Metrics[key] = f
		}
	}
	if rec.Ticker == "" {
		return fmt.Errorf("decode asset record: missing ticker")
	}

	*a = rec
	return nil
}

// MarshalJSON encodes the record in the same flat shape it is decoded from.
func (a AssetRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Metrics)+2)
	for k, v := range a.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	out["ticker"] = a.Ticker
	out["name"] = a.Name
	return json.Marshal(out)
}

// MetricKeys returns the sorted keys of present metrics.
func (a AssetRecord) MetricKeys() []string {
	keys := make([]string, 0, len(a.Metrics))
	for k := range a.Metrics {
		if _, ok := a.Value(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
