// Package metrics defines the catalog of numeric metrics the comparative
// charts can plot: labels, formatters and category applicability.
package metrics

import (
	"math"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// Kind selects the formatter family of a metric.
type Kind int

const (
	// Ratio is a plain number with two decimals ("28.50").
	Ratio Kind = iota
	// Percent is a fraction shown as a percentage ("12.34%").
	Percent
	// LargeCurrency is a dollar amount with K/M/B/T suffix ("$2.91T").
	LargeCurrency
	// Count is an unsigned quantity with K/M/B suffix ("1.50M").
	Count
	// Currency is a full dollar amount ("$1,234.56").
	Currency
)

// Definition describes one metric.
type Definition struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`

	// CryptoExcluded marks fundamentals that crypto data sets never carry.
	CryptoExcluded bool `json:"crypto_excluded,omitempty"`
}

// AppliesTo reports whether the metric can be shown for the category.
func (d Definition) AppliesTo(category models.Category) bool {
	return !(d.CryptoExcluded && category.IsCrypto())
}

// Format renders a value. NaN and infinities are treated as absent.
func (d Definition) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	switch d.Kind {
	case Percent:
		return formatPercent(v)
	case LargeCurrency:
		return formatLargeCurrency(v)
	case Count:
		return formatCount(v)
	case Currency:
		return formatCurrency(v)
	default:
		return formatRatio(v)
	}
}

// FormatRecord renders the record's value for this metric, or "N/A".
func (d Definition) FormatRecord(rec models.AssetRecord) string {
	v, ok := rec.Value(d.Key)
	if !ok {
		return NotAvailable
	}
	return d.Format(v)
}

// Catalog is an ordered, read-only set of metric definitions.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog builds a catalog. Later duplicates of a key are ignored.
func NewCatalog(defs ...Definition) *Catalog {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if _, dup := c.index[d.Key]; dup {
			continue
		}
		c.index[d.Key] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c
}

var defaultCatalog = NewCatalog(
	Definition{Key: "pe_ratio", Label: "P/E Ratio", Kind: Ratio, CryptoExcluded: true},
	Definition{Key: "revenue", Label: "Revenue", Kind: LargeCurrency, CryptoExcluded: true},
	Definition{Key: "revenue_growth", Label: "Revenue Growth", Kind: Percent, CryptoExcluded: true},
	Definition{Key: "profit_margin", Label: "Profit Margin", Kind: Percent, CryptoExcluded: true},
	Definition{Key: "return_on_equity", Label: "ROE", Kind: Percent, CryptoExcluded: true},
	Definition{Key: "debt_to_equity", Label: "Debt/Equity", Kind: Ratio, CryptoExcluded: true},
	Definition{Key: "price_to_book", Label: "P/B", Kind: Ratio, CryptoExcluded: true},
	Definition{Key: "beta", Label: "Beta", Kind: Ratio},
	Definition{Key: "volume", Label: "Volume", Kind: Count},
	Definition{Key: "rsi", Label: "RSI", Kind: Ratio},
	Definition{Key: "price", Label: "Price", Kind: Currency},
	Definition{Key: "market_cap", Label: "Market Cap", Kind: LargeCurrency},
	Definition{Key: "diff_from_max", Label: "Diff vs Max", Kind: Percent},
)

// Default returns the process-wide catalog.
func Default() *Catalog { return defaultCatalog }

// All returns every definition in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Keys returns every metric key in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.defs))
	for i, d := range c.defs {
		keys[i] = d.Key
	}
	return keys
}

// Lookup returns the definition for key.
func (c *Catalog) Lookup(key string) (Definition, bool) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// ListAvailable returns, in catalog order, the metrics that apply to the
// category and that at least one record carries. An empty result means the
// caller should show a "no metrics" placeholder.
func (c *Catalog) ListAvailable(records []models.AssetRecord, category models.Category) []Definition {
	if len(records) == 0 {
		return nil
	}

	var out []Definition
	for _, d := range c.defs {
		if !d.AppliesTo(category) {
			continue
		}
		for _, rec := range records {
			if _, ok := rec.Value(d.Key); ok {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Average returns the mean of the present values of key across records.
// ok is false when no record carries the metric.
func Average(records []models.AssetRecord, key string) (avg float64, ok bool) {
	var sum float64
	var n int
	for _, rec := range records {
		if v, present := rec.Value(key); present {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// DefaultAxes picks the initial selector values of the comparative page:
// X is P/E when available, else the first metric; Y prefers revenue growth,
// then profit margin, then the second metric, then the first.
func DefaultAxes(available []Definition) (x, y Definition, ok bool) {
	if len(available) == 0 {
		return Definition{}, Definition{}, false
	}

	find := func(key string) (Definition, bool) {
		for _, d := range available {
			if d.Key == key {
				return d, true
			}
		}
		return Definition{}, false
	}

	x = available[0]
	if d, found := find("pe_ratio"); found {
		x = d
	}

	switch {
	case hasKey(available, "revenue_growth"):
		y, _ = find("revenue_growth")
	case hasKey(available, "profit_margin"):
		y, _ = find("profit_margin")
	case len(available) > 1:
		y = available[1]
	default:
		y = available[0]
	}
	return x, y, true
}

func hasKey(defs []Definition, key string) bool {
	for _, d := range defs {
		if d.Key == key {
			return true
		}
	}
	return false
}
