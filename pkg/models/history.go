package models

// PriceSample is one raw historical entry as delivered by the history
// endpoint. Close is kept as text because the backend sends numbers or
// numeric strings; validation happens during normalization.
type PriceSample struct {
	Date  string `json:"date"`  // expected "YYYY-MM-DD"
	Close string `json:"close"` // e.g. "187.42"
}

// SeriesPoint is a normalized sample ready to be plotted.
type SeriesPoint struct {
	Time  string  `json:"time"` // "YYYY-MM-DD"
	Value float64 `json:"value"`
}
