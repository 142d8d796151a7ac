package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// HistorySource reads price histories from
// {base}/api/history/{ticker}?period=&interval=. Each call issues exactly one
// request; retries and caching belong to the caller.
type HistorySource struct {
	endpoint Endpoint
	limiter  *RateLimiter
}

// NewHistorySource creates a history source. A non-positive perSecond
// disables rate limiting.
func NewHistorySource(ep Endpoint, perSecond int) *HistorySource {
	return &HistorySource{endpoint: ep, limiter: NewRateLimiter(perSecond, time.Second)}
}

// Name returns the source name.
func (h *HistorySource) Name() string { return "Apertura history" }

// FetchHistory returns the raw samples for ticker.
func (h *HistorySource) FetchHistory(ctx context.Context, ticker, period, interval string) ([]models.PriceSample, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("history: empty ticker: %w", ErrNotFound)
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if interval != "" {
		q.Set("interval", interval)
	}
	path := "/api/history/" + url.PathEscape(symbol)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	data, err := fetch(ctx, h.endpoint, path)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	samples, err := DecodeHistory(data)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	return samples, nil
}

// DecodeHistory accepts either a bare JSON array of samples or an object
// wrapping them under "data". Closes may be numbers or numeric strings and
// are passed through as text; dates with a time part are cut to the day.
func DecodeHistory(data []byte) ([]models.PriceSample, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode history: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	list := root
	if !root.IsArray() {
		list = root.Get("data")
		if !list.IsArray() {
			return nil, fmt.Errorf("decode history: no sample array in payload")
		}
	}

	items := list.Array()
	out := make([]models.PriceSample, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, models.PriceSample{
			Date:  sampleDate(firstOf(item, "date", "Date", "time")),
			Close: sampleClose(firstOf(item, "close", "Close", "value")),
		})
	}
	return out, nil
}

func firstOf(item gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := item.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func sampleDate(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.String())
}

func sampleClose(r gjson.Result) string {
	switch r.Type {
	case gjson.Number:
		return r.Raw
	case gjson.String:
		return r.String()
	}
	return ""
}
