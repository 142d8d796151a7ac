package pricehistory

import (
	"errors"
	"fmt"
)

// --- Sentinel errors ---

// ErrLibraryUnavailable is returned when the chart library could not be
// resolved within the bounded poll, or exposes no usable series API.
var ErrLibraryUnavailable = errors.New("chart library unavailable")

// ErrNoData is returned when the history payload is empty or every sample
// was malformed. The container shows a placeholder; it is not a failure.
var ErrNoData = errors.New("no data for this period")

// ErrChartRemoved is returned when a removed chart is asked to render.
var ErrChartRemoved = errors.New("chart has been removed")

// TransportError wraps a failed history fetch.
type TransportError struct {
	Ticker string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch history for %s: %v", e.Ticker, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
