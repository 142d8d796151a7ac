package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	defaultPollAttempts = 5
	defaultPollInterval = 500 * time.Millisecond
)

// LibraryLoader reports the chart library once it is available.
type LibraryLoader func(ctx context.Context) (Library, error)

// errNotLoaded is what a loader returns while the library is still missing.
var errNotLoaded = errors.New("library not loaded yet")

// StaticLoader returns a loader that always yields lib.
func StaticLoader(lib Library) LibraryLoader {
	return func(context.Context) (Library, error) {
		if lib == nil {
			return nil, errNotLoaded
		}
		return lib, nil
	}
}

// pollLibrary calls load up to attempts times, waiting interval between
// tries. There is no backoff; the bound is the total wait.
func pollLibrary(ctx context.Context, load LibraryLoader, attempts int, interval time.Duration) (Library, error) {
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}
	if interval < 0 {
		interval = 0
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lib, err := load(ctx)
		if err == nil && lib != nil {
			return lib, nil
		}
		if err == nil {
			err = errNotLoaded
		}
		lastErr = err

		if attempt >= attempts {
			break
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrLibraryUnavailable, attempts, lastErr)
}
