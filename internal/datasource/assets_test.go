package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

const sampleAssets = `[
  {"ticker":"AAPL","name":"Apple Inc.","price":187.4,"pe_ratio":29.1,"market_cap":2.9e12},
  {"ticker":"MSFT","name":"Microsoft","price":402.1,"pe_ratio":null},
  {"name":"no ticker","price":1}
]`

func assetServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/api/tracking-assets", "/api/crypto-assets":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleAssets))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestDecodeAssetsSkipsInvalidRecords(t *testing.T) {
	records, err := DecodeAssets([]byte(sampleAssets))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "AAPL", records[0].Ticker)
	assert.Equal(t, "MSFT", records[1].Ticker)
	_, ok := records[1].Value("pe_ratio")
	assert.False(t, ok)
}

func TestDecodeAssetsRejectsNonArray(t *testing.T) {
	_, err := DecodeAssets([]byte(`{"ticker":"AAPL"}`))
	assert.Error(t, err)
}

func TestAssetSourceCachesWithinWindow(t *testing.T) {
	var hits atomic.Int32
	srv := assetServer(t, &hits)
	defer srv.Close()

	src := NewAssetSource(Endpoint{BaseURL: srv.URL}, time.Minute, 0)
	ctx := context.Background()

	first, err := src.ListAssets(ctx, models.CategoryTracking)
	require.NoError(t, err)
	second, err := src.ListAssets(ctx, "TRACKING")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, hits.Load())

	src.Invalidate(models.CategoryTracking)
	_, err = src.ListAssets(ctx, models.CategoryTracking)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestAssetSourceSharesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(sampleAssets))
	}))
	defer srv.Close()

	src := NewAssetSource(Endpoint{BaseURL: srv.URL}, time.Minute, 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := src.ListAssets(context.Background(), models.CategoryCrypto)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, hits.Load())
}

func TestAssetSourceUnknownCategory(t *testing.T) {
	var hits atomic.Int32
	srv := assetServer(t, &hits)
	defer srv.Close()

	src := NewAssetSource(Endpoint{BaseURL: srv.URL}, 0, 0)

	_, err := src.ListAssets(context.Background(), "bonds")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.ListAssets(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWarmUpCollectsPerCategory(t *testing.T) {
	var hits atomic.Int32
	srv := assetServer(t, &hits)
	defer srv.Close()

	src := NewAssetSource(Endpoint{BaseURL: srv.URL}, time.Minute, 0)
	out, errs := WarmUp(context.Background(), src, Categories)

	assert.Len(t, out[models.CategoryTracking], 2)
	assert.Len(t, out[models.CategoryCrypto], 2)
	assert.Contains(t, errs, models.CategoryPortfolio)
	assert.Contains(t, errs, models.CategoryArgentina)
	assert.True(t, errors.Is(errs[models.CategoryPortfolio], ErrNotFound))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crypto-assets.json"), []byte(sampleAssets), 0o644))

	src := FileSource{Dir: dir}
	records, err := src.ListAssets(context.Background(), models.CategoryCrypto)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = src.ListAssets(context.Background(), models.CategoryPortfolio)
	assert.ErrorIs(t, err, ErrNotFound)

	single := FileSource{Path: filepath.Join(dir, "crypto-assets.json")}
	records, err = single.ListAssets(context.Background(), models.CategoryArgentina)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
