package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/models"
)

// DefaultAssetTTL matches the backend's own refresh window.
const DefaultAssetTTL = 120 * time.Second

// Categories lists the asset sets the backend serves.
var Categories = []models.Category{
	models.CategoryTracking,
	models.CategoryPortfolio,
	models.CategoryCrypto,
	models.CategoryArgentina,
}

// AssetSource reads category snapshots from {base}/api/{category}-assets.
// Concurrent requests for the same category share one backend call and the
// result is cached for the configured TTL.
type AssetSource struct {
	endpoint Endpoint
	cache    *Cache
	limiter  *RateLimiter
	group    singleflight.Group
}

// NewAssetSource creates an asset source. A non-positive ttl selects
// DefaultAssetTTL; a non-positive perSecond disables rate limiting.
func NewAssetSource(ep Endpoint, ttl time.Duration, perSecond int) *AssetSource {
	if ttl <= 0 {
		ttl = DefaultAssetTTL
	}
	return &AssetSource{
		endpoint: ep,
		cache:    NewCache(ttl),
		limiter:  NewRateLimiter(perSecond, time.Second),
	}
}

// Name returns the source name.
func (s *AssetSource) Name() string { return "Apertura backend" }

// ListAssets returns the category's records, from cache when fresh.
func (s *AssetSource) ListAssets(ctx context.Context, category models.Category) ([]models.AssetRecord, error) {
	key, err := categoryKey(category)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.AssetRecord), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		data, err := fetch(ctx, s.endpoint, "/api/"+key+"-assets")
		if err != nil {
			return nil, fmt.Errorf("list %s assets: %w", key, err)
		}
		records, err := DecodeAssets(data)
		if err != nil {
			return nil, fmt.Errorf("list %s assets: %w", key, err)
		}

		s.cache.Set(key, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.AssetRecord), nil
}

// Invalidate drops the cached snapshot of a category.
func (s *AssetSource) Invalidate(category models.Category) {
	if key, err := categoryKey(category); err == nil {
		s.cache.Invalidate(key)
	}
}

// DecodeAssets parses a JSON array of flat asset records. Records that fail
// to decode (for instance without a ticker) are skipped.
func DecodeAssets(data []byte) ([]models.AssetRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}

	records := make([]models.AssetRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.AssetRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func categoryKey(category models.Category) (string, error) {
	key := strings.ToLower(strings.TrimSpace(string(category)))
	if key == "" || strings.ContainsAny(key, "/?#") {
		return "", fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	return key, nil
}

// WarmUp fetches every category concurrently. Failures are collected per
// category and do not cancel the others.
func WarmUp(ctx context.Context, src AssetLister, categories []models.Category) (map[models.Category][]models.AssetRecord, map[models.Category]error) {
	var mu sync.Mutex
	out := make(map[models.Category][]models.AssetRecord, len(categories))
	errs := make(map[models.Category]error)

	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		g.Go(func() error {
			records, err := src.ListAssets(gctx, cat)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[cat] = err
				return nil // non-fatal
			}
			out[cat] = records
			return nil
		})
	}
	_ = g.Wait()

	return out, errs
}
