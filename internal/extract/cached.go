package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/claimrank/internal/cache"
)

// CachedExtractor serves repeated extractions of the same text from a cache.
// Only successful results are stored.
type CachedExtractor struct {
	inner Extractor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedExtractor wraps inner with c; a zero ttl uses the cache default
func NewCachedExtractor(inner Extractor, c cache.Cache, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{inner: inner, cache: c, ttl: ttl}
}

// Name returns the wrapped provider name
func (e *CachedExtractor) Name() string {
	return e.inner.Name()
}

// ExtractClaims returns cached claims for text or delegates and stores the result
func (e *CachedExtractor) ExtractClaims(ctx context.Context, text string) ([]ExtractedClaim, error) {
	key := cache.Key(e.inner.Name(), text)

	if data, ok := e.cache.Get(key); ok {
		var claims []ExtractedClaim
		if err := json.Unmarshal(data, &claims); err == nil {
			return claims, nil
		}
		_ = e.cache.Delete(key)
	}

	claims, err := e.inner.ExtractClaims(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(claims); err == nil {
		_ = e.cache.Set(key, data, e.ttl)
	}

	return claims, nil
}
