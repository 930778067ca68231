package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"
)

// KV is the cache surface CachedExtractor needs. pkg/cache provides a
// Badger-backed implementation.
type KV interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// CachedExtractor memoizes successful extractions keyed by the content
// hash of (text, source), so re-ingesting an unchanged document does not
// re-spend model tokens.
type CachedExtractor struct {
	inner  Extractor
	cache  KV
	logger *slog.Logger
}

// NewCachedExtractor wraps inner with cache. A nil cache passes every
// call straight through.
func NewCachedExtractor(inner Extractor, cache KV, logger *slog.Logger) *CachedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedExtractor{inner: inner, cache: cache, logger: logger}
}

// Extract implements Extractor.
func (c *CachedExtractor) Extract(ctx context.Context, text, source string) *Result {
	if c.cache == nil {
		return c.inner.Extract(ctx, text, source)
	}

	key := cacheKey(text, source)
	if cached, ok := c.lookup(key); ok {
		c.logger.Debug("extraction cache hit", "source", source)
		return cached
	}

	result := c.inner.Extract(ctx, text, source)
	if result.Success {
		if data, err := json.Marshal(result); err == nil {
			if err := c.cache.Put(key, data); err != nil {
				c.logger.Warn("failed to store extraction in cache", "error", err)
			}
		}
	}
	return result
}

// ExtractFromChunks implements Extractor, caching per chunk. The inner
// extractor's cooldown still applies between consecutive model calls;
// cache hits cost no pause.
func (c *CachedExtractor) ExtractFromChunks(ctx context.Context, chunks []string, source string) *Result {
	var cooldown time.Duration
	if paced, ok := c.inner.(interface{ Cooldown() time.Duration }); ok {
		cooldown = paced.Cooldown()
	}

	results := make([]*Result, 0, len(chunks))
	missed := false
	for _, chunk := range chunks {
		if c.cache != nil {
			if cached, ok := c.lookup(cacheKey(chunk, source)); ok {
				c.logger.Debug("extraction cache hit", "source", source)
				results = append(results, cached)
				continue
			}
		}

		if missed && cooldown > 0 {
			select {
			case <-ctx.Done():
				agg := Aggregate(results)
				agg.ChunksProcessed = len(chunks)
				return agg
			case <-time.After(cooldown):
			}
		}
		missed = true

		results = append(results, c.Extract(ctx, chunk, source))
	}

	agg := Aggregate(results)
	agg.ChunksProcessed = len(chunks)
	return agg
}

// lookup returns the cached result for key, if present and decodable.
func (c *CachedExtractor) lookup(key string) (*Result, bool) {
	data, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	var cached Result
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func cacheKey(text, source string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "extract:" + hex.EncodeToString(h.Sum(nil))
}
