package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/am-report-server/pkg/genai"
)

// CachedGenerator wraps a genai.Generator with an in-memory LRU cache keyed
// by the request content hash. Identical (model, parts, options) requests are
// served from cache instead of spending backend quota; failures are never
// cached.
type CachedGenerator struct {
	inner  genai.Generator
	cache  *lru.Cache
	logger *logrus.Logger

	statsMu sync.RWMutex
	stats   GeneratorCacheStats
}

// GeneratorCacheStats represents cache performance counters
type GeneratorCacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	BackendCalls  int64 `json:"backend_calls"`
	TotalRequests int64 `json:"total_requests"`
}

// NewCachedGenerator creates a caching generator decorator
func NewCachedGenerator(inner genai.Generator, maxEntries int, logger *logrus.Logger) (*CachedGenerator, error) {
	if maxEntries <= 0 {
		maxEntries = 128
	}

	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}

	return &CachedGenerator{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}, nil
}

// Generate serves the request from cache when possible, otherwise forwards to
// the wrapped generator and caches the successful result.
func (g *CachedGenerator) Generate(ctx context.Context, req *genai.Request) (string, error) {
	key := requestKey(req)

	g.statsMu.Lock()
	g.stats.TotalRequests++
	g.statsMu.Unlock()

	if cached, ok := g.cache.Get(key); ok {
		g.statsMu.Lock()
		g.stats.Hits++
		g.statsMu.Unlock()

		g.logger.WithField("cache_key", key[:12]).Debug("Generation cache hit")
		return cached.(string), nil
	}

	g.statsMu.Lock()
	g.stats.Misses++
	g.stats.BackendCalls++
	g.statsMu.Unlock()

	text, err := g.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	g.cache.Add(key, text)
	return text, nil
}

// GetCacheStats returns a snapshot of the cache counters.
func (g *CachedGenerator) GetCacheStats() GeneratorCacheStats {
	g.statsMu.RLock()
	defer g.statsMu.RUnlock()
	return g.stats
}

// requestKey hashes everything that influences the generated text: model,
// sampling options, and each content part in order.
func requestKey(req *genai.Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%g|%g|%d|%d", req.Model,
		req.Options.Temperature, req.Options.TopP,
		req.Options.TopK, req.Options.MaxOutputTokens)

	for _, part := range req.Parts {
		h.Write([]byte{0})
		if part.Artifact != nil {
			h.Write([]byte(part.Artifact.MIMEType))
			h.Write(part.Artifact.Data)
			continue
		}
		h.Write([]byte(part.Text))
	}

	return hex.EncodeToString(h.Sum(nil))
}
