package transcribe

import (
	"context"
	"encoding/json"

	"github.com/ppiankov/truthweaver/internal/cache"
	"github.com/ppiankov/truthweaver/internal/model"
	"go.uber.org/zap"
)

// CachedTranscriber memoizes transcripts by provider and recording content
type CachedTranscriber struct {
	next   Transcriber
	cache  cache.Cache
	logger *zap.Logger
}

// NewCachedTranscriber wraps next in a memory + disk cache
func NewCachedTranscriber(next Transcriber, cfg model.CacheConfig, logger *zap.Logger) *CachedTranscriber {
	return newCachedTranscriber(next, cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), logger)
}

func newCachedTranscriber(next Transcriber, c cache.Cache, logger *zap.Logger) *CachedTranscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTranscriber{
		next:   next,
		cache:  c,
		logger: logger,
	}
}

// Name returns the wrapped provider's name
func (c *CachedTranscriber) Name() string {
	return c.next.Name()
}

// Transcribe returns a cached transcript when the recording content has been
// seen before, otherwise delegates and stores the result. Failures are not
// cached.
func (c *CachedTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	digest, err := cache.FileDigest(path)
	if err != nil {
		// Unreadable files go straight to the provider, which reports its own error
		return c.next.Transcribe(ctx, path)
	}
	key := cache.Key(c.next.Name(), digest)

	if data, ok := c.cache.Get(key); ok {
		var t Transcript
		if err := json.Unmarshal(data, &t); err == nil {
			c.logger.Debug("transcript cache hit", zap.String("path", path))
			return &t, nil
		}
	}

	t, err := c.next.Transcribe(ctx, path)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		if err := c.cache.Set(key, data, 0); err != nil {
			c.logger.Warn("failed to cache transcript", zap.String("path", path), zap.Error(err))
		}
	}

	return t, nil
}
