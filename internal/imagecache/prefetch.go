package imagecache

import (
	"context"
	"log/slog"
)

// Fetcher retrieves thumbnail bytes by content id. *api.Client satisfies it.
type Fetcher interface {
	GetThumbnail(ctx context.Context, contentID string) ([]byte, error)
}

// Prefetcher warms the cache with character reference images so profile
// art renders without a network round trip.
type Prefetcher struct {
	cache  *Cache
	fetch  Fetcher
	logger *slog.Logger
}

func NewPrefetcher(cache *Cache, fetch Fetcher, logger *slog.Logger) *Prefetcher {
	return &Prefetcher{cache: cache, fetch: fetch, logger: logger}
}

// Thumbnail returns the image for a content id, fetching and caching it
// on a miss.
func (p *Prefetcher) Thumbnail(ctx context.Context, contentID string) ([]byte, error) {
	if data, ok := p.cache.Get(contentID); ok {
		return data, nil
	}
	data, err := p.fetch.GetThumbnail(ctx, contentID)
	if err != nil {
		return nil, err
	}
	p.cache.Put(contentID, data)
	return data, nil
}

// Warm fetches any ids not already cached. Failures are logged and
// skipped; warming is best-effort.
func (p *Prefetcher) Warm(ctx context.Context, contentIDs []string) {
	for _, id := range contentIDs {
		if id == "" {
			continue
		}
		if _, ok := p.cache.Get(id); ok {
			continue
		}
		data, err := p.fetch.GetThumbnail(ctx, id)
		if err != nil {
			p.logger.Warn("thumbnail prefetch failed", "content_id", id, "error", err)
			continue
		}
		p.cache.Put(id, data)
	}
}
