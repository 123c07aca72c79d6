package retrieval

import (
	"context"

	"github.com/kode4food/lru"
)

// CachedEmbedder memoizes query embeddings. Document embeddings pass
// through uncached since each is computed once at upsert
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[[]float64]
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with a query cache of maxSize entries
func NewCachedEmbedder(inner Embedder, maxSize int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: lru.NewCache[[]float64](maxSize),
	}
}

func (c *CachedEmbedder) EmbedQuery(
	ctx context.Context, text string,
) ([]float64, error) {
	return c.cache.Get(text, func() ([]float64, error) {
		return c.inner.EmbedQuery(ctx, text)
	})
}

func (c *CachedEmbedder) EmbedDocument(
	ctx context.Context, text string,
) ([]float64, error) {
	return c.inner.EmbedDocument(ctx, text)
}
