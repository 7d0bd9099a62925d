package cached

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"recyclebot/internal/domain"
)

// Embedder memoizes embeddings of recently seen texts in a bounded LRU.
// Repeated questions (the suggested examples, retries by the user) then
// skip the round trip to the embedding service.
type Embedder struct {
	inner domain.Embedder
	cache *lru.Cache
}

// New wraps inner with an LRU cache of size entries.
func New(inner domain.Embedder, size int) (*Embedder, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

func (e *Embedder) Name() string { return e.inner.Name() }

// Prepare purges the cache because vectors computed before preparation are stale.
func (e *Embedder) Prepare(corpus []string) error {
	e.cache.Purge()
	return e.inner.Prepare(corpus)
}

func (e *Embedder) Dimension() int { return e.inner.Dimension() }

// Embed returns a copy of the cached vector, or embeds and caches on a miss.
// Errors are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := e.cache.Get(text); ok {
		return clone(v.([]float64)), nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, clone(vec))
	return vec, nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
