package retrieval

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"inlay/internal/document"
)

// CachedRetriever memoizes retriever results per document version. Rapid
// retriggering at the same version (cursor moves, popup navigation) hits the
// cache instead of re-running ripgrep-class work.
type CachedRetriever struct {
	inner Retriever
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration
}

type cacheEntry struct {
	snippets []Snippet
	storedAt time.Time
}

// NewCachedRetriever wraps a retriever with an LRU of the given size.
func NewCachedRetriever(inner Retriever, size int, ttl time.Duration) (*CachedRetriever, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval cache: %w", err)
	}
	return &CachedRetriever{inner: inner, cache: cache, ttl: ttl}, nil
}

func (c *CachedRetriever) Kind() string { return c.inner.Kind() }

func (c *CachedRetriever) SupportsLanguage(languageID string) bool {
	return c.inner.SupportsLanguage(languageID)
}

func (c *CachedRetriever) Close() {
	c.cache.Purge()
	c.inner.Close()
}

func (c *CachedRetriever) Retrieve(ctx context.Context, snap *document.Snapshot) ([]Snippet, error) {
	key := fmt.Sprintf("%s@%d:%s", snap.URI, snap.Version, c.inner.Kind())
	if entry, ok := c.cache.Get(key); ok {
		if time.Since(entry.storedAt) < c.ttl {
			return entry.snippets, nil
		}
		c.cache.Remove(key)
	}
	snippets, err := c.inner.Retrieve(ctx, snap)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cacheEntry{snippets: snippets, storedAt: time.Now()})
	return snippets, nil
}
