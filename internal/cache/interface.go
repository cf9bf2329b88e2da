package cache

import "github.com/covergrid/search-service/internal/domain"

// SearchCache is the slice of the cache the stream service consumes.
// Keys are opaque; normalization is the caller's responsibility.
type SearchCache interface {
	Get(key string) ([]domain.SearchResult, bool)
	Set(key string, results []domain.SearchResult)
}

var _ SearchCache = (*TTLCache[string, []domain.SearchResult])(nil)
