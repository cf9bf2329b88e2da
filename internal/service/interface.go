package service

import (
	"context"

	"github.com/covergrid/search-service/internal/domain"
	"github.com/covergrid/search-service/internal/repository"
)

// StreamService produces the incremental search event stream. The returned
// channel carries exactly one terminal event (end or error) and is closed
// after it, unless the context is cancelled first.
type StreamService interface {
	StreamSearch(ctx context.Context, query string) <-chan domain.StreamEvent
}

// ImageService validates and fetches proxied cover images.
type ImageService interface {
	ProxyImage(ctx context.Context, rawURL string) (*repository.ImageBlob, error)
}
