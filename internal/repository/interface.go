package repository

import (
	"context"

	"github.com/covergrid/search-service/internal/domain"
)

// SuggestRepository queries the upstream catalog's suggestion API.
type SuggestRepository interface {
	Suggest(ctx context.Context, query string) ([]domain.SuggestItem, error)
}

// ImageBlob is a fetched upstream cover.
type ImageBlob struct {
	ContentType string
	Data        []byte
}

// ImageRepository fetches raw cover bytes from the upstream image host.
type ImageRepository interface {
	FetchImage(ctx context.Context, rawURL string) (*ImageBlob, error)
}
