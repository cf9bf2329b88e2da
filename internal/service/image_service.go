package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/sync/singleflight"

	"github.com/covergrid/search-service/internal/repository"
)

// ErrDisallowedImageURL marks a proxy request for a host outside the
// allow-list.
var ErrDisallowedImageURL = errors.New("image url not allowed")

type imageServiceImpl struct {
	repo    repository.ImageRepository
	allowed *regexp.Regexp
	sf      singleflight.Group
}

// NewImageService creates the cover proxy service. allowPattern is matched
// case-insensitively against the full requested URL. Concurrent fetches of
// the same URL are coalesced into one upstream round-trip.
func NewImageService(repo repository.ImageRepository, allowPattern string) (ImageService, error) {
	allowed, err := regexp.Compile("(?i)" + allowPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid image allow pattern: %w", err)
	}
	return &imageServiceImpl{repo: repo, allowed: allowed}, nil
}

func (s *imageServiceImpl) ProxyImage(ctx context.Context, rawURL string) (*repository.ImageBlob, error) {
	if rawURL == "" || !s.allowed.MatchString(rawURL) {
		return nil, ErrDisallowedImageURL
	}

	v, err, _ := s.sf.Do(rawURL, func() (interface{}, error) {
		return s.repo.FetchImage(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.ImageBlob), nil
}
