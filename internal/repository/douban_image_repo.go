package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// UpstreamStatusError reports a non-2xx reply from the image host so the
// transport layer can relay the status instead of masking it as a 5xx.
type UpstreamStatusError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("image fetch failed: %s", e.Status)
}

type doubanImageRepository struct {
	client *http.Client
}

// NewDoubanImageRepository creates an image repository fetching covers from
// the upstream image hosts.
func NewDoubanImageRepository(client *http.Client) ImageRepository {
	return &doubanImageRepository{client: client}
}

func (r *doubanImageRepository) FetchImage(ctx context.Context, rawURL string) (*ImageBlob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &UpstreamStatusError{StatusCode: res.StatusCode, Status: res.Status}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &ImageBlob{ContentType: contentType, Data: data}, nil
}
