package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/covergrid/search-service/internal/domain"
)

type doubanSuggestRepository struct {
	client  *http.Client
	baseURL string
}

// NewDoubanSuggestRepository creates a suggestion repository backed by the
// Douban book catalog's suggest endpoint.
func NewDoubanSuggestRepository(client *http.Client, baseURL string) SuggestRepository {
	return &doubanSuggestRepository{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *doubanSuggestRepository) Suggest(ctx context.Context, query string) ([]domain.SuggestItem, error) {
	endpoint := fmt.Sprintf("%s/j/subject_suggest?q=%s", r.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build suggest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned %d", res.StatusCode)
	}

	var items []domain.SuggestItem
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	return items, nil
}
