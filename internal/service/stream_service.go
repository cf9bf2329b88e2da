package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/covergrid/search-service/internal/cache"
	"github.com/covergrid/search-service/internal/domain"
	"github.com/covergrid/search-service/internal/repository"
	"github.com/covergrid/search-service/pkg/log"
)

const (
	maxResults     = 10
	imageProxyPath = "/image"
)

// Wire-visible status messages.
const (
	msgSearching = "searching the catalog..."
	msgNoResults = "no results found"
	msgAllSent   = "all results sent"
)

type streamServiceImpl struct {
	repo        repository.SuggestRepository
	searchCache cache.SearchCache
}

// NewStreamService creates the search stream pipeline. Concurrent identical
// queries are not coalesced; each one consults the cache independently and a
// duplicate upstream fetch resolves as a harmless cache refresh.
func NewStreamService(repo repository.SuggestRepository, searchCache cache.SearchCache) StreamService {
	return &streamServiceImpl{
		repo:        repo,
		searchCache: searchCache,
	}
}

func (s *streamServiceImpl) StreamSearch(ctx context.Context, query string) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent)
	go s.run(ctx, strings.TrimSpace(query), events)
	return events
}

func (s *streamServiceImpl) run(ctx context.Context, query string, events chan<- domain.StreamEvent) {
	defer close(events)
	defer func() {
		// Once the stream is open, every failure must surface in-band.
		if r := recover(); r != nil {
			l := log.Ctx(ctx)
			l.Error().Interface("panic", r).Str("query", query).Msg("search pipeline panicked")
			emit(ctx, events, domain.Error("search failed: internal error"))
		}
	}()

	if !emit(ctx, events, domain.InitMessage(msgSearching)) {
		return
	}

	key := strings.ToLower(query)
	if cached, ok := s.searchCache.Get(key); ok {
		// Replay through the same emission loop so the protocol is uniform
		// regardless of cache state.
		if s.emitResults(ctx, events, cached) {
			emit(ctx, events, domain.EndWithCount(msgAllSent, len(cached)))
		}
		return
	}

	items, err := s.repo.Suggest(ctx, query)
	if err != nil {
		l := log.Ctx(ctx)
		if ctx.Err() != nil {
			l.Debug().Str("query", query).Msg("search cancelled")
			return
		}
		l.Error().Err(err).Str("query", query).Msg("upstream suggest failed")
		emit(ctx, events, domain.Error(fmt.Sprintf("search failed: %v", err)))
		return
	}

	results := s.transform(items)
	if len(results) == 0 {
		// Never cached: a later retry should re-query upstream instead of
		// hitting a remembered miss.
		emit(ctx, events, domain.End(msgNoResults))
		return
	}

	if !s.emitResults(ctx, events, results) {
		return
	}
	s.searchCache.Set(key, results)
	emit(ctx, events, domain.EndWithCount(msgAllSent, len(results)))
}

// emitResults sends init{total} followed by the movieStart/movieComplete
// pair for each result, in order.
func (s *streamServiceImpl) emitResults(ctx context.Context, events chan<- domain.StreamEvent, results []domain.SearchResult) bool {
	if !emit(ctx, events, domain.InitTotal(len(results))) {
		return false
	}
	for _, r := range results {
		if !emit(ctx, events, domain.MovieStart(r)) {
			return false
		}
		if !emit(ctx, events, domain.MovieComplete(r)) {
			return false
		}
	}
	return true
}

// transform maps upstream items to results: first maxResults items, cover
// paths rewritten to the internal proxy, missing identities backfilled,
// nameless items dropped.
func (s *streamServiceImpl) transform(items []domain.SuggestItem) []domain.SearchResult {
	if len(items) > maxResults {
		items = items[:maxResults]
	}

	results := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}

		r := domain.SearchResult{ID: item.ID, Name: item.Title}
		if r.ID == "" {
			if item.URL != "" {
				r.ID = item.URL
			} else {
				r.ID = uuid.NewString()
			}
		}

		if path := item.ImagePath(); path != "" {
			proxied := imageProxyPath + "?url=" + url.QueryEscape(path)
			r.Image = &proxied
		}

		results = append(results, r)
	}
	return results
}

func emit(ctx context.Context, events chan<- domain.StreamEvent, e domain.StreamEvent) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
