package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/covergrid/search-service/internal/domain"
)

const defaultWatchdogDelay = 3 * time.Second

// Consumer-side status messages.
const (
	msgIdleHint       = "type a query to search"
	msgSearching      = "searching..."
	msgStillSearching = "still searching, hang on..."
)

// Update is a snapshot published to the subscriber after every observed
// event: the current status plus the full result list ordered by first
// appearance.
type Update struct {
	Status  Status
	Results []domain.SearchResult
	Total   int
}

// Searcher consumes the incremental search stream and folds it into
// progressively published state. Starting a new search supersedes any
// in-flight one; events belonging to a superseded request are discarded.
// Safe for concurrent use.
type Searcher struct {
	client   *http.Client
	baseURL  string
	onUpdate func(Update)
	watchdog time.Duration

	mu        sync.Mutex
	gen       uint64 // request token; bumped on every new search/clear
	cancel    context.CancelFunc
	status    Status
	results   []domain.SearchResult
	index     map[string]int // id -> position in results
	total     int
	lastQuery string
}

// NewSearcher creates a consumer talking to baseURL. onUpdate may be nil;
// otherwise it is invoked outside the internal lock, in event order.
func NewSearcher(baseURL string, client *http.Client, onUpdate func(Update)) *Searcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Searcher{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		onUpdate: onUpdate,
		watchdog: defaultWatchdogDelay,
		status:   Status{State: StateIdle, Message: msgIdleHint},
		index:    make(map[string]int),
	}
}

// Search starts a new search, cancelling any in-flight one. A blank query
// resets to idle.
func (s *Searcher) Search(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.Clear()
		return
	}
	s.start(query, false)
}

// Retry re-issues the last query verbatim, keeping accumulated results on
// screen until fresh ones arrive.
func (s *Searcher) Retry() {
	s.mu.Lock()
	query := s.lastQuery
	s.mu.Unlock()
	if query == "" {
		return
	}
	s.start(query, true)
}

// Clear aborts any in-flight search and returns to idle. Cancellation is
// silent: it never surfaces as an error status.
func (s *Searcher) Clear() {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = Status{State: StateIdle, Message: msgIdleHint}
	s.results = nil
	s.index = make(map[string]int)
	s.total = 0
	s.lastQuery = ""
	s.mu.Unlock()

	s.publish(gen)
}

// Close aborts any in-flight search without resetting published state.
// Intended for dialog dismissal.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// Status returns the current status.
func (s *Searcher) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Results returns a copy of the accumulated results in first-seen order.
func (s *Searcher) Results() []domain.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SearchResult(nil), s.results...)
}

func (s *Searcher) start(query string, retry bool) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.lastQuery = query
	if !retry {
		s.results = nil
		s.index = make(map[string]int)
		s.total = 0
	}
	s.status = Status{State: StateSearching, Message: msgSearching}
	s.mu.Unlock()

	s.publish(gen)

	// One-shot cosmetic refresh while a slow search is in flight.
	timer := time.AfterFunc(s.watchdog, func() { s.stillSearching(gen) })

	go func() {
		defer timer.Stop()
		defer cancel()
		s.consume(ctx, gen, query)
	}()
}

func (s *Searcher) consume(ctx context.Context, gen uint64, query string) {
	endpoint := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		s.fail(gen, "search request failed")
		return
	}

	res, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(gen, "search request failed")
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		s.fail(gen, fmt.Sprintf("search request failed: %d", res.StatusCode))
		return
	}

	var parser eventParser
	sawTerminal := false
	buf := make([]byte, 4096)
	for {
		n, readErr := res.Body.Read(buf)
		if n > 0 {
			events, parseErr := parser.feed(buf[:n])
			for _, ev := range events {
				if !s.apply(gen, ev) {
					return
				}
				if ev.Terminal() {
					sawTerminal = true
				}
			}
			if parseErr != nil {
				s.fail(gen, "malformed search response")
				return
			}
		}
		if sawTerminal {
			return
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return
			}
			if readErr == io.EOF {
				// The protocol promises a terminal event; a bare EOF means
				// the stream was cut, and the consumer must not stay stuck
				// in searching.
				s.fail(gen, "search stream ended unexpectedly")
			} else {
				s.fail(gen, "search stream read failed")
			}
			return
		}
	}
}

// apply folds one event into state. Returns false when the event belongs to
// a superseded request and was discarded.
func (s *Searcher) apply(gen uint64, ev domain.StreamEvent) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}

	switch ev.Type {
	case domain.EventInit:
		if ev.Total != nil {
			s.total = *ev.Total
			s.status = Status{State: StateSearching, Message: fmt.Sprintf("found %d results...", *ev.Total)}
		}
	case domain.EventMovieStart, domain.EventMovieComplete:
		if ev.Movie != nil {
			if i, ok := s.index[ev.Movie.ID]; ok {
				s.results[i] = *ev.Movie
			} else {
				s.index[ev.Movie.ID] = len(s.results)
				s.results = append(s.results, *ev.Movie)
			}
		}
	case domain.EventEnd:
		if len(s.results) > 0 {
			s.status = Status{State: StateSuccess}
		} else {
			s.status = Status{State: StateNoResults, Message: ev.Message}
		}
	case domain.EventError:
		s.status = Status{State: StateError, Message: ev.Message}
	}
	s.mu.Unlock()

	s.publish(gen)
	return true
}

func (s *Searcher) fail(gen uint64, message string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.status = Status{State: StateError, Message: message}
	s.mu.Unlock()

	s.publish(gen)
}

func (s *Searcher) stillSearching(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.status.State != StateSearching {
		s.mu.Unlock()
		return
	}
	s.status.Message = msgStillSearching
	s.mu.Unlock()

	s.publish(gen)
}

// publish snapshots state and invokes the subscriber outside the lock.
func (s *Searcher) publish(gen uint64) {
	if s.onUpdate == nil {
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	u := Update{
		Status:  s.status,
		Results: append([]domain.SearchResult(nil), s.results...),
		Total:   s.total,
	}
	s.mu.Unlock()

	s.onUpdate(u)
}
