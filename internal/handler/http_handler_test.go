package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergrid/search-service/internal/domain"
	"github.com/covergrid/search-service/internal/repository"
	"github.com/covergrid/search-service/internal/service"
)

type fakeStreamService struct {
	events []domain.StreamEvent
	calls  int
}

func (f *fakeStreamService) StreamSearch(ctx context.Context, query string) <-chan domain.StreamEvent {
	f.calls++
	ch := make(chan domain.StreamEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

type fakeImageService struct {
	blob *repository.ImageBlob
	err  error
}

func (f *fakeImageService) ProxyImage(ctx context.Context, rawURL string) (*repository.ImageBlob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blob, nil
}

func newEngine(stream service.StreamService, image service.ImageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(stream, image).RegisterRoutes(r)
	return r
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	stream := &fakeStreamService{}
	r := newEngine(stream, &fakeImageService{})

	for _, q := range []string{"", "   "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/search?q="+strings.ReplaceAll(q, " ", "%20"), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	}
	assert.Equal(t, 0, stream.calls, "no stream may open for an empty query")
}

func TestSearch_StreamsNDJSON(t *testing.T) {
	img := "/image?url=x"
	two := 2
	stream := &fakeStreamService{events: []domain.StreamEvent{
		domain.InitMessage("searching"),
		domain.InitTotal(2),
		domain.MovieStart(domain.SearchResult{ID: "1", Name: "Ask the Dust"}),
		domain.MovieComplete(domain.SearchResult{ID: "1", Name: "Ask the Dust"}),
		domain.MovieStart(domain.SearchResult{ID: "2", Name: "Asking for Trouble", Image: &img}),
		domain.MovieComplete(domain.SearchResult{ID: "2", Name: "Asking for Trouble", Image: &img}),
		domain.EndWithCount("all results sent", two),
	}}
	r := newEngine(stream, &fakeImageService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=ask", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600, s-maxage=86400, stale-while-revalidate=86400", w.Header().Get("Cache-Control"))
	assert.Equal(t, "public, s-maxage=86400, stale-while-revalidate=86400", w.Header().Get("CDN-Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.True(t, w.Flushed, "each line must be flushed as it is produced")

	body := w.Body.String()
	require.True(t, strings.HasSuffix(body, "\n"), "every line is newline-terminated")

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	require.Len(t, lines, 7)

	var got []domain.StreamEvent
	for _, line := range lines {
		var ev domain.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev), "line %q must be standalone JSON", line)
		got = append(got, ev)
	}
	assert.Equal(t, stream.events, got)
	assert.True(t, got[len(got)-1].Terminal())
}

func TestSearch_MovieStartWireShape(t *testing.T) {
	stream := &fakeStreamService{events: []domain.StreamEvent{
		domain.MovieStart(domain.SearchResult{ID: "9", Name: "Solaris"}),
		domain.End("no results found"),
	}}
	r := newEngine(stream, &fakeImageService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=solaris", nil))

	first := strings.SplitN(w.Body.String(), "\n", 2)[0]
	assert.JSONEq(t, `{"type":"movieStart","movie":{"id":"9","name":"Solaris","image":null}}`, first,
		"placeholder events carry an explicit null image")
}

func TestImage_DisallowedURL(t *testing.T) {
	r := newEngine(&fakeStreamService{}, &fakeImageService{err: service.ErrDisallowedImageURL})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/image?url=https%3A%2F%2Fevil.example.com%2Fx.jpg", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImage_UpstreamStatusRelayed(t *testing.T) {
	r := newEngine(&fakeStreamService{}, &fakeImageService{
		err: &repository.UpstreamStatusError{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/image?url=https%3A%2F%2Fimg1.doubanio.com%2Fgone.jpg", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImage_RelaysBlob(t *testing.T) {
	r := newEngine(&fakeStreamService{}, &fakeImageService{
		blob: &repository.ImageBlob{ContentType: "image/webp", Data: []byte{1, 2, 3, 4}},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/image?url=https%3A%2F%2Fimg1.doubanio.com%2Fx.webp", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
	assert.Equal(t, []byte{1, 2, 3, 4}, w.Body.Bytes())
}
