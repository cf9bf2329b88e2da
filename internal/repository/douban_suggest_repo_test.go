package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/j/subject_suggest", r.URL.Path)
		assert.Equal(t, "白夜行", r.URL.Query().Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.Equal(t, "https://book.douban.com/", r.Header.Get("Referer"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","title":"白夜行","pic":"https://img1.doubanio.com/x.jpg"}]`))
	}))
	defer srv.Close()

	repo := NewDoubanSuggestRepository(srv.Client(), srv.URL)
	items, err := repo.Suggest(context.Background(), "白夜行")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "https://img1.doubanio.com/x.jpg", items[0].ImagePath())
}

func TestSuggest_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	repo := NewDoubanSuggestRepository(srv.Client(), srv.URL)
	_, err := repo.Suggest(context.Background(), "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSuggest_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	repo := NewDoubanSuggestRepository(srv.Client(), srv.URL)
	_, err := repo.Suggest(context.Background(), "ask")
	assert.Error(t, err)
}

func TestSuggest_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	repo := NewDoubanSuggestRepository(srv.Client(), srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := repo.Suggest(ctx, "ask")
	assert.Error(t, err)
}

func TestFetchImage_RelaysContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()

	repo := NewDoubanImageRepository(srv.Client())
	blob, err := repo.FetchImage(context.Background(), srv.URL+"/x.webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", blob.ContentType)
	assert.Equal(t, []byte{1, 2, 3}, blob.Data)
}

func TestFetchImage_DefaultsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil // suppress sniffing
		_, _ = w.Write([]byte{0xff, 0xd8})
	}))
	defer srv.Close()

	repo := NewDoubanImageRepository(srv.Client())
	blob, err := repo.FetchImage(context.Background(), srv.URL+"/x")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blob.ContentType)
}

func TestFetchImage_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	repo := NewDoubanImageRepository(srv.Client())
	_, err := repo.FetchImage(context.Background(), srv.URL+"/x.jpg")

	var statusErr *UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusGone, statusErr.StatusCode)
}
