package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "news-enricher/internal/common/errors"
)

func readerServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Extract(t *testing.T) {
	t.Run("successful extraction", func(t *testing.T) {
		var gotAuth, gotAccept string
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			json.NewEncoder(w).Encode(readerResponse{
				Code: 200,
				Data: Article{
					Title:         "The Story",
					Description:   "A short description",
					Content:       "# The Story\n\nBody text.",
					URL:           "https://example.com/story",
					PublishedTime: "2026-08-28T10:00:00Z",
				},
			})
		})

		client := NewClient(Options{BaseURL: srv.URL, APIKey: "jina-key"})
		article, err := client.Extract(context.Background(), "https://example.com/story")
		require.NoError(t, err)

		assert.Equal(t, "The Story", article.Title)
		assert.Equal(t, "# The Story\n\nBody text.", article.Content)
		assert.Equal(t, "Bearer jina-key", gotAuth)
		assert.Equal(t, "application/json", gotAccept)
	})

	t.Run("no auth header without key", func(t *testing.T) {
		var gotAuth string
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(readerResponse{Data: Article{Content: "text"}})
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/story")
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("invalid article URL", func(t *testing.T) {
		client := NewClient(Options{BaseURL: "http://unused.example"})
		_, err := client.Extract(context.Background(), "not a url")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidIdentifier))
	})

	t.Run("upstream 404", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("upstream rate limit", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/story")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRateLimit))
	})

	t.Run("upstream server error", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/story")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("empty content is a failure", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(readerResponse{Data: Article{Title: "no body"}})
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/story")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("malformed response body", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.Extract(context.Background(), "https://example.com/story")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("context cancellation maps to timeout", func(t *testing.T) {
		srv := readerServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})

		client := NewClient(Options{BaseURL: srv.URL})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Extract(ctx, "https://example.com/story")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationTimeout))
	})
}
