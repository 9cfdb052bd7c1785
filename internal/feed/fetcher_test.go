package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GeoConfirmed/rss", r.URL.Path)
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer ts.Close()

	fetcher := NewFetcher(ts.URL, zerolog.Nop())
	feed, err := fetcher.FetchSource(context.Background(), "@GeoConfirmed")
	require.NoError(t, err)
	assert.Len(t, feed.Items, 1)
}

func TestFetchSourceHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	fetcher := NewFetcher(ts.URL, zerolog.Nop())
	_, err := fetcher.FetchSource(context.Background(), "@GeoConfirmed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestFetchAllSkipsFailedSources(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken/rss" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer ts.Close()

	fetcher := NewFetcher(ts.URL, zerolog.Nop())
	feeds := fetcher.FetchAll(context.Background(), []string{"@GeoConfirmed", "@broken"})

	require.Len(t, feeds, 1)
	assert.Contains(t, feeds, "@GeoConfirmed")
}
