package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttrip.rieles.app/internal/cache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(baseURL string, store cache.Store) *Fetcher {
	return NewFetcher(NewURLs(baseURL), nil, store, discardLogger(), nil)
}

func TestFetchFromNetworkWritesCache(t *testing.T) {
	payload := `{"elements":[]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	fetcher := newTestFetcher(server.URL, store)

	result, err := fetcher.Fetch(context.Background(), server.URL+"/train_stations.json")
	require.NoError(t, err)

	assert.Equal(t, SourceNetwork, result.Source)
	assert.Equal(t, payload, string(result.Payload))

	fetcher.Wait()
	cached, ok, err := store.Get(context.Background(), server.URL+"/train_stations.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, cached)
}

func TestFetchFallsBackToCacheOnNetworkFailure(t *testing.T) {
	payload := `[["08:00","08:10"]]`
	url := "http://127.0.0.1:1/schedule_1.2.3_data.json" // nothing listens here

	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), url, payload))

	fetcher := newTestFetcher("http://127.0.0.1:1", store)

	result, err := fetcher.Fetch(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, payload, string(result.Payload), "cached payload must come back byte-for-byte")
	assert.True(t, fetcher.NetworkErrorDetected())
}

func TestFetchFailsWithoutCacheEntry(t *testing.T) {
	store := cache.NewMemoryStore()
	fetcher := newTestFetcher("http://127.0.0.1:1", store)

	_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1/holidays_2025.json")

	var unavailable *DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "http://127.0.0.1:1/holidays_2025.json", unavailable.URL)
	assert.False(t, fetcher.NetworkErrorDetected())
}

func TestFetchRejectsInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	cachedPayload := `{"destination":{}}`
	url := server.URL + "/availability_options.json"

	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), url, cachedPayload))

	fetcher := newTestFetcher(server.URL, store)

	result, err := fetcher.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, cachedPayload, string(result.Payload))
}

func TestFetchTreatsNon200AsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL, cache.NewMemoryStore())

	_, err := fetcher.Fetch(context.Background(), server.URL+"/train_stations.json")

	var unavailable *DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestFetchRoundTripThroughCache(t *testing.T) {
	payload := `{"destination":{"1":"Retiro a Tigre"},"scheduleSegment":{"1":"Lunes a Viernes"}}`

	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	fetcher := newTestFetcher(server.URL, store)
	url := server.URL + "/availability_options.json"

	first, err := fetcher.Fetch(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, first.Source)
	fetcher.Wait()

	failing.Store(true)

	second, err := fetcher.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Payload, second.Payload)
}
