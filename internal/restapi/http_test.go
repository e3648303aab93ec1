package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"nexttrip.rieles.app/internal/app"
	"nexttrip.rieles.app/internal/cache"
	"nexttrip.rieles.app/internal/metrics"
	"nexttrip.rieles.app/internal/models"
)

// feedDocuments is a minimal but complete feed deployment for handler tests.
func feedDocuments() map[string]string {
	return map[string]string{
		"/train_stations.json": `{"elements": [
			{"lat": -34.60, "lon": -58.40, "tags": {"name": "Central"}},
			{"lat": -34.40, "lon": -58.60, "tags": {"name": "North"}}
		]}`,
		"/holidays_2025.json":        `[{"dia": 1, "mes": 1}]`,
		"/holidays_2026.json":        `[{"dia": 1, "mes": 1}]`,
		"/availability_options.json": `{"destination": {"9": "Central to North", "4": "North to Central"}, "scheduleSegment": {"1": "Weekday"}}`,
		"/schedule_1.9.4_data.json":  `[["09:00","09:05"],["21:30","21:35"]]`,
	}
}

func newFeedServer(t *testing.T, documents map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := documents[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, payload)
	}))
}

// createTestApi creates a RestAPI instance backed by a fixture feed server and
// an in-memory cache.
func createTestApi(t *testing.T, feedBaseURL string) *RestAPI {
	t.Helper()

	application := &app.Application{
		Config: app.Config{
			Env:     "test",
			BaseURL: feedBaseURL,
		},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   cache.NewMemoryStore(),
		Metrics: metrics.NewCollector(),
	}

	return NewRestAPI(application)
}

// serveApiAndRetrieveEndpoint sets up a test server, makes a request to the
// specified endpoint, and returns the response and decoded model.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var response models.ResponseModel
	err = json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	return resp, response
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	feed := newFeedServer(t, feedDocuments())
	t.Cleanup(feed.Close)

	api := createTestApi(t, feed.URL)
	return serveApiAndRetrieveEndpoint(t, api, endpoint)
}
