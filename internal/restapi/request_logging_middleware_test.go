package restapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttrip.rieles.app/internal/logging"
)

func TestRequestLoggingMiddlewareLogsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/where/next-trip/4?lat=-34.6&lon=-58.4", nil)
	recorder := httptest.NewRecorder()

	NewRequestLoggingMiddleware(logger)(handler).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/api/where/next-trip/4", entry["path"], "query string stays out of the log")
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
}

func TestRequestLoggingMiddlewareInjectsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	var seen *slog.Logger
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/where/current-time.json", nil)
	NewRequestLoggingMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

	assert.Same(t, logger, seen)
}

func TestServerErrorResponseLogsThroughContextLogger(t *testing.T) {
	feedSrv := newFeedServer(t, feedDocuments())
	t.Cleanup(feedSrv.Close)

	var buf bytes.Buffer
	api := createTestApi(t, feedSrv.URL)
	api.Logger = logging.NewStructuredLogger(&buf, slog.LevelInfo)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.serverErrorResponse(w, r, assert.AnError)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	NewRequestLoggingMiddleware(api.Logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
