package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttrip.rieles.app/internal/cache"
	"nexttrip.rieles.app/internal/feed"
	"nexttrip.rieles.app/internal/geo"
	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureServer serves a minimal but complete feed deployment.
func fixtureServer(t *testing.T, documents map[string]string) *httptest.Server {
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

func baseDocuments() map[string]string {
	return map[string]string{
		"/train_stations.json": `{"elements": [
			{"lat": -34.60, "lon": -58.40, "tags": {"name": "Central"}},
			{"lat": -34.40, "lon": -58.60, "tags": {"name": "North"}}
		]}`,
		"/holidays_2025.json":        `[{"dia": 1, "mes": 1}]`,
		"/availability_options.json": `{"destination": {"9": "Central to North", "4": "North to Central"}, "scheduleSegment": {"1": "Weekday"}}`,
	}
}

func newFixtureSession(t *testing.T, server *httptest.Server, now time.Time, point geo.Coordinate) *Session {
	t.Helper()

	fetcher := feed.NewFetcher(feed.NewURLs(server.URL), nil, cache.NewMemoryStore(), discardLogger(), nil)
	provider := location.Static{Position: point}

	return NewSession(fetcher, provider, discardLogger(), nil, Config{
		Now: func() time.Time { return now },
	})
}

func nearCentral() geo.Coordinate {
	return geo.Coordinate{Lat: -34.601, Lon: -58.401}
}

func TestSessionResolvesEndToEnd(t *testing.T) {
	documents := baseDocuments()
	documents["/schedule_1.9.4_data.json"] = `[["09:00","09:05"]]`

	server := fixtureServer(t, documents)
	defer server.Close()

	now := time.Date(2025, time.June, 2, 8, 59, 0, 0, time.UTC) // a Monday
	session := newFixtureSession(t, server, now, nearCentral())

	var seen []State
	session.OnStateChange(func(state State) { seen = append(seen, state) })

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))

	origin, err := session.DetectOrigin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9", origin.ID, "first destination containing the station name wins")

	destinations := session.Destinations()
	require.Len(t, destinations, 1, "origin is excluded from the selectable list")
	assert.Equal(t, "4", destinations[0].ID)

	resolved, err := session.Resolve(ctx, destinations[0])
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC), resolved.Departure)
	assert.False(t, resolved.HasAlternative())
	assert.False(t, session.Degraded())
	assert.Equal(t, StateResolved, session.State())

	assert.Contains(t, seen, StateLoadingReferenceData)
	assert.Contains(t, seen, StateDetectingOrigin)
	assert.Contains(t, seen, StateSelectingDestination)
	assert.Contains(t, seen, StateFetchingTripTable)
	assert.NotContains(t, seen, StateFailed)
}

func TestSessionRollsOverToNextDay(t *testing.T) {
	documents := baseDocuments()
	// The only departure is long gone by the reference instant.
	documents["/schedule_1.9.4_data.json"] = `[["08:00","08:10"]]`

	server := fixtureServer(t, documents)
	defer server.Close()

	now := time.Date(2025, time.June, 2, 23, 0, 0, 0, time.UTC)
	session := newFixtureSession(t, server, now, nearCentral())

	var seen []State
	session.OnStateChange(func(state State) { seen = append(seen, state) })

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))
	_, err := session.DetectOrigin(ctx)
	require.NoError(t, err)

	destination, ok := session.DestinationByID("4")
	require.True(t, ok)

	resolved, err := session.Resolve(ctx, destination)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.June, 3, 8, 0, 0, 0, time.UTC), resolved.Departure,
		"rollover resets to midnight and takes the next day's first trip")
	assert.Contains(t, seen, StateNoTripToday)
}

func TestSessionRolloverSwitchesSegment(t *testing.T) {
	documents := baseDocuments()
	documents["/availability_options.json"] = `{"destination": {"9": "Central to North", "4": "North to Central"}, "scheduleSegment": {"1": "Weekday", "2": "Saturday"}}`
	documents["/schedule_1.9.4_data.json"] = `[["06:00","06:05"]]` // Friday table, already departed
	documents["/schedule_2.9.4_data.json"] = `[["10:00","10:05"]]` // Saturday table

	server := fixtureServer(t, documents)
	defer server.Close()

	now := time.Date(2025, time.June, 6, 22, 0, 0, 0, time.UTC) // a Friday evening
	session := newFixtureSession(t, server, now, nearCentral())

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))
	_, err := session.DetectOrigin(ctx)
	require.NoError(t, err)

	destination, ok := session.DestinationByID("4")
	require.True(t, ok)

	resolved, err := session.Resolve(ctx, destination)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.June, 7, 10, 0, 0, 0, time.UTC), resolved.Departure,
		"Saturday's segment governs the day after the rollover")
}

func TestSessionHolidayUsesHolidaySegment(t *testing.T) {
	documents := baseDocuments()
	documents["/availability_options.json"] = `{"destination": {"9": "Central to North", "4": "North to Central"}, "scheduleSegment": {"1": "Weekday", "3": "Holiday"}}`
	documents["/schedule_3.9.4_data.json"] = `[["11:00","11:05"]]`

	server := fixtureServer(t, documents)
	defer server.Close()

	// January 1st is in the holiday list.
	now := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	session := newFixtureSession(t, server, now, nearCentral())

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))
	_, err := session.DetectOrigin(ctx)
	require.NoError(t, err)

	destination, ok := session.DestinationByID("4")
	require.True(t, ok)

	resolved, err := session.Resolve(ctx, destination)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 11, 0, 0, 0, time.UTC), resolved.Departure)
}

func TestSessionLookaheadCap(t *testing.T) {
	documents := baseDocuments()
	documents["/schedule_1.9.4_data.json"] = `[]` // never any trips

	server := fixtureServer(t, documents)
	defer server.Close()

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	fetcher := feed.NewFetcher(feed.NewURLs(server.URL), nil, cache.NewMemoryStore(), discardLogger(), nil)
	session := NewSession(fetcher, location.Static{Position: nearCentral()}, discardLogger(), nil, Config{
		Now:           func() time.Time { return now },
		LookaheadDays: 3,
	})

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))
	_, err := session.DetectOrigin(ctx)
	require.NoError(t, err)

	destination, ok := session.DestinationByID("4")
	require.True(t, ok)

	_, err = session.Resolve(ctx, destination)
	assert.ErrorIs(t, err, ErrNoTripsFound)
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionFailsWhenReferenceDocumentMissing(t *testing.T) {
	documents := baseDocuments()
	delete(documents, "/holidays_2025.json")

	server := fixtureServer(t, documents)
	defer server.Close()

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	session := newFixtureSession(t, server, now, nearCentral())

	err := session.LoadReferenceData(context.Background())
	require.Error(t, err)

	var unavailable *feed.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionServedFromCacheIsDegradedNotFailed(t *testing.T) {
	documents := baseDocuments()
	documents["/schedule_1.9.4_data.json"] = `[["09:00","09:05"]]`

	server := fixtureServer(t, documents)

	now := time.Date(2025, time.June, 2, 8, 59, 0, 0, time.UTC)

	store := cache.NewMemoryStore()
	fetcher := feed.NewFetcher(feed.NewURLs(server.URL), nil, store, discardLogger(), nil)
	session := NewSession(fetcher, location.Static{Position: nearCentral()}, discardLogger(), nil, Config{
		Now: func() time.Time { return now },
	})

	ctx := context.Background()
	require.NoError(t, session.LoadReferenceData(ctx))
	_, err := session.DetectOrigin(ctx)
	require.NoError(t, err)
	fetcher.Wait()

	// Everything is cached now; kill the network.
	server.Close()

	secondFetcher := feed.NewFetcher(feed.NewURLs(server.URL), nil, store, discardLogger(), nil)
	offline := NewSession(secondFetcher, location.Static{Position: nearCentral()}, discardLogger(), nil, Config{
		Now: func() time.Time { return now },
	})

	require.NoError(t, offline.LoadReferenceData(ctx))
	_, err = offline.DetectOrigin(ctx)
	require.NoError(t, err)
	assert.True(t, offline.Degraded())

	destination, ok := offline.DestinationByID("4")
	require.True(t, ok)

	// The trip table was never fetched online, so it is not in the cache.
	_, err = offline.Resolve(ctx, destination)
	var unavailable *feed.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestSessionResolveRequiresOrigin(t *testing.T) {
	server := fixtureServer(t, baseDocuments())
	defer server.Close()

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	session := newFixtureSession(t, server, now, nearCentral())

	require.NoError(t, session.LoadReferenceData(context.Background()))

	_, err := session.Resolve(context.Background(), models.Destination{ID: "4"})
	assert.ErrorIs(t, err, ErrOriginNotDetected)
}
