package app

import (
	"log/slog"
	"time"

	"nexttrip.rieles.app/internal/cache"
	"nexttrip.rieles.app/internal/feed"
	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/metrics"
	"nexttrip.rieles.app/internal/schedule"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config  Config
	Logger  *slog.Logger
	Store   cache.Store
	Metrics *metrics.Collector
}

// Config holds all the configuration settings for our Application. These are
// read from command-line flags (with environment defaults) when the
// Application starts.
type Config struct {
	Port             int
	Env              string
	BaseURL          string
	LocationTimeout  time.Duration
	LookaheadDays    int
	MaxUnmatchedKeys int
}

// NewSession builds a resolution session for one lookup. Each session gets
// its own fetcher so the degraded flag stays scoped to the lookup; the cache
// store is shared.
func (app *Application) NewSession(provider location.Provider, now func() time.Time) *schedule.Session {
	fetcher := feed.NewFetcher(feed.NewURLs(app.Config.BaseURL), nil, app.Store, app.Logger, app.Metrics)

	return schedule.NewSession(fetcher, provider, app.Logger, app.Metrics, schedule.Config{
		LocationTimeout: app.Config.LocationTimeout,
		LookaheadDays:   app.Config.LookaheadDays,
		Now:             now,
	})
}
