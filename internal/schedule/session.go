package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nexttrip.rieles.app/internal/calendar"
	"nexttrip.rieles.app/internal/feed"
	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/logging"
	"nexttrip.rieles.app/internal/metrics"
	"nexttrip.rieles.app/internal/models"
	"nexttrip.rieles.app/internal/stations"
)

// State identifies one stage of the resolution cycle.
type State string

const (
	StateInit                 State = "init"
	StateLoadingReferenceData State = "loading_reference_data"
	StateDetectingOrigin      State = "detecting_origin"
	StateSelectingDestination State = "selecting_destination"
	StateFetchingTripTable    State = "fetching_trip_table"
	StateNoTripToday          State = "no_trip_today"
	StateResolved             State = "resolved"
	StateFailed               State = "failed"
)

// ErrOriginNotDetected is returned when Resolve runs before DetectOrigin.
var ErrOriginNotDetected = errors.New("origin not detected yet")

// Config tunes one resolution session.
type Config struct {
	// LocationTimeout bounds each of the two position attempts.
	LocationTimeout time.Duration

	// LookaheadDays caps the day-rollover loop. Past it, resolution fails
	// with ErrNoTripsFound instead of scanning the calendar forever.
	LookaheadDays int

	// Now supplies the reference instant; tests pin it.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = 10 * time.Second
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 14
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Session drives one schedule lookup from reference data to a resolved trip.
// It is the only component that retries across day boundaries. All reference
// data is read-only once LoadReferenceData returns; the session is not meant
// to be shared across lookups.
type Session struct {
	fetcher   *feed.Fetcher
	provider  location.Provider
	logger    *slog.Logger
	collector *metrics.Collector
	config    Config

	mu        sync.Mutex
	state     State
	observers []func(State)

	stations     []models.Station
	holidays     []models.HolidayEntry
	catalog      models.SegmentCatalog
	destinations []models.Destination
	origin       *models.Destination
	segment      *models.SegmentEntry
}

func NewSession(fetcher *feed.Fetcher, provider location.Provider, logger *slog.Logger, collector *metrics.Collector, config Config) *Session {
	return &Session{
		fetcher:   fetcher,
		provider:  provider,
		logger:    logger,
		collector: collector,
		config:    config.withDefaults(),
		state:     StateInit,
	}
}

// OnStateChange registers an observer invoked on every state transition.
// Observers run on the transitioning goroutine and must not block.
func (s *Session) OnStateChange(observer func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether any document in this session was served from cache.
func (s *Session) Degraded() bool {
	return s.fetcher.NetworkErrorDetected()
}

// Origin returns the detected origin destination, if any.
func (s *Session) Origin() (models.Destination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.origin == nil {
		return models.Destination{}, false
	}
	return *s.origin, true
}

// Segment returns the schedule segment the last resolution used, if any.
func (s *Session) Segment() (models.SegmentEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.segment == nil {
		return models.SegmentEntry{}, false
	}
	return *s.segment, true
}

// Destinations lists the selectable destinations, excluding the detected
// origin.
func (s *Session) Destinations() []models.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()

	selectable := make([]models.Destination, 0, len(s.destinations))
	for _, destination := range s.destinations {
		if s.origin != nil && destination.ID == s.origin.ID {
			continue
		}
		selectable = append(selectable, destination)
	}
	return selectable
}

// DestinationByID looks a destination up in the loaded catalog.
func (s *Session) DestinationByID(id string) (models.Destination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, destination := range s.destinations {
		if destination.ID == id {
			return destination, true
		}
	}
	return models.Destination{}, false
}

// LoadReferenceData fetches the station map, the holiday list and the
// availability catalog concurrently. The three documents are independent and
// write disjoint cache keys; any one failing fails the session, partial
// reference data is never accepted.
func (s *Session) LoadReferenceData(ctx context.Context) error {
	s.transition(StateLoadingReferenceData)

	urls := s.fetcher.URLs()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		result, err := s.fetcher.Fetch(ctx, urls.Stations())
		if err != nil {
			fail(fmt.Errorf("train stations map: %w", err))
			return
		}
		loaded, err := feed.ParseStations(result.Payload, s.logger)
		if err != nil {
			fail(err)
			return
		}
		s.stations = loaded
	}()

	go func() {
		defer wg.Done()
		result, err := s.fetcher.Fetch(ctx, urls.Holidays(s.config.Now().Year()))
		if err != nil {
			fail(fmt.Errorf("holidays list: %w", err))
			return
		}
		loaded, err := feed.ParseHolidays(result.Payload)
		if err != nil {
			fail(err)
			return
		}
		s.holidays = loaded
	}()

	go func() {
		defer wg.Done()
		result, err := s.fetcher.Fetch(ctx, urls.Availability())
		if err != nil {
			fail(fmt.Errorf("availability options: %w", err))
			return
		}
		availability, err := feed.ParseAvailability(result.Payload)
		if err != nil {
			fail(err)
			return
		}
		s.destinations = availability.Destinations
		s.catalog = availability.Segments
	}()

	wg.Wait()

	if firstErr != nil {
		s.transition(StateFailed)
		return firstErr
	}

	logging.LogOperation(s.logger, "reference data loaded",
		slog.Int("stations", len(s.stations)),
		slog.Int("holidays", len(s.holidays)),
		slog.Int("destinations", len(s.destinations)),
		slog.Int("segments", len(s.catalog)))

	return nil
}

// DetectOrigin acquires the device position, finds the nearest station and
// matches it against the destination catalog.
func (s *Session) DetectOrigin(ctx context.Context) (models.Destination, error) {
	s.transition(StateDetectingOrigin)

	point, err := location.Acquire(ctx, s.provider, s.config.LocationTimeout, s.logger)
	if err != nil {
		s.transition(StateFailed)
		return models.Destination{}, err
	}

	match, err := stations.Nearest(point, s.stations)
	if err != nil {
		s.transition(StateFailed)
		return models.Destination{}, err
	}

	origin, err := stations.MatchOrigin(match, s.destinations)
	if err != nil {
		s.transition(StateFailed)
		return models.Destination{}, err
	}

	logging.LogOperation(s.logger, "origin detected",
		slog.String("station", match.Station.Name),
		slog.Float64("distance_m", match.Distance),
		slog.String("origin", origin.Title))

	s.mu.Lock()
	s.origin = &origin
	s.mu.Unlock()

	s.transition(StateSelectingDestination)
	return origin, nil
}

// Resolve finds the next departure toward destination, rolling over to the
// following day while no trip remains, up to the lookahead cap.
func (s *Session) Resolve(ctx context.Context, destination models.Destination) (models.ResolvedTrip, error) {
	origin, ok := s.Origin()
	if !ok {
		return models.ResolvedTrip{}, ErrOriginNotDetected
	}

	started := time.Now()
	reference := s.config.Now()

	for day := 0; day <= s.config.LookaheadDays; day++ {
		s.transition(StateFetchingTripTable)

		classification := calendar.Classify(reference, s.holidays)
		segmentID, err := calendar.SelectSegment(s.catalog, classification)
		if err != nil {
			s.transition(StateFailed)
			return models.ResolvedTrip{}, err
		}
		s.recordSegment(segmentID)

		tableURL := s.fetcher.URLs().TripTable(segmentID, origin.ID, destination.ID)
		result, err := s.fetcher.Fetch(ctx, tableURL)
		if err != nil {
			s.transition(StateFailed)
			return models.ResolvedTrip{}, err
		}

		trips, err := feed.ParseTripTable(result.Payload)
		if err != nil {
			s.transition(StateFailed)
			return models.ResolvedTrip{}, err
		}

		resolved, err := ResolveNext(reference, trips)
		if err == nil {
			s.transition(StateResolved)
			s.observeResolved(started)
			return resolved, nil
		}
		if !errors.Is(err, ErrNoTripRemainingToday) {
			s.transition(StateFailed)
			return models.ResolvedTrip{}, err
		}

		s.logger.Info("no trips remaining, trying the next day",
			"date", reference.Format("2006-01-02"), "segment", segmentID)
		s.transition(StateNoTripToday)
		if s.collector != nil {
			s.collector.DayRollovers.Inc()
		}

		reference = startOfNextDay(reference)
	}

	s.transition(StateFailed)
	return models.ResolvedTrip{}, ErrNoTripsFound
}

func (s *Session) recordSegment(segmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.catalog {
		if entry.ID == segmentID {
			segment := entry
			s.segment = &segment
			return
		}
	}
}

func (s *Session) observeResolved(started time.Time) {
	if s.collector == nil {
		return
	}
	s.collector.ResolutionDuration.Observe(time.Since(started).Seconds())
	if s.Degraded() {
		s.collector.DegradedSessions.Inc()
	}
}

func (s *Session) transition(state State) {
	s.mu.Lock()
	s.state = state
	observers := make([]func(State), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, observer := range observers {
		observer(state)
	}
}

func startOfNextDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}
