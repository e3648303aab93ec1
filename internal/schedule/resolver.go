// Package schedule resolves the next scheduled departure from an ordered
// trip table and drives the full resolution cycle across day boundaries.
package schedule

import (
	"errors"
	"time"

	"nexttrip.rieles.app/internal/models"
)

var (
	// ErrNoTripRemainingToday signals that every trip in the table departs
	// before the reference instant. Recovered by the day-rollover loop,
	// never user-visible on its own.
	ErrNoTripRemainingToday = errors.New("no trip remaining today")

	// ErrNoTripsFound is returned when the rollover loop exhausts its
	// lookahead window without resolving a departure.
	ErrNoTripsFound = errors.New("no upcoming trips within lookahead window")
)

// ResolveNext scans trips in table order and returns the first departure at
// or after the reference instant. A zero delta counts as "departing now". The
// entry after the winner, when present, becomes the alternative start hint.
//
// The table is required to be ordered ascending by start time; the scan
// relies on that and does not re-sort.
func ResolveNext(reference time.Time, trips []models.TripTimeSpan) (models.ResolvedTrip, error) {
	for i, span := range trips {
		hour, minute, err := span.StartClock()
		if err != nil {
			return models.ResolvedTrip{}, err
		}

		candidate := time.Date(
			reference.Year(), reference.Month(), reference.Day(),
			hour, minute, 0, 0,
			reference.Location(),
		)

		if !candidate.Before(reference) {
			resolved := models.ResolvedTrip{Departure: candidate}
			if i+1 < len(trips) {
				resolved.AlternativeStart = trips[i+1].Start
			}
			return resolved, nil
		}
	}

	return models.ResolvedTrip{}, ErrNoTripRemainingToday
}
