// Package stations resolves the nearest train station to a coordinate and
// matches it against the destination catalog to detect the trip origin.
package stations

import (
	"errors"
	"strings"

	"nexttrip.rieles.app/internal/geo"
	"nexttrip.rieles.app/internal/models"
)

var (
	// ErrNoStationsAvailable is returned when the station directory is empty.
	ErrNoStationsAvailable = errors.New("no stations available")

	// ErrOriginDetectionFailed is returned when no destination title matches
	// the nearest station's names.
	ErrOriginDetectionFailed = errors.New("could not detect origin station")

	// ErrInvalidCoordinate is returned for NaN or out-of-range query points.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Match is the outcome of a nearest-station lookup. Names holds the station's
// full name plus its short name when present, in that order; both are
// candidates for fuzzy destination matching.
type Match struct {
	Station  models.Station
	Distance float64
	Names    []string
}

// Nearest scans all stations and returns the closest one to point. The scan
// is linear on purpose: the directory holds one commuter-rail network, a few
// dozen entries at most. Ties keep the first occurrence.
func Nearest(point geo.Coordinate, stations []models.Station) (Match, error) {
	if !geo.IsValid(point) {
		return Match{}, ErrInvalidCoordinate
	}
	if len(stations) == 0 {
		return Match{}, ErrNoStationsAvailable
	}

	var best Match
	bestDistance := -1.0

	for _, station := range stations {
		distance := geo.Distance(point, geo.Coordinate{Lat: station.Latitude, Lon: station.Longitude})

		if bestDistance < 0 || distance < bestDistance {
			bestDistance = distance

			names := []string{station.Name}
			if station.ShortName != "" {
				names = append(names, station.ShortName)
			}

			best = Match{
				Station:  station,
				Distance: distance,
				Names:    names,
			}
		}
	}

	return best, nil
}

// MatchOrigin finds the destination whose title contains one of the matched
// station names, case-insensitively. The first match in catalog order wins.
func MatchOrigin(match Match, destinations []models.Destination) (models.Destination, error) {
	for _, destination := range destinations {
		title := strings.ToLower(destination.Title)

		for _, name := range match.Names {
			if strings.Contains(title, strings.ToLower(name)) {
				return destination, nil
			}
		}
	}

	return models.Destination{}, ErrOriginDetectionFailed
}
