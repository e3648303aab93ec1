package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"nexttrip.rieles.app/internal/models"
)

// The station map publishes names with parenthesized annotation hints that
// are noise for matching, e.g. "Retiro (Mitre)".
var annotationPattern = regexp.MustCompile(`\s*\(.*\)\s*$`)

type stationElement struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	} `json:"tags"`
}

type stationDocument struct {
	Elements []stationElement `json:"elements"`
}

// ParseStations loads the train stations map. Elements without a name or
// without usable coordinates are skipped with a warning; node coordinates win
// over the area center when both are present.
func ParseStations(payload []byte, logger *slog.Logger) ([]models.Station, error) {
	var document stationDocument
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("invalid train stations map: %w", err)
	}

	stations := make([]models.Station, 0, len(document.Elements))

	for _, element := range document.Elements {
		if element.Tags.Name == "" {
			logger.Warn("skipping unnamed station element")
			continue
		}

		var lat, lon float64
		switch {
		case element.Lat != nil && element.Lon != nil:
			lat, lon = *element.Lat, *element.Lon
		case element.Center != nil:
			lat, lon = element.Center.Lat, element.Center.Lon
		default:
			logger.Warn("skipping station without coordinates", "name", element.Tags.Name)
			continue
		}

		stations = append(stations, models.Station{
			Name:      annotationPattern.ReplaceAllString(element.Tags.Name, ""),
			ShortName: element.Tags.ShortName,
			Latitude:  lat,
			Longitude: lon,
		})
	}

	return stations, nil
}

// ParseHolidays loads the per-year holiday list.
func ParseHolidays(payload []byte) ([]models.HolidayEntry, error) {
	var holidays []models.HolidayEntry
	if err := json.Unmarshal(payload, &holidays); err != nil {
		return nil, fmt.Errorf("invalid holidays list: %w", err)
	}
	return holidays, nil
}

// Availability is the destination and segment catalog document.
type Availability struct {
	Destinations []models.Destination
	Segments     models.SegmentCatalog
}

// ParseAvailability loads the availability options document. JSON object key
// order is significant for segment fallback, so both catalogs are decoded
// through the token stream rather than into maps.
func ParseAvailability(payload []byte) (Availability, error) {
	var availability Availability

	dec := json.NewDecoder(bytes.NewReader(payload))

	if err := expectDelim(dec, '{'); err != nil {
		return availability, fmt.Errorf("invalid availability options: %w", err)
	}

	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return availability, fmt.Errorf("invalid availability options: %w", err)
		}
		key, _ := keyToken.(string)

		switch key {
		case "destination":
			pairs, err := decodeOrderedPairs(dec)
			if err != nil {
				return availability, fmt.Errorf("invalid destination catalog: %w", err)
			}
			for _, pair := range pairs {
				// The feed pads the catalog with a null placeholder entry.
				if pair[0] == "" || pair[0] == "null" {
					continue
				}
				availability.Destinations = append(availability.Destinations, models.Destination{
					ID:    pair[0],
					Title: pair[1],
				})
			}
		case "scheduleSegment":
			pairs, err := decodeOrderedPairs(dec)
			if err != nil {
				return availability, fmt.Errorf("invalid segment catalog: %w", err)
			}
			for _, pair := range pairs {
				availability.Segments = append(availability.Segments, models.SegmentEntry{
					ID:   pair[0],
					Name: pair[1],
				})
			}
		default:
			var skipped json.RawMessage
			if err := dec.Decode(&skipped); err != nil {
				return availability, fmt.Errorf("invalid availability options: %w", err)
			}
		}
	}

	return availability, nil
}

// ParseTripTable loads one segment's ordered trip table.
func ParseTripTable(payload []byte) ([]models.TripTimeSpan, error) {
	var trips []models.TripTimeSpan
	if err := json.Unmarshal(payload, &trips); err != nil {
		return nil, fmt.Errorf("invalid trip table: %w", err)
	}
	return trips, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	token, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, token)
	}
	return nil
}

// decodeOrderedPairs reads a JSON object of string values as an ordered
// (key, value) sequence.
func decodeOrderedPairs(dec *json.Decoder) ([][2]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var pairs [][2]string
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyToken)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		pairs = append(pairs, [2]string{key, value})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return pairs, nil
}
