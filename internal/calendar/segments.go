package calendar

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"nexttrip.rieles.app/internal/models"
)

// ErrNoMatchingSegment is returned when no catalog entry governs the
// classified date.
var ErrNoMatchingSegment = errors.New("no matching schedule segment")

// Marker tokens are compared against normalized segment names, so "Sábado",
// "sabado" and "SABADO" are all equivalent. The feed publishes Spanish names;
// English tokens are accepted as well.
var (
	holidayMarkers  = []string{"feriado", "holiday"}
	saturdayMarkers = []string{"sabado", "saturday"}
	sundayMarkers   = []string{"domingo", "sunday"}
)

var nameNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName strips diacritics and case-folds a segment name for marker
// matching.
func normalizeName(name string) string {
	stripped, _, err := transform.String(nameNormalizer, name)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(stripped)
}

func containsAny(normalized string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

func isSpecialized(normalized string) bool {
	return containsAny(normalized, holidayMarkers) ||
		containsAny(normalized, saturdayMarkers) ||
		containsAny(normalized, sundayMarkers)
}

// SelectSegment picks the catalog entry governing trips for the classified
// date, iterating in catalog order and stopping at the first match:
//
//  1. Holidays only ever match holiday-marked segments; there is no
//     fall-through to weekday or weekend entries.
//  2. Sundays and Saturdays prefer a segment carrying their marker, and fall
//     back to the default segment when none exists.
//  3. Weekdays take the first entry carrying no specialized marker at all.
func SelectSegment(catalog models.SegmentCatalog, classification Classification) (string, error) {
	if classification.IsHoliday {
		for _, entry := range catalog {
			if containsAny(normalizeName(entry.Name), holidayMarkers) {
				return entry.ID, nil
			}
		}
		return "", ErrNoMatchingSegment
	}

	var preferred []string
	switch classification.Weekday {
	case time.Sunday:
		preferred = sundayMarkers
	case time.Saturday:
		preferred = saturdayMarkers
	}

	if preferred != nil {
		for _, entry := range catalog {
			if containsAny(normalizeName(entry.Name), preferred) {
				return entry.ID, nil
			}
		}
	}

	for _, entry := range catalog {
		if !isSpecialized(normalizeName(entry.Name)) {
			return entry.ID, nil
		}
	}

	return "", ErrNoMatchingSegment
}
