package feed

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// URLs builds the remote feed paths for one deployment base URL.
type URLs struct {
	base string
}

func NewURLs(base string) URLs {
	return URLs{base: strings.TrimSuffix(base, "/")}
}

func (u URLs) Stations() string {
	return u.base + "/train_stations.json"
}

func (u URLs) Holidays(year int) string {
	return fmt.Sprintf("%s/holidays_%d.json", u.base, year)
}

func (u URLs) Availability() string {
	return u.base + "/availability_options.json"
}

// TripTable follows the upstream naming convention:
// schedule_<segmentId>.<originId>.<destinationId>_data.json
func (u URLs) TripTable(segmentID, originID, destinationID string) string {
	return fmt.Sprintf("%s/schedule_%s.%s.%s_data.json", u.base, segmentID, originID, destinationID)
}

// Checksum derives the checksum document URL for a feed document: the path
// with its .json suffix replaced by _sum.
func (u URLs) Checksum(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid cached url %q: %w", rawURL, err)
	}

	trimmed := strings.TrimPrefix(parsed.Path, "/")
	trimmed = strings.TrimSuffix(trimmed, ".json")

	return u.base + "/" + trimmed + "_sum", nil
}

// resourceLabel maps a feed URL to a stable metric label.
func resourceLabel(rawURL string) string {
	base := path.Base(rawURL)

	switch {
	case strings.HasPrefix(base, "schedule_"):
		return "schedule"
	case strings.HasPrefix(base, "holidays_"):
		return "holidays"
	case strings.HasPrefix(base, "train_stations"):
		return "stations"
	case strings.HasPrefix(base, "availability_options"):
		return "availability"
	default:
		return "other"
	}
}
