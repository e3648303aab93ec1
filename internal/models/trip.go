package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TripTimeSpan is one scheduled departure window. The trip-table feed encodes
// each span as a two-element array: ["HH:MM", "HH:MM"].
type TripTimeSpan struct {
	Start string
	End   string
}

func (t *TripTimeSpan) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("trip time span must have 2 elements, got %d", len(pair))
	}
	t.Start, t.End = pair[0], pair[1]
	return nil
}

func (t TripTimeSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Start, t.End})
}

// StartClock parses the span's start time into hour and minute components.
func (t TripTimeSpan) StartClock() (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", t.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid trip start time %q: %w", t.Start, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// ResolvedTrip is the outcome of one resolution cycle. It is ephemeral and
// recomputed on every cycle, never persisted.
type ResolvedTrip struct {
	Departure        time.Time `json:"departure"`
	AlternativeStart string    `json:"alternativeStart,omitempty"`
}

// HasAlternative reports whether a later departure exists on the same day.
func (r ResolvedTrip) HasAlternative() bool {
	return r.AlternativeStart != ""
}
