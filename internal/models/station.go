package models

// Station is one stop on the line, taken from the train stations map.
type Station struct {
	Name      string  `json:"name"`
	ShortName string  `json:"shortName,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Destination is one selectable trip endpoint from the availability catalog.
type Destination struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SegmentEntry is one schedule segment from the availability catalog, e.g.
// "Lunes a Viernes" or "Domingos y feriados".
type SegmentEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SegmentCatalog preserves the feed's publication order, which governs
// fallback when no specialized segment matches the day.
type SegmentCatalog []SegmentEntry

// HolidayEntry is one year-independent holiday date. The feed uses Spanish
// field names.
type HolidayEntry struct {
	Day   int `json:"dia"`
	Month int `json:"mes"`
}
