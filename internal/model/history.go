package model

import "time"

// SearchEntry is one persisted search-history record.
type SearchEntry struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // "signs", "meters", "violations"
	Latitude     float64   `json:"lat"`
	Longitude    float64   `json:"lon"`
	RadiusMeters float64   `json:"radius_meters,omitempty"`
	ResultCount  int       `json:"result_count"`
	SearchedAt   time.Time `json:"searched_at"`
}
