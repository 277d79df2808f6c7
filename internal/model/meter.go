package model

import "github.com/parkscout-nyc/parkscout/internal/geo"

// Meter is one parking-meter record with its posted rate.
type Meter struct {
	ID          string  `json:"id"`
	Borough     string  `json:"borough,omitempty"`
	Street      string  `json:"street"`
	Status      string  `json:"status,omitempty"`
	Rate        string  `json:"rate,omitempty"`
	HoursActive string  `json:"hours_active,omitempty"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// Location implements geo.Locatable.
func (m Meter) Location() geo.Point {
	return geo.Point{Lat: m.Latitude, Lon: m.Longitude}
}
