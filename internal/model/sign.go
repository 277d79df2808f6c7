// Package model defines the record types shared across the store, dataset
// loaders, API, and exporters.
package model

import "github.com/parkscout-nyc/parkscout/internal/geo"

// Sign is one parking-sign record: the regulation text posted at a curb
// location.
type Sign struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"order_number,omitempty"`
	Borough     string  `json:"borough,omitempty"`
	Street      string  `json:"street"`
	Side        string  `json:"side,omitempty"`
	Description string  `json:"description"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// Location implements geo.Locatable.
func (s Sign) Location() geo.Point {
	return geo.Point{Lat: s.Latitude, Lon: s.Longitude}
}
