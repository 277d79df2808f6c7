package model

import (
	"time"

	"github.com/parkscout-nyc/parkscout/internal/geo"
)

// Violation is one parking-violation record.
type Violation struct {
	ID          string    `json:"id"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description"`
	FineAmount  float64   `json:"fine_amount,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	Street      string    `json:"street,omitempty"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
}

// Location implements geo.Locatable.
func (v Violation) Location() geo.Point {
	return geo.Point{Lat: v.Latitude, Lon: v.Longitude}
}
