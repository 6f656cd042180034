package models

import (
	"math"

	"github.com/google/uuid"
)

// Coordinate is a validated decimal-degree location extracted from image
// metadata. Immutable once extracted.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// Valid reports whether the coordinate is finite and within
// [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// ResolvedAddress is the structured output of a reverse-geocode lookup.
// Confidence reflects geocoder-reported precision (rooftop vs approximate).
type ResolvedAddress struct {
	StreetNumber string  `json:"streetNumber"`
	Route        string  `json:"route"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	Formatted    string  `json:"formatted"`
	Confidence   float64 `json:"confidence"`
}

// ParcelRecord is the structured output of a parcel-data lookup. Boundary
// may be absent; parcel services do not always carry geometry.
type ParcelRecord struct {
	Address    string   `json:"address"`
	Boundary   *Polygon `json:"boundary,omitempty"`
	ParcelID   string   `json:"parcelId,omitempty"`
	Confidence float64  `json:"confidence"`
}

// MatchMethod identifies how a photo was associated with a property.
type MatchMethod string

const (
	MatchExactAddress   MatchMethod = "exact_address"
	MatchFuzzyAddress   MatchMethod = "fuzzy_address"
	MatchProximity      MatchMethod = "proximity"
	MatchGeocodeCreated MatchMethod = "geocode_created"
	MatchNone           MatchMethod = "none"
)

// MatchResult is the sole output of the match scorer. A nil PropertyID
// signals "create new" or "needs manual review", distinguished by
// Confidence.
type MatchResult struct {
	PropertyID *uuid.UUID  `json:"propertyId,omitempty"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"method"`
}
