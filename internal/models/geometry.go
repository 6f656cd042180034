package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Polygon represents a parcel boundary as a GeoJSON Polygon.
// It stores coordinates in GeoJSON format: [rings][points][lon,lat].
// The first ring is the outer boundary; any further rings are holes.
// SRID 4326 (WGS84) is used for lat/lng coordinates.
type Polygon struct {
	Coordinates [][][2]float64 // GeoJSON coordinate structure
	SRID        int            // Spatial Reference ID (default: 4326)
}

// MarshalJSON implements json.Marshaler.
// Returns GeoJSON-compliant format.
func (p Polygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}{
		Type:        "Polygon",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
// Used when parsing parcel-service feature geometry.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326

	return nil
}

// Contains reports whether the given lat/lng point lies inside the
// polygon: inside the outer ring and outside every hole. Uses the
// even-odd ray casting rule; points exactly on the boundary are subject
// to float precision and may land on either side.
func (p Polygon) Contains(lat, lng float64) bool {
	if len(p.Coordinates) == 0 {
		return false
	}
	if !pointInRing(lat, lng, p.Coordinates[0]) {
		return false
	}
	for i := 1; i < len(p.Coordinates); i++ {
		if pointInRing(lat, lng, p.Coordinates[i]) {
			return false
		}
	}
	return true
}

// pointInRing applies the ray casting test against a single ring.
// Ring points are GeoJSON [lng, lat] pairs.
func pointInRing(lat, lng float64, ring [][2]float64) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		intersect := ((yi > lat) != (yj > lat)) &&
			(lng < (xj-xi)*(lat-yi)/(yj-yi+1e-12)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// Centroid returns the arithmetic mean of the outer ring's vertices as
// (lat, lng). A duplicated closing vertex is excluded so it does not
// skew the mean. Returns ok=false for an empty polygon.
func (p Polygon) Centroid() (lat, lng float64, ok bool) {
	if len(p.Coordinates) == 0 || len(p.Coordinates[0]) == 0 {
		return 0, 0, false
	}
	ring := p.Coordinates[0]
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n == 0 {
		return 0, 0, false
	}
	var sumLat, sumLng float64
	for i := 0; i < n; i++ {
		sumLng += ring[i][0]
		sumLat += ring[i][1]
	}
	return sumLat / float64(n), sumLng / float64(n), true
}

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance in meters between two
// lat/lng points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
