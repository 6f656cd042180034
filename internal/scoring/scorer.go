// Package scoring ranks candidate properties against a photo's resolved
// location and selects the best match above a confidence threshold.
package scoring

import (
	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/models"
	"github.com/aerovue/photomatch/internal/normalize"
)

// Reference behavior constants. Config carries the single override
// point; there is no auto-tuning.
const (
	// MaxDistanceMeters is where the distance factor scales to zero.
	MaxDistanceMeters = 25.0
	// MinConfidenceScore is the default match threshold.
	MinConfidenceScore = 0.75
)

// Scorer computes match confidence for candidate properties.
type Scorer struct {
	maxDistanceMeters float64
	minConfidence     float64
}

// NewScorer creates a Scorer from the matching configuration.
func NewScorer(cfg config.MatchingConfig) *Scorer {
	maxDist := float64(cfg.RadiusMeters)
	if maxDist <= 0 {
		maxDist = MaxDistanceMeters
	}
	minConf := cfg.MinConfidence
	if minConf <= 0 {
		minConf = MinConfidenceScore
	}
	return &Scorer{
		maxDistanceMeters: maxDist,
		minConfidence:     minConf,
	}
}

// Score ranks the candidates and returns the best match above the
// threshold, or a no-match result carrying the best confidence found.
//
// Per candidate, the confidence is the arithmetic mean of whichever
// factors could actually be computed: address similarity, parcel
// distance score, geocoder confidence, parcel confidence. Omitted
// factors reduce the denominator rather than dragging the mean down.
// A candidate whose normalized address exactly equals the resolved
// address's normalized form scores 1.0 outright.
func (s *Scorer) Score(candidates []models.Property, geocoded *models.ResolvedAddress, parcel *models.ParcelRecord, coord models.Coordinate) models.MatchResult {
	resolvedKey := resolvedAddressKey(geocoded, parcel)

	best := models.MatchResult{Method: models.MatchNone}
	bestExact := false

	for i := range candidates {
		candidate := &candidates[i]
		candKey := normalize.Normalize(candidate.Address)

		exact := resolvedKey != "" && candKey == resolvedKey

		var confidence float64
		if exact {
			confidence = 1.0
		} else {
			confidence = s.meanOfFactors(candKey, resolvedKey, geocoded, parcel, coord)
		}

		// Strictly-greater comparison: the first candidate at the
		// maximum wins; upstream ordering is unspecified.
		if confidence > best.Confidence {
			id := candidate.ID
			best.PropertyID = &id
			best.Confidence = confidence
			bestExact = exact
		}
	}

	if best.PropertyID == nil || best.Confidence < s.minConfidence {
		return models.MatchResult{
			PropertyID: nil,
			Confidence: best.Confidence,
			Method:     models.MatchNone,
		}
	}

	switch {
	case bestExact:
		best.Method = models.MatchExactAddress
	case resolvedKey == "":
		best.Method = models.MatchProximity
	default:
		best.Method = models.MatchFuzzyAddress
	}

	return best
}

// MinConfidence exposes the active threshold.
func (s *Scorer) MinConfidence() float64 {
	return s.minConfidence
}

// resolvedAddressKey picks the authoritative resolved address string and
// normalizes it. Parcel data wins over the geocoder when both exist.
func resolvedAddressKey(geocoded *models.ResolvedAddress, parcel *models.ParcelRecord) string {
	if parcel != nil && parcel.Address != "" {
		return normalize.Normalize(parcel.Address)
	}
	if geocoded != nil {
		return normalize.Normalize(geocoded.Formatted)
	}
	return ""
}

// meanOfFactors computes the candidate's confidence from available
// signals only.
func (s *Scorer) meanOfFactors(candKey, resolvedKey string, geocoded *models.ResolvedAddress, parcel *models.ParcelRecord, coord models.Coordinate) float64 {
	var factors []float64

	if resolvedKey != "" {
		factors = append(factors, normalize.KeySimilarity(candKey, resolvedKey))
	}

	if parcel != nil && parcel.Boundary != nil {
		factors = append(factors, s.distanceScore(*parcel.Boundary, coord))
	}

	if geocoded != nil {
		factors = append(factors, geocoded.Confidence)
	}
	if parcel != nil {
		factors = append(factors, parcel.Confidence)
	}

	if len(factors) == 0 {
		return 0
	}

	var sum float64
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

// distanceScore scores containment plus proximity to the parcel
// centroid: contained at the centroid is 1, contained at
// maxDistanceMeters or beyond is 0, outside the boundary is 0.
func (s *Scorer) distanceScore(boundary models.Polygon, coord models.Coordinate) float64 {
	if !boundary.Contains(coord.Latitude, coord.Longitude) {
		return 0
	}

	centLat, centLng, ok := boundary.Centroid()
	if !ok {
		return 0
	}

	dist := models.HaversineMeters(coord.Latitude, coord.Longitude, centLat, centLng)
	if dist >= s.maxDistanceMeters {
		return 0
	}
	return 1 - dist/s.maxDistanceMeters
}
