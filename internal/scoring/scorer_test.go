package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/models"
)

func defaultScorer() *Scorer {
	return NewScorer(config.MatchingConfig{RadiusMeters: 25, MinConfidence: 0.75})
}

func candidate(address string) models.Property {
	return models.Property{
		ID:      uuid.New(),
		Address: address,
		City:    "Springfield",
		State:   "GA",
	}
}

// boundaryAround returns a small square parcel boundary centered on the
// given point, roughly 20m on a side.
func boundaryAround(lat, lng float64) *models.Polygon {
	d := 0.0001 // ~11m
	return &models.Polygon{
		Coordinates: [][][2]float64{{
			{lng - d, lat - d},
			{lng + d, lat - d},
			{lng + d, lat + d},
			{lng - d, lat + d},
			{lng - d, lat - d},
		}},
		SRID: 4326,
	}
}

func TestScore_ExactNormalizedMatchIsFullConfidence(t *testing.T) {
	// Arrange
	scorer := defaultScorer()
	exact := candidate("100 Main Street")
	other := candidate("742 Evergreen Ter")
	geocoded := &models.ResolvedAddress{
		Formatted:  "100 Main St",
		Confidence: 0.5, // low geocoder confidence must not dilute an exact match
	}
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}

	// Act
	result := scorer.Score([]models.Property{other, exact}, geocoded, nil, coord)

	// Assert
	require.NotNil(t, result.PropertyID)
	assert.Equal(t, exact.ID, *result.PropertyID)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, models.MatchExactAddress, result.Method)
}

func TestScore_ExactMatchIgnoresDistanceAvailability(t *testing.T) {
	scorer := defaultScorer()
	exact := candidate("100 Main Street")
	// Parcel with a boundary that does NOT contain the coordinate
	parcel := &models.ParcelRecord{
		Address:    "100 Main St",
		Boundary:   boundaryAround(40.0, -74.0),
		Confidence: 0.9,
	}
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}

	result := scorer.Score([]models.Property{exact}, nil, parcel, coord)

	require.NotNil(t, result.PropertyID)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, models.MatchExactAddress, result.Method)
}

func TestScore_EmptyCandidateList(t *testing.T) {
	scorer := defaultScorer()
	geocoded := &models.ResolvedAddress{Formatted: "100 Main St", Confidence: 1.0}
	coord := models.Coordinate{Latitude: 33.7490, Longitude: -84.3880}

	result := scorer.Score(nil, geocoded, nil, coord)

	assert.Nil(t, result.PropertyID)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, models.MatchNone, result.Method)
}

func TestScore_BelowThresholdReturnsNone(t *testing.T) {
	scorer := defaultScorer()
	far := candidate("9999 Completely Different Blvd")
	geocoded := &models.ResolvedAddress{Formatted: "100 Main St", Confidence: 0.5}
	coord := models.Coordinate{Latitude: 33.7490, Longitude: -84.3880}

	result := scorer.Score([]models.Property{far}, geocoded, nil, coord)

	assert.Nil(t, result.PropertyID)
	assert.Equal(t, models.MatchNone, result.Method)
	// Best confidence found is still reported for diagnostics
	assert.Greater(t, result.Confidence, 0.0)
	assert.Less(t, result.Confidence, 0.75)
}

func TestScore_FuzzyMatchAboveThreshold(t *testing.T) {
	scorer := defaultScorer()
	// Differs from the resolved address only by a unit designator the
	// normalizer strips differently
	fuzzy := candidate("560 Oak Ridge Drive Unit 21")
	geocoded := &models.ResolvedAddress{
		Formatted:  "560 Oak Ridge Dr #2",
		Confidence: 1.0,
	}
	coord := models.Coordinate{Latitude: 32.4488, Longitude: -81.7832}

	result := scorer.Score([]models.Property{fuzzy}, geocoded, nil, coord)

	require.NotNil(t, result.PropertyID)
	assert.Equal(t, fuzzy.ID, *result.PropertyID)
	assert.Equal(t, models.MatchFuzzyAddress, result.Method)
	assert.GreaterOrEqual(t, result.Confidence, 0.75)
	assert.Less(t, result.Confidence, 1.0)
}

func TestScore_ProximityMethodWithoutResolvedAddress(t *testing.T) {
	scorer := defaultScorer()
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}
	near := candidate("100 Main St")
	// No geocode; parcel has boundary containing the photo but no address
	parcel := &models.ParcelRecord{
		Boundary:   boundaryAround(coord.Latitude, coord.Longitude),
		Confidence: 0.9,
	}

	result := scorer.Score([]models.Property{near}, nil, parcel, coord)

	require.NotNil(t, result.PropertyID)
	assert.Equal(t, models.MatchProximity, result.Method)
}

func TestScore_MeanOmitsUnavailableFactors(t *testing.T) {
	scorer := defaultScorer()
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}
	cand := candidate("100 Maple St")
	geocoded := &models.ResolvedAddress{Formatted: "100 Main St", Confidence: 0.8}

	// Only two factors available: similarity and geocoder confidence
	result := scorer.Score([]models.Property{cand}, geocoded, nil, coord)

	// similarity("100maplest","100mainst") and 0.8 averaged; adding a
	// parcel-less distance factor as 0 would have halved this
	assert.Greater(t, result.Confidence, 0.5)
}

func TestScore_ParcelBoundaryContributesDistanceFactor(t *testing.T) {
	scorer := defaultScorer()
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}
	cand := candidate("100 Main Street Rear Lot")

	contained := &models.ParcelRecord{
		Address:    "100 Main St",
		Boundary:   boundaryAround(coord.Latitude, coord.Longitude),
		Confidence: 0.9,
	}
	outside := &models.ParcelRecord{
		Address:    "100 Main St",
		Boundary:   boundaryAround(40.0, -74.0),
		Confidence: 0.9,
	}

	withContainment := scorer.Score([]models.Property{cand}, nil, contained, coord)
	withoutContainment := scorer.Score([]models.Property{cand}, nil, outside, coord)

	assert.Greater(t, withContainment.Confidence, withoutContainment.Confidence)
}

func TestScore_ConfidenceAlwaysInRange(t *testing.T) {
	scorer := defaultScorer()
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}

	cases := []struct {
		name     string
		cands    []models.Property
		geocoded *models.ResolvedAddress
		parcel   *models.ParcelRecord
	}{
		{"nothing", nil, nil, nil},
		{"candidates only", []models.Property{candidate("1 A St")}, nil, nil},
		{
			"all signals",
			[]models.Property{candidate("100 Main St")},
			&models.ResolvedAddress{Formatted: "100 Main St", Confidence: 1.0},
			&models.ParcelRecord{
				Address:    "100 Main St",
				Boundary:   boundaryAround(coord.Latitude, coord.Longitude),
				Confidence: 0.9,
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.cands, tt.geocoded, tt.parcel, coord)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
		})
	}
}

func TestScore_FirstOfTiedCandidatesWins(t *testing.T) {
	scorer := defaultScorer()
	first := candidate("100 Main Street")
	second := candidate("100 Main St") // same normalized key
	geocoded := &models.ResolvedAddress{Formatted: "100 Main St", Confidence: 1.0}
	coord := models.Coordinate{Latitude: 32.3710, Longitude: -81.3010}

	result := scorer.Score([]models.Property{first, second}, geocoded, nil, coord)

	require.NotNil(t, result.PropertyID)
	assert.Equal(t, first.ID, *result.PropertyID)
}

func TestNewScorer_DefaultsWhenUnset(t *testing.T) {
	scorer := NewScorer(config.MatchingConfig{})

	assert.Equal(t, MaxDistanceMeters, scorer.maxDistanceMeters)
	assert.Equal(t, MinConfidenceScore, scorer.minConfidence)
	assert.Equal(t, MinConfidenceScore, scorer.MinConfidence())
}
