// Package exifgps turns raw image metadata into validated decimal-degree
// coordinates. Metadata readers disagree on tag value shapes (rational
// DMS triples, decimal strings, plain floats); that ambiguity is handled
// here and never leaks past the extractor.
package exifgps

import (
	"math"
	"strconv"
	"strings"

	"github.com/aerovue/photomatch/internal/models"
)

// Tag names the extractor understands. These follow EXIF field naming.
const (
	TagLatitude     = "GPSLatitude"
	TagLatitudeRef  = "GPSLatitudeRef"
	TagLongitude    = "GPSLongitude"
	TagLongitudeRef = "GPSLongitudeRef"
	TagAltitude     = "GPSAltitude"
	TagAltitudeRef  = "GPSAltitudeRef"
	TagTimestamp    = "DateTimeOriginal"
	TagCameraMake   = "Make"
	TagCameraModel  = "Model"
)

// Rational is an EXIF rational value.
type Rational struct {
	Num int64
	Den int64
}

// Tags is the tag dictionary supplied by an image metadata reader.
// Values are a tagged union: []Rational (a DMS triple or a one-element
// decimal), float64, or a string holding a decimal or "n/d" sequence.
type Tags map[string]any

// coordinatePrecision rounds extracted degrees to 6 decimal places
// (~0.11 m) so floating noise cannot produce spuriously distinct
// coordinates.
const coordinatePrecision = 1e6

// Extract parses GPS tags into a coordinate. Returns nil when required
// tags are absent or the computed values fail range validation; absent
// GPS is an expected, common case, not a fault. Pure function over its
// input.
func Extract(tags Tags) *models.Coordinate {
	lat, ok := degrees(tags[TagLatitude])
	if !ok {
		return nil
	}
	lng, ok := degrees(tags[TagLongitude])
	if !ok {
		return nil
	}

	if isRef(tags[TagLatitudeRef], "s") {
		lat = -lat
	}
	if isRef(tags[TagLongitudeRef], "w") {
		lng = -lng
	}

	coord := models.Coordinate{
		Latitude:  round6(lat),
		Longitude: round6(lng),
	}
	if !coord.Valid() {
		return nil
	}

	if alt, ok := degrees(tags[TagAltitude]); ok && !math.IsNaN(alt) {
		if isRef(tags[TagAltitudeRef], "1") {
			alt = -alt
		}
		coord.Altitude = &alt
	}

	return &coord
}

func round6(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}

// isRef reports whether a hemisphere/sign reference tag matches want.
// Reference values arrive as strings ("S", "West") or numeric codes.
func isRef(v any, want string) bool {
	switch ref := v.(type) {
	case string:
		ref = strings.ToLower(strings.TrimSpace(ref))
		return ref != "" && strings.HasPrefix(ref, want)
	case float64:
		return strconv.FormatFloat(ref, 'f', -1, 64) == want
	case int:
		return strconv.Itoa(ref) == want
	case []Rational:
		if len(ref) == 1 && ref[0].Den != 0 {
			return strconv.FormatInt(ref[0].Num/ref[0].Den, 10) == want
		}
	}
	return false
}

// degrees converts a tag value into decimal degrees. A three-element
// sequence is treated as a DMS triple (d + m/60 + s/3600); a single
// value is taken as already-decimal degrees.
func degrees(v any) (float64, bool) {
	switch val := v.(type) {
	case []Rational:
		return fromParts(ratFloats(val))
	case float64:
		return val, true
	case string:
		return fromString(val)
	}
	return 0, false
}

func ratFloats(rats []Rational) []float64 {
	parts := make([]float64, 0, len(rats))
	for _, r := range rats {
		if r.Den == 0 {
			return nil
		}
		parts = append(parts, float64(r.Num)/float64(r.Den))
	}
	return parts
}

func fromParts(parts []float64) (float64, bool) {
	switch len(parts) {
	case 1:
		return parts[0], true
	case 3:
		return parts[0] + parts[1]/60 + parts[2]/3600, true
	}
	return 0, false
}

// fromString parses "description string" tag shapes: a plain decimal
// ("33.7490") or a separated rational/number sequence
// ("33/1, 44/1, 5639/100" or "33 44 56.39").
func fromString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	parts := make([]float64, 0, len(fields))
	for _, field := range fields {
		f, ok := parseNumberOrRational(field)
		if !ok {
			return 0, false
		}
		parts = append(parts, f)
	}
	return fromParts(parts)
}

func parseNumberOrRational(s string) (float64, bool) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
