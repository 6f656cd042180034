package exifgps

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// gpsFields maps EXIF field names to the tag keys Extract consumes.
var gpsFields = map[exif.FieldName]string{
	exif.GPSLatitude:      TagLatitude,
	exif.GPSLatitudeRef:   TagLatitudeRef,
	exif.GPSLongitude:     TagLongitude,
	exif.GPSLongitudeRef:  TagLongitudeRef,
	exif.GPSAltitude:      TagAltitude,
	exif.GPSAltitudeRef:   TagAltitudeRef,
	exif.DateTimeOriginal: TagTimestamp,
	exif.Make:             TagCameraMake,
	exif.Model:            TagCameraModel,
}

// ReadTags decodes EXIF metadata from raw image bytes into a tag
// dictionary. Unparseable images yield an empty dictionary, never an
// error; the extractor treats missing tags as absent GPS.
func ReadTags(raw []byte) Tags {
	tags := Tags{}

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return tags
	}

	for field, key := range gpsFields {
		t, err := x.Get(field)
		if err != nil {
			continue
		}
		if v, ok := tagValue(t); ok {
			tags[key] = v
		}
	}

	return tags
}

// tagValue converts a tiff tag into one of the shapes Extract accepts.
func tagValue(t *tiff.Tag) (any, bool) {
	switch t.Format() {
	case tiff.RatVal:
		rats := make([]Rational, 0, int(t.Count))
		for i := 0; i < int(t.Count); i++ {
			num, den, err := t.Rat2(i)
			if err != nil {
				return nil, false
			}
			rats = append(rats, Rational{Num: num, Den: den})
		}
		if len(rats) == 0 {
			return nil, false
		}
		return rats, true
	case tiff.IntVal:
		n, err := t.Int(0)
		if err != nil {
			return nil, false
		}
		return float64(n), true
	case tiff.FloatVal:
		f, err := t.Float(0)
		if err != nil {
			return nil, false
		}
		return f, true
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return nil, false
		}
		return s, true
	}
	return nil, false
}
