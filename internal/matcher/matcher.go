// Package matcher assigns uploaded photos to property records. It runs
// the full pipeline for one photo: GPS extraction, address resolution,
// candidate search, scoring, and property creation when nothing matches.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/exifgps"
	"github.com/aerovue/photomatch/internal/geocode"
	"github.com/aerovue/photomatch/internal/logger"
	"github.com/aerovue/photomatch/internal/models"
	"github.com/aerovue/photomatch/internal/normalize"
	"github.com/aerovue/photomatch/internal/parcel"
	"github.com/aerovue/photomatch/internal/repository"
	"github.com/aerovue/photomatch/internal/scoring"
	"github.com/aerovue/photomatch/internal/worker"
)

// Service-level errors
var (
	ErrPhotoNotFound = errors.New("photo not found")
	ErrNoGPS         = errors.New("no valid GPS coordinates")
)

// Placeholder values used when geocoding yields nothing usable. A
// property still gets created, anchored at the photo's coordinate.
const (
	unknownCity  = "Unknown"
	unknownState = "Unknown"
	unknownZip   = "00000"
)

// BlobStore fetches raw image bytes by storage key. Upload handling
// owns the actual object store; the matcher only reads.
type BlobStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Matcher defines the interface the rest of the system invokes. Results
// are observable through each photo's processing status and metadata,
// not through return values.
type Matcher interface {
	// ProcessPhoto runs the matching pipeline for one photo. Fatal
	// failures mark the photo failed and are also returned.
	ProcessPhoto(ctx context.Context, photoID uuid.UUID) error

	// ProcessBatch feeds a set of photos through the worker pool with
	// a throttle delay between submissions. Photos are independent;
	// one photo's failure never aborts its siblings.
	ProcessBatch(ctx context.Context, photoIDs []uuid.UUID) error

	// Close drains the worker pool. Call once during shutdown.
	Close()
}

// matcher is the concrete implementation of Matcher.
type matcher struct {
	photos     repository.PhotoRepository
	properties repository.PropertyRepository
	blobs      BlobStore
	geocoder   *geocode.Client
	parcels    *parcel.Client
	scorer     *scoring.Scorer

	radiusMeters int
	photoTimeout time.Duration
	batchDelay   time.Duration

	// readTags is the image metadata reader collaborator.
	readTags func(raw []byte) exifgps.Tags

	pool *worker.Pool
	log  *logger.Logger
}

// New creates a Matcher backed by a bounded worker pool. The geocoder
// and parcel clients may be nil when their sources are unconfigured;
// the pipeline degrades to coordinate-only matching.
func New(
	photos repository.PhotoRepository,
	properties repository.PropertyRepository,
	blobs BlobStore,
	geocoder *geocode.Client,
	parcels *parcel.Client,
	scorer *scoring.Scorer,
	cfg *config.Config,
	log *logger.Logger,
) Matcher {
	return &matcher{
		photos:       photos,
		properties:   properties,
		blobs:        blobs,
		geocoder:     geocoder,
		parcels:      parcels,
		scorer:       scorer,
		radiusMeters: cfg.Matching.RadiusMeters,
		photoTimeout: cfg.Worker.PhotoTimeout,
		batchDelay:   cfg.Worker.BatchDelay,
		readTags:     exifgps.ReadTags,
		pool:         worker.NewPool(cfg.Worker.Count, cfg.Worker.QueueDepth, log),
		log:          log,
	}
}

// ProcessPhoto runs the full pipeline for one photo under the
// per-photo timeout. A timeout is treated the same as a late failure:
// the photo is marked failed with the reason recorded in metadata.
func (m *matcher) ProcessPhoto(ctx context.Context, photoID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, m.photoTimeout)
	defer cancel()

	log := m.log.WithPhotoID(photoID.String())

	photo, err := m.photos.GetByID(ctx, photoID)
	if err != nil {
		return fmt.Errorf("failed to load photo %s: %w", photoID, err)
	}
	if photo == nil {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, photoID)
	}

	if err := m.photos.UpdateStatus(ctx, photoID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark photo %s processing: %w", photoID, err)
	}

	result, meta, err := m.match(ctx, photo, log)
	if err != nil {
		m.failPhoto(photoID, err, log)
		return err
	}

	if err := m.photos.UpdateAssignment(ctx, photoID, result.PropertyID, models.StatusProcessed, meta); err != nil {
		m.failPhoto(photoID, err, log)
		return fmt.Errorf("failed to record match for photo %s: %w", photoID, err)
	}

	log.Info("Photo matched", map[string]interface{}{
		"method":     string(result.Method),
		"confidence": result.Confidence,
	})

	return nil
}

// match runs extraction through upsert and returns the final result
// plus diagnostic metadata for the photo record. Any returned error is
// fatal for this photo.
func (m *matcher) match(ctx context.Context, photo *models.Photo, log *logger.Logger) (models.MatchResult, map[string]any, error) {
	raw, err := m.blobs.Fetch(ctx, photo.StorageKey)
	if err != nil {
		return models.MatchResult{}, nil, fmt.Errorf("failed to fetch image %q: %w", photo.StorageKey, err)
	}

	tags := m.readTags(raw)
	coord := exifgps.Extract(tags)
	if coord == nil {
		return models.MatchResult{}, nil, ErrNoGPS
	}

	log.Debug("GPS extracted", map[string]interface{}{
		"lat": coord.Latitude,
		"lng": coord.Longitude,
	})

	geocoded, parcelRec := m.resolveAddress(ctx, *coord, log)

	candidates, err := m.findCandidates(ctx, *coord, geocoded, parcelRec)
	if err != nil {
		return models.MatchResult{}, nil, err
	}

	result := m.scorer.Score(candidates, geocoded, parcelRec, *coord)

	if result.PropertyID == nil {
		id, method, err := m.createProperty(ctx, geocoded, *coord, log)
		if err != nil {
			return models.MatchResult{}, nil, err
		}
		result.PropertyID = &id
		result.Method = method
		switch {
		case method == models.MatchExactAddress:
			// Idempotency re-check hit: the resolved address already
			// has a property row.
			result.Confidence = 1.0
		case geocoded != nil:
			result.Confidence = geocoded.Confidence
		}
	}

	return result, photoMetadata(result, tags), nil
}

// resolveAddress queries the geocoder and parcel service concurrently.
// The calls are independent; either failing degrades to nil for that
// source and the pipeline continues with what succeeded.
func (m *matcher) resolveAddress(ctx context.Context, coord models.Coordinate, log *logger.Logger) (*models.ResolvedAddress, *models.ParcelRecord) {
	var (
		geocoded  *models.ResolvedAddress
		parcelRec *models.ParcelRecord
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		addr, err := m.geocoder.Reverse(ctx, coord)
		if err != nil {
			log.Warn("Reverse geocode failed, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		geocoded = addr
	}()
	go func() {
		defer wg.Done()
		rec, err := m.parcels.Lookup(ctx, coord)
		if err != nil {
			log.Warn("Parcel lookup failed, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		parcelRec = rec
	}()
	wg.Wait()

	return geocoded, parcelRec
}

// findCandidates searches by proximity first, then falls back to the
// exact city/state/zip tuple when proximity found nothing and geocoding
// supplied a full tuple to filter on.
func (m *matcher) findCandidates(ctx context.Context, coord models.Coordinate, geocoded *models.ResolvedAddress, parcelRec *models.ParcelRecord) ([]models.Property, error) {
	candidates, err := m.properties.FindNearby(ctx, coord.Latitude, coord.Longitude, m.radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("proximity search failed: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	if geocoded == nil || geocoded.City == "" || geocoded.State == "" || geocoded.PostalCode == "" {
		return candidates, nil
	}

	candidates, err = m.properties.FindByCityStateZip(ctx, geocoded.City, geocoded.State, geocoded.PostalCode)
	if err != nil {
		return nil, fmt.Errorf("city/state/zip search failed: %w", err)
	}
	return candidates, nil
}

// createProperty inserts a new property anchored at the photo's exact
// coordinate. An idempotency re-check runs immediately before insert to
// close the race window when concurrent uploads carry the same address;
// the storage layer's uniqueness constraint on the normalized tuple is
// the backstop.
func (m *matcher) createProperty(ctx context.Context, geocoded *models.ResolvedAddress, coord models.Coordinate, log *logger.Logger) (uuid.UUID, models.MatchMethod, error) {
	address, city, state, zip := synthesizeAddress(geocoded, coord)
	key := normalize.Normalize(address)

	existing, err := m.properties.FindByNormalizedAddress(ctx, key, city, state, zip)
	if err != nil {
		return uuid.Nil, models.MatchNone, fmt.Errorf("idempotency check failed: %w", err)
	}
	if existing != nil {
		log.Debug("Property already exists for resolved address", map[string]interface{}{
			"property_id": existing.ID,
		})
		return existing.ID, models.MatchExactAddress, nil
	}

	id, err := m.properties.Insert(ctx, &models.Property{
		Address:           address,
		NormalizedAddress: key,
		City:              city,
		State:             state,
		PostalCode:        zip,
		Latitude:          coord.Latitude,
		Longitude:         coord.Longitude,
		Status:            models.PropertyStatusPending,
	})
	if err != nil {
		return uuid.Nil, models.MatchNone, fmt.Errorf("failed to create property: %w", err)
	}

	log.Info("Created property for unmatched photo", map[string]interface{}{
		"property_id": id,
		"address":     address,
	})

	return id, models.MatchGeocodeCreated, nil
}

// synthesizeAddress builds the stored address for a new property.
// Preference order: the geocoder's formatted string, then a
// street-number/route composite, then a city/state/zip fallback with
// placeholders for whatever the geocoder could not supply.
func synthesizeAddress(geocoded *models.ResolvedAddress, coord models.Coordinate) (address, city, state, zip string) {
	city, state, zip = unknownCity, unknownState, unknownZip

	if geocoded != nil {
		if geocoded.City != "" {
			city = geocoded.City
		}
		if geocoded.State != "" {
			state = geocoded.State
		}
		if geocoded.PostalCode != "" {
			zip = geocoded.PostalCode
		}

		switch {
		case geocoded.Formatted != "":
			address = geocoded.Formatted
		case geocoded.StreetNumber != "" || geocoded.Route != "":
			address = strings.TrimSpace(geocoded.StreetNumber + " " + geocoded.Route)
		}
	}

	if address == "" {
		address = fmt.Sprintf("%s, %s %s (%.6f, %.6f)", city, state, zip, coord.Latitude, coord.Longitude)
	}

	return address, city, state, zip
}

// photoMetadata builds the diagnostic metadata written back to the
// photo: the chosen method and confidence, plus camera tags when the
// image carried them.
func photoMetadata(result models.MatchResult, tags exifgps.Tags) map[string]any {
	meta := map[string]any{
		"match_method":     string(result.Method),
		"match_confidence": result.Confidence,
	}

	for tag, key := range map[string]string{
		exifgps.TagCameraMake:  "camera_make",
		exifgps.TagCameraModel: "camera_model",
		exifgps.TagTimestamp:   "captured_at",
	} {
		if s, ok := tags[tag].(string); ok && s != "" {
			meta[key] = s
		}
	}

	return meta
}

// failPhoto records a fatal per-photo failure: status failed plus a
// human-readable reason in metadata. Uses a fresh context because the
// photo's own context may be the thing that expired.
func (m *matcher) failPhoto(photoID uuid.UUID, cause error, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Error("Photo processing failed", cause, nil)

	meta := map[string]any{
		"match_method": string(models.MatchNone),
		"error":        cause.Error(),
	}
	if err := m.photos.UpdateAssignment(ctx, photoID, nil, models.StatusFailed, meta); err != nil {
		log.Error("Failed to record photo failure", err, nil)
	}
}
