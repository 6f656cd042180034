package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aerovue/photomatch/internal/database"
	"github.com/aerovue/photomatch/internal/models"
)

// Maximum number of candidates returned by either search query.
const maxCandidateResults = 20

// PropertyRepository defines the data access operations the matcher
// needs from property storage. The matcher only reads candidates and
// conditionally inserts one new row; it never mutates existing rows.
type PropertyRepository interface {
	// FindNearby returns non-deleted properties within radiusMeters of
	// the given point. Returns an empty slice when none exist; that is
	// the normal "first photo at this location" case, not an error.
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Property, error)

	// FindByCityStateZip returns non-deleted properties matching the
	// exact attribute tuple. Used as a fallback when proximity search
	// is inconclusive.
	FindByCityStateZip(ctx context.Context, city, state, postalCode string) ([]models.Property, error)

	// FindByNormalizedAddress returns the property with the exact
	// normalized-address tuple, or (nil, nil) when absent. This is the
	// idempotency re-check run immediately before insert.
	FindByNormalizedAddress(ctx context.Context, normalized, city, state, postalCode string) (*models.Property, error)

	// Insert stores a new property and returns its generated id. A
	// unique constraint on (normalized_address, city, state,
	// postal_code) backstops concurrent creates; violations propagate.
	Insert(ctx context.Context, p *models.Property) (uuid.UUID, error)
}

// propertyRepository is the concrete implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

const propertyColumns = `
	id,
	address,
	normalized_address,
	city,
	state,
	postal_code,
	latitude,
	longitude,
	status,
	is_deleted,
	created_at,
	updated_at`

// FindNearby queries for properties within radiusMeters of the point.
// It uses PostGIS ST_DWithin with geography casting for accurate
// distance in meters over the stored lat/lng columns.
//
// Note: PostGIS functions expect (longitude, latitude) order, not (lat, lng).
func (r *propertyRepository) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE is_deleted = false
		AND ST_DWithin(
			ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		LIMIT $4
	`

	rows, err := r.db.Pool.Query(ctx, query, lng, lat, radiusMeters, maxCandidateResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby properties (lat=%f, lng=%f, radius=%d): %w",
			lat, lng, radiusMeters, err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// FindByCityStateZip queries for properties matching the exact
// (city, state, postalCode) attribute tuple.
func (r *propertyRepository) FindByCityStateZip(ctx context.Context, city, state, postalCode string) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE is_deleted = false
		AND city = $1 AND state = $2 AND postal_code = $3
		LIMIT $4
	`

	rows, err := r.db.Pool.Query(ctx, query, city, state, postalCode, maxCandidateResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties by city/state/zip (%s, %s, %s): %w",
			city, state, postalCode, err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// FindByNormalizedAddress queries for the property with the exact
// normalized address tuple. Returns (nil, nil) when no row matches.
func (r *propertyRepository) FindByNormalizedAddress(ctx context.Context, normalized, city, state, postalCode string) (*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE is_deleted = false
		AND normalized_address = $1 AND city = $2 AND state = $3 AND postal_code = $4
		LIMIT 1
	`

	var p models.Property
	err := r.db.Pool.QueryRow(ctx, query, normalized, city, state, postalCode).Scan(
		&p.ID,
		&p.Address,
		&p.NormalizedAddress,
		&p.City,
		&p.State,
		&p.PostalCode,
		&p.Latitude,
		&p.Longitude,
		&p.Status,
		&p.IsDeleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property by normalized address %q: %w", normalized, err)
	}

	return &p, nil
}

// Insert stores a new property row and returns its generated id.
func (r *propertyRepository) Insert(ctx context.Context, p *models.Property) (uuid.UUID, error) {
	query := `
		INSERT INTO properties (
			address, normalized_address, city, state, postal_code,
			latitude, longitude, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, query,
		p.Address,
		p.NormalizedAddress,
		p.City,
		p.State,
		p.PostalCode,
		p.Latitude,
		p.Longitude,
		p.Status,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert property %q: %w", p.Address, err)
	}

	return id, nil
}

// scanProperties drains a result set into a slice. Returns an empty
// slice (never nil) when no rows matched.
func scanProperties(rows pgx.Rows) ([]models.Property, error) {
	results := []models.Property{}

	for rows.Next() {
		var p models.Property
		err := rows.Scan(
			&p.ID,
			&p.Address,
			&p.NormalizedAddress,
			&p.City,
			&p.State,
			&p.PostalCode,
			&p.Latitude,
			&p.Longitude,
			&p.Status,
			&p.IsDeleted,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return results, nil
}
