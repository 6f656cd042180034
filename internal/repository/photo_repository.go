package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aerovue/photomatch/internal/database"
	"github.com/aerovue/photomatch/internal/models"
)

// PhotoRepository defines the photo storage operations the matcher
// performs. Property assignment, processing status, and diagnostic
// metadata are the only photo fields the matcher ever writes.
type PhotoRepository interface {
	// GetByID returns the photo, or (nil, nil) when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)

	// UpdateStatus sets only the processing status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProcessingStatus) error

	// UpdateAssignment sets the photo's property association, status,
	// and diagnostic metadata in one write. metadata keys are merged
	// into the existing metadata document; propertyID may be nil to
	// leave the photo unassigned.
	UpdateAssignment(ctx context.Context, id uuid.UUID, propertyID *uuid.UUID, status models.ProcessingStatus, metadata map[string]any) error
}

// photoRepository is the concrete implementation of PhotoRepository.
type photoRepository struct {
	db *database.Database
}

// NewPhotoRepository creates a new instance of PhotoRepository.
func NewPhotoRepository(db *database.Database) PhotoRepository {
	return &photoRepository{
		db: db,
	}
}

// GetByID fetches one photo row. Returns (nil, nil) when absent.
func (r *photoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	query := `
		SELECT id, storage_key, property_id, processing_status, metadata, created_at, updated_at
		FROM photos
		WHERE id = $1
	`

	var photo models.Photo
	var metadataJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&photo.ID,
		&photo.StorageKey,
		&photo.PropertyID,
		&photo.ProcessingStatus,
		&metadataJSON,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query photo %s: %w", id, err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &photo.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata for photo %s: %w", id, err)
		}
	}

	return &photo, nil
}

// UpdateStatus sets the photo's processing status.
func (r *photoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProcessingStatus) error {
	query := `
		UPDATE photos
		SET processing_status = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status for photo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %s not found", id)
	}

	return nil
}

// UpdateAssignment writes the matcher's result back to the photo:
// property association, processing status, and diagnostic metadata.
// Metadata keys are merged over the existing document so upload-side
// metadata survives.
func (r *photoRepository) UpdateAssignment(ctx context.Context, id uuid.UUID, propertyID *uuid.UUID, status models.ProcessingStatus, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for photo %s: %w", id, err)
	}

	query := `
		UPDATE photos
		SET property_id = $2,
			processing_status = $3,
			metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
			updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, propertyID, status, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to update assignment for photo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %s not found", id)
	}

	return nil
}
