package matcher

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aerovue/photomatch/internal/exifgps"
	"github.com/aerovue/photomatch/internal/models"
)

func TestProcessBatch_FailureDoesNotAbortSiblings(t *testing.T) {
	// Arrange: first photo carries no GPS, second is fine. The second
	// must still be processed to completion.
	badID := uuid.New()
	goodID := uuid.New()
	newID := uuid.New()

	photos := new(MockPhotoRepository)
	props := new(MockPropertyRepository)
	blobs := new(MockBlobStore)

	photos.On("GetByID", mock.Anything, badID).Return(
		&models.Photo{ID: badID, StorageKey: "photos/bad.jpg", ProcessingStatus: models.StatusPending}, nil)
	photos.On("GetByID", mock.Anything, goodID).Return(
		&models.Photo{ID: goodID, StorageKey: "photos/good.jpg", ProcessingStatus: models.StatusPending}, nil)
	photos.On("UpdateStatus", mock.Anything, mock.Anything, models.StatusProcessing).Return(nil)
	blobs.On("Fetch", mock.Anything, "photos/bad.jpg").Return([]byte("bad"), nil)
	blobs.On("Fetch", mock.Anything, "photos/good.jpg").Return([]byte("good"), nil)

	props.On("FindNearby", mock.Anything, 32.371, -81.301, 25).Return([]models.Property{}, nil)
	props.On("FindByNormalizedAddress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	props.On("Insert", mock.Anything, mock.Anything).Return(newID, nil)

	photos.On("UpdateAssignment", mock.Anything, badID,
		mock.MatchedBy(func(id *uuid.UUID) bool { return id == nil }),
		models.StatusFailed, mock.Anything,
	).Return(nil)
	photos.On("UpdateAssignment", mock.Anything, goodID,
		mock.MatchedBy(func(id *uuid.UUID) bool { return id != nil && *id == newID }),
		models.StatusProcessed, mock.Anything,
	).Return(nil)

	m := newTestMatcher(t, photos, props, blobs, nil, nil)
	// Only the "good" image yields GPS tags
	m.readTags = func(raw []byte) exifgps.Tags {
		if string(raw) == "good" {
			return validGPSTags()
		}
		return exifgps.Tags{}
	}

	// Act
	err := m.ProcessBatch(context.Background(), []uuid.UUID{badID, goodID})
	m.Close()

	// Assert
	require.NoError(t, err)
	photos.AssertExpectations(t)
	props.AssertExpectations(t)
}

func TestProcessBatch_EmptyList(t *testing.T) {
	m := newTestMatcher(t, new(MockPhotoRepository), new(MockPropertyRepository), new(MockBlobStore), nil, nil)

	err := m.ProcessBatch(context.Background(), nil)

	require.NoError(t, err)
}

func TestProcessBatch_CanceledContext(t *testing.T) {
	photos := new(MockPhotoRepository)
	photos.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	m := newTestMatcher(t, photos, new(MockPropertyRepository), new(MockBlobStore), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.ProcessBatch(ctx, []uuid.UUID{uuid.New(), uuid.New()})

	require.ErrorIs(t, err, context.Canceled)
}
