package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aerovue/photomatch/internal/worker"
)

// maxSubmitAttempts bounds how long ProcessBatch retries one photo
// against a full queue before giving up on it.
const maxSubmitAttempts = 20

// ProcessBatch submits each photo to the worker pool with the batch
// delay between submissions. The delay is a throttle against
// third-party API rate limits, not a correctness mechanism; photos
// complete in any order. A full queue is retried with the same delay a
// bounded number of times, then the photo is marked failed so it stays
// visible for manual reassignment.
func (m *matcher) ProcessBatch(ctx context.Context, photoIDs []uuid.UUID) error {
	for i, photoID := range photoIDs {
		if i > 0 {
			select {
			case <-time.After(m.batchDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := m.submitWithRetry(ctx, photoID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.failPhoto(photoID, err, m.log.WithPhotoID(photoID.String()))
		}
	}

	return nil
}

// submitWithRetry is the caller-side answer to the pool's fail-fast
// queue: wait a delay and try again, up to the attempt cap.
func (m *matcher) submitWithRetry(ctx context.Context, photoID uuid.UUID) error {
	task := func(taskCtx context.Context) {
		// ProcessPhoto owns the per-photo timeout and all failure
		// recording; nothing to do with its error here.
		_ = m.ProcessPhoto(taskCtx, photoID)
	}

	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		err := m.pool.Submit(task)
		if err == nil {
			return nil
		}
		if !errors.Is(err, worker.ErrQueueFull) {
			return err
		}

		select {
		case <-time.After(m.batchDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("queue stayed full after %d attempts", maxSubmitAttempts)
}

// Close drains the worker pool, letting queued photos finish.
func (m *matcher) Close() {
	m.pool.Close()
}
