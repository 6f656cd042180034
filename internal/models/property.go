package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus tracks a photo through the matching pipeline.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusProcessed  ProcessingStatus = "processed"
	StatusFailed     ProcessingStatus = "failed"
)

// PropertyStatus is the lifecycle state of a property record.
type PropertyStatus string

const (
	PropertyStatusPending PropertyStatus = "pending"
	PropertyStatusActive  PropertyStatus = "active"
)

// Property is a stored property record. The matcher reads existing rows
// as match candidates and conditionally inserts one new row per unmatched
// photo; it never mutates existing rows.
type Property struct {
	ID                uuid.UUID      `json:"id"`
	Address           string         `json:"address"`
	NormalizedAddress string         `json:"normalizedAddress"`
	City              string         `json:"city"`
	State             string         `json:"state"`
	PostalCode        string         `json:"postalCode"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Status            PropertyStatus `json:"status"`
	IsDeleted         bool           `json:"isDeleted"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Photo is the slice of a photo record the matcher reads and writes.
// PropertyID, ProcessingStatus, and Metadata are the only fields the
// matcher mutates; a photo is associated with at most one property at a
// time (reassignment overwrites).
type Photo struct {
	ID               uuid.UUID        `json:"id"`
	StorageKey       string           `json:"storageKey"`
	PropertyID       *uuid.UUID       `json:"propertyId,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}
