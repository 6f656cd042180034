// Package parcel queries a parcel-data service for the legal land unit
// at a coordinate: an authoritative address string and, when available,
// a boundary polygon. The source is optional; deployments without a
// parcel credential run with the feature disabled.
package parcel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/logger"
	"github.com/aerovue/photomatch/internal/models"
)

// defaultConfidence is used when the parcel service does not report a
// quality score. Parcel registries are authoritative but the point
// lookup itself can land on a neighboring lot.
const defaultConfidence = 0.9

// Client issues parcel lookups against the parcel-data service.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	log     *logger.Logger
}

// NewClient creates a parcel-data client. Returns nil when the service
// is not configured; a nil client reports absence for every lookup.
func NewClient(cfg config.ParcelConfig, log *logger.Logger) *Client {
	if !cfg.Enabled() {
		return nil
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.Timeout

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    rc,
		log:     log,
	}
}

// Enabled reports whether parcel lookups are configured.
func (c *Client) Enabled() bool {
	return c != nil
}

// lookupResponse mirrors the service's GeoJSON-style payload.
type lookupResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties struct {
		Address      string  `json:"address"`
		ParcelNumber string  `json:"parcel_id"`
		Confidence   float64 `json:"confidence"`
	} `json:"properties"`
}

// Lookup resolves the parcel containing a coordinate.
// Returns (nil, nil) when the service reports no feature at the point;
// errors are returned only for transport-level failures.
func (c *Client) Lookup(ctx context.Context, coord models.Coordinate) (*models.ParcelRecord, error) {
	if c == nil {
		return nil, nil
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", coord.Latitude))
	q.Set("lon", fmt.Sprintf("%.6f", coord.Longitude))
	q.Set("token", c.apiKey)
	u := fmt.Sprintf("%s/parcels/point?%s", c.baseURL, q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build parcel request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parcel lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("parcel service returned HTTP %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode parcel response: %w", err)
	}

	if len(body.Features) == 0 {
		c.log.Debug("No parcel at point", map[string]interface{}{
			"lat": coord.Latitude,
			"lng": coord.Longitude,
		})
		return nil, nil
	}

	return c.toRecord(body.Features[0]), nil
}

// toRecord converts a feature into a ParcelRecord. Geometry that is
// missing or not a Polygon leaves the boundary nil; the scorer then
// omits the distance factor rather than failing the lookup.
func (c *Client) toRecord(f feature) *models.ParcelRecord {
	record := &models.ParcelRecord{
		Address:    f.Properties.Address,
		ParcelID:   f.Properties.ParcelNumber,
		Confidence: f.Properties.Confidence,
	}
	if record.Confidence <= 0 || record.Confidence > 1 {
		record.Confidence = defaultConfidence
	}

	if len(f.Geometry) > 0 {
		var boundary models.Polygon
		if err := json.Unmarshal(f.Geometry, &boundary); err != nil {
			c.log.Debug("Parcel geometry not a polygon", map[string]interface{}{
				"parcel_id": record.ParcelID,
				"error":     err.Error(),
			})
		} else if len(boundary.Coordinates) > 0 {
			record.Boundary = &boundary
		}
	}

	return record
}
