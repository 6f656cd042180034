// Package geocode reverse-geocodes coordinates into structured street
// addresses via an external mapping service. The service is treated as
// unreliable: timeouts and empty result sets are expected and surface as
// absence, not failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/logger"
	"github.com/aerovue/photomatch/internal/models"
)

// Client issues reverse-geocode requests. Retry policy lives here in the
// transport (retryablehttp); callers never retry.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	cache   *Cache
	log     *logger.Logger
}

// NewClient creates a reverse-geocoding client. cache may be nil to
// disable response caching. Returns nil when the geocoder is not
// configured; a nil client resolves every coordinate to absence.
func NewClient(cfg config.GeocoderConfig, cache *Cache, log *logger.Logger) *Client {
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
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), 1),
		cache:   cache,
		log:     log,
	}
}

// geocodeResponse mirrors the provider's reverse-geocode payload.
type geocodeResponse struct {
	Status  string          `json:"status"`
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
	Geometry          struct {
		LocationType string `json:"location_type"`
	} `json:"geometry"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Reverse resolves a coordinate into a structured address.
// Returns (nil, nil) when the provider reports no result or a non-OK
// status; absence of a geocode is recoverable and falls through to
// coordinate-only property creation. Errors are returned only for
// transport-level failures.
func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (*models.ResolvedAddress, error) {
	if c == nil {
		return nil, nil
	}

	if addr, ok := c.cacheGet(ctx, coord); ok {
		return addr, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%.6f,%.6f", coord.Latitude, coord.Longitude))
	q.Set("key", c.apiKey)
	u := fmt.Sprintf("%s/json?%s", c.baseURL, q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("geocoder returned HTTP %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	// Non-OK status (ZERO_RESULTS, OVER_QUERY_LIMIT, ...) and empty
	// result sets are absence, not errors.
	if body.Status != "OK" || len(body.Results) == 0 {
		c.log.Debug("No geocode result", map[string]interface{}{
			"lat":    coord.Latitude,
			"lng":    coord.Longitude,
			"status": body.Status,
		})
		return nil, nil
	}

	addr := toResolvedAddress(body.Results[0])
	c.cacheSet(ctx, coord, addr)

	return addr, nil
}

// toResolvedAddress flattens the provider's component list into the
// fields the matcher scores on.
func toResolvedAddress(r geocodeResult) *models.ResolvedAddress {
	addr := &models.ResolvedAddress{
		Formatted:  r.FormattedAddress,
		Confidence: locationTypeConfidence(r.Geometry.LocationType),
	}

	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				addr.StreetNumber = comp.LongName
			case "route":
				addr.Route = comp.LongName
			case "locality", "postal_town":
				addr.City = comp.LongName
			case "administrative_area_level_1":
				addr.State = comp.ShortName
			case "postal_code":
				addr.PostalCode = comp.LongName
			}
		}
	}

	return addr
}

// locationTypeConfidence maps geocoder-reported precision onto [0,1].
// Rooftop hits are authoritative; approximate centroids much less so.
func locationTypeConfidence(locationType string) float64 {
	switch locationType {
	case "ROOFTOP":
		return 1.0
	case "RANGE_INTERPOLATED":
		return 0.8
	case "GEOMETRIC_CENTER":
		return 0.65
	case "APPROXIMATE":
		return 0.5
	default:
		return 0.5
	}
}

func (c *Client) cacheGet(ctx context.Context, coord models.Coordinate) (*models.ResolvedAddress, bool) {
	if c.cache == nil {
		return nil, false
	}
	addr, ok, err := c.cache.Get(ctx, coord)
	if err != nil {
		c.log.Warn("Geocode cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return addr, ok
}

func (c *Client) cacheSet(ctx context.Context, coord models.Coordinate, addr *models.ResolvedAddress) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, coord, addr); err != nil {
		c.log.Warn("Geocode cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
