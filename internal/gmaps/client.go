// Package gmaps is a client for the Google Maps Platform web services
// used by location enrichment: Places Nearby Search and reverse
// geocoding. Responses come back as typed summaries plus the raw
// result JSON for provenance.
package gmaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/circuitbreaker"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/retry"
)

var (
	// ErrRateLimited covers OVER_QUERY_LIMIT and HTTP 429.
	ErrRateLimited = errors.New("gmaps: rate limited")
	// ErrTransient covers network failures and 5xx responses.
	ErrTransient = errors.New("gmaps: transient upstream error")
	// ErrDenied covers REQUEST_DENIED, usually a bad or unentitled key.
	ErrDenied = errors.New("gmaps: request denied")
)

// RetryableErrors lists the sentinels worth retrying.
var RetryableErrors = []error{ErrRateLimited, ErrTransient}

const defaultBaseURL = "https://maps.googleapis.com"

type Config struct {
	APIKey      string
	BaseURL     string // defaults to the public Google Maps endpoint
	Timeout     time.Duration
	MaxAttempts int
}

// Place is one Nearby Search result.
type Place struct {
	PlaceID        string
	Name           string
	Types          []string
	Address        *string
	Latitude       float64
	Longitude      float64
	Rating         *float64
	TotalRatings   *int
	PriceLevel     *int
	BusinessStatus *string
	Raw            json.RawMessage
}

// PrimaryType returns the first Google type, or nil when absent.
func (p *Place) PrimaryType() *string {
	if len(p.Types) == 0 {
		return nil
	}
	return &p.Types[0]
}

// Address is the neighborhood context extracted from a reverse geocode.
type Address struct {
	Neighborhood *string
	District     *string
	City         *string
	PostalCode   *string
}

type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	breaker  *circuitbreaker.Breaker
	retryCfg retry.Config
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New("gmaps", circuitbreaker.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Cooldown:         30 * time.Second,
			Logger:           logger.Log,
		}),
		retryCfg: retry.Config{
			MaxAttempts:     cfg.MaxAttempts,
			InitialDelay:    time.Second,
			MaxDelay:        30 * time.Second,
			Multiplier:      2.0,
			JitterFraction:  0.1,
			RetryableErrors: RetryableErrors,
			Logger:          logger.Log,
		},
	}
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string   `json:"place_id"`
		Name     string   `json:"name"`
		Types    []string `json:"types"`
		Vicinity string   `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		BusinessStatus   string   `json:"business_status"`
	} `json:"results"`
}

// NearbySearch returns up to maxResults places of placeType within
// radius meters of the coordinate.
func (c *Client) NearbySearch(ctx context.Context, lat, lng float64, placeType string, radius, maxResults int) ([]Place, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", lat, lng)},
		"radius":   {strconv.Itoa(radius)},
		"type":     {placeType},
		"key":      {c.apiKey},
	}

	body, err := retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		return c.get(ctx, "/maps/api/place/nearbysearch/json", params)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search nearby %s: %w", placeType, err)
	}

	var resp nearbyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode nearby search response: %w", err)
	}
	if err := statusErr(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	// Raw carries the original result object verbatim; re-parse the
	// results array so each place keeps its untyped fields too.
	var rawEnvelope struct {
		Results []json.RawMessage `json:"results"`
	}
	_ = json.Unmarshal(body, &rawEnvelope)

	places := make([]Place, 0, len(resp.Results))
	for i, r := range resp.Results {
		if maxResults > 0 && len(places) >= maxResults {
			break
		}

		place := Place{
			PlaceID:      r.PlaceID,
			Name:         r.Name,
			Types:        r.Types,
			Latitude:     r.Geometry.Location.Lat,
			Longitude:    r.Geometry.Location.Lng,
			Rating:       r.Rating,
			TotalRatings: r.UserRatingsTotal,
			PriceLevel:   r.PriceLevel,
		}
		if r.Vicinity != "" {
			v := r.Vicinity
			place.Address = &v
		}
		if r.BusinessStatus != "" {
			s := r.BusinessStatus
			place.BusinessStatus = &s
		}
		if i < len(rawEnvelope.Results) {
			place.Raw = rawEnvelope.Results[i]
		}
		places = append(places, place)
	}

	return places, nil
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// ReverseGeocode extracts neighborhood, district, city and postal code
// for a coordinate. Components are taken first-wins across all results,
// which are ordered most-detailed first.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", lat, lng)},
		"key":    {c.apiKey},
	}

	body, err := retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		return c.get(ctx, "/maps/api/geocode/json", params)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode: %w", err)
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if err := statusErr(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	addr := &Address{}
	for _, result := range resp.Results {
		for _, component := range result.AddressComponents {
			name := component.LongName
			switch {
			case addr.Neighborhood == nil && hasType(component.Types, "neighborhood", "sublocality"):
				addr.Neighborhood = &name
			case addr.District == nil && hasType(component.Types, "sublocality_level_1", "administrative_area_level_2"):
				addr.District = &name
			case addr.City == nil && hasType(component.Types, "locality"):
				addr.City = &name
			case addr.PostalCode == nil && hasType(component.Types, "postal_code"):
				addr.PostalCode = &name
			}
		}
	}

	return addr, nil
}

func hasType(types []string, wanted ...string) bool {
	for _, t := range types {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}

// statusErr maps the Google API body status into the error taxonomy.
// ZERO_RESULTS is a successful empty answer, not an error.
func statusErr(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case "REQUEST_DENIED":
		return fmt.Errorf("%w: %s", ErrDenied, message)
	default:
		return fmt.Errorf("gmaps: status %s: %s", status, message)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var body json.RawMessage

	err := c.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues("gmaps", "network_error").Inc()
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		metrics.UpstreamRequests.WithLabelValues("gmaps", strconv.Itoa(resp.StatusCode)).Inc()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("%w: failed to read response: %v", ErrTransient, err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, path)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s returned %d", ErrTransient, path, resp.StatusCode)
		default:
			return fmt.Errorf("gmaps: %s returned unexpected status %d", path, resp.StatusCode)
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
