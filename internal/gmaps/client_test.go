package gmaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/circuitbreaker"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

func init() {
	_ = logger.Init("error", "console", "stdout")
}

func newTestClient(baseURL string) *Client {
	c := NewClient(Config{APIKey: "test-key", BaseURL: baseURL})
	c.retryCfg.InitialDelay = time.Millisecond
	c.retryCfg.MaxDelay = 5 * time.Millisecond
	return c
}

func TestNearbySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "cafe", r.URL.Query().Get("type"))
		assert.Equal(t, "500", r.URL.Query().Get("radius"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "pl-1",
					"name": "Café Einstein",
					"types": ["cafe", "food"],
					"vicinity": "Kurfürstenstraße 58",
					"geometry": {"location": {"lat": 52.5, "lng": 13.36}},
					"rating": 4.4,
					"user_ratings_total": 2100,
					"price_level": 2,
					"business_status": "OPERATIONAL"
				},
				{
					"place_id": "pl-2",
					"name": "Second Café",
					"types": ["cafe"],
					"geometry": {"location": {"lat": 52.51, "lng": 13.37}}
				},
				{
					"place_id": "pl-3",
					"name": "Third Café",
					"types": ["cafe"],
					"geometry": {"location": {"lat": 52.52, "lng": 13.38}}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	places, err := c.NearbySearch(context.Background(), 52.5, 13.36, "cafe", 500, 2)
	require.NoError(t, err)
	require.Len(t, places, 2)

	first := places[0]
	assert.Equal(t, "pl-1", first.PlaceID)
	assert.Equal(t, "Café Einstein", first.Name)
	require.NotNil(t, first.Address)
	assert.Equal(t, "Kurfürstenstraße 58", *first.Address)
	assert.Equal(t, 52.5, first.Latitude)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.4, *first.Rating)
	require.NotNil(t, first.PrimaryType())
	assert.Equal(t, "cafe", *first.PrimaryType())
	assert.NotEmpty(t, first.Raw)

	second := places[1]
	assert.Nil(t, second.Address)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.BusinessStatus)
}

func TestNearbySearchZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	places, err := c.NearbySearch(context.Background(), 52.5, 13.36, "gym", 1000, 5)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestNearbySearchRequestDenied(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.NearbySearch(context.Background(), 52.5, 13.36, "cafe", 500, 5)
	require.ErrorIs(t, err, ErrDenied)
	// The body status is only classified after the HTTP round trip
	// succeeded, so no retries happen.
	assert.Equal(t, 1, calls)
}

func TestNearbySearchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status": "OK", "results": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	places, err := c.NearbySearch(context.Background(), 52.5, 13.36, "cafe", 500, 5)
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Equal(t, 2, calls)
}

func TestCircuitBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.breaker = circuitbreaker.New("gmaps-test", circuitbreaker.Config{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	_, err := c.NearbySearch(context.Background(), 52.5, 13.36, "cafe", 500, 5)
	require.Error(t, err)
	// Two failed attempts opened the breaker; the third was rejected
	// without a request.
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, circuitbreaker.StateOpen, c.breaker.State())
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"address_components": [
						{"long_name": "Mitte", "types": ["neighborhood", "political"]},
						{"long_name": "10117", "types": ["postal_code"]}
					]
				},
				{
					"address_components": [
						{"long_name": "Bezirk Mitte", "types": ["sublocality_level_1"]},
						{"long_name": "Berlin", "types": ["locality", "political"]},
						{"long_name": "Somewhere Else", "types": ["neighborhood"]}
					]
				}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	addr, err := c.ReverseGeocode(context.Background(), 52.52, 13.38)
	require.NoError(t, err)

	require.NotNil(t, addr.Neighborhood)
	assert.Equal(t, "Mitte", *addr.Neighborhood)
	require.NotNil(t, addr.District)
	assert.Equal(t, "Bezirk Mitte", *addr.District)
	require.NotNil(t, addr.City)
	assert.Equal(t, "Berlin", *addr.City)
	require.NotNil(t, addr.PostalCode)
	assert.Equal(t, "10117", *addr.PostalCode)
}

func TestReverseGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	addr, err := c.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Nil(t, addr.Neighborhood)
	assert.Nil(t, addr.City)
}
