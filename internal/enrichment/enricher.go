// Package enrichment attaches Google Maps context to merged locations:
// nearby points of interest, transit stations and a per-location
// neighborhood summary. Enrichment runs on demand, never on a
// schedule, and every attempt lands in an append-only ledger.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/gmaps"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/sqlite"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

// ErrAlreadyRunning means another holder owns the enrichment lock for
// the location.
var ErrAlreadyRunning = errors.New("enrichment already in progress")

// Maps is the Google Maps surface the enricher needs.
type Maps interface {
	NearbySearch(ctx context.Context, lat, lng float64, placeType string, radius, maxResults int) ([]gmaps.Place, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*gmaps.Address, error)
}

// Locker serializes enrichment per location across processes. The
// Redis cache client satisfies it; MemoryLocker covers single-node
// deployments without Redis.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// MemoryLocker is an in-process Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time)}
}

func (l *MemoryLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, ok := l.held[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *MemoryLocker) ReleaseLock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type Config struct {
	// POICategories maps a Places type to its search radius in meters.
	POICategories map[string]int
	// TransitTypes maps a transit station type to its search radius.
	TransitTypes map[string]int

	MaxResultsPerSearch int
	LockTTL             time.Duration
	Concurrency         int
}

type Enricher struct {
	store *sqlite.Client
	maps  Maps
	locks Locker
	cfg   Config
}

func NewEnricher(store *sqlite.Client, maps Maps, locks Locker, cfg Config) *Enricher {
	if len(cfg.POICategories) == 0 {
		cfg.POICategories = map[string]int{
			"restaurant":         500,
			"cafe":               500,
			"gym":                1000,
			"supermarket":        1000,
			"tourist_attraction": 1500,
		}
	}
	if len(cfg.TransitTypes) == 0 {
		cfg.TransitTypes = map[string]int{
			"subway_station":     1000,
			"train_station":      1500,
			"light_rail_station": 1000,
			"bus_station":        500,
		}
	}
	if cfg.MaxResultsPerSearch <= 0 {
		cfg.MaxResultsPerSearch = 10
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if locks == nil {
		locks = NewMemoryLocker()
	}

	return &Enricher{store: store, maps: maps, locks: locks, cfg: cfg}
}

// EnrichLocation enriches one location. Already-enriched locations are
// skipped unless force is set; locations without coordinates are always
// skipped. Every attempt, including skips, appends a ledger row.
func (e *Enricher) EnrichLocation(ctx context.Context, locationID int64, force bool) (*models.EnrichmentOutcome, error) {
	loc, err := e.store.GetLocation(locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("location %d not found", locationID)
	}

	lockKey := fmt.Sprintf("enrich:%d", locationID)
	acquired, err := e.locks.AcquireLock(ctx, lockKey, e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: location %d", ErrAlreadyRunning, locationID)
	}
	defer func() {
		if err := e.locks.ReleaseLock(context.Background(), lockKey); err != nil {
			logger.Warn("Failed to release enrichment lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	startedAt := time.Now()
	outcome := &models.EnrichmentOutcome{
		LocationID:   locationID,
		LocationName: loc.Name,
		StartedAt:    startedAt,
	}

	if loc.Latitude == nil || loc.Longitude == nil {
		return e.record(outcome, models.EnrichmentSkipped, "location has no coordinates")
	}

	if !force {
		done, err := e.store.HasSuccessfulEnrichment(locationID)
		if err != nil {
			return nil, err
		}
		if done {
			return e.record(outcome, models.EnrichmentSkipped, "already enriched")
		}
	}

	lat, lng := *loc.Latitude, *loc.Longitude
	logger.Info("Enriching location",
		zap.Int64("location_id", locationID),
		zap.String("name", loc.Name),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
	)

	pois, err := e.enrichPOIs(ctx, locationID, lat, lng)
	outcome.POIsFound = pois
	if err != nil {
		return e.record(outcome, models.EnrichmentFailed, err.Error())
	}

	transit, err := e.enrichTransit(ctx, locationID, lat, lng)
	outcome.TransitFound = transit
	if err != nil {
		return e.record(outcome, models.EnrichmentFailed, err.Error())
	}

	if err := e.enrichNeighborhood(ctx, locationID, lat, lng); err != nil {
		return e.record(outcome, models.EnrichmentFailed, err.Error())
	}

	return e.record(outcome, models.EnrichmentSuccess, "")
}

// SweepResult aggregates one EnrichAll pass.
type SweepResult struct {
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// EnrichAll enriches every location, skipping ones without coordinates
// and, unless force is set, ones that already succeeded.
func (e *Enricher) EnrichAll(ctx context.Context, force bool) (*SweepResult, error) {
	locations, err := e.store.ListLocations()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	result := &SweepResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, loc := range locations {
		loc := loc
		g.Go(func() error {
			outcome, err := e.EnrichLocation(ctx, loc.SourceID, force)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				logger.Error("Failed to enrich location",
					zap.Int64("location_id", loc.SourceID),
					zap.Error(err),
				)
				result.Failed++
			case outcome.Status == models.EnrichmentSuccess:
				result.Enriched++
			case outcome.Status == models.EnrichmentFailed:
				result.Failed++
			default:
				result.Skipped++
			}
			return nil
		})
	}

	_ = g.Wait()

	logger.Info("Enrichment sweep finished",
		zap.Int("enriched", result.Enriched),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (e *Enricher) record(o *models.EnrichmentOutcome, status models.EnrichmentStatus, message string) (*models.EnrichmentOutcome, error) {
	o.Status = status
	o.FinishedAt = time.Now()
	if message != "" {
		o.ErrorMessage = &message
	}

	metrics.EnrichmentAttempts.WithLabelValues(string(status)).Inc()

	if err := e.store.AppendEnrichmentOutcome(o); err != nil {
		return nil, err
	}
	if status == models.EnrichmentFailed {
		return o, errors.New(message)
	}
	return o, nil
}

// enrichPOIs searches every configured category and merges the
// results. A place found under several categories keeps its first one.
func (e *Enricher) enrichPOIs(ctx context.Context, locationID int64, lat, lng float64) (int, error) {
	seen := make(map[string]bool)
	total := 0

	for _, category := range sortedKeys(e.cfg.POICategories) {
		radius := e.cfg.POICategories[category]
		places, err := e.maps.NearbySearch(ctx, lat, lng, category, radius, e.cfg.MaxResultsPerSearch)
		if err != nil {
			return total, fmt.Errorf("failed to search %s: %w", category, err)
		}

		for _, place := range places {
			if seen[place.PlaceID] {
				continue
			}
			seen[place.PlaceID] = true

			distance := HaversineMeters(lat, lng, place.Latitude, place.Longitude)
			err := e.store.UpsertNearbyPlace(&models.NearbyPlace{
				LocationID:     locationID,
				PlaceID:        place.PlaceID,
				Category:       category,
				PrimaryType:    place.PrimaryType(),
				Types:          joinTypes(place.Types),
				Name:           place.Name,
				Address:        place.Address,
				Latitude:       place.Latitude,
				Longitude:      place.Longitude,
				DistanceMeters: distance,
				WalkingMinutes: WalkingMinutes(distance),
				Rating:         place.Rating,
				TotalRatings:   place.TotalRatings,
				PriceLevel:     place.PriceLevel,
				BusinessStatus: place.BusinessStatus,
				SearchRadius:   radius,
				RawJSON:        string(place.Raw),
			})
			if err != nil {
				return total, err
			}
			metrics.EnrichmentItems.WithLabelValues("poi").Inc()
			total++
		}
	}

	return total, nil
}

func (e *Enricher) enrichTransit(ctx context.Context, locationID int64, lat, lng float64) (int, error) {
	seen := make(map[string]bool)
	total := 0

	for _, transitType := range sortedKeys(e.cfg.TransitTypes) {
		radius := e.cfg.TransitTypes[transitType]
		places, err := e.maps.NearbySearch(ctx, lat, lng, transitType, radius, e.cfg.MaxResultsPerSearch)
		if err != nil {
			return total, fmt.Errorf("failed to search %s: %w", transitType, err)
		}

		for _, place := range places {
			if seen[place.PlaceID] {
				continue
			}
			seen[place.PlaceID] = true

			distance := HaversineMeters(lat, lng, place.Latitude, place.Longitude)
			err := e.store.UpsertTransitStation(&models.TransitStation{
				LocationID:     locationID,
				PlaceID:        place.PlaceID,
				TransitType:    transitType,
				Types:          joinTypes(place.Types),
				Name:           place.Name,
				Address:        place.Address,
				Latitude:       place.Latitude,
				Longitude:      place.Longitude,
				DistanceMeters: distance,
				WalkingMinutes: WalkingMinutes(distance),
				SearchRadius:   radius,
				RawJSON:        string(place.Raw),
			})
			if err != nil {
				return total, err
			}
			metrics.EnrichmentItems.WithLabelValues("transit").Inc()
			total++
		}
	}

	return total, nil
}

// enrichNeighborhood reverse geocodes the coordinate and summarizes
// what the other passes stored: nearest landmark, nearest main station
// and within-500m counts.
func (e *Enricher) enrichNeighborhood(ctx context.Context, locationID int64, lat, lng float64) error {
	addr, err := e.maps.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to reverse geocode: %w", err)
	}

	n := &models.Neighborhood{
		LocationID:       locationID,
		NeighborhoodName: addr.Neighborhood,
		DistrictName:     addr.District,
		CityName:         addr.City,
		PostalCode:       addr.PostalCode,
		EnrichedAt:       time.Now(),
	}

	landmarks, err := e.maps.NearbySearch(ctx, lat, lng, "tourist_attraction", 2000, 1)
	if err != nil {
		return fmt.Errorf("failed to search landmarks: %w", err)
	}
	if len(landmarks) > 0 {
		landmark := landmarks[0]
		distance := HaversineMeters(lat, lng, landmark.Latitude, landmark.Longitude)
		n.NearestLandmarkName = &landmark.Name
		n.NearestLandmarkLat = &landmark.Latitude
		n.NearestLandmarkLng = &landmark.Longitude
		n.LandmarkDistanceM = &distance
		n.LandmarkPlaceID = &landmark.PlaceID
	}

	stations, err := e.maps.NearbySearch(ctx, lat, lng, "train_station", 5000, 1)
	if err != nil {
		return fmt.Errorf("failed to search main station: %w", err)
	}
	if len(stations) > 0 {
		station := stations[0]
		distance := HaversineMeters(lat, lng, station.Latitude, station.Longitude)
		n.NearestStationName = &station.Name
		n.NearestStationLat = &station.Latitude
		n.NearestStationLng = &station.Longitude
		n.StationDistanceM = &distance
		n.StationPlaceID = &station.PlaceID
	}

	pois, err := e.store.ListNearbyPlaces(locationID)
	if err != nil {
		return err
	}
	for _, p := range pois {
		if p.DistanceMeters > 500 {
			continue
		}
		switch p.Category {
		case "restaurant":
			n.RestaurantsWithin500m++
		case "cafe":
			n.CafesWithin500m++
		}
	}

	transit, err := e.store.ListTransitStations(locationID)
	if err != nil {
		return err
	}
	for _, s := range transit {
		if s.DistanceMeters <= 500 {
			n.TransitWithin500m++
		}
	}

	return e.store.UpsertNeighborhood(n)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinTypes(types []string) string {
	return strings.Join(types, ",")
}
