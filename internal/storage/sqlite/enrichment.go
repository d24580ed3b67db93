package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// AppendEnrichmentOutcome adds one ledger row for an enrichment attempt.
// The ledger is append-only; retries for the same location add rows.
func (c *Client) AppendEnrichmentOutcome(o *models.EnrichmentOutcome) error {
	query := `
		INSERT INTO enrichment_log (location_source_id, location_name, status, pois_found, transit_found, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := c.db.Exec(
		query,
		o.LocationID, o.LocationName, string(o.Status), o.POIsFound, o.TransitFound,
		o.ErrorMessage, o.StartedAt.Unix(), o.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append enrichment outcome: %w", err)
	}

	o.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read enrichment outcome id: %w", err)
	}
	return nil
}

// LatestEnrichmentOutcome returns the most recent attempt for a
// location, or nil when it has never been attempted.
func (c *Client) LatestEnrichmentOutcome(locationID int64) (*models.EnrichmentOutcome, error) {
	query := `
		SELECT id, location_source_id, location_name, status, pois_found, transit_found, error_message, started_at, finished_at
		FROM enrichment_log
		WHERE location_source_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var o models.EnrichmentOutcome
	var status string
	var startedAt, finishedAt int64

	err := c.db.QueryRow(query, locationID).Scan(
		&o.ID, &o.LocationID, &o.LocationName, &status, &o.POIsFound, &o.TransitFound,
		&o.ErrorMessage, &startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest enrichment outcome: %w", err)
	}

	o.Status = models.EnrichmentStatus(status)
	o.StartedAt = time.Unix(startedAt, 0)
	o.FinishedAt = time.Unix(finishedAt, 0)
	return &o, nil
}

// HasSuccessfulEnrichment reports whether any past attempt for the
// location succeeded.
func (c *Client) HasSuccessfulEnrichment(locationID int64) (bool, error) {
	var found bool
	query := `SELECT EXISTS(SELECT 1 FROM enrichment_log WHERE location_source_id = ? AND status = ?)`
	if err := c.db.QueryRow(query, locationID, string(models.EnrichmentSuccess)).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check enrichment history: %w", err)
	}
	return found, nil
}

// EnrichmentStatusReport summarizes the latest attempt per location.
type EnrichmentStatusReport struct {
	TotalLocations int                        `json:"total_locations"`
	Enriched       int                        `json:"enriched"`
	Failed         int                        `json:"failed"`
	Skipped        int                        `json:"skipped"`
	NeverAttempted int                        `json:"never_attempted"`
	Locations      []EnrichmentLocationStatus `json:"locations"`
}

type EnrichmentLocationStatus struct {
	LocationID   int64   `json:"location_id"`
	LocationName string  `json:"location_name"`
	Status       string  `json:"status"`
	POIsFound    int     `json:"pois_found"`
	TransitFound int     `json:"transit_found"`
	AttemptedAt  *int64  `json:"attempted_at,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

func (c *Client) GetEnrichmentStatusReport() (*EnrichmentStatusReport, error) {
	query := `
		SELECT l.source_id, l.name, e.status, e.pois_found, e.transit_found, e.started_at, e.error_message
		FROM locations l
		LEFT JOIN (
			SELECT e1.* FROM enrichment_log e1
			INNER JOIN (
				SELECT location_source_id, MAX(id) AS latest_id
				FROM enrichment_log GROUP BY location_source_id
			) e2 ON e1.id = e2.latest_id
		) e ON e.location_source_id = l.source_id
		ORDER BY l.source_id
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrichment status: %w", err)
	}
	defer rows.Close()

	report := &EnrichmentStatusReport{}
	for rows.Next() {
		var ls EnrichmentLocationStatus
		var status *string
		var pois, transit, attemptedAt *int64

		if err := rows.Scan(&ls.LocationID, &ls.LocationName, &status, &pois, &transit, &attemptedAt, &ls.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan enrichment status: %w", err)
		}

		report.TotalLocations++
		if status == nil {
			ls.Status = "never_attempted"
			report.NeverAttempted++
		} else {
			ls.Status = *status
			ls.POIsFound = int(*pois)
			ls.TransitFound = int(*transit)
			ls.AttemptedAt = attemptedAt
			switch models.EnrichmentStatus(*status) {
			case models.EnrichmentSuccess:
				report.Enriched++
			case models.EnrichmentFailed:
				report.Failed++
			case models.EnrichmentSkipped:
				report.Skipped++
			}
		}
		report.Locations = append(report.Locations, ls)
	}

	return report, rows.Err()
}

// UpsertNearbyPlace merges one POI keyed on (location, place id), so
// re-enrichment refreshes items instead of duplicating them.
func (c *Client) UpsertNearbyPlace(p *models.NearbyPlace) error {
	query := `
		INSERT INTO nearby_places (
			location_source_id, place_id, category, primary_type, types, name, address,
			latitude, longitude, distance_meters, walking_minutes, rating, total_ratings,
			price_level, business_status, search_radius_meters, raw_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_source_id, place_id) DO UPDATE SET
			category = excluded.category,
			primary_type = excluded.primary_type,
			types = excluded.types,
			name = excluded.name,
			address = excluded.address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			distance_meters = excluded.distance_meters,
			walking_minutes = excluded.walking_minutes,
			rating = excluded.rating,
			total_ratings = excluded.total_ratings,
			price_level = excluded.price_level,
			business_status = excluded.business_status,
			search_radius_meters = excluded.search_radius_meters,
			raw_json = excluded.raw_json
	`

	_, err := c.db.Exec(
		query,
		p.LocationID, p.PlaceID, p.Category, p.PrimaryType, p.Types, p.Name, p.Address,
		p.Latitude, p.Longitude, p.DistanceMeters, p.WalkingMinutes, p.Rating, p.TotalRatings,
		p.PriceLevel, p.BusinessStatus, p.SearchRadius, p.RawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert nearby place %s: %w", p.PlaceID, err)
	}
	return nil
}

func (c *Client) UpsertTransitStation(s *models.TransitStation) error {
	query := `
		INSERT INTO transit_stations (
			location_source_id, place_id, transit_type, types, name, address,
			latitude, longitude, distance_meters, walking_minutes, search_radius_meters, raw_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_source_id, place_id) DO UPDATE SET
			transit_type = excluded.transit_type,
			types = excluded.types,
			name = excluded.name,
			address = excluded.address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			distance_meters = excluded.distance_meters,
			walking_minutes = excluded.walking_minutes,
			search_radius_meters = excluded.search_radius_meters,
			raw_json = excluded.raw_json
	`

	_, err := c.db.Exec(
		query,
		s.LocationID, s.PlaceID, s.TransitType, s.Types, s.Name, s.Address,
		s.Latitude, s.Longitude, s.DistanceMeters, s.WalkingMinutes, s.SearchRadius, s.RawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transit station %s: %w", s.PlaceID, err)
	}
	return nil
}

// UpsertNeighborhood writes the single summary row for a location.
func (c *Client) UpsertNeighborhood(n *models.Neighborhood) error {
	query := `
		INSERT INTO neighborhoods (
			location_source_id, neighborhood_name, district_name, city_name, postal_code,
			nearest_landmark_name, nearest_landmark_lat, nearest_landmark_lng,
			landmark_distance_m, landmark_place_id,
			nearest_station_name, nearest_station_lat, nearest_station_lng,
			station_distance_m, station_place_id,
			total_restaurants_500m, total_cafes_500m, total_transit_500m, enriched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_source_id) DO UPDATE SET
			neighborhood_name = excluded.neighborhood_name,
			district_name = excluded.district_name,
			city_name = excluded.city_name,
			postal_code = excluded.postal_code,
			nearest_landmark_name = excluded.nearest_landmark_name,
			nearest_landmark_lat = excluded.nearest_landmark_lat,
			nearest_landmark_lng = excluded.nearest_landmark_lng,
			landmark_distance_m = excluded.landmark_distance_m,
			landmark_place_id = excluded.landmark_place_id,
			nearest_station_name = excluded.nearest_station_name,
			nearest_station_lat = excluded.nearest_station_lat,
			nearest_station_lng = excluded.nearest_station_lng,
			station_distance_m = excluded.station_distance_m,
			station_place_id = excluded.station_place_id,
			total_restaurants_500m = excluded.total_restaurants_500m,
			total_cafes_500m = excluded.total_cafes_500m,
			total_transit_500m = excluded.total_transit_500m,
			enriched_at = excluded.enriched_at
	`

	_, err := c.db.Exec(
		query,
		n.LocationID, n.NeighborhoodName, n.DistrictName, n.CityName, n.PostalCode,
		n.NearestLandmarkName, n.NearestLandmarkLat, n.NearestLandmarkLng,
		n.LandmarkDistanceM, n.LandmarkPlaceID,
		n.NearestStationName, n.NearestStationLat, n.NearestStationLng,
		n.StationDistanceM, n.StationPlaceID,
		n.RestaurantsWithin500m, n.CafesWithin500m, n.TransitWithin500m, n.EnrichedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert neighborhood for location %d: %w", n.LocationID, err)
	}
	return nil
}

func (c *Client) ListNearbyPlaces(locationID int64) ([]models.NearbyPlace, error) {
	query := `
		SELECT location_source_id, place_id, category, primary_type, types, name, address,
			latitude, longitude, distance_meters, walking_minutes, rating, total_ratings,
			price_level, business_status, search_radius_meters, raw_json
		FROM nearby_places WHERE location_source_id = ? ORDER BY distance_meters
	`

	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nearby places: %w", err)
	}
	defer rows.Close()

	var places []models.NearbyPlace
	for rows.Next() {
		var p models.NearbyPlace
		err := rows.Scan(
			&p.LocationID, &p.PlaceID, &p.Category, &p.PrimaryType, &p.Types, &p.Name, &p.Address,
			&p.Latitude, &p.Longitude, &p.DistanceMeters, &p.WalkingMinutes, &p.Rating, &p.TotalRatings,
			&p.PriceLevel, &p.BusinessStatus, &p.SearchRadius, &p.RawJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearby place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (c *Client) ListTransitStations(locationID int64) ([]models.TransitStation, error) {
	query := `
		SELECT location_source_id, place_id, transit_type, types, name, address,
			latitude, longitude, distance_meters, walking_minutes, search_radius_meters, raw_json
		FROM transit_stations WHERE location_source_id = ? ORDER BY distance_meters
	`

	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transit stations: %w", err)
	}
	defer rows.Close()

	var stations []models.TransitStation
	for rows.Next() {
		var s models.TransitStation
		err := rows.Scan(
			&s.LocationID, &s.PlaceID, &s.TransitType, &s.Types, &s.Name, &s.Address,
			&s.Latitude, &s.Longitude, &s.DistanceMeters, &s.WalkingMinutes, &s.SearchRadius, &s.RawJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transit station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (c *Client) GetNeighborhood(locationID int64) (*models.Neighborhood, error) {
	query := `
		SELECT location_source_id, neighborhood_name, district_name, city_name, postal_code,
			nearest_landmark_name, nearest_landmark_lat, nearest_landmark_lng,
			landmark_distance_m, landmark_place_id,
			nearest_station_name, nearest_station_lat, nearest_station_lng,
			station_distance_m, station_place_id,
			total_restaurants_500m, total_cafes_500m, total_transit_500m, enriched_at
		FROM neighborhoods WHERE location_source_id = ?
	`

	var n models.Neighborhood
	var enrichedAt int64

	err := c.db.QueryRow(query, locationID).Scan(
		&n.LocationID, &n.NeighborhoodName, &n.DistrictName, &n.CityName, &n.PostalCode,
		&n.NearestLandmarkName, &n.NearestLandmarkLat, &n.NearestLandmarkLng,
		&n.LandmarkDistanceM, &n.LandmarkPlaceID,
		&n.NearestStationName, &n.NearestStationLat, &n.NearestStationLng,
		&n.StationDistanceM, &n.StationPlaceID,
		&n.RestaurantsWithin500m, &n.CafesWithin500m, &n.TransitWithin500m, &enrichedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get neighborhood for location %d: %w", locationID, err)
	}

	n.EnrichedAt = time.Unix(enrichedAt, 0)
	return &n, nil
}
