package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/sqlite"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

type LocationHandler struct {
	store *sqlite.Client
}

func NewLocationHandler(store *sqlite.Client) *LocationHandler {
	return &LocationHandler{
		store: store,
	}
}

func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.store.ListLocations()
	if err != nil {
		logger.Error("Failed to list locations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list locations",
		})
	}

	out := make([]fiber.Map, 0, len(locations))
	for i := range locations {
		out = append(out, locationView(&locations[i]))
	}

	return c.JSON(fiber.Map{
		"locations": out,
		"count":     len(out),
	})
}

func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	locationID, err := pathID(c)
	if err != nil {
		return err
	}

	loc, err := h.store.GetLocation(locationID)
	if err != nil {
		logger.Error("Failed to load location", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load location",
		})
	}
	if loc == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}

	hours, err := h.store.ListLocationHours(locationID)
	if err != nil {
		logger.Error("Failed to load location hours", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load location hours",
		})
	}

	hoursList := make([]fiber.Map, 0, len(hours))
	for _, hrs := range hours {
		hoursList = append(hoursList, fiber.Map{
			"day_of_week":   hrs.DayOfWeek,
			"day_name":      hrs.DayName,
			"is_closed":     hrs.IsClosed,
			"open_minutes":  hrs.OpenMinutes,
			"close_minutes": hrs.CloseMinutes,
		})
	}

	view := locationView(loc)
	view["opening_hours"] = hoursList
	return c.JSON(view)
}

// GetNearby returns the enrichment read-side for one location: its
// nearby POIs, transit stations and neighborhood summary.
func (h *LocationHandler) GetNearby(c *fiber.Ctx) error {
	locationID, err := pathID(c)
	if err != nil {
		return err
	}

	loc, err := h.store.GetLocation(locationID)
	if err != nil {
		logger.Error("Failed to load location", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load location",
		})
	}
	if loc == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}

	places, err := h.store.ListNearbyPlaces(locationID)
	if err != nil {
		logger.Error("Failed to list nearby places", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list nearby places",
		})
	}

	stations, err := h.store.ListTransitStations(locationID)
	if err != nil {
		logger.Error("Failed to list transit stations", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transit stations",
		})
	}

	neighborhood, err := h.store.GetNeighborhood(locationID)
	if err != nil {
		logger.Error("Failed to load neighborhood", zap.Int64("location_id", locationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load neighborhood",
		})
	}

	placeList := make([]fiber.Map, 0, len(places))
	for _, p := range places {
		placeList = append(placeList, fiber.Map{
			"place_id":        p.PlaceID,
			"category":        p.Category,
			"name":            p.Name,
			"address":         p.Address,
			"latitude":        p.Latitude,
			"longitude":       p.Longitude,
			"distance_meters": p.DistanceMeters,
			"walking_minutes": p.WalkingMinutes,
			"rating":          p.Rating,
			"total_ratings":   p.TotalRatings,
			"price_level":     p.PriceLevel,
			"business_status": p.BusinessStatus,
		})
	}

	stationList := make([]fiber.Map, 0, len(stations))
	for _, s := range stations {
		stationList = append(stationList, fiber.Map{
			"place_id":        s.PlaceID,
			"transit_type":    s.TransitType,
			"name":            s.Name,
			"address":         s.Address,
			"latitude":        s.Latitude,
			"longitude":       s.Longitude,
			"distance_meters": s.DistanceMeters,
			"walking_minutes": s.WalkingMinutes,
		})
	}

	resp := fiber.Map{
		"location":         locationView(loc),
		"nearby_places":    placeList,
		"transit_stations": stationList,
	}
	if neighborhood != nil {
		resp["neighborhood"] = fiber.Map{
			"neighborhood_name":      neighborhood.NeighborhoodName,
			"district_name":          neighborhood.DistrictName,
			"city_name":              neighborhood.CityName,
			"postal_code":            neighborhood.PostalCode,
			"nearest_landmark_name":  neighborhood.NearestLandmarkName,
			"landmark_distance_m":    neighborhood.LandmarkDistanceM,
			"nearest_station_name":   neighborhood.NearestStationName,
			"station_distance_m":     neighborhood.StationDistanceM,
			"total_restaurants_500m": neighborhood.RestaurantsWithin500m,
			"total_cafes_500m":       neighborhood.CafesWithin500m,
			"total_transit_500m":     neighborhood.TransitWithin500m,
			"enriched_at":            neighborhood.EnrichedAt.Unix(),
		}
	}

	return c.JSON(resp)
}

func locationView(loc *models.Location) fiber.Map {
	return fiber.Map{
		"source_id":      loc.SourceID,
		"name":           loc.Name,
		"address":        loc.Address,
		"postal_code":    loc.PostalCode,
		"city":           loc.City,
		"country_name":   loc.CountryName,
		"latitude":       loc.Latitude,
		"longitude":      loc.Longitude,
		"phone":          loc.Phone,
		"email":          loc.Email,
		"web_address":    loc.WebAddress,
		"currency_code":  loc.CurrencyCode,
		"short_intro":    loc.ShortIntro,
		"first_seen_at":  loc.FirstSeenAt.Unix(),
		"last_synced_at": loc.LastSyncedAt.Unix(),
	}
}

func productView(p *models.Product) fiber.Map {
	view := fiber.Map{
		"source_id":          p.SourceID,
		"item_type":          p.ItemType,
		"product_type_label": p.ProductTypeLabel,
		"name":               p.Name,
		"location_source_id": p.LocationSourceID,
		"location_name":      p.LocationName,
		"floor_plan_name":    p.FloorPlanName,
		"price":              p.Price,
		"currency_code":      p.CurrencyCode,
		"is_available":       p.IsAvailable,
		"size_sqm":           p.SizeSqm,
		"capacity":           p.Capacity,
	}
	if p.ResourceID != nil {
		view["resource_id"] = p.ResourceID
		view["resource_name"] = p.ResourceName
		view["resource_type_name"] = p.ResourceTypeName
	}
	return view
}

func serviceView(s *models.ExtraService) fiber.Map {
	return fiber.Map{
		"source_id":           s.SourceID,
		"name":                s.Name,
		"location_source_id":  s.LocationSourceID,
		"price":               s.Price,
		"currency_code":       s.CurrencyCode,
		"charge_period":       s.ChargePeriod,
		"resource_type_names": s.ResourceTypeNames,
		"only_for_members":    s.OnlyForMembers,
	}
}

// pathID parses the :id route parameter.
func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
	}
	return id, nil
}
