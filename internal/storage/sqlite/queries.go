package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// Nullable booleans and timestamps are stored as INTEGER columns, so
// reads go through sql.NullInt64 and convert after scanning.

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func timeVal(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}

func nullBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

const locationColumns = `source_id, raw_record_id, sync_run_id, uuid, name, web_address, address,
	postal_code, city, state, country_name, country_id, latitude, longitude,
	phone, email, web_contact, currency_code, description, short_intro,
	created_on, updated_on, first_seen_at, last_synced_at`

func scanLocation(row interface{ Scan(...any) error }) (*models.Location, error) {
	var loc models.Location
	var createdOn, updatedOn, firstSeen, lastSynced sql.NullInt64

	err := row.Scan(
		&loc.SourceID, &loc.RawRecordID, &loc.SyncRunID, &loc.UUID, &loc.Name, &loc.WebAddress, &loc.Address,
		&loc.PostalCode, &loc.City, &loc.State, &loc.CountryName, &loc.CountryID, &loc.Latitude, &loc.Longitude,
		&loc.Phone, &loc.Email, &loc.WebContact, &loc.CurrencyCode, &loc.Description, &loc.ShortIntro,
		&createdOn, &updatedOn, &firstSeen, &lastSynced,
	)
	if err != nil {
		return nil, err
	}

	loc.CreatedOn = timePtr(createdOn)
	loc.UpdatedOn = timePtr(updatedOn)
	loc.FirstSeenAt = timeVal(firstSeen)
	loc.LastSyncedAt = timeVal(lastSynced)
	return &loc, nil
}

func (c *Client) GetLocation(sourceID int64) (*models.Location, error) {
	query := fmt.Sprintf("SELECT %s FROM locations WHERE source_id = ?", locationColumns)
	loc, err := scanLocation(c.db.QueryRow(query, sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location %d: %w", sourceID, err)
	}
	return loc, nil
}

func (c *Client) ListLocations() ([]models.Location, error) {
	query := fmt.Sprintf("SELECT %s FROM locations ORDER BY source_id", locationColumns)
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

func (c *Client) ListLocationHours(locationID int64) ([]models.LocationHours, error) {
	query := `
		SELECT location_source_id, day_of_week, day_name, is_closed, open_minutes, close_minutes
		FROM location_hours WHERE location_source_id = ? ORDER BY day_of_week
	`
	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list location hours: %w", err)
	}
	defer rows.Close()

	var hours []models.LocationHours
	for rows.Next() {
		var h models.LocationHours
		if err := rows.Scan(&h.LocationSourceID, &h.DayOfWeek, &h.DayName, &h.IsClosed, &h.OpenMinutes, &h.CloseMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan location hours: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

const productColumns = `source_id, raw_record_id, sync_run_id, item_type, product_type_label,
	location_source_id, location_name, floor_plan_id, floor_plan_name, name,
	area_code, price, currency_code, is_available, available_from, available_to,
	coworker_id, coworker_name, coworker_company, coworker_email,
	contract_ids_raw, size_sqm, custom_size_sqm, capacity,
	resource_id, resource_name, resource_type_name, resource_shifts,
	amenity_air_conditioning, amenity_heating, amenity_internet, amenity_large_display,
	amenity_natural_light, amenity_whiteboard, amenity_soundproof, amenity_quiet_zone,
	amenity_tea_coffee, amenity_security_lock, amenity_cctv, amenity_catering,
	amenity_conference_phone, amenity_projector, amenity_standing_desk,
	created_on, updated_on, first_seen_at, last_synced_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var availableFrom, availableTo, createdOn, updatedOn, firstSeen, lastSynced sql.NullInt64
	var amenities [15]sql.NullInt64

	err := row.Scan(
		&p.SourceID, &p.RawRecordID, &p.SyncRunID, &p.ItemType, &p.ProductTypeLabel,
		&p.LocationSourceID, &p.LocationName, &p.FloorPlanID, &p.FloorPlanName, &p.Name,
		&p.AreaCode, &p.Price, &p.CurrencyCode, &p.IsAvailable, &availableFrom, &availableTo,
		&p.CoworkerID, &p.CoworkerName, &p.CoworkerCompany, &p.CoworkerEmail,
		&p.ContractIDsRaw, &p.SizeSqm, &p.CustomSizeSqm, &p.Capacity,
		&p.ResourceID, &p.ResourceName, &p.ResourceTypeName, &p.ResourceShifts,
		&amenities[0], &amenities[1], &amenities[2], &amenities[3],
		&amenities[4], &amenities[5], &amenities[6], &amenities[7],
		&amenities[8], &amenities[9], &amenities[10], &amenities[11],
		&amenities[12], &amenities[13], &amenities[14],
		&createdOn, &updatedOn, &firstSeen, &lastSynced,
	)
	if err != nil {
		return nil, err
	}

	p.AvailableFrom = timePtr(availableFrom)
	p.AvailableTo = timePtr(availableTo)
	p.CreatedOn = timePtr(createdOn)
	p.UpdatedOn = timePtr(updatedOn)
	p.FirstSeenAt = timeVal(firstSeen)
	p.LastSyncedAt = timeVal(lastSynced)

	if p.ItemType == 4 || p.ItemType == 5 {
		p.Amenities = &models.Amenities{
			AirConditioning: nullBool(amenities[0]),
			Heating:         nullBool(amenities[1]),
			Internet:        nullBool(amenities[2]),
			LargeDisplay:    nullBool(amenities[3]),
			NaturalLight:    nullBool(amenities[4]),
			Whiteboard:      nullBool(amenities[5]),
			Soundproof:      nullBool(amenities[6]),
			QuietZone:       nullBool(amenities[7]),
			TeaCoffee:       nullBool(amenities[8]),
			SecurityLock:    nullBool(amenities[9]),
			CCTV:            nullBool(amenities[10]),
			Catering:        nullBool(amenities[11]),
			ConferencePhone: nullBool(amenities[12]),
			Projector:       nullBool(amenities[13]),
			StandingDesk:    nullBool(amenities[14]),
		}
	}
	return &p, nil
}

func (c *Client) GetProduct(sourceID int64) (*models.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE source_id = ?", productColumns)
	p, err := scanProduct(c.db.QueryRow(query, sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", sourceID, err)
	}
	return p, nil
}

// GetProductsBySourceIDs returns products in the order of the requested
// ids, silently dropping ids with no row.
func (c *Client) GetProductsBySourceIDs(ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf("SELECT %s FROM products WHERE source_id IN (%s)", productColumns, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		byID[p.SourceID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var products []models.Product
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (c *Client) ListProductsByLocation(locationID int64) ([]models.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE location_source_id = ? ORDER BY source_id", productColumns)
	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ListRoomProducts returns products of the bookable room item types,
// the only ones carrying a resource type name.
func (c *Client) ListRoomProducts() ([]models.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE item_type IN (4, 5) ORDER BY source_id", productColumns)
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list room products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

const contractColumns = `source_id, raw_record_id, sync_run_id, unique_id, active, cancelled,
	main_contract, in_paused_period, coworker_id, coworker_name, coworker_email,
	coworker_company, coworker_type, coworker_active, location_source_id,
	location_name, tariff_id, tariff_name, tariff_price, currency_code,
	next_tariff_id, next_tariff_name, floor_plan_desk_ids, floor_plan_desk_names,
	price, price_with_products, unit_price, quantity, billing_day,
	apply_pro_rating, pro_rate_cancellation, include_signup_fee,
	cancellation_limit_days, start_date, contract_term, renewal_date,
	cancellation_date, invoiced_period, term_duration_months, notes, updated_by,
	created_on, updated_on, first_seen_at, last_synced_at`

func scanContract(row interface{ Scan(...any) error }) (*models.Contract, error) {
	var ct models.Contract
	var coworkerActive, applyProRating, proRateCancellation, includeSignupFee sql.NullInt64
	var startDate, contractTerm, renewalDate, cancellationDate, invoicedPeriod sql.NullInt64
	var createdOn, updatedOn, firstSeen, lastSynced sql.NullInt64

	err := row.Scan(
		&ct.SourceID, &ct.RawRecordID, &ct.SyncRunID, &ct.UniqueID, &ct.Active, &ct.Cancelled,
		&ct.MainContract, &ct.InPausedPeriod, &ct.CoworkerID, &ct.CoworkerName, &ct.CoworkerEmail,
		&ct.CoworkerCompany, &ct.CoworkerType, &coworkerActive, &ct.LocationSourceID,
		&ct.LocationName, &ct.TariffID, &ct.TariffName, &ct.TariffPrice, &ct.CurrencyCode,
		&ct.NextTariffID, &ct.NextTariffName, &ct.FloorPlanDeskIDs, &ct.FloorPlanDeskNames,
		&ct.Price, &ct.PriceWithProducts, &ct.UnitPrice, &ct.Quantity, &ct.BillingDay,
		&applyProRating, &proRateCancellation, &includeSignupFee,
		&ct.CancellationLimitDays, &startDate, &contractTerm, &renewalDate,
		&cancellationDate, &invoicedPeriod, &ct.TermDurationMonths, &ct.Notes, &ct.UpdatedBy,
		&createdOn, &updatedOn, &firstSeen, &lastSynced,
	)
	if err != nil {
		return nil, err
	}

	ct.CoworkerActive = nullBool(coworkerActive)
	ct.ApplyProRating = nullBool(applyProRating)
	ct.ProRateCancellation = nullBool(proRateCancellation)
	ct.IncludeSignupFee = nullBool(includeSignupFee)
	ct.StartDate = timePtr(startDate)
	ct.ContractTerm = timePtr(contractTerm)
	ct.RenewalDate = timePtr(renewalDate)
	ct.CancellationDate = timePtr(cancellationDate)
	ct.InvoicedPeriod = timePtr(invoicedPeriod)
	ct.CreatedOn = timePtr(createdOn)
	ct.UpdatedOn = timePtr(updatedOn)
	ct.FirstSeenAt = timeVal(firstSeen)
	ct.LastSyncedAt = timeVal(lastSynced)
	return &ct, nil
}

func (c *Client) GetContract(sourceID int64) (*models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE source_id = ?", contractColumns)
	ct, err := scanContract(c.db.QueryRow(query, sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", sourceID, err)
	}
	return ct, nil
}

const resourceColumns = `source_id, raw_record_id, sync_run_id, location_source_id, uuid, name,
	description, resource_type_id, resource_type_name, group_id, group_name,
	visible, online, visible_to_others, available, accessible, capacity, size,
	floor_number, created_on, updated_on, first_seen_at, last_synced_at`

func scanResource(row interface{ Scan(...any) error }) (*models.Resource, error) {
	var r models.Resource
	var createdOn, updatedOn, firstSeen, lastSynced sql.NullInt64

	err := row.Scan(
		&r.SourceID, &r.RawRecordID, &r.SyncRunID, &r.LocationSourceID, &r.UUID, &r.Name,
		&r.Description, &r.ResourceTypeID, &r.ResourceTypeName, &r.GroupID, &r.GroupName,
		&r.Visible, &r.Online, &r.VisibleToOthers, &r.Available, &r.Accessible, &r.Capacity, &r.Size,
		&r.FloorNumber, &createdOn, &updatedOn, &firstSeen, &lastSynced,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedOn = timePtr(createdOn)
	r.UpdatedOn = timePtr(updatedOn)
	r.FirstSeenAt = timeVal(firstSeen)
	r.LastSyncedAt = timeVal(lastSynced)
	return &r, nil
}

func (c *Client) GetResource(sourceID int64) (*models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE source_id = ?", resourceColumns)
	r, err := scanResource(c.db.QueryRow(query, sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource %d: %w", sourceID, err)
	}
	return r, nil
}

func (c *Client) ListResourcesByLocation(locationID int64) ([]models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE location_source_id = ? ORDER BY source_id", resourceColumns)
	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *r)
	}
	return resources, rows.Err()
}

const serviceColumns = `source_id, raw_record_id, sync_run_id, unique_id, location_source_id, name,
	description, price, currency_code, charge_period, credit_price,
	fixed_cost_price, fixed_cost_length_minutes, min_length_minutes,
	max_length_minutes, is_default_price, is_printing_credit, only_for_contacts,
	only_for_members, apply_charge_to_visitors, use_per_night_pricing,
	apply_from, apply_to, resource_type_names, tax_rate_id, updated_by,
	created_on, updated_on, first_seen_at, last_synced_at`

func scanExtraService(row interface{ Scan(...any) error }) (*models.ExtraService, error) {
	var s models.ExtraService
	var applyFrom, applyTo, createdOn, updatedOn, firstSeen, lastSynced sql.NullInt64

	err := row.Scan(
		&s.SourceID, &s.RawRecordID, &s.SyncRunID, &s.UniqueID, &s.LocationSourceID, &s.Name,
		&s.Description, &s.Price, &s.CurrencyCode, &s.ChargePeriod, &s.CreditPrice,
		&s.FixedCostPrice, &s.FixedCostLengthMinutes, &s.MinLengthMinutes,
		&s.MaxLengthMinutes, &s.IsDefaultPrice, &s.IsPrintingCredit, &s.OnlyForContacts,
		&s.OnlyForMembers, &s.ApplyChargeToVisitors, &s.UsePerNightPricing,
		&applyFrom, &applyTo, &s.ResourceTypeNames, &s.TaxRateID, &s.UpdatedBy,
		&createdOn, &updatedOn, &firstSeen, &lastSynced,
	)
	if err != nil {
		return nil, err
	}

	s.ApplyFrom = timePtr(applyFrom)
	s.ApplyTo = timePtr(applyTo)
	s.CreatedOn = timePtr(createdOn)
	s.UpdatedOn = timePtr(updatedOn)
	s.FirstSeenAt = timeVal(firstSeen)
	s.LastSyncedAt = timeVal(lastSynced)
	return &s, nil
}

func (c *Client) GetExtraService(sourceID int64) (*models.ExtraService, error) {
	query := fmt.Sprintf("SELECT %s FROM extra_services WHERE source_id = ?", serviceColumns)
	s, err := scanExtraService(c.db.QueryRow(query, sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extra service %d: %w", sourceID, err)
	}
	return s, nil
}

func (c *Client) ListExtraServicesByLocation(locationID int64) ([]models.ExtraService, error) {
	query := fmt.Sprintf("SELECT %s FROM extra_services WHERE location_source_id = ? ORDER BY source_id", serviceColumns)
	rows, err := c.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extra services for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var services []models.ExtraService
	for rows.Next() {
		s, err := scanExtraService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra service: %w", err)
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

func (c *Client) ListExtraServices() ([]models.ExtraService, error) {
	query := fmt.Sprintf("SELECT %s FROM extra_services ORDER BY source_id", serviceColumns)
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list extra services: %w", err)
	}
	defer rows.Close()

	var services []models.ExtraService
	for rows.Next() {
		s, err := scanExtraService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra service: %w", err)
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}
