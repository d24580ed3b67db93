package sqlite

import (
	"fmt"
	"time"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// MergeOutcome reports whether an upsert created the row or refreshed
// an existing one.
type MergeOutcome string

const (
	OutcomeInserted MergeOutcome = "inserted"
	OutcomeUpdated  MergeOutcome = "updated"
)

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

// exists is raced only by merges of the same entity kind, which run
// sequentially within a run, so the pre-check stays accurate.
func (c *Client) exists(table string, sourceID int64) (bool, error) {
	var found bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE source_id = ?)", table)
	if err := c.db.QueryRow(query, sourceID).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return found, nil
}

func outcomeFor(found bool) MergeOutcome {
	if found {
		return OutcomeUpdated
	}
	return OutcomeInserted
}

// UpsertLocation merges one typed location keyed on its source id.
// first_seen_at is written once on insert and never touched again;
// last_synced_at advances on every merge.
func (c *Client) UpsertLocation(loc *models.Location) (MergeOutcome, error) {
	found, err := c.exists("locations", loc.SourceID)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO locations (
			source_id, raw_record_id, sync_run_id, uuid, name, web_address, address,
			postal_code, city, state, country_name, country_id, latitude, longitude,
			phone, email, web_contact, currency_code, description, short_intro,
			created_on, updated_on, first_seen_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			raw_record_id = excluded.raw_record_id,
			sync_run_id = excluded.sync_run_id,
			uuid = excluded.uuid,
			name = excluded.name,
			web_address = excluded.web_address,
			address = excluded.address,
			postal_code = excluded.postal_code,
			city = excluded.city,
			state = excluded.state,
			country_name = excluded.country_name,
			country_id = excluded.country_id,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			phone = excluded.phone,
			email = excluded.email,
			web_contact = excluded.web_contact,
			currency_code = excluded.currency_code,
			description = excluded.description,
			short_intro = excluded.short_intro,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	_, err = c.db.Exec(
		query,
		loc.SourceID, loc.RawRecordID, loc.SyncRunID, loc.UUID, loc.Name, loc.WebAddress, loc.Address,
		loc.PostalCode, loc.City, loc.State, loc.CountryName, loc.CountryID, loc.Latitude, loc.Longitude,
		loc.Phone, loc.Email, loc.WebContact, loc.CurrencyCode, loc.Description, loc.ShortIntro,
		unixPtr(loc.CreatedOn), unixPtr(loc.UpdatedOn), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert location %d: %w", loc.SourceID, err)
	}

	return outcomeFor(found), nil
}

// UpsertLocationHours replaces the seven weekday rows for a location.
func (c *Client) UpsertLocationHours(locationID int64, hours []models.LocationHours) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin hours transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO location_hours (location_source_id, day_of_week, day_name, is_closed, open_minutes, close_minutes, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_source_id, day_of_week) DO UPDATE SET
			day_name = excluded.day_name,
			is_closed = excluded.is_closed,
			open_minutes = excluded.open_minutes,
			close_minutes = excluded.close_minutes,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	for _, h := range hours {
		_, err := tx.Exec(query, locationID, h.DayOfWeek, h.DayName, h.IsClosed, h.OpenMinutes, h.CloseMinutes, now)
		if err != nil {
			return fmt.Errorf("failed to upsert hours for location %d day %d: %w", locationID, h.DayOfWeek, err)
		}
	}

	return tx.Commit()
}

func (c *Client) UpsertProduct(p *models.Product) (MergeOutcome, error) {
	found, err := c.exists("products", p.SourceID)
	if err != nil {
		return "", err
	}

	var am models.Amenities
	if p.Amenities != nil {
		am = *p.Amenities
	}

	query := `
		INSERT INTO products (
			source_id, raw_record_id, sync_run_id, item_type, product_type_label,
			location_source_id, location_name, floor_plan_id, floor_plan_name, name,
			area_code, price, currency_code, is_available, available_from, available_to,
			coworker_id, coworker_name, coworker_company, coworker_email,
			contract_ids_raw, size_sqm, custom_size_sqm, capacity,
			resource_id, resource_name, resource_type_name, resource_shifts,
			amenity_air_conditioning, amenity_heating, amenity_internet, amenity_large_display,
			amenity_natural_light, amenity_whiteboard, amenity_soundproof, amenity_quiet_zone,
			amenity_tea_coffee, amenity_security_lock, amenity_cctv, amenity_catering,
			amenity_conference_phone, amenity_projector, amenity_standing_desk,
			created_on, updated_on, first_seen_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			raw_record_id = excluded.raw_record_id,
			sync_run_id = excluded.sync_run_id,
			item_type = excluded.item_type,
			product_type_label = excluded.product_type_label,
			location_source_id = excluded.location_source_id,
			location_name = excluded.location_name,
			floor_plan_id = excluded.floor_plan_id,
			floor_plan_name = excluded.floor_plan_name,
			name = excluded.name,
			area_code = excluded.area_code,
			price = excluded.price,
			currency_code = excluded.currency_code,
			is_available = excluded.is_available,
			available_from = excluded.available_from,
			available_to = excluded.available_to,
			coworker_id = excluded.coworker_id,
			coworker_name = excluded.coworker_name,
			coworker_company = excluded.coworker_company,
			coworker_email = excluded.coworker_email,
			contract_ids_raw = excluded.contract_ids_raw,
			size_sqm = excluded.size_sqm,
			custom_size_sqm = excluded.custom_size_sqm,
			capacity = excluded.capacity,
			resource_id = excluded.resource_id,
			resource_name = excluded.resource_name,
			resource_type_name = excluded.resource_type_name,
			resource_shifts = excluded.resource_shifts,
			amenity_air_conditioning = excluded.amenity_air_conditioning,
			amenity_heating = excluded.amenity_heating,
			amenity_internet = excluded.amenity_internet,
			amenity_large_display = excluded.amenity_large_display,
			amenity_natural_light = excluded.amenity_natural_light,
			amenity_whiteboard = excluded.amenity_whiteboard,
			amenity_soundproof = excluded.amenity_soundproof,
			amenity_quiet_zone = excluded.amenity_quiet_zone,
			amenity_tea_coffee = excluded.amenity_tea_coffee,
			amenity_security_lock = excluded.amenity_security_lock,
			amenity_cctv = excluded.amenity_cctv,
			amenity_catering = excluded.amenity_catering,
			amenity_conference_phone = excluded.amenity_conference_phone,
			amenity_projector = excluded.amenity_projector,
			amenity_standing_desk = excluded.amenity_standing_desk,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	_, err = c.db.Exec(
		query,
		p.SourceID, p.RawRecordID, p.SyncRunID, p.ItemType, p.ProductTypeLabel,
		p.LocationSourceID, p.LocationName, p.FloorPlanID, p.FloorPlanName, p.Name,
		p.AreaCode, p.Price, p.CurrencyCode, p.IsAvailable, unixPtr(p.AvailableFrom), unixPtr(p.AvailableTo),
		p.CoworkerID, p.CoworkerName, p.CoworkerCompany, p.CoworkerEmail,
		p.ContractIDsRaw, p.SizeSqm, p.CustomSizeSqm, p.Capacity,
		p.ResourceID, p.ResourceName, p.ResourceTypeName, p.ResourceShifts,
		am.AirConditioning, am.Heating, am.Internet, am.LargeDisplay,
		am.NaturalLight, am.Whiteboard, am.Soundproof, am.QuietZone,
		am.TeaCoffee, am.SecurityLock, am.CCTV, am.Catering,
		am.ConferencePhone, am.Projector, am.StandingDesk,
		unixPtr(p.CreatedOn), unixPtr(p.UpdatedOn), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert product %d: %w", p.SourceID, err)
	}

	return outcomeFor(found), nil
}

func (c *Client) UpsertContract(ct *models.Contract) (MergeOutcome, error) {
	found, err := c.exists("contracts", ct.SourceID)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO contracts (
			source_id, raw_record_id, sync_run_id, unique_id, active, cancelled,
			main_contract, in_paused_period, coworker_id, coworker_name, coworker_email,
			coworker_company, coworker_type, coworker_active, location_source_id,
			location_name, tariff_id, tariff_name, tariff_price, currency_code,
			next_tariff_id, next_tariff_name, floor_plan_desk_ids, floor_plan_desk_names,
			price, price_with_products, unit_price, quantity, billing_day,
			apply_pro_rating, pro_rate_cancellation, include_signup_fee,
			cancellation_limit_days, start_date, contract_term, renewal_date,
			cancellation_date, invoiced_period, term_duration_months, notes, updated_by,
			created_on, updated_on, first_seen_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			raw_record_id = excluded.raw_record_id,
			sync_run_id = excluded.sync_run_id,
			unique_id = excluded.unique_id,
			active = excluded.active,
			cancelled = excluded.cancelled,
			main_contract = excluded.main_contract,
			in_paused_period = excluded.in_paused_period,
			coworker_id = excluded.coworker_id,
			coworker_name = excluded.coworker_name,
			coworker_email = excluded.coworker_email,
			coworker_company = excluded.coworker_company,
			coworker_type = excluded.coworker_type,
			coworker_active = excluded.coworker_active,
			location_source_id = excluded.location_source_id,
			location_name = excluded.location_name,
			tariff_id = excluded.tariff_id,
			tariff_name = excluded.tariff_name,
			tariff_price = excluded.tariff_price,
			currency_code = excluded.currency_code,
			next_tariff_id = excluded.next_tariff_id,
			next_tariff_name = excluded.next_tariff_name,
			floor_plan_desk_ids = excluded.floor_plan_desk_ids,
			floor_plan_desk_names = excluded.floor_plan_desk_names,
			price = excluded.price,
			price_with_products = excluded.price_with_products,
			unit_price = excluded.unit_price,
			quantity = excluded.quantity,
			billing_day = excluded.billing_day,
			apply_pro_rating = excluded.apply_pro_rating,
			pro_rate_cancellation = excluded.pro_rate_cancellation,
			include_signup_fee = excluded.include_signup_fee,
			cancellation_limit_days = excluded.cancellation_limit_days,
			start_date = excluded.start_date,
			contract_term = excluded.contract_term,
			renewal_date = excluded.renewal_date,
			cancellation_date = excluded.cancellation_date,
			invoiced_period = excluded.invoiced_period,
			term_duration_months = excluded.term_duration_months,
			notes = excluded.notes,
			updated_by = excluded.updated_by,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	_, err = c.db.Exec(
		query,
		ct.SourceID, ct.RawRecordID, ct.SyncRunID, ct.UniqueID, ct.Active, ct.Cancelled,
		ct.MainContract, ct.InPausedPeriod, ct.CoworkerID, ct.CoworkerName, ct.CoworkerEmail,
		ct.CoworkerCompany, ct.CoworkerType, ct.CoworkerActive, ct.LocationSourceID,
		ct.LocationName, ct.TariffID, ct.TariffName, ct.TariffPrice, ct.CurrencyCode,
		ct.NextTariffID, ct.NextTariffName, ct.FloorPlanDeskIDs, ct.FloorPlanDeskNames,
		ct.Price, ct.PriceWithProducts, ct.UnitPrice, ct.Quantity, ct.BillingDay,
		ct.ApplyProRating, ct.ProRateCancellation, ct.IncludeSignupFee,
		ct.CancellationLimitDays, unixPtr(ct.StartDate), unixPtr(ct.ContractTerm), unixPtr(ct.RenewalDate),
		unixPtr(ct.CancellationDate), unixPtr(ct.InvoicedPeriod), ct.TermDurationMonths, ct.Notes, ct.UpdatedBy,
		unixPtr(ct.CreatedOn), unixPtr(ct.UpdatedOn), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert contract %d: %w", ct.SourceID, err)
	}

	return outcomeFor(found), nil
}

func (c *Client) UpsertResource(r *models.Resource) (MergeOutcome, error) {
	found, err := c.exists("resources", r.SourceID)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO resources (
			source_id, raw_record_id, sync_run_id, location_source_id, uuid, name,
			description, resource_type_id, resource_type_name, group_id, group_name,
			visible, online, visible_to_others, available, accessible, capacity, size,
			floor_number, created_on, updated_on, first_seen_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			raw_record_id = excluded.raw_record_id,
			sync_run_id = excluded.sync_run_id,
			location_source_id = excluded.location_source_id,
			uuid = excluded.uuid,
			name = excluded.name,
			description = excluded.description,
			resource_type_id = excluded.resource_type_id,
			resource_type_name = excluded.resource_type_name,
			group_id = excluded.group_id,
			group_name = excluded.group_name,
			visible = excluded.visible,
			online = excluded.online,
			visible_to_others = excluded.visible_to_others,
			available = excluded.available,
			accessible = excluded.accessible,
			capacity = excluded.capacity,
			size = excluded.size,
			floor_number = excluded.floor_number,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	_, err = c.db.Exec(
		query,
		r.SourceID, r.RawRecordID, r.SyncRunID, r.LocationSourceID, r.UUID, r.Name,
		r.Description, r.ResourceTypeID, r.ResourceTypeName, r.GroupID, r.GroupName,
		r.Visible, r.Online, r.VisibleToOthers, r.Available, r.Accessible, r.Capacity, r.Size,
		r.FloorNumber, unixPtr(r.CreatedOn), unixPtr(r.UpdatedOn), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert resource %d: %w", r.SourceID, err)
	}

	return outcomeFor(found), nil
}

func (c *Client) UpsertExtraService(s *models.ExtraService) (MergeOutcome, error) {
	found, err := c.exists("extra_services", s.SourceID)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO extra_services (
			source_id, raw_record_id, sync_run_id, unique_id, location_source_id, name,
			description, price, currency_code, charge_period, credit_price,
			fixed_cost_price, fixed_cost_length_minutes, min_length_minutes,
			max_length_minutes, is_default_price, is_printing_credit, only_for_contacts,
			only_for_members, apply_charge_to_visitors, use_per_night_pricing,
			apply_from, apply_to, resource_type_names, tax_rate_id, updated_by,
			created_on, updated_on, first_seen_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			raw_record_id = excluded.raw_record_id,
			sync_run_id = excluded.sync_run_id,
			unique_id = excluded.unique_id,
			location_source_id = excluded.location_source_id,
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			currency_code = excluded.currency_code,
			charge_period = excluded.charge_period,
			credit_price = excluded.credit_price,
			fixed_cost_price = excluded.fixed_cost_price,
			fixed_cost_length_minutes = excluded.fixed_cost_length_minutes,
			min_length_minutes = excluded.min_length_minutes,
			max_length_minutes = excluded.max_length_minutes,
			is_default_price = excluded.is_default_price,
			is_printing_credit = excluded.is_printing_credit,
			only_for_contacts = excluded.only_for_contacts,
			only_for_members = excluded.only_for_members,
			apply_charge_to_visitors = excluded.apply_charge_to_visitors,
			use_per_night_pricing = excluded.use_per_night_pricing,
			apply_from = excluded.apply_from,
			apply_to = excluded.apply_to,
			resource_type_names = excluded.resource_type_names,
			tax_rate_id = excluded.tax_rate_id,
			updated_by = excluded.updated_by,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			last_synced_at = excluded.last_synced_at
	`

	now := time.Now().Unix()
	_, err = c.db.Exec(
		query,
		s.SourceID, s.RawRecordID, s.SyncRunID, s.UniqueID, s.LocationSourceID, s.Name,
		s.Description, s.Price, s.CurrencyCode, s.ChargePeriod, s.CreditPrice,
		s.FixedCostPrice, s.FixedCostLengthMinutes, s.MinLengthMinutes,
		s.MaxLengthMinutes, s.IsDefaultPrice, s.IsPrintingCredit, s.OnlyForContacts,
		s.OnlyForMembers, s.ApplyChargeToVisitors, s.UsePerNightPricing,
		unixPtr(s.ApplyFrom), unixPtr(s.ApplyTo), s.ResourceTypeNames, s.TaxRateID, s.UpdatedBy,
		unixPtr(s.CreatedOn), unixPtr(s.UpdatedOn), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert extra service %d: %w", s.SourceID, err)
	}

	return outcomeFor(found), nil
}
