package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/utils"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent runs and keeps in-memory
	// databases on one connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS raw_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_kind TEXT NOT NULL,
		run_id TEXT NOT NULL,
		source_id INTEGER NOT NULL,
		location_id INTEGER,
		item_type INTEGER,
		product_id INTEGER,
		payload TEXT NOT NULL,
		payload_hash TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_raw_kind_source ON raw_records(entity_kind, source_id);
	CREATE INDEX IF NOT EXISTS idx_raw_run ON raw_records(run_id);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		status TEXT NOT NULL,
		triggered_by TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		rows_read INTEGER NOT NULL DEFAULT 0,
		rows_written INTEGER NOT NULL DEFAULT 0,
		rows_failed INTEGER NOT NULL DEFAULT 0,
		rows_skipped INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON sync_runs(entity_kind, started_at);

	CREATE TABLE IF NOT EXISTS sync_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		source_id INTEGER,
		error_message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_errors_run ON sync_errors(run_id);

	CREATE TABLE IF NOT EXISTS locations (
		source_id INTEGER PRIMARY KEY,
		raw_record_id INTEGER NOT NULL,
		sync_run_id TEXT NOT NULL,
		uuid TEXT,
		name TEXT NOT NULL,
		web_address TEXT,
		address TEXT,
		postal_code TEXT,
		city TEXT,
		state TEXT,
		country_name TEXT,
		country_id INTEGER,
		latitude REAL,
		longitude REAL,
		phone TEXT,
		email TEXT,
		web_contact TEXT,
		currency_code TEXT,
		description TEXT,
		short_intro TEXT,
		created_on INTEGER,
		updated_on INTEGER,
		first_seen_at INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_locations_city ON locations(city);

	CREATE TABLE IF NOT EXISTS location_hours (
		location_source_id INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		day_name TEXT NOT NULL,
		is_closed INTEGER NOT NULL,
		open_minutes INTEGER,
		close_minutes INTEGER,
		last_synced_at INTEGER NOT NULL,
		PRIMARY KEY (location_source_id, day_of_week)
	);

	CREATE TABLE IF NOT EXISTS products (
		source_id INTEGER PRIMARY KEY,
		raw_record_id INTEGER NOT NULL,
		sync_run_id TEXT NOT NULL,
		item_type INTEGER NOT NULL,
		product_type_label TEXT NOT NULL,
		location_source_id INTEGER,
		location_name TEXT,
		floor_plan_id INTEGER,
		floor_plan_name TEXT,
		name TEXT NOT NULL,
		area_code TEXT,
		price REAL,
		currency_code TEXT,
		is_available INTEGER NOT NULL,
		available_from INTEGER,
		available_to INTEGER,
		coworker_id INTEGER,
		coworker_name TEXT,
		coworker_company TEXT,
		coworker_email TEXT,
		contract_ids_raw TEXT,
		size_sqm REAL,
		custom_size_sqm REAL,
		capacity INTEGER,
		resource_id INTEGER,
		resource_name TEXT,
		resource_type_name TEXT,
		resource_shifts TEXT,
		amenity_air_conditioning INTEGER,
		amenity_heating INTEGER,
		amenity_internet INTEGER,
		amenity_large_display INTEGER,
		amenity_natural_light INTEGER,
		amenity_whiteboard INTEGER,
		amenity_soundproof INTEGER,
		amenity_quiet_zone INTEGER,
		amenity_tea_coffee INTEGER,
		amenity_security_lock INTEGER,
		amenity_cctv INTEGER,
		amenity_catering INTEGER,
		amenity_conference_phone INTEGER,
		amenity_projector INTEGER,
		amenity_standing_desk INTEGER,
		created_on INTEGER,
		updated_on INTEGER,
		first_seen_at INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_location ON products(location_source_id);
	CREATE INDEX IF NOT EXISTS idx_products_type ON products(item_type);

	CREATE TABLE IF NOT EXISTS contracts (
		source_id INTEGER PRIMARY KEY,
		raw_record_id INTEGER NOT NULL,
		sync_run_id TEXT NOT NULL,
		unique_id TEXT,
		active INTEGER NOT NULL,
		cancelled INTEGER NOT NULL,
		main_contract INTEGER NOT NULL,
		in_paused_period INTEGER NOT NULL,
		coworker_id INTEGER,
		coworker_name TEXT,
		coworker_email TEXT,
		coworker_company TEXT,
		coworker_type INTEGER,
		coworker_active INTEGER,
		location_source_id INTEGER,
		location_name TEXT,
		tariff_id INTEGER,
		tariff_name TEXT,
		tariff_price REAL,
		currency_code TEXT,
		next_tariff_id INTEGER,
		next_tariff_name TEXT,
		floor_plan_desk_ids TEXT,
		floor_plan_desk_names TEXT,
		price REAL,
		price_with_products REAL,
		unit_price REAL,
		quantity INTEGER,
		billing_day INTEGER,
		apply_pro_rating INTEGER,
		pro_rate_cancellation INTEGER,
		include_signup_fee INTEGER,
		cancellation_limit_days INTEGER,
		start_date INTEGER,
		contract_term INTEGER,
		renewal_date INTEGER,
		cancellation_date INTEGER,
		invoiced_period INTEGER,
		term_duration_months INTEGER,
		notes TEXT,
		updated_by TEXT,
		created_on INTEGER,
		updated_on INTEGER,
		first_seen_at INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_location ON contracts(location_source_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_coworker ON contracts(coworker_id);

	CREATE TABLE IF NOT EXISTS resources (
		source_id INTEGER PRIMARY KEY,
		raw_record_id INTEGER NOT NULL,
		sync_run_id TEXT NOT NULL,
		location_source_id INTEGER,
		uuid TEXT,
		name TEXT NOT NULL,
		description TEXT,
		resource_type_id INTEGER,
		resource_type_name TEXT,
		group_id INTEGER,
		group_name TEXT,
		visible INTEGER NOT NULL,
		online INTEGER NOT NULL,
		visible_to_others INTEGER NOT NULL,
		available INTEGER NOT NULL,
		accessible INTEGER NOT NULL,
		capacity INTEGER,
		size REAL,
		floor_number INTEGER,
		created_on INTEGER,
		updated_on INTEGER,
		first_seen_at INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resources_location ON resources(location_source_id);

	CREATE TABLE IF NOT EXISTS extra_services (
		source_id INTEGER PRIMARY KEY,
		raw_record_id INTEGER NOT NULL,
		sync_run_id TEXT NOT NULL,
		unique_id TEXT,
		location_source_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		price REAL NOT NULL,
		currency_code TEXT,
		charge_period INTEGER,
		credit_price REAL,
		fixed_cost_price REAL,
		fixed_cost_length_minutes INTEGER,
		min_length_minutes INTEGER,
		max_length_minutes INTEGER,
		is_default_price INTEGER NOT NULL,
		is_printing_credit INTEGER NOT NULL,
		only_for_contacts INTEGER NOT NULL,
		only_for_members INTEGER NOT NULL,
		apply_charge_to_visitors INTEGER NOT NULL,
		use_per_night_pricing INTEGER NOT NULL,
		apply_from INTEGER,
		apply_to INTEGER,
		resource_type_names TEXT,
		tax_rate_id INTEGER,
		updated_by TEXT,
		created_on INTEGER,
		updated_on INTEGER,
		first_seen_at INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_services_location ON extra_services(location_source_id);

	CREATE TABLE IF NOT EXISTS enrichment_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_source_id INTEGER NOT NULL,
		location_name TEXT NOT NULL,
		status TEXT NOT NULL,
		pois_found INTEGER NOT NULL DEFAULT 0,
		transit_found INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_enrichment_location ON enrichment_log(location_source_id, started_at);

	CREATE TABLE IF NOT EXISTS nearby_places (
		location_source_id INTEGER NOT NULL,
		place_id TEXT NOT NULL,
		category TEXT NOT NULL,
		primary_type TEXT,
		types TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		distance_meters INTEGER NOT NULL,
		walking_minutes INTEGER NOT NULL,
		rating REAL,
		total_ratings INTEGER,
		price_level INTEGER,
		business_status TEXT,
		search_radius_meters INTEGER NOT NULL,
		raw_json TEXT NOT NULL,
		PRIMARY KEY (location_source_id, place_id)
	);

	CREATE TABLE IF NOT EXISTS transit_stations (
		location_source_id INTEGER NOT NULL,
		place_id TEXT NOT NULL,
		transit_type TEXT NOT NULL,
		types TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		distance_meters INTEGER NOT NULL,
		walking_minutes INTEGER NOT NULL,
		search_radius_meters INTEGER NOT NULL,
		raw_json TEXT NOT NULL,
		PRIMARY KEY (location_source_id, place_id)
	);

	CREATE TABLE IF NOT EXISTS neighborhoods (
		location_source_id INTEGER PRIMARY KEY,
		neighborhood_name TEXT,
		district_name TEXT,
		city_name TEXT,
		postal_code TEXT,
		nearest_landmark_name TEXT,
		nearest_landmark_lat REAL,
		nearest_landmark_lng REAL,
		landmark_distance_m INTEGER,
		landmark_place_id TEXT,
		nearest_station_name TEXT,
		nearest_station_lat REAL,
		nearest_station_lng REAL,
		station_distance_m INTEGER,
		station_place_id TEXT,
		total_restaurants_500m INTEGER NOT NULL DEFAULT 0,
		total_cafes_500m INTEGER NOT NULL DEFAULT 0,
		total_transit_500m INTEGER NOT NULL DEFAULT 0,
		enriched_at INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// ── Raw ledger ───────────────────────────────────────────────

// AppendRaw stores one fetched payload verbatim. The ledger is
// append-only: there is no update or delete counterpart, and malformed
// payloads are stored anyway so they can be replayed after a transform
// fix.
func (c *Client) AppendRaw(kind models.EntityKind, runID string, sourceID int64, payload string, hints models.RoutingHints) (int64, error) {
	query := `
		INSERT INTO raw_records (entity_kind, run_id, source_id, location_id, item_type, product_id, payload, payload_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := c.db.Exec(
		query,
		string(kind),
		runID,
		sourceID,
		hints.LocationID,
		hints.ItemType,
		hints.ProductID,
		payload,
		utils.HashString(payload),
		time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append raw record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read raw record id: %w", err)
	}

	return id, nil
}

// LatestRawByKind returns the newest raw record per source id for one
// entity kind, for replaying transforms without re-querying upstream.
func (c *Client) LatestRawByKind(kind models.EntityKind) ([]models.RawRecord, error) {
	query := `
		SELECT r.id, r.run_id, r.source_id, r.location_id, r.item_type, r.product_id, r.payload, r.payload_hash, r.fetched_at
		FROM raw_records r
		INNER JOIN (
			SELECT source_id, MAX(id) AS latest_id
			FROM raw_records
			WHERE entity_kind = ?
			GROUP BY source_id
		) latest ON r.id = latest.latest_id
	`

	rows, err := c.db.Query(query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load latest raw records: %w", err)
	}
	defer rows.Close()

	var records []models.RawRecord
	for rows.Next() {
		r := models.RawRecord{EntityKind: kind}
		var fetchedAt int64

		err := rows.Scan(&r.ID, &r.RunID, &r.SourceID, &r.LocationID, &r.ItemType, &r.ProductID, &r.Payload, &r.PayloadHash, &fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw record: %w", err)
		}

		r.FetchedAt = time.Unix(fetchedAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

// ── Run ledger ───────────────────────────────────────────────

func (c *Client) CreateRun(run *models.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, source_name, entity_kind, status, triggered_by, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		run.ID,
		run.SourceName,
		string(run.EntityKind),
		string(run.Status),
		run.TriggeredBy,
		run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}

	logger.Info("Sync run created",
		zap.String("run_id", run.ID),
		zap.String("entity_kind", string(run.EntityKind)),
	)
	return nil
}

func (c *Client) MarkRunRunning(runID string) error {
	_, err := c.db.Exec(
		`UPDATE sync_runs SET status = ? WHERE id = ? AND status = ?`,
		string(models.RunRunning), runID, string(models.RunPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}
	return nil
}

// FinalizeRun stamps the terminal status and finished_at exactly once.
// A run that is already terminal is left untouched.
func (c *Client) FinalizeRun(run *models.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET status = ?, finished_at = ?, rows_read = ?, rows_written = ?, rows_failed = ?, rows_skipped = ?, error_message = ?
		WHERE id = ? AND finished_at IS NULL
	`

	finishedAt := time.Now()
	res, err := c.db.Exec(
		query,
		string(run.Status),
		finishedAt.Unix(),
		run.RowsRead,
		run.RowsWritten,
		run.RowsFailed,
		run.RowsSkipped,
		run.ErrorMessage,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read finalize result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s is already terminal", run.ID)
	}

	run.FinishedAt = &finishedAt
	return nil
}

func (c *Client) GetRun(runID string) (*models.SyncRun, error) {
	query := `
		SELECT id, source_name, entity_kind, status, triggered_by, started_at, finished_at,
			rows_read, rows_written, rows_failed, rows_skipped, error_message
		FROM sync_runs WHERE id = ?
	`

	var run models.SyncRun
	var kind, status string
	var startedAt int64
	var finishedAt *int64

	err := c.db.QueryRow(query, runID).Scan(
		&run.ID,
		&run.SourceName,
		&kind,
		&status,
		&run.TriggeredBy,
		&startedAt,
		&finishedAt,
		&run.RowsRead,
		&run.RowsWritten,
		&run.RowsFailed,
		&run.RowsSkipped,
		&run.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.EntityKind = models.EntityKind(kind)
	run.Status = models.RunStatus(status)
	run.StartedAt = time.Unix(startedAt, 0)
	if finishedAt != nil {
		t := time.Unix(*finishedAt, 0)
		run.FinishedAt = &t
	}

	return &run, nil
}

func (c *Client) InsertSyncError(e *models.SyncError) error {
	query := `
		INSERT INTO sync_errors (run_id, entity_kind, source_id, error_message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(query, e.RunID, string(e.EntityKind), e.SourceID, e.Message, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert sync error: %w", err)
	}
	return nil
}

func (c *Client) ListRunErrors(runID string) ([]models.SyncError, error) {
	query := `
		SELECT id, run_id, entity_kind, source_id, error_message, created_at
		FROM sync_errors WHERE run_id = ? ORDER BY id
	`

	rows, err := c.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run errors: %w", err)
	}
	defer rows.Close()

	var errs []models.SyncError
	for rows.Next() {
		var e models.SyncError
		var kind string
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.RunID, &kind, &e.SourceID, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync error: %w", err)
		}

		e.EntityKind = models.EntityKind(kind)
		e.CreatedAt = time.Unix(createdAt, 0)
		errs = append(errs, e)
	}

	return errs, rows.Err()
}
