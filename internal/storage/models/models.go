package models

import "time"

// EntityKind identifies one Nexudus entity family synced by the pipeline.
type EntityKind string

const (
	KindLocations     EntityKind = "locations"
	KindProducts      EntityKind = "products"
	KindContracts     EntityKind = "contracts"
	KindResources     EntityKind = "resources"
	KindExtraServices EntityKind = "extra_services"
)

// AllKinds lists entity kinds in the order the full sync processes them.
// Locations come first so most soft references have somewhere to land,
// but correctness never depends on this ordering.
var AllKinds = []EntityKind{
	KindLocations,
	KindProducts,
	KindContracts,
	KindResources,
	KindExtraServices,
}

func (k EntityKind) Valid() bool {
	switch k {
	case KindLocations, KindProducts, KindContracts, KindResources, KindExtraServices:
		return true
	}
	return false
}

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunPending        RunStatus = "pending"
	RunRunning        RunStatus = "running"
	RunSuccess        RunStatus = "success"
	RunPartialFailure RunStatus = "partial_failure"
	RunFailed         RunStatus = "failed"
)

func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunPartialFailure || s == RunFailed
}

// RawRecord is one fetched payload, stored verbatim in the append-only
// raw ledger. Rows are never updated or deleted; the same source id may
// appear once per run.
type RawRecord struct {
	ID          int64
	EntityKind  EntityKind
	RunID       string
	SourceID    int64
	LocationID  *int64
	ItemType    *int
	ProductID   *int64
	Payload     string
	PayloadHash string
	FetchedAt   time.Time
}

// RoutingHints are denormalized fields extracted from a raw payload for
// indexing. Everything else lives in the payload itself.
type RoutingHints struct {
	LocationID *int64
	ItemType   *int
	ProductID  *int64
}

// SyncRun is one execution of extract+transform+merge for one entity kind.
type SyncRun struct {
	ID           string
	SourceName   string
	EntityKind   EntityKind
	Status       RunStatus
	TriggeredBy  string
	StartedAt    time.Time
	FinishedAt   *time.Time
	RowsRead     int
	RowsWritten  int
	RowsFailed   int
	RowsSkipped  int
	ErrorMessage *string
}

// SyncError is one record-level failure within a run.
type SyncError struct {
	ID         int64
	RunID      string
	EntityKind EntityKind
	SourceID   *int64
	Message    string
	CreatedAt  time.Time
}

// Location is the typed projection of a Nexudus business (coworking site).
type Location struct {
	SourceID     int64
	RawRecordID  int64
	SyncRunID    string
	UUID         *string
	Name         string
	WebAddress   *string
	Address      *string
	PostalCode   *string
	City         *string
	State        *string
	CountryName  *string
	CountryID    *int64
	Latitude     *float64
	Longitude    *float64
	Phone        *string
	Email        *string
	WebContact   *string
	CurrencyCode *string
	Description  *string
	ShortIntro   *string
	CreatedOn    *time.Time
	UpdatedOn    *time.Time
	FirstSeenAt  time.Time
	LastSyncedAt time.Time
}

// LocationHours is one weekday's opening hours for a location. IsClosed
// distinguishes "closed that day" from "hours unknown" (nil minutes).
type LocationHours struct {
	LocationSourceID int64
	DayOfWeek        int
	DayName          string
	IsClosed         bool
	OpenMinutes      *int
	CloseMinutes     *int
}

// Amenities holds the bookable-room amenity flags Nexudus exposes on
// floor plan desks. Only populated for room item types (4 and 5).
type Amenities struct {
	AirConditioning *bool
	Heating         *bool
	Internet        *bool
	LargeDisplay    *bool
	NaturalLight    *bool
	Whiteboard      *bool
	Soundproof      *bool
	QuietZone       *bool
	TeaCoffee       *bool
	SecurityLock    *bool
	CCTV            *bool
	Catering        *bool
	ConferencePhone *bool
	Projector       *bool
	StandingDesk    *bool
}

// Product is the typed projection of a Nexudus floor plan desk: offices,
// desks and bookable rooms, discriminated by ItemType.
type Product struct {
	SourceID         int64
	RawRecordID      int64
	SyncRunID        string
	ItemType         int
	ProductTypeLabel string
	LocationSourceID *int64
	LocationName     *string
	FloorPlanID      *int64
	FloorPlanName    *string
	Name             string
	AreaCode         *string
	Price            *float64
	CurrencyCode     *string
	IsAvailable      bool
	AvailableFrom    *time.Time
	AvailableTo      *time.Time
	CoworkerID       *int64
	CoworkerName     *string
	CoworkerCompany  *string
	CoworkerEmail    *string
	ContractIDsRaw   *string
	SizeSqm          *float64
	CustomSizeSqm    *float64
	Capacity         *int

	// Resource linkage, room types only.
	ResourceID       *int64
	ResourceName     *string
	ResourceTypeName *string
	ResourceShifts   *string

	// Nil for non-room item types.
	Amenities *Amenities

	CreatedOn    *time.Time
	UpdatedOn    *time.Time
	FirstSeenAt  time.Time
	LastSyncedAt time.Time
}

// Contract is the typed projection of a Nexudus coworker contract.
// FloorPlanDeskIDs is a comma-delimited soft reference into products.
type Contract struct {
	SourceID              int64
	RawRecordID           int64
	SyncRunID             string
	UniqueID              *string
	Active                bool
	Cancelled             bool
	MainContract          bool
	InPausedPeriod        bool
	CoworkerID            *int64
	CoworkerName          *string
	CoworkerEmail         *string
	CoworkerCompany       *string
	CoworkerType          *int
	CoworkerActive        *bool
	LocationSourceID      *int64
	LocationName          *string
	TariffID              *int64
	TariffName            *string
	TariffPrice           *float64
	CurrencyCode          *string
	NextTariffID          *int64
	NextTariffName        *string
	FloorPlanDeskIDs      *string
	FloorPlanDeskNames    *string
	Price                 *float64
	PriceWithProducts     *float64
	UnitPrice             *float64
	Quantity              *int
	BillingDay            *int
	ApplyProRating        *bool
	ProRateCancellation   *bool
	IncludeSignupFee      *bool
	CancellationLimitDays *int
	StartDate             *time.Time
	ContractTerm          *time.Time
	RenewalDate           *time.Time
	CancellationDate      *time.Time
	InvoicedPeriod        *time.Time
	TermDurationMonths    *int
	Notes                 *string
	UpdatedBy             *string
	CreatedOn             *time.Time
	UpdatedOn             *time.Time
	FirstSeenAt           time.Time
	LastSyncedAt          time.Time
}

// Resource is the typed projection of a bookable Nexudus resource.
type Resource struct {
	SourceID         int64
	RawRecordID      int64
	SyncRunID        string
	LocationSourceID *int64
	UUID             *string
	Name             string
	Description      *string
	ResourceTypeID   *int64
	ResourceTypeName *string
	GroupID          *int64
	GroupName        *string
	Visible          bool
	Online           bool
	VisibleToOthers  bool
	Available        bool
	Accessible       bool
	Capacity         *int
	Size             *float64
	FloorNumber      *int
	CreatedOn        *time.Time
	UpdatedOn        *time.Time
	FirstSeenAt      time.Time
	LastSyncedAt     time.Time
}

// ExtraService is the typed projection of a Nexudus extra service
// (bookable add-on). ResourceTypeNames is a comma-delimited soft
// reference onto products' resource type names.
type ExtraService struct {
	SourceID               int64
	RawRecordID            int64
	SyncRunID              string
	UniqueID               *string
	LocationSourceID       int64
	Name                   string
	Description            *string
	Price                  float64
	CurrencyCode           *string
	ChargePeriod           *int
	CreditPrice            *float64
	FixedCostPrice         *float64
	FixedCostLengthMinutes *int
	MinLengthMinutes       *int
	MaxLengthMinutes       *int
	IsDefaultPrice         bool
	IsPrintingCredit       bool
	OnlyForContacts        bool
	OnlyForMembers         bool
	ApplyChargeToVisitors  bool
	UsePerNightPricing     bool
	ApplyFrom              *time.Time
	ApplyTo                *time.Time
	ResourceTypeNames      *string
	TaxRateID              *int64
	UpdatedBy              *string
	CreatedOn              *time.Time
	UpdatedOn              *time.Time
	FirstSeenAt            time.Time
	LastSyncedAt           time.Time
}

// EnrichmentStatus is the terminal state of one enrichment attempt.
type EnrichmentStatus string

const (
	EnrichmentSuccess EnrichmentStatus = "success"
	EnrichmentFailed  EnrichmentStatus = "failed"
	EnrichmentSkipped EnrichmentStatus = "skipped"
)

// EnrichmentOutcome is one row of the enrichment ledger. The ledger is
// append-only: repeated attempts for the same location add new rows.
type EnrichmentOutcome struct {
	ID           int64
	LocationID   int64
	LocationName string
	Status       EnrichmentStatus
	POIsFound    int
	TransitFound int
	ErrorMessage *string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// NearbyPlace is one point of interest attached to a location by
// enrichment, unique per (location, place id).
type NearbyPlace struct {
	LocationID     int64
	PlaceID        string
	Category       string
	PrimaryType    *string
	Types          string
	Name           string
	Address        *string
	Latitude       float64
	Longitude      float64
	DistanceMeters int
	WalkingMinutes int
	Rating         *float64
	TotalRatings   *int
	PriceLevel     *int
	BusinessStatus *string
	SearchRadius   int
	RawJSON        string
}

// TransitStation is one transit stop attached to a location by
// enrichment, unique per (location, place id).
type TransitStation struct {
	LocationID     int64
	PlaceID        string
	TransitType    string
	Types          string
	Name           string
	Address        *string
	Latitude       float64
	Longitude      float64
	DistanceMeters int
	WalkingMinutes int
	SearchRadius   int
	RawJSON        string
}

// Neighborhood is the single per-location enrichment summary row.
type Neighborhood struct {
	LocationID            int64
	NeighborhoodName      *string
	DistrictName          *string
	CityName              *string
	PostalCode            *string
	NearestLandmarkName   *string
	NearestLandmarkLat    *float64
	NearestLandmarkLng    *float64
	LandmarkDistanceM     *int
	LandmarkPlaceID       *string
	NearestStationName    *string
	NearestStationLat     *float64
	NearestStationLng     *float64
	StationDistanceM      *int
	StationPlaceID        *string
	RestaurantsWithin500m int
	CafesWithin500m       int
	TransitWithin500m     int
	EnrichedAt            time.Time
}
