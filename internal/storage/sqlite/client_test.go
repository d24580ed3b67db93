package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

func init() {
	// The store logs through the package-global logger.
	_ = logger.Init("error", "console", "stdout")
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, client.InitSchema())

	t.Cleanup(func() { client.Close() })
	return client
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }
func intPtr(i int) *int         { return &i }
func boolPtr(b bool) *bool      { return &b }

func TestAppendRaw(t *testing.T) {
	client := newTestClient(t)

	locID := int64(42)
	id1, err := client.AppendRaw(models.KindLocations, "run-1", 100, `{"Id":100}`, models.RoutingHints{LocationID: &locID})
	require.NoError(t, err)
	assert.Greater(t, id1, int64(0))

	// Same source id again: appends, never overwrites.
	id2, err := client.AppendRaw(models.KindLocations, "run-2", 100, `{"Id":100,"Name":"x"}`, models.RoutingHints{})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	records, err := client.LatestRawByKind(models.KindLocations)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id2, records[0].ID)
	assert.Equal(t, "run-2", records[0].RunID)
	assert.NotEmpty(t, records[0].PayloadHash)
}

func TestRunLifecycle(t *testing.T) {
	client := newTestClient(t)

	run := &models.SyncRun{
		ID:          "run-abc",
		SourceName:  "nexudus",
		EntityKind:  models.KindProducts,
		Status:      models.RunPending,
		TriggeredBy: "api",
		StartedAt:   time.Now(),
	}
	require.NoError(t, client.CreateRun(run))
	require.NoError(t, client.MarkRunRunning(run.ID))

	got, err := client.GetRun(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunRunning, got.Status)
	assert.Nil(t, got.FinishedAt)

	run.Status = models.RunPartialFailure
	run.RowsRead = 10
	run.RowsWritten = 8
	run.RowsFailed = 2
	require.NoError(t, client.FinalizeRun(run))

	got, err = client.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunPartialFailure, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 8, got.RowsWritten)

	// finished_at is stamped exactly once.
	run.Status = models.RunSuccess
	assert.Error(t, client.FinalizeRun(run))
}

func TestGetRunNotFound(t *testing.T) {
	client := newTestClient(t)

	got, err := client.GetRun("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSyncErrors(t *testing.T) {
	client := newTestClient(t)

	sourceID := int64(7)
	err := client.InsertSyncError(&models.SyncError{
		RunID:      "run-1",
		EntityKind: models.KindContracts,
		SourceID:   &sourceID,
		Message:    "missing required field Id",
	})
	require.NoError(t, err)

	errs, err := client.ListRunErrors("run-1")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, models.KindContracts, errs[0].EntityKind)
	require.NotNil(t, errs[0].SourceID)
	assert.Equal(t, int64(7), *errs[0].SourceID)
}

func TestUpsertLocationIdempotent(t *testing.T) {
	client := newTestClient(t)

	loc := &models.Location{
		SourceID:    100,
		RawRecordID: 1,
		SyncRunID:   "run-1",
		Name:        "Berlin Mitte",
		City:        strPtr("Berlin"),
		Latitude:    f64Ptr(52.52),
		Longitude:   f64Ptr(13.405),
	}

	outcome, err := client.UpsertLocation(loc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	first, err := client.GetLocation(100)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(1100 * time.Millisecond)

	loc.Name = "Berlin Mitte Hub"
	loc.SyncRunID = "run-2"
	outcome, err = client.UpsertLocation(loc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	second, err := client.GetLocation(100)
	require.NoError(t, err)
	assert.Equal(t, "Berlin Mitte Hub", second.Name)
	assert.Equal(t, "run-2", second.SyncRunID)
	// first_seen_at survives the merge, last_synced_at advances.
	assert.Equal(t, first.FirstSeenAt.Unix(), second.FirstSeenAt.Unix())
	assert.Greater(t, second.LastSyncedAt.Unix(), first.LastSyncedAt.Unix())
}

func TestUpsertLocationHours(t *testing.T) {
	client := newTestClient(t)

	hours := []models.LocationHours{
		{DayOfWeek: 0, DayName: "Monday", OpenMinutes: intPtr(540), CloseMinutes: intPtr(1080)},
		{DayOfWeek: 6, DayName: "Sunday", IsClosed: true},
	}
	require.NoError(t, client.UpsertLocationHours(100, hours))

	got, err := client.ListLocationHours(100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].IsClosed)
	assert.Equal(t, 540, *got[0].OpenMinutes)
	assert.True(t, got[1].IsClosed)
	assert.Nil(t, got[1].OpenMinutes)

	// Re-sync replaces in place.
	hours[0].CloseMinutes = intPtr(1200)
	require.NoError(t, client.UpsertLocationHours(100, hours))
	got, err = client.ListLocationHours(100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1200, *got[0].CloseMinutes)
}

func TestUpsertProductAmenities(t *testing.T) {
	client := newTestClient(t)

	room := &models.Product{
		SourceID:         200,
		RawRecordID:      1,
		SyncRunID:        "run-1",
		ItemType:         5,
		ProductTypeLabel: "Meeting Room",
		Name:             "Boardroom A",
		IsAvailable:      true,
		LocationSourceID: i64Ptr(100),
		ResourceTypeName: strPtr("Meeting Room Large"),
		Amenities: &models.Amenities{
			Internet:   boolPtr(true),
			Whiteboard: boolPtr(false),
		},
	}
	outcome, err := client.UpsertProduct(room)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	got, err := client.GetProduct(200)
	require.NoError(t, err)
	require.NotNil(t, got.Amenities)
	assert.True(t, *got.Amenities.Internet)
	assert.False(t, *got.Amenities.Whiteboard)
	assert.Nil(t, got.Amenities.Projector)

	desk := &models.Product{
		SourceID:         201,
		RawRecordID:      2,
		SyncRunID:        "run-1",
		ItemType:         2,
		ProductTypeLabel: "Dedicated Desk",
		Name:             "Desk 12",
		IsAvailable:      false,
		LocationSourceID: i64Ptr(100),
	}
	_, err = client.UpsertProduct(desk)
	require.NoError(t, err)

	got, err = client.GetProduct(201)
	require.NoError(t, err)
	assert.Nil(t, got.Amenities)

	rooms, err := client.ListRoomProducts()
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(200), rooms[0].SourceID)
}

func TestGetProductsBySourceIDs(t *testing.T) {
	client := newTestClient(t)

	for _, id := range []int64{301, 302, 303} {
		_, err := client.UpsertProduct(&models.Product{
			SourceID: id, RawRecordID: 1, SyncRunID: "run-1",
			ItemType: 1, ProductTypeLabel: "Private Office", Name: "Office",
		})
		require.NoError(t, err)
	}

	// Requested order preserved; dangling id 999 dropped silently.
	products, err := client.GetProductsBySourceIDs([]int64{303, 999, 301})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(303), products[0].SourceID)
	assert.Equal(t, int64(301), products[1].SourceID)
}

func TestUpsertContract(t *testing.T) {
	client := newTestClient(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ct := &models.Contract{
		SourceID:         400,
		RawRecordID:      1,
		SyncRunID:        "run-1",
		Active:           true,
		CoworkerName:     strPtr("Acme GmbH"),
		FloorPlanDeskIDs: strPtr("301,302"),
		StartDate:        &start,
		Price:            f64Ptr(899.0),
	}
	outcome, err := client.UpsertContract(ct)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	got, err := client.GetContract(400)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, "301,302", *got.FloorPlanDeskIDs)
	assert.Equal(t, start.Unix(), got.StartDate.Unix())
	assert.Nil(t, got.CancellationDate)

	ct.Active = false
	outcome, err = client.UpsertContract(ct)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
}

func TestUpsertExtraService(t *testing.T) {
	client := newTestClient(t)

	svc := &models.ExtraService{
		SourceID:          500,
		RawRecordID:       1,
		SyncRunID:         "run-1",
		LocationSourceID:  100,
		Name:              "Catering",
		Price:             45.0,
		ResourceTypeNames: strPtr("Meeting Room Large,Meeting Room Small"),
	}
	outcome, err := client.UpsertExtraService(svc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	services, err := client.ListExtraServicesByLocation(100)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Catering", services[0].Name)
}

func TestEnrichmentLedger(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	first := &models.EnrichmentOutcome{
		LocationID:   100,
		LocationName: "Berlin Mitte",
		Status:       models.EnrichmentFailed,
		ErrorMessage: strPtr("places api timeout"),
		StartedAt:    now.Add(-time.Hour),
		FinishedAt:   now.Add(-time.Hour),
	}
	require.NoError(t, client.AppendEnrichmentOutcome(first))

	ok, err := client.HasSuccessfulEnrichment(100)
	require.NoError(t, err)
	assert.False(t, ok)

	second := &models.EnrichmentOutcome{
		LocationID:   100,
		LocationName: "Berlin Mitte",
		Status:       models.EnrichmentSuccess,
		POIsFound:    12,
		TransitFound: 3,
		StartedAt:    now,
		FinishedAt:   now,
	}
	require.NoError(t, client.AppendEnrichmentOutcome(second))

	latest, err := client.LatestEnrichmentOutcome(100)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.EnrichmentSuccess, latest.Status)
	assert.Equal(t, 12, latest.POIsFound)

	ok, err = client.HasSuccessfulEnrichment(100)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNearbyPlaceUpsert(t *testing.T) {
	client := newTestClient(t)

	place := &models.NearbyPlace{
		LocationID:     100,
		PlaceID:        "ChIJabc",
		Category:       "restaurant",
		Types:          "restaurant,food",
		Name:           "Trattoria",
		Latitude:       52.521,
		Longitude:      13.406,
		DistanceMeters: 220,
		WalkingMinutes: 3,
		SearchRadius:   500,
		RawJSON:        `{}`,
	}
	require.NoError(t, client.UpsertNearbyPlace(place))

	place.DistanceMeters = 230
	require.NoError(t, client.UpsertNearbyPlace(place))

	places, err := client.ListNearbyPlaces(100)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, 230, places[0].DistanceMeters)
}

func TestEnrichmentStatusReport(t *testing.T) {
	client := newTestClient(t)

	for id, name := range map[int64]string{100: "Berlin", 101: "Hamburg"} {
		_, err := client.UpsertLocation(&models.Location{SourceID: id, RawRecordID: 1, SyncRunID: "run-1", Name: name})
		require.NoError(t, err)
	}

	now := time.Now()
	require.NoError(t, client.AppendEnrichmentOutcome(&models.EnrichmentOutcome{
		LocationID: 100, LocationName: "Berlin", Status: models.EnrichmentSuccess,
		POIsFound: 5, StartedAt: now, FinishedAt: now,
	}))

	report, err := client.GetEnrichmentStatusReport()
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalLocations)
	assert.Equal(t, 1, report.Enriched)
	assert.Equal(t, 1, report.NeverAttempted)
	require.Len(t, report.Locations, 2)
}
