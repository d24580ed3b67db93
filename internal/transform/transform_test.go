package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	payload := `{
		"Id": 1001,
		"UniqueId": "abc-123",
		"Name": "Berlin Mitte",
		"TownCity": "Berlin",
		"CountryName": "Germany",
		"Latitude": 52.52,
		"Longitude": 13.405,
		"EmailContact": "mitte@example.com",
		"AboutUs": "<p>Great <b>space</b> in   Mitte</p>",
		"CreatedOn": "2023-05-01T10:00:00Z"
	}`

	loc, err := Location(payload, 7, "run-1")
	require.NoError(t, err)

	assert.Equal(t, int64(1001), loc.SourceID)
	assert.Equal(t, int64(7), loc.RawRecordID)
	assert.Equal(t, "run-1", loc.SyncRunID)
	assert.Equal(t, "Berlin Mitte", loc.Name)
	assert.Equal(t, "Berlin", *loc.City)
	assert.Equal(t, 52.52, *loc.Latitude)
	assert.Equal(t, "mitte@example.com", *loc.Email)
	assert.Equal(t, "Great space in Mitte", *loc.Description)
	require.NotNil(t, loc.CreatedOn)
	assert.Equal(t, 2023, loc.CreatedOn.Year())
	assert.Nil(t, loc.Phone)
}

func TestLocationMissingID(t *testing.T) {
	_, err := Location(`{"Name":"No ID"}`, 1, "run-1")
	assert.ErrorIs(t, err, ErrMissingSourceID)
}

func TestLocationExcluded(t *testing.T) {
	_, err := Location(`{"Id":1376491116,"Name":"Root account"}`, 1, "run-1")
	assert.ErrorIs(t, err, ErrExcluded)

	_, err = Location(`{"Id":1376491117,"Name":"Demo"}`, 1, "run-1")
	assert.ErrorIs(t, err, ErrExcluded)
}

func TestLocationNameFallback(t *testing.T) {
	loc, err := Location(`{"Id":1,"ToStringText":"Fallback Name"}`, 1, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Fallback Name", loc.Name)

	loc, err = Location(`{"Id":2}`, 1, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", loc.Name)
}

func TestLocationUnparseableTimestamp(t *testing.T) {
	loc, err := Location(`{"Id":1,"Name":"x","UpdatedOn":"not-a-date"}`, 1, "run-1")
	require.NoError(t, err)
	assert.Nil(t, loc.UpdatedOn)
}

func TestLocationHours(t *testing.T) {
	payload := `{
		"Id": 1001,
		"MondayOpenTime": 540,
		"MondayCloseTime": 1080,
		"SaturdayOpenTime": 0,
		"SaturdayCloseTime": 0,
		"SundayClosed": true,
		"SundayOpenTime": 0,
		"SundayCloseTime": 0
	}`

	hours, err := LocationHours(payload)
	require.NoError(t, err)
	require.Len(t, hours, 7)

	monday := hours[0]
	assert.Equal(t, 1, monday.DayOfWeek)
	assert.Equal(t, "Monday", monday.DayName)
	assert.False(t, monday.IsClosed)
	assert.Equal(t, 540, *monday.OpenMinutes)
	assert.Equal(t, 1080, *monday.CloseMinutes)

	// 0/0 means unknown, not midnight-to-midnight.
	saturday := hours[5]
	assert.False(t, saturday.IsClosed)
	assert.Nil(t, saturday.OpenMinutes)
	assert.Nil(t, saturday.CloseMinutes)

	// Closed is a flag, not inferred from times.
	sunday := hours[6]
	assert.True(t, sunday.IsClosed)
	assert.Nil(t, sunday.OpenMinutes)
}

func TestProductRoom(t *testing.T) {
	payload := `{
		"Id": 2001,
		"ItemType": 5,
		"Name": "Boardroom A",
		"FloorPlanBusinessId": 1001,
		"Available": true,
		"ResourceId": 88,
		"ResourceResourceTypeName": "Meeting Room Large",
		"ResourceInternet": true,
		"ResourceWhiteBoard": false,
		"Capacity": 12
	}`

	p, err := Product(payload, 3, "run-1")
	require.NoError(t, err)

	assert.Equal(t, 5, p.ItemType)
	assert.Equal(t, "Meeting Room", p.ProductTypeLabel)
	assert.Equal(t, int64(1001), *p.LocationSourceID)
	assert.Equal(t, int64(88), *p.ResourceID)
	assert.Equal(t, "Meeting Room Large", *p.ResourceTypeName)
	assert.Equal(t, 12, *p.Capacity)
	require.NotNil(t, p.Amenities)
	assert.True(t, *p.Amenities.Internet)
	assert.False(t, *p.Amenities.Whiteboard)
	assert.Nil(t, p.Amenities.Projector)
}

func TestProductNonRoomDropsResourceFields(t *testing.T) {
	payload := `{
		"Id": 2002,
		"ItemType": 2,
		"Name": "Desk 4",
		"ResourceId": 99,
		"ResourceInternet": true
	}`

	p, err := Product(payload, 1, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "Dedicated Desk", p.ProductTypeLabel)
	assert.Nil(t, p.ResourceID)
	assert.Nil(t, p.Amenities)
}

func TestProductMissingItemType(t *testing.T) {
	_, err := Product(`{"Id":2003,"Name":"No type"}`, 1, "run-1")
	assert.ErrorIs(t, err, ErrMissingItemType)
}

func TestProductUnknownItemType(t *testing.T) {
	p, err := Product(`{"Id":2004,"ItemType":9,"Name":"Odd"}`, 1, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", p.ProductTypeLabel)
}

func TestProductCustomSize(t *testing.T) {
	payload := `{
		"Id": 2005,
		"ItemType": 1,
		"Name": "Office 3",
		"Size": 0,
		"CustomFields": {"Data": [
			{"Name": "Other.Field", "Value": 1},
			{"Name": "Nexudus.FloorPlan.Size", "Value": 42.5}
		]}
	}`

	p, err := Product(payload, 1, "run-1")
	require.NoError(t, err)
	require.NotNil(t, p.CustomSizeSqm)
	assert.Equal(t, 42.5, *p.CustomSizeSqm)

	// Custom size only applies to private offices.
	payload = `{"Id":2006,"ItemType":3,"Name":"Hot 1","CustomFields":{"Data":[{"Name":"Nexudus.FloorPlan.Size","Value":10}]}}`
	p, err = Product(payload, 1, "run-1")
	require.NoError(t, err)
	assert.Nil(t, p.CustomSizeSqm)
}

func TestContract(t *testing.T) {
	payload := `{
		"Id": 3001,
		"Active": true,
		"CoworkerId": 555,
		"CoworkerFullName": "Jane Doe",
		"IssuedById": 1001,
		"TariffName": "Flex 10",
		"FloorPlanDeskIds": "2001,2002,2003",
		"StartDate": "2024-01-15T00:00:00Z",
		"TermDurationInMonths": 12
	}`

	ct, err := Contract(payload, 5, "run-2")
	require.NoError(t, err)

	assert.Equal(t, int64(3001), ct.SourceID)
	assert.True(t, ct.Active)
	assert.False(t, ct.Cancelled)
	assert.Equal(t, "Jane Doe", *ct.CoworkerName)
	assert.Equal(t, int64(1001), *ct.LocationSourceID)
	// Soft reference kept verbatim in source order.
	assert.Equal(t, "2001,2002,2003", *ct.FloorPlanDeskIDs)
	assert.Equal(t, 12, *ct.TermDurationMonths)
	require.NotNil(t, ct.StartDate)
	assert.Nil(t, ct.CancellationDate)
}

func TestContractMissingID(t *testing.T) {
	_, err := Contract(`{"Active":true}`, 1, "run-1")
	assert.ErrorIs(t, err, ErrMissingSourceID)
}

func TestResource(t *testing.T) {
	payload := `{
		"Id": 4001,
		"BusinessId": 1001,
		"Name": "Phone Booth 2",
		"ResourceTypeName": "Phone Booth",
		"Visible": true,
		"Online": true,
		"Capacity": 1
	}`

	r, err := Resource(payload, 2, "run-1")
	require.NoError(t, err)

	assert.Equal(t, int64(4001), r.SourceID)
	assert.Equal(t, int64(1001), *r.LocationSourceID)
	assert.Equal(t, "Phone Booth", *r.ResourceTypeName)
	assert.True(t, r.Visible)
	assert.False(t, r.Accessible)
}

func TestExtraService(t *testing.T) {
	payload := `{
		"Id": 5001,
		"BusinessId": 1001,
		"Name": "Catering",
		"Price": 45.5,
		"ResourceTypeNames": "Meeting Room Large,Meeting Room Small",
		"OnlyForMembers": true
	}`

	s, err := ExtraService(payload, 4, "run-1")
	require.NoError(t, err)

	assert.Equal(t, int64(5001), s.SourceID)
	assert.Equal(t, int64(1001), s.LocationSourceID)
	assert.Equal(t, 45.5, s.Price)
	assert.Equal(t, "Meeting Room Large,Meeting Room Small", *s.ResourceTypeNames)
	assert.True(t, s.OnlyForMembers)
	assert.False(t, s.OnlyForContacts)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Location(`{not json`, 1, "run-1")
	assert.Error(t, err)
}
