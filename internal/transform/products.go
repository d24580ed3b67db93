package transform

import (
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// ItemTypeLabels maps the Nexudus floor plan desk item type to its
// human label. Unknown types keep their record but get "Unknown".
var ItemTypeLabels = map[int]string{
	1: "Private Office",
	2: "Dedicated Desk",
	3: "Hot Desk",
	4: "Other",
	5: "Meeting Room",
}

// customSizeSqm digs the Nexudus.FloorPlan.Size custom field out of the
// CustomFields envelope. Only private offices carry it.
func customSizeSqm(r record) *float64 {
	custom, ok := r["CustomFields"].(map[string]any)
	if !ok {
		return nil
	}
	data, ok := custom["Data"].([]any)
	if !ok {
		return nil
	}

	for _, item := range data {
		field, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := field["Name"].(string); name != "Nexudus.FloorPlan.Size" {
			continue
		}
		if v, ok := field["Value"].(float64); ok {
			return &v
		}
		return nil
	}
	return nil
}

// Product converts one raw floor plan desk payload into a typed
// product. ItemType is the required classification discriminant:
// without it the record is a hard failure. Resource linkage and
// amenity fields only exist for the bookable room types (4 and 5).
func Product(payload string, rawRecordID int64, runID string) (*models.Product, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}

	itemType := r.intAt("ItemType")
	if itemType == nil {
		return nil, ErrMissingItemType
	}

	label, ok := ItemTypeLabels[*itemType]
	if !ok {
		label = "Unknown"
	}

	name := r.strAt("Name")
	if name == nil {
		name = r.strAt("ToStringText")
	}
	if name == nil {
		unknown := "Unknown"
		name = &unknown
	}

	company := r.strAt("CoworkerTeamNames")
	if company == nil {
		company = r.strAt("CoworkerCompanyName")
	}

	p := &models.Product{
		SourceID:         sourceID,
		RawRecordID:      rawRecordID,
		SyncRunID:        runID,
		ItemType:         *itemType,
		ProductTypeLabel: label,
		LocationSourceID: r.int64At("FloorPlanBusinessId"),
		LocationName:     r.strAt("FloorPlanBusinessName"),
		FloorPlanID:      r.int64At("FloorPlanId"),
		FloorPlanName:    r.strAt("FloorPlanName"),
		Name:             *name,
		AreaCode:         r.strAt("Area"),
		Price:            r.floatAt("Price"),
		CurrencyCode:     r.strAt("FloorPlanBusinessCurrencyCode"),
		IsAvailable:      r.boolOr("Available"),
		AvailableFrom:    r.timeAt("AvailableFromTime"),
		AvailableTo:      r.timeAt("AvailableToTime"),
		CoworkerID:       r.int64At("CoworkerId"),
		CoworkerName:     r.strAt("CoworkerFullName"),
		CoworkerCompany:  company,
		CoworkerEmail:    r.strAt("CoworkerEmail"),
		ContractIDsRaw:   r.strAt("CoworkerContractIds"),
		SizeSqm:          r.floatAt("Size"),
		Capacity:         r.intAt("Capacity"),
		CreatedOn:        r.timeAt("CreatedOn"),
		UpdatedOn:        r.timeAt("UpdatedOn"),
	}

	if *itemType == 1 {
		p.CustomSizeSqm = customSizeSqm(r)
	}

	if *itemType == 4 || *itemType == 5 {
		p.ResourceID = r.int64At("ResourceId")
		p.ResourceName = r.strAt("ResourceName")
		p.ResourceTypeName = r.strAt("ResourceResourceTypeName")
		p.ResourceShifts = r.strAt("ResourceShifts")
		p.Amenities = &models.Amenities{
			AirConditioning: r.boolAt("ResourceAirConditioning"),
			Heating:         r.boolAt("ResourceHeating"),
			Internet:        r.boolAt("ResourceInternet"),
			LargeDisplay:    r.boolAt("ResourceLargeDisplay"),
			NaturalLight:    r.boolAt("ResourceNaturalLight"),
			Whiteboard:      r.boolAt("ResourceWhiteBoard"),
			Soundproof:      r.boolAt("ResourceSoundproof"),
			QuietZone:       r.boolAt("ResourceQuietZone"),
			TeaCoffee:       r.boolAt("ResourceTeaAndCoffee"),
			SecurityLock:    r.boolAt("ResourceSecurityLock"),
			CCTV:            r.boolAt("ResourceCCTV"),
			Catering:        r.boolAt("ResourceCatering"),
			ConferencePhone: r.boolAt("ResourceConferencePhone"),
			Projector:       r.boolAt("ResourceProjector"),
			StandingDesk:    r.boolAt("ResourceStandingDesk"),
		}
	}

	return p, nil
}
