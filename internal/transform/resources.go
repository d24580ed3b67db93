package transform

import (
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// Resource converts one raw bookable resource payload into a typed
// resource.
func Resource(payload string, rawRecordID int64, runID string) (*models.Resource, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}

	name := r.strAt("Name")
	if name == nil {
		unknown := "Unknown"
		name = &unknown
	}

	return &models.Resource{
		SourceID:         sourceID,
		RawRecordID:      rawRecordID,
		SyncRunID:        runID,
		LocationSourceID: r.int64At("BusinessId"),
		UUID:             r.strAt("UniqueId"),
		Name:             *name,
		Description:      r.htmlAt("Description"),
		ResourceTypeID:   r.int64At("ResourceTypeId"),
		ResourceTypeName: r.strAt("ResourceTypeName"),
		GroupID:          r.int64At("GroupId"),
		GroupName:        r.strAt("GroupName"),
		Visible:          r.boolOr("Visible"),
		Online:           r.boolOr("Online"),
		VisibleToOthers:  r.boolOr("VisibleToOthers"),
		Available:        r.boolOr("Available"),
		Accessible:       r.boolOr("Accessible"),
		Capacity:         r.intAt("Capacity"),
		Size:             r.floatAt("Size"),
		FloorNumber:      r.intAt("FloorNumber"),
		CreatedOn:        r.timeAt("CreatedOn"),
		UpdatedOn:        r.timeAt("UpdatedOn"),
	}, nil
}
