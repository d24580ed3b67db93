package transform

import (
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// ExtraService converts one raw extra service payload into a typed
// extra service. ResourceTypeNames stays a comma-delimited soft
// reference onto product resource type names.
func ExtraService(payload string, rawRecordID int64, runID string) (*models.ExtraService, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}

	locationID := r.int64At("BusinessId")
	if locationID == nil {
		zero := int64(0)
		locationID = &zero
	}

	name := r.strAt("Name")
	if name == nil {
		name = r.strAt("ToStringText")
	}
	if name == nil {
		empty := ""
		name = &empty
	}

	var price float64
	if p := r.floatAt("Price"); p != nil {
		price = *p
	}

	return &models.ExtraService{
		SourceID:               sourceID,
		RawRecordID:            rawRecordID,
		SyncRunID:              runID,
		UniqueID:               r.strAt("UniqueId"),
		LocationSourceID:       *locationID,
		Name:                   *name,
		Description:            r.htmlAt("Description"),
		Price:                  price,
		CurrencyCode:           r.strAt("CurrencyCode"),
		ChargePeriod:           r.intAt("ChargePeriod"),
		CreditPrice:            r.floatAt("CreditPrice"),
		FixedCostPrice:         r.floatAt("FixedCostPrice"),
		FixedCostLengthMinutes: r.intAt("FixedCostLength"),
		MinLengthMinutes:       r.intAt("MinLength"),
		MaxLengthMinutes:       r.intAt("MaxLength"),
		IsDefaultPrice:         r.boolOr("IsDefaultPrice"),
		IsPrintingCredit:       r.boolOr("IsPrintingCredit"),
		OnlyForContacts:        r.boolOr("OnlyForContacts"),
		OnlyForMembers:         r.boolOr("OnlyForMembers"),
		ApplyChargeToVisitors:  r.boolOr("ApplyChargeToVisitors"),
		UsePerNightPricing:     r.boolOr("UsePerNightPricing"),
		ApplyFrom:              r.timeAt("ApplyFrom"),
		ApplyTo:                r.timeAt("ApplyTo"),
		ResourceTypeNames:      r.strAt("ResourceTypeNames"),
		TaxRateID:              r.int64At("TaxRateId"),
		UpdatedBy:              r.strAt("UpdatedBy"),
		CreatedOn:              r.timeAt("CreatedOn"),
		UpdatedOn:              r.timeAt("UpdatedOn"),
	}, nil
}
