package transform

import (
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// Contract converts one raw coworker contract payload into a typed
// contract. FloorPlanDeskIds stays a comma-delimited soft reference;
// resolution happens lazily on the read side.
func Contract(payload string, rawRecordID int64, runID string) (*models.Contract, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}

	return &models.Contract{
		SourceID:              sourceID,
		RawRecordID:           rawRecordID,
		SyncRunID:             runID,
		UniqueID:              r.strAt("UniqueId"),
		Active:                r.boolOr("Active"),
		Cancelled:             r.boolOr("Cancelled"),
		MainContract:          r.boolOr("MainContract"),
		InPausedPeriod:        r.boolOr("InPausedPeriod"),
		CoworkerID:            r.int64At("CoworkerId"),
		CoworkerName:          r.strAt("CoworkerFullName"),
		CoworkerEmail:         r.strAt("CoworkerEmail"),
		CoworkerCompany:       r.strAt("CoworkerCompanyName"),
		CoworkerType:          r.intAt("CoworkerCoworkerType"),
		CoworkerActive:        r.boolAt("CoworkerActive"),
		LocationSourceID:      r.int64At("IssuedById"),
		LocationName:          r.strAt("IssuedByName"),
		TariffID:              r.int64At("TariffId"),
		TariffName:            r.strAt("TariffName"),
		TariffPrice:           r.floatAt("TariffPrice"),
		CurrencyCode:          r.strAt("TariffCurrencyCode"),
		NextTariffID:          r.int64At("NextTariffId"),
		NextTariffName:        r.strAt("NextTariffName"),
		FloorPlanDeskIDs:      r.strAt("FloorPlanDeskIds"),
		FloorPlanDeskNames:    r.strAt("FloorPlanDeskNames"),
		Price:                 r.floatAt("Price"),
		PriceWithProducts:     r.floatAt("PriceWithProducts"),
		UnitPrice:             r.floatAt("UnitPrice"),
		Quantity:              r.intAt("Quantity"),
		BillingDay:            r.intAt("BillingDay"),
		ApplyProRating:        r.boolAt("ApplyProRating"),
		ProRateCancellation:   r.boolAt("ProRateCancellation"),
		IncludeSignupFee:      r.boolAt("IncludeSignupFee"),
		CancellationLimitDays: r.intAt("CancellationLimitDays"),
		StartDate:             r.timeAt("StartDate"),
		ContractTerm:          r.timeAt("ContractTerm"),
		RenewalDate:           r.timeAt("RenewalDate"),
		CancellationDate:      r.timeAt("CancellationDate"),
		InvoicedPeriod:        r.timeAt("InvoicedPeriod"),
		TermDurationMonths:    r.intAt("TermDurationInMonths"),
		Notes:                 r.strAt("Notes"),
		UpdatedBy:             r.strAt("UpdatedBy"),
		CreatedOn:             r.timeAt("CreatedOn"),
		UpdatedOn:             r.timeAt("UpdatedOn"),
	}, nil
}
