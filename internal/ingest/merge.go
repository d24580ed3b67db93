package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/transform"
)

// mergeOutcome is the per-record result the run aggregates over.
type mergeOutcome int

const (
	recordWritten mergeOutcome = iota
	recordSkipped
)

// routingHints peeks the denormalized index fields out of a raw
// payload before it is stored. A payload that cannot be peeked still
// lands in the raw ledger, just without hints.
func routingHints(kind models.EntityKind, payload string) (int64, models.RoutingHints) {
	var peek struct {
		ID                  int64  `json:"Id"`
		ItemType            *int   `json:"ItemType"`
		FloorPlanBusinessID *int64 `json:"FloorPlanBusinessId"`
		BusinessID          *int64 `json:"BusinessId"`
		IssuedByID          *int64 `json:"IssuedById"`
	}
	if err := json.Unmarshal([]byte(payload), &peek); err != nil {
		return 0, models.RoutingHints{}
	}

	hints := models.RoutingHints{}
	switch kind {
	case models.KindLocations:
		id := peek.ID
		hints.LocationID = &id
	case models.KindProducts:
		hints.LocationID = peek.FloorPlanBusinessID
		hints.ItemType = peek.ItemType
	case models.KindContracts:
		hints.LocationID = peek.IssuedByID
	case models.KindResources, models.KindExtraServices:
		hints.LocationID = peek.BusinessID
	}

	return peek.ID, hints
}

// mergeRecord transforms one raw payload and upserts the typed row.
// ErrExcluded surfaces as a skip; everything else is a record failure
// for the caller to ledger.
func (c *Coordinator) mergeRecord(kind models.EntityKind, payload string, rawID int64, runID string) (mergeOutcome, error) {
	switch kind {
	case models.KindLocations:
		loc, err := transform.Location(payload, rawID, runID)
		if errors.Is(err, transform.ErrExcluded) {
			return recordSkipped, nil
		}
		if err != nil {
			return 0, err
		}
		if _, err := c.store.UpsertLocation(loc); err != nil {
			return 0, err
		}

		hours, err := transform.LocationHours(payload)
		if err != nil {
			return 0, err
		}
		if err := c.store.UpsertLocationHours(loc.SourceID, hours); err != nil {
			return 0, err
		}
		return recordWritten, nil

	case models.KindProducts:
		p, err := transform.Product(payload, rawID, runID)
		if err != nil {
			return 0, err
		}
		if _, err := c.store.UpsertProduct(p); err != nil {
			return 0, err
		}
		return recordWritten, nil

	case models.KindContracts:
		ct, err := transform.Contract(payload, rawID, runID)
		if err != nil {
			return 0, err
		}
		if _, err := c.store.UpsertContract(ct); err != nil {
			return 0, err
		}
		return recordWritten, nil

	case models.KindResources:
		r, err := transform.Resource(payload, rawID, runID)
		if err != nil {
			return 0, err
		}
		if _, err := c.store.UpsertResource(r); err != nil {
			return 0, err
		}
		return recordWritten, nil

	case models.KindExtraServices:
		s, err := transform.ExtraService(payload, rawID, runID)
		if err != nil {
			return 0, err
		}
		if _, err := c.store.UpsertExtraService(s); err != nil {
			return 0, err
		}
		return recordWritten, nil

	default:
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
}
