package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/enrichment"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/sqlite"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

type EnrichmentHandler struct {
	enricher *enrichment.Enricher
	store    *sqlite.Client
}

func NewEnrichmentHandler(enricher *enrichment.Enricher, store *sqlite.Client) *EnrichmentHandler {
	return &EnrichmentHandler{
		enricher: enricher,
		store:    store,
	}
}

// TriggerEnrichment enriches one location synchronously when
// location_id is given, or sweeps all locations in the background.
func (h *EnrichmentHandler) TriggerEnrichment(c *fiber.Ctx) error {
	force := c.QueryBool("force")

	if raw := c.Query("location_id"); raw != "" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "location_id must be an integer",
			})
		}

		outcome, err := h.enricher.EnrichLocation(c.Context(), locationID, force)
		if errors.Is(err, enrichment.ErrAlreadyRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if err != nil && outcome == nil {
			logger.Error("Failed to enrich location", zap.Int64("location_id", locationID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		resp := fiber.Map{
			"location_id":   outcome.LocationID,
			"location_name": outcome.LocationName,
			"status":        string(outcome.Status),
			"pois_found":    outcome.POIsFound,
			"transit_found": outcome.TransitFound,
		}
		if outcome.ErrorMessage != nil {
			resp["error_message"] = *outcome.ErrorMessage
		}
		return c.JSON(resp)
	}

	// The sweep can take minutes; run it detached and let the status
	// endpoint report progress.
	go func() {
		if _, err := h.enricher.EnrichAll(context.Background(), force); err != nil {
			logger.Error("Enrichment sweep failed", zap.Error(err))
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// GetStatus summarizes the latest enrichment attempt per location.
func (h *EnrichmentHandler) GetStatus(c *fiber.Ctx) error {
	report, err := h.store.GetEnrichmentStatusReport()
	if err != nil {
		logger.Error("Failed to build enrichment status report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build enrichment status report",
		})
	}
	return c.JSON(report)
}
