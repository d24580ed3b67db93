package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/ingest"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

type RunHandler struct {
	coordinator *ingest.Coordinator
}

func NewRunHandler(coordinator *ingest.Coordinator) *RunHandler {
	return &RunHandler{
		coordinator: coordinator,
	}
}

// StartRuns accepts {"entity_kind": "all"} or one specific kind and
// kicks off the sync asynchronously. The response carries the run ids
// to poll.
func (h *RunHandler) StartRuns(c *fiber.Ctx) error {
	var req struct {
		EntityKind string `json:"entity_kind"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var kinds []models.EntityKind
	switch req.EntityKind {
	case "", "all":
		kinds = models.AllKinds
	default:
		kinds = []models.EntityKind{models.EntityKind(req.EntityKind)}
	}

	ids, err := h.coordinator.StartRuns(kinds, "api")
	if err != nil {
		logger.Error("Failed to start sync runs", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	runs := make(map[string]string, len(ids))
	for kind, id := range ids {
		runs[string(kind)] = id
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
		"runs":   runs,
	})
}

// GetRun returns one run with its record-level errors.
func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	runID := c.Params("id")

	run, errs, err := h.coordinator.RunStatus(runID)
	if err != nil {
		logger.Error("Failed to load run", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run",
		})
	}
	if run == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}

	errList := make([]fiber.Map, 0, len(errs))
	for _, e := range errs {
		errList = append(errList, fiber.Map{
			"source_id":  e.SourceID,
			"message":    e.Message,
			"created_at": e.CreatedAt.Unix(),
		})
	}

	resp := fiber.Map{
		"id":           run.ID,
		"source_name":  run.SourceName,
		"entity_kind":  string(run.EntityKind),
		"status":       string(run.Status),
		"triggered_by": run.TriggeredBy,
		"started_at":   run.StartedAt.Unix(),
		"rows_read":    run.RowsRead,
		"rows_written": run.RowsWritten,
		"rows_failed":  run.RowsFailed,
		"rows_skipped": run.RowsSkipped,
		"errors":       errList,
	}
	if run.FinishedAt != nil {
		resp["finished_at"] = run.FinishedAt.Unix()
	}
	if run.ErrorMessage != nil {
		resp["error_message"] = *run.ErrorMessage
	}

	return c.JSON(resp)
}
