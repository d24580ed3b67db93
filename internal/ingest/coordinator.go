package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/nexudus"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/snapshot"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/sqlite"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

const sourceName = "nexudus"

// Source is the upstream read surface the coordinator pulls from.
type Source interface {
	Businesses(ctx context.Context) ([]json.RawMessage, error)
	FloorPlanDesks(ctx context.Context) ([]json.RawMessage, error)
	CoworkerContracts(ctx context.Context) ([]json.RawMessage, error)
	ExtraServices(ctx context.Context) ([]json.RawMessage, error)
	Resource(ctx context.Context, id int64) (json.RawMessage, error)
}

// Coordinator owns the sync run lifecycle. It is the only writer of
// sync_runs and sync_errors: everything else reports outcomes through
// it. Entity kinds run concurrently; records within one kind merge
// sequentially.
type Coordinator struct {
	store     *sqlite.Client
	source    Source
	snapshots snapshot.Store // nil disables archiving
}

func NewCoordinator(store *sqlite.Client, source Source, snapshots snapshot.Store) *Coordinator {
	return &Coordinator{store: store, source: source, snapshots: snapshots}
}

// StartRuns creates one pending run per requested kind and executes
// them asynchronously. The returned map is kind → run id.
func (c *Coordinator) StartRuns(kinds []models.EntityKind, triggeredBy string) (map[models.EntityKind]string, error) {
	runs := make([]*models.SyncRun, 0, len(kinds))
	ids := make(map[models.EntityKind]string, len(kinds))

	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("invalid entity kind %q", kind)
		}

		run := &models.SyncRun{
			ID:          uuid.NewString(),
			SourceName:  sourceName,
			EntityKind:  kind,
			Status:      models.RunPending,
			TriggeredBy: triggeredBy,
			StartedAt:   time.Now(),
		}
		if err := c.store.CreateRun(run); err != nil {
			return nil, err
		}

		metrics.RunsStarted.WithLabelValues(string(kind), triggeredBy).Inc()
		runs = append(runs, run)
		ids[kind] = run.ID
	}

	go c.execute(runs)

	return ids, nil
}

// RunStatus returns a run with its record-level errors, or nil when
// the run id is unknown.
func (c *Coordinator) RunStatus(runID string) (*models.SyncRun, []models.SyncError, error) {
	run, err := c.store.GetRun(runID)
	if err != nil || run == nil {
		return nil, nil, err
	}

	errs, err := c.store.ListRunErrors(runID)
	if err != nil {
		return nil, nil, err
	}
	return run, errs, nil
}

func (c *Coordinator) execute(runs []*models.SyncRun) {
	ctx := context.Background()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, run := range runs {
		run := run
		g.Go(func() error {
			c.runKind(ctx, run)
			return nil
		})
	}

	// Runs isolate their own failures; the group never errors.
	_ = g.Wait()
}

func (c *Coordinator) runKind(ctx context.Context, run *models.SyncRun) {
	log := logger.With(
		zap.String("run_id", run.ID),
		zap.String("entity_kind", string(run.EntityKind)),
	)
	log.Info("Sync run starting")

	payloads, err := c.fetch(ctx, run.EntityKind)
	if err != nil {
		// Nothing fetched: the run failed before any record.
		msg := err.Error()
		run.Status = models.RunFailed
		run.ErrorMessage = &msg
		c.finalize(run, log)
		return
	}

	if err := c.store.MarkRunRunning(run.ID); err != nil {
		log.Error("Failed to mark run running", zap.Error(err))
	}

	c.archive(ctx, run, payloads, log)

	for _, payload := range payloads {
		run.RowsRead++
		body := string(payload)

		sourceID, hints := routingHints(run.EntityKind, body)
		rawID, err := c.store.AppendRaw(run.EntityKind, run.ID, sourceID, body, hints)
		if err != nil {
			c.recordFailure(run, sourceID, err, log)
			continue
		}
		metrics.RawRecordsAppended.WithLabelValues(string(run.EntityKind)).Inc()

		outcome, err := c.mergeRecord(run.EntityKind, body, rawID, run.ID)
		switch {
		case err != nil:
			c.recordFailure(run, sourceID, err, log)
		case outcome == recordSkipped:
			run.RowsSkipped++
			metrics.RecordsProcessed.WithLabelValues(string(run.EntityKind), "skipped").Inc()
		default:
			run.RowsWritten++
			metrics.RecordsProcessed.WithLabelValues(string(run.EntityKind), "written").Inc()
		}
	}

	run.Status = terminalStatus(run)
	c.finalize(run, log)
}

// fetch pulls all raw payloads for one kind. Resources are fetched one
// by one: Nexudus has no bulk endpoint for them, so the ids come from
// the room products already merged.
func (c *Coordinator) fetch(ctx context.Context, kind models.EntityKind) ([]json.RawMessage, error) {
	switch kind {
	case models.KindLocations:
		return c.source.Businesses(ctx)
	case models.KindProducts:
		return c.source.FloorPlanDesks(ctx)
	case models.KindContracts:
		return c.source.CoworkerContracts(ctx)
	case models.KindExtraServices:
		return c.source.ExtraServices(ctx)
	case models.KindResources:
		return c.fetchResources(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (c *Coordinator) fetchResources(ctx context.Context) ([]json.RawMessage, error) {
	rooms, err := c.store.ListRoomProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to list room products: %w", err)
	}

	seen := make(map[int64]bool)
	var payloads []json.RawMessage
	for _, room := range rooms {
		if room.ResourceID == nil || seen[*room.ResourceID] {
			continue
		}
		seen[*room.ResourceID] = true

		payload, err := c.source.Resource(ctx, *room.ResourceID)
		if errors.Is(err, nexudus.ErrNotFound) {
			logger.Warn("Resource referenced by product does not exist",
				zap.Int64("resource_id", *room.ResourceID),
				zap.Int64("product_id", room.SourceID),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	return payloads, nil
}

func (c *Coordinator) archive(ctx context.Context, run *models.SyncRun, payloads []json.RawMessage, log *zap.Logger) {
	if c.snapshots == nil || len(payloads) == 0 {
		return
	}

	path, err := c.snapshots.Write(ctx, string(run.EntityKind), run.ID, payloads)
	if err != nil {
		// The raw ledger is the source of truth; a missed archive
		// copy is not a run failure.
		log.Warn("Failed to archive run snapshot", zap.Error(err))
		return
	}
	log.Info("Run snapshot archived", zap.String("path", path))
}

func (c *Coordinator) recordFailure(run *models.SyncRun, sourceID int64, err error, log *zap.Logger) {
	run.RowsFailed++
	metrics.RecordsProcessed.WithLabelValues(string(run.EntityKind), "failed").Inc()
	log.Warn("Record failed", zap.Int64("source_id", sourceID), zap.Error(err))

	var idRef *int64
	if sourceID != 0 {
		idRef = &sourceID
	}
	ledgerErr := c.store.InsertSyncError(&models.SyncError{
		RunID:      run.ID,
		EntityKind: run.EntityKind,
		SourceID:   idRef,
		Message:    err.Error(),
	})
	if ledgerErr != nil {
		log.Error("Failed to ledger sync error", zap.Error(ledgerErr))
	}
}

func terminalStatus(run *models.SyncRun) models.RunStatus {
	switch {
	case run.RowsFailed == 0:
		return models.RunSuccess
	case run.RowsWritten == 0 && run.RowsSkipped == 0:
		return models.RunFailed
	default:
		return models.RunPartialFailure
	}
}

func (c *Coordinator) finalize(run *models.SyncRun, log *zap.Logger) {
	if err := c.store.FinalizeRun(run); err != nil {
		log.Error("Failed to finalize run", zap.Error(err))
		return
	}

	metrics.RunsFinished.WithLabelValues(string(run.EntityKind), string(run.Status)).Inc()
	metrics.RunDuration.WithLabelValues(string(run.EntityKind)).
		Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	log.Info("Sync run finished",
		zap.String("status", string(run.Status)),
		zap.Int("rows_read", run.RowsRead),
		zap.Int("rows_written", run.RowsWritten),
		zap.Int("rows_failed", run.RowsFailed),
		zap.Int("rows_skipped", run.RowsSkipped),
	)
}
