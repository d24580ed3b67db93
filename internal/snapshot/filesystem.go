package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

// FilesystemStore archives snapshots under a local directory. The
// default for single-node deployments.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Write(ctx context.Context, entityKind, runID string, payloads []json.RawMessage) (string, error) {
	doc, err := marshalDocument(payloads)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues("filesystem", "error").Inc()
		return "", err
	}

	relPath := objectPath(entityKind, runID, time.Now().UTC())
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		metrics.SnapshotWrites.WithLabelValues("filesystem", "error").Inc()
		return "", fmt.Errorf("failed to create snapshot partition: %w", err)
	}

	if err := os.WriteFile(fullPath, doc, 0644); err != nil {
		metrics.SnapshotWrites.WithLabelValues("filesystem", "error").Inc()
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	metrics.SnapshotWrites.WithLabelValues("filesystem", "ok").Inc()
	logger.Debug("Snapshot written",
		zap.String("path", fullPath),
		zap.Int("records", len(payloads)),
	)
	return fullPath, nil
}
