// Package snapshot archives the full raw payload set of each sync run
// as one date-partitioned JSON document, an audit copy alongside the
// raw ledger.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store writes one archive document per (entity kind, run).
type Store interface {
	// Write persists the payloads and returns the storage path.
	Write(ctx context.Context, entityKind, runID string, payloads []json.RawMessage) (string, error)
}

// objectPath lays out archives as
// {entity}/{yyyy}/{mm}/{dd}/{run_id}.json so date-ranged cleanup and
// replay stay cheap.
func objectPath(entityKind, runID string, now time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.json",
		entityKind, now.Year(), int(now.Month()), now.Day(), runID)
}

func marshalDocument(payloads []json.RawMessage) ([]byte, error) {
	doc, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot document: %w", err)
	}
	return doc, nil
}
