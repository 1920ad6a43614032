package repository

import (
	"context"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
)

// JobStore is the single shared mutable resource of the system.
type JobStore interface {
	// Upsert merges upd into the record for id, creating it on first write.
	// The returned flag is false when a terminal record refused the status
	// part of the update. Empty ids are silently ignored.
	Upsert(ctx context.Context, id string, upd model.JobUpdate) (model.JobRecord, bool)
	// Get returns a copy of the record or domain.ErrNotFound.
	Get(ctx context.Context, id string) (model.JobRecord, error)
	// List returns a snapshot ordered by UpdatedAt descending.
	List(ctx context.Context) []model.JobRecord
}

// JobArchive is an optional durable sidecar for terminal jobs. The core's
// correctness does not depend on it.
type JobArchive interface {
	Archive(ctx context.Context, rec model.JobRecord) error
}
