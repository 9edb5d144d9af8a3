package interfaces

import (
	"context"

	"minerwatch/internal/model"
)

// WorkerSource fetches the current status of one worker endpoint
type WorkerSource interface {
	// Fetch returns an Online record, or an error when the endpoint is
	// unreachable, answers non-2xx, or returns an undecodable payload.
	Fetch(ctx context.Context, target model.Target) (*model.WorkerRecord, error)
}

// CacheStore durable storage for the worker cache.
// Records are loaded and saved in cache (first-seen) order.
type CacheStore interface {
	Load(ctx context.Context) ([]model.WorkerRecord, error)
	Save(ctx context.Context, records []model.WorkerRecord) error
	Name() string
}

// SnapshotReader provides read access to the latest cycle result
type SnapshotReader interface {
	Latest() *model.Snapshot
	Subscribe() (<-chan *model.Snapshot, func())
	State() string
}
