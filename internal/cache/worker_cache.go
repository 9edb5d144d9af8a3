// Package cache holds the persistent view of known workers between poll cycles.
package cache

import (
	"context"

	"minerwatch/internal/model"
	"minerwatch/pkg/interfaces"
	"minerwatch/pkg/logger"
)

// WorkerCache maps worker_id to the last good observation of that worker.
// Iteration follows first-seen order. It is not safe for concurrent use;
// the poll cycle owns it exclusively.
type WorkerCache struct {
	order   []string
	records map[string]model.WorkerRecord
}

// New creates an empty cache
func New() *WorkerCache {
	return &WorkerCache{
		order:   make([]string, 0),
		records: make(map[string]model.WorkerRecord),
	}
}

// FromRecords builds a cache from records in order.
// Records without a worker_id are dropped; a repeated worker_id keeps its
// first position and its last value.
func FromRecords(records []model.WorkerRecord) *WorkerCache {
	c := New()
	for _, r := range records {
		if r.WorkerID == "" {
			continue
		}
		c.put(r)
	}
	return c
}

// Load reads the cache from store. Any load error yields an empty cache.
func Load(ctx context.Context, store interfaces.CacheStore) *WorkerCache {
	if store == nil {
		return New()
	}

	records, err := store.Load(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to load worker cache from %s, starting empty: %v", store.Name(), err)
		return New()
	}

	c := FromRecords(records)
	logger.InfoCtx(ctx, "loaded %d cached workers from %s", c.Len(), store.Name())
	return c
}

// Get returns the cached record for workerID
func (c *WorkerCache) Get(workerID string) (model.WorkerRecord, bool) {
	r, ok := c.records[workerID]
	return r, ok
}

// Update stores an Online record, overwriting any previous entry.
// Records that are not Online are ignored so the cache only ever holds
// the last good observation. Returns whether the record was stored.
func (c *WorkerCache) Update(record model.WorkerRecord) bool {
	if !record.Online() || record.WorkerID == "" {
		return false
	}
	c.put(record)
	return true
}

func (c *WorkerCache) put(record model.WorkerRecord) {
	if _, exists := c.records[record.WorkerID]; !exists {
		c.order = append(c.order, record.WorkerID)
	}
	c.records[record.WorkerID] = record
}

// Records returns a copy of all records in first-seen order
func (c *WorkerCache) Records() []model.WorkerRecord {
	out := make([]model.WorkerRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// Range calls fn for each record in order until fn returns false
func (c *WorkerCache) Range(fn func(model.WorkerRecord) bool) {
	for _, id := range c.order {
		if !fn(c.records[id]) {
			return
		}
	}
}

// Len returns the number of cached workers
func (c *WorkerCache) Len() int {
	return len(c.order)
}

// Save persists the cache to store
func (c *WorkerCache) Save(ctx context.Context, store interfaces.CacheStore) error {
	if store == nil {
		return nil
	}
	return store.Save(ctx, c.Records())
}
