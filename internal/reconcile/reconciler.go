// Package reconcile merges one cycle of endpoint results with the worker cache.
package reconcile

import (
	"context"
	"strings"
	"sync"

	"minerwatch/internal/cache"
	"minerwatch/internal/model"
	"minerwatch/pkg/interfaces"
	"minerwatch/pkg/logger"
)

// Options tunes identity recovery and fetch parallelism
type Options struct {
	// Concurrency is the number of endpoints fetched at once; <= 1 is sequential
	Concurrency int
	// SuffixMatch recovers a failing target's identity from a cached
	// worker_id the URL ends with, when no explicit or learned mapping exists
	SuffixMatch bool
}

// Reconciler produces the per-cycle worker set
type Reconciler struct {
	source  interfaces.WorkerSource
	options Options
}

// NewReconciler creates a reconciler over source
func NewReconciler(source interfaces.WorkerSource, options Options) *Reconciler {
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	return &Reconciler{
		source:  source,
		options: options,
	}
}

// fetchResult outcome of fetching one target
type fetchResult struct {
	record *model.WorkerRecord
	err    error
}

// Reconcile runs one cycle against targets and returns the reconciled set:
// cached workers first (Offline unless refreshed), then newly discovered ones.
// Online results are written to c; nothing else is.
func (r *Reconciler) Reconcile(ctx context.Context, targets []model.Target, c *cache.WorkerCache) []model.WorkerRecord {
	set := newWorkingSet()
	c.Range(func(rec model.WorkerRecord) bool {
		set.merge(rec.WithLiveness(model.LivenessOffline))
		return true
	})

	results := r.fetchAll(ctx, targets)

	// Merge strictly in target order so parallel fetch cannot change the outcome
	for i, target := range targets {
		res := results[i]
		if res.err == nil && res.record != nil {
			rec := *res.record
			rec.Liveness = model.LivenessOnline
			set.merge(rec)
			continue
		}

		logger.WarnCtx(ctx, "failed to get data from %s, marking worker offline: %v", target.URL, res.err)

		known, ok := r.recoverIdentity(target, c)
		if !ok {
			logger.DebugCtx(ctx, "no cached worker matches %s, skipping", target.URL)
			continue
		}
		set.merge(known.WithLiveness(model.LivenessOffline))
	}

	records := set.records()
	for _, rec := range records {
		c.Update(rec)
	}
	return records
}

func (r *Reconciler) fetchAll(ctx context.Context, targets []model.Target) []fetchResult {
	results := make([]fetchResult, len(targets))
	if len(targets) == 0 {
		return results
	}

	if r.options.Concurrency == 1 {
		for i, target := range targets {
			results[i] = r.fetch(ctx, target)
		}
		return results
	}

	sem := make(chan struct{}, r.options.Concurrency)
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, target model.Target) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.fetch(ctx, target)
		}(i, target)
	}
	wg.Wait()
	return results
}

func (r *Reconciler) fetch(ctx context.Context, target model.Target) fetchResult {
	if err := ctx.Err(); err != nil {
		return fetchResult{err: err}
	}
	record, err := r.source.Fetch(ctx, target)
	if err == nil && record == nil {
		err = errEmptyResult
	}
	return fetchResult{record: record, err: err}
}

// recoverIdentity finds the cached worker a failing target belongs to:
// the explicit worker_id mapping, then the worker most recently fetched
// from that URL, then (if enabled) a cached worker_id the URL ends with.
func (r *Reconciler) recoverIdentity(target model.Target, c *cache.WorkerCache) (model.WorkerRecord, bool) {
	if target.WorkerID != "" {
		return c.Get(target.WorkerID)
	}

	var found model.WorkerRecord
	var ok bool
	c.Range(func(rec model.WorkerRecord) bool {
		if rec.SourceURL == "" || rec.SourceURL != target.URL {
			return true
		}
		// Ties keep cache order
		if !ok || rec.LastSeen.After(found.LastSeen) {
			found, ok = rec, true
		}
		return true
	})
	if ok || !r.options.SuffixMatch {
		return found, ok
	}

	c.Range(func(rec model.WorkerRecord) bool {
		if rec.WorkerID != "" && strings.HasSuffix(target.URL, rec.WorkerID) {
			found, ok = rec, true
			return false
		}
		return true
	})
	return found, ok
}
