// Package monitor runs poll cycles: reconcile, aggregate, render, persist.
package monitor

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"minerwatch/internal/aggregate"
	"minerwatch/internal/cache"
	"minerwatch/internal/model"
	"minerwatch/internal/reconcile"
	"minerwatch/pkg/interfaces"
	"minerwatch/pkg/logger"
	"minerwatch/pkg/presenter"

	"github.com/google/uuid"
)

const (
	jobName         = "poll-cycle"
	DefaultInterval = time.Second
)

// Options driver options
type Options struct {
	Targets   []model.Target
	Store     interfaces.CacheStore // nil disables persistence
	Presenter *presenter.Presenter  // nil disables rendering
	Output    io.Writer             // Render destination
	Interval  time.Duration         // Delay between cycles
}

// Driver owns the worker cache and runs one poll cycle at a time
type Driver struct {
	reconciler *reconcile.Reconciler
	cache      *cache.WorkerCache
	targets    []model.Target
	store      interfaces.CacheStore
	presenter  *presenter.Presenter
	output     io.Writer
	interval   time.Duration

	mu    sync.Mutex // Serialises RunCycle and Flush
	state atomic.Int32
	hub   *Hub
	now   func() time.Time
}

// NewDriver creates a driver over c. The driver is the only writer of c.
func NewDriver(reconciler *reconcile.Reconciler, c *cache.WorkerCache, opts Options) *Driver {
	if c == nil {
		c = cache.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	d := &Driver{
		reconciler: reconciler,
		cache:      c,
		targets:    append([]model.Target(nil), opts.Targets...),
		store:      opts.Store,
		presenter:  opts.Presenter,
		output:     opts.Output,
		interval:   opts.Interval,
		now:        time.Now,
	}
	d.hub = newHub(d.State)
	return d
}

// State returns the current loop state
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
}

// Snapshots returns the hub publishing each cycle's result
func (d *Driver) Snapshots() *Hub {
	return d.hub
}

// RunCycle runs one poll cycle. Per-worker, render and persistence
// failures are logged and never returned; the only error is a context
// cancelled before the cycle started.
func (d *Driver) RunCycle(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	cycleID := uuid.New().String()
	ctx = logger.WithTraceID(ctx, cycleID)
	started := d.now().UTC()

	d.setState(StateFetching)
	records := d.reconciler.Reconcile(ctx, d.targets, d.cache)
	fleet := aggregate.Aggregate(ctx, records)

	snap := &model.Snapshot{
		CycleID:    cycleID,
		StartedAt:  started,
		FinishedAt: d.now().UTC(),
		Workers:    records,
		Fleet:      fleet,
	}

	d.setState(StateRendering)
	if d.presenter != nil {
		if err := d.presenter.Render(d.output, snap); err != nil {
			logger.ErrorCtx(ctx, "failed to render worker table: %v", err)
		}
	}

	// An in-flight cycle always completes its save, even during shutdown
	d.setState(StatePersisting)
	d.persist(context.WithoutCancel(ctx))

	d.hub.publish(snap)

	logger.DebugCtx(ctx, "cycle done: %d workers (%d online, %d offline), total hashrate %.2f, took %v",
		len(records), fleet.Online, fleet.Offline, fleet.TotalHashrate, snap.FinishedAt.Sub(started))
	return nil
}

// Flush saves the cache synchronously
func (d *Driver) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Save(ctx, d.store)
}

// Reload replaces the in-memory cache with the store's contents. Used when
// this instance takes over polling from another one sharing the store.
func (d *Driver) Reload(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store == nil {
		return
	}
	d.cache = cache.Load(ctx, d.store)
}

func (d *Driver) persist(ctx context.Context) {
	if d.store == nil {
		return
	}
	if err := d.cache.Save(ctx, d.store); err != nil {
		logger.ErrorCtx(ctx, "failed to persist worker cache to %s: %v", d.store.Name(), err)
	}
}

// Name implements jobs.Job
func (d *Driver) Name() string {
	return jobName
}

// Interval implements jobs.Job
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Run implements jobs.Job
func (d *Driver) Run(ctx context.Context) error {
	return d.RunCycle(ctx)
}

// Sleeping is called by the scheduler while it waits for the next cycle
func (d *Driver) Sleeping() {
	d.setState(StateSleeping)
}
