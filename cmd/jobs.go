package main

import (
	"context"
	"time"

	"minerwatch/internal/jobs"
	"minerwatch/internal/monitor"
	"minerwatch/pkg/logger"
	redisstore "minerwatch/pkg/store/redis"
)

// initJobs registers the poll cycle as a fixed-delay background job
func (app *Application) initJobs() error {
	manager := jobs.NewManager(app.ctx)

	var job jobs.SleepAware = app.driver
	if app.config.Cache.Backend == "redis" && app.config.Cache.Redis.SinglePoller {
		lock := redisstore.NewPollerLock(app.redisClient.GetClient(), app.config.Cache.Redis.KeyPrefix)
		job = newSinglePollerJob(app.driver, lock)
		app.registerCleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Unlock(ctx); err != nil {
				logger.WarnCtx(app.ctx, "Failed to release poller lock: %v", err)
			}
		})
	}

	manager.Register(job)
	logger.InfoCtx(app.ctx, "Registered job %s (interval %v)", job.Name(), job.Interval())

	app.jobsManager = manager
	return nil
}

// pollerLock is satisfied by redisstore.PollerLock
type pollerLock interface {
	TryLock(ctx context.Context) (bool, error)
	IsHeld() bool
}

// singlePollerJob runs poll cycles only while this instance holds the poller lock
type singlePollerJob struct {
	driver *monitor.Driver
	lock   pollerLock
}

func newSinglePollerJob(driver *monitor.Driver, lock pollerLock) *singlePollerJob {
	return &singlePollerJob{driver: driver, lock: lock}
}

func (j *singlePollerJob) Name() string { return j.driver.Name() }

func (j *singlePollerJob) Interval() time.Duration { return j.driver.Interval() }

func (j *singlePollerJob) Sleeping() { j.driver.Sleeping() }

func (j *singlePollerJob) Run(ctx context.Context) error {
	if !j.lock.IsHeld() {
		acquired, err := j.lock.TryLock(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			return nil
		}
		// Another instance may have written the cache since we last polled
		j.driver.Reload(ctx)
	}
	return j.driver.RunCycle(ctx)
}
