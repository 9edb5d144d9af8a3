package main

import (
	"fmt"
	"net/http"
	"os"

	"minerwatch/app/handler"
	"minerwatch/app/router"
	"minerwatch/internal/cache"
	"minerwatch/internal/monitor"
	"minerwatch/internal/reconcile"
	"minerwatch/pkg/config"
	"minerwatch/pkg/logger"
	"minerwatch/pkg/presenter"
	"minerwatch/pkg/source"
	filestore "minerwatch/pkg/store/file"
	mysqlstore "minerwatch/pkg/store/mysql"
	redisstore "minerwatch/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	app.targets = app.config.ResolveTargets()
	return nil
}

// initLogger initializes logging and reports configuration problems
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.InfoCtx(app.ctx, "Logging system has been closed")
		_ = logger.Sync()
	})

	for _, warning := range app.config.Warnings {
		logger.WarnCtx(app.ctx, "%s", warning)
	}
	if len(app.targets) == 0 {
		logger.WarnCtx(app.ctx, "no worker targets configured, cached workers will be reported offline")
	}
	logger.InfoCtx(app.ctx, "%d worker targets configured", len(app.targets))
	return nil
}

// initCacheStore initializes the configured cache backend
func (app *Application) initCacheStore() error {
	switch app.config.Cache.Backend {
	case "file":
		app.cacheStore = filestore.NewCacheStore(app.config.Cache.File.Path)
	case "redis":
		return app.initRedis()
	case "mysql":
		return app.initMySQL()
	default:
		return fmt.Errorf("unknown cache backend %q", app.config.Cache.Backend)
	}
	return nil
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config.Cache.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.cacheStore = redisstore.NewWorkerRepository(client.GetClient(), app.config.Cache.Redis.KeyPrefix)
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initMySQL initializes MySQL
func (app *Application) initMySQL() error {
	repo, err := mysqlstore.NewRepository(app.ctx, app.config.Cache.MySQL.DSN())
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.cacheStore = repo.Worker
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initSource initializes the worker endpoint client
func (app *Application) initSource() error {
	app.source = source.NewHTTPSource(app.config.Poll.FetchTimeout.Std())
	return nil
}

// initMonitor loads the cache and builds the poll cycle driver
func (app *Application) initMonitor() error {
	app.cache = cache.Load(app.ctx, app.cacheStore)

	app.reconciler = reconcile.NewReconciler(app.source, reconcile.Options{
		Concurrency: app.config.Poll.Concurrency,
		SuffixMatch: app.config.Poll.SuffixMatchEnabled(),
	})

	opts := monitor.Options{
		Targets:  app.targets,
		Store:    app.cacheStore,
		Interval: app.config.Poll.Interval.Std(),
	}
	if app.config.Display.IsEnabled() {
		app.presenter = presenter.New(presenter.Options{
			Color:       presenter.ColorEnabled(app.config.Display.Color, os.Stdout),
			ClearScreen: true,
			Width:       presenter.TerminalWidth(os.Stdout),
		})
		opts.Presenter = app.presenter
		opts.Output = os.Stdout
	}

	app.driver = monitor.NewDriver(app.reconciler, app.cache, opts)
	return nil
}

// initHTTPServer initializes the status API when enabled
func (app *Application) initHTTPServer() error {
	if !app.config.Server.Enabled {
		logger.InfoCtx(app.ctx, "Status API disabled")
		return nil
	}

	snapshots := app.driver.Snapshots()
	r := router.NewRouter(
		handler.NewWorkerHandler(snapshots),
		handler.NewFleetHandler(snapshots),
		handler.NewStreamHandler(snapshots),
		app.config.Server.APIKey,
	)

	// Set Gin mode
	switch app.config.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(app.config.Server.Mode)
	default:
		return fmt.Errorf("invalid server mode %q", app.config.Server.Mode)
	}

	// Create Gin engine
	app.ginEngine = gin.New()

	// Setup routes
	r.Setup(app.ginEngine)

	// Create HTTP server
	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}
