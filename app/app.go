// Package app boots and runs a complete match server.
package app

import (
	"context"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/gateway"
	"github.com/lefinal/masc-match/logging"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/resource"
	"github.com/lefinal/masc-match/room"
	"github.com/lefinal/masc-match/store"
	"github.com/lefinal/masc-match/webserver"
	"github.com/lefinal/masc-match/ws"
	"go.uber.org/zap"
	"time"
)

// Logger names that are never published via MQTT as publishing failures would
// loop.
var omitPublishLoggers = []string{"log-publish", "portal"}

// matchStore persists match results and provides player stats.
type matchStore interface {
	games.ResultStore
	gateway.StatsStore
}

// App is a complete match server instance.
type App struct {
	// config is the main config used for the App.
	config Config
}

// NewApp creates a new App with the given Config. Run it with App.Boot.
func NewApp(config Config) *App {
	return &App{
		config: config,
	}
}

// Boot sets everything up based on the set config and runs until the given
// context.Context is done.
func (app *App) Boot(ctx context.Context) error {
	err := ValidateConfig(app.config)
	if err != nil {
		return err
	}
	logger, publishLog, err := logging.NewLogger(ctx, app.config.Log, omitPublishLoggers...)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "create logger",
		}
	}
	defer func() { _ = logger.Sync() }()
	err = app.boot(ctx, logger, publishLog)
	if err != nil {
		err = errors.Wrap(err, "boot", nil)
		errors.Log(logger, err)
		return err
	}
	return nil
}

func (app *App) boot(ctx context.Context, logger *zap.Logger, publishLog <-chan logging.LogEntry) error {
	logger.Info("booting up")
	catalog, err := resource.Load()
	if err != nil {
		return errors.Wrap(err, "load resource catalog", nil)
	}
	// Persistence.
	var mall matchStore
	if app.config.DBConn.Valid {
		logger.Debug("connecting to database")
		db, err := store.Connect(ctx, logger.Named("db"), app.config.DBConn.String, app.config.MaxDBConnections)
		if err != nil {
			return errors.Wrap(err, "connect database", nil)
		}
		defer db.Close()
		mall = store.NewMall(logger.Named("store"), db)
		logger.Debug("database ready")
	} else {
		logger.Warn("no database configured. match results will not be persisted.")
		mall = store.NewNop(logger.Named("store"))
	}
	// Portal.
	var portalBase portal.Base
	if app.config.MQTTAddr.Valid {
		portalBase, err = portal.NewBase(logger.Named("portal"), portal.Config{MQTTAddr: app.config.MQTTAddr.String})
		if err != nil {
			return errors.Wrap(err, "new portal base", nil)
		}
	}
	newPortal := func(name string) portal.Portal {
		if portalBase == nil {
			return portal.NewNop(logger.Named("portal").Named(name))
		}
		return portalBase.NewPortal(name)
	}
	// Channels and rooms.
	updateConcurrency := app.config.UpdateConcurrency
	if updateConcurrency == 0 {
		updateConcurrency = defaultUpdateConcurrency
	}
	channels, err := channel.NewRegistry(logger.Named("channels"), app.config.Channels, room.Deps{
		Logger:    logger.Named("room"),
		Timing:    app.config.Timing.apply(games.DefaultTiming()),
		Catalog:   catalog,
		Results:   mall,
		Publisher: newPortal("rooms"),
	}, updateConcurrency)
	if err != nil {
		return errors.Wrap(err, "new channel registry", nil)
	}
	// Network boundary.
	gw := gateway.New(logger.Named("gateway"), channels, mall)
	wsHub := ws.NewHub(logger.Named("ws"), gw)
	webServer, err := webserver.New(logger.Named("web-server"), webserver.Config{
		ServeAddr:    app.config.ServeAddr,
		WriteTimeout: webserver.DefaultWriteTimeout,
		ReadTimeout:  webserver.DefaultReadTimeout,
	}, channels, ws.HandleWS(ctx, logger.Named("ws"), wsHub))
	if err != nil {
		return errors.Wrap(err, "new web server", nil)
	}
	services := createServices(app.config, logger, newPortal, publishLog, channels, gw)
	services["ws-hub"] = wsHub
	services["web-server"] = webServer
	if portalBase != nil {
		services["portal"] = serviceFunc(portalBase.Open)
	}
	logger.Info("boot completed", zap.Int("channels", len(app.config.Channels)),
		zap.Duration("tick_interval", time.Duration(app.config.TickIntervalMS)*time.Millisecond))
	err = services.run(ctx, logger)
	if err != nil {
		return errors.Wrap(err, "run services", nil)
	}
	logger.Info("shut down")
	return nil
}
