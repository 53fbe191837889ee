package app

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/debugstatssvc"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/gateway"
	"github.com/lefinal/masc-match/logging"
	"github.com/lefinal/masc-match/logpublishsvc"
	"github.com/lefinal/masc-match/noticesvc"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/service"
	"github.com/lefinal/masc-match/ticksvc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"time"
)

// serviceFunc implements service.Service for a single function.
type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type services map[string]service.Service

// sessionCounter counts rooms of channels and identified players of the
// gateway.
type sessionCounter struct {
	channels *channel.Registry
	gateway  *gateway.Gateway
}

func (c sessionCounter) RoomCount() int {
	return c.channels.RoomCount()
}

func (c sessionCounter) PlayerCount() int {
	return c.gateway.PlayerCount()
}

func createServices(appConfig Config, logger *zap.Logger, newPortal func(name string) portal.Portal,
	logEntriesIn <-chan logging.LogEntry, channels *channel.Registry, gw *gateway.Gateway) services {
	services := make(services)
	services["debug-stats"] = debugstatssvc.NewService(logger.Named("debug-stats"), debugstatssvc.Config{
		IsEnabled: appConfig.DebugStatsIntervalSec.Valid && appConfig.DebugStatsIntervalSec.Int > 0,
		Interval:  time.Duration(appConfig.DebugStatsIntervalSec.Int) * time.Second,
	}, sessionCounter{channels: channels, gateway: gw})
	services["tick"] = ticksvc.New(logger.Named("tick"), channels,
		time.Duration(appConfig.TickIntervalMS)*time.Millisecond)
	services["notice"] = noticesvc.New(logger.Named("notice"), newPortal("notice"), channels)
	services["log-publish"] = logpublishsvc.New(logger.Named("log-publish"), newPortal("log-publish"), logEntriesIn)
	return services
}

// run all services until the given context.Context is done or one fails.
func (s services) run(ctx context.Context, logger *zap.Logger) error {
	wg, lifetime := errgroup.WithContext(ctx)
	for name, serviceToRun := range s {
		name, serviceToRun := name, serviceToRun
		wg.Go(func() error {
			logger.Debug(fmt.Sprintf("service %s up", name))
			defer logger.Debug(fmt.Sprintf("service %s down", name))
			if err := serviceToRun.Run(lifetime); err != nil {
				return errors.Wrap(err, "run service", errors.Details{"service_name": name})
			}
			return nil
		})
	}
	return wg.Wait()
}
