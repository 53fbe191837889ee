// Package ticksvc drives the simulation of all rooms with a fixed tick.
package ticksvc

import (
	"context"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/service"
	"go.uber.org/zap"
	"time"
)

// DefaultInterval is the default tick interval.
const DefaultInterval = 100 * time.Millisecond

// Updater is updated with the elapsed time since the last tick.
type Updater interface {
	Update(ctx context.Context, elapsed time.Duration) error
}

type tickService struct {
	logger   *zap.Logger
	updater  Updater
	interval time.Duration
	// now is used for measuring elapsed time.
	now func() time.Time
}

// New creates a service.Service that updates the given Updater in the given
// interval. The elapsed time is measured, so a delayed tick is caught up by a
// larger elapsed duration.
func New(logger *zap.Logger, updater Updater, interval time.Duration) service.Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &tickService{
		logger:   logger,
		updater:  updater,
		interval: interval,
		now:      time.Now,
	}
}

// Run ticks until the given context.Context is done.
func (s *tickService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return nil
		}
		now := s.now()
		elapsed := now.Sub(last)
		last = now
		err := s.updater.Update(ctx, elapsed)
		if err != nil {
			if errors.Is(err, errors.KindContextAborted) {
				return nil
			}
			errors.Log(s.logger, errors.Wrap(err, "update", errors.Details{"elapsed": elapsed}))
		}
		if elapsed > 2*s.interval {
			s.logger.Debug("tick delayed", zap.Duration("elapsed", elapsed), zap.Duration("interval", s.interval))
		}
	}
}
