// Package debugstatssvc periodically logs system and match server stats.
package debugstatssvc

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/service"
	"go.uber.org/zap"
	"runtime"
	"time"
)

// Config for NewService.
type Config struct {
	// IsEnabled describes whether periodic debug stats logging is desired.
	IsEnabled bool
	// Interval in which to log debug stats.
	Interval time.Duration
	// IncludeStack describes whether to include the stack of all goroutines.
	IncludeStack bool
}

// Counter provides the count of rooms and players.
type Counter interface {
	RoomCount() int
	PlayerCount() int
}

type debugStatsService struct {
	logger  *zap.Logger
	config  Config
	counter Counter
}

// NewService creates a new service.Service that logs debug stats.
func NewService(logger *zap.Logger, config Config, counter Counter) service.Service {
	return &debugStatsService{
		logger:  logger,
		config:  config,
		counter: counter,
	}
}

func (s *debugStatsService) Run(ctx context.Context) error {
	if !s.config.IsEnabled || s.config.Interval <= 0 {
		return nil
	}
	s.logger.Debug(fmt.Sprintf("logging system state every %gs", s.config.Interval.Seconds()))
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.logStats()
		}
	}
}

// logStats logs the current system state like memory stats and counts.
func (s *debugStatsService) logStats() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	fields := []zap.Field{
		zap.Int("num_cpu", runtime.NumCPU()),
		zap.Int("num_goroutine", runtime.NumGoroutine()),
		zap.Uint64("memory_in_use_mb", memStats.Sys/1000/1000),
		zap.Int("rooms", s.counter.RoomCount()),
		zap.Int("players", s.counter.PlayerCount()),
	}
	if s.config.IncludeStack {
		buf := make([]byte, 1<<16)
		stackSize := runtime.Stack(buf, true)
		fields = append(fields, zap.ByteString("stack", buf[:stackSize]))
	}
	s.logger.Debug("debug stats", fields...)
}
