package store

import (
	"context"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"go.uber.org/zap"
)

// Nop is used when no database is configured. Results are only logged and all
// players have zero stats.
type Nop struct {
	logger *zap.Logger
}

// NewNop creates a new Nop store.
func NewNop(logger *zap.Logger) *Nop {
	return &Nop{logger: logger}
}

// SaveMatchResult logs the match result.
func (n *Nop) SaveMatchResult(_ context.Context, result event.MatchResult) error {
	n.logger.Debug("dropping match result without database",
		zap.String("match_id", result.MatchID.String()),
		zap.Any("channel_id", result.Channel),
		zap.Any("room_id", result.Room),
		zap.Any("game_mode", result.Mode))
	return nil
}

// PlayerStats returns zero stats.
func (n *Nop) PlayerStats(_ context.Context, _ model.PlayerID) (player.Stats, error) {
	return player.Stats{}, nil
}
